package domain

import "context"

// AdsAPI is the remote ad metrics provider.
type AdsAPI interface {
	ListAdAccounts(ctx context.Context, token string) ([]AdAccount, error)
	ListCampaigns(ctx context.Context, token, accountID string) ([]RawCampaign, error)
}

// CredentialStore persists the single access token between restarts.
type CredentialStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// TextGenerator produces free text from a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
