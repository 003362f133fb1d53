package usecase

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"adsreporter/internal/domain"
	"adsreporter/pkg/logger"
	"adsreporter/pkg/metrics"
)

type fakeAdsAPI struct {
	mu           sync.Mutex
	accounts     []domain.AdAccount
	accountsErr  error
	campaigns    map[string][]domain.RawCampaign
	campaignErrs map[string]error
	// blocking accounts wait for ctx cancellation before answering
	blocking map[string]bool
	calls    map[string]int
	listed   int
}

var _ domain.AdsAPI = (*fakeAdsAPI)(nil)

func newFakeAdsAPI() *fakeAdsAPI {
	return &fakeAdsAPI{
		campaigns:    make(map[string][]domain.RawCampaign),
		campaignErrs: make(map[string]error),
		blocking:     make(map[string]bool),
		calls:        make(map[string]int),
	}
}

func (f *fakeAdsAPI) ListAdAccounts(ctx context.Context, token string) ([]domain.AdAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed++
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return append([]domain.AdAccount(nil), f.accounts...), nil
}

func (f *fakeAdsAPI) ListCampaigns(ctx context.Context, token, accountID string) ([]domain.RawCampaign, error) {
	f.mu.Lock()
	f.calls[accountID]++
	block := f.blocking[accountID]
	err := f.campaignErrs[accountID]
	raw := f.campaigns[accountID]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (f *fakeAdsAPI) setCampaignErr(accountID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.campaignErrs[accountID] = err
}

func (f *fakeAdsAPI) callCount(accountID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[accountID]
}

func (f *fakeAdsAPI) totalCampaignCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type memoryCredentialStore struct {
	mu      sync.Mutex
	token   string
	saves   int
	clears  int
	loadErr error
}

var _ domain.CredentialStore = (*memoryCredentialStore)(nil)

func (s *memoryCredentialStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.loadErr
}

func (s *memoryCredentialStore) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.saves++
	return nil
}

func (s *memoryCredentialStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.clears++
	return nil
}

func (s *memoryCredentialStore) stored() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func testDeps() (*logger.Logger, *metrics.Metrics) {
	return logger.Discard(), metrics.New(prometheus.NewRegistry())
}

func newTestGateway(api domain.AdsAPI) *Gateway {
	log, m := testDeps()
	return NewGateway(api, log, m)
}

// vndAccounts seeds three accounts, the last one billed in USD.
func vndAccounts(api *fakeAdsAPI) {
	api.accounts = []domain.AdAccount{
		{ID: "act_1", Name: "Shop A", Currency: "VND", AccountStatus: 1},
		{ID: "act_2", Name: "Shop B", Currency: "VND", AccountStatus: 1},
		{ID: "act_3", Name: "Shop US", Currency: "USD", AccountStatus: 2},
	}
	api.campaigns["act_1"] = []domain.RawCampaign{
		rawCampaign("c1", "Sale 50%", "ACTIVE", 5400000, 100000, 2000,
			action(domain.ActionLead, 4), action(domain.ActionConversationStarted7, 8)),
	}
	api.campaigns["act_2"] = []domain.RawCampaign{
		rawCampaign("c2", "Retargeting", "ACTIVE", 2100000, 50000, 500,
			action(domain.ActionLeadGrouped, 2), action(domain.ActionConversationStarted7, 6)),
	}
	api.campaigns["act_3"] = []domain.RawCampaign{
		rawCampaign("c3", "Dollar campaign", "ACTIVE", 999, 10, 1, action(domain.ActionLead, 1)),
	}
}
