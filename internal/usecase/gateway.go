package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"adsreporter/internal/domain"
	"adsreporter/pkg/logger"
	"adsreporter/pkg/metrics"
)

// Gateway turns provider calls into dashboard data and applies the
// partial-failure policy for multi-account refreshes.
type Gateway struct {
	api     domain.AdsAPI
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewGateway(api domain.AdsAPI, logger *logger.Logger, metrics *metrics.Metrics) *Gateway {
	return &Gateway{
		api:     api,
		logger:  logger,
		metrics: metrics,
	}
}

// ListAccounts returns every ad account reachable with token. An empty
// listing is an error: the token is valid but useless for the dashboard.
func (g *Gateway) ListAccounts(ctx context.Context, token string) ([]domain.AdAccount, error) {
	accounts, err := g.api.ListAdAccounts(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to list ad accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, domain.NewRemoteDataError("no ad accounts are linked to this token")
	}

	g.logger.WithContext(ctx).WithField("accounts", len(accounts)).Info("Fetched ad accounts")
	return accounts, nil
}

// FetchAccount loads today's campaigns for one account.
func (g *Gateway) FetchAccount(ctx context.Context, token, accountID string) (*domain.AccountData, error) {
	raw, err := g.api.ListCampaigns(ctx, token, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account %s: %w", accountID, err)
	}
	return AccountDataFromRaw(raw), nil
}

// FetchAggregated fetches every account sharing the primary currency in
// parallel. An authentication failure on any account aborts the whole call;
// other per-account failures are logged and that account is left out.
func (g *Gateway) FetchAggregated(ctx context.Context, token string, accounts []domain.AdAccount) (*domain.AccountData, error) {
	if len(accounts) == 0 {
		return nil, domain.NewRemoteDataError("no accounts to aggregate")
	}

	log := g.logger.WithContext(ctx)
	start := time.Now()

	compatible := FilterByPrimaryCurrency(accounts)
	if skipped := len(accounts) - len(compatible); skipped > 0 {
		log.WithFields(map[string]any{
			"currency": accounts[0].Currency,
			"skipped":  skipped,
		}).Info("Skipping accounts billed in another currency")
	}

	results := make([]*AccountResult, len(compatible))
	group, groupCtx := errgroup.WithContext(ctx)

	for i, acc := range compatible {
		group.Go(func() error {
			data, err := g.FetchAccount(groupCtx, token, acc.ID)
			if err != nil {
				kind := domain.Classify(err)
				if kind == domain.KindAuth {
					g.metrics.RecordAccountFetch("auth_error")
					return err
				}
				g.metrics.RecordAccountFetch("skipped")
				if groupCtx.Err() == nil {
					log.WithError(err).WithFields(logrus.Fields{
						"account_id": acc.ID,
						"error_kind": kind.String(),
					}).Warn("Failed to fetch account data, leaving it out")
				}
				return nil
			}
			g.metrics.RecordAccountFetch("success")
			results[i] = &AccountResult{Account: acc, Data: *data}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		log.WithError(err).Error("Aggregated fetch aborted by authentication failure")
		return nil, err
	}

	valid := make([]AccountResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			valid = append(valid, *r)
		}
	}
	if len(valid) == 0 {
		return nil, domain.NewRemoteDataError("no accounts returned data")
	}

	aggregated := Aggregate(valid)

	log.WithFields(map[string]any{
		"duration":  time.Since(start),
		"accounts":  len(valid),
		"requested": len(compatible),
		"campaigns": len(aggregated.Campaigns),
	}).Info("Aggregated account data")

	return aggregated, nil
}
