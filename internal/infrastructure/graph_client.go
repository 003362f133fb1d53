package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"adsreporter/internal/domain"
	"adsreporter/pkg/config"
	"adsreporter/pkg/logger"
	"adsreporter/pkg/metrics"
)

const (
	accountFields  = "name,id,currency,account_status"
	campaignFields = "name,status,effective_status," +
		"insights.date_preset(today){spend,impressions,clicks,cpc,ctr,actions,cost_per_action_type}"
	campaignStatuses = "['ACTIVE','PAUSED']"

	apiAccounts  = "graph_accounts"
	apiCampaigns = "graph_campaigns"
)

// graphPage is the Graph API list envelope.
type graphPage[T any] struct {
	Data   []T `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

// GraphClient implements domain.AdsAPI against the Facebook Graph API.
type GraphClient struct {
	client       *http.Client
	baseURL      string
	version      string
	accountLimit int
	maxPages     int
	logger       *logger.Logger
	metrics      *metrics.Metrics
	rateLimiter  *rate.Limiter
}

var _ domain.AdsAPI = (*GraphClient)(nil)

func NewGraphClient(cfg config.GraphConfig, logger *logger.Logger, metrics *metrics.Metrics) *GraphClient {
	return &GraphClient{
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		version:      cfg.APIVersion,
		accountLimit: cfg.AccountLimit,
		maxPages:     cfg.MaxPages,
		logger:       logger,
		metrics:      metrics,
		rateLimiter:  rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitPerSecond),
	}
}

// ListAdAccounts lists the ad accounts visible to token.
func (c *GraphClient) ListAdAccounts(ctx context.Context, token string) ([]domain.AdAccount, error) {
	query := url.Values{}
	query.Set("fields", accountFields)
	query.Set("limit", strconv.Itoa(c.accountLimit))
	query.Set("access_token", token)

	accounts, err := fetchPages[domain.AdAccount](ctx, c, apiAccounts, c.endpoint("me/adaccounts", query))
	if err != nil {
		return nil, err
	}

	c.logger.WithContext(ctx).WithField("records", len(accounts)).Info("Successfully fetched ad accounts")
	return accounts, nil
}

// ListCampaigns lists active and paused campaigns of accountID with
// today's insights.
func (c *GraphClient) ListCampaigns(ctx context.Context, token, accountID string) ([]domain.RawCampaign, error) {
	query := url.Values{}
	query.Set("fields", campaignFields)
	query.Set("effective_status", campaignStatuses)
	query.Set("access_token", token)

	campaigns, err := fetchPages[domain.RawCampaign](ctx, c, apiCampaigns,
		c.endpoint(url.PathEscape(accountID)+"/campaigns", query))
	if err != nil {
		return nil, err
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"account_id": accountID,
		"records":    len(campaigns),
	}).Debug("Successfully fetched campaigns")
	return campaigns, nil
}

func (c *GraphClient) endpoint(path string, query url.Values) string {
	return c.baseURL + "/" + c.version + "/" + path + "?" + query.Encode()
}

// fetchPages follows paging.next links until exhausted or maxPages is hit.
func fetchPages[T any](ctx context.Context, c *GraphClient, api, next string) ([]T, error) {
	var items []T
	for page := 0; next != ""; page++ {
		if page == c.maxPages {
			c.logger.WithContext(ctx).WithFields(map[string]any{
				"api":       api,
				"max_pages": c.maxPages,
			}).Warn("Page limit reached, truncating results")
			break
		}

		raw, err := c.get(ctx, api, next)
		if err != nil {
			return nil, err
		}

		var body graphPage[T]
		if err := json.Unmarshal(raw, &body); err != nil {
			c.metrics.RecordExternalAPIFailure(api, "json_parse")
			return nil, fmt.Errorf("failed to parse %s response: %w", api, err)
		}
		items = append(items, body.Data...)
		next = body.Paging.Next
	}
	return items, nil
}

// get performs one rate-limited call and returns the body of a successful
// response. Provider errors come back as *domain.RemoteDataError whatever
// the HTTP status.
func (c *GraphClient) get(ctx context.Context, api, rawURL string) ([]byte, error) {
	start := time.Now()

	// Apply rate limiting
	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordExternalAPIFailure(api, "rate_limit")
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(api, "request_creation")
		return nil, fmt.Errorf("failed to create request: %w", redact(err))
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(api, "network_error")
		return nil, fmt.Errorf("failed to call %s: %w", api, redact(err))
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordExternalAPIFailure(api, "read_body")
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var envelope struct {
		Error *domain.RemoteDataError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		c.metrics.RecordExternalAPICall(api, fmt.Sprintf("error_%d", resp.StatusCode), duration)
		c.logger.WithContext(ctx).WithFields(map[string]any{
			"api":        api,
			"status":     resp.StatusCode,
			"code":       envelope.Error.Code,
			"fbtrace_id": envelope.Error.TraceID,
		}).Warn("Graph API returned an error")
		return nil, envelope.Error
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordExternalAPICall(api, fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return nil, domain.NewRemoteDataError(fmt.Sprintf("graph API returned status %d", resp.StatusCode))
	}

	c.metrics.RecordExternalAPICall(api, "success", duration)
	return body, nil
}

// redact drops the request URL from transport errors; it carries the
// access token in its query.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
