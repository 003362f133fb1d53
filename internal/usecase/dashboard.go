package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"adsreporter/internal/domain"
	"adsreporter/pkg/logger"
	"adsreporter/pkg/metrics"
)

// Mode is the polling mode implied by the dashboard state.
type Mode string

const (
	ModeReal      Mode = "real"
	ModeSimulated Mode = "simulated"
)

const (
	tokenExpiredMessage = "Token đã hết hạn hoặc không hợp lệ. Vui lòng nhập Token mới."
	loadErrorPrefix     = "Lỗi tải dữ liệu: "

	defaultChartSize = 13
)

// DashboardOptions tunes a Dashboard. Zero values fall back to defaults.
type DashboardOptions struct {
	ChartSize int
	Now       func() time.Time
	Rand      *rand.Rand
}

// Dashboard owns the mutable dashboard state: credential, accounts, scope,
// metrics, campaigns and chart. All operations are safe for concurrent use.
type Dashboard struct {
	gateway *Gateway
	store   domain.CredentialStore
	logger  *logger.Logger
	metrics *metrics.Metrics

	now       func() time.Time
	chartSize int

	mu             sync.RWMutex
	rng            *rand.Rand
	token          string
	accounts       []domain.AdAccount
	scope          domain.Scope
	current        domain.DashboardMetrics
	campaigns      []domain.Campaign
	chart          domain.ChartWindow
	usingRealData  bool
	inFlight       int
	errMsg         string
	reauthRequired bool
	updatedAt      time.Time
	// generation changes whenever the credential or scope does; results
	// fetched under an older generation are dropped.
	generation uint64

	refreshing atomic.Bool
	changes    chan struct{}
}

func NewDashboard(gateway *Gateway, store domain.CredentialStore, logger *logger.Logger, metrics *metrics.Metrics, opts DashboardOptions) *Dashboard {
	if opts.ChartSize < 2 {
		opts.ChartSize = defaultChartSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	d := &Dashboard{
		gateway:   gateway,
		store:     store,
		logger:    logger,
		metrics:   metrics,
		now:       opts.Now,
		chartSize: opts.ChartSize,
		rng:       opts.Rand,
		scope:     domain.ScopeAll,
		changes:   make(chan struct{}, 1),
	}
	d.seedDemo()
	return d
}

// seedDemo loads the placeholder data shown before any credential is entered.
func (d *Dashboard) seedDemo() {
	d.current = Totals{
		Spend:         18153496,
		Impressions:   45000,
		Clicks:        3200,
		Conversations: 34,
		Leads:         12,
	}.Derive()
	d.campaigns = []domain.Campaign{
		{ID: "1", Name: "Chiến dịch Mùa Hè - Sale 50%", Status: domain.CampaignActive, Spend: 5400000, Results: 12, CPR: 450000},
		{ID: "2", Name: "Retargeting - Khách cũ", Status: domain.CampaignActive, Spend: 2100000, Results: 8, CPR: 262500},
	}
	d.chart = GenerateChart(d.now(), 1000000, d.chartSize, d.rng)
	d.updatedAt = d.now()
}

// Changes signals state transitions that affect polling: credential,
// real-data flag and scope.
func (d *Dashboard) Changes() <-chan struct{} {
	return d.changes
}

func (d *Dashboard) notify() {
	select {
	case d.changes <- struct{}{}:
	default:
	}
}

// Mode reports whether metrics ticks hit the remote API or simulate.
func (d *Dashboard) Mode() Mode {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.modeLocked()
}

func (d *Dashboard) modeLocked() Mode {
	if d.usingRealData && d.token != "" && d.scope != "" {
		return ModeReal
	}
	return ModeSimulated
}

// Initialize restores a stored credential, if any.
func (d *Dashboard) Initialize(ctx context.Context) error {
	token, err := d.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stored credential: %w", err)
	}
	if token == "" {
		d.logger.Component("dashboard").Info("No stored credential, starting with demo data")
		return nil
	}
	return d.Authenticate(ctx, token)
}

// Authenticate persists token, loads its accounts and refreshes the "all"
// scope. An authentication failure resets the dashboard; any other failure
// keeps simulated mode with an error message.
func (d *Dashboard) Authenticate(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrNoCredential
	}

	log := d.logger.WithContext(ctx).WithField("component", "dashboard")

	d.mu.Lock()
	d.generation++
	gen := d.generation
	d.token = token
	d.accounts = nil
	d.scope = domain.ScopeAll
	d.errMsg = ""
	d.reauthRequired = false
	d.inFlight++
	err := d.store.Save(ctx, token)
	d.mu.Unlock()

	if err != nil {
		d.finishLoading()
		return fmt.Errorf("failed to save credential: %w", err)
	}

	accounts, err := d.gateway.ListAccounts(ctx, token)
	if err != nil {
		d.finishLoading()
		if domain.IsAuthError(err) {
			d.handleAuthFailure(ctx, gen)
			return err
		}

		d.mu.Lock()
		if d.generation == gen {
			if ctx.Err() == nil {
				d.errMsg = err.Error()
			}
			d.usingRealData = false
		}
		d.mu.Unlock()
		d.notify()

		log.WithError(err).Warn("Failed to initialize ad account data")
		return err
	}

	d.mu.Lock()
	d.inFlight--
	if d.generation != gen {
		d.mu.Unlock()
		return nil
	}
	d.accounts = accounts
	d.scope = domain.ScopeAll
	d.usingRealData = true
	d.mu.Unlock()
	d.notify()

	log.WithField("accounts", len(accounts)).Info("Authenticated with ad accounts")
	return d.Refresh(ctx, false)
}

// Logout forgets the credential and returns to simulated data.
func (d *Dashboard) Logout(ctx context.Context) error {
	d.reset(ctx, "", false)
	return nil
}

func (d *Dashboard) reset(ctx context.Context, msg string, reauth bool) {
	d.mu.Lock()
	d.resetLocked(ctx, msg, reauth)
	d.mu.Unlock()
	d.notify()
}

// handleAuthFailure clears the credential and asks for a new one, unless a
// credential or scope change happened since gen was observed. Repeated calls
// leave the same state.
func (d *Dashboard) handleAuthFailure(ctx context.Context, gen uint64) bool {
	d.mu.Lock()
	if d.generation != gen {
		d.mu.Unlock()
		return false
	}
	d.resetLocked(ctx, tokenExpiredMessage, true)
	d.mu.Unlock()
	d.notify()
	return true
}

func (d *Dashboard) resetLocked(ctx context.Context, msg string, reauth bool) {
	alreadyReset := d.token == "" && !d.usingRealData && len(d.accounts) == 0 &&
		d.reauthRequired == reauth && d.errMsg == msg
	if alreadyReset {
		return
	}

	d.generation++
	d.token = ""
	d.accounts = nil
	d.scope = domain.ScopeAll
	d.usingRealData = false
	d.errMsg = msg
	d.reauthRequired = reauth

	if err := d.store.Clear(ctx); err != nil {
		d.logger.WithContext(ctx).WithError(err).Error("Failed to clear stored credential")
	}

	if reauth {
		d.metrics.RecordAuthReset()
		d.logger.WithContext(ctx).WithField("component", "dashboard").Warn("Credential rejected, waiting for a new token")
		return
	}
	d.logger.WithContext(ctx).WithField("component", "dashboard").Info("Credential cleared")
}

// SelectScope switches to "all" or one loaded account and refreshes at once.
// Selecting the current scope does nothing.
func (d *Dashboard) SelectScope(ctx context.Context, scope domain.Scope) error {
	d.mu.Lock()
	if scope == d.scope {
		d.mu.Unlock()
		return nil
	}
	if !d.usingRealData || d.token == "" {
		d.mu.Unlock()
		return domain.ErrNoCredential
	}
	if !scope.IsAll() && !d.hasAccountLocked(string(scope)) {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrUnknownScope, scope)
	}
	d.generation++
	d.scope = scope
	d.mu.Unlock()
	d.notify()

	d.logger.WithContext(ctx).WithField("scope", scope).Info("Scope changed")
	return d.Refresh(ctx, false)
}

func (d *Dashboard) hasAccountLocked(id string) bool {
	for _, acc := range d.accounts {
		if acc.ID == id {
			return true
		}
	}
	return false
}

// Refresh runs one metrics tick. Periodic ticks are skipped while another
// refresh is still running; out-of-band refreshes always run.
func (d *Dashboard) Refresh(ctx context.Context, periodic bool) error {
	if periodic {
		if !d.refreshing.CompareAndSwap(false, true) {
			d.metrics.RecordRefresh(string(d.Mode()), "skipped", 0)
			return nil
		}
		defer d.refreshing.Store(false)
	}

	start := time.Now()

	d.mu.Lock()
	if d.modeLocked() == ModeSimulated {
		d.simulateLocked()
		d.mu.Unlock()
		d.metrics.RecordRefresh(string(ModeSimulated), "success", time.Since(start))
		return nil
	}

	token, scope, gen := d.token, d.scope, d.generation
	accounts := append([]domain.AdAccount(nil), d.accounts...)
	if scope.IsAll() && len(accounts) == 0 {
		d.mu.Unlock()
		return nil
	}
	d.inFlight++
	d.mu.Unlock()

	d.metrics.IncRefreshInProgress()
	defer d.metrics.DecRefreshInProgress()

	var (
		data *domain.AccountData
		err  error
	)
	if scope.IsAll() {
		data, err = d.gateway.FetchAggregated(ctx, token, accounts)
	} else {
		data, err = d.gateway.FetchAccount(ctx, token, string(scope))
	}
	d.finishLoading()

	log := d.logger.WithContext(ctx).WithFields(logrus.Fields{
		"component": "dashboard",
		"scope":     scope,
	})

	if err != nil {
		if domain.IsAuthError(err) {
			d.metrics.RecordRefresh(string(ModeReal), "auth_error", time.Since(start))
			d.handleAuthFailure(ctx, gen)
			return err
		}

		if ctx.Err() != nil {
			d.metrics.RecordRefresh(string(ModeReal), "cancelled", time.Since(start))
			log.WithError(err).Debug("Metrics refresh cancelled")
			return err
		}

		d.metrics.RecordRefresh(string(ModeReal), "error", time.Since(start))
		log.WithError(err).Warn("Metrics refresh failed")

		d.mu.Lock()
		if d.generation == gen {
			d.errMsg = loadErrorPrefix + err.Error()
		}
		d.mu.Unlock()
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.generation != gen {
		d.metrics.RecordRefresh(string(ModeReal), "stale", time.Since(start))
		log.Debug("Dropping refresh result for a superseded credential or scope")
		return nil
	}

	d.current = data.Metrics
	d.campaigns = data.Campaigns
	d.chart = GenerateChart(d.now(), data.Metrics.Spend/12, d.chartSize, d.rng)
	d.updatedAt = d.now()
	if !d.reauthRequired {
		d.errMsg = ""
	}

	d.metrics.RecordRefresh(string(ModeReal), "success", time.Since(start))
	log.WithFields(logrus.Fields{
		"spend":     data.Metrics.Spend,
		"campaigns": len(data.Campaigns),
	}).Info("Metrics refreshed")
	return nil
}

func (d *Dashboard) finishLoading() {
	d.mu.Lock()
	d.inFlight--
	d.mu.Unlock()
}

// simulateLocked nudges the demo counters the way live traffic would.
func (d *Dashboard) simulateLocked() {
	t := TotalsOf(d.current)
	t.Spend += float64(d.rng.IntN(10000))
	if d.rng.Float64() > 0.7 {
		t.Conversations++
		if d.rng.Float64() > 0.8 {
			t.Leads++
		}
	}
	d.current = t.Derive()
	d.updatedAt = d.now()
}

// ChartTick slides the chart window by one hour.
func (d *Dashboard) ChartTick() {
	d.mu.Lock()
	defer d.mu.Unlock()

	last, ok := d.chart.Last()
	if !ok {
		return
	}
	d.chart = d.chart.Shift(NextChartPoint(last, d.current.Spend, d.rng))
}

// Accounts returns loaded accounts matching filter by name or id.
func (d *Dashboard) Accounts(filter string) []domain.AdAccount {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return FilterAccounts(d.accounts, filter)
}

// DismissError clears the visible error message.
func (d *Dashboard) DismissError() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errMsg = ""
}

// Snapshot returns a copy of the current state.
func (d *Dashboard) Snapshot() domain.Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	currency := ""
	if len(d.accounts) > 0 {
		currency = d.accounts[0].Currency
		if !d.scope.IsAll() {
			for _, acc := range d.accounts {
				if acc.ID == string(d.scope) {
					currency = acc.Currency
					break
				}
			}
		}
	}

	return domain.Snapshot{
		Metrics:             d.current,
		CostPerConversation: d.current.CostPerConversation(),
		CostPerLead:         d.current.CostPerLead(),
		Campaigns:           append([]domain.Campaign(nil), d.campaigns...),
		Chart:               append(domain.ChartWindow(nil), d.chart...),
		Scope:               d.scope,
		AccountCount:        len(d.accounts),
		Currency:            currency,
		UsingRealData:       d.usingRealData,
		HasCredential:       d.token != "",
		Loading:             d.inFlight > 0,
		Error:               d.errMsg,
		ReauthRequired:      d.reauthRequired,
		UpdatedAt:           d.updatedAt,
	}
}
