package usecase

import (
	"math"
	"sort"
	"strings"

	"adsreporter/internal/domain"
)

// ActionValue returns the value of the first action of the given type, or 0.
func ActionValue(actions []domain.Action, actionType string) float64 {
	for _, a := range actions {
		if a.ActionType == actionType {
			return a.Value.Float()
		}
	}
	return 0
}

// Leads counts lead form submissions, grouped or not.
func Leads(actions []domain.Action) float64 {
	return ActionValue(actions, domain.ActionLead) + ActionValue(actions, domain.ActionLeadGrouped)
}

// Conversations counts messaging conversations started within 7 days.
func Conversations(actions []domain.Action) float64 {
	return ActionValue(actions, domain.ActionConversationStarted7)
}

// Totals holds the summable raw counters behind DashboardMetrics.
type Totals struct {
	Spend         float64
	Impressions   float64
	Clicks        float64
	Conversations float64
	Leads         float64
}

func (t *Totals) AddInsight(rec domain.InsightRecord) {
	t.Spend += rec.Spend.Float()
	t.Impressions += rec.Impressions.Float()
	t.Clicks += rec.Clicks.Float()
	t.Leads += Leads(rec.Actions)
	t.Conversations += Conversations(rec.Actions)
}

func (t *Totals) AddMetrics(m domain.DashboardMetrics) {
	t.Spend += m.Spend
	t.Impressions += m.Impressions
	t.Clicks += m.Clicks
	t.Leads += m.Leads
	t.Conversations += m.Conversations
}

// TotalsOf extracts the raw counters from a snapshot.
func TotalsOf(m domain.DashboardMetrics) Totals {
	var t Totals
	t.AddMetrics(m)
	return t
}

// Derive computes the ratio fields once from summed counters. Every ratio
// falls back to 0 when its denominator is 0. Percentages keep two decimals,
// currency ratios round to whole units.
func (t Totals) Derive() domain.DashboardMetrics {
	m := domain.DashboardMetrics{
		Spend:         t.Spend,
		Impressions:   t.Impressions,
		Clicks:        t.Clicks,
		Conversations: t.Conversations,
		Leads:         t.Leads,
	}

	// Calculate derived metrics with division by zero protection
	if t.Impressions > 0 {
		m.CTR = round2(t.Clicks / t.Impressions * 100)
	}
	if t.Clicks > 0 {
		m.CPC = math.Round(t.Spend / t.Clicks)
	}
	if results := t.Leads + t.Conversations; results > 0 {
		m.CPR = math.Round(t.Spend / results)
	}
	if t.Conversations > 0 {
		m.ConversionRate = round2(t.Leads / t.Conversations * 100)
	}

	return m
}

// MetricsFromCampaigns sums every campaign's insight row and derives the ratios.
func MetricsFromCampaigns(raw []domain.RawCampaign) domain.DashboardMetrics {
	var t Totals
	for _, c := range raw {
		t.AddInsight(c.Insight())
	}
	return t.Derive()
}

// CampaignFromRaw rolls one campaign's insight row into a table entry.
func CampaignFromRaw(raw domain.RawCampaign) domain.Campaign {
	ins := raw.Insight()
	spend := ins.Spend.Float()
	results := Leads(ins.Actions) + Conversations(ins.Actions)

	c := domain.Campaign{
		ID:      raw.ID,
		Name:    raw.Name,
		Status:  domain.ParseCampaignStatus(raw.Status),
		Spend:   spend,
		Results: results,
	}
	if results > 0 {
		c.CPR = math.Round(spend / results)
	}
	return c
}

func CampaignsFromRaw(raw []domain.RawCampaign) []domain.Campaign {
	out := make([]domain.Campaign, 0, len(raw))
	for _, c := range raw {
		out = append(out, CampaignFromRaw(c))
	}
	return out
}

// AccountDataFromRaw maps one account's campaign listing into dashboard data.
func AccountDataFromRaw(raw []domain.RawCampaign) *domain.AccountData {
	return &domain.AccountData{
		Metrics:   MetricsFromCampaigns(raw),
		Campaigns: CampaignsFromRaw(raw),
	}
}

// FilterByPrimaryCurrency keeps the accounts billed in the first account's
// currency. Amounts in other currencies are dropped, not converted.
func FilterByPrimaryCurrency(accounts []domain.AdAccount) []domain.AdAccount {
	if len(accounts) == 0 {
		return nil
	}
	primary := accounts[0].Currency
	out := make([]domain.AdAccount, 0, len(accounts))
	for _, acc := range accounts {
		if acc.Currency == primary {
			out = append(out, acc)
		}
	}
	return out
}

// AccountResult pairs an account with the data fetched for it.
type AccountResult struct {
	Account domain.AdAccount
	Data    domain.AccountData
}

// Aggregate sums the raw counters of every account, derives the ratios once,
// and merges the campaign tables with "[account] " name prefixes, highest
// spend first.
func Aggregate(results []AccountResult) *domain.AccountData {
	var t Totals
	campaigns := make([]domain.Campaign, 0)

	for _, res := range results {
		t.AddMetrics(res.Data.Metrics)
		for _, c := range res.Data.Campaigns {
			c.Name = "[" + res.Account.Name + "] " + c.Name
			campaigns = append(campaigns, c)
		}
	}

	sort.SliceStable(campaigns, func(i, j int) bool {
		return campaigns[i].Spend > campaigns[j].Spend
	})

	return &domain.AccountData{
		Metrics:   t.Derive(),
		Campaigns: campaigns,
	}
}

// FilterAccounts matches the search term against account names
// (case-insensitive) and ids.
func FilterAccounts(accounts []domain.AdAccount, term string) []domain.AdAccount {
	term = strings.TrimSpace(term)
	if term == "" {
		return append([]domain.AdAccount(nil), accounts...)
	}
	lower := strings.ToLower(term)
	var out []domain.AdAccount
	for _, acc := range accounts {
		if strings.Contains(strings.ToLower(acc.Name), lower) || strings.Contains(acc.ID, term) {
			out = append(out, acc)
		}
	}
	return out
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
