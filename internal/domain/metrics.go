package domain

import (
	"math"
	"time"
)

// ScopeAll selects the synthetic aggregate over every loaded account.
const ScopeAll Scope = "all"

// Scope is either ScopeAll or a single ad account id.
type Scope string

func (s Scope) IsAll() bool { return s == ScopeAll }

// DashboardMetrics is the aggregate performance snapshot for one scope.
type DashboardMetrics struct {
	// Raw metrics
	Spend         float64 `json:"spend"`
	Impressions   float64 `json:"impressions"`
	Clicks        float64 `json:"clicks"`
	Conversations float64 `json:"conversations"`
	Leads         float64 `json:"leads"`

	// Calculated metrics
	CTR            float64 `json:"ctr"`
	CPC            float64 `json:"cpc"`
	CPR            float64 `json:"cpr"`
	ConversionRate float64 `json:"conversion_rate"`
}

// CostPerConversation is spend per started conversation, rounded to a whole unit.
func (m DashboardMetrics) CostPerConversation() float64 {
	if m.Conversations <= 0 {
		return 0
	}
	return math.Round(m.Spend / m.Conversations)
}

// CostPerLead is spend per lead, rounded to a whole unit.
func (m DashboardMetrics) CostPerLead() float64 {
	if m.Leads <= 0 {
		return 0
	}
	return math.Round(m.Spend / m.Leads)
}

// ChartDataPoint is one hourly bucket on the trend chart.
type ChartDataPoint struct {
	Time     string  `json:"time"`
	Spend    float64 `json:"spend"`
	Messages int     `json:"messages"`
	Leads    int     `json:"leads"`
}

// ChartWindow is a fixed-length, oldest-first series of chart points.
type ChartWindow []ChartDataPoint

// Shift evicts the oldest point and appends p, keeping the length constant.
// An empty window is left untouched.
func (w ChartWindow) Shift(p ChartDataPoint) ChartWindow {
	if len(w) == 0 {
		return w
	}
	out := make(ChartWindow, 0, len(w))
	out = append(out, w[1:]...)
	return append(out, p)
}

// Last returns the newest point.
func (w ChartWindow) Last() (ChartDataPoint, bool) {
	if len(w) == 0 {
		return ChartDataPoint{}, false
	}
	return w[len(w)-1], true
}

// Snapshot is an immutable copy of the dashboard state for rendering.
type Snapshot struct {
	Metrics             DashboardMetrics `json:"metrics"`
	CostPerConversation float64          `json:"cost_per_conversation"`
	CostPerLead         float64          `json:"cost_per_lead"`
	Campaigns           []Campaign       `json:"campaigns"`
	Chart               ChartWindow      `json:"chart"`
	Scope               Scope            `json:"scope"`
	AccountCount        int              `json:"account_count"`
	Currency            string           `json:"currency"`
	UsingRealData       bool             `json:"using_real_data"`
	HasCredential       bool             `json:"has_credential"`
	Loading             bool             `json:"loading"`
	Error               string           `json:"error,omitempty"`
	ReauthRequired      bool             `json:"reauth_required"`
	UpdatedAt           time.Time        `json:"updated_at"`
}
