package domain

import (
	"math"
	"strconv"
	"strings"
)

// Action types counted as dashboard results.
const (
	ActionLead                 = "lead"
	ActionLeadGrouped          = "onsite_conversion.lead_grouped"
	ActionConversationStarted7 = "onsite_conversion.messaging_conversation_started_7d"
)

// AccountStatus is the numeric account_status code returned by the Graph API.
type AccountStatus int

const (
	AccountStatusActive   AccountStatus = 1
	AccountStatusDisabled AccountStatus = 2
)

// Label maps the status code to active, disabled or pending.
func (s AccountStatus) Label() string {
	switch s {
	case AccountStatusActive:
		return "active"
	case AccountStatusDisabled:
		return "disabled"
	default:
		return "pending"
	}
}

// AdAccount is one advertiser account reachable with the stored token.
type AdAccount struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Currency      string        `json:"currency"`
	AccountStatus AccountStatus `json:"account_status"`
}

type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "ACTIVE"
	CampaignPaused    CampaignStatus = "PAUSED"
	CampaignCompleted CampaignStatus = "COMPLETED"
)

// ParseCampaignStatus folds Graph campaign statuses into the three dashboard states.
func ParseCampaignStatus(raw string) CampaignStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(CampaignActive):
		return CampaignActive
	case string(CampaignCompleted):
		return CampaignCompleted
	default:
		return CampaignPaused
	}
}

// Campaign is one campaign's rolled-up result for the selected window.
type Campaign struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Status  CampaignStatus `json:"status"`
	Spend   float64        `json:"spend"`
	Results float64        `json:"results"`
	CPR     float64        `json:"cpr"`
}

// Number decodes Graph numeric fields, which arrive either as JSON strings
// or as numbers. Empty, malformed, negative or non-finite values decode to
// zero.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

func (n Number) Float() float64 { return float64(n) }

// Action is one typed action count inside an insight record.
type Action struct {
	ActionType string `json:"action_type"`
	Value      Number `json:"value"`
}

// InsightRecord is the raw per-campaign insight row for one date preset.
type InsightRecord struct {
	Spend       Number   `json:"spend"`
	Impressions Number   `json:"impressions"`
	Clicks      Number   `json:"clicks"`
	Actions     []Action `json:"actions"`
}

// RawCampaign mirrors a campaign node with its nested insights edge.
type RawCampaign struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	EffectiveStatus string `json:"effective_status"`
	Insights        struct {
		Data []InsightRecord `json:"data"`
	} `json:"insights"`
}

// Insight returns the first insight row, or an empty record when the
// campaign had no delivery in the window.
func (c RawCampaign) Insight() InsightRecord {
	if len(c.Insights.Data) == 0 {
		return InsightRecord{}
	}
	return c.Insights.Data[0]
}

// AccountData is the result of fetching one scope.
type AccountData struct {
	Metrics   DashboardMetrics `json:"metrics"`
	Campaigns []Campaign       `json:"campaigns"`
}
