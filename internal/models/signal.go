package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// ETH amounts travel as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type SignalType string

const (
	SignalTypeGeneral     SignalType = "general"
	SignalTypeSignal      SignalType = "signal"
	SignalTypeOpportunity SignalType = "opportunity"
	SignalTypeStrategy    SignalType = "strategy"
	SignalTypeForesight   SignalType = "foresight"
)

func (t SignalType) Valid() bool {
	switch t {
	case SignalTypeGeneral, SignalTypeSignal, SignalTypeOpportunity, SignalTypeStrategy, SignalTypeForesight:
		return true
	}
	return false
}

type SignalStatus string

const (
	SignalStatusActive    SignalStatus = "active"
	SignalStatusExpired   SignalStatus = "expired"
	SignalStatusCompleted SignalStatus = "completed"
)

// Signal is a paid piece of market analysis. The type-specific fields are
// only populated for their matching Type.
type Signal struct {
	ID                 string          `json:"id"`
	Type               SignalType      `json:"type"`
	Title              string          `json:"title"`
	Category           string          `json:"category"`
	Price              decimal.Decimal `json:"price"`
	PublishDate        time.Time       `json:"publishDate"`
	ExpiryDate         time.Time       `json:"expiryDate"`
	Status             SignalStatus    `json:"status"`
	AnalystFid         int64           `json:"analystFid"`
	AnalystName        string          `json:"analystName"`
	AnalystImage       string          `json:"analystImage"`
	AnalystSuccessRate int             `json:"analystSuccessRate"`
	Rating             float64         `json:"rating"`
	ReviewCount        int             `json:"reviewCount"`
	PurchaseCount      int             `json:"purchaseCount"`
	ImageURL           string          `json:"imageUrl,omitempty"`
	ChartImage         string          `json:"chartImage,omitempty"`

	// signal
	SignalType        string   `json:"signalType,omitempty"`
	Asset             string   `json:"asset,omitempty"`
	ContractAddress   string   `json:"contractAddress,omitempty"`
	EntryPoint        string   `json:"entryPoint,omitempty"`
	TakeProfitTargets []string `json:"takeProfitTargets,omitempty"`
	StopLoss          string   `json:"stopLoss,omitempty"`

	// general and signal
	Market      string `json:"market,omitempty"`
	Description string `json:"description,omitempty"`

	// opportunity
	AssetDescription string `json:"assetDescription,omitempty"`
	CurrentPrice     string `json:"currentPrice,omitempty"`
	BuyRange         string `json:"buyRange,omitempty"`
	Fundamentals     string `json:"fundamentals,omitempty"`
	Technicals       string `json:"technicals,omitempty"`
	TargetPrice      string `json:"targetPrice,omitempty"`
	Risks            string `json:"risks,omitempty"`
	Comparison       string `json:"comparison,omitempty"`

	// strategy
	CoreIdea           string `json:"coreIdea,omitempty"`
	MarketType         string `json:"marketType,omitempty"`
	Timeframe          string `json:"timeframe,omitempty"`
	EntryConditions    string `json:"entryConditions,omitempty"`
	ExitConditions     string `json:"exitConditions,omitempty"`
	RiskManagement     string `json:"riskManagement,omitempty"`
	TechnicalTools     string `json:"technicalTools,omitempty"`
	TradeManagement    string `json:"tradeManagement,omitempty"`
	PsychologyTips     string `json:"psychologyTips,omitempty"`
	PerformanceMetrics string `json:"performanceMetrics,omitempty"`

	// foresight
	TargetMarket            string     `json:"targetMarket,omitempty"`
	MacroFactors            string     `json:"macroFactors,omitempty"`
	InnovationTrends        string     `json:"innovationTrends,omitempty"`
	MajorRisks              string     `json:"majorRisks,omitempty"`
	Scenarios               *Scenarios `json:"scenarios,omitempty"`
	StrategicRecommendation string     `json:"strategicRecommendation,omitempty"`
}

type Scenarios struct {
	Optimistic  string `json:"optimistic"`
	Base        string `json:"base"`
	Pessimistic string `json:"pessimistic"`
}

// ExpiredAt reports whether an active signal is past its expiry at now.
// A zero expiry never expires.
func (s *Signal) ExpiredAt(now time.Time) bool {
	if s == nil || s.ExpiryDate.IsZero() {
		return false
	}
	return s.ExpiryDate.Before(now)
}
