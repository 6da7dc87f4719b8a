// internal/models/analysis.go
package models

import "time"

// PaymentCategory is the normalized status of one reported month.
type PaymentCategory string

const (
	PaymentOnTime      PaymentCategory = "onTime"
	PaymentDelayed     PaymentCategory = "delayed"
	PaymentMissed      PaymentCategory = "missed"
	PaymentNotReported PaymentCategory = "notReported"
)

type PaymentRecord struct {
	Period    int             `json:"period"`
	Date      string          `json:"date,omitempty"`
	RawStatus string          `json:"rawStatus"`
	Category  PaymentCategory `json:"category"`
}

// ComponentScores holds the six sub-scores, each on a 0-100 scale.
type ComponentScores struct {
	PaymentHistory    float64 `json:"paymentHistory"`
	CreditUtilization float64 `json:"creditUtilization"`
	CreditAge         float64 `json:"creditAge"`
	DebtBurden        float64 `json:"debtBurden"`
	CreditMix         float64 `json:"creditMix"`
	RecentInquiries   float64 `json:"recentInquiries"`
}

type CreditWorthiness struct {
	Score              float64 `json:"score"`
	IsPrimeBorrower    bool    `json:"isPrimeBorrower"`
	IsCreditWorthy     bool    `json:"isCreditWorthy"`
	IsSubprimeBorrower bool    `json:"isSubprimeBorrower"`
	IsHighRisk         bool    `json:"isHighRisk"`
}

// ProbabilityBreakdown records every additive term behind the default probability.
type ProbabilityBreakdown struct {
	Baseline           float64 `json:"baseline"`
	PaymentTerm        float64 `json:"paymentTerm"`
	UtilizationTerm    float64 `json:"utilizationTerm"`
	DefaultTerm        float64 `json:"defaultTerm"`
	InquiryTerm        float64 `json:"inquiryTerm"`
	CreditAgeTerm      float64 `json:"creditAgeTerm"`
	MixTerm            float64 `json:"mixTerm"`
	RecentDelinquency  float64 `json:"recentDelinquency"`
	Base               float64 `json:"base"`
	EconomicAdjustment float64 `json:"economicAdjustment"`
	Mitigation         float64 `json:"mitigation"`
}

type SensitivityScenario struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Delta       float64 `json:"delta"`
}

type SensitivityAnalysis struct {
	BaseProbability float64               `json:"baseProbability"`
	Scenarios       []SensitivityScenario `json:"scenarios"`
	MostSensitive   string                `json:"mostSensitive"`
	MaxDelta        float64               `json:"maxDelta"`
}

type StressStep struct {
	Shock       string  `json:"shock"`
	Multiplier  float64 `json:"multiplier"`
	Probability float64 `json:"probability"`
}

type StressTest struct {
	BaseProbability     float64      `json:"baseProbability"`
	StressedProbability float64      `json:"stressedProbability"`
	Steps               []StressStep `json:"steps"`
	Passed              bool         `json:"passed"`
	Rating              string       `json:"rating"`
}

type RiskAssessment struct {
	CreditWorthiness   CreditWorthiness     `json:"creditWorthiness"`
	DefaultProbability float64              `json:"defaultProbability"`
	RiskLevel          string               `json:"riskLevel"`
	RiskCategory       string               `json:"riskCategory"`
	Confidence         float64              `json:"confidence"`
	Breakdown          ProbabilityBreakdown `json:"breakdown"`
	Sensitivity        SensitivityAnalysis  `json:"sensitivity"`
	StressTest         StressTest           `json:"stressTest"`
	DefaultedAccounts  int                  `json:"defaultedAccounts"`
	DegradedSections   []string             `json:"degradedSections,omitempty"`
}

type AccountSignals struct {
	AccountNumber      string `json:"accountNumber,omitempty"`
	Lender             string `json:"lender"`
	ConsistentThenStop bool   `json:"consistentThenStop"`
	Irregular          bool   `json:"irregular"`
	StrategicDefault   bool   `json:"strategicDefault"`
	LateOnset          bool   `json:"lateOnset"`
}

// Defaulter is an account showing default behaviour. Defaulted marks the stricter account-level
// default that AccountSummary.DefaultedAccounts counts.
type Defaulter struct {
	Defaulted     bool    `json:"defaulted"`
	AccountNumber string  `json:"accountNumber,omitempty"`
	Lender        string  `json:"lender"`
	Type          string  `json:"type"`
	MissedMonths  int     `json:"missedMonths"`
	OverdueAmount float64 `json:"overdueAmount"`
	StatusCode    string  `json:"statusCode,omitempty"`
}

type DefaultPattern struct {
	PatternType             string           `json:"defaultPatternType"`
	Severity                string           `json:"severity"`
	WillfulIndicators       int              `json:"willfulIndicators"`
	SituationalIndicators   int              `json:"situationalIndicators"`
	SimultaneousDefault     bool             `json:"simultaneousDefault"`
	OverlappingMissedMonths int              `json:"overlappingMissedMonths"`
	Accounts                []AccountSignals `json:"accounts,omitempty"`
	Defaulters              []Defaulter      `json:"defaulters"`
}

type LendingDecision struct {
	Decision           string   `json:"decision"`
	RatePremiumPercent float64  `json:"ratePremiumPercent"`
	Rationale          []string `json:"rationale"`
}

type AccountSummary struct {
	TotalAccounts      int     `json:"totalAccounts"`
	ActiveAccounts     int     `json:"activeAccounts"`
	SecuredAccounts    int     `json:"securedAccounts"`
	DefaultedAccounts  int     `json:"defaultedAccounts"`
	DefaulterAccounts  int     `json:"defaulterAccounts"`
	TotalBalance       float64 `json:"totalBalance"`
	TotalLimit         float64 `json:"totalLimit"`
	TotalOverdue       float64 `json:"totalOverdue"`
	UtilizationPercent float64 `json:"utilizationPercent"`
	CreditAgeMonths    int     `json:"creditAgeMonths"`
	RecentEnquiries    int     `json:"recentEnquiries"`
}

type AnalysisMetadata struct {
	AnalysisVersion string    `json:"analysisVersion"`
	AnalyzedAt      time.Time `json:"analyzedAt"`
	DataHash        string    `json:"dataHash"`
	AnalysisID      string    `json:"analysisId,omitempty"`
	AsOf            string    `json:"asOf"`
	EconomicSource  string    `json:"economicSource"`
	Degraded        []string  `json:"degraded,omitempty"`
}

// AnalysisResult is the unit that is cached and persisted per client.
type AnalysisResult struct {
	Grade            string           `json:"grade"`
	OverallScore     float64          `json:"overallScore"`
	RawScore         float64          `json:"rawScore"`
	MarketAdjustment int              `json:"marketAdjustment"`
	ComponentScores  ComponentScores  `json:"componentScores"`
	Risk             RiskAssessment   `json:"risk"`
	DefaultPattern   DefaultPattern   `json:"defaultPattern"`
	Recommendations  []string         `json:"recommendations"`
	Decision         LendingDecision  `json:"decision"`
	Summary          AccountSummary   `json:"summary"`
	Metadata         AnalysisMetadata `json:"metadata"`
}
