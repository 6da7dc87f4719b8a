// internal/workers/credit/compute-credit-analysis/models.go
package computecreditanalysis

import "encoding/json"

type Input struct {
	ClientID       string          `json:"clientId"`
	PAN            string          `json:"pan,omitempty"`
	ForceRecompute bool            `json:"forceRecompute"`
	CreditReport   json.RawMessage `json:"creditReport,omitempty"`
}

type Output struct {
	ClientID           string  `json:"clientId"`
	Cached             bool    `json:"cached"`
	Reason             string  `json:"reason,omitempty"`
	Grade              string  `json:"grade"`
	OverallScore       float64 `json:"overallScore"`
	DefaultProbability float64 `json:"defaultProbability"`
	RiskLevel          string  `json:"riskLevel"`
	RiskCategory       string  `json:"riskCategory"`
	DefaultPatternType string  `json:"defaultPatternType"`
	Decision           string  `json:"decision"`
	DataHash           string  `json:"dataHash"`
	AnalysisVersion    string  `json:"analysisVersion"`
	AnalyzedAt         string  `json:"analyzedAt"` // ISO 8601
}
