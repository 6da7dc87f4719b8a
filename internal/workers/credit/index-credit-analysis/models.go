// internal/workers/credit/index-credit-analysis/models.go
package indexcreditanalysis

type Input struct {
	ClientID string `json:"clientId"`
}

type Output struct {
	ClientID   string `json:"clientId"`
	DocumentID string `json:"documentId"`
	Grade      string `json:"grade"`
	RiskLevel  string `json:"riskLevel"`
	DataHash   string `json:"dataHash"`
	IndexedAt  string `json:"indexedAt"` // ISO 8601
}
