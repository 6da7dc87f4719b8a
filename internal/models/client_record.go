// internal/models/client_record.go
package models

import "time"

// ClientRecord is the persisted client document: the latest bureau report plus
// the analysis sub-document that the analysis cache reads and replaces.
type ClientRecord struct {
	ClientID  string        `json:"clientId"`
	PAN       string        `json:"pan,omitempty"`
	Report    *CreditReport `json:"report,omitempty"`
	Analysis  *CacheEntry   `json:"analysis,omitempty"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// CacheEntry is replaced as a whole whenever the analysis is recomputed.
type CacheEntry struct {
	DataHash        string         `json:"dataHash"`
	AnalysisVersion string         `json:"analysisVersion"`
	AnalyzedAt      time.Time      `json:"analyzedAt"`
	Result          AnalysisResult `json:"result"`
}
