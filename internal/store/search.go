package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const analysisMapping = `{
	"mappings": {
		"properties": {
			"clientId":           {"type": "keyword"},
			"grade":              {"type": "keyword"},
			"overallScore":       {"type": "float"},
			"defaultProbability": {"type": "float"},
			"riskLevel":          {"type": "keyword"},
			"riskCategory":       {"type": "keyword"},
			"patternType":        {"type": "keyword"},
			"decision":           {"type": "keyword"},
			"totalBalance":       {"type": "double"},
			"totalOverdue":       {"type": "double"},
			"utilization":        {"type": "float"},
			"analysisVersion":    {"type": "keyword"},
			"dataHash":           {"type": "keyword"},
			"analyzedAt":         {"type": "date"},
			"indexedAt":          {"type": "date"}
		}
	}
}`

// AnalysisDocument is the searchable summary of one client's latest analysis.
type AnalysisDocument struct {
	ClientID           string    `json:"clientId"`
	Grade              string    `json:"grade"`
	OverallScore       float64   `json:"overallScore"`
	DefaultProbability float64   `json:"defaultProbability"`
	RiskLevel          string    `json:"riskLevel"`
	RiskCategory       string    `json:"riskCategory"`
	PatternType        string    `json:"patternType"`
	Decision           string    `json:"decision"`
	TotalBalance       float64   `json:"totalBalance"`
	TotalOverdue       float64   `json:"totalOverdue"`
	Utilization        float64   `json:"utilization"`
	AnalysisVersion    string    `json:"analysisVersion"`
	DataHash           string    `json:"dataHash"`
	AnalyzedAt         time.Time `json:"analyzedAt"`
	IndexedAt          time.Time `json:"indexedAt"`
}

// NewAnalysisDocument summarizes a cached analysis for indexing.
func NewAnalysisDocument(clientID string, entry *models.CacheEntry, indexedAt time.Time) AnalysisDocument {
	r := entry.Result
	return AnalysisDocument{
		ClientID:           clientID,
		Grade:              r.Grade,
		OverallScore:       r.OverallScore,
		DefaultProbability: r.Risk.DefaultProbability,
		RiskLevel:          r.Risk.RiskLevel,
		RiskCategory:       r.Risk.RiskCategory,
		PatternType:        r.DefaultPattern.PatternType,
		Decision:           r.Decision.Decision,
		TotalBalance:       r.Summary.TotalBalance,
		TotalOverdue:       r.Summary.TotalOverdue,
		Utilization:        r.Summary.UtilizationPercent,
		AnalysisVersion:    entry.AnalysisVersion,
		DataHash:           entry.DataHash,
		AnalyzedAt:         entry.AnalyzedAt,
		IndexedAt:          indexedAt.UTC(),
	}
}

// AnalysisIndex writes analysis summaries to Elasticsearch, one document per client.
type AnalysisIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewAnalysisIndex(client *elasticsearch.Client, index string, log logger.Logger) *AnalysisIndex {
	return &AnalysisIndex{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "analysis-index", "index": index}),
	}
}

// EnsureIndex creates the index with its mapping unless it already exists.
func (x *AnalysisIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.client.Indices.Exists([]string{x.index}, x.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", x.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = x.client.Indices.Create(x.index,
		x.client.Indices.Create.WithContext(ctx),
		x.client.Indices.Create.WithBody(strings.NewReader(analysisMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", x.index, err)
	}
	defer res.Body.Close()

	// a concurrent creator wins the race with resource_already_exists_exception
	if res.IsError() && res.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("create index %s: %s", x.index, res.Status())
	}
	x.logger.Info("analysis index ready", nil)
	return nil
}

// Index upserts doc under its client id.
func (x *AnalysisIndex) Index(ctx context.Context, doc AnalysisDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode analysis document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      x.index,
		DocumentID: doc.ClientID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("index analysis: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("index analysis: %s: %s", res.Status(), strings.TrimSpace(string(msg)))
	}

	x.logger.Debug("analysis indexed", map[string]interface{}{
		"clientId": doc.ClientID,
		"grade":    doc.Grade,
	})
	return nil
}
