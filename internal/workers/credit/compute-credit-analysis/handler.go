// internal/workers/credit/compute-credit-analysis/handler.go
package computecreditanalysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"credit-analysis-workers/internal/analysis"
	"credit-analysis-workers/internal/common/camunda"
	"credit-analysis-workers/internal/common/errors"
	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/common/observability"
	"credit-analysis-workers/internal/common/validation"
	"credit-analysis-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "compute-credit-analysis"
)

type Handler struct {
	config  *Config
	records analysis.RecordStore
	cache   *analysis.Cache
	runner  *camunda.Runner
	logger  logger.Logger
}

func NewHandler(config *Config, records analysis.RecordStore, cache *analysis.Cache, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		records: records,
		cache:   cache,
		runner:  camunda.NewRunner(TaskType, config.Timeout, obs, log),
		logger:  log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context, variables string) (interface{}, error) {
		var input Input
		if err := json.Unmarshal([]byte(variables), &input); err != nil {
			return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
		}
		return h.execute(ctx, &input)
	})
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	input.ClientID = strings.TrimSpace(input.ClientID)
	if input.ClientID == "" {
		return nil, errors.NewInvalidInputError("clientId is required")
	}

	record, err := h.loadRecord(ctx, input)
	if err != nil {
		return nil, err
	}

	outcome, err := h.cache.GetOrComputeAnalysis(ctx, record, input.ForceRecompute)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	h.logger.Info("credit analysis ready", map[string]interface{}{
		"clientId": input.ClientID,
		"cached":   outcome.Cached,
		"reason":   outcome.Reason,
		"grade":    outcome.Analysis.Grade,
	})

	return buildOutput(input.ClientID, outcome), nil
}

// loadRecord prefers a report supplied with the job, which is validated and stored first.
func (h *Handler) loadRecord(ctx context.Context, input *Input) (*models.ClientRecord, error) {
	if len(input.CreditReport) > 0 && string(input.CreditReport) != "null" {
		report, err := decodeReport(input.CreditReport)
		if err != nil {
			return nil, err
		}
		if report.ClientID == "" {
			report.ClientID = input.ClientID
		}
		pan := input.PAN
		if pan == "" {
			pan = report.PAN
		}
		query := analysis.RecordQuery{ClientID: input.ClientID, PAN: pan}
		record, err := h.records.Upsert(ctx, query, analysis.RecordUpdate{Report: report})
		if err != nil {
			return nil, errors.NewAnalysisPersistFailedError(input.ClientID, err)
		}
		return record, nil
	}

	record, err := h.records.Find(ctx, analysis.RecordQuery{ClientID: input.ClientID, PAN: input.PAN})
	if err != nil {
		return nil, errors.NewRecordLookupFailedError(input.ClientID, err)
	}
	if record == nil || record.Report == nil {
		return nil, errors.NewClientNotFoundError(input.ClientID)
	}
	return record, nil
}

func decodeReport(raw json.RawMessage) (*models.CreditReport, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewInvalidCreditReportError(fmt.Sprintf("parse credit report: %v", err))
	}
	result, err := validation.ValidateCreditReport(doc)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, errors.NewInvalidCreditReportError(result.Summary())
	}

	var report models.CreditReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, errors.NewInvalidCreditReportError(fmt.Sprintf("decode credit report: %v", err))
	}
	return &report, nil
}

func buildOutput(clientID string, outcome *analysis.CacheOutcome) *Output {
	res := outcome.Analysis
	return &Output{
		ClientID:           clientID,
		Cached:             outcome.Cached,
		Reason:             outcome.Reason,
		Grade:              res.Grade,
		OverallScore:       res.OverallScore,
		DefaultProbability: res.Risk.DefaultProbability,
		RiskLevel:          res.Risk.RiskLevel,
		RiskCategory:       res.Risk.RiskCategory,
		DefaultPatternType: res.DefaultPattern.PatternType,
		Decision:           res.Decision.Decision,
		DataHash:           outcome.Entry.DataHash,
		AnalysisVersion:    outcome.Entry.AnalysisVersion,
		AnalyzedAt:         outcome.Entry.AnalyzedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
