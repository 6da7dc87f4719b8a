// internal/workers/credit/index-credit-analysis/handler.go
package indexcreditanalysis

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
	"credit-analysis-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "index-credit-analysis"
)

// Indexer is satisfied by store.AnalysisIndex.
type Indexer interface {
	Index(ctx context.Context, doc store.AnalysisDocument) error
}

type Handler struct {
	config  *Config
	records analysis.RecordStore
	index   Indexer
	runner  *camunda.Runner
	logger  logger.Logger
	now     func() time.Time
}

func NewHandler(config *Config, records analysis.RecordStore, index Indexer, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		records: records,
		index:   index,
		runner:  camunda.NewRunner(TaskType, config.Timeout, obs, log),
		logger:  log,
		now:     time.Now,
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
	clientID := strings.TrimSpace(input.ClientID)
	if clientID == "" {
		return nil, errors.NewInvalidInputError("clientId is required")
	}

	record, err := h.records.Find(ctx, analysis.RecordQuery{ClientID: clientID})
	if err != nil {
		return nil, errors.NewRecordLookupFailedError(clientID, err)
	}
	if record == nil || record.Analysis == nil {
		return nil, errors.NewAnalysisNotFoundError(clientID)
	}

	doc := store.NewAnalysisDocument(clientID, record.Analysis, h.now())
	if err := h.index.Index(ctx, doc); err != nil {
		return nil, errors.NewAnalysisIndexFailedError(clientID, err)
	}

	h.logger.Info("analysis indexed", map[string]interface{}{
		"clientId": clientID,
		"grade":    doc.Grade,
		"dataHash": doc.DataHash,
	})

	return &Output{
		ClientID:   clientID,
		DocumentID: clientID,
		Grade:      doc.Grade,
		RiskLevel:  doc.RiskLevel,
		DataHash:   doc.DataHash,
		IndexedAt:  doc.IndexedAt.Format(time.RFC3339),
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
