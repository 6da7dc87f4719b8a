package analysis

import (
	"context"
	"errors"
	"time"

	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/common/metrics"
	"credit-analysis-workers/internal/economic"
	"credit-analysis-workers/internal/models"
)

// ErrNilReport is returned when there is no report to analyze.
var ErrNilReport = errors.New("credit report is nil")

// Service computes analyses with live economic data, falling back to the default snapshot when
// the provider fails or exceeds its timeout.
type Service struct {
	engine          *Engine
	provider        economic.Provider
	economicTimeout time.Duration
	logger          logger.Logger
}

func NewService(engine *Engine, provider economic.Provider, economicTimeout time.Duration, log logger.Logger) *Service {
	if economicTimeout <= 0 {
		economicTimeout = 2 * time.Second
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		engine:          engine,
		provider:        provider,
		economicTimeout: economicTimeout,
		logger:          log.WithFields(map[string]interface{}{"component": "analysis-service"}),
	}
}

// ComputeAnalysis runs the full pipeline once. The only error is a nil report.
func (s *Service) ComputeAnalysis(ctx context.Context, report *models.CreditReport) (*models.AnalysisResult, error) {
	if report == nil {
		return nil, ErrNilReport
	}

	start := time.Now()
	snapshot, live := s.snapshot(ctx)
	result := s.engine.Compute(report, snapshot)
	if !live {
		result.Metadata.Degraded = append(result.Metadata.Degraded, DegradedEconomic)
	}

	metrics.AnalysisComputeDuration.Observe(time.Since(start).Seconds())
	metrics.DefaultProbability.Observe(result.Risk.DefaultProbability)
	return &result, nil
}

func (s *Service) snapshot(ctx context.Context) (models.EconomicSnapshot, bool) {
	if s.provider == nil {
		return economic.DefaultSnapshot(), true
	}

	ctx, cancel := context.WithTimeout(ctx, s.economicTimeout)
	defer cancel()

	snap, err := s.provider.Snapshot(ctx)
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		} else if errors.Is(err, economic.ErrNoSnapshot) {
			reason = "unavailable"
		}
		metrics.EconomicSnapshotFallbacks.WithLabelValues(reason).Inc()
		s.logger.Warn("economic data unavailable, using default snapshot", map[string]interface{}{
			"reason": reason,
			"error":  err.Error(),
		})
		return economic.DefaultSnapshot(), false
	}
	return snap, true
}
