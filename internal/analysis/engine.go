// Package analysis assembles the full credit analysis and caches it per client record.
package analysis

import (
	"fmt"
	"time"

	"credit-analysis-workers/internal/analysis/history"
	"credit-analysis-workers/internal/analysis/pattern"
	"credit-analysis-workers/internal/analysis/risk"
	"credit-analysis-workers/internal/analysis/scoring"
	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/models"
)

// AnalysisVersion tags every computed result. Cached results with another version are recomputed.
const AnalysisVersion = scoring.ModelVersion

// Degraded markers recorded in result metadata.
const (
	DegradedAsOf            = "asOf"
	DegradedComponentScores = "componentScores"
	DegradedDefaultPattern  = "defaultPattern"
	DegradedEconomic        = "economicSnapshot"
)

// Engine runs the scoring pipeline. Compute is a pure function of the report, the snapshot and
// AnalysisVersion, apart from the AnalyzedAt timestamp.
type Engine struct {
	calc   *scoring.Calculator
	risk   *risk.Model
	logger logger.Logger
	now    func() time.Time
}

// NewEngine validates model and wires the pipeline. It fails only when the model is inconsistent.
func NewEngine(model scoring.ScoringModel, log logger.Logger) (*Engine, error) {
	if model.Version != AnalysisVersion {
		return nil, fmt.Errorf("%w: model version %q does not match analysis version %q",
			scoring.ErrInvalidModel, model.Version, AnalysisVersion)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	calc, err := scoring.NewCalculator(model, log)
	if err != nil {
		return nil, err
	}
	return &Engine{
		calc:   calc,
		risk:   risk.NewModel(calc, log),
		logger: log.WithFields(map[string]interface{}{"component": "analysis-engine"}),
		now:    time.Now,
	}, nil
}

// WithClock replaces the clock used for AnalyzedAt and for reports without a usable date.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Compute runs normalization, scoring, risk and pattern passes over one report.
func (e *Engine) Compute(report *models.CreditReport, snapshot models.EconomicSnapshot) models.AnalysisResult {
	if report == nil {
		report = &models.CreditReport{}
	}
	var degraded []string

	asOf, ok := history.ParseDate(report.ReportDate)
	if !ok {
		asOf = e.now().UTC()
		degraded = append(degraded, DegradedAsOf)
	}
	asOf = time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)

	histories := make([]history.History, len(report.Accounts))
	for i, acc := range report.Accounts {
		histories[i] = history.Normalize(acc)
	}

	scores := e.calc.Calculate(report, histories, asOf)
	if scores.Degraded {
		degraded = append(degraded, DegradedComponentScores)
	}

	assessment := e.risk.Assess(risk.Input{
		Report:    report,
		Histories: histories,
		Scores:    scores,
		Snapshot:  snapshot,
		AsOf:      asOf,
		Degraded:  degraded,
	})

	defaultPattern, ok := e.classify(report.Accounts, histories)
	if !ok {
		degraded = append(degraded, DegradedDefaultPattern)
	}
	degraded = append(degraded, assessment.DegradedSections...)

	summary := summarize(report, scores, assessment, defaultPattern)

	return models.AnalysisResult{
		Grade:            scores.Grade,
		OverallScore:     scores.OverallScore,
		RawScore:         scores.RawScore,
		MarketAdjustment: scores.MarketAdjustment,
		ComponentScores:  scores.Components,
		Risk:             assessment,
		DefaultPattern:   defaultPattern,
		Recommendations:  recommend(summary, scores, assessment),
		Decision:         decide(scores, assessment, defaultPattern),
		Summary:          summary,
		Metadata: models.AnalysisMetadata{
			AnalysisVersion: AnalysisVersion,
			AnalyzedAt:      e.now().UTC(),
			DataHash:        DataHash(report),
			AsOf:            asOf.Format("2006-01-02"),
			EconomicSource:  snapshot.Source,
			Degraded:        degraded,
		},
	}
}

func (e *Engine) classify(accounts []models.Account, histories []history.History) (p models.DefaultPattern, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("default pattern classification failed", map[string]interface{}{
				"panic": fmt.Sprint(r),
			})
			p = models.DefaultPattern{
				PatternType: pattern.TypeNoPattern,
				Severity:    pattern.SeverityNone,
				Defaulters:  []models.Defaulter{},
			}
			ok = false
		}
	}()
	return pattern.Classify(accounts, histories), true
}
