package analysis

import (
	"context"
	"errors"
	"time"

	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/common/metrics"
	"credit-analysis-workers/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Invalidation reasons reported in CacheOutcome.Reason.
const (
	ReasonMissing         = "missing"
	ReasonHashMismatch    = "hash_mismatch"
	ReasonVersionMismatch = "version_mismatch"
	ReasonStale           = "stale"
	ReasonForced          = "forced"
)

const (
	DefaultStaleAfter     = 30 * 24 * time.Hour
	DefaultPersistTimeout = 5 * time.Second
)

// ErrNilRecord is the only error GetOrComputeAnalysis returns.
var ErrNilRecord = errors.New("client record is nil or has no report")

// RecordQuery identifies a client record.
type RecordQuery struct {
	ClientID string
	PAN      string
}

// RecordUpdate replaces the analysis sub-document, and the report when set.
type RecordUpdate struct {
	Report   *models.CreditReport
	Analysis *models.CacheEntry
}

// RecordStore persists client records. Find returns nil, nil when no record exists.
type RecordStore interface {
	Find(ctx context.Context, q RecordQuery) (*models.ClientRecord, error)
	Upsert(ctx context.Context, q RecordQuery, u RecordUpdate) (*models.ClientRecord, error)
}

// CacheOutcome reports whether the analysis came from the cache and, when not, why.
type CacheOutcome struct {
	Cached   bool
	Analysis *models.AnalysisResult
	Entry    *models.CacheEntry
	Reason   string
}

type CacheConfig struct {
	StaleAfter     time.Duration
	PersistTimeout time.Duration
	Now            func() time.Time
}

// Cache returns a stored analysis while it matches the report content and AnalysisVersion, and
// recomputes it otherwise. Concurrent recomputations for one client are harmless: each writes an
// identical result.
type Cache struct {
	service *Service
	store   RecordStore
	config  CacheConfig
	logger  logger.Logger
}

func NewCache(service *Service, store RecordStore, config CacheConfig, log logger.Logger) *Cache {
	if config.StaleAfter <= 0 {
		config.StaleAfter = DefaultStaleAfter
	}
	if config.PersistTimeout <= 0 {
		config.PersistTimeout = DefaultPersistTimeout
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Cache{
		service: service,
		store:   store,
		config:  config,
		logger:  log.WithFields(map[string]interface{}{"component": "analysis-cache"}),
	}
}

func queryFor(record *models.ClientRecord) RecordQuery {
	return RecordQuery{ClientID: record.ClientID, PAN: record.PAN}
}

// GetOrComputeAnalysis returns the cached analysis of record when valid, otherwise recomputes and
// persists it. The entry served is attached to record. A persist failure is logged and counted;
// the fresh analysis is still returned.
func (c *Cache) GetOrComputeAnalysis(ctx context.Context, record *models.ClientRecord, forceRecompute bool) (*CacheOutcome, error) {
	if record == nil || record.Report == nil {
		return nil, ErrNilRecord
	}

	log := c.logger.WithFields(map[string]interface{}{"clientId": record.ClientID})
	hash := DataHash(record.Report)

	// an attached entry that no longer matches may be older than what the store holds
	entry := record.Analysis
	if !forceRecompute && c.Invalidation(entry, hash, false) != "" {
		if stored := c.lookup(ctx, record, log); stored != nil {
			entry = stored
		}
	}

	reason := c.Invalidation(entry, hash, forceRecompute)
	if reason == "" {
		metrics.AnalysisCacheLookups.WithLabelValues("hit").Inc()
		log.Debug("analysis cache hit", map[string]interface{}{"dataHash": hash})
		record.Analysis = entry
		result := entry.Result
		return &CacheOutcome{Cached: true, Analysis: &result, Entry: entry}, nil
	}
	metrics.AnalysisCacheLookups.WithLabelValues(reason).Inc()

	fresh, err := c.recompute(ctx, record, reason, log)
	if err != nil {
		return nil, err
	}
	record.Analysis = fresh
	return &CacheOutcome{Cached: false, Analysis: &fresh.Result, Entry: fresh, Reason: reason}, nil
}

// Invalidation returns why entry cannot serve a report with dataHash, or "" when it can.
func (c *Cache) Invalidation(entry *models.CacheEntry, dataHash string, force bool) string {
	switch {
	case force:
		return ReasonForced
	case entry == nil:
		return ReasonMissing
	case entry.DataHash != dataHash:
		return ReasonHashMismatch
	case entry.AnalysisVersion != AnalysisVersion:
		return ReasonVersionMismatch
	case c.config.Now().Sub(entry.AnalyzedAt) >= c.config.StaleAfter:
		return ReasonStale
	default:
		return ""
	}
}

func (c *Cache) lookup(ctx context.Context, record *models.ClientRecord, log logger.Logger) *models.CacheEntry {
	if c.store == nil {
		return nil
	}
	stored, err := c.store.Find(ctx, queryFor(record))
	if err != nil {
		log.Warn("record lookup failed, treating analysis as missing", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	if stored == nil {
		return nil
	}
	return stored.Analysis
}

func (c *Cache) recompute(ctx context.Context, record *models.ClientRecord, reason string, log logger.Logger) (*models.CacheEntry, error) {
	ctx, span := otel.Tracer("credit-analysis-workers/analysis").Start(ctx, "analysis.recompute")
	defer span.End()
	span.SetAttributes(
		attribute.String("client.id", record.ClientID),
		attribute.String("cache.reason", reason),
	)

	result, err := c.service.ComputeAnalysis(ctx, record.Report)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	result.Metadata.AnalysisID = uuid.New().String()

	entry := &models.CacheEntry{
		DataHash:        result.Metadata.DataHash,
		AnalysisVersion: result.Metadata.AnalysisVersion,
		AnalyzedAt:      result.Metadata.AnalyzedAt,
		Result:          *result,
	}

	log.Info("analysis recomputed", map[string]interface{}{
		"reason":             reason,
		"grade":              result.Grade,
		"defaultProbability": result.Risk.DefaultProbability,
		"analysisId":         result.Metadata.AnalysisID,
	})

	c.persist(ctx, record, entry, log)
	return entry, nil
}

func (c *Cache) persist(ctx context.Context, record *models.ClientRecord, entry *models.CacheEntry, log logger.Logger) {
	if c.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.PersistTimeout)
	defer cancel()

	if _, err := c.store.Upsert(ctx, queryFor(record), RecordUpdate{Analysis: entry}); err != nil {
		metrics.AnalysisPersistFailures.Inc()
		log.Warn("analysis computed but not persisted", map[string]interface{}{
			"error":    err.Error(),
			"dataHash": entry.DataHash,
		})
	}
}
