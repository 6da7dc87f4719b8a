// Package store persists client credit records and indexes their analyses.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"credit-analysis-workers/internal/analysis"
	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/models"
)

// ErrInvalidQuery is returned when a query names neither a client id nor a PAN.
var ErrInvalidQuery = errors.New("record query needs a client id or PAN")

const schemaDDL = `
CREATE TABLE IF NOT EXISTS client_credit_records (
	client_id  TEXT PRIMARY KEY,
	pan        TEXT,
	report     JSONB,
	analysis   JSONB,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_client_credit_records_pan ON client_credit_records (pan);`

const selectColumns = `client_id, pan, report, analysis, updated_at`

const upsertQuery = `
INSERT INTO client_credit_records (client_id, pan, report, analysis, updated_at)
VALUES ($1, NULLIF($2, ''), $3, $4, now())
ON CONFLICT (client_id) DO UPDATE SET
	pan        = COALESCE(EXCLUDED.pan, client_credit_records.pan),
	report     = COALESCE(EXCLUDED.report, client_credit_records.report),
	analysis   = COALESCE(EXCLUDED.analysis, client_credit_records.analysis),
	updated_at = now()
RETURNING ` + selectColumns

// PostgresRecordStore keeps one row per client with the report and analysis as JSONB.
type PostgresRecordStore struct {
	db     *sql.DB
	logger logger.Logger
}

var _ analysis.RecordStore = (*PostgresRecordStore)(nil)

func NewPostgresRecordStore(db *sql.DB, log logger.Logger) *PostgresRecordStore {
	return &PostgresRecordStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "postgres-record-store"}),
	}
}

// EnsureSchema creates the records table when it does not exist.
func (s *PostgresRecordStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("create client_credit_records: %w", err)
	}
	return nil
}

// Find looks a record up by client id, or by PAN when no id is given. A missing record is nil, nil.
func (s *PostgresRecordStore) Find(ctx context.Context, q analysis.RecordQuery) (*models.ClientRecord, error) {
	var row *sql.Row
	switch {
	case q.ClientID != "":
		row = s.db.QueryRowContext(ctx,
			`SELECT `+selectColumns+` FROM client_credit_records WHERE client_id = $1`, q.ClientID)
	case q.PAN != "":
		row = s.db.QueryRowContext(ctx,
			`SELECT `+selectColumns+` FROM client_credit_records WHERE pan = $1 ORDER BY updated_at DESC LIMIT 1`, q.PAN)
	default:
		return nil, ErrInvalidQuery
	}

	rec, err := s.scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find client record: %w", err)
	}
	return rec, nil
}

// Upsert writes the fields set in u and returns the stored record. Unset fields keep their value.
func (s *PostgresRecordStore) Upsert(ctx context.Context, q analysis.RecordQuery, u analysis.RecordUpdate) (*models.ClientRecord, error) {
	if q.ClientID == "" {
		return nil, ErrInvalidQuery
	}

	report, err := nullableJSON(u.Report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	entry, err := nullableJSON(u.Analysis)
	if err != nil {
		return nil, fmt.Errorf("encode analysis: %w", err)
	}

	start := time.Now()
	rec, err := s.scanRecord(s.db.QueryRowContext(ctx, upsertQuery, q.ClientID, q.PAN, report, entry))
	if err != nil {
		return nil, fmt.Errorf("upsert client record: %w", err)
	}

	s.logger.Debug("client record upserted", map[string]interface{}{
		"clientId":   q.ClientID,
		"report":     u.Report != nil,
		"analysis":   u.Analysis != nil,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return rec, nil
}

// nullableJSON encodes v, or returns nil for a nil pointer so the column stays untouched.
func nullableJSON[T any](v *T) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// scanRecord decodes one row. An undecodable analysis is dropped so the cache recomputes it.
func (s *PostgresRecordStore) scanRecord(row *sql.Row) (*models.ClientRecord, error) {
	var (
		rec    models.ClientRecord
		pan    sql.NullString
		report []byte
		entry  []byte
	)
	if err := row.Scan(&rec.ClientID, &pan, &report, &entry, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.PAN = pan.String

	if len(report) > 0 {
		rec.Report = &models.CreditReport{}
		if err := json.Unmarshal(report, rec.Report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
	}
	if len(entry) > 0 {
		var cached models.CacheEntry
		if err := json.Unmarshal(entry, &cached); err != nil {
			s.logger.Warn("stored analysis is not decodable, ignoring it", map[string]interface{}{
				"clientId": rec.ClientID,
				"error":    err.Error(),
			})
		} else {
			rec.Analysis = &cached
		}
	}
	return &rec, nil
}
