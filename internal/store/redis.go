package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"credit-analysis-workers/internal/analysis"
	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const recordKeyPrefix = "credit:record:"

// CachedRecordStore is a read-through Redis layer over another RecordStore. Redis failures are
// logged and bypassed; the inner store stays authoritative.
type CachedRecordStore struct {
	inner  analysis.RecordStore
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

var _ analysis.RecordStore = (*CachedRecordStore)(nil)

func NewCachedRecordStore(inner analysis.RecordStore, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedRecordStore {
	return &CachedRecordStore{
		inner:  inner,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "record-cache"}),
	}
}

func recordKey(clientID string) string {
	return recordKeyPrefix + clientID
}

func (c *CachedRecordStore) Find(ctx context.Context, q analysis.RecordQuery) (*models.ClientRecord, error) {
	// PAN lookups are not cached: the key space is client ids only
	if q.ClientID == "" {
		return c.inner.Find(ctx, q)
	}

	key := recordKey(q.ClientID)
	val, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rec models.ClientRecord
		if jsonErr := json.Unmarshal(val, &rec); jsonErr == nil {
			return &rec, nil
		}
		c.logger.Warn("cached record is corrupt, evicting", map[string]interface{}{"key": key})
		c.redis.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("record cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	rec, err := c.inner.Find(ctx, q)
	if err != nil || rec == nil {
		return rec, err
	}
	c.store(ctx, rec)
	return rec, nil
}

// Upsert writes through to the inner store and refreshes the cached copy.
func (c *CachedRecordStore) Upsert(ctx context.Context, q analysis.RecordQuery, u analysis.RecordUpdate) (*models.ClientRecord, error) {
	rec, err := c.inner.Upsert(ctx, q, u)
	if err != nil {
		if q.ClientID != "" {
			c.redis.Del(ctx, recordKey(q.ClientID))
		}
		return nil, err
	}
	c.store(ctx, rec)
	return rec, nil
}

func (c *CachedRecordStore) store(ctx context.Context, rec *models.ClientRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	key := recordKey(rec.ClientID)
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("record cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		// a stale copy must not outlive a failed refresh
		c.redis.Del(ctx, key)
	}
}
