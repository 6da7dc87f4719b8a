package economic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/models"

	"github.com/robfig/cron/v3"
)

// KeyRateSource fetches the latest policy rate.
type KeyRateSource interface {
	KeyRate(ctx context.Context) (rate float64, date string, err error)
}

// RefreshingProvider serves the last successfully refreshed snapshot. Refreshes run on a cron
// schedule; readers never wait on the network.
type RefreshingProvider struct {
	indicators Indicators
	source     KeyRateSource
	timeout    time.Duration
	logger     logger.Logger

	mu     sync.RWMutex
	latest *models.EconomicSnapshot

	cron *cron.Cron
}

func NewRefreshingProvider(indicators Indicators, source KeyRateSource, timeout time.Duration, log logger.Logger) *RefreshingProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RefreshingProvider{
		indicators: indicators,
		source:     source,
		timeout:    timeout,
		logger:     log.WithFields(map[string]interface{}{"component": "economic-provider"}),
	}
}

// Snapshot returns a copy of the latest snapshot, or ErrNoSnapshot before the first successful refresh.
func (p *RefreshingProvider) Snapshot(ctx context.Context) (models.EconomicSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.EconomicSnapshot{}, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return models.EconomicSnapshot{}, ErrNoSnapshot
	}
	return copySnapshot(*p.latest), nil
}

// Refresh fetches the key rate and publishes a new snapshot. On failure the previous snapshot stays.
func (p *RefreshingProvider) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rate, date, err := p.source.KeyRate(ctx)
	if err != nil {
		p.logger.Warn("economic snapshot refresh failed, keeping previous snapshot", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("refresh economic snapshot: %w", err)
	}

	snap := p.indicators.Snapshot()
	snap.PolicyRate = rate
	snap.Source = SourceCentralBank
	snap.AsOf = date

	p.mu.Lock()
	p.latest = &snap
	p.mu.Unlock()

	p.logger.Info("economic snapshot refreshed", map[string]interface{}{
		"policyRate": rate,
		"asOf":       date,
	})
	return nil
}

// Start refreshes once and then on schedule (standard five-field cron expression).
func (p *RefreshingProvider) Start(ctx context.Context, schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		_ = p.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	_ = p.Refresh(ctx)

	p.cron = c
	c.Start()
	return nil
}

// Stop halts scheduled refreshes and waits for a running one to finish.
func (p *RefreshingProvider) Stop() {
	if p.cron != nil {
		<-p.cron.Stop().Done()
	}
}
