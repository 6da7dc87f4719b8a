package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/economic"
	"credit-analysis-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingProvider struct{ err error }

func (p failingProvider) Snapshot(ctx context.Context) (models.EconomicSnapshot, error) {
	return models.EconomicSnapshot{}, p.err
}

type blockingProvider struct{}

func (blockingProvider) Snapshot(ctx context.Context) (models.EconomicSnapshot, error) {
	<-ctx.Done()
	return models.EconomicSnapshot{}, ctx.Err()
}

func TestComputeAnalysis_NilReport(t *testing.T) {
	svc := NewService(createTestEngine(t), nil, time.Second, logger.NewNoOpLogger())

	_, err := svc.ComputeAnalysis(context.Background(), nil)

	assert.ErrorIs(t, err, ErrNilReport)
}

func TestComputeAnalysis_UsesProviderSnapshot(t *testing.T) {
	live := economic.DefaultSnapshot()
	live.Source = economic.SourceCentralBank
	live.GDPGrowth = -2
	svc := NewService(createTestEngine(t), economic.NewStaticProvider(live), time.Second, logger.NewTestLogger(t))

	res, err := svc.ComputeAnalysis(context.Background(), cleanReport())

	require.NoError(t, err)
	assert.Equal(t, economic.SourceCentralBank, res.Metadata.EconomicSource)
	assert.Equal(t, 6.0, res.Risk.Breakdown.EconomicAdjustment)
	assert.NotContains(t, res.Metadata.Degraded, DegradedEconomic)
}

func TestComputeAnalysis_FallsBackToDefaultSnapshot(t *testing.T) {
	tests := []struct {
		name     string
		provider economic.Provider
	}{
		{"provider error", failingProvider{err: errors.New("boom")}},
		{"no snapshot yet", failingProvider{err: economic.ErrNoSnapshot}},
		{"timeout", blockingProvider{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(createTestEngine(t), tt.provider, 20*time.Millisecond, logger.NewTestLogger(t))

			res, err := svc.ComputeAnalysis(context.Background(), cleanReport())

			require.NoError(t, err)
			assert.Equal(t, economic.SourceDefault, res.Metadata.EconomicSource)
			assert.Contains(t, res.Metadata.Degraded, DegradedEconomic)
			assert.Equal(t, 0.0, res.Risk.Breakdown.EconomicAdjustment)
			assert.Equal(t, "A+", res.Grade)
		})
	}
}
