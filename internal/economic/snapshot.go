// Package economic supplies the macro-economic snapshot used by the risk model.
package economic

import (
	"context"
	"errors"

	"credit-analysis-workers/internal/models"
)

const (
	SourceDefault     = "default"
	SourceConfigured  = "configured"
	SourceCentralBank = "central-bank"
)

// ErrNoSnapshot is returned by providers that have not obtained any data yet.
var ErrNoSnapshot = errors.New("economic snapshot not available")

// Provider returns the current snapshot. Implementations must honour ctx cancellation.
type Provider interface {
	Snapshot(ctx context.Context) (models.EconomicSnapshot, error)
}

// Sectors is the set of employment sectors the snapshot carries performance for.
var Sectors = []string{
	"agriculture", "financial", "general", "government", "healthcare", "manufacturing",
	"professional_services", "retail", "services", "technology",
}

// DefaultSnapshot is the fixed fallback. Its economic adjustment is exactly zero.
func DefaultSnapshot() models.EconomicSnapshot {
	sectors := make(map[string]float64, len(Sectors))
	for _, s := range Sectors {
		sectors[s] = 3.0
	}
	return models.EconomicSnapshot{
		GDPGrowth:         6.5,
		Inflation:         5.0,
		PolicyRate:        6.5,
		Unemployment:      5.0,
		MarketSentiment:   models.SentimentNeutral,
		SectorPerformance: sectors,
		Source:            SourceDefault,
	}
}

// Indicators are operator-maintained values for the figures no live feed provides.
type Indicators struct {
	GDPGrowth         float64
	Inflation         float64
	PolicyRate        float64
	Unemployment      float64
	MarketSentiment   string
	SectorPerformance map[string]float64
}

// Snapshot overlays the configured indicators on the default snapshot. Zero values keep the default.
func (i Indicators) Snapshot() models.EconomicSnapshot {
	s := DefaultSnapshot()
	s.Source = SourceConfigured
	if i.GDPGrowth != 0 {
		s.GDPGrowth = i.GDPGrowth
	}
	if i.Inflation != 0 {
		s.Inflation = i.Inflation
	}
	if i.PolicyRate != 0 {
		s.PolicyRate = i.PolicyRate
	}
	if i.Unemployment != 0 {
		s.Unemployment = i.Unemployment
	}
	if i.MarketSentiment != "" {
		s.MarketSentiment = i.MarketSentiment
	}
	for k, v := range i.SectorPerformance {
		s.SectorPerformance[k] = v
	}
	return s
}

// StaticProvider always serves the same snapshot.
type StaticProvider struct {
	snapshot models.EconomicSnapshot
}

func NewStaticProvider(s models.EconomicSnapshot) *StaticProvider {
	return &StaticProvider{snapshot: s}
}

func (p *StaticProvider) Snapshot(ctx context.Context) (models.EconomicSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.EconomicSnapshot{}, err
	}
	return copySnapshot(p.snapshot), nil
}

func copySnapshot(s models.EconomicSnapshot) models.EconomicSnapshot {
	if s.SectorPerformance != nil {
		sectors := make(map[string]float64, len(s.SectorPerformance))
		for k, v := range s.SectorPerformance {
			sectors[k] = v
		}
		s.SectorPerformance = sectors
	}
	return s
}
