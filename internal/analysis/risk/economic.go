package risk

import (
	"strings"

	"credit-analysis-workers/internal/models"
)

// EconomicAdjustment is the additive probability shift implied by a macro snapshot and the
// borrower's employment sector. The default snapshot yields zero.
func EconomicAdjustment(s models.EconomicSnapshot, sector string) float64 {
	adj := 0.0

	switch g := s.GDPGrowth; {
	case g >= 7:
		adj -= 2
	case g >= 5:
	case g >= 3:
		adj += 2
	case g >= 0:
		adj += 4
	default:
		adj += 6
	}

	switch i := s.Inflation; {
	case i > 8:
		adj += 5
	case i > 6:
		adj += 3
	case i < 2:
		adj++
	}

	switch r := s.PolicyRate; {
	case r <= 4:
		adj--
	case r <= 6.5:
	case r <= 8:
		adj += 2
	default:
		adj += 3
	}

	switch u := s.Unemployment; {
	case u <= 4:
		adj--
	case u <= 6:
	case u <= 8:
		adj += 2
	default:
		adj += 4
	}

	switch strings.ToLower(s.MarketSentiment) {
	case models.SentimentPositive:
		adj--
	case models.SentimentNegative:
		adj += 2
	}

	if perf, ok := s.SectorPerformance[sector]; ok {
		switch {
		case perf >= 5:
			adj--
		case perf < -5:
			adj += 4
		case perf < 0:
			adj += 2
		}
	}
	return adj
}
