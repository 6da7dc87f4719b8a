// internal/models/economic.go
package models

// EconomicSnapshot carries the macro indicators used by the risk model.
// Rates and growth figures are annual percentages.
type EconomicSnapshot struct {
	GDPGrowth         float64            `json:"gdpGrowth"`
	Inflation         float64            `json:"inflation"`
	PolicyRate        float64            `json:"policyRate"`
	Unemployment      float64            `json:"unemployment"`
	MarketSentiment   string             `json:"marketSentiment"`
	SectorPerformance map[string]float64 `json:"sectorPerformance,omitempty"`
	Source            string             `json:"source"`
	AsOf              string             `json:"asOf,omitempty"`
}

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)
