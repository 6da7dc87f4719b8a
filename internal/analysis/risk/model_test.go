package risk

import (
	"strings"
	"testing"
	"time"

	"credit-analysis-workers/internal/analysis/history"
	"credit-analysis-workers/internal/analysis/scoring"
	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var testAsOf = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

func defaultSnapshot() models.EconomicSnapshot {
	return models.EconomicSnapshot{
		GDPGrowth:       6.5,
		Inflation:       5.0,
		PolicyRate:      6.5,
		Unemployment:    5.0,
		MarketSentiment: models.SentimentNeutral,
		SectorPerformance: map[string]float64{
			"general": 3.0, "services": 3.0, "technology": 3.0,
		},
		Source: "default",
	}
}

type fixture struct {
	calc  *scoring.Calculator
	model *Model
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	calc, err := scoring.NewCalculator(scoring.DefaultModel(), logger.NewTestLogger(t))
	require.NoError(t, err)
	return fixture{calc: calc, model: NewModel(calc, logger.NewTestLogger(t))}
}

func (f fixture) input(report *models.CreditReport) Input {
	histories := make([]history.History, len(report.Accounts))
	for i, acc := range report.Accounts {
		histories[i] = history.Normalize(acc)
	}
	return Input{
		Report:    report,
		Histories: histories,
		Scores:    f.calc.Calculate(report, histories, testAsOf),
		Snapshot:  defaultSnapshot(),
		AsOf:      testAsOf,
	}
}

func cleanReport() *models.CreditReport {
	return &models.CreditReport{
		ReportDate: "2024-06-30",
		Accounts: []models.Account{{
			Type:           "10",
			Lender:         "Cooperative Bank",
			OpenedDate:     "2014-06-30",
			CurrentBalance: 5000,
			CreditLimit:    100000,
			PaymentHistory: strings.Repeat("0", 36),
		}},
	}
}

func defaultedReport() *models.CreditReport {
	return &models.CreditReport{
		ReportDate: "2024-06-30",
		Accounts: []models.Account{{
			Type:               "05",
			Lender:             "Some Finance Ltd",
			OpenedDate:         "2021-06-30",
			CurrentBalance:     100000,
			OverdueAmount:      60000,
			FacilityStatusCode: "DEFAULT",
			PaymentHistory:     "555555000000",
		}},
	}
}

// ==========================
// Scenarios
// ==========================

func TestAssess_CleanAccount(t *testing.T) {
	f := newFixture(t)

	out := f.model.Assess(f.input(cleanReport()))

	assert.Empty(t, out.DegradedSections)
	assert.Equal(t, 13.0, out.DefaultProbability)
	assert.GreaterOrEqual(t, out.DefaultProbability, 5.0)
	assert.LessOrEqual(t, out.DefaultProbability, 15.0)
	assert.Equal(t, "Low", out.RiskLevel)
	assert.Equal(t, "Very Low", out.RiskCategory)

	assert.Equal(t, 97.5, out.CreditWorthiness.Score)
	assert.True(t, out.CreditWorthiness.IsPrimeBorrower)
	assert.True(t, out.CreditWorthiness.IsCreditWorthy)
	assert.False(t, out.CreditWorthiness.IsHighRisk)

	assert.Equal(t, 20.0, out.Breakdown.Baseline)
	assert.Equal(t, -5.0, out.Breakdown.UtilizationTerm)
	assert.Equal(t, 3.0, out.Breakdown.MixTerm)
	assert.Equal(t, 0.0, out.Breakdown.EconomicAdjustment)
	assert.Equal(t, -5.0, out.Breakdown.Mitigation)
	assert.Equal(t, 75.0, out.Confidence)
	assert.Zero(t, out.DefaultedAccounts)

	assert.True(t, out.StressTest.Passed)
	assert.Equal(t, "Strong", out.StressTest.Rating)
	assert.Len(t, out.StressTest.Steps, 4)

	require.Len(t, out.Sensitivity.Scenarios, 6)
	assert.Equal(t, ScenarioUtilization90, out.Sensitivity.MostSensitive)
	assert.Equal(t, 20.0, out.Sensitivity.MaxDelta)
	for _, s := range out.Sensitivity.Scenarios {
		assert.Greater(t, s.Delta, 0.0, s.Name)
	}
}

func TestAssess_DefaultedAccount(t *testing.T) {
	f := newFixture(t)

	out := f.model.Assess(f.input(defaultedReport()))

	assert.Equal(t, 1, out.DefaultedAccounts)
	assert.GreaterOrEqual(t, out.DefaultProbability, 60.0)
	assert.Equal(t, 87.0, out.DefaultProbability)
	assert.Equal(t, "Very High", out.RiskLevel)
	assert.Equal(t, "Critical", out.RiskCategory)
	assert.Equal(t, 12.0, out.Breakdown.DefaultTerm)
	assert.Equal(t, 12.0, out.Breakdown.RecentDelinquency)
	assert.False(t, out.StressTest.Passed)
	assert.Equal(t, "Failing", out.StressTest.Rating)
	assert.True(t, out.CreditWorthiness.IsSubprimeBorrower)
}

func TestAssess_Bounds(t *testing.T) {
	f := newFixture(t)
	reports := []*models.CreditReport{
		cleanReport(),
		defaultedReport(),
		{},
		{Accounts: []models.Account{{FacilityStatusCode: "WO", OverdueAmount: 1}, {FacilityStatusCode: "LSS"}, {FacilityStatusCode: "DBT"}}},
		{Accounts: []models.Account{{Type: "02", OpenedDate: "1990-01-01", PaymentHistory: strings.Repeat("0", 36)}},
			Employment: []models.Employment{{OccupationCode: "01"}}},
	}

	for i, r := range reports {
		out := f.model.Assess(f.input(r))
		assert.GreaterOrEqual(t, out.DefaultProbability, MinProbability, "report %d", i)
		assert.LessOrEqual(t, out.DefaultProbability, MaxProbability, "report %d", i)
		assert.GreaterOrEqual(t, out.Confidence, 30.0, "report %d", i)
		assert.LessOrEqual(t, out.Confidence, 95.0, "report %d", i)
		assert.GreaterOrEqual(t, out.CreditWorthiness.Score, 0.0, "report %d", i)
		assert.LessOrEqual(t, out.CreditWorthiness.Score, 100.0, "report %d", i)
		for _, s := range out.Sensitivity.Scenarios {
			assert.LessOrEqual(t, s.Probability, MaxProbability)
		}
		assert.LessOrEqual(t, out.StressTest.StressedProbability, MaxProbability)
	}
}

func TestAssess_Deterministic(t *testing.T) {
	f := newFixture(t)

	first := f.model.Assess(f.input(defaultedReport()))
	second := f.model.Assess(f.input(defaultedReport()))

	assert.Equal(t, first, second)
}

func TestAssess_SectionFailureDegrades(t *testing.T) {
	f := newFixture(t)
	broken := NewModel(nil, logger.NewTestLogger(t))

	out := broken.Assess(f.input(cleanReport()))

	assert.Contains(t, out.DegradedSections, SectionSensitivity)
	assert.NotNil(t, out.Sensitivity.Scenarios)
	assert.Equal(t, 13.0, out.DefaultProbability)
	assert.Equal(t, 70.0, out.Confidence)
}

func TestAssess_EconomicStressRaisesProbability(t *testing.T) {
	f := newFixture(t)
	in := f.input(cleanReport())
	base := f.model.Assess(in)

	in.Snapshot = models.EconomicSnapshot{GDPGrowth: -1, Inflation: 9, PolicyRate: 9, Unemployment: 9, MarketSentiment: "negative"}
	stressed := f.model.Assess(in)

	assert.Greater(t, stressed.DefaultProbability, base.DefaultProbability)
	assert.Equal(t, 20.0, stressed.Breakdown.EconomicAdjustment)
}

// ==========================
// Pure functions
// ==========================

func TestEconomicAdjustment(t *testing.T) {
	tests := []struct {
		name   string
		snap   models.EconomicSnapshot
		sector string
		want   float64
	}{
		{"default snapshot", defaultSnapshot(), "services", 0},
		{"recession", models.EconomicSnapshot{
			GDPGrowth: -1, Inflation: 9, PolicyRate: 9, Unemployment: 9, MarketSentiment: "negative",
			SectorPerformance: map[string]float64{"retail": -6},
		}, "retail", 24},
		{"boom", models.EconomicSnapshot{
			GDPGrowth: 8, Inflation: 4, PolicyRate: 3, Unemployment: 3, MarketSentiment: "Positive",
			SectorPerformance: map[string]float64{"technology": 6},
		}, "technology", -6},
		{"low inflation and weak sector", models.EconomicSnapshot{
			GDPGrowth: 5, Inflation: 1.5, PolicyRate: 6, Unemployment: 5,
			SectorPerformance: map[string]float64{"general": -1},
		}, "general", 3},
		{"unknown sector", models.EconomicSnapshot{GDPGrowth: 5, Inflation: 4, PolicyRate: 6, Unemployment: 5}, "mining", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EconomicAdjustment(tt.snap, tt.sector))
		})
	}
}

func TestRiskLevelAndCategory(t *testing.T) {
	tests := []struct {
		p        float64
		level    string
		category string
	}{
		{5, "Very Low", "Minimal"},
		{12, "Low", "Very Low"},
		{17, "Low", "Low"},
		{25, "Medium", "Low-Moderate"},
		{35, "Medium", "Moderate"},
		{45, "High", "Elevated"},
		{55, "High", "High"},
		{65, "Very High", "Very High"},
		{75, "Very High", "Severe"},
		{95, "Very High", "Critical"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, RiskLevel(tt.p), "p=%v", tt.p)
		assert.Equal(t, tt.category, RiskCategory(tt.p), "p=%v", tt.p)
	}
}

func TestLevelRank(t *testing.T) {
	for i, level := range Levels {
		rank, ok := LevelRank(level)
		assert.True(t, ok)
		assert.Equal(t, i, rank)
	}
	high, _ := LevelRank(RiskLevel(45))
	veryHigh, _ := LevelRank(RiskLevel(80))
	assert.Greater(t, veryHigh, high)

	_, ok := LevelRank("Extreme")
	assert.False(t, ok)
}

func TestStressTest(t *testing.T) {
	st := StressTest(40)

	require.Len(t, st.Steps, 4)
	assert.Equal(t, 46.0, st.Steps[0].Probability)
	assert.Equal(t, 50.6, st.Steps[1].Probability)
	assert.InDelta(t, 40*1.15*1.10*1.12*1.05, st.StressedProbability, 0.02)
	assert.True(t, st.Passed)
	assert.Equal(t, "Weak", st.Rating)

	capped := StressTest(90)
	assert.Equal(t, MaxProbability, capped.StressedProbability)
	assert.False(t, capped.Passed)
	assert.Equal(t, "Failing", capped.Rating)
}
