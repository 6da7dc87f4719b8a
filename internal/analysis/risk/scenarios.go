package risk

import (
	"math"

	"credit-analysis-workers/internal/analysis/history"
	"credit-analysis-workers/internal/models"
)

// Scenario names, in reporting order.
const (
	ScenarioEconomicDownturn = "economic_downturn"
	ScenarioRateHike         = "rate_hike"
	ScenarioIncomeReduction  = "income_reduction"
	ScenarioJobLoss          = "job_loss"
	ScenarioUtilization90    = "utilization_90"
	ScenarioAdditionalMissed = "additional_missed_payment"
)

var multiplierScenarios = []struct {
	name       string
	multiplier float64
}{
	{ScenarioEconomicDownturn, 1.35},
	{ScenarioRateHike, 1.25},
	{ScenarioIncomeReduction, 1.4},
	{ScenarioJobLoss, 1.6},
}

func (m *Model) sensitivity(in Input, t terms, economic, mitigation, base float64) models.SensitivityAnalysis {
	out := models.SensitivityAnalysis{BaseProbability: base}

	add := func(name string, p float64) {
		p = round2(math.Min(p, MaxProbability))
		out.Scenarios = append(out.Scenarios, models.SensitivityScenario{
			Name:        name,
			Probability: p,
			Delta:       round2(p - base),
		})
	}

	for _, s := range multiplierScenarios {
		add(s.name, base*s.multiplier)
	}

	util := t
	util.utilization = 15
	add(ScenarioUtilization90, finalize(util.base(), economic, mitigation))

	missed := t
	missed.payment = (100 - m.paymentWithExtraMissed(in)) * 0.4
	missed.recent = math.Min(t.recent+2, 12)
	add(ScenarioAdditionalMissed, finalize(missed.base(), economic, mitigation))

	for _, s := range out.Scenarios {
		if s.Delta > out.MaxDelta || out.MostSensitive == "" {
			out.MostSensitive = s.Name
			out.MaxDelta = s.Delta
		}
	}
	return out
}

// paymentWithExtraMissed rescores payment history as if every account had missed one more month.
// Reports without any history get a single missed month on a synthetic account.
func (m *Model) paymentWithExtraMissed(in Input) float64 {
	var accounts []models.Account
	if in.Report != nil {
		accounts = in.Report.Accounts
	}
	if len(in.Histories) == 0 {
		return m.calc.PaymentHistoryScore(nil, []history.History{history.History{}.WithExtraMissed()}, in.AsOf)
	}
	worse := make([]history.History, len(in.Histories))
	for i, h := range in.Histories {
		worse[i] = h.WithExtraMissed()
	}
	return m.calc.PaymentHistoryScore(accounts, worse, in.AsOf)
}

var stressShocks = []struct {
	shock      string
	multiplier float64
}{
	{"economic_downturn", 1.15},
	{"rate_hike", 1.10},
	{"income_shock", 1.12},
	{"volatility", 1.05},
}

// StressTest compounds the fixed shocks onto a base probability.
func StressTest(base float64) models.StressTest {
	out := models.StressTest{BaseProbability: base}
	p := base
	for _, s := range stressShocks {
		p = round2(math.Min(p*s.multiplier, MaxProbability))
		out.Steps = append(out.Steps, models.StressStep{
			Shock:       s.shock,
			Multiplier:  s.multiplier,
			Probability: p,
		})
	}
	out.StressedProbability = p
	out.Passed = p <= 75
	out.Rating = stressRating(p)
	return out
}

func neutralStress(base float64) models.StressTest {
	return models.StressTest{
		BaseProbability:     base,
		StressedProbability: base,
		Steps:               []models.StressStep{},
		Passed:              base <= 75,
		Rating:              stressRating(base),
	}
}

func stressRating(p float64) string {
	switch {
	case p <= 30:
		return "Strong"
	case p <= 50:
		return "Adequate"
	case p <= 75:
		return "Weak"
	default:
		return "Failing"
	}
}
