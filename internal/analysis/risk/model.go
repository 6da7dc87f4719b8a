// Package risk turns component scores and payment histories into creditworthiness, a default
// probability and its sensitivity and stress projections.
package risk

import (
	"fmt"
	"math"
	"time"

	"credit-analysis-workers/internal/analysis/history"
	"credit-analysis-workers/internal/analysis/portfolio"
	"credit-analysis-workers/internal/analysis/scoring"
	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/models"
)

const (
	MinProbability     = 5.0
	MaxProbability     = 95.0
	maxBaseProbability = 90.0

	// NeutralProbability is reported when the probability itself cannot be computed.
	NeutralProbability = 20.0
	NeutralWorthiness  = 50.0
	minConfidence      = 30.0
	maxConfidence      = 95.0
)

// Section names reported in DegradedSections.
const (
	SectionCreditWorthiness = "creditWorthiness"
	SectionProbability      = "defaultProbability"
	SectionEconomic         = "economicAdjustment"
	SectionSensitivity      = "sensitivity"
	SectionStressTest       = "stressTest"
	SectionConfidence       = "confidence"
)

// Input is everything Assess reads. Histories are index-aligned with Report.Accounts.
type Input struct {
	Report    *models.CreditReport
	Histories []history.History
	Scores    scoring.Result
	Snapshot  models.EconomicSnapshot
	AsOf      time.Time
	// Degraded lists sections already degraded upstream; they lower confidence.
	Degraded []string
}

type Model struct {
	calc   *scoring.Calculator
	logger logger.Logger
}

func NewModel(calc *scoring.Calculator, log logger.Logger) *Model {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Model{
		calc:   calc,
		logger: log.WithFields(map[string]interface{}{"component": "risk"}),
	}
}

// terms are the additive parts of the base probability.
type terms struct {
	payment     float64
	utilization float64
	defaults    float64
	inquiries   float64
	creditAge   float64
	mix         float64
	recent      float64
}

const baseline = 20.0

func (t terms) base() float64 {
	sum := baseline + t.payment + t.utilization + t.defaults + t.inquiries + t.creditAge + t.mix + t.recent
	return clamp(sum, 0, maxBaseProbability)
}

// finalize applies the economic adjustment and mitigation to a base probability.
func finalize(base, economic, mitigation float64) float64 {
	return round2(clamp(base+economic+mitigation, MinProbability, MaxProbability))
}

// Assess runs every risk sub-computation. A failing section falls back to its neutral value and is
// listed in DegradedSections; Assess itself never panics.
func (m *Model) Assess(in Input) models.RiskAssessment {
	out := models.RiskAssessment{
		CreditWorthiness:   neutralWorthiness(),
		DefaultProbability: NeutralProbability,
	}
	var degraded []string

	var accounts []models.Account
	if in.Report != nil {
		accounts = in.Report.Accounts
	}

	defaulted := 0
	m.guard(SectionProbability, &degraded, func() {
		defaulted = countDefaulted(accounts, in.Histories)
	})
	out.DefaultedAccounts = defaulted

	m.guard(SectionCreditWorthiness, &degraded, func() {
		out.CreditWorthiness = m.creditWorthiness(in, defaulted)
	})

	var t terms
	var economic, mitigation float64
	probabilityOK := m.guard(SectionProbability, &degraded, func() {
		t = m.baseTerms(in, defaulted)
		mitigation = m.mitigation(in)
	})
	m.guard(SectionEconomic, &degraded, func() {
		economic = EconomicAdjustment(in.Snapshot, portfolio.SectorOf(employmentOf(in.Report)))
	})

	if probabilityOK {
		base := t.base()
		out.DefaultProbability = finalize(base, economic, mitigation)
		out.Breakdown = models.ProbabilityBreakdown{
			Baseline:           baseline,
			PaymentTerm:        round2(t.payment),
			UtilizationTerm:    t.utilization,
			DefaultTerm:        t.defaults,
			InquiryTerm:        t.inquiries,
			CreditAgeTerm:      t.creditAge,
			MixTerm:            t.mix,
			RecentDelinquency:  t.recent,
			Base:               round2(base),
			EconomicAdjustment: economic,
			Mitigation:         mitigation,
		}
	}

	out.Sensitivity = models.SensitivityAnalysis{BaseProbability: out.DefaultProbability, Scenarios: []models.SensitivityScenario{}}
	if probabilityOK {
		m.guard(SectionSensitivity, &degraded, func() {
			out.Sensitivity = m.sensitivity(in, t, economic, mitigation, out.DefaultProbability)
		})
	} else {
		degraded = appendUnique(degraded, SectionSensitivity)
	}

	out.StressTest = neutralStress(out.DefaultProbability)
	m.guard(SectionStressTest, &degraded, func() {
		out.StressTest = StressTest(out.DefaultProbability)
	})

	out.RiskLevel = RiskLevel(out.DefaultProbability)
	out.RiskCategory = RiskCategory(out.DefaultProbability)

	out.Confidence = minConfidence
	m.guard(SectionConfidence, &degraded, func() {
		out.Confidence = confidence(in, len(degraded)+len(in.Degraded))
	})

	out.DegradedSections = degraded
	return out
}

// guard runs fn, converting a panic into a degraded section.
func (m *Model) guard(section string, degraded *[]string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("risk section failed, using neutral value", map[string]interface{}{
				"section": section,
				"panic":   fmt.Sprint(r),
			})
			*degraded = appendUnique(*degraded, section)
			ok = false
		}
	}()
	fn()
	return true
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func employmentOf(r *models.CreditReport) []models.Employment {
	if r == nil {
		return nil
	}
	return r.Employment
}

func countDefaulted(accounts []models.Account, histories []history.History) int {
	n := 0
	for i, acc := range accounts {
		var h history.History
		if i < len(histories) {
			h = histories[i]
		}
		if portfolio.IsDefaulted(acc, h) {
			n++
		}
	}
	return n
}

// ==========================
// Creditworthiness
// ==========================

var gradeScores = map[string]float64{
	"A+": 100, "A": 90, "B+": 80, "B": 70, "C+": 60, "C": 55, "D": 45, "F": 25,
}

func neutralWorthiness() models.CreditWorthiness {
	return worthinessFlags(NeutralWorthiness)
}

func worthinessFlags(score float64) models.CreditWorthiness {
	return models.CreditWorthiness{
		Score:              score,
		IsPrimeBorrower:    score >= 85,
		IsCreditWorthy:     score >= 65,
		IsSubprimeBorrower: score < 50,
		IsHighRisk:         score < 35,
	}
}

func (m *Model) creditWorthiness(in Input, defaulted int) models.CreditWorthiness {
	s := in.Scores
	gradeScore, ok := gradeScores[s.Grade]
	if !ok {
		gradeScore = NeutralWorthiness
	}
	defaultPenalty := math.Max(10, 100-15*float64(defaulted))

	score := gradeScore*0.25 +
		defaultPenalty*0.20 +
		s.Components.CreditUtilization*0.15 +
		s.Components.PaymentHistory*0.15 +
		s.Components.CreditAge*0.10 +
		s.Components.DebtBurden*0.05 +
		s.Components.CreditMix*0.05 +
		recentBehaviour(in.Histories)*0.05

	if s.StableEmployment {
		score += 3
	}
	if s.PrimeLender {
		score += 2
	}
	if s.Mix.SecuredAndUnsecured() {
		score += 2
	}
	return worthinessFlags(round2(clamp(score, 0, 100)))
}

// recentBehaviour scores the trailing six months of every account; 50 without data.
func recentBehaviour(histories []history.History) float64 {
	reported, missed, delayed := 0, 0, 0
	for _, h := range histories {
		for _, r := range h.Trailing(6) {
			switch r.Category {
			case models.PaymentMissed:
				missed++
				reported++
			case models.PaymentDelayed:
				delayed++
				reported++
			case models.PaymentOnTime:
				reported++
			}
		}
	}
	if reported == 0 {
		return 50
	}
	return clamp(100-20*float64(missed)-10*float64(delayed), 0, 100)
}

// ==========================
// Default probability
// ==========================

func utilizationTerm(known bool, util float64) float64 {
	if !known {
		return 0
	}
	switch {
	case util <= 10:
		return -5
	case util <= 30:
		return 0
	case util <= 50:
		return 5
	case util <= 75:
		return 10
	default:
		return 15
	}
}

func creditAgeTerm(known bool, months int) float64 {
	switch {
	case !known:
		return 5
	case months < 12:
		return 10
	case months < 24:
		return 6
	case months < 36:
		return 3
	default:
		return 0
	}
}

func recentDelinquencyTerm(histories []history.History) float64 {
	missed := 0
	for _, h := range histories {
		missed += history.Count(h.Trailing(6), models.PaymentMissed)
	}
	return math.Min(2*float64(missed), 12)
}

func (m *Model) baseTerms(in Input, defaulted int) terms {
	s := in.Scores
	t := terms{
		payment:     (100 - s.Components.PaymentHistory) * 0.4,
		utilization: utilizationTerm(s.UtilizationKnown, s.UtilizationPercent),
		defaults:    12 * float64(defaulted),
		inquiries:   math.Min(3*float64(s.RecentEnquiries), 15),
		creditAge:   creditAgeTerm(s.CreditAgeKnown, s.CreditAgeMonths),
		recent:      recentDelinquencyTerm(in.Histories),
	}
	if s.Mix.DistinctTypes < 2 {
		t.mix = 3
	}
	return t
}

func (m *Model) mitigation(in Input) float64 {
	var accounts []models.Account
	if in.Report != nil {
		accounts = in.Report.Accounts
	}
	secured := 0
	for _, acc := range accounts {
		if portfolio.IsActive(acc) && portfolio.Classify(acc).Secured {
			secured++
		}
	}
	mitigation := -math.Min(2*float64(secured), 6)

	if in.Scores.CreditAgeKnown {
		switch age := in.Scores.CreditAgeMonths; {
		case age >= 120:
			mitigation -= 5
		case age >= 84:
			mitigation -= 3
		case age >= 60:
			mitigation -= 2
		}
	}
	if in.Scores.StableEmployment {
		mitigation -= 3
	}
	return mitigation
}

// RiskLevel maps a probability to the five-step level.
func RiskLevel(p float64) string {
	switch {
	case p < 10:
		return "Very Low"
	case p < 20:
		return "Low"
	case p < 40:
		return "Medium"
	case p < 60:
		return "High"
	default:
		return "Very High"
	}
}

// Levels lists the risk levels from lowest to highest.
var Levels = []string{"Very Low", "Low", "Medium", "High", "Very High"}

// LevelRank returns the position of level in Levels.
func LevelRank(level string) (int, bool) {
	for i, l := range Levels {
		if l == level {
			return i, true
		}
	}
	return -1, false
}

// RiskCategory maps a probability to the ten-step category.
func RiskCategory(p float64) string {
	switch {
	case p < 10:
		return "Minimal"
	case p < 15:
		return "Very Low"
	case p < 20:
		return "Low"
	case p < 30:
		return "Low-Moderate"
	case p < 40:
		return "Moderate"
	case p < 50:
		return "Elevated"
	case p < 60:
		return "High"
	case p < 70:
		return "Very High"
	case p < 80:
		return "Severe"
	default:
		return "Critical"
	}
}

// ==========================
// Confidence
// ==========================

func confidence(in Input, degradedSections int) float64 {
	c := 50.0
	var accounts []models.Account
	if in.Report != nil {
		accounts = in.Report.Accounts
	}

	switch n := len(accounts); {
	case n >= 5:
		c += 15
	case n >= 3:
		c += 10
	case n >= 1:
		c += 5
	}
	if in.Scores.CreditAgeKnown {
		switch {
		case in.Scores.CreditAgeMonths >= 60:
			c += 10
		case in.Scores.CreditAgeMonths >= 24:
			c += 5
		}
	}
	records := 0
	for _, h := range in.Histories {
		records += h.Reported
	}
	switch {
	case records >= 24:
		c += 10
	case records >= 12:
		c += 5
	}
	if in.Report != nil && len(in.Report.Employment) > 0 {
		c += 5
	}
	if in.Report != nil && len(in.Report.Addresses) > 0 {
		c += 5
	}
	c -= 5 * float64(degradedSections)
	return clamp(c, minConfidence, maxConfidence)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
