package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"credit-analysis-workers/internal/analysis/history"
	"credit-analysis-workers/internal/analysis/portfolio"
	"credit-analysis-workers/internal/common/logger"
	"credit-analysis-workers/internal/models"
)

// Calculator scores a report against one validated ScoringModel.
type Calculator struct {
	model  ScoringModel
	logger logger.Logger
}

// Result carries the component scores and the facts they were derived from.
type Result struct {
	Components       models.ComponentScores
	RawScore         float64
	MarketAdjustment int
	OverallScore     float64
	Grade            string

	UtilizationPercent float64
	UtilizationKnown   bool
	CreditAgeMonths    int
	CreditAgeKnown     bool
	DebtToIncome       float64
	IncomeSource       portfolio.IncomeSource
	RecentEnquiries    int
	StableEmployment   bool
	PrimeLender        bool
	Mix                portfolio.Mix

	Degraded bool
}

func NewCalculator(model ScoringModel, log logger.Logger) (*Calculator, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Calculator{
		model:  model,
		logger: log.WithFields(map[string]interface{}{"component": "scoring"}),
	}, nil
}

// Model returns the model the calculator was built with.
func (c *Calculator) Model() ScoringModel {
	return c.model
}

// Calculate scores the report. histories must be index-aligned with report.Accounts. It never
// panics: an internal failure yields the neutral result with Degraded set.
func (c *Calculator) Calculate(report *models.CreditReport, histories []history.History, asOf time.Time) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("component scoring failed, using neutral result", map[string]interface{}{
				"panic": fmt.Sprint(r),
			})
			res = c.Neutral()
		}
	}()

	if report == nil {
		return c.Neutral()
	}

	m := c.model
	accounts := report.Accounts
	totals := portfolio.TotalsOf(accounts)

	res.Components.PaymentHistory = c.PaymentHistoryScore(accounts, histories, asOf)
	res.Components.CreditUtilization, res.UtilizationPercent, res.UtilizationKnown = c.utilizationScore(totals)
	res.Components.CreditAge, res.CreditAgeMonths, res.CreditAgeKnown = c.creditAgeScore(accounts, asOf)
	res.Components.DebtBurden, res.DebtToIncome, res.IncomeSource = c.debtBurdenScore(report, totals)

	res.Mix = portfolio.MixOf(accounts)
	res.Components.CreditMix = c.creditMixScore(res.Mix)

	recent := portfolio.RecentEnquiries(report.Enquiries, asOf)
	res.RecentEnquiries = len(recent)
	res.Components.RecentInquiries = c.inquiryScore(recent)

	w := m.Weights
	res.RawScore = round2(res.Components.PaymentHistory*w.PaymentHistory +
		res.Components.CreditUtilization*w.CreditUtilization +
		res.Components.CreditAge*w.CreditAge +
		res.Components.DebtBurden*w.DebtBurden +
		res.Components.CreditMix*w.CreditMix +
		res.Components.RecentInquiries*w.RecentInquiries)

	res.StableEmployment = portfolio.HasStableEmployment(report.Employment)
	res.PrimeLender = portfolio.HasPrimeLender(accounts, m.PrimeLenders)
	if res.Mix.SecuredAndUnsecured() {
		res.MarketAdjustment += m.MarketMixBonus
	}
	if res.PrimeLender {
		res.MarketAdjustment += m.MarketPrimeLender
	}
	if res.StableEmployment {
		res.MarketAdjustment += m.MarketStableEmployment
	}

	res.OverallScore = round2(clamp(res.RawScore+float64(res.MarketAdjustment), 0, 100))
	res.Grade = m.Grade(res.OverallScore)
	return res
}

// Neutral is the result used when nothing can be scored.
func (c *Calculator) Neutral() Result {
	n := c.model.Neutral
	return Result{
		Components: models.ComponentScores{
			PaymentHistory:    n,
			CreditUtilization: n,
			CreditAge:         n,
			DebtBurden:        n,
			CreditMix:         n,
			RecentInquiries:   n,
		},
		RawScore:     n,
		OverallScore: n,
		Grade:        c.model.NeutralGrade,
		IncomeSource: portfolio.IncomeUnknown,
		Degraded:     true,
	}
}

// AccountPaymentScore is the bureau-scale payment performance of one history, rescaled to 0-100.
// ok is false when the history has no reported months.
func (c *Calculator) AccountPaymentScore(h history.History) (float64, bool) {
	if h.Reported == 0 {
		return 0, false
	}
	m := c.model
	s := m.PaymentBase - h.MissedPercentage*m.MissedPenalty - h.DelayedPercentage*m.DelayedPenalty
	if h.Missed == 0 && h.Delayed == 0 {
		s += m.CleanBonus
	}
	return Rescale(clamp(s, bureauMin, bureauMax)), true
}

// PaymentHistoryScore weights each account's payment score by its age, a full year counting fully.
func (c *Calculator) PaymentHistoryScore(accounts []models.Account, histories []history.History, asOf time.Time) float64 {
	var weighted, totalWeight float64
	for i, h := range histories {
		score, ok := c.AccountPaymentScore(h)
		if !ok {
			continue
		}
		weight := 1.0 / 12
		if i < len(accounts) {
			if age, known := portfolio.AccountAgeMonths(accounts[i], asOf); known {
				weight = math.Max(math.Min(float64(age)/12, 1), 1.0/12)
			}
		}
		weighted += score * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return c.model.Neutral
	}
	return round2(weighted / totalWeight)
}

func (c *Calculator) utilizationScore(t portfolio.Totals) (float64, float64, bool) {
	if t.Limit <= 0 {
		return c.model.Neutral, 0, false
	}
	util := t.LimitedBalance / t.Limit * 100
	return round2(Rescale(lookup(c.model.UtilizationBands, util))), round2(util), true
}

// UtilizationScore scores a utilization percentage directly.
func (c *Calculator) UtilizationScore(utilizationPercent float64) float64 {
	return round2(Rescale(lookup(c.model.UtilizationBands, utilizationPercent)))
}

func (c *Calculator) creditAgeScore(accounts []models.Account, asOf time.Time) (float64, int, bool) {
	months, ok := portfolio.CreditAgeMonths(accounts, asOf)
	if !ok {
		return c.model.Neutral, 0, false
	}
	return lookupMin(c.model.CreditAgeBands, float64(months)), months, true
}

func (c *Calculator) debtBurdenScore(report *models.CreditReport, t portfolio.Totals) (float64, float64, portfolio.IncomeSource) {
	income, source := portfolio.EstimateMonthlyIncome(report.Employment, t.Limit)
	if income > 0 {
		dti := t.MonthlyEMI / income * 100
		return lookup(c.model.DebtToIncomeBands, dti), round2(dti), source
	}
	if t.ExposureLimit > 0 {
		ratio := t.Balance / t.ExposureLimit * 100
		return lookup(c.model.DebtToLimitBands, ratio), 0, source
	}
	return c.model.Neutral, 0, source
}

func (c *Calculator) creditMixScore(mix portfolio.Mix) float64 {
	m := c.model
	score := m.MixBase
	if mix.SecuredAndUnsecured() {
		score += m.MixSecuredUnsecured
	}
	if mix.Revolving && mix.Installment {
		score += m.MixRevolvingInstallment
	}
	if mix.DistinctTypes >= 2 {
		score += m.MixTwoTypes
	}
	if mix.DistinctTypes >= 3 {
		score += m.MixThreeTypes
	}
	return math.Min(score, 100)
}

func (c *Calculator) inquiryScore(recent []models.Enquiry) float64 {
	m := c.model
	score := 100 - float64(len(recent))*m.InquiryPenalty

	perLender := make(map[string]int)
	for _, e := range recent {
		perLender[strings.ToUpper(strings.TrimSpace(e.Lender))]++
	}
	for _, n := range perLender {
		if n >= 2 {
			score -= m.RepeatLenderPenalty
		}
	}
	return math.Max(score, m.InquiryFloor)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
