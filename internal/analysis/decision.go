package analysis

import (
	"fmt"

	"credit-analysis-workers/internal/analysis/pattern"
	"credit-analysis-workers/internal/analysis/portfolio"
	"credit-analysis-workers/internal/analysis/scoring"
	"credit-analysis-workers/internal/models"
)

const (
	DecisionApprove           = "Approve"
	DecisionApproveConditions = "Approve With Conditions"
	DecisionManualReview      = "Manual Review"
	DecisionDecline           = "Decline"
)

func summarize(report *models.CreditReport, scores scoring.Result, assessment models.RiskAssessment, p models.DefaultPattern) models.AccountSummary {
	totals := portfolio.TotalsOf(report.Accounts)
	return models.AccountSummary{
		TotalAccounts:      len(report.Accounts),
		ActiveAccounts:     totals.ActiveAccounts,
		SecuredAccounts:    totals.SecuredActive,
		DefaultedAccounts:  assessment.DefaultedAccounts,
		DefaulterAccounts:  len(p.Defaulters),
		TotalBalance:       totals.Balance,
		TotalLimit:         totals.Limit,
		TotalOverdue:       totals.Overdue,
		UtilizationPercent: scores.UtilizationPercent,
		CreditAgeMonths:    scores.CreditAgeMonths,
		RecentEnquiries:    scores.RecentEnquiries,
	}
}

// recommend lists improvement actions in a fixed order.
func recommend(summary models.AccountSummary, scores scoring.Result, assessment models.RiskAssessment) []string {
	var recs []string
	if summary.DefaultedAccounts > 0 {
		recs = append(recs, fmt.Sprintf("Regularize or settle %d defaulted account(s) before applying for new credit", summary.DefaultedAccounts))
	} else if summary.DefaulterAccounts > 0 {
		recs = append(recs, fmt.Sprintf("Bring %d account(s) with missed payments back to on-time repayment", summary.DefaulterAccounts))
	}
	if summary.TotalOverdue > 0 {
		recs = append(recs, fmt.Sprintf("Clear overdue balances totalling %.0f", summary.TotalOverdue))
	}
	if scores.UtilizationKnown && scores.UtilizationPercent > 30 {
		recs = append(recs, fmt.Sprintf("Bring credit utilization below 30%% (currently %.1f%%)", scores.UtilizationPercent))
	}
	if scores.RecentEnquiries >= 3 {
		recs = append(recs, fmt.Sprintf("Pause new credit applications: %d enquiries in the last 6 months", scores.RecentEnquiries))
	}
	if scores.CreditAgeKnown && scores.CreditAgeMonths < 24 {
		recs = append(recs, "Keep the oldest accounts open to lengthen credit history")
	}
	if summary.TotalAccounts > 0 && !scores.Mix.SecuredAndUnsecured() {
		recs = append(recs, "Balance the portfolio with both secured and unsecured credit")
	}
	if !assessment.StressTest.Passed {
		recs = append(recs, "Build repayment buffers: default probability exceeds 75% under combined stress")
	}
	if len(recs) == 0 {
		recs = append(recs, "Maintain current repayment discipline")
	}
	return recs
}

// decide derives a lending decision with a suggested rate premium in percentage points.
func decide(scores scoring.Result, assessment models.RiskAssessment, p models.DefaultPattern) models.LendingDecision {
	pd := assessment.DefaultProbability
	cw := assessment.CreditWorthiness

	switch {
	case pd >= 60 || p.PatternType == pattern.TypeWillful || cw.IsHighRisk:
		var why []string
		if pd >= 60 {
			why = append(why, fmt.Sprintf("default probability %.2f%% is at or above 60%%", pd))
		}
		if p.PatternType == pattern.TypeWillful {
			why = append(why, "payment behaviour indicates willful default")
		}
		if cw.IsHighRisk {
			why = append(why, fmt.Sprintf("creditworthiness score %.2f is in the high-risk band", cw.Score))
		}
		return models.LendingDecision{Decision: DecisionDecline, Rationale: why}

	case pd >= 40 || cw.IsSubprimeBorrower || len(p.Defaulters) > 0:
		var why []string
		if pd >= 40 {
			why = append(why, fmt.Sprintf("default probability %.2f%% is elevated", pd))
		}
		if cw.IsSubprimeBorrower {
			why = append(why, "borrower is subprime")
		}
		if len(p.Defaulters) > 0 {
			why = append(why, fmt.Sprintf("%d account(s) show default behaviour (%s)", len(p.Defaulters), p.PatternType))
		}
		return models.LendingDecision{Decision: DecisionManualReview, RatePremiumPercent: 3.5, Rationale: why}

	case cw.IsCreditWorthy && pd < 20:
		premium := 0.5
		why := []string{fmt.Sprintf("grade %s with default probability %.2f%%", scores.Grade, pd)}
		if cw.IsPrimeBorrower {
			premium = 0
			why = append(why, "prime borrower")
		}
		return models.LendingDecision{Decision: DecisionApprove, RatePremiumPercent: premium, Rationale: why}

	default:
		return models.LendingDecision{
			Decision:           DecisionApproveConditions,
			RatePremiumPercent: 2,
			Rationale: []string{
				fmt.Sprintf("grade %s with default probability %.2f%% (%s)", scores.Grade, pd, assessment.RiskLevel),
			},
		}
	}
}
