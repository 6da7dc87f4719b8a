// Package pattern classifies observed default behaviour as willful or situational.
package pattern

import (
	"strconv"

	"credit-analysis-workers/internal/analysis/history"
	"credit-analysis-workers/internal/analysis/portfolio"
	"credit-analysis-workers/internal/models"
)

const (
	TypeWillful     = "Willful"
	TypeSituational = "Situational"
	TypeMixed       = "Mixed"
	TypeNoPattern   = "No Clear Pattern"

	SeverityCritical = "Critical"
	SeverityHigh     = "High"
	SeverityMedium   = "Medium"
	SeverityLow      = "Low"
	SeverityNone     = "None"
)

const (
	strategicMinBalance   = 100000.0
	simultaneousMinMonths = 3
)

// Classify inspects every account history. histories must be index-aligned with accounts; a
// missing history is treated as empty.
func Classify(accounts []models.Account, histories []history.History) models.DefaultPattern {
	out := models.DefaultPattern{Defaulters: []models.Defaulter{}}

	for i, acc := range accounts {
		h := historyAt(histories, i)

		sig := models.AccountSignals{
			AccountNumber:      acc.AccountNumber,
			Lender:             acc.Lender,
			ConsistentThenStop: consistentThenStop(h.Records),
			Irregular:          irregular(h.Records),
			StrategicDefault:   strategicDefault(acc, h),
			LateOnset:          lateOnset(h.Records),
		}
		if sig.ConsistentThenStop {
			out.WillfulIndicators++
		}
		if sig.StrategicDefault {
			out.WillfulIndicators += 2
		}
		if sig.Irregular {
			out.SituationalIndicators++
		}
		if sig.LateOnset {
			out.SituationalIndicators++
		}
		if sig.ConsistentThenStop || sig.Irregular || sig.StrategicDefault || sig.LateOnset {
			out.Accounts = append(out.Accounts, sig)
		}

		if portfolio.ShowsDefaultBehaviour(acc, h) {
			out.Defaulters = append(out.Defaulters, models.Defaulter{
				Defaulted:     portfolio.IsDefaulted(acc, h),
				AccountNumber: acc.AccountNumber,
				Lender:        acc.Lender,
				Type:          acc.Type,
				MissedMonths:  h.Missed,
				OverdueAmount: acc.OverdueAmount,
				StatusCode:    acc.FacilityStatusCode,
			})
		}
	}

	out.OverlappingMissedMonths = overlappingMissedMonths(accounts, histories)
	if out.OverlappingMissedMonths >= simultaneousMinMonths {
		out.SimultaneousDefault = true
		out.SituationalIndicators += 2
	}

	out.PatternType = patternType(out.WillfulIndicators, out.SituationalIndicators)
	out.Severity = Severity(out.WillfulIndicators, out.SituationalIndicators)
	return out
}

func historyAt(histories []history.History, i int) history.History {
	if i < len(histories) {
		return histories[i]
	}
	return history.History{}
}

func patternType(willful, situational int) string {
	switch {
	case willful > situational+2:
		return TypeWillful
	case situational > willful+2:
		return TypeSituational
	case willful > 0 || situational > 0:
		return TypeMixed
	default:
		return TypeNoPattern
	}
}

// Severity weighs willful indicators double.
func Severity(willful, situational int) string {
	switch score := 2*willful + situational; {
	case score >= 8:
		return SeverityCritical
	case score >= 5:
		return SeverityHigh
	case score >= 3:
		return SeverityMedium
	case score >= 1:
		return SeverityLow
	default:
		return SeverityNone
	}
}

type run struct {
	category models.PaymentCategory
	length   int
}

func runs(records []models.PaymentRecord) []run {
	var out []run
	for _, r := range records {
		if n := len(out); n > 0 && out[n-1].category == r.Category {
			out[n-1].length++
			continue
		}
		out = append(out, run{category: r.Category, length: 1})
	}
	return out
}

// consistentThenStop: at least six on-time months immediately followed by three or more missed.
func consistentThenStop(records []models.PaymentRecord) bool {
	rs := runs(records)
	for i := 0; i+1 < len(rs); i++ {
		if rs[i].category == models.PaymentOnTime && rs[i].length >= 6 &&
			rs[i+1].category == models.PaymentMissed && rs[i+1].length >= 3 {
			return true
		}
	}
	return false
}

func irregular(records []models.PaymentRecord) bool {
	if len(records) < 4 {
		return false
	}
	changes := 0
	for i := 1; i < len(records); i++ {
		if records[i].Category != records[i-1].Category {
			changes++
		}
	}
	return changes*2 > len(records)
}

func strategicDefault(acc models.Account, h history.History) bool {
	if acc.CurrentBalance < strategicMinBalance || acc.OverdueAmount <= acc.CurrentBalance*0.5 {
		return false
	}
	return history.Count(h.Trailing(6), models.PaymentOnTime) < 3
}

func lateOnset(records []models.PaymentRecord) bool {
	if len(records) < 24 {
		return false
	}
	half := len(records) / 2
	return history.Count(records[:half], models.PaymentMissed) == 0 &&
		history.Count(records[half:], models.PaymentMissed) >= 2
}

// overlappingMissedMonths counts months in which two or more accounts missed a payment. Dated
// records align by calendar month, undated ones by distance from their newest record.
func overlappingMissedMonths(accounts []models.Account, histories []history.History) int {
	perMonth := make(map[string]int)
	for i := range accounts {
		records := historyAt(histories, i).Records
		seen := make(map[string]bool)
		for j, r := range records {
			if r.Category != models.PaymentMissed {
				continue
			}
			key := r.Date
			if key == "" {
				key = "offset:" + strconv.Itoa(len(records)-1-j)
			}
			if !seen[key] {
				seen[key] = true
				perMonth[key]++
			}
		}
	}
	overlapping := 0
	for _, n := range perMonth {
		if n >= 2 {
			overlapping++
		}
	}
	return overlapping
}
