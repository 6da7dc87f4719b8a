// Package portfolio classifies bureau accounts and derives the report-level facts shared by the
// scoring, risk and pattern passes.
package portfolio

import (
	"strings"
	"time"

	"credit-analysis-workers/internal/analysis/history"
	"credit-analysis-workers/internal/models"
)

// Kind describes the product behind an account.
type Kind struct {
	Category    string
	Secured     bool
	Revolving   bool
	Installment bool
}

// typeCodes covers the bureau account type codes seen in practice.
var typeCodes = map[string]Kind{
	"01": {Category: "auto", Secured: true, Installment: true},
	"02": {Category: "housing", Secured: true, Installment: true},
	"03": {Category: "property", Secured: true, Installment: true},
	"04": {Category: "loan_against_securities", Secured: true, Installment: true},
	"05": {Category: "personal", Installment: true},
	"06": {Category: "consumer", Installment: true},
	"07": {Category: "gold", Secured: true, Installment: true},
	"08": {Category: "education", Installment: true},
	"09": {Category: "professional", Installment: true},
	"10": {Category: "credit_card", Revolving: true},
	"12": {Category: "overdraft", Revolving: true},
	"13": {Category: "two_wheeler", Secured: true, Installment: true},
	"15": {Category: "loan_against_deposit", Secured: true, Installment: true},
	"17": {Category: "commercial_vehicle", Secured: true, Installment: true},
	"31": {Category: "secured_credit_card", Secured: true, Revolving: true},
	"32": {Category: "auto", Secured: true, Installment: true},
	"35": {Category: "credit_card", Revolving: true},
	"36": {Category: "kisan_credit_card", Secured: true, Revolving: true},
	"51": {Category: "business", Installment: true},
	"61": {Category: "business", Secured: true, Installment: true},
	"69": {Category: "personal", Installment: true},
}

// typeKeywords is scanned in order; the first match wins.
var typeKeywords = []struct {
	keyword string
	kind    Kind
}{
	{"SECURED CREDIT CARD", Kind{Category: "secured_credit_card", Secured: true, Revolving: true}},
	{"CREDIT CARD", Kind{Category: "credit_card", Revolving: true}},
	{"OVERDRAFT", Kind{Category: "overdraft", Revolving: true}},
	{"HOUSING", Kind{Category: "housing", Secured: true, Installment: true}},
	{"HOME", Kind{Category: "housing", Secured: true, Installment: true}},
	{"MORTGAGE", Kind{Category: "housing", Secured: true, Installment: true}},
	{"PROPERTY", Kind{Category: "property", Secured: true, Installment: true}},
	{"TWO-WHEELER", Kind{Category: "two_wheeler", Secured: true, Installment: true}},
	{"TWO WHEELER", Kind{Category: "two_wheeler", Secured: true, Installment: true}},
	{"AUTO", Kind{Category: "auto", Secured: true, Installment: true}},
	{"CAR", Kind{Category: "auto", Secured: true, Installment: true}},
	{"VEHICLE", Kind{Category: "auto", Secured: true, Installment: true}},
	{"GOLD", Kind{Category: "gold", Secured: true, Installment: true}},
	{"EDUCATION", Kind{Category: "education", Installment: true}},
	{"BUSINESS", Kind{Category: "business", Installment: true}},
	{"CONSUMER", Kind{Category: "consumer", Installment: true}},
	{"PERSONAL", Kind{Category: "personal", Installment: true}},
}

// Classify maps an account type (code or free-text name) to its Kind. Unknown types are treated
// as unsecured installment credit.
func Classify(acc models.Account) Kind {
	t := strings.ToUpper(strings.TrimSpace(acc.Type))
	if len(t) == 1 && t[0] >= '0' && t[0] <= '9' {
		t = "0" + t
	}
	if k, ok := typeCodes[t]; ok {
		return k
	}
	for _, kw := range typeKeywords {
		if strings.Contains(t, kw.keyword) {
			return kw.kind
		}
	}
	category := "other"
	if t != "" {
		category = strings.ToLower(strings.ReplaceAll(t, " ", "_"))
	}
	return Kind{Category: category, Installment: true}
}

var defaultStatuses = map[string]bool{
	"DEFAULT":        true,
	"WRITTEN OFF":    true,
	"WO":             true,
	"WOF":            true,
	"SUIT FILED":     true,
	"WILFUL DEFAULT": true,
	"SETTLED":        true,
	"DBT":            true,
	"LSS":            true,
	"SUB":            true,
	"DOUBTFUL":       true,
	"LOSS":           true,
}

// IsDefaultStatus reports whether a facility status code marks a default-class account.
func IsDefaultStatus(code string) bool {
	c := strings.ToUpper(strings.TrimSpace(code))
	c = strings.NewReplacer("-", " ", "_", " ").Replace(c)
	c = strings.Join(strings.Fields(c), " ")
	return defaultStatuses[c]
}

// IsDefaulted applies the account-level default rule: a default-class status, or money overdue
// while the latest reported month was missed.
func IsDefaulted(acc models.Account, h history.History) bool {
	if IsDefaultStatus(acc.FacilityStatusCode) {
		return true
	}
	if acc.OverdueAmount <= 0 || len(h.Records) == 0 {
		return false
	}
	return h.Records[len(h.Records)-1].Category == models.PaymentMissed
}

// ShowsDefaultBehaviour is the broader rule behind the defaulter list: a default-class status,
// three or more missed months, or money overdue with any missed month. Every IsDefaulted account
// satisfies it.
func ShowsDefaultBehaviour(acc models.Account, h history.History) bool {
	return IsDefaulted(acc, h) ||
		h.Missed >= 3 ||
		(acc.OverdueAmount > 0 && h.Missed > 0)
}

// IsActive reports whether the account is still open.
func IsActive(acc models.Account) bool {
	return !acc.IsClosed() && !IsDefaultStatus(acc.FacilityStatusCode)
}

// EstimateEMI returns the declared EMI, else a fixed share of the outstanding balance.
func EstimateEMI(acc models.Account) float64 {
	if acc.EMIAmount > 0 {
		return acc.EMIAmount
	}
	if acc.CurrentBalance <= 0 {
		return 0
	}
	if Classify(acc).Revolving {
		return acc.CurrentBalance * 0.05
	}
	return acc.CurrentBalance * 0.03
}

// Mix summarizes which product families a report holds.
type Mix struct {
	Secured       bool
	Unsecured     bool
	Revolving     bool
	Installment   bool
	DistinctTypes int
}

// MixOf inspects every account, open or closed.
func MixOf(accounts []models.Account) Mix {
	var m Mix
	seen := make(map[string]bool)
	for _, acc := range accounts {
		k := Classify(acc)
		if k.Secured {
			m.Secured = true
		} else {
			m.Unsecured = true
		}
		if k.Revolving {
			m.Revolving = true
		}
		if k.Installment {
			m.Installment = true
		}
		seen[k.Category] = true
	}
	m.DistinctTypes = len(seen)
	return m
}

// SecuredAndUnsecured reports a healthy secured/unsecured spread.
func (m Mix) SecuredAndUnsecured() bool {
	return m.Secured && m.Unsecured
}

// OldestOpened returns the earliest usable opened date. Dates after asOf are ignored.
func OldestOpened(accounts []models.Account, asOf time.Time) (time.Time, bool) {
	var oldest time.Time
	found := false
	for _, acc := range accounts {
		t, ok := history.ParseDate(acc.OpenedDate)
		if !ok || t.After(asOf) {
			continue
		}
		if !found || t.Before(oldest) {
			oldest = t
			found = true
		}
	}
	return oldest, found
}

// CreditAgeMonths is the age of the oldest account at asOf.
func CreditAgeMonths(accounts []models.Account, asOf time.Time) (int, bool) {
	oldest, ok := OldestOpened(accounts, asOf)
	if !ok {
		return 0, false
	}
	return history.MonthsBetween(oldest, asOf), true
}

// AccountAgeMonths is the age of one account at asOf.
func AccountAgeMonths(acc models.Account, asOf time.Time) (int, bool) {
	t, ok := history.ParseDate(acc.OpenedDate)
	if !ok || t.After(asOf) {
		return 0, false
	}
	return history.MonthsBetween(t, asOf), true
}

// RecentEnquiries returns the enquiries made in the six months up to asOf. Undated enquiries
// are counted as recent.
func RecentEnquiries(enquiries []models.Enquiry, asOf time.Time) []models.Enquiry {
	cutoff := asOf.AddDate(0, -6, 0)
	var out []models.Enquiry
	for _, e := range enquiries {
		t, ok := history.ParseDate(e.Date)
		if !ok {
			out = append(out, e)
			continue
		}
		if t.After(asOf) || t.Before(cutoff) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Totals holds the summed balances of a report.
type Totals struct {
	Balance         float64
	LimitedBalance  float64
	Limit           float64
	ExposureLimit   float64
	Overdue         float64
	MonthlyEMI      float64
	ActiveAccounts  int
	SecuredActive   int
	LimitedAccounts int
}

// TotalsOf sums balances over open accounts. Limit and LimitedBalance only cover accounts with a
// positive credit limit; ExposureLimit falls back to the sanctioned amount.
func TotalsOf(accounts []models.Account) Totals {
	var t Totals
	for _, acc := range accounts {
		t.Overdue += acc.OverdueAmount
		if acc.IsClosed() {
			continue
		}
		t.ActiveAccounts++
		if Classify(acc).Secured {
			t.SecuredActive++
		}
		t.Balance += acc.CurrentBalance
		t.MonthlyEMI += EstimateEMI(acc)
		if acc.CreditLimit > 0 {
			t.Limit += acc.CreditLimit
			t.LimitedBalance += acc.CurrentBalance
			t.LimitedAccounts++
			t.ExposureLimit += acc.CreditLimit
		} else if acc.SanctionedAmount > 0 {
			t.ExposureLimit += acc.SanctionedAmount
		}
	}
	return t
}
