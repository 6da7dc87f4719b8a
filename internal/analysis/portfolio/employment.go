package portfolio

import (
	"strings"

	"credit-analysis-workers/internal/models"
)

const (
	OccupationSalaried     = "01"
	OccupationProfessional = "02"
	OccupationSelfEmployed = "03"
	OccupationOthers       = "04"
)

// occupationIncome is the assumed monthly income per occupation code when none is declared.
var occupationIncome = map[string]float64{
	OccupationSalaried:     50000,
	OccupationProfessional: 75000,
	OccupationSelfEmployed: 40000,
	OccupationOthers:       25000,
}

func occupationCode(e models.Employment) string {
	c := strings.TrimSpace(e.OccupationCode)
	if len(c) == 1 {
		c = "0" + c
	}
	return c
}

// HasStableEmployment reports a salaried or professional occupation on any employment record.
func HasStableEmployment(employment []models.Employment) bool {
	for _, e := range employment {
		switch occupationCode(e) {
		case OccupationSalaried, OccupationProfessional:
			return true
		}
	}
	return false
}

// IncomeSource names where an income estimate came from.
type IncomeSource string

const (
	IncomeDeclared   IncomeSource = "declared"
	IncomeOccupation IncomeSource = "occupation"
	IncomeLimits     IncomeSource = "limits"
	IncomeUnknown    IncomeSource = "unknown"
)

// EstimateMonthlyIncome prefers a declared income, then the occupation table, then total credit
// limit divided by 2.5.
func EstimateMonthlyIncome(employment []models.Employment, totalLimit float64) (float64, IncomeSource) {
	for _, e := range employment {
		if e.MonthlyIncome > 0 {
			return e.MonthlyIncome, IncomeDeclared
		}
	}
	for _, e := range employment {
		if income, ok := occupationIncome[occupationCode(e)]; ok {
			return income, IncomeOccupation
		}
	}
	if totalLimit > 0 {
		return totalLimit / 2.5, IncomeLimits
	}
	return 0, IncomeUnknown
}

var sectorKeywords = []struct {
	keyword string
	sector  string
}{
	{"BANK", "financial"},
	{"FINANCE", "financial"},
	{"INSURANCE", "financial"},
	{"SOFTWARE", "technology"},
	{"TECH", "technology"},
	{"INFO", "technology"},
	{"SYSTEMS", "technology"},
	{"MOTORS", "manufacturing"},
	{"STEEL", "manufacturing"},
	{"INDUSTRIES", "manufacturing"},
	{"PHARMA", "healthcare"},
	{"HOSPITAL", "healthcare"},
	{"RETAIL", "retail"},
	{"MART", "retail"},
	{"AGRO", "agriculture"},
	{"FARM", "agriculture"},
	{"GOVERNMENT", "government"},
	{"GOVT", "government"},
}

// SectorOf infers the employment sector used to look up sector performance.
func SectorOf(employment []models.Employment) string {
	for _, e := range employment {
		name := strings.ToUpper(e.EmployerName)
		for _, kw := range sectorKeywords {
			if strings.Contains(name, kw.keyword) {
				return kw.sector
			}
		}
	}
	for _, e := range employment {
		switch occupationCode(e) {
		case OccupationSalaried:
			return "services"
		case OccupationProfessional:
			return "professional_services"
		case OccupationSelfEmployed:
			return "retail"
		}
	}
	return "general"
}

// HasPrimeLender reports whether any account is held with a lender on the prime list.
func HasPrimeLender(accounts []models.Account, primeLenders []string) bool {
	for _, acc := range accounts {
		name := strings.ToUpper(acc.Lender)
		if name == "" {
			continue
		}
		for _, p := range primeLenders {
			if p != "" && strings.Contains(name, strings.ToUpper(p)) {
				return true
			}
		}
	}
	return false
}
