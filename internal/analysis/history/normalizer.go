// Package history turns bureau payment histories into a uniform monthly category sequence.
package history

import (
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"credit-analysis-workers/internal/models"
)

// MaxMonths caps every normalized history at three years.
const MaxMonths = 36

// History is the normalized payment history of one account.
type History struct {
	Records           []models.PaymentRecord `json:"records"`
	OnTime            int                    `json:"onTime"`
	Delayed           int                    `json:"delayed"`
	Missed            int                    `json:"missed"`
	NotReported       int                    `json:"notReported"`
	Reported          int                    `json:"reported"`
	OnTimePercentage  float64                `json:"onTimePercentage"`
	DelayedPercentage float64                `json:"delayedPercentage"`
	MissedPercentage  float64                `json:"missedPercentage"`
	Synthetic         bool                   `json:"synthetic"`
}

// exactCodes is consulted before any numeric interpretation.
var exactCodes = map[string]models.PaymentCategory{
	// multi-character bureau codes
	"000": models.PaymentOnTime, "STD": models.PaymentOnTime, "CUR": models.PaymentOnTime,
	"001": models.PaymentDelayed, "002": models.PaymentDelayed,
	"SMA": models.PaymentDelayed, "SMA0": models.PaymentDelayed, "SMA1": models.PaymentDelayed, "SMA2": models.PaymentDelayed,
	"003": models.PaymentMissed, "004": models.PaymentMissed, "005": models.PaymentMissed, "006": models.PaymentMissed,
	"007": models.PaymentMissed, "008": models.PaymentMissed, "009": models.PaymentMissed,
	"DBT": models.PaymentMissed, "WO": models.PaymentMissed, "WOF": models.PaymentMissed,
	"LSS": models.PaymentMissed, "SUB": models.PaymentMissed, "SUIT": models.PaymentMissed,
	"NA": models.PaymentNotReported, "XXX": models.PaymentNotReported, "ND": models.PaymentNotReported,

	// single-character month codes; digits are 30-day buckets
	"0": models.PaymentOnTime, "S": models.PaymentOnTime, "C": models.PaymentOnTime,
	"1": models.PaymentDelayed, "2": models.PaymentDelayed, "M": models.PaymentDelayed,
	"3": models.PaymentMissed, "4": models.PaymentMissed, "5": models.PaymentMissed, "6": models.PaymentMissed,
	"7": models.PaymentMissed, "8": models.PaymentMissed, "9": models.PaymentMissed,
	"D": models.PaymentMissed, "W": models.PaymentMissed, "L": models.PaymentMissed, "B": models.PaymentMissed,
	"X": models.PaymentNotReported, "-": models.PaymentNotReported, "N": models.PaymentNotReported,
	".": models.PaymentNotReported, "?": models.PaymentNotReported,
}

// Categorize maps one raw status to a payment category.
func Categorize(raw string) models.PaymentCategory {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return models.PaymentNotReported
	}
	if cat, ok := exactCodes[code]; ok {
		return cat
	}
	if dpd, err := strconv.Atoi(code); err == nil {
		return categorizeDaysPastDue(dpd)
	}
	if digits := firstDigitRun(code); digits != "" {
		if dpd, err := strconv.Atoi(digits); err == nil {
			return categorizeDaysPastDue(dpd)
		}
	}
	return models.PaymentNotReported
}

func categorizeDaysPastDue(dpd int) models.PaymentCategory {
	switch {
	case dpd <= 0:
		return models.PaymentOnTime
	case dpd <= 60:
		return models.PaymentDelayed
	default:
		return models.PaymentMissed
	}
}

func firstDigitRun(s string) string {
	start := strings.IndexFunc(s, unicode.IsDigit)
	if start < 0 {
		return ""
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[start:end]
}

// Normalize builds the chronological payment history of an account. It never fails:
// unusable input yields an empty history.
func Normalize(acc models.Account) History {
	var records []models.PaymentRecord
	synthetic := false

	switch {
	case len(acc.PaymentStatusHistory) > 0:
		records = fromStructured(acc.PaymentStatusHistory)
	case strings.TrimSpace(acc.PaymentHistory) != "":
		records = fromStatusString(acc.PaymentHistory, acc.LastReportedDate)
	default:
		records = inferFromBalances(acc)
		synthetic = len(records) > 0
	}

	h := summarize(records)
	h.Synthetic = synthetic
	return h
}

func fromStructured(entries []models.MonthlyStatus) []models.PaymentRecord {
	type dated struct {
		entry models.MonthlyStatus
		key   int
	}
	items := make([]dated, len(entries))
	allDated := true
	for i, e := range entries {
		items[i].entry = e
		if t, ok := ParseDate(e.Date); ok {
			items[i].key = t.Year()*12 + int(t.Month()) - 1
		} else {
			allDated = false
		}
	}
	if allDated {
		sort.SliceStable(items, func(i, j int) bool { return items[i].key < items[j].key })
	}
	if len(items) > MaxMonths {
		items = items[len(items)-MaxMonths:]
	}

	records := make([]models.PaymentRecord, len(items))
	for i, it := range items {
		date := ""
		if t, ok := ParseDate(it.entry.Date); ok {
			date = t.Format(monthLayout)
		}
		records[i] = models.PaymentRecord{
			Period:    i + 1,
			Date:      date,
			RawStatus: it.entry.Status,
			Category:  Categorize(it.entry.Status),
		}
	}
	return records
}

// fromStatusString reads one character per month, newest month first.
func fromStatusString(s, lastReported string) []models.PaymentRecord {
	chars := []rune(strings.TrimRight(s, " "))
	if len(chars) > MaxMonths {
		chars = chars[:MaxMonths]
	}
	newest, hasDate := ParseDate(lastReported)
	if hasDate {
		// month arithmetic from the 29th onward would overflow into the next month
		newest = time.Date(newest.Year(), newest.Month(), 1, 0, 0, 0, 0, time.UTC)
	}

	n := len(chars)
	records := make([]models.PaymentRecord, n)
	for i := 0; i < n; i++ {
		// chars[0] is the newest month; record i is chronological
		offset := n - 1 - i
		raw := string(chars[offset])
		date := ""
		if hasDate {
			date = newest.AddDate(0, -offset, 0).Format(monthLayout)
		}
		records[i] = models.PaymentRecord{
			Period:    i + 1,
			Date:      date,
			RawStatus: raw,
			Category:  Categorize(raw),
		}
	}
	return records
}

func inferFromBalances(acc models.Account) []models.PaymentRecord {
	switch {
	case acc.OverdueAmount > 0:
		return []models.PaymentRecord{{Period: 1, RawStatus: "OVERDUE", Category: models.PaymentMissed}}
	case acc.CurrentBalance > 0:
		return []models.PaymentRecord{{Period: 1, RawStatus: "BALANCE", Category: models.PaymentOnTime}}
	default:
		return nil
	}
}

func summarize(records []models.PaymentRecord) History {
	h := History{Records: records}
	if h.Records == nil {
		h.Records = []models.PaymentRecord{}
	}
	for _, r := range records {
		switch r.Category {
		case models.PaymentOnTime:
			h.OnTime++
		case models.PaymentDelayed:
			h.Delayed++
		case models.PaymentMissed:
			h.Missed++
		default:
			h.NotReported++
		}
	}
	h.Reported = h.OnTime + h.Delayed + h.Missed
	if h.Reported > 0 {
		total := float64(h.Reported)
		h.OnTimePercentage = float64(h.OnTime) / total * 100
		h.DelayedPercentage = float64(h.Delayed) / total * 100
		h.MissedPercentage = float64(h.Missed) / total * 100
	}
	return h
}

// Trailing returns the last n records (fewer when the history is shorter).
func (h History) Trailing(n int) []models.PaymentRecord {
	if n >= len(h.Records) {
		return h.Records
	}
	return h.Records[len(h.Records)-n:]
}

// WithExtraMissed returns a copy of h with one more missed month appended.
func (h History) WithExtraMissed() History {
	records := make([]models.PaymentRecord, 0, len(h.Records)+1)
	records = append(records, h.Records...)
	records = append(records, models.PaymentRecord{
		Period:    len(h.Records) + 1,
		RawStatus: "SCENARIO",
		Category:  models.PaymentMissed,
	})
	if len(records) > MaxMonths {
		records = records[len(records)-MaxMonths:]
		for i := range records {
			records[i].Period = i + 1
		}
	}
	out := summarize(records)
	out.Synthetic = h.Synthetic
	return out
}

// Count returns how many of records fall in category c.
func Count(records []models.PaymentRecord, c models.PaymentCategory) int {
	n := 0
	for _, r := range records {
		if r.Category == c {
			n++
		}
	}
	return n
}
