package history

import (
	"strings"
	"testing"
	"time"

	"credit-analysis-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Categorize
// ==========================

func TestCategorize(t *testing.T) {
	tests := []struct {
		raw  string
		want models.PaymentCategory
	}{
		{"000", models.PaymentOnTime},
		{"std", models.PaymentOnTime},
		{"0", models.PaymentOnTime},
		{"S", models.PaymentOnTime},
		{"001", models.PaymentDelayed},
		{"SMA1", models.PaymentDelayed},
		{"030", models.PaymentDelayed},
		{"60", models.PaymentDelayed},
		{"1", models.PaymentDelayed},
		{"M", models.PaymentDelayed},
		{"090", models.PaymentMissed},
		{"61", models.PaymentMissed},
		{"5", models.PaymentMissed},
		{"WOF", models.PaymentMissed},
		{"D", models.PaymentMissed},
		{"DPD45", models.PaymentDelayed},
		{"DPD120", models.PaymentMissed},
		{"", models.PaymentNotReported},
		{"  ", models.PaymentNotReported},
		{"XXX", models.PaymentNotReported},
		{"X", models.PaymentNotReported},
		{"?", models.PaymentNotReported},
		{"garbage", models.PaymentNotReported},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.raw))
		})
	}
}

// ==========================
// Normalize
// ==========================

func TestNormalize_StatusStringNewestFirst(t *testing.T) {
	acc := models.Account{
		PaymentHistory:   "0X30",
		LastReportedDate: "2024-06-30",
	}

	h := Normalize(acc)

	require.Len(t, h.Records, 4)
	// chronological: oldest first
	assert.Equal(t, "0", h.Records[0].RawStatus)
	assert.Equal(t, "3", h.Records[1].RawStatus)
	assert.Equal(t, "X", h.Records[2].RawStatus)
	assert.Equal(t, "0", h.Records[3].RawStatus)

	assert.Equal(t, "2024-03", h.Records[0].Date)
	assert.Equal(t, "2024-06", h.Records[3].Date)

	assert.Equal(t, 2, h.OnTime)
	assert.Equal(t, 1, h.Missed)
	assert.Equal(t, 1, h.NotReported)
	assert.Equal(t, 3, h.Reported)
	assert.InDelta(t, 66.67, h.OnTimePercentage, 0.01)
	assert.InDelta(t, 33.33, h.MissedPercentage, 0.01)
	assert.False(t, h.Synthetic)

	for i, r := range h.Records {
		assert.Equal(t, i+1, r.Period)
	}
}

func TestNormalize_StatusStringMonthEndDates(t *testing.T) {
	for _, last := range []string{"2024-03-31", "2024-03-30", "2024-03-29", "2024-03-01"} {
		t.Run(last, func(t *testing.T) {
			h := Normalize(models.Account{PaymentHistory: "000000", LastReportedDate: last})

			dates := make([]string, len(h.Records))
			for i, r := range h.Records {
				dates[i] = r.Date
			}
			assert.Equal(t, []string{"2023-10", "2023-11", "2023-12", "2024-01", "2024-02", "2024-03"}, dates)
		})
	}
}

func TestNormalize_StatusStringCappedAtNewest36(t *testing.T) {
	// 36 newest months on time, four older months missed
	acc := models.Account{PaymentHistory: strings.Repeat("0", 36) + "5555"}

	h := Normalize(acc)

	assert.Len(t, h.Records, MaxMonths)
	assert.Equal(t, 36, h.OnTime)
	assert.Zero(t, h.Missed)
	assert.Empty(t, h.Records[0].Date)
}

func TestNormalize_StructuredHistoryWinsAndSorts(t *testing.T) {
	acc := models.Account{
		PaymentHistory: "555555",
		PaymentStatusHistory: []models.MonthlyStatus{
			{Date: "2024-03-01", Status: "090"},
			{Date: "2024-01-01", Status: "000"},
			{Date: "2024-02-01", Status: "030"},
		},
	}

	h := Normalize(acc)

	require.Len(t, h.Records, 3)
	assert.Equal(t, "2024-01", h.Records[0].Date)
	assert.Equal(t, models.PaymentOnTime, h.Records[0].Category)
	assert.Equal(t, models.PaymentDelayed, h.Records[1].Category)
	assert.Equal(t, models.PaymentMissed, h.Records[2].Category)
}

func TestNormalize_StructuredHistoryUndatedKeepsOrder(t *testing.T) {
	acc := models.Account{
		PaymentStatusHistory: []models.MonthlyStatus{
			{Date: "2024-03-01", Status: "090"},
			{Date: "", Status: "000"},
		},
	}

	h := Normalize(acc)

	require.Len(t, h.Records, 2)
	assert.Equal(t, "090", h.Records[0].RawStatus)
	assert.Equal(t, "000", h.Records[1].RawStatus)
}

func TestNormalize_StructuredHistoryKeepsMostRecent36(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	var entries []models.MonthlyStatus
	for i := 0; i < 40; i++ {
		status := "000"
		if i < 4 {
			status = "090"
		}
		entries = append(entries, models.MonthlyStatus{
			Date:   start.AddDate(0, i, 0).Format("2006-01-02"),
			Status: status,
		})
	}

	h := Normalize(models.Account{PaymentStatusHistory: entries})

	assert.Len(t, h.Records, MaxMonths)
	assert.Zero(t, h.Missed)
	assert.Equal(t, "2020-05", h.Records[0].Date)
}

func TestNormalize_InferredFromBalances(t *testing.T) {
	tests := []struct {
		name      string
		acc       models.Account
		wantLen   int
		wantCat   models.PaymentCategory
		synthetic bool
	}{
		{"overdue", models.Account{OverdueAmount: 500, CurrentBalance: 1000}, 1, models.PaymentMissed, true},
		{"balance only", models.Account{CurrentBalance: 1000}, 1, models.PaymentOnTime, true},
		{"nothing", models.Account{}, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Normalize(tt.acc)
			assert.Len(t, h.Records, tt.wantLen)
			assert.Equal(t, tt.synthetic, h.Synthetic)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantCat, h.Records[0].Category)
			}
		})
	}
}

func TestNormalize_EmptyHistoryHasZeroPercentages(t *testing.T) {
	h := Normalize(models.Account{PaymentHistory: "XXXX"})

	assert.Len(t, h.Records, 4)
	assert.Zero(t, h.Reported)
	assert.Zero(t, h.OnTimePercentage)
	assert.Zero(t, h.MissedPercentage)
	assert.NotNil(t, Normalize(models.Account{}).Records)
}

func TestHistory_TrailingAndExtraMissed(t *testing.T) {
	h := Normalize(models.Account{PaymentHistory: "000000"})

	assert.Len(t, h.Trailing(3), 3)
	assert.Len(t, h.Trailing(10), 6)

	worse := h.WithExtraMissed()
	assert.Len(t, worse.Records, 7)
	assert.Equal(t, 1, worse.Missed)
	assert.Zero(t, h.Missed, "original history must not change")
	assert.Equal(t, 1, Count(worse.Trailing(6), models.PaymentMissed))

	full := Normalize(models.Account{PaymentHistory: strings.Repeat("0", 36)})
	capped := full.WithExtraMissed()
	assert.Len(t, capped.Records, MaxMonths)
	assert.Equal(t, 1, capped.Records[0].Period)
}

// ==========================
// Dates
// ==========================

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		year int
	}{
		{"2024-06-15", true, 2024},
		{"2024-06", true, 2024},
		{"15-06-2024", true, 2024},
		{"06/2024", true, 2024},
		{"Jun-2024", true, 2024},
		{"20240615", true, 2024},
		{"1111-11-11", false, 0},
		{"01-01-1111", false, 0},
		{"1850-01-01", false, 0},
		{"0000-00-00", false, 0},
		{"not a date", false, 0},
		{"", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.year, got.Year())
			}
		})
	}
}

func TestMonthsBetween(t *testing.T) {
	from := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 12, MonthsBetween(from, time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 11, MonthsBetween(from, time.Date(2021, 1, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, MonthsBetween(from, from))
	assert.Negative(t, MonthsBetween(from, time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)))
}
