// Package scoring computes the six component sub-scores, the composite score and the letter grade.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ModelVersion identifies the rule tables in DefaultModel. Any change to a weight, band or bonus
// must bump it so cached analyses are recomputed.
const ModelVersion = "2024.2"

const (
	bureauMin = 300.0
	bureauMax = 850.0
)

// Band maps values up to and including Max to Score.
type Band struct {
	Max   float64
	Score float64
}

// MinBand maps values at or above Min to Score.
type MinBand struct {
	Min   float64
	Score float64
}

// GradeBand assigns Grade to scores at or above Min.
type GradeBand struct {
	Min   float64
	Grade string
}

// Weights are the shares of each component in the overall score. They must sum to 1.
type Weights struct {
	PaymentHistory    float64
	CreditUtilization float64
	CreditAge         float64
	DebtBurden        float64
	CreditMix         float64
	RecentInquiries   float64
}

func (w Weights) sum() float64 {
	return w.PaymentHistory + w.CreditUtilization + w.CreditAge + w.DebtBurden + w.CreditMix + w.RecentInquiries
}

func (w Weights) values() []float64 {
	return []float64{w.PaymentHistory, w.CreditUtilization, w.CreditAge, w.DebtBurden, w.CreditMix, w.RecentInquiries}
}

// ScoringModel is the single table of every weight, band and bonus used by the calculator.
type ScoringModel struct {
	Version string
	Weights Weights

	// Payment history, bureau scale
	PaymentBase    float64
	MissedPenalty  float64
	DelayedPenalty float64
	CleanBonus     float64

	// Utilization bands are on the bureau scale and rescaled to 0-100.
	UtilizationBands  []Band
	CreditAgeBands    []MinBand
	DebtToIncomeBands []Band
	DebtToLimitBands  []Band

	MixBase                 float64
	MixSecuredUnsecured     float64
	MixRevolvingInstallment float64
	MixTwoTypes             float64
	MixThreeTypes           float64

	InquiryPenalty      float64
	RepeatLenderPenalty float64
	InquiryFloor        float64

	MarketMixBonus         int
	MarketPrimeLender      int
	MarketStableEmployment int

	PrimeLenders []string
	Grades       []GradeBand

	Neutral      float64
	NeutralGrade string
}

// DefaultModel is the canonical model. Components and grades use a 0-100 scale.
func DefaultModel() ScoringModel {
	inf := math.Inf(1)
	return ScoringModel{
		Version: ModelVersion,
		Weights: Weights{
			PaymentHistory:    0.35,
			CreditUtilization: 0.30,
			CreditAge:         0.15,
			DebtBurden:        0.10,
			CreditMix:         0.05,
			RecentInquiries:   0.05,
		},
		PaymentBase:    750,
		MissedPenalty:  20,
		DelayedPenalty: 10,
		CleanBonus:     100,
		UtilizationBands: []Band{
			{10, 850}, {20, 800}, {30, 750}, {40, 700}, {50, 650},
			{60, 600}, {70, 550}, {80, 500}, {90, 450}, {inf, 400},
		},
		CreditAgeBands: []MinBand{
			{120, 100}, {84, 90}, {60, 80}, {36, 70}, {24, 60},
			{12, 50}, {6, 45}, {3, 40}, {0, 30},
		},
		DebtToIncomeBands: []Band{
			{20, 100}, {30, 85}, {40, 70}, {50, 55}, {60, 40}, {inf, 25},
		},
		DebtToLimitBands: []Band{
			{30, 85}, {50, 70}, {70, 55}, {90, 40}, {inf, 25},
		},
		MixBase:                 50,
		MixSecuredUnsecured:     15,
		MixRevolvingInstallment: 15,
		MixTwoTypes:             10,
		MixThreeTypes:           10,
		InquiryPenalty:          15,
		RepeatLenderPenalty:     10,
		InquiryFloor:            10,
		MarketMixBonus:          5,
		MarketPrimeLender:       3,
		MarketStableEmployment:  5,
		PrimeLenders:            []string{"STATE BANK", "SBI", "HDFC", "ICICI", "AXIS", "KOTAK"},
		Grades: []GradeBand{
			{90, "A+"}, {80, "A"}, {70, "B+"}, {60, "B"},
			{55, "C+"}, {50, "C"}, {45, "D"}, {0, "F"},
		},
		Neutral:      50,
		NeutralGrade: "C",
	}
}

// ErrInvalidModel is wrapped by every Validate failure.
var ErrInvalidModel = errors.New("invalid scoring model")

// Validate rejects a model whose tables are internally inconsistent.
func (m ScoringModel) Validate() error {
	var problems []string

	if strings.TrimSpace(m.Version) == "" {
		problems = append(problems, "version is empty")
	}
	for _, w := range m.Weights.values() {
		if w < 0 {
			problems = append(problems, "negative weight")
			break
		}
	}
	if math.Abs(m.Weights.sum()-1) > 1e-9 {
		problems = append(problems, fmt.Sprintf("weights sum to %.4f, want 1", m.Weights.sum()))
	}
	if !bandsAscending(m.UtilizationBands) {
		problems = append(problems, "utilization bands are not ascending")
	}
	if !bandsAscending(m.DebtToIncomeBands) {
		problems = append(problems, "debt-to-income bands are not ascending")
	}
	if !bandsAscending(m.DebtToLimitBands) {
		problems = append(problems, "debt-to-limit bands are not ascending")
	}
	if !minBandsDescending(m.CreditAgeBands) {
		problems = append(problems, "credit age bands are not descending")
	}
	if !gradesDescending(m.Grades) {
		problems = append(problems, "grade bands are not descending")
	}
	if m.PaymentBase < bureauMin || m.PaymentBase > bureauMax {
		problems = append(problems, "payment base outside bureau range")
	}
	if m.MissedPenalty < 0 || m.DelayedPenalty < 0 || m.InquiryPenalty < 0 || m.RepeatLenderPenalty < 0 {
		problems = append(problems, "negative penalty")
	}
	if m.Neutral < 0 || m.Neutral > 100 {
		problems = append(problems, "neutral score outside 0-100")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidModel, strings.Join(problems, "; "))
	}
	return nil
}

func bandsAscending(bands []Band) bool {
	if len(bands) == 0 {
		return false
	}
	for i := 1; i < len(bands); i++ {
		if bands[i].Max <= bands[i-1].Max {
			return false
		}
	}
	return math.IsInf(bands[len(bands)-1].Max, 1)
}

func minBandsDescending(bands []MinBand) bool {
	if len(bands) == 0 {
		return false
	}
	for i := 1; i < len(bands); i++ {
		if bands[i].Min >= bands[i-1].Min {
			return false
		}
	}
	return bands[len(bands)-1].Min <= 0
}

func gradesDescending(grades []GradeBand) bool {
	if len(grades) == 0 {
		return false
	}
	for i := 1; i < len(grades); i++ {
		if grades[i].Min >= grades[i-1].Min {
			return false
		}
	}
	return grades[len(grades)-1].Min <= 0
}

// lookup returns the score of the first band whose Max covers v.
func lookup(bands []Band, v float64) float64 {
	for _, b := range bands {
		if v <= b.Max {
			return b.Score
		}
	}
	return bands[len(bands)-1].Score
}

func lookupMin(bands []MinBand, v float64) float64 {
	for _, b := range bands {
		if v >= b.Min {
			return b.Score
		}
	}
	return bands[len(bands)-1].Score
}

// Grade converts a 0-100 score to its letter grade.
func (m ScoringModel) Grade(score float64) string {
	for _, g := range m.Grades {
		if score >= g.Min {
			return g.Grade
		}
	}
	return m.Grades[len(m.Grades)-1].Grade
}

// Rescale maps a bureau-scale value onto 0-100.
func Rescale(s float64) float64 {
	return clamp((s-bureauMin)/(bureauMax-bureauMin)*100, 0, 100)
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
