// Package scoring aggregates judge scores into final scores and leaderboards.
//
// Every function here is pure: results depend only on the arguments, so
// callers may run any number of them concurrently.
package scoring

import (
	"math"
	"sort"
	"strconv"
)

// Scale limits for the components of a judge total.
const (
	MaxMark       = 10.0 // per-asana mark ceiling
	MaxDifficulty = 8.0  // D-judge component ceiling
	MaxTechnical  = 2.0  // T-judge component ceiling
	MaxJudgeTotal = MaxDifficulty + MaxTechnical

	// dropThreshold is the judge count from which the highest and lowest
	// totals are discarded.
	dropThreshold = 3
)

// Aggregate is the outcome of combining one athlete's judge totals.
type Aggregate struct {
	FinalScore     float64
	Judges         int
	DroppedHighest bool
	DroppedLowest  bool
}

// ComputeFinalScore combines judge totals into a final score.
//
// Zero totals yield 0 and one or two are summed. From three upward exactly one
// lowest and one highest value are removed before summing, even when the
// extreme value is shared by several judges.
func ComputeFinalScore(judgeTotals []float64) (float64, error) {
	agg, err := Combine(judgeTotals)
	if err != nil {
		return 0, err
	}
	return agg.FinalScore, nil
}

// Combine is ComputeFinalScore that also reports which extremes were dropped.
func Combine(judgeTotals []float64) (Aggregate, error) {
	for i, v := range judgeTotals {
		if err := checkRange("judge_total["+strconv.Itoa(i)+"]", v, MaxJudgeTotal); err != nil {
			return Aggregate{}, err
		}
	}

	// Summing in sorted order makes the result independent of input order,
	// down to the last bit.
	sorted := make([]float64, len(judgeTotals))
	copy(sorted, judgeTotals)
	sort.Float64s(sorted)

	agg := Aggregate{Judges: len(sorted)}
	if len(sorted) >= dropThreshold {
		sorted = sorted[1 : len(sorted)-1]
		agg.DroppedHighest = true
		agg.DroppedLowest = true
	}
	for _, v := range sorted {
		agg.FinalScore += v
	}
	return agg, nil
}

// ComputeDifficultyComponent normalizes a D-judge's asana marks to the
// 8-point difficulty scale. The divisor is the number of marks given, not the
// event's configured asana count, so a partially scored routine still maps
// onto the full scale.
func ComputeDifficultyComponent(asanaMarks []float64) (float64, error) {
	if len(asanaMarks) == 0 {
		return 0, nil
	}
	var sum float64
	for i, m := range asanaMarks {
		if err := checkRange("mark["+strconv.Itoa(i)+"]", m, MaxMark); err != nil {
			return 0, err
		}
		sum += m
	}
	return sum / (float64(len(asanaMarks)) * MaxMark) * MaxDifficulty, nil
}

// JudgeTotal validates a judge's components and returns their sum.
// At least one component must be present.
func JudgeTotal(difficulty, technical *float64) (float64, error) {
	if difficulty == nil && technical == nil {
		return 0, invalid("judge_total", "at least one component is required")
	}
	var total float64
	if difficulty != nil {
		if err := checkRange("difficulty", *difficulty, MaxDifficulty); err != nil {
			return 0, err
		}
		total += *difficulty
	}
	if technical != nil {
		if err := checkRange("technical", *technical, MaxTechnical); err != nil {
			return 0, err
		}
		total += *technical
	}
	return total, nil
}

// Round1 rounds v to one decimal place for presentation only.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Display formats v with one decimal place.
func Display(v float64) string {
	return strconv.FormatFloat(Round1(v), 'f', 1, 64)
}

func checkRange(field string, v, upper float64) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return invalid(field, "must be a finite number")
	case v < 0 || v > upper:
		return invalid(field, "%g outside [0, %g]", v, upper)
	}
	return nil
}
