package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gradebook/gradebook/pkg/types"
)

// Score limits and the per-subject pass floor.
const (
	MinScore  = 0.0
	MaxScore  = 100.0
	PassFloor = 40.0
)

// Thresholds that map a rounded average to a grade.
const (
	ThresholdAPlus = 90.0
	ThresholdA     = 80.0
	ThresholdB     = 70.0
	ThresholdC     = 60.0
	ThresholdD     = 50.0
)

// InvalidScoresMessage is the user-facing text of every ValidationError.
const InvalidScoresMessage = "Please enter five valid scores (0-100)."

// ValidationError reports an invalid ScoreSet. Index is the position of the
// first offending entry, or -1 when the set has the wrong length.
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string { return InvalidScoresMessage }

// scoreSet carries the length and range rules as validator tags.
type scoreSet struct {
	Values []float64 `validate:"len=5,dive,gte=0,lte=100"`
}

var validate = validator.New()

// Validate reports whether raw holds exactly five present, finite scores in
// [0, 100].
func Validate(raw []*float64) bool {
	_, err := check(raw)
	return err == nil
}

// check returns the dereferenced scores or the first problem found.
func check(raw []*float64) ([]float64, *ValidationError) {
	if len(raw) != types.SubjectCount {
		return nil, &ValidationError{Index: -1, Reason: "want " + strconv.Itoa(types.SubjectCount) + " scores, got " + strconv.Itoa(len(raw))}
	}
	values := make([]float64, len(raw))
	for i, v := range raw {
		switch {
		case v == nil:
			return nil, &ValidationError{Index: i, Reason: "missing"}
		case math.IsNaN(*v) || math.IsInf(*v, 0):
			return nil, &ValidationError{Index: i, Reason: "not a number"}
		}
		values[i] = *v
	}
	if err := validate.Struct(scoreSet{Values: values}); err != nil {
		idx := -1
		for i, v := range values {
			if v < MinScore || v > MaxScore {
				idx = i
				break
			}
		}
		return nil, &ValidationError{Index: idx, Reason: "out of range"}
	}
	return values, nil
}

// GradeFromAverage maps an already-rounded average to its grade band.
func GradeFromAverage(avg float64) types.Grade {
	switch {
	case avg >= ThresholdAPlus:
		return types.GradeAPlus
	case avg >= ThresholdA:
		return types.GradeA
	case avg >= ThresholdB:
		return types.GradeB
	case avg >= ThresholdC:
		return types.GradeC
	case avg >= ThresholdD:
		return types.GradeD
	default:
		return types.GradeF
	}
}

// IsPass reports whether every score reaches PassFloor.
func IsPass(scores []float64) bool {
	for _, v := range scores {
		if v < PassFloor {
			return false
		}
	}
	return true
}

// Round2 rounds x to 2 decimal places, halves away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Calculate validates raw and derives the full result. Invalid input returns a
// *ValidationError and a zero result.
func Calculate(raw []*float64, student string) (types.CalculationResult, error) {
	scores, verr := check(raw)
	if verr != nil {
		return types.CalculationResult{}, verr
	}

	var total float64
	for _, v := range scores {
		total += v
	}
	avg := Round2(total / float64(len(scores)))

	return types.CalculationResult{
		Scores:  scores,
		Total:   total,
		Average: avg,
		Pass:    IsPass(scores),
		Grade:   GradeFromAverage(avg),
		Student: NormalizeName(student),
	}, nil
}

// NormalizeName trims s and returns nil when nothing is left.
func NormalizeName(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ParseField converts one raw form field. Blank or non-numeric input yields
// nil; NaN and infinities are returned as parsed and rejected by Validate.
func ParseField(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseFields applies ParseField to every entry.
func ParseFields(fields []string) []*float64 {
	out := make([]*float64, len(fields))
	for i, f := range fields {
		out[i] = ParseField(f)
	}
	return out
}

// Pointers turns stored scores back into raw input, as when a record is
// loaded into the form.
func Pointers(scores []float64) []*float64 {
	out := make([]*float64, len(scores))
	for i := range scores {
		v := scores[i]
		out[i] = &v
	}
	return out
}
