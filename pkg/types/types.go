package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SubjectCount is the fixed number of scores in a ScoreSet.
const SubjectCount = 5

// Grade is a letter category derived from a rounded average.
type Grade string

// Letter grades, highest first.
const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// Grades lists every grade from highest to lowest.
var Grades = []Grade{GradeAPlus, GradeA, GradeB, GradeC, GradeD, GradeF}

// CalculationResult is the derived, immutable outcome of one calculation.
type CalculationResult struct {
	Scores  []float64 `json:"scores"`
	Total   float64   `json:"total"`
	Average float64   `json:"average"`
	Pass    bool      `json:"pass"`
	Grade   Grade     `json:"grade"`
	// Student is nil when no name was entered.
	Student *string `json:"student"`
}

// StudentName returns the display name, or "" when absent.
func (r CalculationResult) StudentName() string {
	if r.Student == nil {
		return ""
	}
	return *r.Student
}

// Record is a persisted CalculationResult. ID is the ISO-8601 timestamp of the
// save and doubles as the display timestamp.
type Record struct {
	ID string `json:"id"`
	CalculationResult
}

// ErrSchema is wrapped by Record.UnmarshalJSON when a stored object does not
// have the shape of a Record.
var ErrSchema = errors.New("record schema mismatch")

// UnmarshalJSON decodes a stored record, accepting "avg" in place of
// "average", and rejects objects without an id, five non-null scores or an
// average.
func (r *Record) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID      string     `json:"id"`
		Scores  []*float64 `json:"scores"`
		Total   float64    `json:"total"`
		Average *float64   `json:"average"`
		Avg     *float64   `json:"avg"`
		Pass    bool       `json:"pass"`
		Grade   Grade      `json:"grade"`
		Student *string    `json:"student"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	avg := aux.Average
	if avg == nil {
		avg = aux.Avg
	}
	switch {
	case aux.ID == "":
		return fmt.Errorf("%w: missing id", ErrSchema)
	case len(aux.Scores) != SubjectCount:
		return fmt.Errorf("%w: record %q has %d scores", ErrSchema, aux.ID, len(aux.Scores))
	case avg == nil:
		return fmt.Errorf("%w: record %q has no average", ErrSchema, aux.ID)
	}
	scores := make([]float64, len(aux.Scores))
	for i, v := range aux.Scores {
		if v == nil {
			return fmt.Errorf("%w: record %q score %d is null", ErrSchema, aux.ID, i)
		}
		scores[i] = *v
	}

	*r = Record{
		ID: aux.ID,
		CalculationResult: CalculationResult{
			Scores:  scores,
			Total:   aux.Total,
			Average: *avg,
			Pass:    aux.Pass,
			Grade:   aux.Grade,
			Student: aux.Student,
		},
	}
	return nil
}
