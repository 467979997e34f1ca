package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gradebook/gradebook/internal/scoring"
	"github.com/gradebook/gradebook/pkg/types"
)

// Views the client should show after a command, as the browser did by
// switching panels.
const (
	ViewCalculator = "calculator"
	ViewRecords    = "records"
)

// ScoreValue is one raw score field. A nil Value means the field is missing
// or not a number.
type ScoreValue struct {
	Value *float64
}

// UnmarshalJSON accepts a number, a numeric string, an empty string or null.
func (s *ScoreValue) UnmarshalJSON(data []byte) error {
	s.Value = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case 'n':
		return nil
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s.Value = scoring.ParseField(str)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		// Out-of-range literals such as 1e400 parse to ±Inf, which
		// validation then rejects like any other non-score.
		v, err := strconv.ParseFloat(string(data), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil
		}
		s.Value = &v
		return nil
	default:
		// true/false/objects/arrays are not scores; treat as missing.
		return nil
	}
}

// ScoresRequest is the body of POST /api/v1/calculate and POST /api/v1/records.
type ScoresRequest struct {
	Scores  []ScoreValue `json:"scores"`
	Student string       `json:"student"`
}

func (r ScoresRequest) raw() []*float64 {
	out := make([]*float64, len(r.Scores))
	for i, s := range r.Scores {
		out[i] = s.Value
	}
	return out
}

// ResultResponse is the payload for POST /api/v1/calculate.
type ResultResponse struct {
	Result types.CalculationResult `json:"result"`
}

// RecordsResponse is the payload for GET /api/v1/records and for delete.
type RecordsResponse struct {
	Count   int            `json:"count"`
	Latest  *types.Record  `json:"latest"`
	Records []types.Record `json:"records"` // newest first
}

// SaveResponse is the payload for POST /api/v1/records.
type SaveResponse struct {
	Message string          `json:"message"`
	View    string          `json:"view"`
	Record  types.Record    `json:"record"`
	Records RecordsResponse `json:"records"`
}

// FormResponse is the calculator input restored from a record.
type FormResponse struct {
	Scores  []float64 `json:"scores"`
	Student string    `json:"student"`
}

// LoadResponse is the payload for POST /api/v1/records/{id}/load. A stored
// record that fails validation comes back with status 422, the form filled,
// no result and Error set.
type LoadResponse struct {
	View   string                   `json:"view"`
	Form   FormResponse             `json:"form"`
	Result *types.CalculationResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Records int    `json:"records"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
