package skinstric

import (
	"encoding/json"
	"errors"
)

// ErrAnalysisFailed wraps every phase two failure.
var ErrAnalysisFailed = errors.New("image analysis failed")

// Result is the outcome of a phase one submission. It never carries a Go
// error to the caller; Error holds a human-readable message on failure.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`

	// Err keeps the underlying cause for logging.
	Err error `json:"-"`
}

// Weight is one category key and the model-assigned weight.
type Weight struct {
	Key    string  `json:"key"`
	Weight float64 `json:"weight"`
}

// Weights keeps the order of the keys as they appeared in the response.
type Weights []Weight

// Demographics holds the per-category distributions returned by phase two.
type Demographics struct {
	Race   Weights `json:"race"`
	Age    Weights `json:"age"`
	Gender Weights `json:"gender"`
}

// PhaseTwoResponse is the phase two response body.
type PhaseTwoResponse struct {
	Message string       `json:"message"`
	Data    Demographics `json:"data"`
}

type phaseOneRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type phaseTwoRequest struct {
	Image string `json:"image"`
}
