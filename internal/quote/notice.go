package quote

import "fmt"

// NoticeKind classifies a non-fatal condition absorbed by the engine.
type NoticeKind string

const (
	// NoticeDataQuality flags a referenced code with no catalog record.
	NoticeDataQuality NoticeKind = "data_quality"
	// NoticePriceOutOfBounds flags a price or discount corrected to a bound.
	NoticePriceOutOfBounds NoticeKind = "price_out_of_bounds"
	// NoticeInvalidNumericInput flags non-numeric or non-positive input
	// replaced by the nearest valid default.
	NoticeInvalidNumericInput NoticeKind = "invalid_numeric_input"
	// NoticeStructuralViolation flags a malformed hierarchy node excluded
	// from aggregation.
	NoticeStructuralViolation NoticeKind = "structural_violation"
)

// Notice is a structured correction report returned beside the corrected
// value. The core never raises for these conditions; the calling layer
// decides how to surface them.
type Notice struct {
	Kind      NoticeKind `json:"kind"`
	Field     string     `json:"field,omitempty"`
	Ref       string     `json:"ref,omitempty"`
	Message   string     `json:"message"`
	Corrected float64    `json:"corrected,omitempty"`
}

// SubmissionError reports one field blocking a status transition out of
// DRAFT. It is fatal to the submit action only; the quotation stays intact.
type SubmissionError struct {
	Field   string `json:"field"`
	Ref     string `json:"ref,omitempty"`
	Message string `json:"message"`
}

func (e SubmissionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates the submission errors for one failed submit.
type ValidationError struct {
	Errors []SubmissionError `json:"errors"`
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	return e.Errors[0].Error()
}
