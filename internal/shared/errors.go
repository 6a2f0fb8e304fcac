package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidStatus indicates an illegal quotation status transition.
	ErrInvalidStatus = errors.New("invalid status transition")
	// ErrNotEditable occurs when mutating a quotation that left DRAFT.
	ErrNotEditable = errors.New("quotation is no longer editable")
)
