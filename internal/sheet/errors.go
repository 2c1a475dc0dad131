package sheet

import "errors"

var (
	ErrConflict    = errors.New("row changed since it was read")
	ErrRowNotFound = errors.New("row not found")
	ErrNoHeader    = errors.New("sheet has no header row")
)
