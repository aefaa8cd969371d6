package repository

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrConstraint  = errors.New("constraint violated")
	ErrCapMismatch = errors.New("stored ticket cap differs from configured cap")
)
