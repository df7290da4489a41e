// Package apperr holds the sentinel errors shared across the tracker.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrPersist      = errors.New("save failed")
	ErrDecode       = errors.New("decode failed")
	ErrCanceled     = errors.New("canceled")
)
