package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptySelection    = errors.New("select at least one column")
)
