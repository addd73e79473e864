package service

import "errors"

// Failure kinds surfaced to the initiating action. Callers wrap them with
// context and test with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrExtraction    = errors.New("extraction failed")
	ErrPersistence   = errors.New("persistence failed")
	ErrConfiguration = errors.New("configuration missing")
	ErrNotFound      = errors.New("agreement not found")
)
