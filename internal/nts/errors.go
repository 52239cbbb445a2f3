package nts

import (
	"errors"
	"fmt"
)

// Sentinel errors for page parsing.
var (
	ErrMissingElement = errors.New("nts: required element not found")
	ErrInvalidDate    = errors.New("nts: invalid date")
	ErrUnknownURL     = errors.New("nts: not a show or episode URL")
)

// ParseError reports which part of an episode page could not be parsed.
type ParseError struct {
	Field string // "title", "date", "secondary link", ...
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("nts parse %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when the episode listing API answers with a body
// that is not valid JSON.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("nts decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func missing(field, selector string) error {
	return &ParseError{Field: field, Err: fmt.Errorf("%w: %s", ErrMissingElement, selector)}
}
