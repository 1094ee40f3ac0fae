package models

import (
	"errors"
	"fmt"
)

var (
	// ErrExtractionEmpty is the soft "no data available" condition.
	ErrExtractionEmpty   = errors.New("no extractable text")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoInput           = errors.New("no input loaded")

	ErrMissingCredential = errors.New("missing credential")
	ErrSummarizerOff     = errors.New("summarizer disabled")
	ErrMalformedResponse = errors.New("malformed response")
	ErrBadStatus         = errors.New("non-success status")
)

// MissingColumnError reports a tabular upload without a required column.
type MissingColumnError struct {
	Column  string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q (have %v)", e.Column, e.Columns)
}

// SummarizationError wraps every failure of the summarization collaborator.
type SummarizationError struct {
	Provider string
	Err      error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarization failed (%s): %v", e.Provider, e.Err)
}

func (e *SummarizationError) Unwrap() error {
	return e.Err
}

func NewSummarizationError(provider string, err error) error {
	var se *SummarizationError
	if errors.As(err, &se) {
		return err
	}
	return &SummarizationError{Provider: provider, Err: err}
}
