package rag

import (
	"errors"
	"fmt"
)

// Kind classifies a failed query.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindRetrieval    Kind = "retrieval"
	KindGeneration   Kind = "generation"
)

// ErrIndexUnavailable is the retrieval failure when no index was built.
var ErrIndexUnavailable = errors.New("index unavailable")

// QueryError is the error type returned by Service.Answer.
type QueryError struct {
	Kind Kind
	Err  error
}

func (e *QueryError) Error() string {
	switch e.Kind {
	case KindInvalidInput:
		return fmt.Sprintf("invalid input: %v", e.Err)
	case KindRetrieval:
		return fmt.Sprintf("retrieval failed: %v", e.Err)
	case KindGeneration:
		return fmt.Sprintf("generation failed: %v", e.Err)
	}
	return e.Err.Error()
}

func (e *QueryError) Unwrap() error { return e.Err }

// KindOf reports the Kind of err, or "" if err is not a QueryError.
func KindOf(err error) Kind {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return ""
}
