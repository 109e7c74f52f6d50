package wer

import (
	"errors"
	"fmt"
)

// ErrEmptyReference is returned when a rate is requested for a reference
// with no tokens. The rate would be a division by zero.
var ErrEmptyReference = errors.New("wer: empty reference")

// ErrEmptyTokens is the sentinel wrapped by EmptyInputError.
var ErrEmptyTokens = errors.New("wer: empty token sequence")

// EmptyInputError reports which side of a comparison had no tokens after
// normalization.
type EmptyInputError struct {
	Side string // "reference" or "hypothesis"
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("wer: %s has no words after normalization", e.Side)
}

func (e *EmptyInputError) Unwrap() error { return ErrEmptyTokens }
