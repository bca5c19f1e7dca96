// Package ocr extracts text from images. The primary engine is the OCR.space
// HTTP API, with Google Cloud Vision as fallback when it is unreachable or
// errors.
package ocr

import (
	"context"
	"errors"
	"fmt"
)

// Result is the outcome of a text extraction.
type Result struct {
	// Text is the extracted text, filtered when filtering was requested.
	Text string `json:"text"`
	// RawText holds the unfiltered engine output when it differs from Text.
	RawText string `json:"rawText,omitempty"`
	// Confidence is a 0-100 estimate of extraction quality.
	Confidence int `json:"confidence"`
	// WordCount counts whitespace-separated words in Text.
	WordCount int `json:"wordCount"`
	// Engine names the engine that produced the result.
	Engine string `json:"engine"`
}

// Service extracts text from image bytes. Available reports whether the
// engine is configured to take requests at all, so callers can refuse work
// before consulting quotas.
type Service interface {
	ExtractText(ctx context.Context, image []byte, filter bool) (*Result, error)
	Available() bool
}

var (
	// ErrUnavailable means the engine could not be reached or is not
	// configured.
	ErrUnavailable = errors.New("ocr engine unavailable")
	// ErrProcessing means the engine ran but could not read the image.
	ErrProcessing = errors.New("ocr processing failed")
)

// Error wraps engine failures with the operation that produced them.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ocr: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var oe *Error
	if errors.As(err, &oe) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// Chain tries each engine in order and returns the first success.
type Chain struct {
	engines []Service
}

// NewChain builds a fallback chain from the given engines.
func NewChain(engines ...Service) *Chain {
	return &Chain{engines: engines}
}

// Available reports whether any engine in the chain can take requests.
func (c *Chain) Available() bool {
	for _, engine := range c.engines {
		if engine.Available() {
			return true
		}
	}
	return false
}

// ExtractText walks the chain. Only the last engine's error is surfaced when
// all of them fail.
func (c *Chain) ExtractText(ctx context.Context, image []byte, filter bool) (*Result, error) {
	if len(c.engines) == 0 {
		return nil, wrapErr("Chain.ExtractText", ErrUnavailable)
	}
	var lastErr error
	for _, engine := range c.engines {
		result, err := engine.ExtractText(ctx, image, filter)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
