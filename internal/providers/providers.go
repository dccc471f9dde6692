// Package providers defines the provider client contract and the transport
// error taxonomy shared by the retry controller.
package providers

import (
	"context"
	"errors"
	"fmt"
)

// Provider name constants used for task routing and output layout.
const (
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Mistral   = "mistral"
)

// Scorer sends one evaluation request to a provider and returns the raw
// response text.
type Scorer interface {
	Provider() string
	Score(ctx context.Context, prompt, model string) (string, error)
}

// Kind classifies a failed provider call. The retry controller keys its
// policy off this classification.
type Kind int

const (
	// KindOther covers provider errors that are not worth retrying.
	KindOther Kind = iota
	// KindRateLimited is an HTTP 429 equivalent; the call is retried after
	// a backoff wait.
	KindRateLimited
	// KindOverloaded is a transient server failure (5xx or an explicit
	// overloaded signal); retried after a backoff wait.
	KindOverloaded
	// KindQuotaExhausted means the active credential hit its quota or
	// billing limit; triggers credential rotation where available.
	KindQuotaExhausted
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindOverloaded:
		return "overloaded"
	case KindQuotaExhausted:
		return "quota_exhausted"
	default:
		return "other"
	}
}

// TransportError wraps a failed provider call with its classification.
type TransportError struct {
	Provider string
	Model    string
	Kind     Kind
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s call failed for model %s (%s): %v", e.Provider, e.Model, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ClassifyKind returns the transport classification of err, or KindOther
// when err is not a TransportError.
func ClassifyKind(err error) Kind {
	var terr *TransportError
	if errors.As(err, &terr) {
		return terr.Kind
	}
	return KindOther
}
