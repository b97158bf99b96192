package ai

import (
	"context"
	"fmt"
)

// Options tune a single generation. Temperature stays low for the weekly
// report so reruns over the same data stay close to each other.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Adapter is the inference boundary. Generate returns the raw model text
// or a *GatewayError; it never panics past this interface. ListModels is
// a connectivity probe for health reporting, off the report critical path.
type Adapter interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// GatewayError covers every gateway failure kind: timeout, non-success
// status and connection refusal all look the same to callers, which only
// need to know the model text is unavailable.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("ai gateway: %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
