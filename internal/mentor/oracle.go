package mentor

import (
	"context"
	"errors"
	"fmt"

	"goalmentor/internal/llm"
)

// Oracle is the interface the engines require from the text-generation
// service. This decouples the mentor logic from the llm client.
type Oracle interface {
	// GenerateJSON sends a prompt and expects a JSON response that
	// unmarshals into 'target'.
	GenerateJSON(ctx context.Context, prompt string, target interface{}) error
}

// LLMOracle adapts the llm.Client to the Oracle interface and maps boundary
// errors onto the mentor taxonomy.
type LLMOracle struct {
	Client *llm.Client
}

// NewLLMOracle creates an adapter around the given client.
func NewLLMOracle(client *llm.Client) *LLMOracle {
	return &LLMOracle{Client: client}
}

func (o *LLMOracle) GenerateJSON(ctx context.Context, prompt string, target interface{}) error {
	err := o.Client.GenerateJSON(ctx, prompt, target)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, llm.ErrMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	default:
		return fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
}

// OracleFunc adapts a plain function to the Oracle interface; used by tests
// and as a placeholder when no endpoint is configured.
type OracleFunc func(ctx context.Context, prompt string, target interface{}) error

func (f OracleFunc) GenerateJSON(ctx context.Context, prompt string, target interface{}) error {
	if f == nil {
		return fmt.Errorf("%w: oracle not configured", ErrOracleUnavailable)
	}
	return f(ctx, prompt, target)
}
