package llm

import (
	"context"
	"encoding/json"
)

// Client is the single boundary to the hosted model. GenerateJSON is used
// for structured outputs (plans, steps, simulated execution); GenerateText
// for whole-file code bodies and free-form answers.
type Client interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
	Close() error
}
