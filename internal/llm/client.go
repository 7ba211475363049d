// Package llm provides the narrow contract the pipeline requires from an
// LLM provider. Schema validation of structured outputs happens in the
// generator, not here.
package llm

import "context"

// Client defines the interface agents use to call an LLM.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// JSONClient is implemented by providers that can constrain output to
// JSON. CompleteJSON returns the raw JSON text of the completion.
type JSONClient interface {
	Client
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, schema map[string]any) (string, error)
}
