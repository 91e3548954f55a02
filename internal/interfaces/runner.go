package interfaces

import "context"

// Runner executes the LLM with an assembled prompt and returns its raw
// free-text output.
type Runner interface {
	Run(ctx context.Context, prompt string) (string, error)
}
