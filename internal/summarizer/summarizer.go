package summarizer

import (
	"context"
)

// PromptInstructions is the fixed prefix of every summary prompt.
const PromptInstructions = "Please provide a comprehensive summary of the following text, " +
	"highlighting key points and main ideas:\n\n"

// Input describes the payload for a summary request.
type Input struct {
	// APIKey authenticates this single call. It is never stored by the summarizer.
	APIKey string
	// Prompt is the complete text sent to the model.
	Prompt string
}

// Summarizer produces a single summary for a given prompt. Failures are
// returned as *domain.Error values carrying a kind.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}

// BuildPrompt wraps extracted text in the summary instructions verbatim.
func BuildPrompt(text string) string {
	return PromptInstructions + text
}
