package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"pdfsummarizer/internal/domain"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GeminiSummarizer talks to Gemini through its OpenAI-compatible endpoint.
type GeminiSummarizer struct {
	baseURL string
	model   string
	log     *slog.Logger
}

func NewGeminiSummarizer(baseURL string, model string, log *slog.Logger) *GeminiSummarizer {
	return &GeminiSummarizer{
		baseURL: strings.TrimSpace(baseURL),
		model:   strings.TrimSpace(model),
		log:     log,
	}
}

func (s *GeminiSummarizer) Model() string {
	return s.model
}

// Summarize issues exactly one completion request and returns the model's
// text unmodified. The client is built per call so that each session's key
// stays with its own requests.
func (s *GeminiSummarizer) Summarize(
	ctx context.Context,
	input Input,
) (string, error) {
	apiKey := strings.TrimSpace(input.APIKey)
	if apiKey == "" {
		return "", domain.NewError(domain.ErrorKindMissingCredential, "API key is not set", nil)
	}

	if strings.TrimSpace(input.Prompt) == "" {
		return "", domain.NewError(domain.ErrorKindEmptyText, "prompt is empty", nil)
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(s.baseURL),
		option.WithMaxRetries(0),
	)

	start := time.Now()

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(input.Prompt),
		},
	})
	if err != nil {
		classified := classifyError(ctx, err)

		s.log.WarnContext(ctx, "Summary request is failed",
			"error", err,
			"kind", classified.Kind,
			"model", s.model,
			"elapsedMs", time.Since(start).Milliseconds())

		return "", classified
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewError(domain.ErrorKindMalformedResponse, "response has no choices", nil)
	}

	summary := resp.Choices[0].Message.Content
	if strings.TrimSpace(summary) == "" {
		return "", domain.NewError(
			domain.ErrorKindMalformedResponse,
			fmt.Sprintf("response text is missing (finish reason = %s)", resp.Choices[0].FinishReason),
			nil,
		)
	}

	s.log.DebugContext(ctx, "Summary is generated",
		"model", s.model,
		"promptChars", len(input.Prompt),
		"summaryChars", len(summary),
		"elapsedMs", time.Since(start).Milliseconds())

	return summary, nil
}

func classifyError(ctx context.Context, err error) *domain.Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return domain.NewError(domain.ErrorKindCanceled, "request is canceled or timed out", err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		message := strings.TrimSpace(apiErr.Message)
		if message == "" {
			message = http.StatusText(apiErr.StatusCode)
		}

		switch {
		case apiErr.StatusCode == http.StatusUnauthorized,
			apiErr.StatusCode == http.StatusForbidden,
			apiErr.StatusCode == http.StatusBadRequest && mentionsAPIKey(apiErr.Error()):
			return domain.NewError(domain.ErrorKindAuthentication, message, err)
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return domain.NewError(domain.ErrorKindQuota, message, err)
		default:
			return domain.NewError(domain.ErrorKindRemote, message, err)
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return domain.NewError(domain.ErrorKindMalformedResponse, "response cannot be decoded", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.NewError(domain.ErrorKindNetwork, "endpoint is unreachable", err)
	}

	return domain.NewError(domain.ErrorKindRemote, err.Error(), err)
}

func mentionsAPIKey(s string) bool {
	s = strings.ToLower(s)

	return strings.Contains(s, "api key") || strings.Contains(s, "api_key")
}
