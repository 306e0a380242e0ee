package summarizer_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"pdfsummarizer/internal/domain"
	"pdfsummarizer/internal/summarizer"
)

const testModel = "gemini-test"

type recordedRequest struct {
	path          string
	authorization string
	model         string
	content       string
}

type fakeGemini struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)

	var payload struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	_ = json.Unmarshal(raw, &payload)

	rec := recordedRequest{
		path:          r.URL.Path,
		authorization: r.Header.Get("Authorization"),
		model:         payload.Model,
	}
	if len(payload.Messages) > 0 {
		rec.content = payload.Messages[0].Content
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = io.WriteString(w, f.body)
}

func (f *fakeGemini) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]recordedRequest(nil), f.requests...)
}

func completionBody(text string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1735725600,
		"model":   testModel,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message": map[string]any{
				"role":    "assistant",
				"content": text,
			},
		}},
	})

	return string(body)
}

func errorBody(message string) string {
	return `{"error":{"message":"` + message + `","type":"invalid_request_error","code":null}}`
}

func newServer(t *testing.T, status int, body string) (*fakeGemini, *summarizer.GeminiSummarizer) {
	t.Helper()

	fake := &fakeGemini{status: status, body: body}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	return fake, summarizer.NewGeminiSummarizer(srv.URL+"/", testModel, slog.Default())
}

func TestSummarizeSuccess(t *testing.T) {
	fake, s := newServer(t, http.StatusOK, completionBody("This document greets the reader."))

	prompt := summarizer.BuildPrompt("Hello world.")
	summary, err := s.Summarize(context.Background(), summarizer.Input{APIKey: "key-1", Prompt: prompt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary != "This document greets the reader." {
		t.Fatalf("unexpected summary: %q", summary)
	}

	reqs := fake.recorded()
	if len(reqs) != 1 {
		t.Fatalf("expected exactly one request, got %d", len(reqs))
	}

	if reqs[0].path != "/chat/completions" {
		t.Fatalf("unexpected path: %q", reqs[0].path)
	}

	if reqs[0].authorization != "Bearer key-1" {
		t.Fatalf("unexpected authorization header: %q", reqs[0].authorization)
	}

	if reqs[0].model != testModel {
		t.Fatalf("unexpected model: %q", reqs[0].model)
	}

	if reqs[0].content != prompt {
		t.Fatalf("unexpected prompt: %q", reqs[0].content)
	}
}

func TestSummarizeUsesCredentialPerCall(t *testing.T) {
	fake, s := newServer(t, http.StatusOK, completionBody("ok"))

	for _, key := range []string{"first", "second"} {
		if _, err := s.Summarize(context.Background(), summarizer.Input{APIKey: key, Prompt: "p"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	reqs := fake.recorded()
	if len(reqs) != 2 || reqs[0].authorization != "Bearer first" || reqs[1].authorization != "Bearer second" {
		t.Fatalf("expected each call to carry its own key, got %+v", reqs)
	}
}

func TestSummarizeMissingCredentialMakesNoRequest(t *testing.T) {
	fake, s := newServer(t, http.StatusOK, completionBody("unused"))

	_, err := s.Summarize(context.Background(), summarizer.Input{APIKey: "  ", Prompt: "p"})
	if kind := domain.KindOf(err); kind != domain.ErrorKindMissingCredential {
		t.Fatalf("expected missing credential error, got %v", err)
	}

	if n := len(fake.recorded()); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestSummarizeEmptyPrompt(t *testing.T) {
	fake, s := newServer(t, http.StatusOK, completionBody("unused"))

	_, err := s.Summarize(context.Background(), summarizer.Input{APIKey: "key", Prompt: ""})
	if kind := domain.KindOf(err); kind != domain.ErrorKindEmptyText {
		t.Fatalf("expected empty text error, got %v", err)
	}

	if n := len(fake.recorded()); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestSummarizeClassifiesAPIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   domain.ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, errorBody("Incorrect API key provided"), domain.ErrorKindAuthentication},
		{"forbidden", http.StatusForbidden, errorBody("Permission denied"), domain.ErrorKindAuthentication},
		{"bad key as bad request", http.StatusBadRequest, errorBody("API key not valid. Please pass a valid API key."), domain.ErrorKindAuthentication},
		{"quota", http.StatusTooManyRequests, errorBody("Resource has been exhausted"), domain.ErrorKindQuota},
		{"bad request", http.StatusBadRequest, errorBody("Request payload is invalid"), domain.ErrorKindRemote},
		{"server error", http.StatusInternalServerError, errorBody("Internal error"), domain.ErrorKindRemote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, s := newServer(t, tt.status, tt.body)

			_, err := s.Summarize(context.Background(), summarizer.Input{APIKey: "key", Prompt: "p"})
			if kind := domain.KindOf(err); kind != tt.want {
				t.Fatalf("unexpected kind: got %q want %q (err = %v)", kind, tt.want, err)
			}

			if n := len(fake.recorded()); n != 1 {
				t.Fatalf("expected a single attempt without retries, got %d", n)
			}
		})
	}
}

func TestSummarizeAuthenticationMessage(t *testing.T) {
	_, s := newServer(t, http.StatusUnauthorized, errorBody("Incorrect API key provided"))

	_, err := s.Summarize(context.Background(), summarizer.Input{APIKey: "key", Prompt: "p"})

	domainErr := domain.AsError(err)
	if domainErr == nil || strings.TrimSpace(domainErr.Message) == "" {
		t.Fatalf("expected a readable message, got %v", err)
	}
}

func TestSummarizeNoChoices(t *testing.T) {
	_, s := newServer(t, http.StatusOK, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)

	_, err := s.Summarize(context.Background(), summarizer.Input{APIKey: "key", Prompt: "p"})
	if kind := domain.KindOf(err); kind != domain.ErrorKindMalformedResponse {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}

func TestSummarizeKeepsContentVerbatim(t *testing.T) {
	_, s := newServer(t, http.StatusOK, completionBody("Point one.\nPoint two.\n"))

	summary, err := s.Summarize(context.Background(), summarizer.Input{APIKey: "key", Prompt: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary != "Point one.\nPoint two.\n" {
		t.Fatalf("expected summary to be returned verbatim, got %q", summary)
	}
}

func TestSummarizeEmptyContent(t *testing.T) {
	_, s := newServer(t, http.StatusOK, completionBody("   "))

	_, err := s.Summarize(context.Background(), summarizer.Input{APIKey: "key", Prompt: "p"})
	if kind := domain.KindOf(err); kind != domain.ErrorKindMalformedResponse {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}

func TestSummarizeNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/"
	srv.Close()

	s := summarizer.NewGeminiSummarizer(url, testModel, slog.Default())

	_, err := s.Summarize(context.Background(), summarizer.Input{APIKey: "key", Prompt: "p"})
	if kind := domain.KindOf(err); kind != domain.ErrorKindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestSummarizeCanceledContext(t *testing.T) {
	_, s := newServer(t, http.StatusOK, completionBody("unused"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Summarize(ctx, summarizer.Input{APIKey: "key", Prompt: "p"})
	if kind := domain.KindOf(err); kind != domain.ErrorKindCanceled {
		t.Fatalf("expected canceled error, got %v", err)
	}
}

func TestSummarizeIsStable(t *testing.T) {
	_, s := newServer(t, http.StatusOK, completionBody("Same answer."))

	input := summarizer.Input{APIKey: "key", Prompt: summarizer.BuildPrompt("text")}

	first, err := s.Summarize(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := s.Summarize(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Fatalf("expected identical summaries, got %q and %q", first, second)
	}
}
