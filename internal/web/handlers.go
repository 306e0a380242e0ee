package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"pdfsummarizer/internal/domain"
	"pdfsummarizer/internal/session"
	"pdfsummarizer/internal/summarizer"
)

const (
	missingCredentialWarning = "Please enter your Gemini API key to continue."
	missingTextNotice        = "Upload a PDF with extractable text before generating a summary."
	missingFileNotice        = "Choose a PDF file to upload."
	notPDFNotice             = "Only PDF files are accepted."
	uploadFailedNotice       = "The upload could not be read. Please try again."

	documentFormField   = "document"
	credentialFormField = "api_key"
	summaryFileName     = "summary.txt"
)

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)

	var state session.State
	h.sessions.Update(id, func(st *session.State) {
		state = *st
		st.Notice = ""
	})

	h.render(w, r, newPageView(state, h.recentAttempts(r.Context(), id), h.maxUploadBytes))
}

func (h *Handler) setCredential(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	apiKey := strings.TrimSpace(r.PostFormValue(credentialFormField))

	h.sessions.Update(id, func(st *session.State) {
		st.Credential = apiKey
		st.Notice = ""
	})

	h.log.InfoContext(r.Context(), "Credential is updated",
		"hasCredential", apiKey != "")

	redirectHome(w, r)
}

func (h *Handler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)
	ctx := r.Context()

	state, _ := h.sessions.Get(id)
	if !state.HasCredential() {
		h.notify(id, missingCredentialWarning)
		redirectHome(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile(documentFormField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			h.notify(id, fmt.Sprintf("The file is too large (max %d MB).", h.maxUploadBytes>>20))
		case errors.Is(err, http.ErrMissingFile):
			h.notify(id, missingFileNotice)
		default:
			h.log.WarnContext(ctx, "Failed to read upload form",
				"error", err)
			h.notify(id, uploadFailedNotice)
		}

		redirectHome(w, r)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.log.WarnContext(ctx, "Failed to close uploaded file",
				"error", closeErr)
		}
	}()

	fileName := filepath.Base(header.Filename)
	if !isPDF(fileName, header.Header.Get("Content-Type")) {
		h.notify(id, notPDFNotice)
		redirectHome(w, r)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.WarnContext(ctx, "Failed to read uploaded file",
			"error", err,
			"fileName", fileName)
		h.notify(id, uploadFailedNotice)
		redirectHome(w, r)
		return
	}

	doc, err := h.extractor.Extract(ctx, fileName, data)
	if err != nil {
		parseErr := domain.AsError(err)

		h.log.WarnContext(ctx, "Failed to extract document",
			"error", err,
			"kind", parseErr.Kind,
			"fileName", fileName,
			"sizeBytes", len(data))

		h.sessions.Update(id, func(st *session.State) {
			st.Document = nil
			st.ParseErr = parseErr
			st.Result = nil
			st.Notice = ""
		})

		redirectHome(w, r)
		return
	}

	h.log.InfoContext(ctx, "Document is uploaded",
		"fileName", fileName,
		"sizeBytes", len(data),
		"pageCount", doc.PageCount,
		"textChars", len(doc.Text))

	h.sessions.Update(id, func(st *session.State) {
		st.Document = &doc
		st.ParseErr = nil
		st.Result = nil
		st.Notice = ""
	})

	redirectHome(w, r)
}

func (h *Handler) generateSummary(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)
	ctx := r.Context()

	state, _ := h.sessions.Get(id)

	switch {
	case !state.HasCredential():
		h.notify(id, missingCredentialWarning)
		redirectHome(w, r)
		return
	case !state.Document.HasText():
		h.notify(id, missingTextNotice)
		redirectHome(w, r)
		return
	}

	doc := state.Document
	start := h.now()

	summary, err := h.summarizer.Summarize(ctx, summarizer.Input{
		APIKey: state.Credential,
		Prompt: summarizer.BuildPrompt(doc.Text),
	})

	finished := h.now()

	var result domain.SummaryResult
	if err != nil {
		result = domain.Failed(domain.AsError(err), finished)

		h.log.WarnContext(ctx, "Failed to generate summary",
			"error", err,
			"kind", result.Err.Kind,
			"fileName", doc.FileName)
	} else {
		result = domain.Succeeded(summary, finished)

		h.log.InfoContext(ctx, "Summary is generated",
			"fileName", doc.FileName,
			"summaryChars", len(summary),
			"durationMs", finished.Sub(start).Milliseconds())
	}

	h.sessions.Update(id, func(st *session.State) {
		// A newer upload replaced the document while the call was running.
		if st.Document != doc {
			return
		}

		st.Result = &result
		st.Notice = ""
	})

	h.recordAttempt(ctx, id, doc, result, finished.Sub(start))

	redirectHome(w, r)
}

func (h *Handler) downloadSummary(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)

	state, _ := h.sessions.Get(id)
	if state.Result == nil || !state.Result.OK() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": summaryFileName,
	}))

	if _, err := io.WriteString(w, state.Result.Summary); err != nil {
		h.log.WarnContext(r.Context(), "Failed to write summary download",
			"error", err)
	}
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (h *Handler) notify(id string, notice string) {
	h.sessions.Update(id, func(st *session.State) {
		st.Notice = notice
	})
}

func (h *Handler) recordAttempt(
	ctx context.Context,
	sessionID string,
	doc *domain.Document,
	result domain.SummaryResult,
	elapsed time.Duration,
) {
	if h.journal == nil {
		return
	}

	attempt := domain.Attempt{
		SessionID: sessionID,
		FileName:  doc.FileName,
		PageCount: doc.PageCount,
		TextChars: len(doc.Text),
		Outcome:   domain.OutcomeSuccess,
		Duration:  elapsed,
		CreatedAt: result.GeneratedAt,
	}

	if !result.OK() {
		attempt.Outcome = domain.OutcomeFailure
		attempt.ErrorKind = result.Err.Kind
	}

	// The request context may already be canceled by the time we get here.
	if err := h.journal.RecordAttempt(context.WithoutCancel(ctx), attempt); err != nil {
		h.log.ErrorContext(ctx, "Failed to record attempt",
			"error", err,
			"outcome", attempt.Outcome)
	}
}

func (h *Handler) recentAttempts(ctx context.Context, sessionID string) []domain.Attempt {
	if h.journal == nil {
		return nil
	}

	attempts, err := h.journal.RecentAttempts(ctx, sessionID, historyLimit)
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to load recent attempts",
			"error", err)

		return nil
	}

	return attempts
}

func isPDF(fileName string, contentType string) bool {
	if strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return true
	}

	mediaType, _, err := mime.ParseMediaType(contentType)

	return err == nil && mediaType == "application/pdf"
}
