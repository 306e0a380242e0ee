package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"pdfsummarizer/internal/domain"
	"pdfsummarizer/internal/session"
)

const pageTitle = "PDF Document Summarizer"

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type historyRow struct {
	FileName  string
	Outcome   string
	ErrorKind string
	Duration  string
	When      string
	OK        bool
}

type pageView struct {
	Title         string
	HasCredential bool
	Warning       string
	Notice        string
	Document      *domain.Document
	ParseErr      *domain.Error
	CanGenerate   bool
	Result        *domain.SummaryResult
	History       []historyRow
	MaxUploadMB   int64
}

func newPageView(state session.State, attempts []domain.Attempt, maxUploadBytes int64) pageView {
	view := pageView{
		Title:         pageTitle,
		HasCredential: state.HasCredential(),
		Notice:        state.Notice,
		MaxUploadMB:   maxUploadBytes >> 20,
	}

	if !view.HasCredential {
		view.Warning = missingCredentialWarning
		if view.Notice == missingCredentialWarning {
			view.Notice = ""
		}
	} else {
		view.Document = state.Document
		view.ParseErr = state.ParseErr
		view.CanGenerate = state.Document.HasText()
		view.Result = state.Result
	}

	for _, a := range attempts {
		row := historyRow{
			FileName:  a.FileName,
			Outcome:   string(a.Outcome),
			ErrorKind: string(a.ErrorKind),
			Duration:  a.Duration.Round(10 * time.Millisecond).String(),
			When:      a.CreatedAt.UTC().Format("2006-01-02 15:04 UTC"),
			OK:        a.Outcome == domain.OutcomeSuccess,
		}
		view.History = append(view.History, row)
	}

	return view
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, view pageView) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		h.log.ErrorContext(r.Context(), "Failed to render page",
			"error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if _, err := buf.WriteTo(w); err != nil {
		h.log.WarnContext(r.Context(), "Failed to write page",
			"error", err)
	}
}
