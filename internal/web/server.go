package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"pdfsummarizer/internal/domain"
	"pdfsummarizer/internal/session"
	"pdfsummarizer/internal/summarizer"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	sessionCookieName = "pdfsummarizer_session"
	historyLimit      = 5
)

type Extractor interface {
	Extract(ctx context.Context, fileName string, data []byte) (domain.Document, error)
}

type Journal interface {
	RecordAttempt(ctx context.Context, a domain.Attempt) error
	RecentAttempts(ctx context.Context, sessionID string, limit int) ([]domain.Attempt, error)
}

// Handler serves the summarizer page and its form actions.
type Handler struct {
	sessions       *session.Store
	extractor      Extractor
	summarizer     summarizer.Summarizer
	journal        Journal
	maxUploadBytes int64
	now            func() time.Time
	log            *slog.Logger
}

func New(
	sessions *session.Store,
	extractor Extractor,
	s summarizer.Summarizer,
	journal Journal,
	maxUploadBytes int64,
	log *slog.Logger,
) *Handler {
	return &Handler{
		sessions:       sessions,
		extractor:      extractor,
		summarizer:     s,
		journal:        journal,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
		log:            log,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/", h.index)
	r.Post("/credential", h.setCredential)
	r.Post("/document", h.uploadDocument)
	r.Post("/summary", h.generateSummary)
	r.Get("/summary.txt", h.downloadSummary)
	r.Get("/healthz", h.healthz)

	return r
}

// sessionID returns the caller's session, starting a new one when the
// cookie is missing or stale.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		if _, ok := h.sessions.Get(c.Value); ok {
			return c.Value
		}
	}

	id := h.sessions.Create()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
