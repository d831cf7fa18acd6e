// Package api exposes the release-notes assistant over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/kalambet/relbot/internal/assistant"
	"github.com/kalambet/relbot/internal/escalation"
	"github.com/kalambet/relbot/internal/logging"
	"github.com/kalambet/relbot/internal/search"
	"github.com/kalambet/relbot/internal/session"
)

const maxRequestBodySize = 1 << 20 // 1MB

// DefaultRequestTimeout bounds a request end to end. It covers one model
// call and one webhook call at their default timeouts.
const DefaultRequestTimeout = 2 * time.Minute

// datasetErrorMessage is shown when the release notes cannot be read.
const datasetErrorMessage = "No se pudieron cargar las notas de lanzamiento."

// Assistant is the service behind the HTTP and MCP surfaces.
type Assistant interface {
	Ask(ctx context.Context, question string) (assistant.AskResult, error)
	Contact(ctx context.Context, pending escalation.PendingContact, form escalation.ContactForm) (assistant.ContactResult, error)
	Search(query string) (search.Result, error)
}

// Deps holds what the HTTP handler needs.
type Deps struct {
	Assistant      Assistant
	Sessions       *session.Manager
	Logger         zerolog.Logger
	RequestTimeout time.Duration
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer          string `json:"answer"`
	RequiresContact bool   `json:"requires_contact"`
}

type contactResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// NewHandler returns the HTTP API: the landing page, /ask, /contact and
// /health.
func NewHandler(deps Deps) http.Handler {
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/", handleIndex)
	r.Handle("/static/*", staticHandler())
	r.Get("/health", handleHealth)
	r.Post("/ask", handleAsk(deps))
	r.Post("/contact", handleContact(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleAsk(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := decodeBody[askRequest](w, r)

		res, err := deps.Assistant.Ask(r.Context(), req.Question)
		switch {
		case errors.Is(err, assistant.ErrEmptyQuestion):
			httpError(w, http.StatusBadRequest, "%s", err.Error())
			return
		case err != nil:
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("ask failed")
			httpError(w, http.StatusInternalServerError, "%s", datasetErrorMessage)
			return
		}

		if res.RequiresContact {
			rememberPending(w, r, deps.Sessions, res.Pending)
		}

		writeJSON(w, http.StatusOK, askResponse{Answer: res.Answer, RequiresContact: res.RequiresContact})
	}
}

// rememberPending stores the escalation for the caller's next contact call.
// Failures are logged; the answer is still returned.
func rememberPending(w http.ResponseWriter, r *http.Request, sessions *session.Manager, p escalation.PendingContact) {
	log := zerolog.Ctx(r.Context())

	sess, err := sessions.Load(r)
	if err != nil {
		log.Warn().Err(err).Msg("loading session")
	}
	sess.Pending = p
	if err := sessions.Save(r.Context(), w, sess); err != nil {
		log.Warn().Err(err).Msg("saving pending contact")
	}
}

func handleContact(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())

		form := decodeBody[escalation.ContactForm](w, r)

		sess, err := deps.Sessions.Load(r)
		if err != nil {
			// Lost state degrades to placeholders, never to an error.
			log.Warn().Err(err).Msg("loading session")
		}

		res, err := deps.Assistant.Contact(r.Context(), sess.Pending, form)
		if err != nil {
			var missing *escalation.MissingFieldsError
			if errors.As(err, &missing) {
				writeJSON(w, http.StatusBadRequest, contactResponse{Success: false, Error: missing.Error()})
				return
			}
			log.Error().Err(err).Msg("contact failed")
			writeJSON(w, http.StatusInternalServerError, contactResponse{Success: false, Error: err.Error()})
			return
		}

		// Clear even after a failed Load so stale state cannot resurface.
		if err := deps.Sessions.Clear(r.Context(), w, sess); err != nil {
			log.Warn().Err(err).Msg("clearing session")
		}

		writeJSON(w, http.StatusOK, contactResponse{Success: res.OK(), Error: res.Message()})
	}
}

// decodeBody reads a JSON body. A missing, oversized or malformed body
// yields the zero value, which the handlers then reject as empty input.
func decodeBody[T any](w http.ResponseWriter, r *http.Request) T {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("ignoring unreadable request body")
		var zero T
		return zero
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	writeJSON(w, code, map[string]string{"error": fmt.Sprintf(format, args...)})
}
