// Package assistant composes release search, answer generation, contact
// escalation and interaction logging into the ask and contact operations.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kalambet/relbot/internal/answer"
	"github.com/kalambet/relbot/internal/dataset"
	"github.com/kalambet/relbot/internal/escalation"
	"github.com/kalambet/relbot/internal/greeting"
	"github.com/kalambet/relbot/internal/search"
	"github.com/kalambet/relbot/internal/sheets"
)

// ErrEmptyQuestion is returned by Ask for a blank question. Its text is the
// message shown to the user.
var ErrEmptyQuestion = errors.New("Pregunta vacía")

// LogFailedMessage is shown when a valid contact could not be recorded.
const LogFailedMessage = "Error al guardar los datos en Google Sheets. Verifica la configuración del script de Google Apps Script."

// Generator produces an answer from a question and its context.
type Generator interface {
	Generate(ctx context.Context, query, contextText string) answer.Result
}

// InteractionLogger records interactions in the spreadsheet.
type InteractionLogger interface {
	Log(ctx context.Context, in sheets.Interaction) sheets.Result
}

// Service runs the ask and contact flows.
type Service struct {
	records   dataset.Loader
	generator Generator
	sheet     InteractionLogger
	logger    zerolog.Logger
}

// New creates a Service.
func New(records dataset.Loader, generator Generator, sheet InteractionLogger, logger zerolog.Logger) *Service {
	return &Service{
		records:   records,
		generator: generator,
		sheet:     sheet,
		logger:    logger.With().Str("component", "assistant").Logger(),
	}
}

// AskResult is the outcome of one question.
type AskResult struct {
	Answer          string
	RequiresContact bool
	Greeting        bool

	// Search and Generation are zero for greetings.
	Search     search.Result
	Generation answer.Result

	// Pending is the escalation state to store for the caller when
	// RequiresContact is set.
	Pending escalation.PendingContact

	Logged sheets.Result
}

// Ask answers question. It fails only on a blank question or when the
// dataset cannot be read; model and logging failures are reported in the
// result.
func (s *Service) Ask(ctx context.Context, question string) (AskResult, error) {
	if strings.TrimSpace(question) == "" {
		return AskResult{}, ErrEmptyQuestion
	}
	log := s.loggerFor(ctx)
	log.Debug().Str("question", question).Msg("question received")

	var res AskResult
	if greeting.IsGreeting(question) {
		log.Debug().Msg("detected greeting")
		res = AskResult{Answer: greeting.Reply, Greeting: true}
	} else {
		records, err := s.records.Load()
		if err != nil {
			return AskResult{}, fmt.Errorf("loading release notes: %w", err)
		}

		found := search.Search(question, records)
		log.Debug().
			Int("rows", len(found.Records)).
			Int("context_chars", len(found.Text)).
			Str("keyword", found.Keyword).
			Msg("context built")

		gen := s.generator.Generate(ctx, question, found.Text)
		if !gen.OK() {
			log.Warn().Err(gen.Err).Str("reason", string(gen.Reason)).Msg("answer generation failed")
		}

		text := gen.Display()
		log.Debug().Str("answer", preview(text, 100)).Msg("answer generated")

		res = AskResult{Answer: text, Search: found, Generation: gen}
		if escalation.RequiresContact(text) {
			res.RequiresContact = true
			res.Pending = escalation.Begin(question, text)
		}
	}

	res.Logged = s.sheet.Log(ctx, sheets.Interaction{Question: question, Answer: res.Answer})
	s.logOutcome(log, res.Logged, "interaction")
	return res, nil
}

// ContactResult is the outcome of a valid contact submission.
type ContactResult struct {
	Question string
	Answer   string
	Logged   sheets.Result
}

// OK reports whether the submission was recorded.
func (r ContactResult) OK() bool {
	return r.Logged.OK()
}

// Message is the user-facing error for a submission that was not recorded.
func (r ContactResult) Message() string {
	if r.OK() {
		return ""
	}
	return LogFailedMessage
}

// Contact records a contact submission against the pending exchange. A
// *escalation.MissingFieldsError is returned when a field is blank; in that
// case nothing is logged and the caller must keep its pending state. On any
// other outcome the caller clears its pending state.
func (s *Service) Contact(ctx context.Context, pending escalation.PendingContact, form escalation.ContactForm) (ContactResult, error) {
	form = form.Normalize()
	if err := form.Validate(); err != nil {
		return ContactResult{}, err
	}
	log := s.loggerFor(ctx)

	question, ans := pending.Exchange()
	res := ContactResult{Question: question, Answer: ans}
	res.Logged = s.sheet.Log(ctx, sheets.Interaction{
		Question:     question,
		Answer:       ans,
		Name:         form.Name,
		Email:        form.Email,
		Organization: form.Organization,
	})
	s.logOutcome(log, res.Logged, "contact")
	return res, nil
}

// Search runs a release search without calling the model.
func (s *Service) Search(query string) (search.Result, error) {
	records, err := s.records.Load()
	if err != nil {
		return search.Result{}, fmt.Errorf("loading release notes: %w", err)
	}
	return search.Search(query, records), nil
}

// loggerFor prefers the request-scoped logger set by the HTTP middleware.
func (s *Service) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}

func (s *Service) logOutcome(log *zerolog.Logger, r sheets.Result, kind string) {
	if r.OK() {
		log.Info().Str("kind", kind).Msg("logged to sheet")
		return
	}
	evt := log.Warn()
	if r.Reason == sheets.ReasonNotConfigured {
		evt = log.Debug()
	}
	evt.Err(r.Err).Str("kind", kind).Str("reason", string(r.Reason)).Msg("sheet logging failed")
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
