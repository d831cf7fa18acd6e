// Package answer turns a question and its release-notes context into a model
// generated answer.
package answer

import (
	"context"
	"errors"
	"fmt"

	"github.com/kalambet/relbot/internal/completion"
)

// Completer is the model call the generator depends on.
type Completer interface {
	Complete(ctx context.Context, req completion.ChatRequest) (string, error)
}

// Params are the fixed model parameters used for every request.
type Params struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// DefaultParams favors short, consistent answers.
func DefaultParams() Params {
	return Params{Model: "gpt-3.5-turbo", MaxTokens: 600, Temperature: 0.3}
}

// FailureReason classifies why generation failed.
type FailureReason string

const (
	ReasonNone      FailureReason = ""
	ReasonUpstream  FailureReason = "upstream"  // API answered with an error status
	ReasonTransport FailureReason = "transport" // request never got a response
	ReasonEmpty     FailureReason = "empty"     // API answered without any text
	ReasonCanceled  FailureReason = "canceled"
)

// Result is the outcome of one generation.
type Result struct {
	Text   string
	Reason FailureReason
	Err    error
}

// OK reports whether the model produced an answer.
func (r Result) OK() bool {
	return r.Err == nil
}

// Display is the text shown to the user: the answer, or a description of the
// failure.
func (r Result) Display() string {
	if r.Err != nil {
		return fmt.Sprintf("Error al generar respuesta: %v", r.Err)
	}
	return r.Text
}

// Generator calls the model with a release-notes prompt.
type Generator struct {
	client Completer
	params Params
}

// NewGenerator creates a Generator. An empty model or non-positive token
// limit falls back to DefaultParams; temperature is used as given.
func NewGenerator(client Completer, params Params) *Generator {
	def := DefaultParams()
	if params.Model == "" {
		params.Model = def.Model
	}
	if params.MaxTokens <= 0 {
		params.MaxTokens = def.MaxTokens
	}
	return &Generator{client: client, params: params}
}

// Generate never returns an error; failures are reported in the Result.
func (g *Generator) Generate(ctx context.Context, query, contextText string) Result {
	text, err := g.client.Complete(ctx, completion.ChatRequest{
		Model:       g.params.Model,
		Messages:    BuildPrompt(query, contextText),
		MaxTokens:   g.params.MaxTokens,
		Temperature: g.params.Temperature,
	})
	if err != nil {
		return Result{Reason: classify(err), Err: err}
	}
	return Result{Text: text}
}

func classify(err error) FailureReason {
	var apiErr *completion.APIError
	switch {
	case errors.As(err, &apiErr):
		return ReasonUpstream
	case errors.Is(err, completion.ErrNoChoices):
		return ReasonEmpty
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	default:
		return ReasonTransport
	}
}
