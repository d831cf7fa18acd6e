// Package escalation decides when an answer needs a human follow-up and
// tracks the pending contact request between the ask and contact calls.
package escalation

import "strings"

// State is the escalation state of one session.
type State string

const (
	StateNormal          State = "NORMAL"
	StateAwaitingContact State = "AWAITING_CONTACT"
)

// Placeholders logged when a contact arrives without pending session state.
const (
	DefaultQuestion = "Contacto solicitado"
	DefaultAnswer   = "Usuario proporcionó datos para soporte adicional"
)

// markers are matched against the lowercased answer. Any answer mentioning
// them escalates, including incidental mentions.
var markers = []string{"email", "contacto", "soporte adicional", "nombre", "organización"}

// RequiresContact reports whether answer asks the user for contact details.
func RequiresContact(answer string) bool {
	a := strings.ToLower(answer)
	for _, m := range markers {
		if strings.Contains(a, m) {
			return true
		}
	}
	return false
}

// PendingContact is the per-session escalation state. The zero value is the
// NORMAL state.
type PendingContact struct {
	LastQuestion string `json:"last_question"`
	LastAnswer   string `json:"last_answer"`
	Waiting      bool   `json:"waiting_for_contact"`
}

// Begin moves a session to AWAITING_CONTACT for the given exchange.
func Begin(question, answer string) PendingContact {
	return PendingContact{LastQuestion: question, LastAnswer: answer, Waiting: true}
}

// State returns the state this value represents.
func (p PendingContact) State() State {
	if p.Waiting {
		return StateAwaitingContact
	}
	return StateNormal
}

// Exchange returns the question and answer to log with a contact submission,
// substituting placeholders for anything the session lost.
func (p PendingContact) Exchange() (question, answer string) {
	question, answer = p.LastQuestion, p.LastAnswer
	if question == "" {
		question = DefaultQuestion
	}
	if answer == "" {
		answer = DefaultAnswer
	}
	return question, answer
}
