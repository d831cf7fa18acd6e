// Package greeting detects queries that are salutations rather than questions.
package greeting

import "strings"

// maxWords is the longest query, in words, that can still count as a greeting.
const maxWords = 10

// Reply is the canned answer returned for greetings.
const Reply = "¡Hola! Soy un asistente experto en lanzamientos de Relativity. ¿En qué puedo ayudarte hoy? Pregúntame sobre nuevas funcionalidades, mejoras o cualquier cosa relacionada con los lanzamientos."

var phrases = []string{
	"hola", "buenos días", "buenas tardes", "buenas noches", "saludos",
	"hey", "hi", "hello", "good morning", "good afternoon", "good evening",
}

// questionMarkers are matched as substrings, so "que" also rejects "quería".
var questionMarkers = []string{
	"qué", "que", "cómo", "como", "cuándo", "cuando", "dónde", "donde",
	"por qué", "porque", "quién", "quien",
}

// IsGreeting reports whether query is a short salutation with no question in it.
func IsGreeting(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(strings.Fields(q)) > maxWords {
		return false
	}
	if containsAny(q, questionMarkers) {
		return false
	}
	return containsAny(q, phrases)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
