// Package search filters and ranks release notes into a text context for
// prompting.
package search

import (
	"sort"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/kalambet/relbot/internal/dataset"
)

const (
	// MaxResults caps the rows included in a context.
	MaxResults = 15

	// minKeywordRunes is the exclusive lower bound on keyword length for the
	// per-word fallback.
	minKeywordRunes = 3
)

// NotFound is the context used when no row matches.
const NotFound = "No encontré información específica sobre esa consulta en los lanzamientos de Relativity."

// Result is the outcome of a search.
type Result struct {
	// Records holds the ranked matches, at most MaxResults.
	Records []dataset.Record
	// Keyword is the fallback word that produced the matches, empty when the
	// full query matched or nothing matched.
	Keyword string
	// Text is the rendered context, or NotFound.
	Text string
}

// Found reports whether any row matched.
func (r Result) Found() bool {
	return len(r.Records) > 0
}

// Search matches query against the module and description columns. When the
// full query matches nothing, each word longer than three characters is tried
// in order and the first word with any match wins.
func Search(query string, records []dataset.Record) Result {
	matches := Match(records, query)

	var keyword string
	if len(matches) == 0 {
		for _, word := range strings.Fields(strings.ToLower(query)) {
			if utf8.RuneCountInString(word) <= minKeywordRunes {
				continue
			}
			if m := Match(records, word); len(m) > 0 {
				matches, keyword = m, word
				break
			}
		}
	}

	if len(matches) == 0 {
		return Result{Text: NotFound}
	}

	ranked := Rank(matches)
	return Result{Records: ranked, Keyword: keyword, Text: Render(ranked)}
}

// Match returns the records whose description or module contains needle,
// ignoring case. Input order is preserved.
func Match(records []dataset.Record, needle string) []dataset.Record {
	n := strings.ToLower(needle)
	var out []dataset.Record
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Description), n) || strings.Contains(strings.ToLower(r.Module), n) {
			out = append(out, r)
		}
	}
	return out
}

// Rank sorts by start date descending, comparing the stored text, and keeps
// at most MaxResults rows. Rows with equal dates keep their relative order.
func Rank(records []dataset.Record) []dataset.Record {
	out := make([]dataset.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate > out[j].StartDate
	})
	if len(out) > MaxResults {
		out = out[:MaxResults]
	}
	return out
}

// Render formats records as a fixed-width table with a header row.
func Render(records []dataset.Record) string {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	writeRow(tw, dataset.Columns[:])
	for _, r := range records {
		writeRow(tw, r.Fields())
	}
	tw.Flush()
	return strings.TrimRight(sb.String(), "\n")
}

var cellCleaner = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

func writeRow(tw *tabwriter.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			tw.Write([]byte{'\t'})
		}
		tw.Write([]byte(cellCleaner.Replace(c)))
	}
	tw.Write([]byte{'\n'})
}
