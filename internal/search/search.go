// Package search provides accent and case insensitive attendee lookup.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/gatherly/companion/internal/model"
)

// foldTransformer strips combining marks so "José" matches "jose".
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

func matches(a model.Attendee, query string) bool {
	for _, field := range []string{a.FullName, a.FirstName, a.LastName, a.Email, a.Company, a.Title} {
		if strings.Contains(fold(field), query) {
			return true
		}
	}
	return false
}

// Attendees returns the attendees whose name, email, company, or title
// contains the query, ignoring case and diacritics. Results are ordered
// by full name under English collation. An empty query returns all
// attendees sorted.
func Attendees(attendees []model.Attendee, query string) []model.Attendee {
	query = fold(strings.TrimSpace(query))

	out := make([]model.Attendee, 0, len(attendees))
	for _, a := range attendees {
		if query == "" || matches(a, query) {
			out = append(out, a)
		}
	}

	// Collator.Sort mutates internal sorter state, so each call gets its
	// own instance; Attendees must stay safe for concurrent requests.
	collate.New(language.English, collate.IgnoreCase).Sort(byFullName(out))
	return out
}

type byFullName []model.Attendee

func (s byFullName) Len() int      { return len(s) }
func (s byFullName) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s byFullName) Bytes(i int) []byte {
	return []byte(s[i].FullName + "\x00" + s[i].ID)
}
