// Package normalize converts each feed's ad hoc record shape into the
// canonical entry types used by the scorers. It performs no cross-feed
// deduplication; duplicates are expected and resolved downstream.
package normalize

import (
	"strings"
	"time"

	"github.com/sells-group/owner-resolver/internal/match"
	"github.com/sells-group/owner-resolver/internal/model"
)

// dateLayouts are the timestamp shapes seen across city datasets.
var dateLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"20060102",
}

// ParseDate parses s with each known layout. ok is false for empty or
// unparseable input.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// OwnerName prefers a business name over an explicit placeholder, falling
// back to the joined first and last name.
func OwnerName(business, first, last string) string {
	if !match.IsPlaceholder(business) {
		return strings.TrimSpace(business)
	}
	return model.JoinName(cleanToken(first), cleanToken(last))
}

// cleanToken blanks out placeholder name tokens.
func cleanToken(s string) string {
	if match.IsPlaceholder(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

// minKeyLen is the shortest combined name+phone key kept as a real entry.
const minKeyLen = 4

// newEntry builds a RawContactEntry, dropping noise rows whose combined
// name and phone are shorter than four characters.
func newEntry(name, phone string, owner bool, date string, src model.Source, addr string) (model.RawContactEntry, bool) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if match.IsPlaceholder(phone) {
		phone = ""
	}
	if len(name+phone) < minKeyLen {
		return model.RawContactEntry{}, false
	}
	return model.RawContactEntry{
		Phone:       phone,
		Name:        name,
		IsOwnerRole: owner,
		EventDate:   strings.TrimSpace(date),
		Source:      src,
		Address:     addr,
	}, true
}

// joinAddress space-joins the non-empty parts.
func joinAddress(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" && !match.IsPlaceholder(p) {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
