// Package phone groups raw phone sightings by normalized number and scores
// each group on the evidence that it reaches the legal owner.
package phone

import (
	"strings"

	"github.com/sells-group/owner-resolver/internal/model"
)

const (
	significantDigits = 10
	minDigits         = 7
)

// Normalize strips non-digits and keeps the trailing ten digits. Numbers
// with fewer than seven digits normalize to "".
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < minDigits {
		return ""
	}
	if len(digits) > significantDigits {
		digits = digits[len(digits)-significantDigits:]
	}
	return digits
}

// Format renders a ten-digit normalized number as (212) 555-1234. Other
// lengths are returned unchanged.
func Format(normalized string) string {
	if len(normalized) != significantDigits {
		return normalized
	}
	return "(" + normalized[:3] + ") " + normalized[3:6] + "-" + normalized[6:]
}

// Group buckets entries by normalized phone in first-seen order. Entries
// without a usable phone are skipped. The display phone is the first
// sighting's original formatting.
func Group(entries []model.RawContactEntry) []model.PhoneGroup {
	var groups []model.PhoneGroup
	index := make(map[string]int)
	for _, e := range entries {
		n := Normalize(e.Phone)
		if n == "" {
			continue
		}
		i, ok := index[n]
		if !ok {
			i = len(groups)
			index[n] = i
			groups = append(groups, model.PhoneGroup{
				NormalizedPhone: n,
				DisplayPhone:    strings.TrimSpace(e.Phone),
			})
		}
		groups[i].Members = append(groups[i].Members, e)
	}
	return groups
}
