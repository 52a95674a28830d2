// Package match holds the name comparison primitives shared by the phone
// scorer and the ownership resolver.
package match

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes lists common legal entity suffixes to strip during name normalization.
var legalSuffixes = []string{
	" LLC", " L.L.C.", " L.L.C",
	" INC", " INC.", " INCORPORATED",
	" CORP", " CORP.", " CORPORATION",
	" LTD", " LTD.", " LIMITED",
	" LP", " L.P.", " L.P",
	" LLP", " L.L.P.", " L.L.P",
	" CO", " CO.",
	" ASSOC", " ASSOCIATES",
	" HDFC",
	" DBA", " D/B/A",
	" PLLC",
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// placeholders are values feeds use in place of a missing name.
var placeholders = map[string]bool{
	"N/A": true, "NA": true, "NONE": true, "-": true, "--": true,
	"UNKNOWN": true, "NOT APPLICABLE": true, ".": true,
}

// IsPlaceholder reports whether s is empty or an explicit "no value" marker.
func IsPlaceholder(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s == "" || placeholders[s]
}

// Fold uppercases s, strips diacritics and trims it. It is the comparison
// form used for exact and substring matches.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(strings.TrimSpace(out))
}

// NormalizeName standardizes an owner name for matching by:
//  1. Folding case and diacritics
//  2. Removing one trailing legal suffix (LLC, Inc, Corp, etc.)
//  3. Stripping punctuation
//  4. Collapsing multiple spaces
func NormalizeName(name string) string {
	name = Fold(name)
	if name == "" {
		return ""
	}

	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}

	name = strings.NewReplacer(
		",", "",
		".", "",
		"'", "",
		"\"", "",
		"&", "AND",
		"-", " ",
	).Replace(name)

	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// LastToken returns the final word of the normalized name, which for a
// "FIRST LAST" person name is the surname.
func LastToken(name string) string {
	fields := strings.Fields(NormalizeName(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// minTokenLen keeps initials and stray letters from matching everything.
const minTokenLen = 2

// ContainsToken reports whether haystack contains the last-name token of
// name. Both sides are compared in NormalizeName form, so O'BRIEN and
// OBRIEN match each other.
func ContainsToken(haystack, name string) bool {
	tok := LastToken(name)
	if len(tok) < minTokenLen {
		return false
	}
	return strings.Contains(NormalizeName(haystack), tok)
}

// SameName reports an exact case-insensitive match, or a last-name-token
// substring match of candidate against registered.
func SameName(candidate, registered string) bool {
	c, r := Fold(candidate), Fold(registered)
	if c == "" || r == "" {
		return false
	}
	if c == r || NormalizeName(c) == NormalizeName(r) {
		return true
	}
	return ContainsToken(c, r)
}

// minSubstringLen is the shortest name eligible for a substring match.
const minSubstringLen = 4

// SubstringEither reports whether either folded name contains the other.
// Both names must be longer than three characters.
func SubstringEither(a, b string) bool {
	a, b = Fold(a), Fold(b)
	if len(a) < minSubstringLen || len(b) < minSubstringLen {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
