package textutil

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9 -]`)
var slugDashes = regexp.MustCompile(`-+`)

// Slugify lowercases s and replaces everything but ascii letters, digits
// and dashes with a single dash.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = whitespaceRegex.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return s
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

type Match struct {
	Index      int
	Candidate  string
	Similarity float64
}

// BestMatch returns the candidate most similar to name by Jaro-Winkler
// distance of the normalized strings. ok is false when no candidate
// reaches `threshold`.
func BestMatch(name string, candidates []string, threshold float64) (Match, bool) {
	target := NormalizeName(name)

	best := Match{Index: -1}
	for i, c := range candidates {
		normalized := NormalizeName(c)
		if normalized == target {
			return Match{Index: i, Candidate: c, Similarity: 1}, true
		}
		similarity := matchr.JaroWinkler(target, normalized, false)
		if similarity > best.Similarity {
			best = Match{Index: i, Candidate: c, Similarity: similarity}
		}
	}
	if best.Index < 0 || best.Similarity < threshold {
		return best, false
	}
	return best, true
}
