package schema

import "strings"

// maxSuggestDistance is the largest edit distance that still counts as a
// plausible typo.
const maxSuggestDistance = 2

// KeywordTypos maps common SQL keyword misspellings to their correction.
// The syntax validator consults this before falling back to the raw error.
var KeywordTypos = map[string]string{
	"SELEC": "SELECT",
	"FORM":  "FROM",
	"WERE":  "WHERE",
	"ORDE":  "ORDER",
	"GROP":  "GROUP",
	"LIMT":  "LIMIT",
}

// Suggest returns the candidate closest to input by Levenshtein distance,
// provided the distance is at most 2. Comparison is case-insensitive.
// Returns empty string when nothing is close enough.
func Suggest(input string, candidates []string) string {
	best := ""
	bestDist := maxSuggestDistance + 1
	lower := strings.ToLower(input)
	for _, cand := range candidates {
		d := levenshtein(lower, strings.ToLower(cand))
		if d < bestDist {
			bestDist = d
			best = cand
		}
	}
	if bestDist > maxSuggestDistance {
		return ""
	}
	return best
}

// SuggestKeyword returns the corrected keyword for a known misspelling, or
// empty string.
func SuggestKeyword(word string) string {
	return KeywordTypos[strings.ToUpper(word)]
}

// levenshtein computes the edit distance between two strings with a
// two-row dynamic program.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
