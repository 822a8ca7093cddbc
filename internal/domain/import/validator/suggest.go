package validator

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxSuggestDistance bounds how far a candidate may be (Levenshtein) to
// still count as a plausible "did you mean" match.
const maxSuggestDistance = 3

// closestName returns the candidate nearest to name, if any candidate is
// within the suggestion distance. Ties resolve to the lexicographically
// smaller candidate so suggestions are deterministic.
func closestName(name string, candidates []string) (string, bool) {
	folded := strings.ToLower(strings.TrimSpace(name))
	best := ""
	bestDist := maxSuggestDistance + 1

	for _, candidate := range candidates {
		dist := fuzzy.LevenshteinDistance(folded, strings.ToLower(candidate))
		if dist < bestDist || (dist == bestDist && best != "" && candidate < best) {
			best = candidate
			bestDist = dist
		}
	}

	if bestDist > maxSuggestDistance {
		return "", false
	}
	return best, true
}
