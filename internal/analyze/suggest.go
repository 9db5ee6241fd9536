package analyze

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/scbrown/cargo-sleek/internal/model"
)

// Suggestion pairs a locked package name with its similarity score (0-1, higher is better).
type Suggestion struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// DefaultThreshold is the minimum similarity score for a suggestion to be returned.
const DefaultThreshold = 0.6

// DefaultTopN is the maximum number of suggestions returned.
const DefaultTopN = 3

// Suggest returns known package names similar to name, ranked by similarity score.
// Only suggestions scoring above DefaultThreshold are returned, up to DefaultTopN results.
func Suggest(name string, known []string) []Suggestion {
	return SuggestN(name, known, DefaultTopN, DefaultThreshold)
}

// SuggestN returns up to topN known names similar to name, with score >= threshold.
func SuggestN(name string, known []string, topN int, threshold float64) []Suggestion {
	if name == "" || len(known) == 0 {
		return nil
	}

	normName := normalize(name)
	var results []Suggestion
	seen := map[string]bool{}

	for _, k := range known {
		if seen[k] {
			continue
		}
		seen[k] = true
		score := similarity(normName, normalize(k))
		if score >= threshold {
			results = append(results, Suggestion{Name: k, Score: score})
		}
	}

	sortByScore(results)

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

// Hints returns a copy of unused with Hint set to the closest locked package
// name, when one is similar enough. Exact matches after normalization are
// reported as hints too: they usually mean the manifest spells the crate with
// "-" where the lock uses "_" (or the reverse).
func Hints(unused []model.Dependency, locked []string) []model.Dependency {
	out := make([]model.Dependency, len(unused))
	for i, d := range unused {
		out[i] = d
		name := strings.Trim(d.Name, `"'`)
		if s := Suggest(name, locked); len(s) > 0 && s[0].Name != name {
			out[i].Hint = s[0].Name
		}
	}
	return out
}

// similarity computes the overall similarity between two normalized strings.
// It combines Levenshtein distance with prefix/suffix bonuses.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	// Normalized Levenshtein: 1 - (distance / max_length).
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := max(len(a), len(b))
	lev := 1.0 - float64(dist)/float64(maxLen)

	// Prefix bonus: proportion of shared prefix, weighted at 0.1.
	prefixBonus := 0.1 * float64(commonPrefixLen(a, b)) / float64(maxLen)

	// Suffix bonus: proportion of shared suffix, weighted at 0.05.
	suffixBonus := 0.05 * float64(commonSuffixLen(a, b)) / float64(maxLen)

	return min(lev+prefixBonus+suffixBonus, 1.0)
}

// normalize lowercases a crate name and treats "_" and "-" as the same
// separator, joining the parts with single spaces.
func normalize(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return strings.Join(fields, " ")
}

// commonPrefixLen returns the length of the common prefix of a and b.
func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// commonSuffixLen returns the length of the common suffix of a and b.
func commonSuffixLen(a, b string) int {
	la, lb := len(a), len(b)
	n := min(la, lb)
	for i := 0; i < n; i++ {
		if a[la-1-i] != b[lb-1-i] {
			return i
		}
	}
	return n
}

// sortByScore sorts suggestions by score descending using insertion sort
// (sufficient for small result sets).
func sortByScore(s []Suggestion) {
	for i := 1; i < len(s); i++ {
		key := s[i]
		j := i - 1
		for j >= 0 && s[j].Score < key.Score {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = key
	}
}
