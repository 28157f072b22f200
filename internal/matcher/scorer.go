package matcher

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Score scale and weights of WeightedRatio.
const (
	MaxScore        = 100.0
	unbaseScale     = 0.95
	partialScale    = 0.9
	longPartial     = 0.6
	tokenLenRatio   = 1.5
	longLengthRatio = 8.0
)

// Scorer rates the similarity of two strings on a 0-100 scale.
type Scorer interface {
	Score(query, choice string) float64
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(query, choice string) float64

// Score calls f(query, choice).
func (f ScorerFunc) Score(query, choice string) float64 {
	return f(query, choice)
}

// WeightedRatio is the default scorer. It tolerates word reordering,
// partial overlap and small spelling differences.
var WeightedRatio Scorer = ScorerFunc(WRatio)

// Ratio is the normalized Indel similarity: 2*LCS / (len(a)+len(b)) * 100.
func Ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return MaxScore
	}
	return 2 * MaxScore * float64(edlib.LCS(a, b)) / float64(total)
}

// PartialRatio is the best Ratio of the shorter string against every
// same-length window of the longer one, including the partial windows at
// both edges.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return MaxScore
		}
		return 0
	}

	m, n := len(short), len(long)
	s := string(short)
	best := 0.0
	for i := -(m - 1); i < n; i++ {
		lo, hi := max(i, 0), min(i+m, n)
		if score := Ratio(s, string(long[lo:hi])); score > best {
			best = score
			if best == MaxScore {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares the strings after sorting their words.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

// TokenSetRatio compares the shared words with each side's remainder.
func TokenSetRatio(a, b string) float64 {
	sect, diffAB, diffBA, ok := splitTokenSets(a, b)
	if !ok {
		return 0
	}
	if sect != "" && (diffAB == "" || diffBA == "") {
		return MaxScore
	}

	combinedAB := joinNonEmpty(sect, diffAB)
	combinedBA := joinNonEmpty(sect, diffBA)

	best := Ratio(combinedAB, combinedBA)
	if sect != "" {
		best = max(best, Ratio(sect, combinedAB), Ratio(sect, combinedBA))
	}
	return best
}

// PartialTokenSortRatio is PartialRatio over the sorted words.
func PartialTokenSortRatio(a, b string) float64 {
	return PartialRatio(sortedTokens(a), sortedTokens(b))
}

// PartialTokenSetRatio is 100 when the strings share a word, otherwise
// PartialRatio of their distinct words.
func PartialTokenSetRatio(a, b string) float64 {
	sect, diffAB, diffBA, ok := splitTokenSets(a, b)
	if !ok {
		return 0
	}
	if sect != "" {
		return MaxScore
	}
	return PartialRatio(diffAB, diffBA)
}

// WRatio picks between the plain, partial and token based ratios depending
// on how different the two lengths are.
func WRatio(a, b string) float64 {
	lenA, lenB := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if lenA == 0 || lenB == 0 {
		return 0
	}

	lengthRatio := float64(max(lenA, lenB)) / float64(min(lenA, lenB))
	end := Ratio(a, b)

	if lengthRatio < tokenLenRatio {
		tokens := max(TokenSetRatio(a, b), TokenSortRatio(a, b))
		return max(end, tokens*unbaseScale)
	}

	scale := partialScale
	if lengthRatio > longLengthRatio {
		scale = longPartial
	}

	end = max(end, PartialRatio(a, b)*scale)
	tokens := max(PartialTokenSetRatio(a, b), PartialTokenSortRatio(a, b))
	return max(end, tokens*unbaseScale*scale)
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// splitTokenSets returns the sorted intersection and both differences of
// the word sets of a and b. ok is false when either side has no words.
func splitTokenSets(a, b string) (sect, diffAB, diffBA string, ok bool) {
	setA, setB := tokenSet(a), tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return "", "", "", false
	}

	var both, onlyA, onlyB []string
	for t := range setA {
		if setB[t] {
			both = append(both, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if !setA[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(both)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	return strings.Join(both, " "), strings.Join(onlyA, " "), strings.Join(onlyB, " "), true
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
