package engine

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// noiseTokens are tokens that carry no identity: separators between team
// names and common club suffixes that differ between sources
// ("Liverpool FC" vs "Liverpool").
var noiseTokens = map[string]struct{}{
	"vs": {}, "v": {},
	"fc": {}, "afc": {}, "cf": {}, "sc": {}, "ac": {}, "bc": {},
	"bk": {}, "fk": {}, "sk": {}, "cd": {}, "club": {},
}

// NormalizeName case-folds a raw participant or event name, strips
// punctuation and noise tokens, and collapses whitespace
func NormalizeName(raw string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(raw), " ")
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, tok := range fields {
		if _, noise := noiseTokens[tok]; !noise {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// TokenSetRatio scores the similarity of two normalized names on a 0-100
// scale. Tokens shared by both names are factored out so that word order and
// per-source extra tokens do not penalize the match; the remainder is scored
// by normalized levenshtein similarity. A name whose tokens are a subset of
// the other's scores 100.
func TokenSetRatio(a, b string) float64 {
	if a == b {
		return 100
	}

	setA := tokenSet(a)
	setB := tokenSet(b)

	var shared, onlyA, onlyB []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			shared = append(shared, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(shared)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(shared, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	best := similarity(combinedA, combinedB)
	if sect != "" {
		if s := similarity(sect, combinedA); s > best {
			best = s
		}
		if s := similarity(sect, combinedB); s > best {
			best = s
		}
	}
	return best * 100
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

// similarity is 1 - levenshtein distance over the longer length, in [0,1]
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
