package analyzer

import "github.com/dscript/dsc/symtab"

// SuggestClosest returns the known name closest to target by Levenshtein
// distance, for use in E_UNDEFINED_TYPE diagnostics.
// A single edit-distance heuristic is enough here: the candidate set is
// a fixed symbol table, not free-form source text.
func SuggestClosest(target string, candidates []string) (string, bool) {
	best := ""
	bestDist := -1
	for _, c := range candidates {
		d := levenshteinDistance(target, c)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = c
		}
	}
	// Only suggest candidates that are plausibly a typo, not an unrelated name.
	if bestDist < 0 || bestDist > maxSuggestDistance(target) {
		return "", false
	}
	return best, true
}

func maxSuggestDistance(s string) int {
	if len(s) <= 4 {
		return 2
	}
	return 3
}

// levenshteinDistance computes classic edit distance with a two-row DP.
func levenshteinDistance(a, b string) int {
	ar, br := []rune(a), []rune(b)
	la, lb := len(ar), len(br)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// candidateTypeNames collects every struct/union/enum/subtype/choice name
// visible in the universe, for spelling suggestions.
func candidateTypeNames(u *symtab.Universe, tables map[string]*symtab.Table) []string {
	var out []string
	for _, tbl := range tables {
		for _, k := range []symtab.Kind{symtab.KindStruct, symtab.KindUnion, symtab.KindEnum, symtab.KindSubtype, symtab.KindChoice} {
			for _, sym := range tbl.All(k) {
				out = append(out, sym.Name)
			}
		}
	}
	return out
}
