// Package search implements multi-term fuzzy matching over record
// filenames and bodies. Fuzzy matching decides membership; exact substring
// hits decide ordering.
package search

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Document is one searchable record.
type Document struct {
	Name    string
	Content string
}

// separators tokenize a query in addition to whitespace.
const separators = `,;:.!?"'()[]{}`

// Tokenize splits a query on whitespace and punctuation, dropping empties.
func Tokenize(query string) []string {
	return strings.FieldsFunc(query, func(r rune) bool {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return true
		}
		return strings.ContainsRune(separators, r)
	})
}

// Match returns the indexes of docs matching every token of query, ordered
// by descending count of exact substring hits. An empty query matches all
// docs in input order. Ties keep input order.
func Match(docs []Document, query string) []int {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		all := make([]int, len(docs))
		for i := range docs {
			all[i] = i
		}
		return all
	}

	type hit struct {
		idx   int
		exact int
	}
	var hits []hit
	for i, doc := range docs {
		haystack := strings.ToLower(doc.Name + "\n" + doc.Content)
		matched := true
		exact := 0
		for _, tok := range tokens {
			lowTok := strings.ToLower(tok)
			if strings.Contains(haystack, lowTok) {
				exact++
				continue
			}
			if !fuzzyContains(haystack, lowTok) {
				matched = false
				break
			}
		}
		if matched {
			hits = append(hits, hit{idx: i, exact: exact})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].exact > hits[b].exact })

	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.idx
	}
	return out
}

// editBudget bounds the tolerated character-level differences per token.
func editBudget(n int) int {
	switch {
	case n < 3:
		return 0
	case n < 8:
		return 1
	default:
		return 2
	}
}

// fuzzyContains reports whether needle approximately occurs as a substring
// of haystack, within the token's edit budget. Both inputs are expected
// lowercased.
func fuzzyContains(haystack, needle string) bool {
	n := []rune(needle)
	budget := editBudget(len(n))
	if budget == 0 {
		return strings.Contains(haystack, needle)
	}
	h := []rune(haystack)
	if len(h) == 0 {
		return false
	}
	// Slide windows of needle length +/- budget and compare by edit
	// distance. Record bodies are small, so the quadratic cost is fine.
	minW := len(n) - budget
	if minW < 1 {
		minW = 1
	}
	maxW := len(n) + budget
	for start := 0; start < len(h); start++ {
		for w := minW; w <= maxW && start+w <= len(h); w++ {
			if levenshtein.ComputeDistance(string(h[start:start+w]), needle) <= budget {
				return true
			}
		}
	}
	return false
}
