package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"alpha", "beta"}, Tokenize("alpha beta"))
	assert.Equal(t, []string{"a", "b", "c"}, Tokenize("a,b;c"))
	assert.Equal(t, []string{"quoted", "term"}, Tokenize(`"quoted" (term)`))
	assert.Empty(t, Tokenize("  ,;  "))
	assert.Empty(t, Tokenize(""))
}

func TestEmptyQueryReturnsAll(t *testing.T) {
	docs := []Document{
		{Name: "a.md", Content: "alpha"},
		{Name: "b.md", Content: "beta"},
	}
	assert.Equal(t, []int{0, 1}, Match(docs, ""))
	assert.Equal(t, []int{0, 1}, Match(docs, "   "))
}

func TestAndSemantics(t *testing.T) {
	docs := []Document{
		{Name: "debug-notes.md", Content: "python pipeline debug session"},
		{Name: "build.md", Content: "java build issue"},
	}
	// Both terms must match; only the first record qualifies.
	got := Match(docs, "python pipeline")
	assert.Equal(t, []int{0}, got)

	// One term matching is not enough.
	assert.Empty(t, Match(docs, "python issue"))
}

func TestFuzzyMembership(t *testing.T) {
	docs := []Document{
		{Name: "kubernetes.md", Content: "cluster upgrade checklist"},
	}
	// One dropped character within budget still matches.
	assert.Equal(t, []int{0}, Match(docs, "cluser"))
	// Entirely different term does not.
	assert.Empty(t, Match(docs, "gardening"))
}

func TestShortTokensRequireExactMatch(t *testing.T) {
	docs := []Document{
		{Name: "go.md", Content: "go tips"},
		{Name: "c.md", Content: "profiling"},
	}
	assert.Equal(t, []int{0}, Match(docs, "go"))
}

func TestExactMatchesOrderFirst(t *testing.T) {
	docs := []Document{
		{Name: "a.md", Content: "pipelnie tuning"},  // fuzzy-only hit
		{Name: "b.md", Content: "pipeline tuning"},  // exact hit
		{Name: "c.md", Content: "pipeline arrived"}, // exact hit
	}
	got := Match(docs, "pipeline")
	// Exact substring hits come first; ties keep input order.
	assert.Equal(t, []int{1, 2, 0}, got)
}

func TestMatchesFilenameToo(t *testing.T) {
	docs := []Document{
		{Name: "grocery-list.md", Content: "eggs and milk"},
	}
	assert.Equal(t, []int{0}, Match(docs, "grocery"))
}

func TestEditBudget(t *testing.T) {
	assert.Equal(t, 0, editBudget(2))
	assert.Equal(t, 1, editBudget(3))
	assert.Equal(t, 1, editBudget(7))
	assert.Equal(t, 2, editBudget(8))
}
