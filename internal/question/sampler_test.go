package question

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func poolOf(kind, category string, n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{
			Kind:     kind,
			Prompt:   category + " question " + string(rune('a'+i)),
			Answer:   string(rune('a' + i)),
			Category: category,
		}
	}
	return qs
}

func TestSampleQuotaDrawsRequestedCounts(t *testing.T) {
	pool := append(poolOf(KindMCQ, "Algebra", 10), poolOf(KindMCQ, "Geometry", 10)...)
	rng := rand.New(rand.NewSource(7))

	got := SampleQuota(pool, QuotaSettings{"Algebra": 3, "Geometry": 5}, rng)

	byCategory := map[string]int{}
	for _, q := range got {
		byCategory[q.Category]++
	}
	assert.Equal(t, 3, byCategory["Algebra"])
	assert.Equal(t, 5, byCategory["Geometry"])
}

func TestSampleQuotaNeverExceedsAvailability(t *testing.T) {
	pool := poolOf(KindTrueFalse, "History", 2)
	rng := rand.New(rand.NewSource(7))

	got := SampleQuota(pool, QuotaSettings{"History": 50}, rng)
	assert.Len(t, got, 2)
}

func TestSampleQuotaWithoutReplacement(t *testing.T) {
	pool := poolOf(KindMCQ, "Algebra", 8)
	rng := rand.New(rand.NewSource(99))

	got := SampleQuota(pool, QuotaSettings{"Algebra": 8}, rng)
	seen := map[ContentSignature]bool{}
	for _, q := range got {
		sig := SignatureOf(q)
		assert.False(t, seen[sig], "drew the same record twice")
		seen[sig] = true
	}
}

func TestSampleQuotaSplitsPerKind(t *testing.T) {
	// The quota applies per (kind, category) pair, so two kinds in the same
	// category each contribute the category's count.
	pool := append(poolOf(KindMCQ, "Algebra", 4), poolOf(KindTrueFalse, "Algebra", 4)...)
	rng := rand.New(rand.NewSource(3))

	got := SampleQuota(pool, QuotaSettings{"Algebra": 2}, rng)

	byKind := map[string]int{}
	for _, q := range got {
		byKind[q.Kind]++
	}
	assert.Equal(t, 2, byKind[KindMCQ])
	assert.Equal(t, 2, byKind[KindTrueFalse])
}

func TestSampleQuotaIgnoresUnrequestedCategories(t *testing.T) {
	pool := poolOf(KindMCQ, "Algebra", 4)
	rng := rand.New(rand.NewSource(3))

	got := SampleQuota(pool, QuotaSettings{"Geometry": 2}, rng)
	assert.Empty(t, got)
}

func TestSampleQuotaLeavesPoolIntact(t *testing.T) {
	pool := poolOf(KindMCQ, "Algebra", 5)
	before := make([]Question, len(pool))
	copy(before, pool)

	_ = SampleQuota(pool, QuotaSettings{"Algebra": 3}, rand.New(rand.NewSource(1)))
	assert.Equal(t, before, pool)
}
