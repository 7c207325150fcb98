package question

import "strings"

// Kind constants for the question variants a paper can contain.
const (
	KindMCQ          = "mcq"
	KindTrueFalse    = "true_false"
	KindMatching     = "matching"
	KindWrittenShort = "written_short"
	KindWrittenLong  = "written_long"
	KindFake         = "fake"
)

// MaxOptions is the number of labeled option slots an MCQ carries (a-e).
const MaxOptions = 5

// fakeCategoryPrefix marks distractor records; the suffix names the real
// category the answer was drawn from.
const fakeCategoryPrefix = "fake answers - "

// ManualCategory is the source category of a distractor the user typed in
// by hand rather than drew from the pool.
const ManualCategory = "manual"

// Question is one record of the pool or the working list. The duplicate
// fields are written by the external detector at import time and only ever
// read (and cleared) here.
type Question struct {
	Kind     string   `json:"kind"`
	Prompt   string   `json:"prompt"`
	Answer   string   `json:"answer"`
	Category string   `json:"category"`
	Image    string   `json:"image,omitempty"`
	Options  []string `json:"options,omitempty"`
	LongForm bool     `json:"long_form,omitempty"`

	DuplicateGroupID        string  `json:"duplicate_group_id,omitempty"`
	DuplicateRepresentative bool    `json:"duplicate_representative,omitempty"`
	DuplicateSimilarity     float64 `json:"duplicate_similarity,omitempty"`
}

// IsFake reports whether the record is a distractor.
func (q Question) IsFake() bool { return q.Kind == KindFake }

// Option returns the option at slot i (0 = a), or "" when unset.
func (q Question) Option(i int) string {
	if i < 0 || i >= len(q.Options) {
		return ""
	}
	return q.Options[i]
}

// SourceCategory returns the real category a distractor was drawn from. For
// regular questions it is the category itself.
func (q Question) SourceCategory() string {
	if q.IsFake() {
		return strings.TrimPrefix(q.Category, fakeCategoryPrefix)
	}
	return q.Category
}

// IsManualUnfilled reports whether the record is a hand-created distractor
// still waiting for the user to type an answer. These must never be
// overwritten by a synchronization pass.
func (q Question) IsManualUnfilled() bool {
	return q.IsFake() && strings.TrimSpace(q.Answer) == "" && q.SourceCategory() == ManualCategory
}

// FakeCategory builds the stored category string for a distractor drawn
// from src.
func FakeCategory(src string) string { return fakeCategoryPrefix + src }

// AsFake wraps a real pool record as a distractor reusing its answer text.
func AsFake(src Question) Question {
	return Question{
		Kind:     KindFake,
		Answer:   src.Answer,
		Category: FakeCategory(src.Category),
	}
}

// NormalizeAnswer canonicalizes answer text for uniqueness checks.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Rand is the randomness sampling draws from; *math/rand.Rand satisfies it.
// Tests substitute a fixed sequence.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}
