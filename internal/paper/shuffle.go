package paper

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/juliaizbroke/SeniorProject1-sub000/internal/metrics"
	"github.com/juliaizbroke/SeniorProject1-sub000/internal/question"
)

// Mode is the resampling strategy, chosen from lock state and pool
// availability before anything is mutated.
type Mode string

const (
	// ModeDisabled: nothing can change; the caller must refuse the action.
	ModeDisabled Mode = "disabled"
	// ModeReplace: exactly one unlocked real question with alternates
	// available; swap just that one.
	ModeReplace Mode = "replace"
	// ModeReorder: several unlocked real questions but no alternates
	// anywhere; permute their positions only.
	ModeReorder Mode = "reorder"
	// ModeFresh: redraw every unlocked real question independently.
	ModeFresh Mode = "fresh"
)

// Engine resamples a working list from the immutable pool.
type Engine struct {
	pool   []question.Question
	rng    question.Rand
	logger zerolog.Logger
}

// NewEngine builds an engine over the session's pool. The random source is
// injected so tests can pin the sequence.
func NewEngine(pool []question.Question, rng question.Rand, logger zerolog.Logger) *Engine {
	return &Engine{pool: pool, rng: rng, logger: logger}
}

// SelectMode inspects the working list, the pool and the lock sets and picks
// the strategy. Distractors count toward the shuffleable total (a lone real
// question alongside unlocked fakes is not disabled: the pass still
// resynchronizes the fakes), but alternate availability is judged over real
// questions only.
func (e *Engine) SelectMode(list []question.Question, locks *LockStore) Mode {
	ids := question.SlotIDs(list)

	unlockedTotal, unlockedReal := 0, 0
	for i, q := range list {
		if locks.IsPinned(ids[i]) {
			continue
		}
		unlockedTotal++
		if !q.IsFake() {
			unlockedReal++
		}
	}
	if unlockedTotal == 0 {
		return ModeDisabled
	}

	alternates := e.countAlternates(list, locks, ids)
	switch {
	case unlockedReal == 1 && unlockedTotal == 1 && alternates == 0:
		return ModeDisabled
	case unlockedReal == 1 && alternates > 0:
		return ModeReplace
	case unlockedReal > 1 && alternates == 0:
		return ModeReorder
	default:
		// Covers >=2 real with alternates, a lone real plus fakes with no
		// alternates, and fakes-only lists: each entry is considered
		// independently and the distractor pass still runs.
		return ModeFresh
	}
}

// countAlternates counts pool records that could replace some unlocked real
// question: same category, not a distractor, and content-distinct from
// everything currently in the list, locked or not.
func (e *Engine) countAlternates(list []question.Question, locks *LockStore, ids []question.SlotID) int {
	used := make(map[question.ContentSignature]struct{}, len(list))
	for _, q := range list {
		used[question.SignatureOf(q)] = struct{}{}
	}
	categories := make(map[string]struct{})
	for i, q := range list {
		if q.IsFake() || locks.IsPinned(ids[i]) {
			continue
		}
		categories[q.Category] = struct{}{}
	}

	n := 0
	for _, c := range e.pool {
		if c.IsFake() {
			continue
		}
		if _, wanted := categories[c.Category]; !wanted {
			continue
		}
		if _, dup := used[question.SignatureOf(c)]; dup {
			continue
		}
		n++
	}
	return n
}

// Shuffle applies the chosen mode and then synchronizes distractors. The
// input list is not mutated; the result is a fresh slice. ModeDisabled
// returns the input unchanged; callers should have refused the action
// already.
func (e *Engine) Shuffle(ctx context.Context, mode Mode, list []question.Question, locks *LockStore, editing map[question.SlotID]bool) []question.Question {
	out := make([]question.Question, len(list))
	copy(out, list)

	if mode == ModeDisabled {
		return out
	}

	ids := question.SlotIDs(list)
	switch mode {
	case ModeReplace, ModeFresh:
		usedSigs, usedAnswers := e.seedUsed(list, locks, ids)
		for i := range out {
			if out[i].IsFake() || locks.IsPinned(ids[i]) {
				continue
			}
			e.replaceAt(out, i, out[i].Category, usedSigs, usedAnswers)
		}
	case ModeReorder:
		e.reorder(out, locks, ids)
	}

	e.syncDistractors(ctx, out, list, locks, editing)
	return out
}

// seedUsed primes the uniqueness accounting with everything pinned: locked
// content signatures and locked real answers are off-limits to any draw.
func (e *Engine) seedUsed(list []question.Question, locks *LockStore, ids []question.SlotID) (map[question.ContentSignature]struct{}, map[string]struct{}) {
	usedSigs := make(map[question.ContentSignature]struct{})
	usedAnswers := make(map[string]struct{})
	for i, q := range list {
		if !locks.IsPinned(ids[i]) {
			continue
		}
		usedSigs[question.SignatureOf(q)] = struct{}{}
		if !q.IsFake() {
			addAnswer(usedAnswers, q.Answer)
		}
	}
	return usedSigs, usedAnswers
}

// replaceAt applies the per-item replacement rule to position i: eligible
// candidates come from the given category, are not distractors, and collide
// with nothing already accounted for, neither by content signature nor by
// answer text. No candidate means the original stays put; there is never a
// silent category violation.
func (e *Engine) replaceAt(out []question.Question, i int, category string, usedSigs map[question.ContentSignature]struct{}, usedAnswers map[string]struct{}) bool {
	orig := out[i]
	origSig := question.SignatureOf(orig)

	var candidates []question.Question
	for _, c := range e.pool {
		if c.IsFake() || c.Category != category {
			continue
		}
		sig := question.SignatureOf(c)
		if sig == origSig {
			continue
		}
		if _, taken := usedSigs[sig]; taken {
			continue
		}
		if ans := question.NormalizeAnswer(c.Answer); ans != "" {
			if _, taken := usedAnswers[ans]; taken {
				continue
			}
		}
		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		usedSigs[origSig] = struct{}{}
		addAnswer(usedAnswers, orig.Answer)
		return false
	}

	pick := candidates[e.rng.Intn(len(candidates))]
	// A fresh draw carries no stale detector metadata.
	pick.DuplicateGroupID = ""
	pick.DuplicateRepresentative = false
	pick.DuplicateSimilarity = 0

	out[i] = pick
	usedSigs[question.SignatureOf(pick)] = struct{}{}
	addAnswer(usedAnswers, pick.Answer)
	metrics.ReplacementsTotal.Inc()
	return true
}

// reorder permutes the unlocked real questions among their own positions.
// Content never comes from the pool here; the unlocked multiset is
// preserved, distractors and pinned entries hold their slots.
func (e *Engine) reorder(out []question.Question, locks *LockStore, ids []question.SlotID) {
	var positions []int
	for i, q := range out {
		if q.IsFake() || locks.IsPinned(ids[i]) {
			continue
		}
		positions = append(positions, i)
	}
	moved := make([]question.Question, len(positions))
	for n, i := range positions {
		moved[n] = out[i]
	}
	e.rng.Shuffle(len(moved), func(i, j int) {
		moved[i], moved[j] = moved[j], moved[i]
	})
	for n, i := range positions {
		out[i] = moved[n]
	}
}

func addAnswer(set map[string]struct{}, answer string) {
	if norm := question.NormalizeAnswer(answer); norm != "" {
		set[norm] = struct{}{}
	}
}
