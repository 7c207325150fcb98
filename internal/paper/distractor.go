package paper

import (
	"context"

	"github.com/juliaizbroke/SeniorProject1-sub000/internal/question"
)

// syncDistractors redraws unlocked fake answers so no distractor text
// collides with any real answer now in play, or with another distractor.
// It runs after every resampling pass. pre is the list as it stood before
// the pass: distractor positions and content are untouched by the modes, so
// pre yields the identifiers the lock sets currently know.
//
// Skipped outright: pinned fakes, fakes mid-edit, and unfilled manual
// distractors still waiting for user input. A fake whose category is locked
// only draws from that category. When no candidate survives the filters the
// existing fake stays; that is a documented degradation, not an error.
func (e *Engine) syncDistractors(ctx context.Context, out, pre []question.Question, locks *LockStore, editing map[question.SlotID]bool) {
	preIDs := question.SlotIDs(pre)

	realAnswers := make(map[string]struct{})
	for _, q := range out {
		if !q.IsFake() {
			addAnswer(realAnswers, q.Answer)
		}
	}

	keep := func(i int) bool {
		id := preIDs[i]
		return locks.IsPinned(id) || editing[id] || out[i].IsManualUnfilled()
	}

	// Answers of distractors that will not be redrawn are claimed up front
	// so a redraw cannot collide with them.
	fakeAnswers := make(map[string]struct{})
	for i, q := range out {
		if q.IsFake() && keep(i) {
			addAnswer(fakeAnswers, q.Answer)
		}
	}

	for i := range out {
		if !out[i].IsFake() || keep(i) {
			continue
		}

		categoryLocked := locks.IsCategoryLocked(preIDs[i])
		wantCategory := out[i].SourceCategory()

		var candidates []question.Question
		for _, c := range e.pool {
			if c.IsFake() {
				continue
			}
			if categoryLocked && c.Category != wantCategory {
				continue
			}
			ans := question.NormalizeAnswer(c.Answer)
			if ans == "" {
				continue
			}
			if _, taken := realAnswers[ans]; taken {
				continue
			}
			if _, taken := fakeAnswers[ans]; taken {
				continue
			}
			candidates = append(candidates, c)
		}

		if len(candidates) == 0 {
			addAnswer(fakeAnswers, out[i].Answer)
			continue
		}

		pick := candidates[e.rng.Intn(len(candidates))]
		out[i] = question.AsFake(pick)
		addAnswer(fakeAnswers, pick.Answer)
	}

	// Category locks travel with position for distractors: whatever lock the
	// previous occupant of a slot held now applies to the new occupant.
	for i := range out {
		if !out[i].IsFake() {
			continue
		}
		if newID := question.SlotIDOf(out[i], i); newID != preIDs[i] {
			locks.ReplaceCategoryLock(ctx, preIDs[i], newID)
		}
	}
}
