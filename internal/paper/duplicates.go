package paper

import (
	"context"
	"errors"

	"github.com/juliaizbroke/SeniorProject1-sub000/internal/question"
)

// ErrSurvivorNotInGroup is returned when the designated survivor is not a
// present member of the group being resolved.
var ErrSurvivorNotInGroup = errors.New("survivor is not a member of the group")

// Group summarizes one active duplicate group for display. A group is
// active only while two or more members are present in the working list;
// anything smaller is inert and hidden.
type Group struct {
	ID             string  `json:"id"`
	Indexes        []int   `json:"indexes"`
	Representative int     `json:"representative"`
	MaxSimilarity  float64 `json:"max_similarity"`
}

// ActiveGroups collects the duplicate groups with at least two members in
// the list, in first-seen order. Representative is the index the external
// detector suggests keeping, or -1.
func ActiveGroups(list []question.Question) []Group {
	byID := make(map[string]*Group)
	var order []string
	for i, q := range list {
		gid := q.DuplicateGroupID
		if gid == "" {
			continue
		}
		g, ok := byID[gid]
		if !ok {
			g = &Group{ID: gid, Representative: -1}
			byID[gid] = g
			order = append(order, gid)
		}
		g.Indexes = append(g.Indexes, i)
		if q.DuplicateRepresentative {
			g.Representative = i
		}
		if q.DuplicateSimilarity > g.MaxSimilarity {
			g.MaxSimilarity = q.DuplicateSimilarity
		}
	}

	var active []Group
	for _, gid := range order {
		if g := byID[gid]; len(g.Indexes) >= 2 {
			active = append(active, *g)
		}
	}
	return active
}

// ResolveKeepOne keeps the member at survivorIndex and replaces every other
// member of the group with a pool alternate from the survivor's category,
// using the same per-item rule as a shuffle pass. The survivor is pinned
// for the duration so the pass cannot target it, then released. Group
// metadata is cleared from every member, survivor included. The list never
// shrinks: a member with no eligible alternate keeps its content and only
// loses its metadata.
//
// Resolving an inert group (fewer than two members present) is a no-op.
func (e *Engine) ResolveKeepOne(ctx context.Context, list []question.Question, locks *LockStore, editing map[question.SlotID]bool, groupID string, survivorIndex int) ([]question.Question, error) {
	out := make([]question.Question, len(list))
	copy(out, list)

	members := memberIndexes(list, groupID)
	if len(members) < 2 {
		return out, nil
	}
	if !containsIndex(members, survivorIndex) {
		return nil, ErrSurvivorNotInGroup
	}

	survivor := list[survivorIndex]
	survivorID := question.SlotIDOf(survivor, survivorIndex)

	tempPin := !locks.IsPinned(survivorID)
	if tempPin {
		locks.Pin(ctx, survivorID)
	}

	ids := question.SlotIDs(list)

	// Conservative seeding: nothing currently on the paper may be drawn
	// again, and no placed real answer may be reused.
	usedSigs := make(map[question.ContentSignature]struct{}, len(list))
	usedAnswers := make(map[string]struct{})
	for _, q := range list {
		usedSigs[question.SignatureOf(q)] = struct{}{}
		if !q.IsFake() {
			addAnswer(usedAnswers, q.Answer)
		}
	}

	for _, i := range members {
		if i == survivorIndex || locks.IsPinned(ids[i]) {
			continue
		}
		e.replaceAt(out, i, survivor.Category, usedSigs, usedAnswers)
	}

	for _, i := range members {
		clearDuplicateMeta(&out[i])
	}

	e.syncDistractors(ctx, out, list, locks, editing)

	if tempPin {
		locks.Unpin(ctx, survivorID)
	}
	return out, nil
}

// ResolveIgnore dismisses a group: metadata is cleared from every member,
// content stays put. Inert groups are left alone.
func ResolveIgnore(list []question.Question, groupID string) []question.Question {
	out := make([]question.Question, len(list))
	copy(out, list)

	members := memberIndexes(list, groupID)
	if len(members) < 2 {
		return out
	}
	for _, i := range members {
		clearDuplicateMeta(&out[i])
	}
	return out
}

func memberIndexes(list []question.Question, groupID string) []int {
	if groupID == "" {
		return nil
	}
	var members []int
	for i, q := range list {
		if q.DuplicateGroupID == groupID {
			members = append(members, i)
		}
	}
	return members
}

func containsIndex(indexes []int, want int) bool {
	for _, i := range indexes {
		if i == want {
			return true
		}
	}
	return false
}

func clearDuplicateMeta(q *question.Question) {
	q.DuplicateGroupID = ""
	q.DuplicateRepresentative = false
	q.DuplicateSimilarity = 0
}
