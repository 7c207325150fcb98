package question

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// SlotID identifies one working-list entry: content plus the position it
// occupied when derived. Lock sets hold SlotIDs. Two textually identical
// records at different positions get distinct SlotIDs on purpose.
type SlotID string

// ContentSignature identifies question content independent of position. It
// is what sampling uses to avoid drawing a record already in play. Never
// use it for lock-set membership.
type ContentSignature string

// emptyField stands in for a blank field so that two records that are blank
// in different fields cannot hash to the same value.
const emptyField = "<empty>"

// fieldSep is an unprintable separator so field boundaries cannot be forged
// by question text.
var fieldSep = []byte{0x1f}

func fieldOr(s string) string {
	if s == "" {
		return emptyField
	}
	return s
}

// contentFields lists every field that makes two questions different to a
// user, in a fixed order, with explicit placeholders for blanks.
func contentFields(q Question) []string {
	fields := make([]string, 0, MaxOptions+7)
	fields = append(fields,
		fieldOr(q.Kind),
		fieldOr(q.Prompt),
		fieldOr(q.Category),
		fieldOr(q.Answer),
	)
	for i := 0; i < MaxOptions; i++ {
		fields = append(fields, fieldOr(q.Option(i)))
	}
	fields = append(fields, fieldOr(q.Image), strconv.FormatBool(q.LongForm))
	return fields
}

func digest(fields []string) string {
	h := sha256.New()
	for i, f := range fields {
		if i > 0 {
			h.Write(fieldSep)
		}
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SlotIDOf derives the position-qualified identifier for q at index. Pure
// and deterministic; hashing raw bytes means no content can make it fail.
func SlotIDOf(q Question, index int) SlotID {
	fields := append(contentFields(q), strconv.Itoa(index))
	return SlotID(digest(fields))
}

// SignatureOf derives the position-independent content signature for q.
func SignatureOf(q Question) ContentSignature {
	return ContentSignature(digest(contentFields(q)))
}

// SlotIDs derives the identifier of every entry at its current position.
func SlotIDs(list []Question) []SlotID {
	ids := make([]SlotID, len(list))
	for i, q := range list {
		ids[i] = SlotIDOf(q, i)
	}
	return ids
}
