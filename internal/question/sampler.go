package question

// QuotaSettings maps a category to how many questions the paper should draw
// from it.
type QuotaSettings map[string]int

// SampleQuota seeds a working list: for every (kind, category) pair present
// in the pool it draws the requested count for that category uniformly
// without replacement from the pair's subset. Asking for more than exists
// yields everything available; categories without a setting contribute
// nothing. The pool itself is never mutated.
func SampleQuota(pool []Question, settings QuotaSettings, rng Rand) []Question {
	type pair struct{ kind, category string }

	buckets := make(map[pair][]Question)
	var order []pair
	for _, q := range pool {
		k := pair{q.Kind, q.Category}
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], q)
	}

	var selected []Question
	for _, k := range order {
		want := settings[k.category]
		if want <= 0 {
			continue
		}
		subset := buckets[k]
		if want > len(subset) {
			want = len(subset)
		}
		drawn := make([]Question, len(subset))
		copy(drawn, subset)
		rng.Shuffle(len(drawn), func(i, j int) {
			drawn[i], drawn[j] = drawn[j], drawn[i]
		})
		selected = append(selected, drawn[:want]...)
	}
	return selected
}
