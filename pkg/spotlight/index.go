package spotlight

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Item is one searchable entry. Label is matched; Detail is matched too but
// ranks below a label hit of the same distance.
type Item struct {
	Key    string
	Label  string
	Detail string
}

type Match struct {
	Item
	Distance int
}

type Index struct {
	items []Item
}

func NewIndex(items ...Item) *Index {
	idx := &Index{}
	idx.Add(items...)
	return idx
}

func (idx *Index) Add(items ...Item) {
	idx.items = append(idx.items, items...)
}

func (idx *Index) Len() int {
	return len(idx.items)
}

// Find ranks items by fuzzy, case- and accent-insensitive match. A blank
// query returns every item in insertion order.
func (idx *Index) Find(q string) []Match {
	q = strings.TrimSpace(q)
	if q == "" {
		out := make([]Match, len(idx.items))
		for i, it := range idx.items {
			out[i] = Match{Item: it}
		}
		return out
	}

	labels := make([]string, len(idx.items))
	details := make([]string, len(idx.items))
	for i, it := range idx.items {
		labels[i] = it.Label
		details[i] = it.Detail
	}

	best := map[int]int{}
	ranks := fuzzy.RankFindNormalizedFold(q, labels)
	for _, r := range ranks {
		best[r.OriginalIndex] = r.Distance
	}
	for _, r := range fuzzy.RankFindNormalizedFold(q, details) {
		// Detail hits sort after label hits with the same distance.
		d := r.Distance + 1
		if cur, ok := best[r.OriginalIndex]; !ok || d < cur {
			best[r.OriginalIndex] = d
		}
	}

	out := make([]Match, 0, len(best))
	for i, d := range best {
		out = append(out, Match{Item: idx.items[i], Distance: d})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Distance != out[b].Distance {
			return out[a].Distance < out[b].Distance
		}
		return out[a].Key < out[b].Key
	})
	return out
}
