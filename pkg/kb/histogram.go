package kb

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp-forge/notion-helper/pkg/notion"
)

// DateLayout formats the keys of the date histogram.
const DateLayout = "2006-01-02"

// DefaultSkillProperty is the multi_select property holding the skill areas
// of an article.
const DefaultSkillProperty = "Skill/Area"

// Histogram counts occurrences per key.
type Histogram map[string]int

// Entry is a single histogram bucket. It serializes as a [key, count] pair.
type Entry struct {
	Key   string
	Count int
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Key, e.Count})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("histogram entry must have 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.Key); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &e.Count)
}

// Total returns the sum of all counts.
func (h Histogram) Total() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

// Entries returns all buckets ordered by count descending, then key
// ascending. This is the only ordering used for ranking, so ties always
// resolve the same way.
func (h Histogram) Entries() []Entry {
	entries := make([]Entry, 0, len(h))
	for k, n := range h {
		entries = append(entries, Entry{Key: k, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// EntriesByKey returns all buckets ordered by key ascending.
func (h Histogram) EntriesByKey() []Entry {
	entries := make([]Entry, 0, len(h))
	for k, n := range h {
		entries = append(entries, Entry{Key: k, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// Top returns at most n buckets in Entries order.
func (h Histogram) Top(n int) []Entry {
	entries := h.Entries()
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// Max returns the bucket with the highest count; ties go to the smallest key.
func (h Histogram) Max() (Entry, bool) {
	top := h.Top(1)
	if len(top) == 0 {
		return Entry{}, false
	}
	return top[0], true
}

// SkillAreaHistogram counts every option of the named multi_select property.
// A page contributes once per selected option.
func SkillAreaHistogram(pages []notion.Page, property string) (Histogram, error) {
	h := Histogram{}
	for i := range pages {
		options, err := pages[i].MultiSelect(property)
		if err != nil {
			return nil, err
		}
		for _, opt := range options {
			h[opt.Name]++
		}
	}
	return h, nil
}

// AuthorshipHistogram counts pages per creating user id.
func AuthorshipHistogram(pages []notion.Page) Histogram {
	h := Histogram{}
	for _, p := range pages {
		h[p.CreatedBy.ID]++
	}
	return h
}

// DateHistogram counts pages per UTC creation day.
func DateHistogram(pages []notion.Page) Histogram {
	h := Histogram{}
	for _, p := range pages {
		h[p.CreatedTime.In(time.UTC).Format(DateLayout)]++
	}
	return h
}
