package kb

import (
	"time"

	"github.com/araddon/dateparse"

	"github.com/hashicorp-forge/notion-helper/pkg/notion"
)

// splitDate is the first day counted as "future". Calendar days are UTC.
const splitDate = "2023-08-01"

// DefaultSplitDate is the start of splitDate in UTC.
var DefaultSplitDate = mustParseDate(splitDate)

func mustParseDate(s string) time.Time {
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

// Partition splits pages into those created strictly before boundary and the
// rest. Every page lands in exactly one of the two slices, order preserved.
func Partition(pages []notion.Page, boundary time.Time) (past, future []notion.Page) {
	past = []notion.Page{}
	future = []notion.Page{}
	for _, p := range pages {
		if p.CreatedTime.Before(boundary) {
			past = append(past, p)
		} else {
			future = append(future, p)
		}
	}
	return past, future
}
