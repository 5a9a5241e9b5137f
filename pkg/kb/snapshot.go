package kb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/afero"
)

// DefaultSnapshotFile is where the snapshot of a run is written.
const DefaultSnapshotFile = "data.json"

// Snapshot is the serialized summary of one run.
type Snapshot struct {
	PerformedAt          time.Time      `json:"performedAt"`
	AnalysisStartedAt    time.Time      `json:"analysisStartedAt"`
	DatabaseID           string         `json:"databaseId"`
	DatabaseTitle        string         `json:"databaseTitle"`
	SkillAreaHistogram   []Entry        `json:"skillAreaHistogram"`
	AuthorshipHistogram  []Entry        `json:"authorshipHistogram"`
	AuthorshipData       []AuthorRecord `json:"authorshipData"`
	PastArticlesLength   int            `json:"pastArticlesLength"`
	FutureArticlesLength int            `json:"futureArticlesLength"`
	TotalArticlesLength  int            `json:"totalArticlesLength"`
	DateHistogram        []Entry        `json:"dateHistogram"`
}

// Snapshot builds the serializable view of the result.
func (r *Result) Snapshot() Snapshot {
	return Snapshot{
		PerformedAt:          r.PerformedAt,
		AnalysisStartedAt:    r.SplitDate,
		DatabaseID:           r.DatabaseID,
		DatabaseTitle:        r.DatabaseTitle,
		SkillAreaHistogram:   r.SkillAreas.Entries(),
		AuthorshipHistogram:  r.Authorship.Entries(),
		AuthorshipData:       r.Authors.Records(),
		PastArticlesLength:   len(r.Past),
		FutureArticlesLength: len(r.Future),
		TotalArticlesLength:  r.TotalArticles,
		DateHistogram:        r.Dates.EntriesByKey(),
	}
}

// WriteSnapshot writes s to path, replacing any previous content.
func WriteSnapshot(fs afero.Fs, path string, s Snapshot) error {
	if path == "" {
		path = DefaultSnapshotFile
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("error encoding snapshot: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("error writing snapshot %s: %w", path, err)
	}
	return nil
}
