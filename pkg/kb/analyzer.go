package kb

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/notion-helper/pkg/notion"
)

// Source is the subset of the Notion API the analyzer reads from.
type Source interface {
	RowQuerier
	BlockLister
	UserLister
	RetrievePage(ctx context.Context, pageID string) (*notion.Page, error)
	RetrieveDatabase(ctx context.Context, databaseID string) (*notion.Database, error)
}

var _ Source = (*notion.Client)(nil)

// Analyzer runs the fetch and aggregate pipeline for one knowledge base.
type Analyzer struct {
	source        Source
	logger        hclog.Logger
	boundary      time.Time
	skillProperty string
	now           func() time.Time
}

// AnalyzerOptions configures an Analyzer.
type AnalyzerOptions struct {
	Logger hclog.Logger

	// SplitDate separates past from future articles.
	// Default: DefaultSplitDate
	SplitDate time.Time

	// SkillProperty names the multi_select property to histogram.
	// Default: DefaultSkillProperty
	SkillProperty string

	// Now stamps the run. Default: time.Now
	Now func() time.Time
}

// NewAnalyzer creates an Analyzer reading from source.
func NewAnalyzer(source Source, opts AnalyzerOptions) *Analyzer {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.SplitDate.IsZero() {
		opts.SplitDate = DefaultSplitDate
	}
	if opts.SkillProperty == "" {
		opts.SkillProperty = DefaultSkillProperty
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Analyzer{
		source:        source,
		logger:        opts.Logger.Named("analyzer"),
		boundary:      opts.SplitDate,
		skillProperty: opts.SkillProperty,
		now:           opts.Now,
	}
}

// Result holds every aggregate of one run.
type Result struct {
	PerformedAt   time.Time
	SplitDate     time.Time
	DatabaseID    string
	DatabaseTitle string

	// TotalArticles counts every fetched row, partial rows included.
	TotalArticles int
	Past          []notion.Page
	Future        []notion.Page

	SkillAreas Histogram
	Authorship Histogram
	Dates      Histogram
	Authors    Authors
}

// Run resolves the root page, locates its child database, fetches all rows
// and aggregates the rows created on or after the split date. Any API error
// aborts the run.
func (a *Analyzer) Run(ctx context.Context, rootPageID string) (*Result, error) {
	page, err := a.source.RetrievePage(ctx, rootPageID)
	if err != nil {
		return nil, err
	}

	block, err := FindChildDatabase(ctx, a.source, page.ID)
	if err != nil {
		return nil, fmt.Errorf("error locating knowledge base database: %w", err)
	}

	db, err := a.source.RetrieveDatabase(ctx, block.ID)
	if err != nil {
		return nil, err
	}
	a.logger.Info("fetching knowledge base rows", "database_id", db.ID, "title", db.PlainTitle())

	rows, err := FetchAllRows(ctx, a.source, db.ID)
	if err != nil {
		return nil, fmt.Errorf("error fetching rows of database %s: %w", db.ID, err)
	}

	full := FullPages(rows)
	if skipped := len(rows) - len(full); skipped > 0 {
		a.logger.Debug("skipped partial rows", "count", skipped)
	}

	past, future := Partition(full, a.boundary)
	a.logger.Debug("partitioned rows",
		"split_date", a.boundary.Format(DateLayout),
		"past", len(past),
		"future", len(future),
	)

	skills, err := SkillAreaHistogram(future, a.skillProperty)
	if err != nil {
		return nil, err
	}
	authorship := AuthorshipHistogram(future)

	authors, err := ResolveAuthors(ctx, a.source, authorship)
	if err != nil {
		return nil, err
	}

	return &Result{
		PerformedAt:   a.now().UTC(),
		SplitDate:     a.boundary,
		DatabaseID:    db.ID,
		DatabaseTitle: db.PlainTitle(),
		TotalArticles: len(rows),
		Past:          past,
		Future:        future,
		SkillAreas:    skills,
		Authorship:    authorship,
		Dates:         DateHistogram(future),
		Authors:       authors,
	}, nil
}

// Summary holds the article counts of a run.
type Summary struct {
	Total  int
	Past   int
	Future int

	// Delta is Total minus Past.
	Delta int

	// Growth is Future as a percentage of Total; 0 when Total is 0.
	Growth float64
}

// GrowthString formats Growth with two decimals.
func (s Summary) GrowthString() string {
	return fmt.Sprintf("%.2f", s.Growth)
}

// Summary computes the article counts.
func (r *Result) Summary() Summary {
	s := Summary{
		Total:  r.TotalArticles,
		Past:   len(r.Past),
		Future: len(r.Future),
		Delta:  r.TotalArticles - len(r.Past),
	}
	if s.Total > 0 {
		s.Growth = float64(s.Future) / float64(s.Total) * 100.0
	}
	return s
}
