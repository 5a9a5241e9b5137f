// Package kb analyses the rows of a knowledge base database stored in Notion:
// it fetches every row, splits them around a fixed date and builds frequency
// histograms over the newer half.
package kb

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp-forge/notion-helper/pkg/notion"
)

// ErrNoChildDatabase is returned when the root page has no child database
// block.
var ErrNoChildDatabase = errors.New("no child database found under the root page")

// RowQuerier returns one batch of database rows per call.
type RowQuerier interface {
	QueryDatabase(ctx context.Context, databaseID, cursor string) (*notion.PageList, error)
}

// BlockLister returns one batch of block children per call.
type BlockLister interface {
	ListBlockChildren(ctx context.Context, blockID, cursor string) (*notion.BlockList, error)
}

// UserLister returns one batch of workspace users.
type UserLister interface {
	ListUsers(ctx context.Context, pageSize int) (*notion.UserList, error)
}

// FetchAllRows queries the database batch by batch, starting without a
// cursor and following next_cursor until the provider reports no more rows.
// Rows are returned in batch order.
func FetchAllRows(ctx context.Context, q RowQuerier, databaseID string) ([]notion.Page, error) {
	var (
		rows   []notion.Page
		cursor string
	)

	for batch := 1; ; batch++ {
		resp, err := q.QueryDatabase(ctx, databaseID, cursor)
		if err != nil {
			return nil, fmt.Errorf("error fetching batch %d: %w", batch, err)
		}
		rows = append(rows, resp.Results...)

		if !resp.HasMore {
			return rows, nil
		}
		cursor = resp.Cursor()
		if cursor == "" {
			return nil, fmt.Errorf("batch %d reported more rows without a cursor", batch)
		}
	}
}

// FullPages drops partial rows that only carry an id.
func FullPages(rows []notion.Page) []notion.Page {
	full := make([]notion.Page, 0, len(rows))
	for _, row := range rows {
		if row.IsFull() {
			full = append(full, row)
		}
	}
	return full
}

// FindChildDatabase returns the first child_database block beneath pageID.
func FindChildDatabase(ctx context.Context, l BlockLister, pageID string) (*notion.Block, error) {
	var cursor string
	for {
		resp, err := l.ListBlockChildren(ctx, pageID, cursor)
		if err != nil {
			return nil, err
		}

		for i := range resp.Results {
			if resp.Results[i].Type == notion.BlockTypeChildDatabase {
				return &resp.Results[i], nil
			}
		}

		cursor = resp.Cursor()
		if !resp.HasMore || cursor == "" {
			return nil, ErrNoChildDatabase
		}
	}
}
