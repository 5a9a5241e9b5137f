package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// UserPageSize bounds the single user listing call.
const UserPageSize = 100

// AuthorInfo is the display data of an author.
type AuthorInfo struct {
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

// Authors maps user ids to their display data.
type Authors map[string]AuthorInfo

// NameOf returns the display name of id, or "<unknown>".
func (a Authors) NameOf(id string) string {
	if info, ok := a[id]; ok {
		return info.Name
	}
	return "<unknown>"
}

// AuthorRecord is an (id, info) pair. It serializes as [id, {name, avatar}].
type AuthorRecord struct {
	ID   string
	Info AuthorInfo
}

// MarshalJSON implements json.Marshaler.
func (r AuthorRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.ID, r.Info})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *AuthorRecord) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("author record must have 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &r.ID); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &r.Info)
}

// Records returns the authors ordered by id.
func (a Authors) Records() []AuthorRecord {
	records := make([]AuthorRecord, 0, len(a))
	for id, info := range a {
		records = append(records, AuthorRecord{ID: id, Info: info})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	return records
}

// ResolveAuthors lists the workspace users once and keeps those that appear
// in authorship and have a display name.
func ResolveAuthors(ctx context.Context, l UserLister, authorship Histogram) (Authors, error) {
	users, err := l.ListUsers(ctx, UserPageSize)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	authors := Authors{}
	for _, u := range users.Results {
		if _, ok := authorship[u.ID]; !ok || u.Name == "" {
			continue
		}
		authors[u.ID] = AuthorInfo{Name: u.Name, Avatar: u.AvatarURL}
	}
	return authors, nil
}
