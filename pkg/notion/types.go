package notion

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Object type discriminators returned in the "object" field.
const (
	ObjectPage     = "page"
	ObjectDatabase = "database"
	ObjectBlock    = "block"
	ObjectUser     = "user"
	ObjectList     = "list"
	ObjectError    = "error"
)

// BlockTypeChildDatabase is the block type of an inline or full-page database
// nested under a page.
const BlockTypeChildDatabase = "child_database"

// PropertyTypeMultiSelect is the property type of a multi-valued select.
const PropertyTypeMultiSelect = "multi_select"

// PartialUser is the user reference embedded in pages and blocks.
type PartialUser struct {
	Object string `json:"object"`
	ID     string `json:"id"`
}

// Parent describes where a page, block or database lives.
type Parent struct {
	Type       string `json:"type"`
	PageID     string `json:"page_id,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
	BlockID    string `json:"block_id,omitempty"`
	Workspace  bool   `json:"workspace,omitempty"`
}

// Page is a Notion page. Rows of a database are pages too.
//
// Query results may contain partial pages that carry only the object type and
// id; those have a nil Parent.
type Page struct {
	Object         string                    `json:"object"`
	ID             string                    `json:"id"`
	CreatedTime    time.Time                 `json:"created_time"`
	LastEditedTime time.Time                 `json:"last_edited_time"`
	CreatedBy      PartialUser               `json:"created_by"`
	Parent         *Parent                   `json:"parent,omitempty"`
	Archived       bool                      `json:"archived"`
	URL            string                    `json:"url,omitempty"`
	Properties     map[string]map[string]any `json:"properties,omitempty"`
}

// IsFull reports whether the page carries full page attributes.
func (p *Page) IsFull() bool {
	return p.Parent != nil
}

// SelectOption is a single option of a select or multi_select property.
type SelectOption struct {
	ID    string `mapstructure:"id"`
	Name  string `mapstructure:"name"`
	Color string `mapstructure:"color"`
}

type multiSelectProperty struct {
	ID          string         `mapstructure:"id"`
	Type        string         `mapstructure:"type"`
	MultiSelect []SelectOption `mapstructure:"multi_select"`
}

// MultiSelect returns the options selected in the named multi_select
// property. A missing property, or one of another type, yields no options.
func (p *Page) MultiSelect(name string) ([]SelectOption, error) {
	raw, ok := p.Properties[name]
	if !ok {
		return nil, nil
	}

	var prop multiSelectProperty
	if err := mapstructure.Decode(raw, &prop); err != nil {
		return nil, fmt.Errorf("error decoding property %q of page %s: %w", name, p.ID, err)
	}
	if prop.Type != PropertyTypeMultiSelect {
		return nil, nil
	}

	return prop.MultiSelect, nil
}

// RichText is a fragment of formatted text.
type RichText struct {
	Type      string `json:"type"`
	PlainText string `json:"plain_text"`
	Href      string `json:"href,omitempty"`
}

// ChildDatabase is the payload of a child_database block.
type ChildDatabase struct {
	Title string `json:"title"`
}

// Block is a content block. Only the fields needed to locate child databases
// are decoded.
type Block struct {
	Object        string         `json:"object"`
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	HasChildren   bool           `json:"has_children"`
	CreatedTime   time.Time      `json:"created_time"`
	ChildDatabase *ChildDatabase `json:"child_database,omitempty"`
}

// Database is a Notion database.
type Database struct {
	Object      string     `json:"object"`
	ID          string     `json:"id"`
	CreatedTime time.Time  `json:"created_time"`
	Title       []RichText `json:"title"`
	URL         string     `json:"url,omitempty"`
}

// PlainTitle joins the title fragments into plain text.
func (d *Database) PlainTitle() string {
	var b strings.Builder
	for _, t := range d.Title {
		b.WriteString(t.PlainText)
	}
	return b.String()
}

// User is a workspace member or bot.
type User struct {
	Object    string  `json:"object"`
	ID        string  `json:"id"`
	Type      string  `json:"type,omitempty"`
	Name      string  `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// List holds the pagination envelope shared by all list responses.
type List struct {
	Object     string  `json:"object"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// Cursor returns the cursor for the next batch, or "" when there is none.
func (l List) Cursor() string {
	if l.NextCursor == nil {
		return ""
	}
	return *l.NextCursor
}

// PageList is one batch of database query results.
type PageList struct {
	List
	Results []Page `json:"results"`
}

// BlockList is one batch of block children.
type BlockList struct {
	List
	Results []Block `json:"results"`
}

// UserList is one batch of workspace users.
type UserList struct {
	List
	Results []User `json:"results"`
}
