package domain

import (
	"strconv"
	"time"
)

// Entry is an editorial document (article, event, video episode). The
// common fields are typed; everything else the content type defines travels
// in Fields untouched.
type Entry struct {
	ID          int64          `json:"id"`
	DocumentID  string         `json:"documentId,omitempty"`
	Kind        string         `json:"kind"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	PublishDate *time.Time     `json:"publishDate,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
}

// Ref returns the alias set the CMS accepts for this entry.
func (e *Entry) Ref() ColumnRef {
	ref := ColumnRef{DocumentID: e.DocumentID}
	if e.ID != 0 {
		ref.StorageID = strconv.FormatInt(e.ID, 10)
	}
	return ref
}

// EntryInput is the create/update payload for an entry.
type EntryInput struct {
	Title       string         `json:"title" validate:"required"`
	Slug        string         `json:"slug" validate:"required"`
	PublishDate *time.Time     `json:"publishDate"`
	Fields      map[string]any `json:"fields"`
}

// Attributes flattens the input into the CMS data object.
func (in EntryInput) Attributes() map[string]any {
	data := make(map[string]any, len(in.Fields)+3)
	for k, v := range in.Fields {
		data[k] = v
	}
	data["title"] = in.Title
	data["slug"] = in.Slug
	if in.PublishDate != nil && !in.PublishDate.IsZero() {
		data["publishDate"] = in.PublishDate.UTC().Format(time.RFC3339)
	} else {
		data["publishDate"] = nil
	}
	return data
}

// ListOptions narrows list queries against the CMS.
type ListOptions struct {
	Limit    int
	Start    int // offset of the first row, for paging
	Sort     []string
	Populate []string
	Filters  map[string]string // flattened, e.g. "filters[slug][$eq]" => "x"
}
