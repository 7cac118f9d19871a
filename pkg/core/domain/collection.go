package domain

import (
	"strconv"
	"time"
)

// Column is a curated named collection of external links.
type Column struct {
	ID          int64        `json:"id"`
	DocumentID  string       `json:"documentId,omitempty"`
	Title       string       `json:"title"`
	Slug        string       `json:"slug"`
	Description string       `json:"description"`
	CoverID     *int64       `json:"cover,omitempty"`
	AuthorID    *int64       `json:"author,omitempty"`
	Links       []LinkRecord `json:"links"`
	UpdatedAt   time.Time    `json:"updatedAt,omitempty"`
	PublishedAt *time.Time   `json:"publishedAt,omitempty"`
}

// StorageID is the numeric identifier as an alias string, empty when unknown.
func (c *Column) StorageID() string {
	if c == nil || c.ID == 0 {
		return ""
	}
	return strconv.FormatInt(c.ID, 10)
}

// ColumnForm is the full edit form of a column. Links is the complete list
// the form holds, which may be incomplete if the form lost rows.
type ColumnForm struct {
	Title       string       `json:"title" validate:"required"`
	Slug        string       `json:"slug" validate:"required"`
	Description string       `json:"description"`
	CoverID     *int64       `json:"cover"`
	AuthorID    *int64       `json:"author"`
	Links       []LinkRecord `json:"links"`
}

// ColumnRef groups the identifier aliases of one logical column. Aliases are
// tried in the order documentId, storage id, requested id.
type ColumnRef struct {
	DocumentID string `json:"documentId,omitempty"`
	StorageID  string `json:"storageId,omitempty"`
	Requested  string `json:"requested,omitempty"`
}

// Canonical is the key the column is tracked under internally.
func (r ColumnRef) Canonical() string {
	switch {
	case r.DocumentID != "":
		return r.DocumentID
	case r.StorageID != "":
		return r.StorageID
	}
	return r.Requested
}

// Aliases returns the distinct non-empty aliases in preference order.
func (r ColumnRef) Aliases() []string {
	out := make([]string, 0, 3)
	for _, a := range []string{r.DocumentID, r.StorageID, r.Requested} {
		if a == "" {
			continue
		}
		dup := false
		for _, seen := range out {
			if seen == a {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, a)
		}
	}
	return out
}

// With merges the aliases learned from a fetched column into the ref.
func (r ColumnRef) With(c *Column) ColumnRef {
	if c == nil {
		return r
	}
	if c.DocumentID != "" {
		r.DocumentID = c.DocumentID
	}
	if id := c.StorageID(); id != "" {
		r.StorageID = id
	}
	return r
}

// AppendResult is what a successful link append reports back.
type AppendResult struct {
	Column *Column      `json:"column"`
	Added  []LinkRecord `json:"added"`
	Alias  string       `json:"alias"`
	Ref    ColumnRef    `json:"ref"`
}

// Clone returns a copy whose link slice is not shared with c.
func (c *Column) Clone() *Column {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Links != nil {
		cp.Links = make([]LinkRecord, len(c.Links))
		copy(cp.Links, c.Links)
	}
	return &cp
}
