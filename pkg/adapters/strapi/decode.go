package strapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
)

// envelope is the outer shape of every Strapi REST response.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  json.RawMessage `json:"meta,omitempty"`
	Error *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Status  int    `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// entityHead carries the identity of an entity in both the flat (v5) shape
// and the nested {id, attributes:{...}} (v4) shape.
type entityHead struct {
	ID         int64           `json:"id"`
	DocumentID string          `json:"documentId"`
	Attributes json.RawMessage `json:"attributes"`
}

// splitEntity returns the identity of an entity and the object holding its
// fields, whichever shape it came in.
func splitEntity(raw json.RawMessage) (entityHead, json.RawMessage, error) {
	var head entityHead
	if err := json.Unmarshal(raw, &head); err != nil {
		return head, nil, err
	}
	if isJSONObject(head.Attributes) {
		return head, head.Attributes, nil
	}
	return head, raw, nil
}

type columnAttrs struct {
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description *string         `json:"description"`
	Cover       json.RawMessage `json:"cover"`
	Author      json.RawMessage `json:"author"`
	Links       []wireLink      `json:"links"`
	UpdatedAt   flexTime        `json:"updatedAt"`
	PublishedAt flexTime        `json:"publishedAt"`
}

type wireLinkFields struct {
	Label       string   `json:"label"`
	URL         string   `json:"url"`
	Description *string  `json:"description"`
	PublishDate flexTime `json:"publishDate"`
}

// wireLink accepts link components flat or wrapped in attributes.
type wireLink struct {
	wireLinkFields
	Attributes *wireLinkFields `json:"attributes"`
}

func (w wireLink) record() domain.LinkRecord {
	f := w.wireLinkFields
	if a := w.Attributes; a != nil {
		if f.Label == "" {
			f.Label = a.Label
		}
		if f.URL == "" {
			f.URL = a.URL
		}
		if f.Description == nil {
			f.Description = a.Description
		}
		if f.PublishDate.Time == nil {
			f.PublishDate = a.PublishDate
		}
	}
	return domain.LinkRecord{
		Label:       f.Label,
		URL:         f.URL,
		Description: f.Description,
		PublishDate: f.PublishDate.Time,
	}.Canonical()
}

func decodeColumn(raw json.RawMessage) (*domain.Column, error) {
	head, fields, err := splitEntity(raw)
	if err != nil {
		return nil, err
	}
	var attrs columnAttrs
	if err := json.Unmarshal(fields, &attrs); err != nil {
		return nil, err
	}

	col := &domain.Column{
		ID:          head.ID,
		DocumentID:  head.DocumentID,
		Title:       attrs.Title,
		Slug:        attrs.Slug,
		CoverID:     relationID(attrs.Cover),
		AuthorID:    relationID(attrs.Author),
		Links:       make([]domain.LinkRecord, 0, len(attrs.Links)),
		PublishedAt: attrs.PublishedAt.Time,
	}
	if attrs.Description != nil {
		col.Description = *attrs.Description
	}
	if attrs.UpdatedAt.Time != nil {
		col.UpdatedAt = *attrs.UpdatedAt.Time
	}
	for _, l := range attrs.Links {
		col.Links = append(col.Links, l.record())
	}
	return col, nil
}

func decodeColumns(raw json.RawMessage) ([]domain.Column, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]domain.Column, 0, len(items))
	for _, item := range items {
		col, err := decodeColumn(item)
		if err != nil {
			return nil, err
		}
		out = append(out, *col)
	}
	return out, nil
}

// entryReserved are attributes lifted into typed Entry fields or dropped.
var entryReserved = map[string]bool{
	"id": true, "documentId": true, "title": true, "slug": true, "publishDate": true,
}

func decodeEntry(kind string, raw json.RawMessage) (*domain.Entry, error) {
	head, fields, err := splitEntity(raw)
	if err != nil {
		return nil, err
	}
	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(fields, &attrs); err != nil {
		return nil, err
	}

	entry := &domain.Entry{
		ID:         head.ID,
		DocumentID: head.DocumentID,
		Kind:       kind,
		Fields:     make(map[string]any, len(attrs)),
	}
	_ = json.Unmarshal(attrs["title"], &entry.Title)
	_ = json.Unmarshal(attrs["slug"], &entry.Slug)
	if v, ok := attrs["publishDate"]; ok {
		var ft flexTime
		if err := json.Unmarshal(v, &ft); err == nil {
			entry.PublishDate = ft.Time
		}
	}
	for k, v := range attrs {
		if entryReserved[k] {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err == nil {
			entry.Fields[k] = val
		}
	}
	return entry, nil
}

func decodeEntries(kind string, raw json.RawMessage) ([]domain.Entry, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]domain.Entry, 0, len(items))
	for _, item := range items {
		e, err := decodeEntry(kind, item)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

// relationID extracts the id of a single relation or media field. Strapi
// sends null, a bare id, {id}, or {data: {id}} depending on version and
// populate settings.
func relationID(raw json.RawMessage) *int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	var obj struct {
		ID   *int64          `json:"id"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	if obj.ID != nil {
		return obj.ID
	}
	return relationID(obj.Data)
}

// flexTime decodes null, "", RFC 3339, datetime-local and date-only values.
type flexTime struct {
	Time *time.Time
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	t, err := domain.DecodeTime(b)
	if errors.Is(err, domain.ErrTimeFormat) {
		// Unknown formats are treated as unscheduled rather than failing the
		// whole document.
		f.Time = nil
		return nil
	}
	if err != nil {
		return err
	}
	f.Time = t
	return nil
}

func isJSONObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
