package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LinkRecord is one external reference inside a column.
type LinkRecord struct {
	Label       string     `json:"label"`
	URL         string     `json:"url"`
	Description *string    `json:"description"`
	PublishDate *time.Time `json:"publishDate"`
}

// UnmarshalJSON accepts the shapes editor forms send: blank optional fields
// ("" or null) decode to nil and the publish date may be RFC 3339, a
// datetime-local value or a plain date.
func (l *LinkRecord) UnmarshalJSON(b []byte) error {
	type plain LinkRecord
	var aux struct {
		plain
		PublishDate json.RawMessage `json:"publishDate"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	at, err := DecodeTime(aux.PublishDate)
	if err != nil {
		return fmt.Errorf("publishDate: %w", err)
	}
	*l = LinkRecord(aux.plain)
	l.PublishDate = at
	if l.Description != nil && strings.TrimSpace(*l.Description) == "" {
		l.Description = nil
	}
	return nil
}

// TimeLayouts are the accepted textual forms of a publish date, tried in order.
var TimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// ErrTimeFormat reports a date in none of TimeLayouts.
var ErrTimeFormat = errors.New("unrecognized date format")

// ParseTime parses s with TimeLayouts. A blank string is no date.
func ParseTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range TimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrTimeFormat, s)
}

// DecodeTime reads a JSON date value. Missing, null and "" decode to nil.
func DecodeTime(b []byte) (*time.Time, error) {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil, nil
	}
	str, err := strconv.Unquote(s)
	if err != nil {
		return nil, fmt.Errorf("date must be a string, got %s", s)
	}
	return ParseTime(str)
}

// NormalizeURL returns the key used for url uniqueness inside a column.
// Trailing slashes are dropped so that "https://x.com/" and "https://x.com"
// address the same link.
func NormalizeURL(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	return strings.TrimRight(u, "/")
}

// Key is the normalized url of the record, empty for blank urls.
func (l LinkRecord) Key() string {
	return NormalizeURL(l.URL)
}

// IsBlank reports whether the record has no usable url.
func (l LinkRecord) IsBlank() bool {
	return strings.TrimSpace(l.URL) == ""
}

// Canonical returns the record in the shape the CMS stores: empty optional
// fields become nil.
func (l LinkRecord) Canonical() LinkRecord {
	out := LinkRecord{Label: l.Label, URL: l.URL}
	if l.Description != nil && strings.TrimSpace(*l.Description) != "" {
		d := *l.Description
		out.Description = &d
	}
	if l.PublishDate != nil && !l.PublishDate.IsZero() {
		t := *l.PublishDate
		out.PublishDate = &t
	}
	return out
}

// CanonicalLinks maps every record through Canonical.
func CanonicalLinks(links []LinkRecord) []LinkRecord {
	out := make([]LinkRecord, 0, len(links))
	for _, l := range links {
		out = append(out, l.Canonical())
	}
	return out
}

// CountNonBlank counts records with a non-blank url.
func CountNonBlank(links []LinkRecord) int {
	n := 0
	for _, l := range links {
		if !l.IsBlank() {
			n++
		}
	}
	return n
}
