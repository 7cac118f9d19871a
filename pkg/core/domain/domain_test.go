package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://x.com", "https://x.com"},
		{"  HTTPS://X.COM/ ", "https://x.com"},
		{"https://x.com/a//", "https://x.com/a"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeURL(tt.in), tt.in)
	}
}

func TestCanonical(t *testing.T) {
	blank := "  "
	var zero time.Time
	l := LinkRecord{Label: "A", URL: "https://a", Description: &blank, PublishDate: &zero}.Canonical()
	assert.Nil(t, l.Description)
	assert.Nil(t, l.PublishDate)

	d := "keep"
	now := time.Now()
	l = LinkRecord{Label: "A", URL: "https://a", Description: &d, PublishDate: &now}.Canonical()
	require.NotNil(t, l.Description)
	assert.Equal(t, "keep", *l.Description)
	assert.NotSame(t, &d, l.Description)
}

func TestColumnRefAliases(t *testing.T) {
	ref := ColumnRef{Requested: "7"}
	assert.Equal(t, "7", ref.Canonical())
	assert.Equal(t, []string{"7"}, ref.Aliases())

	ref = ref.With(&Column{ID: 7, DocumentID: "doc-7"})
	assert.Equal(t, "doc-7", ref.Canonical())
	assert.Equal(t, []string{"doc-7", "7"}, ref.Aliases())

	ref.Requested = "legacy"
	assert.Equal(t, []string{"doc-7", "7", "legacy"}, ref.Aliases())
	assert.Equal(t, ref, ref.With(nil))
}

func TestPendingLinkBatch(t *testing.T) {
	var b PendingLinkBatch
	assert.Equal(t, 0, b.Add(LinkRecord{Label: "A"}))
	assert.Equal(t, 1, b.Add(LinkRecord{Label: "B"}))
	require.NoError(t, b.Update(0, LinkRecord{Label: "A2"}))
	require.NoError(t, b.Remove(1))
	assert.Error(t, b.Remove(3))
	assert.Error(t, b.Update(-1, LinkRecord{}))

	links := b.Links()
	links[0].Label = "mutated"
	assert.Equal(t, "A2", b.Links()[0].Label)

	b.Clear()
	assert.Equal(t, 0, b.Len())
}

func TestSessionAppendLog(t *testing.T) {
	var log SessionAppendLog
	log.Record(LinkRecord{URL: "a"}, LinkRecord{URL: "b"})
	log.Record(LinkRecord{URL: "c"})
	assert.Equal(t, 3, log.Len())
	assert.Equal(t, "c", log.Entries()[2].URL)
}

func TestErrors(t *testing.T) {
	assert.Equal(t, "validation failed: no links to add", (&ValidationError{Reason: "no links to add"}).Error())
	assert.Equal(t, "2 link(s) conflict: url already present", (&ConflictError{Count: 2}).Error())

	wrapped := fmt.Errorf("get column: %w", &NotFoundError{Collection: "columns", ID: "x"})
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(ErrNoValidIdentifier))

	cause := errors.New("dial tcp: refused")
	te := &TransportError{Err: cause}
	assert.ErrorIs(t, te, cause)
	assert.Equal(t, "cms responded 400: bad", (&TransportError{Status: 400, Message: "bad"}).Error())
}

func TestEntryAttributes(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("ICT", 7*3600))
	data := EntryInput{Title: "T", Slug: "t", PublishDate: &at, Fields: map[string]any{"isPremium": true, "title": "ignored"}}.Attributes()
	assert.Equal(t, "T", data["title"])
	assert.Equal(t, "2025-03-01T03:00:00Z", data["publishDate"])
	assert.Equal(t, true, data["isPremium"])

	data = EntryInput{Title: "T", Slug: "t"}.Attributes()
	assert.Nil(t, data["publishDate"])
}

func TestLinkRecordDecodesFormValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *time.Time
	}{
		{"blank", `{"label":"A","url":"https://a","description":"","publishDate":""}`, nil},
		{"null", `{"label":"A","url":"https://a","publishDate":null}`, nil},
		{"missing", `{"label":"A","url":"https://a"}`, nil},
		{"datetime-local", `{"label":"A","url":"https://a","publishDate":"2025-03-01T09:30"}`,
			func() *time.Time { t := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC); return &t }()},
		{"rfc3339", `{"label":"A","url":"https://a","publishDate":"2025-03-01T09:30:00Z"}`,
			func() *time.Time { t := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC); return &t }()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l LinkRecord
			require.NoError(t, json.Unmarshal([]byte(tt.body), &l))
			assert.Equal(t, "A", l.Label)
			assert.Equal(t, "https://a", l.URL)
			assert.Nil(t, l.Description)
			if tt.want == nil {
				assert.Nil(t, l.PublishDate)
				return
			}
			require.NotNil(t, l.PublishDate)
			assert.True(t, tt.want.Equal(*l.PublishDate))
		})
	}
}

func TestLinkRecordRejectsBadDate(t *testing.T) {
	var l LinkRecord
	err := json.Unmarshal([]byte(`{"url":"https://a","publishDate":"next tuesday"}`), &l)
	assert.ErrorIs(t, err, ErrTimeFormat)

	err = json.Unmarshal([]byte(`{"url":"https://a","publishDate":12}`), &l)
	assert.Error(t, err)
}
