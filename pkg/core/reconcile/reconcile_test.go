package reconcile

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
)

func link(label, url string) domain.LinkRecord {
	return domain.LinkRecord{Label: label, URL: url}
}

func numbered(n int, prefix string) []domain.LinkRecord {
	out := make([]domain.LinkRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, link(fmt.Sprintf("%s %d", prefix, i), fmt.Sprintf("https://%s.example/%d", prefix, i)))
	}
	return out
}

func newTestEngine(t *testing.T) (*Engine, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	return NewEngine(DefaultPolicy(), zap.New(core)), logs
}

func TestAppend(t *testing.T) {
	e, _ := newTestEngine(t)

	t.Run("appends after existing", func(t *testing.T) {
		existing := []domain.LinkRecord{link("A", "http://a")}
		final, err := e.Append(existing, []domain.LinkRecord{link("B", "http://b")})
		require.NoError(t, err)

		want := []domain.LinkRecord{link("A", "http://a"), link("B", "http://b")}
		if diff := cmp.Diff(want, final); diff != "" {
			t.Errorf("Append() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty batch is rejected", func(t *testing.T) {
		_, err := e.Append([]domain.LinkRecord{link("A", "http://a")}, nil)
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("missing label", func(t *testing.T) {
		_, err := e.Append(nil, []domain.LinkRecord{link("  ", "http://a")})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "missing required field", ve.Reason)
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := e.Append(nil, []domain.LinkRecord{link("A", " ")})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "missing required field", ve.Reason)
	})

	t.Run("duplicate inside batch", func(t *testing.T) {
		_, err := e.Append(nil, []domain.LinkRecord{link("A", "http://a"), link("A2", " HTTP://A ")})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "duplicate url in batch", ve.Reason)
	})

	t.Run("conflict with existing is case and slash insensitive", func(t *testing.T) {
		existing := []domain.LinkRecord{link("X", "https://x.com"), link("Y", "https://y.com")}
		_, err := e.Append(existing, []domain.LinkRecord{
			link("X again", "HTTPS://X.COM/"),
			link("Y again", " https://y.com"),
			link("Z", "https://z.com"),
		})
		var ce *domain.ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, 2, ce.Count)
	})

	t.Run("blank optional fields become nil", func(t *testing.T) {
		empty := ""
		final, err := e.Append(nil, []domain.LinkRecord{{Label: "A", URL: "http://a", Description: &empty}})
		require.NoError(t, err)
		assert.Nil(t, final[0].Description)
	})
}

func TestReplace(t *testing.T) {
	t.Run("empty form keeps existing", func(t *testing.T) {
		e, logs := newTestEngine(t)
		existing := numbered(5, "old")

		res := e.Replace(existing, []domain.LinkRecord{{Label: "blank row"}})

		assert.Equal(t, BranchPreserveAll, res.Branch)
		if diff := cmp.Diff(existing, res.Links); diff != "" {
			t.Errorf("Replace() mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("empty form on empty column trusts form", func(t *testing.T) {
		e, logs := newTestEngine(t)
		res := e.Replace(nil, nil)
		assert.Equal(t, BranchTrustForm, res.Branch)
		assert.Empty(t, res.Links)
		assert.Zero(t, logs.Len())
	})

	t.Run("far shorter form preserves missing links", func(t *testing.T) {
		e, logs := newTestEngine(t)
		existing := numbered(10, "old")
		incoming := numbered(2, "new")

		res := e.Replace(existing, incoming)

		assert.Equal(t, BranchPreservePartial, res.Branch)
		require.Len(t, res.Links, 12)
		assert.Equal(t, 10, res.Preserved)
		assert.Equal(t, existing[0], res.Links[0])
		assert.Equal(t, incoming[1], res.Links[11])
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("form copy wins on duplicate url", func(t *testing.T) {
		e, _ := newTestEngine(t)
		existing := numbered(10, "old")
		incoming := []domain.LinkRecord{
			link("renamed", "HTTPS://OLD.EXAMPLE/3/"),
			link("new", "https://new.example/1"),
		}

		res := e.Replace(existing, incoming)

		require.Equal(t, BranchPreservePartial, res.Branch)
		require.Len(t, res.Links, 11)
		var labels []string
		for _, l := range res.Links {
			if l.Key() == "https://old.example/3" {
				labels = append(labels, l.Label)
			}
		}
		assert.Equal(t, []string{"renamed"}, labels)
	})

	t.Run("form with more than half is trusted", func(t *testing.T) {
		e, logs := newTestEngine(t)
		existing := numbered(10, "old")
		incoming := numbered(8, "new")

		res := e.Replace(existing, incoming)

		assert.Equal(t, BranchTrustForm, res.Branch)
		assert.Len(t, res.Links, 8)
		assert.Zero(t, logs.Len())
	})

	t.Run("small column is never second-guessed", func(t *testing.T) {
		e, _ := newTestEngine(t)
		res := e.Replace(numbered(3, "old"), numbered(1, "new"))
		assert.Equal(t, BranchTrustForm, res.Branch)
		assert.Len(t, res.Links, 1)
	})

	t.Run("custom policy", func(t *testing.T) {
		e := NewEngine(Policy{Ratio: 0.9, MinExisting: 1}, nil)
		res := e.Replace(numbered(4, "old"), numbered(3, "new"))
		assert.Equal(t, BranchPreservePartial, res.Branch)
		assert.Len(t, res.Links, 7)
	})
}

func TestReplacePreserveAllForAnyLargeColumn(t *testing.T) {
	e, _ := newTestEngine(t)
	for n := 4; n <= 40; n += 6 {
		existing := numbered(n, "col")
		res := e.Replace(existing, []domain.LinkRecord{{Label: "x"}, {URL: "   "}})
		if diff := cmp.Diff(existing, res.Links); diff != "" {
			t.Fatalf("n=%d: Replace() mismatch (-want +got):\n%s", n, diff)
		}
	}
}

func TestValidateBatchErrorsAreTyped(t *testing.T) {
	err := ValidateBatch(nil)
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
}
