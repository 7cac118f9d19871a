// Package reconcile decides which link list is written back to the CMS.
//
// The CMS replaces a column's whole link field on every update, so a form
// that failed to load some rows would delete them on save. Replace guards
// against that with two thresholds; Append validates an add-only batch.
package reconcile

import (
	"strings"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
)

// Branch names the decision Replace took.
type Branch string

const (
	// BranchTrustForm writes the form list as submitted.
	BranchTrustForm Branch = "trust_form"
	// BranchPreserveAll ignores an empty form and keeps the existing list.
	BranchPreserveAll Branch = "preserve_all"
	// BranchPreservePartial merges existing rows missing from a much
	// shorter form back in.
	BranchPreservePartial Branch = "preserve_partial"
)

// Policy holds the loss-avoidance thresholds. A form is considered lossy when
// it carries fewer than Ratio × existing links and the column has more than
// MinExisting links.
type Policy struct {
	Ratio       float64
	MinExisting int
}

func DefaultPolicy() Policy {
	return Policy{Ratio: 0.5, MinExisting: 3}
}

// Result is the outcome of Replace.
type Result struct {
	Links     []domain.LinkRecord
	Branch    Branch
	Preserved int // existing rows kept that the form did not carry
}

type Engine struct {
	policy Policy
	logger *zap.Logger
}

func NewEngine(policy Policy, logger *zap.Logger) *Engine {
	if policy.Ratio <= 0 {
		policy.Ratio = DefaultPolicy().Ratio
	}
	if policy.MinExisting < 0 {
		policy.MinExisting = DefaultPolicy().MinExisting
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{policy: policy, logger: logger}
}

func (e *Engine) Policy() Policy { return e.policy }

// Append validates incoming as an add-only batch and returns existing
// followed by incoming.
func (e *Engine) Append(existing, incoming []domain.LinkRecord) ([]domain.LinkRecord, error) {
	if err := ValidateBatch(incoming); err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(existing))
	for _, l := range existing {
		if k := l.Key(); k != "" {
			present[k] = struct{}{}
		}
	}

	conflicts := 0
	for _, l := range incoming {
		if _, ok := present[l.Key()]; ok {
			conflicts++
		}
	}
	if conflicts > 0 {
		return nil, &domain.ConflictError{Count: conflicts, Reason: "url already present"}
	}

	final := make([]domain.LinkRecord, 0, len(existing)+len(incoming))
	final = append(final, domain.CanonicalLinks(existing)...)
	final = append(final, domain.CanonicalLinks(incoming)...)
	return final, nil
}

// ValidateBatch checks an add-only batch on its own: not empty, every row
// labelled with a url, no url twice.
func ValidateBatch(incoming []domain.LinkRecord) error {
	if len(incoming) == 0 {
		return &domain.ValidationError{Reason: "no links to add"}
	}

	seen := make(map[string]struct{}, len(incoming))
	for _, l := range incoming {
		if strings.TrimSpace(l.Label) == "" || l.IsBlank() {
			return &domain.ValidationError{Reason: "missing required field"}
		}
		k := l.Key()
		if _, dup := seen[k]; dup {
			return &domain.ValidationError{Reason: "duplicate url in batch"}
		}
		seen[k] = struct{}{}
	}
	return nil
}

// Replace decides the list written when a whole column form is saved.
func (e *Engine) Replace(existing, incoming []domain.LinkRecord) Result {
	existingCount := domain.CountNonBlank(existing)
	formCount := domain.CountNonBlank(incoming)

	if formCount == 0 && existingCount > 0 {
		e.logger.Warn("form has no links but the column does, keeping existing links",
			zap.Int("existing", existingCount))
		return Result{
			Links:     domain.CanonicalLinks(existing),
			Branch:    BranchPreserveAll,
			Preserved: len(existing),
		}
	}

	if float64(formCount) < float64(existingCount)*e.policy.Ratio && existingCount > e.policy.MinExisting {
		links, preserved := mergePreserving(existing, incoming)
		e.logger.Warn("form has far fewer links than the column, preserving missing ones",
			zap.Int("existing", existingCount),
			zap.Int("form", formCount),
			zap.Int("preserved", preserved),
			zap.Float64("ratio", e.policy.Ratio))
		return Result{Links: links, Branch: BranchPreservePartial, Preserved: preserved}
	}

	return Result{Links: domain.CanonicalLinks(incoming), Branch: BranchTrustForm}
}

// mergePreserving keeps existing rows whose url the form does not mention,
// appends the form rows and collapses duplicate urls in favour of the form.
// Rows without a url do not survive the collapse.
func mergePreserving(existing, incoming []domain.LinkRecord) ([]domain.LinkRecord, int) {
	formKeys := make(map[string]struct{}, len(incoming))
	for _, l := range incoming {
		if k := l.Key(); k != "" {
			formKeys[k] = struct{}{}
		}
	}

	combined := make([]domain.LinkRecord, 0, len(existing)+len(incoming))
	for _, l := range existing {
		k := l.Key()
		if _, inForm := formKeys[k]; k == "" || !inForm {
			combined = append(combined, l.Canonical())
		}
	}
	combined = append(combined, domain.CanonicalLinks(incoming)...)

	order := make([]string, 0, len(combined))
	byKey := make(map[string]domain.LinkRecord, len(combined))
	for _, l := range combined {
		k := l.Key()
		if k == "" {
			continue
		}
		_, have := byKey[k]
		_, fromForm := formKeys[k]
		if !have {
			order = append(order, k)
		}
		if !have || fromForm {
			byKey[k] = l
		}
	}

	final := make([]domain.LinkRecord, 0, len(order))
	preserved := 0
	for _, k := range order {
		if _, fromForm := formKeys[k]; !fromForm {
			preserved++
		}
		final = append(final, byKey[k])
	}
	return final, preserved
}
