package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/editor-cms/pkg/ports"
)

// EntryService manages one editorial collection (articles, events, video
// episodes).
type EntryService struct {
	cms        ports.CMSClient
	collection string
	logger     *zap.Logger
}

func NewEntryService(cms ports.CMSClient, collection string, logger *zap.Logger) *EntryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryService{cms: cms, collection: collection, logger: logger.With(zap.String("collection", collection))}
}

func (s *EntryService) List(ctx context.Context, opts domain.ListOptions) ([]domain.Entry, error) {
	if len(opts.Sort) == 0 {
		opts.Sort = []string{"updatedAt:desc"}
	}
	if opts.Limit <= 0 {
		opts.Limit = 25
	}
	return s.cms.ListEntries(ctx, s.collection, opts)
}

func (s *EntryService) Get(ctx context.Context, id string) (*domain.Entry, error) {
	return s.cms.GetEntry(ctx, s.collection, id)
}

func (s *EntryService) Create(ctx context.Context, in domain.EntryInput) (*domain.Entry, error) {
	if in.Slug == "" {
		return nil, &domain.ValidationError{Reason: "slug is required"}
	}
	if err := s.checkSlug(ctx, in.Slug, ""); err != nil {
		return nil, err
	}

	e, err := s.cms.CreateEntry(ctx, s.collection, in.Attributes())
	if err != nil {
		return nil, err
	}
	s.logger.Info("entry created", zap.String("slug", e.Slug), zap.Int64("id", e.ID))
	return e, nil
}

func (s *EntryService) Update(ctx context.Context, id string, in domain.EntryInput) (*domain.Entry, error) {
	if in.Slug == "" {
		return nil, &domain.ValidationError{Reason: "slug is required"}
	}
	if err := s.checkSlug(ctx, in.Slug, id); err != nil {
		return nil, err
	}
	return s.cms.UpdateEntry(ctx, s.collection, id, in.Attributes())
}

func (s *EntryService) Delete(ctx context.Context, id string) error {
	if err := s.cms.DeleteEntry(ctx, s.collection, id); err != nil {
		return err
	}
	s.logger.Info("entry deleted", zap.String("id", id))
	return nil
}

// checkSlug fails when an entry other than self uses slug. Lookup failures
// are logged and ignored; the CMS unique constraint is the final word.
func (s *EntryService) checkSlug(ctx context.Context, slug, self string) error {
	found, err := s.cms.ListEntries(ctx, s.collection, domain.ListOptions{
		Limit:   1,
		Filters: map[string]string{"filters[slug][$eq]": slug},
	})
	if err != nil {
		s.logger.Warn("slug uniqueness check failed, continuing", zap.String("slug", slug), zap.Error(err))
		return nil
	}
	for i := range found {
		e := &found[i]
		if self != "" && isSelf(domain.ColumnRef{DocumentID: self, StorageID: self}, e.DocumentID, e.ID) {
			continue
		}
		return &domain.ConflictError{Reason: fmt.Sprintf("slug %q already used by %s", slug, e.Ref().Canonical())}
	}
	return nil
}

// Ensure interface compliance
var _ ports.EntryService = (*EntryService)(nil)
