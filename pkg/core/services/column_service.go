package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/editor-cms/pkg/core/reconcile"
	"github.com/wadjakorntonsri/editor-cms/pkg/metrics"
	"github.com/wadjakorntonsri/editor-cms/pkg/ports"
)

// listScanLimit bounds the fallback scan used when no alias resolves.
const listScanLimit = 100

// ColumnOptions tunes the write path of ColumnService.
type ColumnOptions struct {
	// LockWait bounds how long a writer waits for the per-column lock
	// before continuing without it. Zero waits indefinitely.
	LockWait time.Duration
	// SettleDelay is held after a write before the lock is released.
	SettleDelay time.Duration
	Hook        PhaseHook
}

func DefaultColumnOptions() ColumnOptions {
	return ColumnOptions{LockWait: 2 * time.Second, SettleDelay: 100 * time.Millisecond}
}

type ColumnService struct {
	cms        ports.CMSClient
	cache      ports.ColumnCache
	engine     *reconcile.Engine
	collection string
	opts       ColumnOptions
	hook       PhaseHook
	logger     *zap.Logger

	refs  *refTable
	locks *keyedLock
	reads singleflight.Group
}

func NewColumnService(cms ports.CMSClient, cache ports.ColumnCache, engine *reconcile.Engine, collection string, opts ColumnOptions, logger *zap.Logger) *ColumnService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = reconcile.NewEngine(reconcile.DefaultPolicy(), logger)
	}
	return &ColumnService{
		cms:        cms,
		cache:      cache,
		engine:     engine,
		collection: collection,
		opts:       opts,
		hook:       opts.Hook,
		logger:     logger,
		refs:       newRefTable(),
		locks:      newKeyedLock(),
	}
}

func (s *ColumnService) ListColumns(ctx context.Context, limit int, sort string) ([]domain.Column, error) {
	if limit <= 0 {
		limit = 25
	}
	if sort == "" {
		sort = "updatedAt:desc"
	}
	key := fmt.Sprintf("%d|%s", limit, sort)
	if cols, ok := s.cache.GetList(key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cols, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	v, err, _ := s.reads.Do("list|"+key, func() (interface{}, error) {
		cols, err := s.cms.ListColumns(ctx, s.collection, domain.ListOptions{
			Limit:    limit,
			Sort:     []string{sort},
			Populate: []string{"cover", "author", "links"},
		})
		if err != nil {
			return nil, err
		}
		s.cache.PutList(key, cols)
		return cols, nil
	})
	if err != nil {
		return nil, err
	}
	src := v.([]domain.Column)
	out := make([]domain.Column, len(src))
	for i := range src {
		out[i] = *src[i].Clone()
	}
	return out, nil
}

// GetColumn reads through the alias cache. Concurrent misses for the same
// id share one CMS round trip.
func (s *ColumnService) GetColumn(ctx context.Context, id string) (*domain.Column, error) {
	if col, ok := s.cache.Get(id); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return col, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	v, err, _ := s.reads.Do("column|"+id, func() (interface{}, error) {
		ref := s.refs.lookup(id)
		col, _, err := s.fetchFresh(ctx, ref)
		if err != nil {
			return nil, err
		}
		ref = ref.With(col)
		s.refs.learn(ref)
		s.cache.WriteAll(ref.Aliases(), col)
		return col, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Column).Clone(), nil
}

// CreateColumn creates a column after checking its slug is free.
func (s *ColumnService) CreateColumn(ctx context.Context, form domain.ColumnForm) (*domain.Column, error) {
	if err := s.checkSlug(ctx, form.Slug, domain.ColumnRef{}); err != nil {
		return nil, err
	}

	data := map[string]any{
		"title":       form.Title,
		"slug":        form.Slug,
		"description": form.Description,
		"links":       nonBlank(form.Links),
	}
	if form.CoverID != nil {
		data["cover"] = *form.CoverID
	}
	if form.AuthorID != nil {
		data["author"] = *form.AuthorID
	}

	col, err := s.cms.CreateColumn(ctx, s.collection, data)
	if err != nil {
		return nil, err
	}
	ref := domain.ColumnRef{}.With(col)
	s.refs.learn(ref)
	s.cache.WriteAll(ref.Aliases(), col)
	s.cache.InvalidateLists()

	s.logger.Info("column created", zap.String("slug", col.Slug), zap.String("document_id", col.DocumentID))
	return col, nil
}

// UpdateColumn saves a full column form. The link list goes through
// Replace so a form that lost rows cannot silently delete them.
func (s *ColumnService) UpdateColumn(ctx context.Context, id string, form domain.ColumnForm) (*domain.Column, error) {
	ref := s.refs.lookup(id)
	release, err := s.lockFor(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer release()

	current, alias, err := s.fetchFresh(ctx, ref)
	if err != nil {
		return nil, err
	}
	ref = ref.With(current)
	s.refs.learn(ref)

	if form.Slug != current.Slug {
		if err := s.checkSlug(ctx, form.Slug, ref); err != nil {
			return nil, err
		}
	}

	res := s.engine.Replace(current.Links, form.Links)
	metrics.ReconcileBranches.WithLabelValues(string(res.Branch)).Inc()

	data := map[string]any{
		"title":       form.Title,
		"slug":        form.Slug,
		"description": form.Description,
		"links":       res.Links,
		"cover":       relation(form.CoverID, current.CoverID),
		"author":      relation(form.AuthorID, current.AuthorID),
	}

	updated, alias, err := s.persist(ctx, ref, alias, data)
	if err != nil {
		return nil, err
	}
	col, _ := s.resync(ctx, ref, updated)
	s.settle(ctx)

	s.logger.Info("column updated",
		zap.String("id", id),
		zap.String("alias", alias),
		zap.String("branch", string(res.Branch)),
		zap.Int("links", len(res.Links)),
		zap.Int("preserved", res.Preserved))
	return col, nil
}

// fetchFresh reads the column straight from the CMS, trying each alias of
// ref in order and then scanning the first page of columns. Only not-found
// errors move on to the next alias.
func (s *ColumnService) fetchFresh(ctx context.Context, ref domain.ColumnRef) (*domain.Column, string, error) {
	aliases := ref.Aliases()
	for i, alias := range aliases {
		col, err := s.cms.GetColumn(ctx, s.collection, alias)
		if err == nil {
			if i > 0 {
				metrics.AliasFallbacks.WithLabelValues("fetch").Inc()
			}
			return col, alias, nil
		}
		if !domain.IsNotFound(err) {
			return nil, alias, err
		}
		s.logger.Debug("identifier not found, trying next alias", zap.String("attempted_id", alias))
	}

	cols, err := s.cms.ListColumns(ctx, s.collection, domain.ListOptions{
		Limit:    listScanLimit,
		Populate: []string{"cover", "author", "links"},
	})
	if err != nil {
		s.logger.Warn("column list scan failed", zap.Strings("aliases", aliases), zap.Error(err))
		return nil, "", fmt.Errorf("%w: %v", domain.ErrNoValidIdentifier, err)
	}
	for i := range cols {
		col := &cols[i]
		for _, alias := range aliases {
			if alias == col.DocumentID || alias == col.StorageID() {
				metrics.AliasFallbacks.WithLabelValues("scan").Inc()
				resolved := col.DocumentID
				if resolved == "" {
					resolved = col.StorageID()
				}
				return col, resolved, nil
			}
		}
	}

	s.logger.Error("no identifier resolved for column", zap.Strings("aliases", aliases))
	return nil, "", domain.ErrNoValidIdentifier
}

// checkSlug fails when another column already uses slug. A failing lookup is
// logged and treated as free.
func (s *ColumnService) checkSlug(ctx context.Context, slug string, self domain.ColumnRef) error {
	cols, err := s.cms.ListColumns(ctx, s.collection, domain.ListOptions{
		Limit:   1,
		Filters: map[string]string{"filters[slug][$eq]": slug},
	})
	if err != nil {
		s.logger.Warn("slug uniqueness check failed, continuing", zap.String("slug", slug), zap.Error(err))
		return nil
	}
	for i := range cols {
		other := &cols[i]
		if isSelf(self, other.DocumentID, other.ID) {
			continue
		}
		ident := other.DocumentID
		if ident == "" {
			ident = other.StorageID()
		}
		return &domain.ConflictError{Reason: fmt.Sprintf("slug %q already used by %s", slug, ident)}
	}
	return nil
}

func isSelf(self domain.ColumnRef, documentID string, id int64) bool {
	if documentID != "" && documentID == self.DocumentID {
		return true
	}
	return id != 0 && strconv.FormatInt(id, 10) == self.StorageID
}

// relation picks the form value, else the current one. A nil result clears
// the relation.
func relation(form, current *int64) any {
	switch {
	case form != nil:
		return *form
	case current != nil:
		return *current
	}
	return nil
}

func nonBlank(links []domain.LinkRecord) []domain.LinkRecord {
	out := make([]domain.LinkRecord, 0, len(links))
	for _, l := range links {
		if !l.IsBlank() {
			out = append(out, l.Canonical())
		}
	}
	return out
}

// Ensure interface compliance
var _ ports.ColumnService = (*ColumnService)(nil)
