package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/editor-cms/pkg/core/reconcile"
	"github.com/wadjakorntonsri/editor-cms/pkg/metrics"
)

// Phase is a step of the append protocol.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseResolvingIdentity Phase = "resolving_identity"
	PhaseFetchingLatest    Phase = "fetching_latest"
	PhaseMerging           Phase = "merging"
	PhasePersisting        Phase = "persisting"
	PhaseResyncing         Phase = "resyncing"
	PhaseFailed            Phase = "failed"
)

// PhaseHook observes protocol transitions for one requested column id.
type PhaseHook func(id string, phase Phase)

// AddLinks appends links to the column addressed by id. The column is read
// fresh from the CMS under the per-column lock, the batch is merged onto it
// and the whole list is written back. On any error nothing is written.
func (s *ColumnService) AddLinks(ctx context.Context, id string, links []domain.LinkRecord) (res *domain.AppendResult, err error) {
	defer func() {
		metrics.LinkAppends.WithLabelValues(outcome(err)).Inc()
		if err != nil {
			s.enter(id, PhaseFailed)
			s.logger.Warn("link append failed", zap.String("id", id), zap.Int("links", len(links)), zap.Error(err))
			return
		}
		s.enter(id, PhaseIdle)
	}()

	s.enter(id, PhaseResolvingIdentity)
	if err := reconcile.ValidateBatch(links); err != nil {
		return nil, err
	}
	ref := s.refs.lookup(id)

	release, err := s.lockFor(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer release()

	s.enter(id, PhaseFetchingLatest)
	current, alias, err := s.fetchFresh(ctx, ref)
	if err != nil {
		return nil, err
	}
	ref = ref.With(current)
	s.refs.learn(ref)

	s.enter(id, PhaseMerging)
	final, err := s.engine.Append(current.Links, links)
	if err != nil {
		return nil, err
	}

	s.enter(id, PhasePersisting)
	updated, alias, err := s.persist(ctx, ref, alias, map[string]any{"links": final})
	if err != nil {
		return nil, err
	}

	s.enter(id, PhaseResyncing)
	col, ref := s.resync(ctx, ref, updated)
	s.settle(ctx)

	s.logger.Info("links appended",
		zap.String("id", id),
		zap.String("alias", alias),
		zap.Int("added", len(links)),
		zap.Int("total", len(col.Links)))

	return &domain.AppendResult{
		Column: col,
		Added:  domain.CanonicalLinks(links),
		Alias:  alias,
		Ref:    ref,
	}, nil
}

func (s *ColumnService) enter(id string, p Phase) {
	s.logger.Debug("append phase", zap.String("id", id), zap.String("phase", string(p)))
	if s.hook != nil {
		s.hook(id, p)
	}
}

// lockFor takes the per-column lock. When the wait times out the caller
// continues without it.
func (s *ColumnService) lockFor(ctx context.Context, ref domain.ColumnRef) (func(), error) {
	start := time.Now()
	release, ok, err := s.locks.acquire(ctx, ref.Canonical(), s.opts.LockWait)
	metrics.LockWaits.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("column lock wait timed out, proceeding without it",
			zap.String("key", ref.Canonical()),
			zap.Duration("wait", s.opts.LockWait))
	}
	return release, nil
}

// persist writes data under alias. On not-found it retries once with the
// next alias of ref.
func (s *ColumnService) persist(ctx context.Context, ref domain.ColumnRef, alias string, data map[string]any) (*domain.Column, string, error) {
	col, err := s.cms.UpdateColumn(ctx, s.collection, alias, data)
	if err == nil {
		return col, alias, nil
	}
	if !domain.IsNotFound(err) {
		return nil, alias, err
	}

	next := nextAlias(ref.Aliases(), alias)
	if next == "" {
		return nil, alias, domain.ErrNoValidIdentifier
	}
	metrics.AliasFallbacks.WithLabelValues("update").Inc()
	s.logger.Warn("update rejected identifier, retrying with next alias",
		zap.String("attempted_id", alias), zap.String("next_id", next))

	col, err = s.cms.UpdateColumn(ctx, s.collection, next, data)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, next, domain.ErrNoValidIdentifier
		}
		return nil, next, err
	}
	return col, next, nil
}

// resync stores the mutation response under every alias, then replaces it
// with an authoritative read when one succeeds.
func (s *ColumnService) resync(ctx context.Context, ref domain.ColumnRef, updated *domain.Column) (*domain.Column, domain.ColumnRef) {
	col := updated
	ref = ref.With(updated)
	s.cache.WriteAll(ref.Aliases(), updated)

	fresh, _, err := s.fetchFresh(ctx, ref)
	if err != nil {
		s.logger.Warn("re-fetch after update failed, keeping response snapshot",
			zap.String("key", ref.Canonical()), zap.Error(err))
	} else {
		col = fresh
		ref = ref.With(fresh)
		s.cache.WriteAll(ref.Aliases(), fresh)
	}

	s.cache.InvalidateLists()
	s.refs.learn(ref)
	return col, ref
}

func (s *ColumnService) settle(ctx context.Context) {
	if s.opts.SettleDelay <= 0 {
		return
	}
	t := time.NewTimer(s.opts.SettleDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// nextAlias returns the alias after current in preference order, or "" when
// current is the last one.
func nextAlias(aliases []string, current string) string {
	for i, a := range aliases {
		if a == current && i+1 < len(aliases) {
			return aliases[i+1]
		}
	}
	return ""
}

func outcome(err error) string {
	var (
		ve *domain.ValidationError
		ce *domain.ConflictError
		te *domain.TransportError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &ce):
		return "conflict"
	case errors.Is(err, domain.ErrNoValidIdentifier), domain.IsNotFound(err):
		return "not_found"
	case errors.As(err, &te):
		return "transport"
	}
	return "error"
}

// refTable maps every known alias of a column to its full ref.
type refTable struct {
	mu   sync.RWMutex
	refs map[string]domain.ColumnRef
}

func newRefTable() *refTable {
	return &refTable{refs: make(map[string]domain.ColumnRef)}
}

func (t *refTable) lookup(id string) domain.ColumnRef {
	t.mu.RLock()
	ref, ok := t.refs[id]
	t.mu.RUnlock()
	if !ok {
		return domain.ColumnRef{Requested: id}
	}
	ref.Requested = id
	return ref
}

func (t *refTable) learn(ref domain.ColumnRef) {
	stored := domain.ColumnRef{DocumentID: ref.DocumentID, StorageID: ref.StorageID}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, a := range ref.Aliases() {
		t.refs[a] = stored
	}
}

// keyedLock is a mutex per key whose acquisition can time out.
type keyedLock struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newKeyedLock() *keyedLock {
	return &keyedLock{slots: make(map[string]chan struct{})}
}

func (l *keyedLock) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// acquire blocks until the key is free, wait elapses or ctx ends. ok is
// false on timeout; release is then a no-op. A zero wait blocks until the
// key is free or ctx ends.
func (l *keyedLock) acquire(ctx context.Context, key string, wait time.Duration) (release func(), ok bool, err error) {
	ch := l.slot(key)
	release = func() { <-ch }

	var timeout <-chan time.Time
	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case ch <- struct{}{}:
		return release, true, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case <-timeout:
		return func() {}, false, nil
	}
}
