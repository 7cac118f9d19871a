package services

import (
	"context"
	"sync"
	"time"

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/editor-cms/pkg/ports"
)

// composerIdleTTL is how long an untouched session is kept.
const composerIdleTTL = 12 * time.Hour

// Composer keeps the pending batch and the session log of each user and
// column pair in memory. Sessions idle for longer than composerIdleTTL are
// dropped.
type Composer struct {
	columns ports.ColumnService
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[composerKey]*composerSession
}

type composerKey struct {
	user   string
	column string
}

type composerSession struct {
	mu      sync.Mutex
	pending domain.PendingLinkBatch
	log     domain.SessionAppendLog

	lastUsed time.Time // guarded by Composer.mu
}

// emptySession answers reads for pairs that have no session yet.
var emptySession = &composerSession{}

func NewComposer(columns ports.ColumnService) *Composer {
	return &Composer{
		columns:  columns,
		idleTTL:  composerIdleTTL,
		now:      time.Now,
		sessions: make(map[composerKey]*composerSession),
	}
}

// session returns the session for the pair, creating it when create is set.
// Without create a missing session yields emptySession.
func (c *Composer) session(user, column string, create bool) *composerSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.evictIdle(now)

	k := composerKey{user: user, column: column}
	s, ok := c.sessions[k]
	if !ok {
		if !create {
			return emptySession
		}
		s = &composerSession{}
		c.sessions[k] = s
	}
	s.lastUsed = now
	return s
}

func (c *Composer) evictIdle(now time.Time) {
	for k, s := range c.sessions {
		if now.Sub(s.lastUsed) > c.idleTTL {
			delete(c.sessions, k)
		}
	}
}

func (c *Composer) Pending(user, column string) []domain.LinkRecord {
	s := c.session(user, column, false)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Links()
}

// Add stages a link and returns its index in the batch.
func (c *Composer) Add(user, column string, l domain.LinkRecord) int {
	s := c.session(user, column, true)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Add(l)
}

func (c *Composer) Update(user, column string, index int, l domain.LinkRecord) error {
	s := c.session(user, column, true)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pending.Update(index, l); err != nil {
		return &domain.ValidationError{Reason: err.Error()}
	}
	return nil
}

func (c *Composer) Remove(user, column string, index int) error {
	s := c.session(user, column, true)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pending.Remove(index); err != nil {
		return &domain.ValidationError{Reason: err.Error()}
	}
	return nil
}

// Submit appends the pending batch to the column. On success the batch is
// cleared and the added links join the session log; on failure both are
// left as they were.
func (c *Composer) Submit(ctx context.Context, user, column string) (*domain.AppendResult, error) {
	s := c.session(user, column, true)
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := c.columns.AddLinks(ctx, column, s.pending.Links())
	if err != nil {
		return nil, err
	}
	s.pending.Clear()
	s.log.Record(res.Added...)
	return res, nil
}

func (c *Composer) SessionLog(user, column string) []domain.LinkRecord {
	s := c.session(user, column, false)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Entries()
}

// Ensure interface compliance
var _ ports.LinkComposer = (*Composer)(nil)
