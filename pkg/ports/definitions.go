package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
)

// CMSClient is the subset of the Strapi REST API the editor uses.
// Every method returns *domain.NotFoundError for 404 and
// *domain.TransportError for any other failure.
type CMSClient interface {
	ListColumns(ctx context.Context, collection string, opts domain.ListOptions) ([]domain.Column, error)
	GetColumn(ctx context.Context, collection, id string) (*domain.Column, error)
	CreateColumn(ctx context.Context, collection string, data map[string]any) (*domain.Column, error)
	UpdateColumn(ctx context.Context, collection, id string, data map[string]any) (*domain.Column, error)

	ListEntries(ctx context.Context, collection string, opts domain.ListOptions) ([]domain.Entry, error)
	GetEntry(ctx context.Context, collection, id string) (*domain.Entry, error)
	CreateEntry(ctx context.Context, collection string, data map[string]any) (*domain.Entry, error)
	UpdateEntry(ctx context.Context, collection, id string, data map[string]any) (*domain.Entry, error)
	DeleteEntry(ctx context.Context, collection, id string) error

	Authenticator
}

// Authenticator logs editors into the CMS. Me answers for the user whose
// token travels in ctx.
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (*domain.Session, error)
	Me(ctx context.Context) (map[string]any, error)
}

// ColumnCache is the local read cache, one slot per identifier alias.
// Writers store a snapshot under every alias of the column at once.
type ColumnCache interface {
	Get(alias string) (*domain.Column, bool)
	WriteAll(aliases []string, column *domain.Column)
	Invalidate(aliases ...string)
	InvalidateLists()
	GetList(key string) ([]domain.Column, bool)
	PutList(key string, columns []domain.Column)
}

// TutorialRepository persists onboarding completion flags.
type TutorialRepository interface {
	Get(ctx context.Context, key string) (*domain.TutorialState, error)
	MarkCompleted(ctx context.Context, key string, at time.Time) error
	Reset(ctx context.Context, key string) error
	List(ctx context.Context) ([]domain.TutorialState, error)
}

// ColumnService defines business logic for columns and their links
type ColumnService interface {
	ListColumns(ctx context.Context, limit int, sort string) ([]domain.Column, error)
	GetColumn(ctx context.Context, id string) (*domain.Column, error)
	CreateColumn(ctx context.Context, form domain.ColumnForm) (*domain.Column, error)
	UpdateColumn(ctx context.Context, id string, form domain.ColumnForm) (*domain.Column, error)
	AddLinks(ctx context.Context, id string, links []domain.LinkRecord) (*domain.AppendResult, error)
}

// EntryService defines the operations on one editorial collection.
type EntryService interface {
	List(ctx context.Context, opts domain.ListOptions) ([]domain.Entry, error)
	Get(ctx context.Context, id string) (*domain.Entry, error)
	Create(ctx context.Context, in domain.EntryInput) (*domain.Entry, error)
	Update(ctx context.Context, id string, in domain.EntryInput) (*domain.Entry, error)
	Delete(ctx context.Context, id string) error
}

// CalendarService builds the publication calendar.
type CalendarService interface {
	Month(ctx context.Context, year int, month time.Month) ([]domain.CalendarDay, error)
}

// TutorialService tracks which onboarding tours a user finished.
type TutorialService interface {
	IsCompleted(ctx context.Context, feature string) (bool, error)
	Complete(ctx context.Context, feature string) error
	Reset(ctx context.Context, feature string) error
	List(ctx context.Context) ([]domain.TutorialState, error)
}

// LinkComposer holds each editor's pending link batch and session log per
// column.
type LinkComposer interface {
	Pending(user, column string) []domain.LinkRecord
	Add(user, column string, l domain.LinkRecord) int
	Update(user, column string, index int, l domain.LinkRecord) error
	Remove(user, column string, index int) error
	Submit(ctx context.Context, user, column string) (*domain.AppendResult, error)
	SessionLog(user, column string) []domain.LinkRecord
}
