package services

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/editor-cms/pkg/ports"
)

// calendarPageSize is the page size used when walking a whole collection.
const calendarPageSize = 100

// CalendarService merges scheduled articles and column links into a month
// view.
type CalendarService struct {
	cms      ports.CMSClient
	articles string
	columns  string
	loc      *time.Location
	logger   *zap.Logger
}

// NewCalendarService groups items by day in loc; nil means time.Local.
func NewCalendarService(cms ports.CMSClient, articles, columns string, loc *time.Location, logger *zap.Logger) *CalendarService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{cms: cms, articles: articles, columns: columns, loc: loc, logger: logger}
}

func (s *CalendarService) Month(ctx context.Context, year int, month time.Month) ([]domain.CalendarDay, error) {
	if month < time.January || month > time.December {
		return nil, &domain.ValidationError{Reason: "month out of range"}
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 1, 0)

	var articles []domain.Entry
	var columns []domain.Column

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		articles, err = pageAll(gctx, func(ctx context.Context, offset int) ([]domain.Entry, error) {
			return s.cms.ListEntries(ctx, s.articles, domain.ListOptions{
				Limit: calendarPageSize,
				Start: offset,
				Sort:  []string{"publishDate:asc", "id:asc"},
				Filters: map[string]string{
					"filters[publishDate][$notNull]": "true",
					"filters[publishDate][$gte]":     start.UTC().Format(time.RFC3339),
					"filters[publishDate][$lt]":      end.UTC().Format(time.RFC3339),
				},
			})
		})
		return err
	})
	g.Go(func() error {
		var err error
		columns, err = pageAll(gctx, func(ctx context.Context, offset int) ([]domain.Column, error) {
			return s.cms.ListColumns(ctx, s.columns, domain.ListOptions{
				Limit:    calendarPageSize,
				Start:    offset,
				Sort:     []string{"id:asc"},
				Populate: []string{"links"},
			})
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	inMonth := func(t *time.Time) bool {
		return t != nil && !t.Before(start) && t.Before(end)
	}

	var items []domain.CalendarItem
	for _, a := range articles {
		if !inMonth(a.PublishDate) {
			continue
		}
		items = append(items, domain.CalendarItem{
			Type:        domain.CalendarArticle,
			Title:       a.Title,
			PublishDate: *a.PublishDate,
			SourceID:    a.Ref().Canonical(),
		})
	}
	for _, c := range columns {
		for _, l := range c.Links {
			if !inMonth(l.PublishDate) {
				continue
			}
			items = append(items, domain.CalendarItem{
				Type:        domain.CalendarLink,
				Title:       l.Label,
				PublishDate: *l.PublishDate,
				URL:         l.URL,
				ColumnTitle: c.Title,
				SourceID:    domain.ColumnRef{}.With(&c).Canonical(),
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].PublishDate.Equal(items[j].PublishDate) {
			return items[i].PublishDate.Before(items[j].PublishDate)
		}
		return items[i].Title < items[j].Title
	})

	days := make([]domain.CalendarDay, 0)
	for _, it := range items {
		date := it.PublishDate.In(s.loc).Format("2006-01-02")
		if n := len(days); n > 0 && days[n-1].Date == date {
			days[n-1].Items = append(days[n-1].Items, it)
			continue
		}
		days = append(days, domain.CalendarDay{Date: date, Items: []domain.CalendarItem{it}})
	}

	s.logger.Debug("calendar built",
		zap.Int("year", year),
		zap.String("month", month.String()),
		zap.Int("items", len(items)))
	return days, nil
}

// pageAll fetches consecutive pages until one comes back short.
func pageAll[T any](ctx context.Context, fetch func(ctx context.Context, offset int) ([]T, error)) ([]T, error) {
	var out []T
	for offset := 0; ; offset += calendarPageSize {
		page, err := fetch(ctx, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < calendarPageSize {
			return out, nil
		}
	}
}

// Ensure interface compliance
var _ ports.CalendarService = (*CalendarService)(nil)
