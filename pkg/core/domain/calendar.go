package domain

import "time"

type CalendarItemType string

const (
	CalendarArticle CalendarItemType = "article"
	CalendarLink    CalendarItemType = "link"
)

// CalendarItem is one scheduled publication.
type CalendarItem struct {
	Type        CalendarItemType `json:"type"`
	Title       string           `json:"title"`
	PublishDate time.Time        `json:"publishDate"`
	URL         string           `json:"url,omitempty"`
	ColumnTitle string           `json:"columnTitle,omitempty"`
	SourceID    string           `json:"sourceId"`
}

// CalendarDay groups the items published on one local day (YYYY-MM-DD).
type CalendarDay struct {
	Date  string         `json:"date"`
	Items []CalendarItem `json:"items"`
}
