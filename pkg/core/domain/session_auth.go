package domain

import "time"

// Session is the CMS login result.
type Session struct {
	Token     string         `json:"-"`
	User      map[string]any `json:"user"`
	ExpiresAt time.Time      `json:"expiresAt"`
}
