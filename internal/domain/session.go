package domain

import (
	"time"

	"golang.org/x/oauth2"
)

// Session is a logged-in user's server-side session, keyed by the opaque
// state token carried in the browser cookie. Sessions live in the key-value
// store with a TTL and are evicted on logout or expiry.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	IconURL   string    `json:"icon_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	// Credentials are the drive provider's OAuth tokens. They never leave
	// the server; clients only ever see the opaque session token.
	Credentials *oauth2.Token `json:"credentials,omitempty"`
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
