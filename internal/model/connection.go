package model

import "time"

type Platform string

const (
	PlatformSlack          Platform = "slack"
	PlatformGoogleCalendar Platform = "google_calendar"
	PlatformGitHub         Platform = "github"
)

// Platforms lists every supported platform in composite-view order.
var Platforms = []Platform{PlatformSlack, PlatformGoogleCalendar, PlatformGitHub}

func (p Platform) Valid() bool {
	switch p {
	case PlatformSlack, PlatformGoogleCalendar, PlatformGitHub:
		return true
	}
	return false
}

// Connection links a user to one external platform. Tokens are stored
// encrypted; the plaintext only exists in memory while a fetch is running.
type Connection struct {
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	TokenExpiresAt    *time.Time `json:"-"`
	EncryptedToken    []byte     `json:"-"`
	EncryptedRefresh  []byte     `json:"-"`
	ExternalAccountID *string    `json:"external_account_id,omitempty"`
	Platform          Platform   `json:"platform"`
	Scopes            []string   `json:"scopes,omitempty"`
	ID                int64      `json:"id"`
	UserID            int64      `json:"user_id"`
}
