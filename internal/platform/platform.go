package platform

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors every platform client maps its failures onto. Handlers
// translate these to stable API error codes without knowing which SDK
// produced them.
var (
	ErrNotConnected      = errors.New("platform not connected")
	ErrCredentialInvalid = errors.New("platform credential invalid")
	ErrUnavailable       = errors.New("platform unavailable")
)

// Window is the half-open UTC interval [Start, End) a fetch covers.
type Window struct {
	Start time.Time
	End   time.Time
}

// SlackMessage is one message as seen in a channel or DM history.
type SlackMessage struct {
	Timestamp       time.Time
	ChannelID       string
	UserID          string
	Text            string
	ThreadTimestamp string
	ReplyCount      int
	IsSelf          bool
}

// SlackThread is a full thread the user's workspace channels contain,
// parent first.
type SlackThread struct {
	ChannelID string
	Messages  []SlackMessage
}

// SlackData is everything one Slack fetch produced. ChannelErrors records
// channels that failed without failing the whole fetch.
type SlackData struct {
	AuthUserID    string
	Messages      []SlackMessage
	DMs           []SlackMessage
	Threads       []SlackThread
	ChannelErrors []string
}

// SlackProfile identifies the connected Slack user for nudge addressing.
type SlackProfile struct {
	UserID      string
	DisplayName string
	RealName    string
	Timezone    string
}

// CalendarEvent is one concrete event instance from the primary calendar.
type CalendarEvent struct {
	Start            time.Time
	End              time.Time
	AllDay           bool
	RecurringEventID string
	OrganizerEmail   string
	OrganizerSelf    bool
	AttendeeEmails   []string
}

type CalendarData struct {
	Events []CalendarEvent
}

// GitHubEvent is one activity event. CommitCount is only set for push
// events. Public mirrors the event's visibility; private-repo events count
// toward activity but never feed language statistics.
type GitHubEvent struct {
	CreatedAt   time.Time
	Type        string
	Repo        string
	CommitCount int
	Public      bool
}

// GitHubData carries events plus per-repo language byte counts. RepoErrors
// records repos whose language lookup failed.
type GitHubData struct {
	Login         string
	Events        []GitHubEvent
	RepoLanguages map[string]map[string]int
	RepoErrors    []string
}

// SlackClient fetches Slack activity and delivers nudge DMs.
type SlackClient interface {
	FetchActivity(ctx context.Context, token string, window Window) (*SlackData, error)
	Profile(ctx context.Context, token string) (*SlackProfile, error)
	SendDM(ctx context.Context, token, slackUserID, text string) error
}

// CalendarClient fetches Google Calendar events.
type CalendarClient interface {
	FetchEvents(ctx context.Context, token string, window Window) (*CalendarData, error)
}

// GitHubClient fetches GitHub activity.
type GitHubClient interface {
	FetchActivity(ctx context.Context, token string, window Window) (*GitHubData, error)
}

// mapContextErr turns a fetch deadline into ErrUnavailable so a slow
// platform reads the same as a down one.
func mapContextErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUnavailable
	}
	return err
}
