package activity

// Status values reported in each platform section of the composite view.
// Anything other than StatusOK means the numbers in that section are
// placeholders, never real activity.
const (
	StatusOK           = "ok"
	StatusNotConnected = "not connected"
)

// ThreadStats summarizes the user's participation in Slack threads.
type ThreadStats struct {
	TotalThreads    int              `json:"total_threads"`
	ThreadsStarted  int              `json:"threads_started"`
	UserReplies     int              `json:"user_replies"`
	AvgThreadLength float64          `json:"avg_thread_length"`
	LongThreads     int              `json:"long_threads"`
	DeepDiscussions []DeepDiscussion `json:"deep_discussions"`
}

// DeepDiscussion is a thread the user was heavily involved in: more than
// 5 total messages with more than 2 replies from the user.
type DeepDiscussion struct {
	Channel     string `json:"channel"`
	Length      int    `json:"length"`
	UserReplies int    `json:"user_replies"`
	Topic       string `json:"topic"`
}

type SlackStats struct {
	Status             string         `json:"status"`
	TotalMessages      int            `json:"total_messages"`
	DirectMessages     int            `json:"direct_messages"`
	ChannelMessages    int            `json:"channel_messages"`
	MessagesByHour     [24]int        `json:"messages_by_hour"`
	MessagesByWeekday  [7]int         `json:"messages_by_weekday"`
	MessagesByDate     map[string]int `json:"messages_by_date"`
	WorkHoursRatio     float64        `json:"work_hours_ratio"`
	PeakHours          []int          `json:"peak_hours"`
	BusiestDays        []string       `json:"busiest_days"`
	Threads            ThreadStats    `json:"threads"`
	ResponseTimeByHour [24]float64    `json:"response_time_by_hour_minutes"`
	Errors             []string       `json:"errors,omitempty"`
}

// MeetingTypeBreakdown classifies meetings by who attends: a single
// attendee is a one-on-one, attendees all sharing the organizer's email
// domain is internal, anything else is external.
type MeetingTypeBreakdown struct {
	OneOnOne int `json:"one_on_one"`
	Internal int `json:"internal"`
	External int `json:"external"`
}

type CalendarStats struct {
	Status                string               `json:"status"`
	TotalMeetings         int                  `json:"total_meetings"`
	TotalDurationMinutes  float64              `json:"total_duration_minutes"`
	AvgDurationMinutes    float64              `json:"avg_duration_minutes"`
	MedianDurationMinutes float64              `json:"median_duration_minutes"`
	AfterHoursMeetings    int                  `json:"after_hours_meetings"`
	EarlyMeetings         int                  `json:"early_meetings"`
	BackToBackMeetings    int                  `json:"back_to_back_meetings"`
	RecurringMeetings     int                  `json:"recurring_meetings"`
	MeetingsByWeekday     [7]int               `json:"meetings_by_weekday"`
	MeetingsByDate        map[string]int       `json:"meetings_by_date"`
	MeetingTypes          MeetingTypeBreakdown `json:"meeting_types"`
}

// LanguagePercent is one language's share of bytes across touched repos.
type LanguagePercent struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

type GitHubStats struct {
	Status       string                    `json:"status"`
	Commits      int                       `json:"commits"`
	PullRequests int                       `json:"pull_requests"`
	Reviews      int                       `json:"reviews"`
	Issues       int                       `json:"issues"`
	Comments     int                       `json:"comments"`
	TotalEvents  int                       `json:"total_events"`
	EventsByDay  map[string]map[string]int `json:"events_by_day"`
	Repositories []string                  `json:"repositories"`
	Languages    []LanguagePercent         `json:"languages"`
	Errors       []string                  `json:"errors,omitempty"`
}

// CompositeView is the merged three-platform payload handed to prompt
// construction. All three sections are always present; ServicesConnected
// says which ones hold real data.
type CompositeView struct {
	Slack             SlackStats      `json:"slack"`
	Calendar          CalendarStats   `json:"calendar"`
	GitHub            GitHubStats     `json:"github"`
	ServicesConnected map[string]bool `json:"services_connected"`
}
