package activity

// MergeParams carries whichever per-platform stats were produced. A nil
// stats pointer means that platform contributed nothing; the matching
// Reason explains why ("not connected", a fetch failure, ...).
type MergeParams struct {
	Slack          *SlackStats
	Calendar       *CalendarStats
	GitHub         *GitHubStats
	SlackReason    string
	CalendarReason string
	GitHubReason   string
}

// Merge builds the composite view. All three platform keys are always
// present; absent platforms get a zero-valued placeholder whose Status
// carries the reason, and ServicesConnected records which sections hold
// real data so prompt construction never fabricates insights about a
// platform the user never linked.
func Merge(params MergeParams) *CompositeView {
	view := &CompositeView{
		ServicesConnected: map[string]bool{
			"slack":    params.Slack != nil,
			"calendar": params.Calendar != nil,
			"github":   params.GitHub != nil,
		},
	}

	if params.Slack != nil {
		view.Slack = *params.Slack
	} else {
		view.Slack = PlaceholderSlackStats(orNotConnected(params.SlackReason))
	}

	if params.Calendar != nil {
		view.Calendar = *params.Calendar
	} else {
		view.Calendar = PlaceholderCalendarStats(orNotConnected(params.CalendarReason))
	}

	if params.GitHub != nil {
		view.GitHub = *params.GitHub
	} else {
		view.GitHub = PlaceholderGitHubStats(orNotConnected(params.GitHubReason))
	}

	return view
}

// PlaceholderSlackStats is the zero-valued stand-in for an absent Slack
// section. Status distinguishes it from a connected account with no
// activity.
func PlaceholderSlackStats(reason string) SlackStats {
	return SlackStats{
		Status:         reason,
		MessagesByDate: map[string]int{},
		Threads:        ThreadStats{DeepDiscussions: []DeepDiscussion{}},
	}
}

func PlaceholderCalendarStats(reason string) CalendarStats {
	return CalendarStats{
		Status:         reason,
		MeetingsByDate: map[string]int{},
	}
}

func PlaceholderGitHubStats(reason string) GitHubStats {
	return GitHubStats{
		Status:       reason,
		EventsByDay:  map[string]map[string]int{},
		Repositories: []string{},
		Languages:    []LanguagePercent{},
	}
}

func orNotConnected(reason string) string {
	if reason == "" {
		return StatusNotConnected
	}
	return reason
}
