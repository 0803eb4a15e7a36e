package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"workdiary.app/server/common/llm"
	"workdiary.app/server/internal/activity"
)

const signoff = "— Work Diary"

// Composer turns a composite activity view into a short wellness nudge.
// Two model stages: the insight stage reads the raw statistics and returns
// structured observations, the message stage writes the final text. Either
// stage failing degrades to a templated message, never to an error the
// caller has to handle.
type Composer struct {
	insightClient llm.Client
	nudgeClient   llm.Client
}

func NewComposer(insightClient, nudgeClient llm.Client) *Composer {
	return &Composer{
		insightClient: insightClient,
		nudgeClient:   nudgeClient,
	}
}

// Result is a composed nudge plus how it was produced.
type Result struct {
	Message  string   `json:"message"`
	Insight  *Insight `json:"insight,omitempty"`
	Fallback bool     `json:"fallback"`
}

// Compose produces the nudge message for one user's activity view.
func (c *Composer) Compose(ctx context.Context, userName string, view *activity.CompositeView) *Result {
	if userName == "" {
		userName = "there"
	}

	ins, err := c.analyze(ctx, view)
	if err != nil {
		slog.WarnContext(ctx, "insight stage failed, using fallback message", "error", err)
		return &Result{Message: fallbackMessage(userName, view), Fallback: true}
	}

	message, err := c.writeMessage(ctx, userName, ins)
	if err != nil {
		slog.WarnContext(ctx, "message stage failed, using fallback message", "error", err)
		return &Result{Message: fallbackMessage(userName, view), Insight: ins, Fallback: true}
	}

	return &Result{Message: withSignoff(message), Insight: ins}
}

func (c *Composer) analyze(ctx context.Context, view *activity.CompositeView) (*Insight, error) {
	prompt, err := insightPrompt(view)
	if err != nil {
		return nil, err
	}

	resp, err := c.insightClient.Complete(ctx, llm.Request{
		System: insightSystemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("insight completion: %w", err)
	}

	ins, err := parseInsight(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing insight: %w", err)
	}
	return ins, nil
}

func (c *Composer) writeMessage(ctx context.Context, userName string, ins *Insight) (string, error) {
	resp, err := c.nudgeClient.Complete(ctx, llm.Request{
		System: messageSystemPrompt,
		Prompt: messagePrompt(userName, ins),
	})
	if err != nil {
		return "", fmt.Errorf("message completion: %w", err)
	}

	message := strings.TrimSpace(resp.Content)
	if message == "" {
		return "", fmt.Errorf("empty message from model")
	}
	return message, nil
}

// parseInsight decodes the insight stage's reply as JSON only. Model
// output is data, never something to evaluate.
func parseInsight(content string) (*Insight, error) {
	raw := stripCodeFence(content)

	var ins Insight
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ins); err != nil {
		return nil, err
	}
	if ins.Summary == "" {
		return nil, fmt.Errorf("insight missing summary")
	}
	return &ins, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func withSignoff(message string) string {
	if strings.Contains(message, "Work Diary") {
		return message
	}
	return message + "\n\n" + signoff
}

// fallbackMessage is the templated nudge used when either model stage
// fails. It only states numbers we computed ourselves.
func fallbackMessage(userName string, view *activity.CompositeView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hey %s! 👋 Here's your activity check-in.\n\n", userName)

	if view.ServicesConnected["slack"] {
		fmt.Fprintf(&b, "You sent %d Slack messages", view.Slack.TotalMessages)
		if view.Slack.TotalMessages > 0 {
			fmt.Fprintf(&b, ", %.0f%% of them during work hours", view.Slack.WorkHoursRatio*100)
		}
		b.WriteString(".\n")
	}
	if view.ServicesConnected["calendar"] {
		fmt.Fprintf(&b, "You had %d meetings", view.Calendar.TotalMeetings)
		if view.Calendar.AfterHoursMeetings > 0 {
			fmt.Fprintf(&b, ", %d of them after hours", view.Calendar.AfterHoursMeetings)
		}
		b.WriteString(".\n")
	}
	if view.ServicesConnected["github"] {
		fmt.Fprintf(&b, "You pushed %d commits across %d repositories.\n",
			view.GitHub.Commits, len(view.GitHub.Repositories))
	}

	var missing []string
	for _, platform := range []string{"slack", "calendar", "github"} {
		if !view.ServicesConnected[platform] {
			missing = append(missing, platform)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "\nConnect %s for a fuller picture.\n", strings.Join(missing, ", "))
	}

	b.WriteString("\nRemember to take breaks!\n\n")
	b.WriteString(signoff)
	return b.String()
}
