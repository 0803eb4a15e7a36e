package insight

import (
	"encoding/json"
	"fmt"
	"strings"

	"workdiary.app/server/common/llm"
	"workdiary.app/server/internal/activity"
)

const insightSystemPrompt = `You analyze a person's work activity statistics and identify work-life balance patterns.
Respond with a single JSON object and nothing else. Do not invent activity for platforms whose status is not "ok"; instead note they are not connected.`

const messageSystemPrompt = `You write short, warm check-in messages about work-life balance.
Keep it under 120 words, conversational, and grounded only in the observations given. Never lecture.`

// insightPrompt serializes the composite view together with the JSON
// schema the reply must match.
func insightPrompt(view *activity.CompositeView) (string, error) {
	viewJSON, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling view: %w", err)
	}

	schema, err := json.MarshalIndent(llm.GenerateSchemaFrom(&Insight{}), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling schema: %w", err)
	}

	var b strings.Builder
	b.WriteString("Activity statistics for the analysis window:\n\n")
	b.Write(viewJSON)
	b.WriteString("\n\nThe services_connected map says which platforms hold real data.\n")
	b.WriteString("Reply with JSON matching this schema exactly:\n\n")
	b.Write(schema)
	return b.String(), nil
}

func messagePrompt(userName string, ins *Insight) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a check-in message for %s.\n\n", userName)
	fmt.Fprintf(&b, "Summary of their week: %s\n", ins.Summary)
	if len(ins.Observations) > 0 {
		b.WriteString("Observations:\n")
		for _, obs := range ins.Observations {
			fmt.Fprintf(&b, "- %s\n", obs)
		}
	}
	if ins.Suggestion != "" {
		fmt.Fprintf(&b, "Suggestion to work in naturally: %s\n", ins.Suggestion)
	}
	if ins.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", ins.Tone)
	}
	b.WriteString("\nSign it as Work Diary.")
	return b.String()
}
