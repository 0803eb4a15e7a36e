package queue

type TaskType string

const (
	// TaskTypeDeliverNudge asks the worker to deliver an already-generated
	// nudge over Slack DM.
	TaskTypeDeliverNudge TaskType = "deliver_nudge"
)
