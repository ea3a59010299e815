package model

import "strings"

// TaskNameExecuteCommand is the task name the dispatcher writes on every
// feed-sourced work-queue message.
const TaskNameExecuteCommand = "execute_command"

// TaskKwargs carries the routing keyword arguments for an execute_command
// message.
type TaskKwargs struct {
	Target string `json:"target"`
	TaskID string `json:"task_id"`
}

// WorkMessage is the payload carried on the work queue. Exactly one of three
// shapes is populated:
//   - dispatcher-sourced: TaskName/Args/Kwargs,
//   - direct job invocation: ScoringJobID,
//   - fully manual invocation: ItemID/ScorecardName/ScoreName.
type WorkMessage struct {
	TaskName string      `json:"task_name,omitempty"`
	Args     []string    `json:"args,omitempty"`
	Kwargs   *TaskKwargs `json:"kwargs,omitempty"`

	ScoringJobID string `json:"scoring_job_id,omitempty"`

	ItemID        string `json:"item_id,omitempty"`
	ScorecardName string `json:"scorecard_name,omitempty"`
	ScoreName     string `json:"score_name,omitempty"`
}

// JobID returns the scoring-job id the message references, or "" for fully
// manual messages.
func (m *WorkMessage) JobID() string {
	if m.ScoringJobID != "" {
		return m.ScoringJobID
	}
	if m.TaskName == TaskNameExecuteCommand && m.Kwargs != nil {
		return m.Kwargs.TaskID
	}
	return ""
}

// Route returns the message's routing target, or "" when it carries none.
// Only dispatcher-sourced messages are routed; direct and manual invocations
// go to whichever worker drains them.
func (m *WorkMessage) Route() string {
	if m.Kwargs == nil {
		return ""
	}
	return m.Kwargs.Target
}

// IsManual reports whether the message is a fully manual invocation carrying
// its own item/scorecard/score triple.
func (m *WorkMessage) IsManual() bool {
	return m.JobID() == "" && strings.TrimSpace(m.ItemID) != ""
}

// Delivery is a received work-queue message together with the opaque token
// needed to acknowledge it.
type Delivery struct {
	Message WorkMessage
	// Token identifies the in-flight entry for acknowledgement. Its contents
	// are queue-implementation specific.
	Token string
}
