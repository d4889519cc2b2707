package domain

import (
	"fmt"
	"strings"
)

// Status is a task workflow state. Persisted as its string form; never free text.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
)

// ParseStatus accepts canonical status strings.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusTodo:
		return StatusTodo, nil
	case StatusInProgress:
		return StatusInProgress, nil
	case StatusReview:
		return StatusReview, nil
	case StatusDone:
		return StatusDone, nil
	case StatusBlocked:
		return StatusBlocked, nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// ParseStatusToken maps the spoken-form tokens accepted by assistant commands
// ("in progress" rather than "in_progress") to a Status.
func ParseStatusToken(tok string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(tok)) {
	case "todo":
		return StatusTodo, nil
	case "in progress", "in_progress":
		return StatusInProgress, nil
	case "review":
		return StatusReview, nil
	case "done":
		return StatusDone, nil
	case "blocked":
		return StatusBlocked, nil
	}
	return "", fmt.Errorf("invalid status token %q", tok)
}

// Label returns the human-readable form of a status.
func (s Status) Label() string {
	switch s {
	case StatusInProgress:
		return "in progress"
	default:
		return string(s)
	}
}

// Risk is a task risk level.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskMedium   Risk = "medium"
	RiskHigh     Risk = "high"
	RiskCritical Risk = "critical"
)

func ParseRisk(s string) (Risk, error) {
	switch Risk(strings.ToLower(strings.TrimSpace(s))) {
	case RiskLow:
		return RiskLow, nil
	case RiskMedium:
		return RiskMedium, nil
	case RiskHigh:
		return RiskHigh, nil
	case RiskCritical:
		return RiskCritical, nil
	}
	return "", fmt.Errorf("invalid risk %q", s)
}

// Position is a 2-D layout position on the board.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Task is a unit of project work. ID is immutable once assigned.
type Task struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Assignee     string    `json:"assignee,omitempty"`
	Status       Status    `json:"status" enum:"todo,in_progress,review,done,blocked"`
	Risk         Risk      `json:"risk" enum:"low,medium,high,critical"`
	Due          string    `json:"due,omitempty" format:"date"`
	Description  string    `json:"description,omitempty"`
	CriticalPath bool      `json:"critical_path,omitempty"`
	Position     *Position `json:"position,omitempty"`
	CreatedAt    string    `json:"created_at" format:"date-time"`
	UpdatedAt    string    `json:"updated_at" format:"date-time"`
}

// TaskPatch is a partial update. Nil fields are left untouched; set fields
// overwrite shallowly (last write wins).
type TaskPatch struct {
	Name         *string   `json:"name,omitempty"`
	Assignee     *string   `json:"assignee,omitempty"`
	Status       *Status   `json:"status,omitempty"`
	Risk         *Risk     `json:"risk,omitempty"`
	Due          *string   `json:"due,omitempty"`
	Description  *string   `json:"description,omitempty"`
	CriticalPath *bool     `json:"critical_path,omitempty"`
	Position     *Position `json:"position,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Name == nil && p.Assignee == nil && p.Status == nil && p.Risk == nil &&
		p.Due == nil && p.Description == nil && p.CriticalPath == nil && p.Position == nil
}

// Apply merges the patch into a task, returning the merged copy.
func (p TaskPatch) Apply(t Task) Task {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Assignee != nil {
		t.Assignee = *p.Assignee
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Risk != nil {
		t.Risk = *p.Risk
	}
	if p.Due != nil {
		t.Due = *p.Due
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.CriticalPath != nil {
		t.CriticalPath = *p.CriticalPath
	}
	if p.Position != nil {
		pos := *p.Position
		t.Position = &pos
	}
	return t
}

// Document is a workspace document. Stored alongside tasks; the assistant
// never touches documents.
type Document struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	UpdatedAt string `json:"updated_at" format:"date-time"`
}

// Event is one row of the append-only audit log.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
