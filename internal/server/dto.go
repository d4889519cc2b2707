package server

import (
	"flowdeck/internal/domain"
)

type CreateTaskRequest struct {
	Name        string           `json:"name" minLength:"1"`
	Assignee    string           `json:"assignee,omitempty"`
	Status      string           `json:"status,omitempty" enum:",todo,in_progress,review,done,blocked"`
	Risk        string           `json:"risk,omitempty" enum:",low,medium,high,critical"`
	Due         string           `json:"due,omitempty"`
	Description string           `json:"description,omitempty"`
	Position    *domain.Position `json:"position,omitempty"`
}

type UpdateTaskRequest struct {
	Name         *string          `json:"name,omitempty"`
	Assignee     *string          `json:"assignee,omitempty"`
	Status       *string          `json:"status,omitempty"`
	Risk         *string          `json:"risk,omitempty"`
	Due          *string          `json:"due,omitempty"`
	Description  *string          `json:"description,omitempty"`
	CriticalPath *bool            `json:"critical_path,omitempty"`
	Position     *domain.Position `json:"position,omitempty"`
}

// Patch converts the request into a domain patch, validating enum fields.
func (r UpdateTaskRequest) Patch() (domain.TaskPatch, error) {
	p := domain.TaskPatch{
		Name:         r.Name,
		Assignee:     r.Assignee,
		Due:          r.Due,
		Description:  r.Description,
		CriticalPath: r.CriticalPath,
		Position:     r.Position,
	}
	if r.Status != nil {
		st, err := domain.ParseStatus(*r.Status)
		if err != nil {
			return p, err
		}
		p.Status = &st
	}
	if r.Risk != nil {
		rk, err := domain.ParseRisk(*r.Risk)
		if err != nil {
			return p, err
		}
		p.Risk = &rk
	}
	return p, nil
}

type BulkUpdateRequest struct {
	IDs    []string `json:"ids" minItems:"1"`
	Status string   `json:"status" enum:"todo,in_progress,review,done,blocked"`
}

type BulkUpdateResponse struct {
	Updated int `json:"updated"`
}

type TaskListResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

type CommandRequest struct {
	Text string `json:"text" minLength:"1"`
}

// MessageResponse flattens the payload union into one optional field per
// kind, so the API schema stays concrete.
type MessageResponse struct {
	ID        string                  `json:"id"`
	Role      domain.Role             `json:"role"`
	Content   string                  `json:"content"`
	Kind      domain.MessageKind      `json:"kind"`
	Metrics   *domain.MetricsPayload  `json:"metrics,omitempty"`
	Workload  *domain.WorkloadPayload `json:"workload,omitempty"`
	Tasks     []domain.Task           `json:"tasks,omitempty"`
	Diagram   *domain.DiagramPayload  `json:"diagram,omitempty"`
	CreatedAt string                  `json:"created_at"`
}

func toMessageResponse(m domain.Message) MessageResponse {
	out := MessageResponse{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		Kind:      m.Kind,
		CreatedAt: m.CreatedAt,
	}
	switch p := m.Payload.(type) {
	case domain.MetricsPayload:
		out.Metrics = &p
	case domain.WorkloadPayload:
		out.Workload = &p
	case domain.TaskListPayload:
		out.Tasks = p.Tasks
	case domain.DiagramPayload:
		out.Diagram = &p
	}
	return out
}

type ConversationResponse struct {
	Messages  []MessageResponse `json:"messages"`
	Composing bool              `json:"composing"`
}

type PutDocumentRequest struct {
	Title string `json:"title" minLength:"1"`
	Body  string `json:"body,omitempty"`
}
