package domain

// Role identifies who authored a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageKind tags the payload variant carried by a message.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindSuccess  MessageKind = "success"
	KindMetrics  MessageKind = "metrics"
	KindChart    MessageKind = "chart"
	KindTaskList MessageKind = "task-list"
	KindDiagram  MessageKind = "diagram"
)

// Payload is the closed set of structured message payloads. Each kind of
// message carries at most one variant; text and success messages carry none.
type Payload interface {
	PayloadKind() MessageKind
}

// MetricsPayload summarizes the task collection.
type MetricsPayload struct {
	Total        int `json:"total"`
	Done         int `json:"done"`
	Blocked      int `json:"blocked"`
	CriticalRisk int `json:"critical_risk"`
	Progress     int `json:"progress"`
}

func (MetricsPayload) PayloadKind() MessageKind { return KindMetrics }

// AssigneeLoad is one bar of the workload chart.
type AssigneeLoad struct {
	Assignee string `json:"assignee"`
	Count    int    `json:"count"`
}

// WorkloadPayload is the per-assignee open-task series, sorted by count
// descending. Top is the busiest assignee, or "no one" when empty.
type WorkloadPayload struct {
	Series []AssigneeLoad `json:"series"`
	Top    string         `json:"top"`
}

func (WorkloadPayload) PayloadKind() MessageKind { return KindChart }

// TaskListPayload carries a filtered task list, e.g. the risk query result.
type TaskListPayload struct {
	Tasks []Task `json:"tasks"`
}

func (TaskListPayload) PayloadKind() MessageKind { return KindTaskList }

type DiagramNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type DiagramEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DiagramPayload describes a process diagram for the view layer to plot.
type DiagramPayload struct {
	Nodes []DiagramNode `json:"nodes"`
	Edges []DiagramEdge `json:"edges"`
}

func (DiagramPayload) PayloadKind() MessageKind { return KindDiagram }

// Message is one entry of a conversation log. Append-only and immutable once
// appended; hand-offs are always by value.
type Message struct {
	ID        string      `json:"id"`
	Role      Role        `json:"role"`
	Content   string      `json:"content"`
	Kind      MessageKind `json:"kind"`
	Payload   Payload     `json:"payload,omitempty"`
	CreatedAt string      `json:"created_at" format:"date-time"`
}
