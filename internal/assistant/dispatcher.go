package assistant

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"flowdeck/internal/config"
	"flowdeck/internal/domain"
	"flowdeck/internal/store"
)

// OutcomeKind categorizes the result of dispatching an intent.
type OutcomeKind int

const (
	OutcomeMetrics OutcomeKind = iota
	OutcomeRiskList
	OutcomeWorkload
	OutcomeCreated
	OutcomeUpdated
	OutcomeDiagram
	OutcomeNotFound
	OutcomeUnrecognized
)

// Outcome is the tagged result of one dispatched intent; only the fields for
// its kind are populated.
type Outcome struct {
	Kind     OutcomeKind
	Metrics  domain.MetricsPayload
	Tasks    []domain.Task
	Workload domain.WorkloadPayload
	Diagram  domain.DiagramPayload
	Task     domain.Task // created or updated task
	Ref      string      // unresolved task reference
}

// Dispatcher executes the side effect implied by a classified intent against
// the task store. Mutations are optimistic: the store returns before the
// backend write settles.
type Dispatcher struct {
	Store  *store.Store
	Config *config.Config
	Now    func() time.Time
	Rand   *rand.Rand
}

func NewDispatcher(st *store.Store, cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		Store:  st,
		Config: cfg,
		Now:    time.Now,
		Rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Dispatch runs exactly one action for the intent and reports the outcome.
func (d *Dispatcher) Dispatch(intent Intent) Outcome {
	switch intent.Kind {
	case IntentSummarize:
		return Outcome{Kind: OutcomeMetrics, Metrics: ComputeMetrics(d.Store.GetAll())}
	case IntentRiskQuery:
		return Outcome{Kind: OutcomeRiskList, Tasks: riskTasks(d.Store.GetAll())}
	case IntentWorkloadQuery:
		return Outcome{Kind: OutcomeWorkload, Workload: ComputeWorkload(d.Store.GetAll())}
	case IntentCreateTask:
		return Outcome{Kind: OutcomeCreated, Task: d.createTask(intent.TaskName)}
	case IntentUpdateStatus:
		return d.updateStatus(intent)
	case IntentGenerateFlow:
		return Outcome{Kind: OutcomeDiagram, Diagram: pipelineDiagram()}
	default:
		return Outcome{Kind: OutcomeUnrecognized}
	}
}

// ComputeMetrics summarizes a task snapshot. Progress is defined as 0 for an
// empty collection.
func ComputeMetrics(tasks []domain.Task) domain.MetricsPayload {
	m := domain.MetricsPayload{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case domain.StatusDone:
			m.Done++
		case domain.StatusBlocked:
			m.Blocked++
		}
		if t.Risk == domain.RiskCritical {
			m.CriticalRisk++
		}
	}
	if m.Total > 0 {
		m.Progress = int(math.Round(float64(m.Done) / float64(m.Total) * 100))
	}
	return m
}

func riskTasks(tasks []domain.Task) []domain.Task {
	var out []domain.Task
	for _, t := range tasks {
		if t.Risk == domain.RiskHigh || t.Risk == domain.RiskCritical {
			out = append(out, t)
		}
	}
	return out
}

// ComputeWorkload groups non-done tasks by assignee and sorts the series by
// count descending (name ascending on ties, so output is deterministic).
func ComputeWorkload(tasks []domain.Task) domain.WorkloadPayload {
	counts := map[string]int{}
	for _, t := range tasks {
		if t.Status == domain.StatusDone {
			continue
		}
		counts[t.Assignee]++
	}
	series := make([]domain.AssigneeLoad, 0, len(counts))
	for name, n := range counts {
		series = append(series, domain.AssigneeLoad{Assignee: name, Count: n})
	}
	sort.Slice(series, func(i, j int) bool {
		if series[i].Count != series[j].Count {
			return series[i].Count > series[j].Count
		}
		return series[i].Assignee < series[j].Assignee
	})
	top := "no one"
	if len(series) > 0 {
		top = series[0].Assignee
	}
	return domain.WorkloadPayload{Series: series, Top: top}
}

func (d *Dispatcher) createTask(name string) domain.Task {
	if name == "" {
		name = d.Config.Assistant.DefaultTaskName
	}
	now := d.Now().UTC()
	region := d.Config.Board.Region
	t := domain.Task{
		ID:          NewTaskID(),
		Name:        name,
		Assignee:    d.Config.Assistant.AssigneePlaceholder,
		Status:      domain.StatusTodo,
		Risk:        domain.RiskLow,
		Due:         now.Format(time.DateOnly),
		Description: fmt.Sprintf("Created by the assistant: %s", name),
		Position: &domain.Position{
			X: region.MinX + d.Rand.Float64()*(region.MaxX-region.MinX),
			Y: region.MinY + d.Rand.Float64()*(region.MaxY-region.MinY),
		},
		CreatedAt: now.Format(time.RFC3339),
		UpdatedAt: now.Format(time.RFC3339),
	}
	return d.Store.Create(t)
}

func (d *Dispatcher) updateStatus(intent Intent) Outcome {
	task, ok := Resolve(intent.TaskRef, d.Store.GetAll())
	if !ok {
		return Outcome{Kind: OutcomeNotFound, Ref: intent.TaskRef}
	}
	status, err := domain.ParseStatusToken(intent.StatusToken)
	if err != nil {
		// The classifier only emits tokens from the status alternation, so
		// this is unreachable in practice; treat it like a miss.
		return Outcome{Kind: OutcomeNotFound, Ref: intent.TaskRef}
	}
	updated, ok := d.Store.Update(task.ID, domain.TaskPatch{Status: &status})
	if !ok {
		return Outcome{Kind: OutcomeNotFound, Ref: intent.TaskRef}
	}
	return Outcome{Kind: OutcomeUpdated, Task: updated}
}

func pipelineDiagram() domain.DiagramPayload {
	stages := []string{"Start", "Planning", "Development", "Review", "Testing", "Deployment"}
	d := domain.DiagramPayload{}
	for i, label := range stages {
		id := strings.ToLower(label)
		d.Nodes = append(d.Nodes, domain.DiagramNode{ID: id, Label: label})
		if i > 0 {
			d.Edges = append(d.Edges, domain.DiagramEdge{From: d.Nodes[i-1].ID, To: id})
		}
	}
	return d
}

// NewTaskID mints a task identifier, e.g. "TSK-9F1B04A2". IDs are unique and
// immutable for the task's lifetime.
func NewTaskID() string {
	return "TSK-" + strings.ToUpper(uuid.NewString()[:8])
}
