package assistant

import (
	"context"
	"math/rand"
	"regexp"
	"testing"
	"time"

	"flowdeck/internal/config"
	"flowdeck/internal/domain"
	"flowdeck/internal/store"
)

// memBackend is an in-memory persistence stub; writes are accepted and
// forgotten.
type memBackend struct{ tasks []domain.Task }

func (b *memBackend) FetchTasks(ctx context.Context) ([]domain.Task, error) { return b.tasks, nil }
func (b *memBackend) CreateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	return t, nil
}
func (b *memBackend) UpdateTask(ctx context.Context, id string, p domain.TaskPatch) (bool, error) {
	return true, nil
}
func (b *memBackend) BulkUpdateTasks(ctx context.Context, ids []string, p domain.TaskPatch) (bool, error) {
	return true, nil
}

var testTime = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func newTestDispatcher(t *testing.T, seed ...domain.Task) *Dispatcher {
	t.Helper()
	st := store.New(&memBackend{tasks: seed}, nil)
	t.Cleanup(st.Close)
	if err := st.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	d := NewDispatcher(st, config.Default("test"))
	d.Now = func() time.Time { return testTime }
	d.Rand = rand.New(rand.NewSource(1))
	return d
}

func seedTasks() []domain.Task {
	return []domain.Task{
		{ID: "TSK-001", Name: "Landing page redesign", Assignee: "Maya", Status: domain.StatusInProgress, Risk: domain.RiskHigh},
		{ID: "TSK-002", Name: "API integration", Assignee: "Maya", Status: domain.StatusTodo, Risk: domain.RiskCritical},
		{ID: "TSK-003", Name: "Write onboarding docs", Assignee: "Sam", Status: domain.StatusTodo, Risk: domain.RiskLow},
		{ID: "TSK-004", Name: "Payment retries", Assignee: "Lee", Status: domain.StatusBlocked, Risk: domain.RiskMedium},
		{ID: "TSK-005", Name: "Set up CI", Assignee: "Sam", Status: domain.StatusDone, Risk: domain.RiskLow},
		{ID: "TSK-006", Name: "Logo refresh", Assignee: "Lee", Status: domain.StatusDone, Risk: domain.RiskLow},
	}
}

func TestComputeMetrics(t *testing.T) {
	m := ComputeMetrics(seedTasks())
	want := domain.MetricsPayload{Total: 6, Done: 2, Blocked: 1, CriticalRisk: 1, Progress: 33}
	if m != want {
		t.Fatalf("ComputeMetrics = %+v, want %+v", m, want)
	}
	if got := ComputeMetrics(nil); got.Progress != 0 || got.Total != 0 {
		t.Fatalf("ComputeMetrics(nil) = %+v, want zero", got)
	}
}

func TestComputeMetricsRounding(t *testing.T) {
	done := domain.Task{Status: domain.StatusDone}
	todo := domain.Task{Status: domain.StatusTodo}
	if got := ComputeMetrics([]domain.Task{done, todo, todo}).Progress; got != 33 {
		t.Errorf("1/3 progress = %d, want 33", got)
	}
	if got := ComputeMetrics([]domain.Task{done, done, todo}).Progress; got != 67 {
		t.Errorf("2/3 progress = %d, want 67", got)
	}
}

func TestComputeWorkload(t *testing.T) {
	w := ComputeWorkload(seedTasks())
	if w.Top != "Maya" {
		t.Fatalf("Top = %q, want Maya", w.Top)
	}
	want := []domain.AssigneeLoad{{Assignee: "Maya", Count: 2}, {Assignee: "Lee", Count: 1}, {Assignee: "Sam", Count: 1}}
	if len(w.Series) != len(want) {
		t.Fatalf("Series = %+v, want %+v", w.Series, want)
	}
	for i := range want {
		if w.Series[i] != want[i] {
			t.Errorf("Series[%d] = %+v, want %+v", i, w.Series[i], want[i])
		}
	}
}

func TestComputeWorkloadEmpty(t *testing.T) {
	w := ComputeWorkload([]domain.Task{{Assignee: "Maya", Status: domain.StatusDone}})
	if len(w.Series) != 0 || w.Top != "no one" {
		t.Fatalf("ComputeWorkload = %+v, want empty series and top %q", w, "no one")
	}
}

func TestDispatchCreateTask(t *testing.T) {
	d := newTestDispatcher(t)
	out := d.Dispatch(Intent{Kind: IntentCreateTask, TaskName: "Landing page redesign"})
	if out.Kind != OutcomeCreated {
		t.Fatalf("Kind = %v, want created", out.Kind)
	}
	task := out.Task
	if task.Name != "Landing page redesign" {
		t.Errorf("Name = %q", task.Name)
	}
	if task.Status != domain.StatusTodo || task.Risk != domain.RiskLow {
		t.Errorf("defaults wrong: status=%s risk=%s", task.Status, task.Risk)
	}
	if task.Assignee != "Unassigned" {
		t.Errorf("Assignee = %q, want Unassigned", task.Assignee)
	}
	if task.Due != "2026-03-14" {
		t.Errorf("Due = %q, want today", task.Due)
	}
	region := d.Config.Board.Region
	if task.Position == nil ||
		task.Position.X < region.MinX || task.Position.X > region.MaxX ||
		task.Position.Y < region.MinY || task.Position.Y > region.MaxY {
		t.Errorf("Position %+v outside region %+v", task.Position, region)
	}
	if got, ok := d.Store.Get(task.ID); !ok || got.Name != task.Name {
		t.Errorf("created task not visible in store: %+v %v", got, ok)
	}
}

func TestDispatchCreateTaskDefaultName(t *testing.T) {
	d := newTestDispatcher(t)
	out := d.Dispatch(Intent{Kind: IntentCreateTask, TaskName: ""})
	if out.Task.Name != "New task" {
		t.Fatalf("Name = %q, want the configured default", out.Task.Name)
	}
}

func TestDispatchUpdateStatus(t *testing.T) {
	d := newTestDispatcher(t, seedTasks()...)
	out := d.Dispatch(Intent{Kind: IntentUpdateStatus, TaskRef: "onboarding", StatusToken: "in progress"})
	if out.Kind != OutcomeUpdated {
		t.Fatalf("Kind = %v, want updated", out.Kind)
	}
	if out.Task.ID != "TSK-003" || out.Task.Status != domain.StatusInProgress {
		t.Fatalf("updated = %+v", out.Task)
	}
	if got, _ := d.Store.Get("TSK-003"); got.Status != domain.StatusInProgress {
		t.Fatalf("store not updated: %+v", got)
	}
}

func TestDispatchUpdateStatusMiss(t *testing.T) {
	d := newTestDispatcher(t, seedTasks()...)
	out := d.Dispatch(Intent{Kind: IntentUpdateStatus, TaskRef: "nonexistent", StatusToken: "done"})
	if out.Kind != OutcomeNotFound || out.Ref != "nonexistent" {
		t.Fatalf("outcome = %+v, want not-found with ref", out)
	}
	for _, task := range d.Store.GetAll() {
		if task.Status == domain.StatusDone && task.ID != "TSK-005" && task.ID != "TSK-006" {
			t.Fatalf("miss mutated the store: %+v", task)
		}
	}
}

func TestDispatchDiagram(t *testing.T) {
	d := newTestDispatcher(t)
	out := d.Dispatch(Intent{Kind: IntentGenerateFlow})
	if out.Kind != OutcomeDiagram {
		t.Fatalf("Kind = %v, want diagram", out.Kind)
	}
	if len(out.Diagram.Nodes) != 6 || len(out.Diagram.Edges) != 5 {
		t.Fatalf("diagram shape: %d nodes, %d edges", len(out.Diagram.Nodes), len(out.Diagram.Edges))
	}
	for i, e := range out.Diagram.Edges {
		if e.From != out.Diagram.Nodes[i].ID || e.To != out.Diagram.Nodes[i+1].ID {
			t.Errorf("edge %d = %+v, want %s->%s", i, e, out.Diagram.Nodes[i].ID, out.Diagram.Nodes[i+1].ID)
		}
	}
}

func TestNewTaskID(t *testing.T) {
	re := regexp.MustCompile(`^TSK-[0-9A-F]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewTaskID()
		if !re.MatchString(id) {
			t.Fatalf("id %q does not match format", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
