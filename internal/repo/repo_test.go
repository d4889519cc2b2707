package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"flowdeck/internal/db"
	"flowdeck/internal/domain"
	"flowdeck/internal/migrate"
)

func newTestRepo(t *testing.T) Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return Repo{DB: conn}
}

func seedTask(id, name, created string) domain.Task {
	return domain.Task{
		ID:        id,
		Name:      name,
		Assignee:  "Maya",
		Status:    domain.StatusTodo,
		Risk:      domain.RiskLow,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestTaskRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	in := seedTask("TSK-001", "Landing page redesign", "2026-03-14T10:00:00Z")
	in.Due = "2026-03-20"
	in.Description = "Refresh hero and pricing sections"
	in.CriticalPath = true
	in.Position = &domain.Position{X: 120, Y: 240}
	if _, err := r.CreateTask(ctx, in); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := r.GetTask(ctx, "TSK-001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != in.Name || got.Due != in.Due || got.Description != in.Description {
		t.Errorf("got %+v, want %+v", got, in)
	}
	if !got.CriticalPath {
		t.Error("critical_path lost")
	}
	if got.Position == nil || got.Position.X != 120 || got.Position.Y != 240 {
		t.Errorf("position = %+v", got.Position)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	r := newTestRepo(t)
	if _, err := r.GetTask(context.Background(), "TSK-404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFetchTasksInsertionOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	for _, task := range []domain.Task{
		seedTask("TSK-002", "Beta", "2026-03-14T10:01:00Z"),
		seedTask("TSK-001", "Alpha", "2026-03-14T10:00:00Z"),
		seedTask("TSK-003", "Gamma", "2026-03-14T10:02:00Z"),
	} {
		if _, err := r.CreateTask(ctx, task); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	got, err := r.FetchTasks(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	wantIDs := []string{"TSK-001", "TSK-002", "TSK-003"}
	if len(got) != 3 {
		t.Fatalf("fetched %d tasks", len(got))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestUpdateTask(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	if _, err := r.CreateTask(ctx, seedTask("TSK-001", "Alpha", "2026-03-14T10:00:00Z")); err != nil {
		t.Fatalf("create: %v", err)
	}
	st := domain.StatusDone
	assignee := "Sam"
	ok, err := r.UpdateTask(ctx, "TSK-001", domain.TaskPatch{Status: &st, Assignee: &assignee})
	if err != nil || !ok {
		t.Fatalf("update: ok=%v err=%v", ok, err)
	}
	got, err := r.GetTask(ctx, "TSK-001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusDone || got.Assignee != "Sam" {
		t.Errorf("got %+v", got)
	}
	if got.Name != "Alpha" {
		t.Errorf("untouched field changed: %q", got.Name)
	}
}

func TestUpdateTaskUnknownID(t *testing.T) {
	r := newTestRepo(t)
	st := domain.StatusDone
	ok, err := r.UpdateTask(context.Background(), "TSK-404", domain.TaskPatch{Status: &st})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if ok {
		t.Fatal("update acknowledged an unknown id")
	}
}

func TestUpdateTaskEmptyPatch(t *testing.T) {
	r := newTestRepo(t)
	ok, err := r.UpdateTask(context.Background(), "TSK-404", domain.TaskPatch{})
	if err != nil || !ok {
		t.Fatalf("empty patch: ok=%v err=%v", ok, err)
	}
}

func TestBulkUpdateTasks(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	for i, id := range []string{"TSK-001", "TSK-002", "TSK-003"} {
		created := time.Date(2026, 3, 14, 10, i, 0, 0, time.UTC).Format(time.RFC3339)
		if _, err := r.CreateTask(ctx, seedTask(id, id, created)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	st := domain.StatusBlocked
	ok, err := r.BulkUpdateTasks(ctx, []string{"TSK-001", "TSK-003"}, domain.TaskPatch{Status: &st})
	if err != nil || !ok {
		t.Fatalf("bulk: ok=%v err=%v", ok, err)
	}
	tasks, err := r.FetchTasks(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	for _, task := range tasks {
		want := domain.StatusBlocked
		if task.ID == "TSK-002" {
			want = domain.StatusTodo
		}
		if task.Status != want {
			t.Errorf("%s status = %s, want %s", task.ID, task.Status, want)
		}
	}
}

func TestSimulatedLatencyHonorsContext(t *testing.T) {
	r := newTestRepo(t)
	r.Latency = 5 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := r.FetchTasks(ctx)
	if err == nil {
		t.Fatal("fetch ignored the deadline")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("fetch blocked %v past the deadline", elapsed)
	}
}

func TestDocuments(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	d, err := r.PutDocument(ctx, domain.Document{ID: "readme", Title: "Readme", Body: "v1"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if d.UpdatedAt == "" {
		t.Fatal("put did not stamp updated_at")
	}

	// Overwrite: last write wins.
	if _, err := r.PutDocument(ctx, domain.Document{ID: "readme", Title: "Readme", Body: "v2"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := r.GetDocument(ctx, "readme")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Body != "v2" {
		t.Fatalf("body = %q, want v2", got.Body)
	}

	if _, err := r.GetDocument(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	docs, err := r.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("listed %d documents", len(docs))
	}
}
