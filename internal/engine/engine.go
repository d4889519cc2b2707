package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"flowdeck/internal/assistant"
	"flowdeck/internal/config"
	"flowdeck/internal/domain"
	"flowdeck/internal/events"
	"flowdeck/internal/repo"
	"flowdeck/internal/store"
)

// Engine wires the optimistic task store, the assistant session and the
// persistence backend into the single surface the view layer (HTTP, CLI,
// board renderers) talks to. One Engine per workspace session; mutation entry
// points here bypass the interpreter, exactly like a board drag would.
type Engine struct {
	Store   *store.Store
	Session *assistant.Session
	Repo    repo.Repo
	Events  events.Writer
	Config  *config.Config
	Log     *zap.Logger
	Now     func() time.Time
}

func New(conn *sql.DB, cfg *config.Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	r := repo.Repo{DB: conn, Latency: cfg.PersistenceLatency()}
	st := store.New(r, log)
	disp := assistant.NewDispatcher(st, cfg)
	sess := assistant.NewSession(disp, cfg.ResponseDelay(), log)
	return &Engine{
		Store:   st,
		Session: sess,
		Repo:    r,
		Events:  events.Writer{DB: conn},
		Config:  cfg,
		Log:     log,
		Now:     time.Now,
	}
}

// Hydrate loads the task collection from the backend into the store.
func (e *Engine) Hydrate(ctx context.Context) error {
	return e.Store.Hydrate(ctx)
}

// Close drains the session and the store's pending writes.
func (e *Engine) Close() {
	e.Session.Close()
	e.Store.Close()
}

// CurrentTasks returns a snapshot of the live task collection.
func (e *Engine) CurrentTasks() []domain.Task {
	return e.Store.GetAll()
}

// SubmitCommand fires a free-text command through the interpreter.
func (e *Engine) SubmitCommand(ctx context.Context, text, actorID string) {
	e.Session.Submit(text)
	e.appendEvent(ctx, "assistant.command", "session", "", actorID, events.EventPayload{"text": text})
}

// SubmitCommandWait fires a command and returns the composed response.
func (e *Engine) SubmitCommandWait(ctx context.Context, text, actorID string) (domain.Message, error) {
	msg, err := e.Session.SubmitWait(ctx, text)
	if err != nil {
		return domain.Message{}, err
	}
	e.appendEvent(ctx, "assistant.command", "session", "", actorID, events.EventPayload{"text": text, "kind": msg.Kind})
	return msg, nil
}

// Messages returns the conversation log snapshot.
func (e *Engine) Messages() []domain.Message {
	return e.Session.Messages()
}

// Subscribe streams every appended conversation message.
func (e *Engine) Subscribe() <-chan domain.Message {
	return e.Session.Subscribe()
}

// TaskCreateOptions are parameters for a direct (non-assistant) task create.
type TaskCreateOptions struct {
	Name        string
	Assignee    string
	Status      string
	Risk        string
	Due         string
	Description string
	Position    *domain.Position
	ActorID     string
}

// CreateTask creates a task from the view layer, bypassing the interpreter.
func (e *Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.Task, error) {
	if opts.Name == "" {
		return domain.Task{}, errors.New("name is required")
	}
	status := domain.StatusTodo
	if opts.Status != "" {
		var err error
		if status, err = domain.ParseStatus(opts.Status); err != nil {
			return domain.Task{}, err
		}
	}
	risk := domain.RiskLow
	if opts.Risk != "" {
		var err error
		if risk, err = domain.ParseRisk(opts.Risk); err != nil {
			return domain.Task{}, err
		}
	}
	if opts.Due != "" {
		if _, err := time.Parse(time.DateOnly, opts.Due); err != nil {
			return domain.Task{}, fmt.Errorf("due must be YYYY-MM-DD: %w", err)
		}
	}
	assignee := opts.Assignee
	if assignee == "" {
		assignee = e.Config.Assistant.AssigneePlaceholder
	}
	now := e.Now().UTC().Format(time.RFC3339)
	t := e.Store.Create(domain.Task{
		ID:          assistant.NewTaskID(),
		Name:        opts.Name,
		Assignee:    assignee,
		Status:      status,
		Risk:        risk,
		Due:         opts.Due,
		Description: opts.Description,
		Position:    opts.Position,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	e.appendEvent(ctx, "task.created", "task", t.ID, opts.ActorID, events.EventPayload{"name": t.Name, "status": t.Status})
	return t, nil
}

// UpdateTaskStatus changes one task's status.
func (e *Engine) UpdateTaskStatus(ctx context.Context, id, status, actorID string) (domain.Task, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Task{}, err
	}
	return e.UpdateTaskFields(ctx, id, domain.TaskPatch{Status: &st}, actorID)
}

// UpdateTaskFields applies a partial update to one task.
func (e *Engine) UpdateTaskFields(ctx context.Context, id string, patch domain.TaskPatch, actorID string) (domain.Task, error) {
	t, ok := e.Store.Update(id, patch)
	if !ok {
		return domain.Task{}, repo.ErrNotFound
	}
	e.appendEvent(ctx, "task.updated", "task", t.ID, actorID, events.EventPayload{"status": t.Status})
	return t, nil
}

// BulkUpdateStatus moves several tasks to the same status, returning how many
// were touched.
func (e *Engine) BulkUpdateStatus(ctx context.Context, ids []string, status, actorID string) (int, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return 0, err
	}
	n := e.Store.BulkUpdate(ids, domain.TaskPatch{Status: &st})
	if n > 0 {
		e.appendEvent(ctx, "tasks.bulk_updated", "task", "", actorID, events.EventPayload{"count": n, "status": st})
	}
	return n, nil
}

// Summary computes the dashboard metrics over the live collection.
func (e *Engine) Summary() domain.MetricsPayload {
	return assistant.ComputeMetrics(e.Store.GetAll())
}

// Workload computes the per-assignee open-task series.
func (e *Engine) Workload() domain.WorkloadPayload {
	return assistant.ComputeWorkload(e.Store.GetAll())
}

func (e *Engine) appendEvent(ctx context.Context, evtType, entityKind, entityID, actorID string, payload events.EventPayload) {
	if actorID == "" {
		actorID = "local-user"
	}
	if err := e.Events.Append(ctx, evtType, entityKind, entityID, actorID, payload); err != nil {
		e.Log.Warn("append event failed", zap.String("type", evtType), zap.Error(err))
	}
}
