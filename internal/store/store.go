package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"flowdeck/internal/domain"
)

// Backend is the persistence API the store reconciles against. Calls may be
// slow; they are never awaited on the mutation path.
type Backend interface {
	FetchTasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, t domain.Task) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, p domain.TaskPatch) (bool, error)
	BulkUpdateTasks(ctx context.Context, ids []string, p domain.TaskPatch) (bool, error)
}

type opKind int

const (
	opCreate opKind = iota
	opUpdate
	opBulk
)

type op struct {
	kind  opKind
	task  domain.Task
	id    string
	ids   []string
	patch domain.TaskPatch
}

// Store is the in-memory task collection. Reads are synchronous snapshots;
// mutations merge into memory immediately and are forwarded to the backend
// through a single FIFO writer, so persistence happens strictly in issue
// order. A failed persistence call is logged and the in-memory state kept:
// memory is the user-visible source of truth.
type Store struct {
	mu    sync.RWMutex
	tasks []domain.Task
	index map[string]int

	backend Backend
	log     *zap.Logger
	Now     func() time.Time

	ops     chan op
	done    chan struct{}
	closeMu sync.RWMutex
	closed  bool
	once    sync.Once
}

func New(backend Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		backend: backend,
		log:     log,
		Now:     time.Now,
		index:   map[string]int{},
		ops:     make(chan op, 128),
		done:    make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

// Hydrate replaces the in-memory collection with the backend's.
func (s *Store) Hydrate(ctx context.Context) error {
	tasks, err := s.backend.FetchTasks(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
	s.index = make(map[string]int, len(tasks))
	for i, t := range tasks {
		s.index[t.ID] = i
	}
	return nil
}

// GetAll returns a snapshot of the collection in insertion order.
func (s *Store) GetAll() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get returns a task by exact ID.
func (s *Store) Get(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return domain.Task{}, false
	}
	return s.tasks[i], true
}

// Create appends a task and schedules its persistence.
func (s *Store) Create(t domain.Task) domain.Task {
	s.mu.Lock()
	s.index[t.ID] = len(s.tasks)
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
	s.enqueue(op{kind: opCreate, task: t})
	return t
}

// Update merges a partial update into a task. Returns false (and performs no
// mutation) when the id is unknown. Last write wins; no merge beyond shallow
// field overwrite.
func (s *Store) Update(id string, p domain.TaskPatch) (domain.Task, bool) {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return domain.Task{}, false
	}
	merged := p.Apply(s.tasks[i])
	merged.UpdatedAt = s.Now().UTC().Format(time.RFC3339)
	s.tasks[i] = merged
	s.mu.Unlock()
	s.enqueue(op{kind: opUpdate, id: id, patch: p})
	return merged, true
}

// BulkUpdate applies the same patch to every known id, returning how many
// tasks were touched. Unknown ids are skipped silently.
func (s *Store) BulkUpdate(ids []string, p domain.TaskPatch) int {
	now := s.Now().UTC().Format(time.RFC3339)
	s.mu.Lock()
	var applied []string
	for _, id := range ids {
		i, ok := s.index[id]
		if !ok {
			continue
		}
		merged := p.Apply(s.tasks[i])
		merged.UpdatedAt = now
		s.tasks[i] = merged
		applied = append(applied, id)
	}
	s.mu.Unlock()
	if len(applied) > 0 {
		s.enqueue(op{kind: opBulk, ids: applied, patch: p})
	}
	return len(applied)
}

func (s *Store) enqueue(o op) {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		s.log.Warn("store closed; dropping persistence op")
		return
	}
	s.ops <- o
}

// Close stops accepting mutations and drains pending writes. A caller going
// away mid-flight still gets its queued writes persisted.
func (s *Store) Close() {
	s.once.Do(func() {
		s.closeMu.Lock()
		s.closed = true
		s.closeMu.Unlock()
		close(s.ops)
	})
	<-s.done
}

func (s *Store) writeLoop() {
	defer close(s.done)
	ctx := context.Background()
	for o := range s.ops {
		var (
			ok  bool
			err error
		)
		switch o.kind {
		case opCreate:
			_, err = s.backend.CreateTask(ctx, o.task)
			ok = err == nil
		case opUpdate:
			ok, err = s.backend.UpdateTask(ctx, o.id, o.patch)
		case opBulk:
			ok, err = s.backend.BulkUpdateTasks(ctx, o.ids, o.patch)
		}
		if err != nil || !ok {
			// No rollback: availability over consistency.
			s.log.Warn("task persistence failed",
				zap.String("task_id", o.id),
				zap.Bool("acknowledged", ok),
				zap.Error(err))
		}
	}
}
