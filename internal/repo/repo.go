package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"flowdeck/internal/domain"
)

// Repo is the persistence backend for the task and document collections.
// Latency, when set, simulates a slow remote backend on every call; the rest
// of the system must stay responsive regardless.
type Repo struct {
	DB      *sql.DB
	Latency time.Duration
}

var ErrNotFound = errors.New("not found")

func (r Repo) simulate(ctx context.Context) error {
	if r.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(r.Latency):
		return nil
	}
}

const taskColumns = `id,name,assignee,status,risk,due,COALESCE(description,'') AS description,critical_path,pos_x,pos_y,created_at,updated_at`

func scanTask(scan func(dest ...any) error) (domain.Task, error) {
	var (
		t            domain.Task
		criticalPath int
		posX, posY   sql.NullFloat64
	)
	err := scan(&t.ID, &t.Name, &t.Assignee, &t.Status, &t.Risk, &t.Due, &t.Description,
		&criticalPath, &posX, &posY, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.CriticalPath = criticalPath != 0
	if posX.Valid && posY.Valid {
		t.Position = &domain.Position{X: posX.Float64, Y: posY.Float64}
	}
	return t, nil
}

// FetchTasks returns the whole task collection in insertion order.
func (r Repo) FetchTasks(ctx context.Context) ([]domain.Task, error) {
	if err := r.simulate(ctx); err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	if err := r.simulate(ctx); err != nil {
		return domain.Task{}, err
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	return scanTask(row.Scan)
}

// CreateTask inserts a task and echoes it back.
func (r Repo) CreateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	if err := r.simulate(ctx); err != nil {
		return domain.Task{}, err
	}
	var posX, posY any
	if t.Position != nil {
		posX, posY = t.Position.X, t.Position.Y
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO tasks(id,name,assignee,status,risk,due,description,critical_path,pos_x,pos_y,created_at,updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Name, t.Assignee, t.Status, t.Risk, t.Due, nullable(t.Description),
		boolInt(t.CriticalPath), posX, posY, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

func patchClauses(p domain.TaskPatch, now string) ([]string, []any) {
	var (
		fields []string
		args   []any
	)
	if p.Name != nil {
		fields = append(fields, "name=?")
		args = append(args, *p.Name)
	}
	if p.Assignee != nil {
		fields = append(fields, "assignee=?")
		args = append(args, *p.Assignee)
	}
	if p.Status != nil {
		fields = append(fields, "status=?")
		args = append(args, *p.Status)
	}
	if p.Risk != nil {
		fields = append(fields, "risk=?")
		args = append(args, *p.Risk)
	}
	if p.Due != nil {
		fields = append(fields, "due=?")
		args = append(args, *p.Due)
	}
	if p.Description != nil {
		fields = append(fields, "description=?")
		args = append(args, nullable(*p.Description))
	}
	if p.CriticalPath != nil {
		fields = append(fields, "critical_path=?")
		args = append(args, boolInt(*p.CriticalPath))
	}
	if p.Position != nil {
		fields = append(fields, "pos_x=?", "pos_y=?")
		args = append(args, p.Position.X, p.Position.Y)
	}
	fields = append(fields, "updated_at=?")
	args = append(args, now)
	return fields, args
}

// UpdateTask applies a partial update. The boolean mirrors the backend
// success flag of the original API; false means the task was not found.
func (r Repo) UpdateTask(ctx context.Context, id string, p domain.TaskPatch) (bool, error) {
	if err := r.simulate(ctx); err != nil {
		return false, err
	}
	if p.Empty() {
		return true, nil
	}
	now := time.Now().UTC().Format(time.RFC3339)
	fields, args := patchClauses(p, now)
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE tasks SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// BulkUpdateTasks applies the same partial update to several tasks.
func (r Repo) BulkUpdateTasks(ctx context.Context, ids []string, p domain.TaskPatch) (bool, error) {
	if err := r.simulate(ctx); err != nil {
		return false, err
	}
	if len(ids) == 0 || p.Empty() {
		return true, nil
	}
	now := time.Now().UTC().Format(time.RFC3339)
	fields, args := patchClauses(p, now)
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := r.DB.ExecContext(ctx,
		fmt.Sprintf(`UPDATE tasks SET %s WHERE id IN (%s)`, strings.Join(fields, ","), placeholders), args...)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
