package repo

import (
	"context"
	"database/sql"
	"time"

	"flowdeck/internal/domain"
)

func (r Repo) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	if err := r.simulate(ctx); err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id,title,body,updated_at FROM documents ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Body, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r Repo) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	if err := r.simulate(ctx); err != nil {
		return domain.Document{}, err
	}
	var d domain.Document
	err := r.DB.QueryRowContext(ctx, `SELECT id,title,body,updated_at FROM documents WHERE id=?`, id).
		Scan(&d.ID, &d.Title, &d.Body, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	return d, err
}

// PutDocument inserts or overwrites a document (last write wins).
func (r Repo) PutDocument(ctx context.Context, d domain.Document) (domain.Document, error) {
	if err := r.simulate(ctx); err != nil {
		return domain.Document{}, err
	}
	if d.UpdatedAt == "" {
		d.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := r.DB.ExecContext(ctx, `INSERT INTO documents(id,title,body,updated_at) VALUES (?,?,?,?)
ON CONFLICT(id) DO UPDATE SET title=excluded.title, body=excluded.body, updated_at=excluded.updated_at`,
		d.ID, d.Title, d.Body, d.UpdatedAt)
	return d, err
}

// ListEvents returns the newest audit events first.
func (r Repo) ListEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,ts,type,entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
