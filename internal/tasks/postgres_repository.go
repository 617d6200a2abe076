package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresRepository persists tasks to a Postgres database.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository constructs a repository backed by sqlx.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const baseSelect = `SELECT id, COALESCE(owner_id, '') AS owner_id, text, is_completed, created_at FROM tasks`

// Create inserts a new row and returns the stored representation.
func (r *PostgresRepository) Create(ctx context.Context, task Task) (Task, error) {
	insert := `INSERT INTO tasks (id, owner_id, text, is_completed, created_at)
VALUES ($1, NULLIF($2, ''), $3, $4, $5)`

	if _, err := r.db.ExecContext(ctx, insert, task.ID, task.OwnerID, task.Text, task.IsCompleted, task.CreatedAt); err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return r.Get(ctx, task.ID)
}

// Get retrieves a row by primary key.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Task, error) {
	var task Task
	if err := r.db.GetContext(ctx, &task, baseSelect+` WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// ListByOwner returns all tasks belonging to the given owner.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]Task, error) {
	if ownerID == "" {
		return []Task{}, nil
	}

	out := []Task{}
	if err := r.db.SelectContext(ctx, &out, baseSelect+` WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

// ListSample returns the ownerless demo tasks.
func (r *PostgresRepository) ListSample(ctx context.Context) ([]Task, error) {
	out := []Task{}
	if err := r.db.SelectContext(ctx, &out, baseSelect+` WHERE owner_id IS NULL ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("list sample tasks: %w", err)
	}
	return out, nil
}

// Update replaces an existing row.
func (r *PostgresRepository) Update(ctx context.Context, task Task) (Task, error) {
	update := `UPDATE tasks SET text = $2, is_completed = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, update, task.ID, task.Text, task.IsCompleted)
	if err != nil {
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	if affected == 0 {
		return Task{}, ErrNotFound
	}
	return r.Get(ctx, task.ID)
}

// Delete removes a row by primary key.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByOwner removes every task belonging to the given owner.
func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	if ownerID == "" {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete tasks by owner: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete tasks by owner: %w", err)
	}
	return deleted, nil
}
