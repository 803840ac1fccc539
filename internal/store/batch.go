package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/demoplan/demoplan/internal/task"
)

// ErrNotFound is returned when a batch lookup matches nothing.
var ErrNotFound = errors.New("batch not found")

// Batch is one stored generation run together with its task list.
type Batch struct {
	ID         string
	Name       string
	Source     string
	RawText    string
	TotalTasks int
	TotalHours float64
	CreatedAt  time.Time
}

// SaveBatch stores a batch and its tasks in a single transaction. A zero
// CreatedAt is replaced with the current time.
func (db *DB) SaveBatch(ctx context.Context, b *Batch, tasks []*task.Task) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO batches (id, name, source, raw_text, total_tasks, total_hours, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Name, b.Source, b.RawText, b.TotalTasks, b.TotalHours, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert batch %s: %w", b.ID, err)
	}

	for _, t := range tasks {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tasks (batch_id, id, name, description, category, priority,
				estimate, notes, depth, dependent_count, priority_score, rank,
				estimated_hours, complexity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, b.ID, t.ID, t.Name, t.Description, t.Category, t.Priority,
			t.Estimate, t.Notes, t.Depth, t.DependentCount, t.PriorityScore, t.Rank,
			t.EstimatedHours, t.Complexity)
		if err != nil {
			return fmt.Errorf("failed to insert task %s: %w", t.ID, err)
		}

		for _, dep := range t.Dependencies {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO task_dependencies (batch_id, task_id, depends_on)
				VALUES (?, ?, ?)
			`, b.ID, t.ID, dep)
			if err != nil {
				return fmt.Errorf("failed to insert dependency %s -> %s: %w", t.ID, dep, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetBatch returns a single batch by exact id.
func (db *DB) GetBatch(ctx context.Context, id string) (*Batch, error) {
	b := &Batch{}
	var createdAt sql.NullTime
	err := db.QueryRowContext(ctx, `
		SELECT id, name, source, raw_text, total_tasks, total_hours, created_at
		FROM batches WHERE id = ?
	`, id).Scan(&b.ID, &b.Name, &b.Source, &b.RawText, &b.TotalTasks, &b.TotalHours, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("batch %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch %s: %w", id, err)
	}
	if createdAt.Valid {
		b.CreatedAt = createdAt.Time
	}
	return b, nil
}

// FindBatch returns the batch whose id matches idOrPrefix exactly, or the
// single batch whose id starts with it.
func (db *DB) FindBatch(ctx context.Context, idOrPrefix string) (*Batch, error) {
	b, err := db.GetBatch(ctx, idOrPrefix)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT id FROM batches WHERE id LIKE ?", idOrPrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search batches: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(ids) {
	case 0:
		return nil, fmt.Errorf("batch %s: %w", idOrPrefix, ErrNotFound)
	case 1:
		return db.GetBatch(ctx, ids[0])
	default:
		return nil, fmt.Errorf("batch id %s is ambiguous (%d matches)", idOrPrefix, len(ids))
	}
}

// ListBatches returns all batches, newest first. RawText is not populated.
func (db *DB) ListBatches(ctx context.Context) ([]*Batch, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, source, total_tasks, total_hours, created_at
		FROM batches ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	var batches []*Batch
	for rows.Next() {
		b := &Batch{}
		var createdAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.Name, &b.Source, &b.TotalTasks, &b.TotalHours, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch row: %w", err)
		}
		if createdAt.Valid {
			b.CreatedAt = createdAt.Time
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// GetBatchTasks returns a batch's tasks in rank order, with dependency and
// dependent links rebuilt from the edge table.
func (db *DB) GetBatchTasks(ctx context.Context, batchID string) ([]*task.Task, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, description, category, priority, estimate, notes,
			depth, dependent_count, priority_score, rank, estimated_hours, complexity
		FROM tasks WHERE batch_id = ? ORDER BY rank
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks for batch %s: %w", batchID, err)
	}
	defer rows.Close()

	var tasks []*task.Task
	byID := make(map[string]*task.Task)
	for rows.Next() {
		t := &task.Task{
			Dependencies:   []string{},
			DependentTasks: []string{},
		}
		err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.Priority,
			&t.Estimate, &t.Notes, &t.Depth, &t.DependentCount, &t.PriorityScore,
			&t.Rank, &t.EstimatedHours, &t.Complexity)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, t)
		byID[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	depRows, err := db.QueryContext(ctx, `
		SELECT task_id, depends_on FROM task_dependencies
		WHERE batch_id = ? ORDER BY rowid
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies for batch %s: %w", batchID, err)
	}
	defer depRows.Close()

	for depRows.Next() {
		var taskID, dependsOn string
		if err := depRows.Scan(&taskID, &dependsOn); err != nil {
			return nil, fmt.Errorf("failed to scan dependency row: %w", err)
		}
		if t := byID[taskID]; t != nil {
			t.Dependencies = append(t.Dependencies, dependsOn)
		}
		if t := byID[dependsOn]; t != nil {
			t.DependentTasks = append(t.DependentTasks, taskID)
		}
	}
	return tasks, depRows.Err()
}

// DeleteBatch removes a batch, its tasks, and its dependency edges.
func (db *DB) DeleteBatch(ctx context.Context, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM task_dependencies WHERE batch_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete dependencies for batch %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE batch_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete tasks for batch %s: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM batches WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete batch %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("batch %s: %w", id, ErrNotFound)
	}

	return tx.Commit()
}
