package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quoteflow/cadence-api/internal/model"
	"github.com/quoteflow/cadence-api/internal/repository"
	apperrors "github.com/quoteflow/cadence-api/pkg/errors"
)

type taskRepository struct {
	BaseRepository
}

func NewTaskRepository(base BaseRepository) repository.TaskRepository {
	return &taskRepository{base}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	query := `
		INSERT INTO tasks (
			id, organization_id, quote_id, event_id, type, title,
			description, due_at, priority, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	task.ID = uuid.New()
	task.Status = model.TaskStatusPending
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.OrganizationID,
		task.QuoteID,
		task.EventID,
		task.Type,
		task.Title,
		task.Description,
		task.DueAt,
		task.Priority,
		task.Status,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *taskRepository) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	query := `SELECT * FROM tasks WHERE id = $1`

	var task model.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("task", err)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, filters *model.TaskFilters) ([]*model.Task, error) {
	query := `SELECT * FROM tasks WHERE organization_id = $1`
	args := []interface{}{filters.OrganizationID}

	if filters.QuoteID != uuid.Nil {
		args = append(args, filters.QuoteID)
		query += fmt.Sprintf(" AND quote_id = $%d", len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filters.Type != "" {
		args = append(args, filters.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	query += ` ORDER BY due_at ASC`

	var tasks []*model.Task
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) Complete(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE tasks
		SET status = $1, completed_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query, model.TaskStatusDone, at, id, model.TaskStatusPending)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task %s is not pending", id)
	}
	return nil
}
