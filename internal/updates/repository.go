package updates

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository interface {
	ListTasks(ctx context.Context, projectID uuid.UUID) ([]ProjectTask, error)
	GetTaskByID(ctx context.Context, id uuid.UUID) (*ProjectTask, error)

	// SaveUpdate persists the assembled update and the task mutations it
	// carries in one transaction. Either everything lands or nothing does.
	SaveUpdate(ctx context.Context, update *ProjectUpdate, tasks []ProjectTask) error
	ListUpdates(ctx context.Context, projectID uuid.UUID) ([]ProjectUpdate, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) ListTasks(ctx context.Context, projectID uuid.UUID) ([]ProjectTask, error) {
	var tasks []ProjectTask
	err := r.db.SelectContext(ctx, &tasks,
		"SELECT * FROM project_tasks WHERE project_id = $1 ORDER BY title", projectID)
	return tasks, err
}

func (r *postgresRepository) GetTaskByID(ctx context.Context, id uuid.UUID) (*ProjectTask, error) {
	var task ProjectTask
	err := r.db.GetContext(ctx, &task, "SELECT * FROM project_tasks WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &task, err
}

func (r *postgresRepository) SaveUpdate(ctx context.Context, update *ProjectUpdate, tasks []ProjectTask) error {
	media, err := json.Marshal(update.MediaItems)
	if err != nil {
		return fmt.Errorf("failed to encode media items: %w", err)
	}

	completed := make([]string, len(update.TasksCompleted))
	for i, id := range update.TasksCompleted {
		completed[i] = id.String()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO project_updates (
			id, project_id, tasks_completed, media_items, report_text,
			beneficiaries_count, challenges, immediate_outcomes, confirmed, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		update.ID, update.ProjectID, pq.Array(completed), media, update.ReportText,
		update.BeneficiariesCount, update.Challenges, update.ImmediateOutcomes,
		update.Confirmed, update.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to insert project update: %w", err)
	}

	for _, task := range tasks {
		_, err = tx.ExecContext(ctx,
			"UPDATE project_tasks SET status = $1, evidence_count = $2 WHERE id = $3",
			task.Status, task.EvidenceCount, task.ID)
		if err != nil {
			return fmt.Errorf("failed to update task %s: %w", task.ID, err)
		}
	}

	return tx.Commit()
}

type updateRow struct {
	ID                 uuid.UUID       `db:"id"`
	ProjectID          uuid.UUID       `db:"project_id"`
	TasksCompleted     pq.StringArray  `db:"tasks_completed"`
	MediaItems         json.RawMessage `db:"media_items"`
	ReportText         string          `db:"report_text"`
	BeneficiariesCount *int            `db:"beneficiaries_count"`
	Challenges         string          `db:"challenges"`
	ImmediateOutcomes  string          `db:"immediate_outcomes"`
	Confirmed          bool            `db:"confirmed"`
	SubmittedAt        sql.NullTime    `db:"submitted_at"`
}

func (r *postgresRepository) ListUpdates(ctx context.Context, projectID uuid.UUID) ([]ProjectUpdate, error) {
	var rows []updateRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM project_updates WHERE project_id = $1 ORDER BY submitted_at DESC", projectID)
	if err != nil {
		return nil, err
	}

	updates := make([]ProjectUpdate, 0, len(rows))
	for _, row := range rows {
		update := ProjectUpdate{
			ID:                 row.ID,
			ProjectID:          row.ProjectID,
			ReportText:         row.ReportText,
			BeneficiariesCount: row.BeneficiariesCount,
			Challenges:         row.Challenges,
			ImmediateOutcomes:  row.ImmediateOutcomes,
			Confirmed:          row.Confirmed,
		}
		if row.SubmittedAt.Valid {
			update.SubmittedAt = row.SubmittedAt.Time
		}
		for _, raw := range row.TasksCompleted {
			if id, err := uuid.Parse(raw); err == nil {
				update.TasksCompleted = append(update.TasksCompleted, id)
			}
		}
		if len(row.MediaItems) > 0 {
			if err := json.Unmarshal(row.MediaItems, &update.MediaItems); err != nil {
				return nil, fmt.Errorf("failed to decode media items: %w", err)
			}
		}
		updates = append(updates, update)
	}
	return updates, nil
}
