package verification

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	// CreateRequestWithEvent inserts a new request and its submit event in
	// one transaction.
	CreateRequestWithEvent(ctx context.Context, req *Request, event *AuditEvent) error
	GetRequestByID(ctx context.Context, id uuid.UUID) (*Request, error)
	// GetActiveRequest returns the organization's current request, if any.
	// At most one exists at a time.
	GetActiveRequest(ctx context.Context, orgID uuid.UUID) (*Request, error)
	// UpdateRequestWithEvent applies a status change and appends its audit
	// event atomically. No transition without an event, no event without
	// its transition.
	UpdateRequestWithEvent(ctx context.Context, req *Request, event *AuditEvent) error

	LastEvent(ctx context.Context, requestID uuid.UUID) (*AuditEvent, error)
	InsertEvent(ctx context.Context, event *AuditEvent) error
	ListEvents(ctx context.Context, requestID uuid.UUID, order EventOrder) ([]AuditEvent, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const insertRequestQuery = `
	INSERT INTO verification_requests (id, org_id, status, notes, created_at, updated_at)
	VALUES (:id, :org_id, :status, :notes, :created_at, :updated_at)`

const insertEventQuery = `
	INSERT INTO verification_events (id, request_id, action, actor_role, note, created_at)
	VALUES (:id, :request_id, :action, :actor_role, :note, :created_at)`

func (r *postgresRepository) CreateRequestWithEvent(ctx context.Context, req *Request, event *AuditEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, insertRequestQuery, req); err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	if _, err := tx.NamedExecContext(ctx, insertEventQuery, event); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return tx.Commit()
}

func (r *postgresRepository) GetRequestByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	var req Request
	err := r.db.GetContext(ctx, &req, "SELECT * FROM verification_requests WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &req, err
}

func (r *postgresRepository) GetActiveRequest(ctx context.Context, orgID uuid.UUID) (*Request, error) {
	var req Request
	err := r.db.GetContext(ctx, &req,
		"SELECT * FROM verification_requests WHERE org_id = $1 ORDER BY created_at DESC LIMIT 1", orgID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &req, err
}

func (r *postgresRepository) UpdateRequestWithEvent(ctx context.Context, req *Request, event *AuditEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Monotonic append check inside the transaction so the timeline cannot
	// interleave with a concurrent write.
	var lastCreated sql.NullTime
	err = tx.GetContext(ctx, &lastCreated,
		"SELECT MAX(created_at) FROM verification_events WHERE request_id = $1", event.RequestID)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if lastCreated.Valid {
		if err := guardAppend(lastCreated.Time, event.CreatedAt); err != nil {
			return err
		}
	}

	query := `
		UPDATE verification_requests SET
			status = :status,
			notes = :notes,
			updated_at = :updated_at
		WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	if _, err := tx.NamedExecContext(ctx, insertEventQuery, event); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return tx.Commit()
}

func (r *postgresRepository) LastEvent(ctx context.Context, requestID uuid.UUID) (*AuditEvent, error) {
	var event AuditEvent
	err := r.db.GetContext(ctx, &event,
		"SELECT * FROM verification_events WHERE request_id = $1 ORDER BY created_at DESC LIMIT 1", requestID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &event, err
}

func (r *postgresRepository) InsertEvent(ctx context.Context, event *AuditEvent) error {
	_, err := r.db.NamedExecContext(ctx, insertEventQuery, event)
	return err
}

func (r *postgresRepository) ListEvents(ctx context.Context, requestID uuid.UUID, order EventOrder) ([]AuditEvent, error) {
	direction := "DESC"
	if order == OrderAsc {
		direction = "ASC"
	}
	var events []AuditEvent
	err := r.db.SelectContext(ctx, &events,
		fmt.Sprintf("SELECT * FROM verification_events WHERE request_id = $1 ORDER BY created_at %s", direction),
		requestID)
	return events, err
}
