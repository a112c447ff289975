package documents

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocumentByID(ctx context.Context, id uuid.UUID) (*Document, error)
	ListDocuments(ctx context.Context, orgID uuid.UUID, docType *DocumentType) ([]Document, error)
	UpdateDocument(ctx context.Context, doc *Document) error
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	// MarkExpired flips the stored status of documents whose expiry date has
	// passed. Checklist derivation computes expiry from dates on its own;
	// this keeps plain list views consistent.
	MarkExpired(ctx context.Context, asOf time.Time) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateDocument(ctx context.Context, doc *Document) error {
	query := `
		INSERT INTO documents (
			id, org_id, name, document_type, file_size, s3_key, s3_bucket,
			status, uploaded_at, issued_at, expiry_date
		) VALUES (
			:id, :org_id, :name, :document_type, :file_size, :s3_key, :s3_bucket,
			:status, :uploaded_at, :issued_at, :expiry_date
		)`
	_, err := r.db.NamedExecContext(ctx, query, doc)
	return err
}

func (r *postgresRepository) GetDocumentByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	var doc Document
	err := r.db.GetContext(ctx, &doc, "SELECT * FROM documents WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &doc, err
}

func (r *postgresRepository) ListDocuments(ctx context.Context, orgID uuid.UUID, docType *DocumentType) ([]Document, error) {
	var docs []Document
	query := "SELECT * FROM documents WHERE org_id = $1"
	args := []interface{}{orgID}

	if docType != nil {
		query += fmt.Sprintf(" AND document_type = $%d", len(args)+1)
		args = append(args, *docType)
	}
	query += " ORDER BY uploaded_at DESC"

	err := r.db.SelectContext(ctx, &docs, query, args...)
	return docs, err
}

func (r *postgresRepository) UpdateDocument(ctx context.Context, doc *Document) error {
	query := `
		UPDATE documents SET
			name = :name,
			status = :status,
			file_size = :file_size,
			s3_key = :s3_key,
			uploaded_at = :uploaded_at,
			issued_at = :issued_at,
			expiry_date = :expiry_date
		WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, doc)
	return err
}

func (r *postgresRepository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", id)
	return err
}

func (r *postgresRepository) MarkExpired(ctx context.Context, asOf time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE documents SET status = $1 WHERE expiry_date IS NOT NULL AND expiry_date < $2 AND status <> $1",
		StatusExpired, asOf)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
