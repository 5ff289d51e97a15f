package postgres

import (
	"context"
	"database/sql"

	"invoiceflow/internal/model"
	"invoiceflow/internal/repository"
)

// InvoiceRequestPostgres is a PostgreSQL implementation of repository.InvoiceRequestRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type InvoiceRequestPostgres struct {
	db *sql.DB
}

// NewInvoiceRequestPostgres creates a new InvoiceRequestPostgres repository.
func NewInvoiceRequestPostgres(db *sql.DB) *InvoiceRequestPostgres {
	return &InvoiceRequestPostgres{db: db}
}

var _ repository.InvoiceRequestRepository = (*InvoiceRequestPostgres)(nil)

const invoiceRequestColumns = `id, invoice_number, client_name, amount, invoice_date, status,
		file_reference, original_filename, created_at, updated_at, approved_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoiceRequest(s rowScanner) (*model.InvoiceRequest, error) {
	var (
		r          model.InvoiceRequest
		approvedAt sql.NullTime
	)
	if err := s.Scan(
		&r.ID,
		&r.InvoiceNumber,
		&r.ClientName,
		&r.Amount,
		&r.Date,
		&r.Status,
		&r.FileReference,
		&r.OriginalFilename,
		&r.CreatedAt,
		&r.UpdatedAt,
		&approvedAt,
	); err != nil {
		return nil, err
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		r.ApprovedAt = &t
	}
	return &r, nil
}

// Create inserts a new request row and returns the stored record.
func (r *InvoiceRequestPostgres) Create(ctx context.Context, req *model.InvoiceRequest) (*model.InvoiceRequest, error) {
	const q = `
		INSERT INTO invoice_requests (id, invoice_number, client_name, amount, invoice_date, status,
			file_reference, original_filename, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING ` + invoiceRequestColumns
	row := r.db.QueryRowContext(ctx, q,
		req.ID,
		req.InvoiceNumber,
		req.ClientName,
		req.Amount,
		req.Date,
		req.Status,
		req.FileReference,
		req.OriginalFilename,
		req.CreatedAt,
	)
	return scanInvoiceRequest(row)
}

// FindByID fetches a single request by its ID.
func (r *InvoiceRequestPostgres) FindByID(ctx context.Context, id string) (*model.InvoiceRequest, error) {
	const q = `SELECT ` + invoiceRequestColumns + ` FROM invoice_requests WHERE id = $1`
	return scanInvoiceRequest(r.db.QueryRowContext(ctx, q, id))
}

// List returns all requests ordered by creation time.
func (r *InvoiceRequestPostgres) List(ctx context.Context) ([]model.InvoiceRequest, error) {
	const q = `SELECT ` + invoiceRequestColumns + ` FROM invoice_requests ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.InvoiceRequest, 0)
	for rows.Next() {
		req, err := scanInvoiceRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateStatus performs a conditional update of status and file_reference.
// The WHERE clause on the current status makes concurrent transitions compare-and-swap.
func (r *InvoiceRequestPostgres) UpdateStatus(ctx context.Context, id string, upd repository.StatusUpdate) (*model.InvoiceRequest, error) {
	const q = `
		UPDATE invoice_requests
		SET status = $1,
			file_reference = $2,
			updated_at = $3,
			approved_at = CASE WHEN $1 = 'approved' THEN $3 ELSE approved_at END
		WHERE id = $4 AND status = $5
		RETURNING ` + invoiceRequestColumns
	row := r.db.QueryRowContext(ctx, q, upd.To, upd.FileReference, upd.At, id, upd.From)
	return scanInvoiceRequest(row)
}
