// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) and hold no business logic.
// Missing rows are reported as sql.ErrNoRows so callers can map them with errors.Is.
package repository

import (
	"context"
	"errors"
	"time"

	"invoiceflow/internal/model"
)

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// InvoiceRequestRepository persists invoice requests.
type InvoiceRequestRepository interface {
	// Create inserts a new request and returns the stored row.
	Create(ctx context.Context, req *model.InvoiceRequest) (*model.InvoiceRequest, error)

	// FindByID returns a request by its ID.
	FindByID(ctx context.Context, id string) (*model.InvoiceRequest, error)

	// List returns every request in insertion order.
	List(ctx context.Context) ([]model.InvoiceRequest, error)

	// UpdateStatus moves a request from upd.From to upd.To and replaces its file reference
	// in one statement. It returns sql.ErrNoRows when no row with that id is in upd.From.
	UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (*model.InvoiceRequest, error)
}

// StatusUpdate is the (status, fileReference) pair written atomically by UpdateStatus.
type StatusUpdate struct {
	From          model.RequestStatus
	To            model.RequestStatus
	FileReference string
	At            time.Time
}

// UserRepository persists accounts used by the auth endpoints.
type UserRepository interface {
	// Create inserts a user. It returns ErrDuplicate when the email is taken.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByEmail returns the user registered under email.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}
