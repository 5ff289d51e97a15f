package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is the lifecycle state of an invoice request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
)

// Valid reports whether s is one of the known statuses.
func (s RequestStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved
}

// InvoiceRequest is an invoice submitted for approval together with a reference to the
// document artifact that currently represents it.
// Status and FileReference change together: pending points at the original upload,
// approved points at the stamped artifact.
type InvoiceRequest struct {
	ID               string          `json:"id"`
	InvoiceNumber    string          `json:"invoiceNumber"`
	ClientName       string          `json:"clientName"`
	Amount           decimal.Decimal `json:"amount"`
	Date             string          `json:"date"`
	Status           RequestStatus   `json:"status"`
	FileReference    string          `json:"filePath"`
	OriginalFilename string          `json:"originalFilename"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	ApprovedAt       *time.Time      `json:"approvedAt,omitempty"`
}
