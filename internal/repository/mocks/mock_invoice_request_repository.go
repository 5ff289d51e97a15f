package mocks

import (
	"context"

	"invoiceflow/internal/model"
	"invoiceflow/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockInvoiceRequestRepository struct {
	mock.Mock
}

func (m *MockInvoiceRequestRepository) Create(ctx context.Context, req *model.InvoiceRequest) (*model.InvoiceRequest, error) {
	args := m.Called(ctx, req)
	if f, ok := args.Get(0).(func(context.Context, *model.InvoiceRequest) *model.InvoiceRequest); ok {
		return f(ctx, req), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InvoiceRequest), args.Error(1)
}

func (m *MockInvoiceRequestRepository) FindByID(ctx context.Context, id string) (*model.InvoiceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InvoiceRequest), args.Error(1)
}

func (m *MockInvoiceRequestRepository) List(ctx context.Context) ([]model.InvoiceRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InvoiceRequest), args.Error(1)
}

func (m *MockInvoiceRequestRepository) UpdateStatus(ctx context.Context, id string, upd repository.StatusUpdate) (*model.InvoiceRequest, error) {
	args := m.Called(ctx, id, upd)
	if f, ok := args.Get(0).(func(context.Context, string, repository.StatusUpdate) *model.InvoiceRequest); ok {
		return f(ctx, id, upd), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InvoiceRequest), args.Error(1)
}
