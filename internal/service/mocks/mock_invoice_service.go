package mocks

import (
	"context"
	"io"

	"invoiceflow/internal/model"
	"invoiceflow/internal/service"
	"invoiceflow/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Submit(ctx context.Context, in service.SubmitInput, r io.Reader, filename, contentType string) (*model.InvoiceRequest, error) {
	args := m.Called(ctx, in, r, filename, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InvoiceRequest), args.Error(1)
}

func (m *MockInvoiceService) Approve(ctx context.Context, id string) (*service.ApproveResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ApproveResult), args.Error(1)
}

func (m *MockInvoiceService) List(ctx context.Context) ([]model.InvoiceRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InvoiceRequest), args.Error(1)
}

func (m *MockInvoiceService) Get(ctx context.Context, id string) (*model.InvoiceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InvoiceRequest), args.Error(1)
}

func (m *MockInvoiceService) OpenArtifact(ctx context.Context, artifactID string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, artifactID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}
