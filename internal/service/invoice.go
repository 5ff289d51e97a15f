package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"invoiceflow/internal/model"
	"invoiceflow/internal/repository"
	"invoiceflow/internal/storage"
)

const pdfContentType = "application/pdf"

var tracer = otel.Tracer("invoiceflow/service")

// Stamper applies the approval mark to a PDF document.
type Stamper interface {
	Stamp(ctx context.Context, doc []byte) ([]byte, error)
}

// SubmitInput carries the client-supplied fields of a new invoice request.
type SubmitInput struct {
	InvoiceNumber string `json:"invoiceNumber" validate:"required,max=255"`
	ClientName    string `json:"clientName" validate:"required,max=255"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
}

// ApproveResult is the outcome of an approval.
type ApproveResult struct {
	Request    *model.InvoiceRequest
	StampedURL string
	PreviewURL string
}

// InvoiceService drives invoice requests through pending -> approved.
type InvoiceService interface {
	// Submit stores the document and records a pending request pointing at it.
	// The artifact is removed again if the record cannot be created.
	Submit(ctx context.Context, in SubmitInput, r io.Reader, filename, contentType string) (*model.InvoiceRequest, error)

	// Approve stamps the request's document and flips it to approved.
	// Approving an approved request returns it unchanged.
	Approve(ctx context.Context, id string) (*ApproveResult, error)

	// List returns all requests in submission order.
	List(ctx context.Context) ([]model.InvoiceRequest, error)

	// Get returns a single request by ID.
	Get(ctx context.Context, id string) (*model.InvoiceRequest, error)

	// OpenArtifact streams a stored document by its artifact id. The caller closes the reader.
	OpenArtifact(ctx context.Context, artifactID string) (io.ReadCloser, storage.ObjectInfo, error)
}

// InvoiceOption configures the invoice service.
type InvoiceOption func(*invoiceService)

// WithMetrics records lifecycle metrics on m.
func WithMetrics(m *Metrics) InvoiceOption {
	return func(s *invoiceService) { s.metrics = m }
}

// WithLogger sets the logger used for best-effort cleanup failures.
func WithLogger(l *zap.Logger) InvoiceOption {
	return func(s *invoiceService) { s.log = l }
}

// WithNow overrides the clock used for record timestamps.
func WithNow(now func() time.Time) InvoiceOption {
	return func(s *invoiceService) { s.now = now }
}

type invoiceService struct {
	store     storage.DocumentStore
	repo      repository.InvoiceRequestRepository
	stamper   Stamper
	validate  *validator.Validate
	approvals singleflight.Group
	metrics   *Metrics
	log       *zap.Logger
	now       func() time.Time
}

// NewInvoiceService constructs an InvoiceService.
func NewInvoiceService(store storage.DocumentStore, repo repository.InvoiceRequestRepository, stamper Stamper, opts ...InvoiceOption) InvoiceService {
	s := &invoiceService{
		store:    store,
		repo:     repo,
		stamper:  stamper,
		validate: newValidator(),
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *invoiceService) Submit(ctx context.Context, in SubmitInput, r io.Reader, filename, contentType string) (_ *model.InvoiceRequest, err error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.Submit")
	defer func() { endSpan(span, err) }()

	in.InvoiceNumber = strings.TrimSpace(in.InvoiceNumber)
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.Amount = strings.TrimSpace(in.Amount)
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	amount := decimal.Zero
	if in.Amount != "" {
		amount, err = decimal.NewFromString(in.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: amount must be a decimal number", ErrValidation)
		}
	}
	if !isPDF(contentType) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: file is required", ErrValidation)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrValidation)
	}

	artifactID, err := s.store.Save(ctx, data, filename, pdfContentType)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("artifact.id", artifactID))

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &model.InvoiceRequest{
		ID:               uuid.NewString(),
		InvoiceNumber:    in.InvoiceNumber,
		ClientName:       in.ClientName,
		Amount:           amount,
		Date:             in.Date,
		Status:           model.StatusPending,
		FileReference:    s.store.ResolveURL(artifactID),
		OriginalFilename: filename,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		// Rollback: drop the artifact nothing refers to
		if delErr := s.store.Delete(ctx, artifactID); delErr != nil {
			return nil, fmt.Errorf("db save failed: %w; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	s.metrics.incSubmitted()
	return created, nil
}

func (s *invoiceService) Approve(ctx context.Context, id string) (_ *ApproveResult, err error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.Approve", trace.WithAttributes(attribute.String("request.id", id)))
	defer func() { endSpan(span, err) }()

	if _, perr := uuid.Parse(id); perr != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	// Waiters share this call, so one caller's cancellation must not fail the rest.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.approvals.Do(id, func() (any, error) {
		return s.approve(shared, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ApproveResult), nil
}

func (s *invoiceService) approve(ctx context.Context, id string) (*ApproveResult, error) {
	req, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == model.StatusApproved {
		return s.result(req), nil
	}

	srcID, err := s.store.ArtifactID(req.FileReference)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.Read(ctx, srcID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	stamped, err := s.stamper.Stamp(ctx, doc)
	s.metrics.observeStamp(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("stamp %s: %w", id, err)
	}

	stampedID, err := s.store.Save(ctx, stamped, "stamped_"+srcID, pdfContentType)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, repository.StatusUpdate{
		From:          model.StatusPending,
		To:            model.StatusApproved,
		FileReference: s.store.ResolveURL(stampedID),
		At:            s.now().UTC(),
	})
	if err != nil {
		s.discard(ctx, stampedID)
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("update request: %w", err)
		}
		// Another writer moved the record first
		current, ferr := s.find(ctx, id)
		if ferr != nil {
			return nil, ferr
		}
		if current.Status != model.StatusApproved {
			return nil, fmt.Errorf("update request %s: status is %s", id, current.Status)
		}
		return s.result(current), nil
	}
	s.metrics.incApproved()
	return s.result(updated), nil
}

func (s *invoiceService) List(ctx context.Context) (_ []model.InvoiceRequest, err error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.List")
	defer func() { endSpan(span, err) }()

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.InvoiceRequest{}
	}
	return items, nil
}

func (s *invoiceService) Get(ctx context.Context, id string) (_ *model.InvoiceRequest, err error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.Get", trace.WithAttributes(attribute.String("request.id", id)))
	defer func() { endSpan(span, err) }()

	if _, perr := uuid.Parse(id); perr != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.find(ctx, id)
}

func (s *invoiceService) OpenArtifact(ctx context.Context, artifactID string) (_ io.ReadCloser, _ storage.ObjectInfo, err error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.OpenArtifact", trace.WithAttributes(attribute.String("artifact.id", artifactID)))
	defer func() { endSpan(span, err) }()

	if artifactID == "" || storage.SanitizeName(artifactID) != artifactID {
		return nil, storage.ObjectInfo{}, fmt.Errorf("%w: %q", ErrNotFound, artifactID)
	}
	rc, info, err := s.store.Open(ctx, artifactID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, storage.ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotFound, artifactID)
		}
		return nil, storage.ObjectInfo{}, err
	}
	return rc, info, nil
}

func (s *invoiceService) find(ctx context.Context, id string) (*model.InvoiceRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return req, nil
}

func (s *invoiceService) result(req *model.InvoiceRequest) *ApproveResult {
	res := &ApproveResult{Request: req, StampedURL: req.FileReference}
	if aid, err := s.store.ArtifactID(req.FileReference); err == nil {
		res.PreviewURL = s.store.PreviewURL(aid)
	}
	return res
}

func (s *invoiceService) discard(ctx context.Context, artifactID string) {
	if err := s.store.Delete(ctx, artifactID); err != nil {
		s.log.Warn("artifact_cleanup_failed", zap.String("artifact_id", artifactID), zap.Error(err))
	}
}

func isPDF(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == pdfContentType
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
