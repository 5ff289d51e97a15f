package handler

import (
	"github.com/gofiber/fiber/v2"

	"invoiceflow/internal/model"
	"invoiceflow/internal/service"
)

type submitResponse struct {
	Message string                `json:"message"`
	FileURL string                `json:"fileUrl"`
	Request *model.InvoiceRequest `json:"request"`
}

type approveResponse struct {
	Message    string                `json:"message"`
	StampedURL string                `json:"stampedUrl"`
	PreviewURL string                `json:"previewUrl"`
	Request    *model.InvoiceRequest `json:"request"`
}

// SubmitRequest accepts a multipart form with the PDF under "file".
// A "status" field is tolerated and ignored; new requests always start pending.
// @Summary  Submit an invoice for approval
// @Tags     requests
// @Security BearerAuth
// @Accept   multipart/form-data
// @Produce  json
// @Param    file          formData file   true  "Invoice PDF"
// @Param    invoiceNumber formData string true  "Invoice number"
// @Param    clientName    formData string true  "Client name"
// @Param    amount        formData string false "Amount"
// @Param    date          formData string false "Invoice date"
// @Success  201 {object} submitResponse
// @Failure  400 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /requests [post]
func SubmitRequest(svc service.InvoiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get(fiber.HeaderContentType)
		if ct == "" {
			ct = fiber.MIMEOctetStream
		}

		in := service.SubmitInput{
			InvoiceNumber: c.FormValue("invoiceNumber"),
			ClientName:    c.FormValue("clientName"),
			Amount:        c.FormValue("amount"),
			Date:          c.FormValue("date"),
		}
		req, err := svc.Submit(c.UserContext(), in, f, fh.Filename, ct)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(submitResponse{
			Message: "Invoice request submitted",
			FileURL: req.FileReference,
			Request: req,
		})
	}
}

// ListRequests returns every invoice request in submission order.
// @Summary  List invoice requests
// @Tags     requests
// @Security BearerAuth
// @Produce  json
// @Success  200 {array} model.InvoiceRequest
// @Router   /requests [get]
func ListRequests(svc service.InvoiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(items)
	}
}

// GetRequest returns a single invoice request.
// @Summary  Get an invoice request
// @Tags     requests
// @Security BearerAuth
// @Produce  json
// @Param    id path string true "Request ID"
// @Success  200 {object} model.InvoiceRequest
// @Failure  404 {object} errorPayload
// @Router   /requests/{id} [get]
func GetRequest(svc service.InvoiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(req)
	}
}

// ApproveRequest stamps the request's document and marks it approved.
// @Summary  Approve an invoice request
// @Tags     requests
// @Security BearerAuth
// @Produce  json
// @Param    id path string true "Request ID"
// @Success  200 {object} approveResponse
// @Failure  404 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /requests/approve/{id} [post]
func ApproveRequest(svc service.InvoiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Approve(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(approveResponse{
			Message:    "Invoice approved",
			StampedURL: res.StampedURL,
			PreviewURL: res.PreviewURL,
			Request:    res.Request,
		})
	}
}
