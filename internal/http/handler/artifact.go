package handler

import (
	"mime"

	"github.com/gofiber/fiber/v2"

	"invoiceflow/internal/service"
)

// PreviewArtifact streams a stored document for inline display.
// @Summary  Preview a document
// @Tags     documents
// @Security BearerAuth
// @Produce  application/pdf
// @Param    filename path string true "Artifact id"
// @Success  200 {file} file
// @Failure  404 {object} errorPayload
// @Router   /preview/{filename} [get]
func PreviewArtifact(svc service.InvoiceService) fiber.Handler {
	return sendArtifact(svc, "inline")
}

// DownloadArtifact streams a stored document as an attachment.
// @Summary  Download a document
// @Tags     documents
// @Security BearerAuth
// @Produce  application/pdf
// @Param    filename path string true "Artifact id"
// @Success  200 {file} file
// @Failure  404 {object} errorPayload
// @Router   /uploads/{filename} [get]
func DownloadArtifact(svc service.InvoiceService) fiber.Handler {
	return sendArtifact(svc, "attachment")
}

func sendArtifact(svc service.InvoiceService, disposition string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("filename")
		rc, info, err := svc.OpenArtifact(c.UserContext(), name)
		if err != nil {
			return writeServiceError(c, err)
		}

		ct := info.ContentType
		if ct == "" {
			ct = "application/pdf"
		}
		c.Set(fiber.HeaderContentType, ct)
		c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType(disposition, map[string]string{"filename": name}))

		size := -1
		if info.Size > 0 {
			size = int(info.Size)
		}
		// fasthttp closes rc once the body is written
		return c.SendStream(rc, size)
	}
}
