package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/contaportal/portal/internal/api/metrics"
	"github.com/contaportal/portal/internal/core/domain"
	"github.com/contaportal/portal/internal/core/ports"
)

// DocumentHandler handles multipart document upload, listing and download.
type DocumentHandler struct {
	service  ports.DocumentService
	maxBytes int64
}

func NewDocumentHandler(service ports.DocumentService, maxBytes int64) *DocumentHandler {
	return &DocumentHandler{service: service, maxBytes: maxBytes}
}

type documentsResponse struct {
	Data []*domain.Document `json:"data"`
}

// Upload handles POST /documents (multipart/form-data).
//
// @Summary      Upload a document
// @Tags         documents
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        file      formData  file    true   "Document content"
// @Param        title     formData  string  false  "Display title"
// @Param        owner_id  formData  string  false  "Organization the document belongs to"
// @Success      201       {object}  domain.Document
// @Failure      400       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Failure      413       {object}  errorResponse
// @Router       /documents [post]
func (h *DocumentHandler) Upload(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	if h.maxBytes > 0 {
		c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.maxBytes+1<<20)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return domain.ErrDocumentTooLarge
		}
		return echo.NewHTTPError(http.StatusBadRequest, "missing file field")
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	doc, err := h.service.Upload(c.Request().Context(), ports.UploadInput{
		Caller:   caller,
		OwnerID:  c.FormValue("owner_id"),
		Title:    c.FormValue("title"),
		Filename: fh.Filename,
		Size:     fh.Size,
		Content:  f,
	})
	if err != nil {
		return err
	}

	metrics.DocumentsUploadedTotal.WithLabelValues(doc.ContentType).Inc()
	metrics.DocumentUploadBytes.Observe(float64(doc.Size))
	return c.JSON(http.StatusCreated, doc)
}

// List handles GET /documents.
//
// @Summary      List documents
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        owner_id  query     string  false  "Organization id (defaults to the caller)"
// @Success      200       {object}  documentsResponse
// @Failure      403       {object}  errorResponse
// @Router       /documents [get]
func (h *DocumentHandler) List(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	docs, err := h.service.List(c.Request().Context(), caller, c.QueryParam("owner_id"))
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []*domain.Document{}
	}
	return c.JSON(http.StatusOK, documentsResponse{Data: docs})
}

// Download handles GET /documents/:id and streams the stored content.
//
// @Summary      Download a document
// @Tags         documents
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id   path      string  true  "Document id"
// @Success      200  {file}    binary
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /documents/{id} [get]
func (h *DocumentHandler) Download(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	doc, rc, err := h.service.Download(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	defer rc.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	res.Header().Set(echo.HeaderContentLength, strconv.FormatInt(doc.Size, 10))
	res.Header().Set(echo.HeaderContentType, doc.ContentType)
	res.WriteHeader(http.StatusOK)
	_, err = io.Copy(res, rc)
	return err
}
