package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/justsurfingit/Job-Application-Portal/internal/apperrors"
	"github.com/justsurfingit/Job-Application-Portal/internal/dtos"
	"github.com/justsurfingit/Job-Application-Portal/internal/models"
	"github.com/justsurfingit/Job-Application-Portal/internal/services"
	"github.com/justsurfingit/Job-Application-Portal/internal/validation"
)

// ApplicationService is what the handlers need from the service layer.
type ApplicationService interface {
	Submit(ctx context.Context, fields validation.Fields, uploads map[string]*services.Upload) (uint, error)
	Get(ctx context.Context, id uint) (*models.Application, error)
	List(ctx context.Context) ([]models.ApplicationSummary, error)
	UpdateStatus(ctx context.Context, id uint, status models.Status) (uint, error)
	Delete(ctx context.Context, id uint) (uint, error)
	ClearAll(ctx context.Context) error
	AttachmentPath(ctx context.Context, id uint, kind string) (string, error)
}

type ApplicationHandler struct {
	Service        ApplicationService
	Log            logrus.FieldLogger
	MaxUploadBytes int64
}

func NewApplicationHandler(svc ApplicationService, log logrus.FieldLogger, maxUploadBytes int64) *ApplicationHandler {
	return &ApplicationHandler{Service: svc, Log: log, MaxUploadBytes: maxUploadBytes}
}

// Routes mounts the application endpoints. submitMiddleware runs only in
// front of the submission endpoint.
func (h *ApplicationHandler) Routes(api *gin.RouterGroup, submitMiddleware ...gin.HandlerFunc) {
	api.GET("/health", HealthCheck)

	api.POST("/submit", append(submitMiddleware, h.Submit)...)
	api.GET("/applications", h.List)
	api.GET("/applications/:id", h.Get)
	api.PUT("/applications/:id/status", h.UpdateStatus)
	api.DELETE("/applications/:id", h.Delete)
	api.DELETE("/clear", h.ClearAll)
	api.GET("/download/:type/:id", h.Download)
}

// Submit is the POST /submit endpoint.
func (h *ApplicationHandler) Submit(c *gin.Context) {
	// two files plus headroom for the text fields
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*h.MaxUploadBytes+1<<20)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(c, apperrors.New(apperrors.KindUploadRejected, "Upload exceeds the allowed size", err))
			return
		}
		h.respondError(c, apperrors.Validation("Invalid multipart form"))
		return
	}

	fields := validation.Fields{}
	for name, values := range form.Value {
		if len(values) > 0 {
			fields[name] = values[0]
		}
	}

	uploads := map[string]*services.Upload{}
	for _, name := range []string{services.FieldResume, services.FieldCoverLetter} {
		headers := form.File[name]
		if len(headers) == 0 {
			continue
		}
		up, closeFn, err := h.openUpload(name, headers[0])
		if err != nil {
			h.respondError(c, err)
			return
		}
		defer closeFn()
		uploads[name] = up
	}

	id, err := h.Service.Submit(c.Request.Context(), fields, uploads)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.SubmitResponse{Success: true, ID: id})
}

func (h *ApplicationHandler) openUpload(field string, fh *multipart.FileHeader) (*services.Upload, func(), error) {
	if fh.Size > h.MaxUploadBytes {
		return nil, nil, apperrors.New(apperrors.KindUploadRejected,
			field+" exceeds the "+strconv.FormatInt(h.MaxUploadBytes>>20, 10)+" MB limit", nil)
	}
	// the store sniffs the bytes; this only turns away parts declared as
	// something else
	ct := strings.ToLower(fh.Header.Get("Content-Type"))
	if ct != "" && !strings.HasPrefix(ct, "application/pdf") && !strings.HasPrefix(ct, "application/octet-stream") {
		return nil, nil, apperrors.New(apperrors.KindUploadRejected, "Only PDF files are allowed", nil)
	}
	file, err := fh.Open()
	if err != nil {
		return nil, nil, apperrors.New(apperrors.KindUploadRejected, "Failed to read uploaded file", err)
	}
	return &services.Upload{Filename: fh.Filename, Body: file}, func() { file.Close() }, nil
}

func (h *ApplicationHandler) List(c *gin.Context) {
	items, err := h.Service.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.ApplicationListResponse{Success: true, Applications: items})
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	app, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.ApplicationResponse{Success: true, Application: app})
}

func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req dtos.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.New(apperrors.KindInvalidStatus, "Status is required", err))
		return
	}
	updated, err := h.Service.UpdateStatus(c.Request.Context(), id, models.Status(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.SubmitResponse{Success: true, ID: updated})
}

func (h *ApplicationHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	deleted, err := h.Service.Delete(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.SubmitResponse{Success: true, ID: deleted})
}

func (h *ApplicationHandler) ClearAll(c *gin.Context) {
	if err := h.Service.ClearAll(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Download streams a stored PDF as an attachment.
func (h *ApplicationHandler) Download(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	path, err := h.Service.AttachmentPath(c.Request.Context(), id, c.Param("type"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func (h *ApplicationHandler) pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		h.respondError(c, apperrors.Validation("Invalid application id"))
		return 0, false
	}
	return uint(id), true
}

func (h *ApplicationHandler) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.Log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	resp := dtos.ErrorResponse{Success: false, Error: apperrors.PublicMessage(err)}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && len(appErr.Missing) > 0 {
		resp.Missing = appErr.Missing
	}
	c.AbortWithStatusJSON(status, resp)
}
