package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/feedback-desk-api/internal/service"
	appErrors "github.com/noah-isme/feedback-desk-api/pkg/errors"
	"github.com/noah-isme/feedback-desk-api/pkg/response"
)

type exportOpener interface {
	OpenExport(token string) (*service.ExportDownload, error)
}

// ExportHandler serves stored export artifacts behind signed tokens.
type ExportHandler struct {
	service exportOpener
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc exportOpener) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Download godoc
// @Summary Download a published export via signed token
// @Tags Feedback
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.OpenExport(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.SizeBytes, result.ContentType, result.File, nil)
}
