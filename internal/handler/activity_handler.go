package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/feedback-desk-api/internal/dto"
	"github.com/noah-isme/feedback-desk-api/internal/models"
	appErrors "github.com/noah-isme/feedback-desk-api/pkg/errors"
	"github.com/noah-isme/feedback-desk-api/pkg/response"
)

type activityService interface {
	List(ctx context.Context, query dto.ActivityQuery) ([]models.ActivityLog, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// ActivityHandler exposes the activity trail to admins.
type ActivityHandler struct {
	service activityService
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(svc activityService) *ActivityHandler {
	return &ActivityHandler{service: svc}
}

// List godoc
// @Summary List activity
// @Tags Activity
// @Produce json
// @Security BearerAuth
// @Param action query string false "Action filter"
// @Param search query string false "Free text search"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	var query dto.ActivityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	entries, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, map[string]interface{}{"count": len(entries)})
}

// Delete godoc
// @Summary Delete an activity entry
// @Tags Activity
// @Security BearerAuth
// @Param id path string true "Activity ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /activity/{id} [delete]
func (h *ActivityHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Clear godoc
// @Summary Clear the activity trail
// @Tags Activity
// @Security BearerAuth
// @Success 204
// @Router /activity [delete]
func (h *ActivityHandler) Clear(c *gin.Context) {
	if err := h.service.Clear(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
