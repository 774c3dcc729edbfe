package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/feedback-desk-api/internal/dto"
	"github.com/noah-isme/feedback-desk-api/internal/models"
	"github.com/noah-isme/feedback-desk-api/internal/service"
	appErrors "github.com/noah-isme/feedback-desk-api/pkg/errors"
	"github.com/noah-isme/feedback-desk-api/pkg/response"
)

type feedbackSubmitter interface {
	Form(ctx context.Context, actor *models.JWTClaims) dto.FeedbackFormResponse
	Submit(ctx context.Context, input models.FeedbackSubmission, actor *models.JWTClaims) (*models.Feedback, error)
}

type feedbackManager interface {
	List(ctx context.Context, filter models.FeedbackFilter, order models.FeedbackSort) dto.FeedbackListResponse
	Statistics(ctx context.Context) models.FeedbackStatistics
	Get(ctx context.Context, id string) (*models.Feedback, error)
	Transition(ctx context.Context, id string, target models.FeedbackStatus, actor *models.JWTClaims) (*models.Feedback, error)
	Export(ctx context.Context, filter models.FeedbackFilter, order models.FeedbackSort, format models.ExportFormat, actor *models.JWTClaims) (*service.ExportArtifact, error)
	Publish(ctx context.Context, filter models.FeedbackFilter, order models.FeedbackSort, format models.ExportFormat, actor *models.JWTClaims) (*dto.ExportLinkResponse, error)
}

// FeedbackHandler exposes the submission form and the admin management view.
type FeedbackHandler struct {
	submissions feedbackSubmitter
	management  feedbackManager
}

// NewFeedbackHandler constructs the handler.
func NewFeedbackHandler(submissions feedbackSubmitter, management feedbackManager) *FeedbackHandler {
	return &FeedbackHandler{submissions: submissions, management: management}
}

// Form godoc
// @Summary Prefilled feedback form
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /feedback/form [get]
func (h *FeedbackHandler) Form(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.submissions.Form(c.Request.Context(), claimsFromContext(c)), nil)
}

// Submit godoc
// @Summary Submit feedback
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SubmitFeedbackRequest true "Feedback"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /feedback [post]
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req dto.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}
	record, err := h.submissions.Submit(c.Request.Context(), req.ToSubmission(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// List godoc
// @Summary List feedback
// @Description Filtered, sorted feedback with statistics over the whole collection
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param category query string false "bug|feature|general|ui|performance|all"
// @Param status query string false "pending|reviewed|resolved|all"
// @Param rating query string false "1-5|all"
// @Param search query string false "Case-insensitive text search"
// @Param sort query string false "createdAt|updatedAt|userName|userEmail|rating|subject|category|status"
// @Param order query string false "asc|desc"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /feedback [get]
func (h *FeedbackHandler) List(c *gin.Context) {
	filter, order, ok := bindCriteria(c)
	if !ok {
		return
	}
	view := h.management.List(c.Request.Context(), filter, order)
	response.JSON(c, http.StatusOK, view, map[string]interface{}{"count": len(view.Items)})
}

// Statistics godoc
// @Summary Feedback statistics
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /feedback/statistics [get]
func (h *FeedbackHandler) Statistics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.management.Statistics(c.Request.Context()), nil)
}

// Get godoc
// @Summary Get feedback
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param id path string true "Feedback ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /feedback/{id} [get]
func (h *FeedbackHandler) Get(c *gin.Context) {
	record, err := h.management.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// UpdateStatus godoc
// @Summary Change feedback status
// @Description pending->reviewed, reviewed->resolved, reviewed|resolved->pending
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Feedback ID"
// @Param payload body dto.UpdateFeedbackStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /feedback/{id}/status [patch]
func (h *FeedbackHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateFeedbackStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	target, err := models.ParseFeedbackStatus(req.Status)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return
	}
	record, err := h.management.Transition(c.Request.Context(), c.Param("id"), target, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Export godoc
// @Summary Download an export of the filtered view
// @Tags Feedback
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "json|csv|pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /feedback/export [get]
func (h *FeedbackHandler) Export(c *gin.Context) {
	filter, order, format, ok := bindExport(c)
	if !ok {
		return
	}
	artifact, err := h.management.Export(c.Request.Context(), filter, order, format, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, artifact.Filename, artifact.ContentType, artifact.Data)
}

// Publish godoc
// @Summary Store an export and return a signed download link
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param format query string false "json|csv|pdf"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /feedback/exports [post]
func (h *FeedbackHandler) Publish(c *gin.Context) {
	filter, order, format, ok := bindExport(c)
	if !ok {
		return
	}
	link, err := h.management.Publish(c.Request.Context(), filter, order, format, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

func bindCriteria(c *gin.Context) (models.FeedbackFilter, models.FeedbackSort, bool) {
	var query dto.FeedbackListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return models.FeedbackFilter{}, models.FeedbackSort{}, false
	}
	filter, order, err := query.Criteria()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return models.FeedbackFilter{}, models.FeedbackSort{}, false
	}
	return filter, order, true
}

func bindExport(c *gin.Context) (models.FeedbackFilter, models.FeedbackSort, models.ExportFormat, bool) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return models.FeedbackFilter{}, models.FeedbackSort{}, "", false
	}
	filter, order, err := query.Criteria()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return models.FeedbackFilter{}, models.FeedbackSort{}, "", false
	}
	format, err := query.ExportFormat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return models.FeedbackFilter{}, models.FeedbackSort{}, "", false
	}
	return filter, order, format, true
}
