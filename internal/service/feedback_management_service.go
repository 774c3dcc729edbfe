package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/feedback-desk-api/internal/dto"
	"github.com/noah-isme/feedback-desk-api/internal/models"
	appErrors "github.com/noah-isme/feedback-desk-api/pkg/errors"
	"github.com/noah-isme/feedback-desk-api/pkg/export"
	"github.com/noah-isme/feedback-desk-api/pkg/storage"
)

type feedbackRepository interface {
	LoadAll(ctx context.Context) []models.Feedback
	Find(ctx context.Context, id string) (models.Feedback, bool)
	UpdateStatus(ctx context.Context, id string, status models.FeedbackStatus, now time.Time) (models.Feedback, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Generate(artifactID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (artifactID, relPath string, expiresAt time.Time, err error)
}

type jsonRenderer interface {
	Render(v interface{}) ([]byte, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// FeedbackManagementConfig tunes the management service.
type FeedbackManagementConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportArtifact is a rendered export ready to be sent or stored.
type ExportArtifact struct {
	Filename    string
	ContentType string
	Format      models.ExportFormat
	Count       int
	Data        []byte
}

// ExportDownload bundles an opened artifact for streaming.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	SizeBytes   int64
}

// FeedbackManagementService backs the admin view: listing, statistics, status changes and exports.
type FeedbackManagementService struct {
	store    feedbackRepository
	activity activityRecorder
	metrics  *MetricsService
	json     jsonRenderer
	csv      csvRenderer
	pdf      pdfRenderer
	storage  fileStorage
	signer   downloadSigner
	logger   *zap.Logger
	cfg      FeedbackManagementConfig
	now      func() time.Time

	// transitions serialises check-then-update so two admins cannot both move the same record
	// from a state it has already left.
	transitions sync.Mutex
}

// NewFeedbackManagementService constructs the service. storage and signer may be nil when
// published exports are not needed.
func NewFeedbackManagementService(store feedbackRepository, activity activityRecorder, metrics *MetricsService, storage fileStorage, signer downloadSigner, logger *zap.Logger, cfg FeedbackManagementConfig) *FeedbackManagementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &FeedbackManagementService{
		store:    store,
		activity: activity,
		metrics:  metrics,
		json:     export.NewJSONExporter(),
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		storage:  storage,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns the filtered, ordered view together with statistics over the whole collection.
func (s *FeedbackManagementService) List(ctx context.Context, filter models.FeedbackFilter, order models.FeedbackSort) dto.FeedbackListResponse {
	records := s.store.LoadAll(ctx)
	return dto.FeedbackListResponse{
		Items:      ApplyFeedbackQuery(records, filter, order),
		Statistics: ComputeFeedbackStatistics(records),
	}
}

// Statistics aggregates the whole collection.
func (s *FeedbackManagementService) Statistics(ctx context.Context) models.FeedbackStatistics {
	return ComputeFeedbackStatistics(s.store.LoadAll(ctx))
}

// Get returns one record.
func (s *FeedbackManagementService) Get(ctx context.Context, id string) (*models.Feedback, error) {
	record, ok := s.store.Find(ctx, id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
	}
	return &record, nil
}

// Transition moves a record to target if the review state machine allows it.
func (s *FeedbackManagementService) Transition(ctx context.Context, id string, target models.FeedbackStatus, actor *models.JWTClaims) (*models.Feedback, error) {
	if !target.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", target))
	}

	s.transitions.Lock()
	defer s.transitions.Unlock()

	current, ok := s.store.Find(ctx, id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
	}
	if !current.Status.CanTransitionTo(target) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move feedback from %s to %s", current.Status, target))
	}

	updated, found, err := s.store.UpdateStatus(ctx, id, target, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update feedback status")
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
	}

	s.metrics.RecordFeedbackTransition(current.Status, target)
	if s.activity != nil {
		s.activity.Record(ctx, models.ActivityLog{
			Action:     models.ActivityFeedbackStatusChanged,
			Actor:      actorName(actor),
			Role:       actorRole(actor),
			ResourceID: id,
			Details:    map[string]string{"from": string(current.Status), "to": string(target)},
		})
	}
	return &updated, nil
}

// Export renders the filtered view in the requested format.
func (s *FeedbackManagementService) Export(ctx context.Context, filter models.FeedbackFilter, order models.FeedbackSort, format models.ExportFormat, actor *models.JWTClaims) (*ExportArtifact, error) {
	if format == "" {
		format = models.ExportFormatJSON
	}
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	items := ApplyFeedbackQuery(s.store.LoadAll(ctx), filter, order)

	var (
		payload []byte
		err     error
	)
	switch format {
	case models.ExportFormatJSON:
		payload, err = s.json.Render(items)
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(feedbackDataset(items))
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(feedbackDataset(items), "Feedback Export")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.metrics.RecordFeedbackExport(format)
	if s.activity != nil {
		s.activity.Record(ctx, models.ActivityLog{
			Action: models.ActivityFeedbackExported,
			Actor:  actorName(actor),
			Role:   actorRole(actor),
			Details: map[string]string{
				"format": string(format),
				"count":  strconv.Itoa(len(items)),
			},
		})
	}

	return &ExportArtifact{
		Filename:    ExportFilename(s.now(), format),
		ContentType: format.ContentType(),
		Format:      format,
		Count:       len(items),
		Data:        payload,
	}, nil
}

// Publish renders an export, stores it and returns a signed download link.
func (s *FeedbackManagementService) Publish(ctx context.Context, filter models.FeedbackFilter, order models.FeedbackSort, format models.ExportFormat, actor *models.JWTClaims) (*dto.ExportLinkResponse, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export storage not configured")
	}
	artifact, err := s.Export(ctx, filter, order, format, actor)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	relPath, err := s.storage.Save(path.Join(id, artifact.Filename), artifact.Data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		if delErr := s.storage.Delete(relPath); delErr != nil {
			s.logger.Warn("failed to remove unsigned export", zap.String("path", relPath), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}

	base := strings.TrimRight(s.cfg.APIPrefix, "/")
	if base == "" {
		base = "/api/v1"
	}
	return &dto.ExportLinkResponse{
		ID:        id,
		Filename:  artifact.Filename,
		Format:    artifact.Format,
		Count:     artifact.Count,
		URL:       fmt.Sprintf("%s/exports/%s", base, token),
		ExpiresAt: expiresAt,
	}, nil
}

// OpenExport validates a download token and opens the referenced artifact.
func (s *FeedbackManagementService) OpenExport(token string) (*ExportDownload, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export storage not configured")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrGone, "download link expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export not found")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export not found")
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export")
	}

	filename := path.Base(relPath)
	format := models.ExportFormat(strings.TrimPrefix(path.Ext(filename), "."))
	return &ExportDownload{
		File:        file,
		Filename:    filename,
		ContentType: format.ContentType(),
		SizeBytes:   info.Size(),
	}, nil
}

// CleanupExports removes stored artifacts older than the configured result TTL.
func (s *FeedbackManagementService) CleanupExports() (int, error) {
	if s.storage == nil {
		return 0, nil
	}
	removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		return len(removed), err
	}
	if len(removed) > 0 {
		s.logger.Info("removed expired exports", zap.Int("count", len(removed)))
	}
	return len(removed), nil
}

// ExportFilename names an export artifact after the UTC date it was produced.
func ExportFilename(at time.Time, format models.ExportFormat) string {
	return fmt.Sprintf("feedback-export-%s.%s", at.UTC().Format("2006-01-02"), format)
}

var feedbackExportHeaders = []string{"ID", "Category", "Subject", "Message", "Rating", "Name", "Email", "Status", "Created At", "Updated At"}

func feedbackDataset(items []models.Feedback) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, map[string]string{
			"ID":         item.ID,
			"Category":   item.Category.Label(),
			"Subject":    item.Subject,
			"Message":    item.Message,
			"Rating":     strconv.Itoa(item.Rating),
			"Name":       item.UserName,
			"Email":      item.UserEmail,
			"Status":     string(item.Status),
			"Created At": item.CreatedAt.UTC().Format(time.RFC3339),
			"Updated At": item.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: feedbackExportHeaders, Rows: rows}
}
