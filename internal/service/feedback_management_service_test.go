package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/feedback-desk-api/internal/models"
	"github.com/noah-isme/feedback-desk-api/internal/repository"
	appErrors "github.com/noah-isme/feedback-desk-api/pkg/errors"
	"github.com/noah-isme/feedback-desk-api/pkg/storage"
)

type managementFixture struct {
	svc      *FeedbackManagementService
	store    *repository.FeedbackStore
	activity *recordedActivity
	metrics  *MetricsService
}

func newManagementFixture(t *testing.T) managementFixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewFeedbackStore(repository.NewMemorySlotStore(), "", nil)
	require.NoError(t, store.SaveAll(ctx, queryFixture()))

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	activity := &recordedActivity{}
	metrics := NewMetricsService()
	svc := NewFeedbackManagementService(store, activity, metrics, files, signer, nil, FeedbackManagementConfig{APIPrefix: "/api/v1/"})
	svc.now = func() time.Time { return time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC) }
	return managementFixture{svc: svc, store: store, activity: activity, metrics: metrics}
}

func TestFeedbackManagementListStatisticsCoverWholeCollection(t *testing.T) {
	f := newManagementFixture(t)
	three := 3

	view := f.svc.List(context.Background(), models.FeedbackFilter{Rating: &three}, models.DefaultFeedbackSort)
	assert.Equal(t, []string{"400", "300"}, ids(view.Items))
	assert.Equal(t, 4, view.Statistics.Total)
	assert.Equal(t, 2, view.Statistics.Pending)
	assert.Equal(t, f.svc.Statistics(context.Background()), view.Statistics)
}

func TestFeedbackManagementGet(t *testing.T) {
	f := newManagementFixture(t)

	record, err := f.svc.Get(context.Background(), "200")
	require.NoError(t, err)
	assert.Equal(t, "Dark mode", record.Subject)

	_, err = f.svc.Get(context.Background(), "999")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFeedbackManagementTransition(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name   string
		id     string
		target models.FeedbackStatus
		code   string
	}{
		{"pending to reviewed", "100", models.FeedbackStatusReviewed, ""},
		{"reviewed to resolved", "200", models.FeedbackStatusResolved, ""},
		{"reviewed reset", "200", models.FeedbackStatusPending, ""},
		{"resolved reset", "300", models.FeedbackStatusPending, ""},
		{"pending cannot skip to resolved", "100", models.FeedbackStatusResolved, appErrors.ErrInvalidTransition.Code},
		{"resolved cannot go to reviewed", "300", models.FeedbackStatusReviewed, appErrors.ErrInvalidTransition.Code},
		{"same status rejected", "100", models.FeedbackStatusPending, appErrors.ErrInvalidTransition.Code},
		{"unknown id", "999", models.FeedbackStatusReviewed, appErrors.ErrNotFound.Code},
		{"unknown status", "100", models.FeedbackStatus("archived"), appErrors.ErrValidation.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newManagementFixture(t)
			before, _ := f.store.Find(ctx, tc.id)

			updated, err := f.svc.Transition(ctx, tc.id, tc.target, userClaims())
			if tc.code != "" {
				require.Error(t, err)
				assert.Equal(t, tc.code, appErrors.FromError(err).Code)
				after, _ := f.store.Find(ctx, tc.id)
				assert.Equal(t, before, after)
				assert.Empty(t, f.activity.entries)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.target, updated.Status)
			assert.True(t, updated.UpdatedAt.Equal(f.svc.now()))
			assert.True(t, updated.CreatedAt.Equal(before.CreatedAt))
			assert.Equal(t, []string{models.ActivityFeedbackStatusChanged}, f.activity.actions())
			assert.Equal(t, uint64(1), f.metrics.Snapshot().FeedbackTransitions)
		})
	}
}

func TestFeedbackManagementExportJSON(t *testing.T) {
	f := newManagementFixture(t)
	bug := models.FeedbackCategoryBug

	artifact, err := f.svc.Export(context.Background(), models.FeedbackFilter{Category: &bug}, models.DefaultFeedbackSort, "", userClaims())
	require.NoError(t, err)
	assert.Equal(t, "feedback-export-2024-07-04.json", artifact.Filename)
	assert.Equal(t, "application/json", artifact.ContentType)
	assert.Equal(t, 2, artifact.Count)
	assert.True(t, strings.HasPrefix(string(artifact.Data), "[\n  {\n    \"id\": \"400\""))

	var decoded []models.Feedback
	require.NoError(t, json.Unmarshal(artifact.Data, &decoded))
	assert.Equal(t, []string{"400", "100"}, ids(decoded))
	assert.Equal(t, []string{models.ActivityFeedbackExported}, f.activity.actions())
}

func TestFeedbackManagementExportEmptyView(t *testing.T) {
	f := newManagementFixture(t)

	artifact, err := f.svc.Export(context.Background(), models.FeedbackFilter{Search: "no such text"}, models.DefaultFeedbackSort, models.ExportFormatJSON, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(artifact.Data))
}

func TestFeedbackManagementExportCSVAndPDF(t *testing.T) {
	f := newManagementFixture(t)

	artifact, err := f.svc.Export(context.Background(), models.FeedbackFilter{}, models.DefaultFeedbackSort, models.ExportFormatCSV, nil)
	require.NoError(t, err)
	assert.Equal(t, "feedback-export-2024-07-04.csv", artifact.Filename)
	rows, err := csv.NewReader(bytes.NewReader(artifact.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, feedbackExportHeaders, rows[0])
	assert.Equal(t, "Bug Report", rows[1][1])

	artifact, err = f.svc.Export(context.Background(), models.FeedbackFilter{}, models.DefaultFeedbackSort, models.ExportFormatPDF, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(artifact.Data, []byte("%PDF")))

	_, err = f.svc.Export(context.Background(), models.FeedbackFilter{}, models.DefaultFeedbackSort, "xml", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFeedbackManagementPublishAndOpen(t *testing.T) {
	f := newManagementFixture(t)

	link, err := f.svc.Publish(context.Background(), models.FeedbackFilter{}, models.DefaultFeedbackSort, models.ExportFormatJSON, userClaims())
	require.NoError(t, err)
	assert.Equal(t, 4, link.Count)
	require.True(t, strings.HasPrefix(link.URL, "/api/v1/exports/"))

	token := strings.TrimPrefix(link.URL, "/api/v1/exports/")
	download, err := f.svc.OpenExport(token)
	require.NoError(t, err)
	defer download.File.Close()

	assert.Equal(t, "feedback-export-2024-07-04.json", download.Filename)
	assert.Equal(t, "application/json", download.ContentType)
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Equal(t, download.SizeBytes, int64(len(body)))

	_, err = f.svc.OpenExport(token + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFeedbackManagementOpenExpiredExport(t *testing.T) {
	f := newManagementFixture(t)
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	f.svc.storage = files
	f.svc.signer = storage.NewSignedURLSigner("test-secret", time.Nanosecond)

	link, err := f.svc.Publish(context.Background(), models.FeedbackFilter{}, models.DefaultFeedbackSort, models.ExportFormatCSV, nil)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	_, err = f.svc.OpenExport(strings.TrimPrefix(link.URL, "/api/v1/exports/"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrGone.Code, appErrors.FromError(err).Code)
}

func TestFeedbackManagementPublishWithoutStorage(t *testing.T) {
	store := repository.NewFeedbackStore(repository.NewMemorySlotStore(), "", nil)
	svc := NewFeedbackManagementService(store, nil, nil, nil, nil, nil, FeedbackManagementConfig{})

	_, err := svc.Publish(context.Background(), models.FeedbackFilter{}, models.DefaultFeedbackSort, models.ExportFormatJSON, nil)
	require.Error(t, err)
	count, err := svc.CleanupExports()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestExportFilename(t *testing.T) {
	at := time.Date(2025, 12, 31, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600))
	assert.Equal(t, "feedback-export-2026-01-01.pdf", ExportFilename(at, models.ExportFormatPDF))
}

func TestFeedbackManagementPublishRemovesFileWhenSigningFails(t *testing.T) {
	ctx := context.Background()
	store := repository.NewFeedbackStore(repository.NewMemorySlotStore(), "", nil)
	require.NoError(t, store.SaveAll(ctx, queryFixture()))
	dir := t.TempDir()
	files, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	svc := NewFeedbackManagementService(store, nil, nil, files, storage.NewSignedURLSigner("", time.Hour), nil, FeedbackManagementConfig{})

	_, err = svc.Publish(ctx, models.FeedbackFilter{}, models.DefaultFeedbackSort, models.ExportFormatCSV, nil)
	require.Error(t, err)

	var left []string
	require.NoError(t, filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			left = append(left, path)
		}
		return err
	}))
	assert.Empty(t, left)
}
