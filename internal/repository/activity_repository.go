package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/feedback-desk-api/internal/models"
)

// DefaultActivitySlotKey is the slot holding the activity trail.
const DefaultActivitySlotKey = "activityLogs"

// ActivityRepository persists the activity trail as a newest-first JSON array in one slot,
// capped at maxEntries.
type ActivityRepository struct {
	slots      SlotStore
	key        string
	maxEntries int
	logger     *zap.Logger
	mu         sync.Mutex
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(slots SlotStore, key string, maxEntries int, logger *zap.Logger) *ActivityRepository {
	if key == "" {
		key = DefaultActivitySlotKey
	}
	if maxEntries <= 0 {
		maxEntries = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityRepository{slots: slots, key: key, maxEntries: maxEntries, logger: logger}
}

// List returns entries matching filter, newest first.
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) []models.ActivityLog {
	entries := r.load(ctx)
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := make([]models.ActivityLog, 0, len(entries))
	for _, entry := range entries {
		if filter.Action != "" && !strings.EqualFold(entry.Action, filter.Action) {
			continue
		}
		if search != "" && !activityMatches(entry, search) {
			continue
		}
		result = append(result, entry)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result
}

// Create prepends entry, trimming the oldest entries beyond the cap.
func (r *ActivityRepository) Create(ctx context.Context, entry models.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := append([]models.ActivityLog{entry}, r.load(ctx)...)
	if len(entries) > r.maxEntries {
		entries = entries[:r.maxEntries]
	}
	return r.write(ctx, entries)
}

// Delete removes the entry with id and reports whether it existed.
func (r *ActivityRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.load(ctx)
	for i := range entries {
		if entries[i].ID == id {
			entries = append(entries[:i], entries[i+1:]...)
			return true, r.write(ctx, entries)
		}
	}
	return false, nil
}

// Clear removes every entry.
func (r *ActivityRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(ctx, []models.ActivityLog{})
}

func (r *ActivityRepository) load(ctx context.Context) []models.ActivityLog {
	raw, ok, err := r.slots.Read(ctx, r.key)
	if err != nil {
		r.logger.Warn("activity slot unreadable, treating as empty", zap.Error(err))
		return []models.ActivityLog{}
	}
	if !ok || len(raw) == 0 {
		return []models.ActivityLog{}
	}
	var entries []models.ActivityLog
	if err := json.Unmarshal(raw, &entries); err != nil {
		r.logger.Warn("activity slot malformed, treating as empty", zap.Error(err))
		return []models.ActivityLog{}
	}
	return entries
}

func (r *ActivityRepository) write(ctx context.Context, entries []models.ActivityLog) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal activity logs: %w", err)
	}
	if err := r.slots.Write(ctx, r.key, payload); err != nil {
		return fmt.Errorf("save activity logs: %w", err)
	}
	return nil
}

func activityMatches(entry models.ActivityLog, search string) bool {
	if strings.Contains(strings.ToLower(entry.Actor), search) ||
		strings.Contains(strings.ToLower(entry.Action), search) ||
		strings.Contains(strings.ToLower(entry.ResourceID), search) {
		return true
	}
	for _, value := range entry.Details {
		if strings.Contains(strings.ToLower(value), search) {
			return true
		}
	}
	return false
}
