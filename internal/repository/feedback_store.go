package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/feedback-desk-api/internal/models"
)

// DefaultFeedbackSlotKey is the slot holding the serialized feedback collection.
const DefaultFeedbackSlotKey = "userFeedback"

// FeedbackStore owns the feedback collection persisted as one JSON array in a single slot.
// Every mutation is a whole-collection read-modify-write. Writers in this process are
// serialised; writers in other processes are not, and the last write wins.
type FeedbackStore struct {
	slots  SlotStore
	key    string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFeedbackStore constructs the store.
func NewFeedbackStore(slots SlotStore, key string, logger *zap.Logger) *FeedbackStore {
	if key == "" {
		key = DefaultFeedbackSlotKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackStore{slots: slots, key: key, logger: logger}
}

// storedEntry is one element of the persisted array. raw is kept verbatim so entries this process
// cannot interpret are written back untouched.
type storedEntry struct {
	raw    json.RawMessage
	record models.Feedback
	valid  bool
}

// LoadAll reads the whole collection. A missing slot, unreadable storage or malformed JSON
// yields an empty collection; individual records breaking invariants are left out of the result
// but stay persisted.
func (s *FeedbackStore) LoadAll(ctx context.Context) []models.Feedback {
	entries := s.load(ctx)
	valid := make([]models.Feedback, 0, len(entries))
	for _, entry := range entries {
		if entry.valid {
			valid = append(valid, entry.record)
		}
	}
	return valid
}

// SaveAll replaces the valid records of the collection with records. Invalid entries keep their
// position; records beyond the number of valid entries are appended.
func (s *FeedbackStore) SaveAll(ctx context.Context, records []models.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load(ctx)
	merged := make([]storedEntry, 0, len(entries)+len(records))
	next := 0
	for _, entry := range entries {
		if !entry.valid {
			merged = append(merged, entry)
			continue
		}
		if next < len(records) {
			encoded, err := encodeEntry(records[next])
			if err != nil {
				return err
			}
			merged = append(merged, encoded)
			next++
		}
	}
	for ; next < len(records); next++ {
		encoded, err := encodeEntry(records[next])
		if err != nil {
			return err
		}
		merged = append(merged, encoded)
	}
	return s.write(ctx, merged)
}

// Append adds record to the collection. If its id collides with an existing one the id is
// advanced until unique; the stored record is returned.
func (s *FeedbackStore) Append(ctx context.Context, record models.Feedback) (models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load(ctx)
	record.ID = uniqueID(takenIDs(entries), record.ID, record.CreatedAt)
	encoded, err := encodeEntry(record)
	if err != nil {
		return models.Feedback{}, err
	}
	if err := s.write(ctx, append(entries, encoded)); err != nil {
		return models.Feedback{}, err
	}
	return record, nil
}

// UpdateStatus sets status and updatedAt on the record with id. It reports whether the record
// existed; an unknown id leaves the collection untouched and writes nothing.
func (s *FeedbackStore) UpdateStatus(ctx context.Context, id string, status models.FeedbackStatus, now time.Time) (models.Feedback, bool, error) {
	if !status.Valid() {
		return models.Feedback{}, false, fmt.Errorf("update feedback %s: invalid status %q", id, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load(ctx)
	for i := range entries {
		if !entries[i].valid || entries[i].record.ID != id {
			continue
		}
		updated := entries[i].record
		updated.Status = status
		updated.UpdatedAt = now
		encoded, err := encodeEntry(updated)
		if err != nil {
			return models.Feedback{}, true, err
		}
		entries[i] = encoded
		if err := s.write(ctx, entries); err != nil {
			return models.Feedback{}, true, err
		}
		return updated, true, nil
	}
	return models.Feedback{}, false, nil
}

// Find returns the record with id from the latest snapshot.
func (s *FeedbackStore) Find(ctx context.Context, id string) (models.Feedback, bool) {
	for _, record := range s.LoadAll(ctx) {
		if record.ID == id {
			return record, true
		}
	}
	return models.Feedback{}, false
}

func (s *FeedbackStore) load(ctx context.Context) []storedEntry {
	raw, ok, err := s.slots.Read(ctx, s.key)
	if err != nil {
		s.logger.Warn("feedback slot unreadable, treating as empty", zap.String("slot", s.key), zap.Error(err))
		return []storedEntry{}
	}
	if !ok || len(raw) == 0 {
		return []storedEntry{}
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		s.logger.Warn("feedback slot malformed, treating as empty", zap.String("slot", s.key), zap.Error(err))
		return []storedEntry{}
	}

	entries := make([]storedEntry, 0, len(elements))
	for _, element := range elements {
		entry := storedEntry{raw: element}
		err := json.Unmarshal(element, &entry.record)
		if err == nil {
			err = entry.record.Validate()
		}
		if err != nil {
			s.logger.Warn("skipping invalid feedback record", zap.String("slot", s.key), zap.String("id", entry.record.ID), zap.Error(err))
		} else {
			entry.valid = true
		}
		entries = append(entries, entry)
	}
	return entries
}

func (s *FeedbackStore) write(ctx context.Context, entries []storedEntry) error {
	elements := make([]json.RawMessage, 0, len(entries))
	for _, entry := range entries {
		elements = append(elements, entry.raw)
	}
	payload, err := json.Marshal(elements)
	if err != nil {
		return fmt.Errorf("marshal feedback collection: %w", err)
	}
	if err := s.slots.Write(ctx, s.key, payload); err != nil {
		return fmt.Errorf("save feedback collection: %w", err)
	}
	return nil
}

func encodeEntry(record models.Feedback) (storedEntry, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return storedEntry{}, fmt.Errorf("marshal feedback %s: %w", record.ID, err)
	}
	return storedEntry{raw: raw, record: record, valid: true}, nil
}

// takenIDs collects ids of every entry, including ones that failed validation.
func takenIDs(entries []storedEntry) map[string]struct{} {
	taken := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.record.ID != "" {
			taken[entry.record.ID] = struct{}{}
		}
	}
	return taken
}

func uniqueID(taken map[string]struct{}, candidate string, createdAt time.Time) string {
	if candidate != "" {
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
	}
	base := createdAt.UnixMilli()
	if parsed, err := strconv.ParseInt(candidate, 10, 64); err == nil {
		base = parsed
	}
	for {
		id := strconv.FormatInt(base, 10)
		if _, exists := taken[id]; !exists {
			return id
		}
		base++
	}
}
