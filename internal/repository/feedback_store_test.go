package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/feedback-desk-api/internal/models"
)

type failingSlots struct {
	readErr  error
	writeErr error
	writes   int
}

func (f *failingSlots) Read(context.Context, string) ([]byte, bool, error) {
	return nil, false, f.readErr
}

func (f *failingSlots) Write(context.Context, string, []byte) error {
	f.writes++
	return f.writeErr
}

type countingSlots struct {
	*MemorySlotStore
	writes int
}

func (c *countingSlots) Write(ctx context.Context, key string, value []byte) error {
	c.writes++
	return c.MemorySlotStore.Write(ctx, key, value)
}

func sampleFeedback(id string, rating int, status models.FeedbackStatus) models.Feedback {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return models.Feedback{
		ID:        id,
		Category:  models.FeedbackCategoryBug,
		Subject:   "Broken button",
		Message:   "The save button does nothing",
		Rating:    rating,
		UserName:  "Jane",
		UserEmail: "jane@example.com",
		Status:    status,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func TestFeedbackStoreLoadAllEmptyCases(t *testing.T) {
	ctx := context.Background()

	t.Run("missing slot", func(t *testing.T) {
		store := NewFeedbackStore(NewMemorySlotStore(), "", nil)
		assert.Empty(t, store.LoadAll(ctx))
	})

	t.Run("malformed json", func(t *testing.T) {
		slots := NewMemorySlotStore()
		require.NoError(t, slots.Write(ctx, DefaultFeedbackSlotKey, []byte(`{not json`)))
		store := NewFeedbackStore(slots, "", nil)
		records := store.LoadAll(ctx)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("unreadable storage", func(t *testing.T) {
		store := NewFeedbackStore(&failingSlots{readErr: errors.New("denied")}, "", nil)
		assert.Empty(t, store.LoadAll(ctx))
	})
}

const mixedValiditySlot = `[
	{"id":"1","category":"bug","subject":"Broken button","message":"The save button does nothing","rating":4,"userName":"Jane","userEmail":"jane@example.com","status":"pending","createdAt":"2024-05-01T10:00:00Z","updatedAt":"2024-05-01T10:00:00Z"},
	{"id":"2","category":"other","subject":"s","message":"m","rating":4,"status":"pending"},
	{"id":"3","category":"ui","subject":"s","message":"m","rating":0,"status":"pending"}
]`

func seedMixedSlot(t *testing.T) *MemorySlotStore {
	t.Helper()
	slots := NewMemorySlotStore()
	require.NoError(t, slots.Write(context.Background(), DefaultFeedbackSlotKey, []byte(mixedValiditySlot)))
	return slots
}

func storedIDs(t *testing.T, slots *MemorySlotStore) []string {
	t.Helper()
	raw, ok, err := slots.Read(context.Background(), DefaultFeedbackSlotKey)
	require.NoError(t, err)
	require.True(t, ok)
	var elements []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &elements))
	ids := make([]string, 0, len(elements))
	for _, element := range elements {
		ids = append(ids, element.ID)
	}
	return ids
}

func TestFeedbackStoreLoadAllSkipsInvalidRecords(t *testing.T) {
	records := NewFeedbackStore(seedMixedSlot(t), "", nil).LoadAll(context.Background())
	require.Len(t, records, 1)
	assert.Equal(t, "1", records[0].ID)
}

func TestFeedbackStoreMutationsKeepInvalidRecords(t *testing.T) {
	ctx := context.Background()

	t.Run("append", func(t *testing.T) {
		slots := seedMixedSlot(t)
		_, err := NewFeedbackStore(slots, "", nil).Append(ctx, sampleFeedback("9", 5, models.FeedbackStatusPending))
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2", "3", "9"}, storedIDs(t, slots))
	})

	t.Run("save all of load all", func(t *testing.T) {
		slots := seedMixedSlot(t)
		store := NewFeedbackStore(slots, "", nil)
		require.NoError(t, store.SaveAll(ctx, store.LoadAll(ctx)))
		assert.Equal(t, []string{"1", "2", "3"}, storedIDs(t, slots))

		raw, _, err := slots.Read(ctx, DefaultFeedbackSlotKey)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"category":"other"`)
	})

	t.Run("update status", func(t *testing.T) {
		slots := seedMixedSlot(t)
		_, found, err := NewFeedbackStore(slots, "", nil).UpdateStatus(ctx, "1", models.FeedbackStatusReviewed, time.Now())
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []string{"1", "2", "3"}, storedIDs(t, slots))
	})

	t.Run("invalid record cannot be updated", func(t *testing.T) {
		slots := seedMixedSlot(t)
		_, found, err := NewFeedbackStore(slots, "", nil).UpdateStatus(ctx, "2", models.FeedbackStatusReviewed, time.Now())
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestFeedbackStoreAppendAvoidsIDsOfInvalidRecords(t *testing.T) {
	slots := seedMixedSlot(t)
	stored, err := NewFeedbackStore(slots, "", nil).Append(context.Background(), sampleFeedback("2", 5, models.FeedbackStatusPending))
	require.NoError(t, err)
	assert.Equal(t, "4", stored.ID)
}

func TestFeedbackStoreSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	slots := NewMemorySlotStore()
	store := NewFeedbackStore(slots, "", nil)

	require.NoError(t, store.SaveAll(ctx, []models.Feedback{
		sampleFeedback("1", 5, models.FeedbackStatusPending),
		sampleFeedback("2", 3, models.FeedbackStatusResolved),
	}))
	first, _, err := slots.Read(ctx, DefaultFeedbackSlotKey)
	require.NoError(t, err)

	require.NoError(t, store.SaveAll(ctx, store.LoadAll(ctx)))
	second, _, err := slots.Read(ctx, DefaultFeedbackSlotKey)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestFeedbackStoreSaveAllNilWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	slots := NewMemorySlotStore()
	require.NoError(t, NewFeedbackStore(slots, "custom", nil).SaveAll(ctx, nil))

	raw, ok, err := slots.Read(ctx, "custom")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[]`, string(raw))
}

func TestFeedbackStoreAppendBumpsCollidingID(t *testing.T) {
	ctx := context.Background()
	store := NewFeedbackStore(NewMemorySlotStore(), "", nil)

	first, err := store.Append(ctx, sampleFeedback("1714557600000", 4, models.FeedbackStatusPending))
	require.NoError(t, err)
	second, err := store.Append(ctx, sampleFeedback("1714557600000", 2, models.FeedbackStatusPending))
	require.NoError(t, err)

	assert.Equal(t, "1714557600000", first.ID)
	assert.Equal(t, "1714557600001", second.ID)
	records := store.LoadAll(ctx)
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[1].ID)
}

func TestFeedbackStoreAppendPropagatesWriteError(t *testing.T) {
	store := NewFeedbackStore(&failingSlots{writeErr: errors.New("quota exceeded")}, "", nil)
	_, err := store.Append(context.Background(), sampleFeedback("1", 4, models.FeedbackStatusPending))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestFeedbackStoreUpdateStatus(t *testing.T) {
	ctx := context.Background()
	slots := &countingSlots{MemorySlotStore: NewMemorySlotStore()}
	store := NewFeedbackStore(slots, "", nil)
	require.NoError(t, store.SaveAll(ctx, []models.Feedback{sampleFeedback("1", 4, models.FeedbackStatusPending)}))
	slots.writes = 0

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	updated, found, err := store.UpdateStatus(ctx, "1", models.FeedbackStatusReviewed, now)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.FeedbackStatusReviewed, updated.Status)
	assert.True(t, updated.UpdatedAt.Equal(now))
	assert.Equal(t, 1, slots.writes)

	got, ok := store.Find(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, models.FeedbackStatusReviewed, got.Status)
}

func TestFeedbackStoreUpdateStatusUnknownIDWritesNothing(t *testing.T) {
	ctx := context.Background()
	slots := &countingSlots{MemorySlotStore: NewMemorySlotStore()}
	store := NewFeedbackStore(slots, "", nil)
	require.NoError(t, store.SaveAll(ctx, []models.Feedback{sampleFeedback("1", 4, models.FeedbackStatusPending)}))
	slots.writes = 0

	_, found, err := store.UpdateStatus(ctx, "nope", models.FeedbackStatusReviewed, time.Now())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, slots.writes)
}

func TestFeedbackStoreUpdateStatusRejectsInvalidStatus(t *testing.T) {
	store := NewFeedbackStore(NewMemorySlotStore(), "", nil)
	_, _, err := store.UpdateStatus(context.Background(), "1", models.FeedbackStatus("archived"), time.Now())
	assert.Error(t, err)
}
