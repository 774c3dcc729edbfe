package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/feedback-desk-api/internal/models"
)

// ProfileRepository reads and writes per-role identity profiles, one slot per role.
type ProfileRepository struct {
	slots SlotStore
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(slots SlotStore) *ProfileRepository {
	return &ProfileRepository{slots: slots}
}

// Get returns the profile stored for role. found is false when the slot is absent.
func (r *ProfileRepository) Get(ctx context.Context, role models.UserRole) (*models.Profile, bool, error) {
	raw, ok, err := r.slots.Read(ctx, models.ProfileSlotKey(role))
	if err != nil {
		return nil, false, fmt.Errorf("read profile %s: %w", role, err)
	}
	if !ok {
		return nil, false, nil
	}
	var profile models.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, false, fmt.Errorf("decode profile %s: %w", role, err)
	}
	return &profile, true, nil
}

// Save overwrites the profile slot of role.
func (r *ProfileRepository) Save(ctx context.Context, role models.UserRole, profile models.Profile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", role, err)
	}
	if err := r.slots.Write(ctx, models.ProfileSlotKey(role), payload); err != nil {
		return fmt.Errorf("save profile %s: %w", role, err)
	}
	return nil
}
