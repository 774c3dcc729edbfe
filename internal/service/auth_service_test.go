package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/feedback-desk-api/internal/models"
	appErrors "github.com/noah-isme/feedback-desk-api/pkg/errors"
)

type recordedActivity struct {
	entries []models.ActivityLog
}

func (r *recordedActivity) Record(_ context.Context, entry models.ActivityLog) {
	r.entries = append(r.entries, entry)
}

func (r *recordedActivity) actions() []string {
	out := make([]string, len(r.entries))
	for i, entry := range r.entries {
		out[i] = entry.Action
	}
	return out
}

func newTestAuthService(t *testing.T, activity activityRecorder) *AuthService {
	t.Helper()
	accounts, err := HashDemoAccounts([]DemoAccount{
		{Email: "Admin@Example.com", Password: "admin123", FullName: "Admin", Role: models.RoleAdmin},
		{Email: "user@example.com", Password: "user123", FullName: "Jane User", Role: models.RoleUser},
	}, bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(accounts, activity, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "feedback-desk",
	})
}

func TestHashDemoAccounts(t *testing.T) {
	accounts, err := HashDemoAccounts([]DemoAccount{
		{Email: "user@example.com", Password: "user123", Role: models.RoleUser},
		{Email: "", Password: "skipped", Role: models.RoleUser},
	}, bcrypt.MinCost)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.NotEqual(t, "user123", accounts[0].PasswordHash)

	again, err := HashDemoAccounts([]DemoAccount{{Email: "USER@example.com", Password: "x", Role: models.RoleUser}}, bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, accounts[0].ID, again[0].ID, "ids derive from the normalised email")

	_, err = HashDemoAccounts([]DemoAccount{{Email: "a@b.c", Password: "x", Role: "GUEST"}}, bcrypt.MinCost)
	assert.Error(t, err)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	activity := &recordedActivity{}
	svc := newTestAuthService(t, activity)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "admin123", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
	assert.Equal(t, []string{models.ActivityLogin}, activity.actions())
	assert.Equal(t, "10.0.0.1", activity.entries[0].Details["ip"])
}

func TestAuthServiceLoginInvalidCredentials(t *testing.T) {
	svc := newTestAuthService(t, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "user123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginValidation(t *testing.T) {
	svc := newTestAuthService(t, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateToken(t *testing.T) {
	svc := newTestAuthService(t, nil)
	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "user123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.Equal(t, "Jane User", claims.FullName)

	other := NewAuthService(nil, nil, nil, nil, AuthConfig{AccessTokenSecret: "different"})
	_, err = other.ValidateToken(res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
