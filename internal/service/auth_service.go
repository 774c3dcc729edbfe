package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/feedback-desk-api/internal/models"
	appErrors "github.com/noah-isme/feedback-desk-api/pkg/errors"
)

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// DemoAccount is a plaintext account definition hashed at start-up.
type DemoAccount struct {
	Email    string
	Password string
	FullName string
	Role     models.UserRole
}

// HashDemoAccounts bcrypt-hashes the definitions. Account ids are derived from the email so they
// stay stable across restarts.
func HashDemoAccounts(defs []DemoAccount, cost int) ([]models.Account, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	accounts := make([]models.Account, 0, len(defs))
	for _, def := range defs {
		email := strings.ToLower(strings.TrimSpace(def.Email))
		if email == "" || def.Password == "" {
			continue
		}
		if !def.Role.Valid() {
			return nil, fmt.Errorf("account %s: unknown role %q", email, def.Role)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(def.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", email, err)
		}
		accounts = append(accounts, models.Account{
			ID:           uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(),
			Email:        email,
			PasswordHash: string(hash),
			FullName:     def.FullName,
			Role:         def.Role,
		})
	}
	return accounts, nil
}

// AuthService provides the mock login and token validation.
type AuthService struct {
	accounts  map[string]models.Account
	activity  activityRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(accounts []models.Account, activity activityRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	byEmail := make(map[string]models.Account, len(accounts))
	for _, account := range accounts {
		byEmail[strings.ToLower(account.Email)] = account
	}
	return &AuthService{
		accounts:  byEmail,
		activity:  activity,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Login authenticates a demo account and returns an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	account, ok := s.accounts[strings.ToLower(req.Email)]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	issuedAt := s.now()
	accessToken, err := s.generateAccessToken(account, issuedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	if s.activity != nil {
		s.activity.Record(ctx, models.ActivityLog{
			Action:     models.ActivityLogin,
			Actor:      account.Email,
			Role:       account.Role,
			ResourceID: account.ID,
			Details:    map[string]string{"ip": req.IP, "userAgent": req.UserAgent},
		})
	}
	s.logger.Info("user logged in", zap.String("email", account.Email), zap.String("role", string(account.Role)))

	return &models.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		User: models.UserInfo{
			ID:       account.ID,
			Email:    account.Email,
			FullName: account.FullName,
			Role:     account.Role,
		},
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) generateAccessToken(account models.Account, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID:   account.ID,
		Role:     account.Role,
		Email:    account.Email,
		FullName: account.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   account.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}
