package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/Agamvashisht/fintrack/internal/auth"
	"github.com/Agamvashisht/fintrack/internal/domain"
	"github.com/Agamvashisht/fintrack/internal/event"
	"github.com/Agamvashisht/fintrack/internal/repository"
	apperrors "github.com/Agamvashisht/fintrack/pkg/errors"
)

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// Collapsed failure messages. Login failures never reveal whether the email
// exists, and refresh failures never reveal why the token was rejected.
const (
	msgBadCredentials = "invalid email or password"
	msgBadRefresh     = "invalid or expired refresh token"
)

// Session revocation reasons carried on sessions_revoked events.
const (
	ReasonReuseDetected = "reuse_detected"
)

// AuthService implements registration, login, and the refresh token
// rotation protocol.
type AuthService struct {
	userRepo     repository.UserRepository
	tokenRepo    repository.RefreshTokenRepository
	categoryRepo repository.CategoryRepository
	codec        *auth.Codec
	hasher       *auth.Hasher
	producer     *event.Producer
	logger       *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	categoryRepo repository.CategoryRepository,
	codec *auth.Codec,
	hasher *auth.Hasher,
	producer *event.Producer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		tokenRepo:    tokenRepo,
		categoryRepo: categoryRepo,
		codec:        codec,
		hasher:       hasher,
		producer:     producer,
		logger:       logger,
	}
}

// RegisterInput holds the parameters for registering a new account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// LoginInput holds the parameters for login.
type LoginInput struct {
	Email    string
	Password string
}

// Register creates a new account, seeds its starter categories, and returns
// the user with a fresh token pair.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.TokenPair, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	name := strings.TrimSpace(input.Name)
	if len(name) < 2 {
		return nil, nil, apperrors.InvalidInput("name must be at least 2 characters")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, nil, err
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	// Starter categories must exist before the account is handed to the
	// client, so seeding happens ahead of token issuance.
	if err := s.categoryRepo.SeedDefaults(ctx, user.ID); err != nil {
		return nil, nil, fmt.Errorf("seed default categories: %w", err)
	}

	tokens, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, tokens, nil
}

// Login authenticates an account with email and password, returning a fresh
// token pair. Unknown email and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Burn a bcrypt comparison so the unknown-email path costs the
		// same as a wrong password.
		s.hasher.VerifyDummy(input.Password)
		return nil, nil, apperrors.Unauthorized(msgBadCredentials)
	}

	if !s.hasher.Verify(user.PasswordHash, input.Password) {
		return nil, nil, apperrors.Unauthorized(msgBadCredentials)
	}

	tokens, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, tokens, nil
}

// Refresh rotates a refresh token: the presented token is atomically retired
// and a new pair is issued. Presenting a token that is unknown, revoked, or
// expired in the store is treated as a reuse attack and revokes every session
// the user has.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.codec.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(msgBadRefresh)
	}

	tokenHash := auth.HashToken(refreshToken)
	stored, err := s.tokenRepo.GetByHash(ctx, tokenHash)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("look up refresh token: %w", err)
		}
		// Signature is valid but the hash is unknown: the row was already
		// cleaned up or the token was never ours to begin with. Either way
		// the original may be in an attacker's hands.
		s.revokeAllSessions(ctx, claims.UserID, ReasonReuseDetected)
		return nil, apperrors.Unauthorized(msgBadRefresh)
	}

	now := time.Now().UTC()
	if stored.Revoked() || stored.Expired(now) {
		s.revokeAllSessions(ctx, stored.UserID, ReasonReuseDetected)
		return nil, apperrors.Unauthorized(msgBadRefresh)
	}

	// Atomically retire the presented token. Losing the race means another
	// request already rotated it, which is indistinguishable from replay.
	won, err := s.tokenRepo.Revoke(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("retire refresh token: %w", err)
	}
	if !won {
		s.revokeAllSessions(ctx, stored.UserID, ReasonReuseDetected)
		return nil, apperrors.Unauthorized(msgBadRefresh)
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user for token refresh: %w", err)
	}

	tokens, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "tokens refreshed",
		slog.String("user_id", user.ID),
	)

	return tokens, nil
}

// Logout revokes the presented refresh token. It is idempotent: unknown or
// already-revoked tokens return success.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return apperrors.InvalidInput("refresh token is required")
	}

	tokenHash := auth.HashToken(refreshToken)
	won, err := s.tokenRepo.Revoke(ctx, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	if won {
		s.logger.InfoContext(ctx, "user logged out", slog.String("token_hash", tokenHash[:8]))
	}

	return nil
}

// GetUser retrieves an account by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// VerifyAccessToken validates an access token for the HTTP auth middleware.
func (s *AuthService) VerifyAccessToken(token string) (*auth.AccessClaims, error) {
	return s.codec.VerifyAccessToken(token)
}

// revokeAllSessions revokes every active token for the user and publishes a
// sessions_revoked event. Failures are logged, not returned: the caller is
// already on a rejection path.
func (s *AuthService) revokeAllSessions(ctx context.Context, userID, reason string) {
	count, err := s.tokenRepo.RevokeAllByUserID(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke user sessions",
			slog.String("user_id", userID),
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.WarnContext(ctx, "revoked all user sessions",
		slog.String("user_id", userID),
		slog.String("reason", reason),
		slog.Int64("revoked", count),
	)

	if err := s.producer.PublishSessionsRevoked(ctx, userID, reason, count); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.sessions_revoked event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// issueTokenPair creates an access/refresh token pair and stores the refresh
// token hash.
func (s *AuthService) issueTokenPair(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.codec.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.codec.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.codec.RefreshExpiry())
	if err := s.tokenRepo.Create(ctx, user.ID, auth.HashToken(refreshToken), expiresAt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// normalizeEmail lowercases and trims an email address so lookups and the
// unique constraint see one canonical form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validatePassword checks the password complexity requirements: minimum
// length, one uppercase letter, and one digit.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper {
		return apperrors.InvalidInput("password must contain at least one uppercase letter")
	}
	if !hasDigit {
		return apperrors.InvalidInput("password must contain at least one number")
	}

	return nil
}
