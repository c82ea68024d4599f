// Package service implements registration, login, token refresh, email
// verification, and password reset flows.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
	"golang.org/x/crypto/bcrypt"

	"soultribe/internal/activity"
	"soultribe/internal/auth/models"
	"soultribe/internal/auth/store"
	"soultribe/internal/mailer"
	"soultribe/internal/platform/metrics"
	"soultribe/internal/storage"
	dErrors "soultribe/pkg/domainerrors"
	emailpkg "soultribe/pkg/email"
	"soultribe/pkg/requestcontext"
)

const minPasswordLength = 8

// Config carries the token lifetimes and link base the flows need.
type Config struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	VerifyTokenTTL  time.Duration
	ResetTokenTTL   time.Duration
	PublicWebURL    string
}

// TokenPair is the credential set returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Service orchestrates the auth flows over the store, keeping handlers thin.
type Service struct {
	store    store.Store
	jwt      *JWTService
	mail     mailer.Mailer
	activity activity.Recorder
	metrics  *metrics.Metrics
	cfg      Config
}

// New wires the auth service.
func New(st store.Store, jwt *JWTService, mail mailer.Mailer, recorder activity.Recorder, m *metrics.Metrics, cfg Config) (*Service, error) {
	if st == nil {
		return nil, errors.New("auth store is required")
	}
	if jwt == nil {
		return nil, errors.New("jwt service is required")
	}
	if recorder == nil {
		recorder = activity.Nop{}
	}
	return &Service{store: st, jwt: jwt, mail: mail, activity: recorder, metrics: m, cfg: cfg}, nil
}

// Register creates an account and mails a verification link.
func (s *Service) Register(ctx context.Context, address, password string) (*models.User, error) {
	address = emailpkg.Normalize(address)
	if !emailpkg.Valid(address) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to hash password", err)
	}

	now := requestcontext.Now(ctx).UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        address,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if err := s.issueActionToken(ctx, user, models.KindVerifyEmail, s.cfg.VerifyTokenTTL); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.UsersRegistered.Inc()
	}
	s.activity.Emit(ctx, activity.ActionUserRegistered, user.ID, map[string]any{"email": address})
	return user, nil
}

// Login verifies credentials and issues a token pair. Failures are reported
// with one generic message so the endpoint cannot be used to probe accounts.
func (s *Service) Login(ctx context.Context, address, password string) (*TokenPair, error) {
	invalid := dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")

	user, err := s.store.FindUserByEmail(ctx, emailpkg.Normalize(address))
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, invalid
	}

	now := requestcontext.Now(ctx).UTC()
	if err := s.store.RecordLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}

	pair, err := s.issueTokenPair(ctx, user.ID, now)
	if err != nil {
		return nil, err
	}
	s.activity.Emit(ctx, activity.ActionUserLoggedIn, user.ID, nil)
	return pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair issued.
func (s *Service) Refresh(ctx context.Context, rawToken string) (*TokenPair, error) {
	invalid := dErrors.New(dErrors.CodeUnauthorized, "invalid or expired refresh token")

	token, err := s.store.FindRefreshTokenByHash(ctx, hashToken(rawToken))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}

	now := requestcontext.Now(ctx).UTC()
	if !token.Usable(now) {
		return nil, invalid
	}
	if err := s.store.RevokeRefreshToken(ctx, token.ID, now); err != nil {
		return nil, err
	}
	return s.issueTokenPair(ctx, token.UserID, now)
}

// VerifyEmail redeems a verification token.
func (s *Service) VerifyEmail(ctx context.Context, rawToken string) error {
	token, err := s.redeemActionToken(ctx, models.KindVerifyEmail, rawToken)
	if err != nil {
		return err
	}
	now := requestcontext.Now(ctx).UTC()
	if err := s.store.MarkEmailVerified(ctx, token.UserID, now); err != nil {
		return err
	}
	s.activity.Emit(ctx, activity.ActionEmailVerified, token.UserID, nil)
	return nil
}

// ResendVerification issues a fresh verification token for an unverified
// account. Unknown addresses succeed silently.
func (s *Service) ResendVerification(ctx context.Context, address string) error {
	user, err := s.store.FindUserByEmail(ctx, emailpkg.Normalize(address))
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return nil
		}
		return err
	}
	if user.Verified() {
		return nil
	}
	return s.issueActionToken(ctx, user, models.KindVerifyEmail, s.cfg.VerifyTokenTTL)
}

// RequestPasswordReset mails a reset link. Unknown addresses succeed silently
// so the endpoint cannot enumerate accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, address string) error {
	user, err := s.store.FindUserByEmail(ctx, emailpkg.Normalize(address))
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return nil
		}
		return err
	}
	return s.issueActionToken(ctx, user, models.KindPasswordReset, s.cfg.ResetTokenTTL)
}

// ResetPassword redeems a reset token, updates the password, and revokes all
// outstanding refresh tokens for the account.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	token, err := s.redeemActionToken(ctx, models.KindPasswordReset, rawToken)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to hash password", err)
	}
	if err := s.store.UpdatePassword(ctx, token.UserID, string(hash)); err != nil {
		return err
	}

	now := requestcontext.Now(ctx).UTC()
	if err := s.store.RevokeUserRefreshTokens(ctx, token.UserID, now); err != nil {
		return err
	}
	s.activity.Emit(ctx, activity.ActionPasswordReset, token.UserID, nil)
	return nil
}

// FindUser exposes account lookup for other domains (profile, meetup mail).
func (s *Service) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.store.FindUserByID(ctx, id)
}

// ListUsers exposes account enumeration for match discovery.
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *Service) issueTokenPair(ctx context.Context, userID uuid.UUID, now time.Time) (*TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(userID, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to sign access token", err)
	}

	raw, err := randomToken()
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to generate refresh token", err)
	}
	refresh := &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: hashToken(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
		Device:    deviceLabel(requestcontext.UserAgent(ctx)),
	}
	if err := s.store.SaveRefreshToken(ctx, refresh); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresIn:    int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

func (s *Service) issueActionToken(ctx context.Context, user *models.User, kind models.ActionTokenKind, ttl time.Duration) error {
	raw, err := randomToken()
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to generate token", err)
	}

	now := requestcontext.Now(ctx).UTC()
	token := &models.ActionToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Kind:      kind,
		TokenHash: hashToken(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.store.SaveActionToken(ctx, token); err != nil {
		return err
	}

	if s.mail == nil {
		return nil
	}
	switch kind {
	case models.KindVerifyEmail:
		link := s.cfg.PublicWebURL + "/api/auth/verify-email?token=" + raw
		return s.mail.SendVerification(ctx, user.Email, link)
	case models.KindPasswordReset:
		link := s.cfg.PublicWebURL + "/reset-password?token=" + raw
		return s.mail.SendPasswordReset(ctx, user.Email, link)
	}
	return nil
}

func (s *Service) redeemActionToken(ctx context.Context, kind models.ActionTokenKind, rawToken string) (*models.ActionToken, error) {
	invalid := dErrors.New(dErrors.CodeBadRequest, "invalid or expired token")
	if rawToken == "" {
		return nil, invalid
	}
	token, err := s.store.FindActionToken(ctx, kind, hashToken(rawToken))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	now := requestcontext.Now(ctx).UTC()
	if !token.Usable(now) {
		return nil, invalid
	}
	if err := s.store.MarkActionTokenUsed(ctx, token.ID, now); err != nil {
		return nil, err
	}
	return token, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// deviceLabel condenses a User-Agent header into a "Browser on OS" summary
// for session records. Unrecognized agents yield an empty label.
func deviceLabel(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, _ := ua.Browser()
	if name == "" {
		return ""
	}
	if os := ua.OSInfo().Name; os != "" {
		return name + " on " + os
	}
	return name
}
