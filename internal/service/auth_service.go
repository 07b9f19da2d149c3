package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/photo-share-backend/internal/cache"
	"github.com/iliyamo/photo-share-backend/internal/config"
	"github.com/iliyamo/photo-share-backend/internal/model"
	"github.com/iliyamo/photo-share-backend/internal/queue"
	"github.com/iliyamo/photo-share-backend/internal/repository"
	"github.com/iliyamo/photo-share-backend/internal/utils"
)

// TokenType is the fixed label returned with every issued pair.
const TokenType = "bearer"

// EventPublisher is the slice of the broker this service needs.  The AMQP
// implementation lives in the queue package; tests substitute a recorder.
type EventPublisher interface {
	PublishEmailConfirmation(ctx context.Context, event queue.EmailConfirmationEvent) error
	PublishMediaPurge(ctx context.Context, event queue.MediaPurgeEvent) error
}

// TokenPair is a freshly issued access/refresh pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// AuthService is the session manager.  It drives every account state
// transition: Unregistered → Unconfirmed (Signup) → Confirmed (ConfirmEmail)
// and then back and forth between logged-in and revoked as logins, logouts
// and bans happen.
type AuthService struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Bans   *repository.BanRepo
	Banned *cache.BanList
	Events EventPublisher
}

func NewAuthService(cfg config.Config, users *repository.UserRepo, bans *repository.BanRepo,
	banned *cache.BanList, events EventPublisher) *AuthService {
	return &AuthService{Cfg: cfg, Users: users, Bans: bans, Banned: banned, Events: events}
}

// Signup creates a new unconfirmed account and hands a confirmation token to
// the mail sender.  The email event is best effort: a broker outage must not
// lose the signup, and the token can be re-requested later.
func (s *AuthService) Signup(ctx context.Context, username, email, password, baseURL string) (model.User, error) {
	hash, err := utils.HashPassword(password, s.Cfg.BcryptCost)
	if err != nil {
		return model.User{}, err
	}
	id, err := s.Users.Create(ctx, username, email, hash, model.RoleUser)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) || errors.Is(err, repository.ErrUsernameExists) {
			return model.User{}, ErrDuplicateAccount
		}
		return model.User{}, err
	}
	user, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	s.sendConfirmation(ctx, user, baseURL)
	return user, nil
}

// Login verifies the credentials and issues a fresh token pair, superseding
// whatever pair the account held before.  The checks run in a fixed order:
// unknown email, unconfirmed email, wrong password, banned.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenPair{}, ErrUnknownPrincipal
		}
		return TokenPair{}, err
	}
	if !user.Confirmed {
		return TokenPair{}, ErrNotConfirmed
	}
	if !utils.VerifyPassword(user.PasswordHash, password) {
		return TokenPair{}, ErrInvalidPassword
	}
	if user.AccessToken != "" {
		banned, err := s.Banned.IsBanned(ctx, user.AccessToken)
		if err != nil {
			return TokenPair{}, err
		}
		if banned {
			return TokenPair{}, ErrBanned
		}
	}
	return s.issuePair(ctx, user)
}

// Refresh exchanges a refresh token for a new pair, rotating the refresh
// token on every use.  The stored value is the sole source of truth: a token
// that decodes fine but no longer matches it is a replay of a superseded
// token, and the stored pair is cleared so the holder must log in again.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	email, err := utils.DecodeToken(s.Cfg.JWTSecret, refreshToken, utils.KindRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenPair{}, ErrUnknownPrincipal
		}
		return TokenPair{}, err
	}
	if user.RefreshToken != refreshToken {
		if err := s.Users.ClearTokens(ctx, user.ID); err != nil {
			return TokenPair{}, err
		}
		return TokenPair{}, ErrStaleRefreshToken
	}
	return s.issuePair(ctx, user)
}

// ConfirmEmail resolves a confirmation token and marks the account as
// confirmed.  Confirming an already confirmed account is a no-op: the bool
// result distinguishes "already confirmed" from a first-time confirmation.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (alreadyConfirmed bool, err error) {
	email, err := utils.DecodeToken(s.Cfg.JWTSecret, token, utils.KindConfirm)
	if err != nil {
		return false, ErrVerification
	}
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrVerification
		}
		return false, err
	}
	if user.Confirmed {
		return true, nil
	}
	return false, s.Users.SetConfirmed(ctx, email)
}

// RequestEmail re-sends the confirmation email.  The bool result reports
// whether the account was already confirmed (nothing is sent then).  An
// unknown email is not an error: the handler answers identically either way
// so the endpoint cannot be used to probe which addresses have accounts.
func (s *AuthService) RequestEmail(ctx context.Context, email, baseURL string) (alreadyConfirmed bool, err error) {
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if user.Confirmed {
		return true, nil
	}
	s.sendConfirmation(ctx, user, baseURL)
	return false, nil
}

// ResetPassword overwrites the stored password hash.  The account does not
// need to be confirmed; the two supplied values must match.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword, confirmPassword string) error {
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUnknownPrincipal
		}
		return err
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	hash, err := utils.HashPassword(newPassword, s.Cfg.BcryptCost)
	if err != nil {
		return err
	}
	return s.Users.UpdatePassword(ctx, user.ID, hash)
}

// Logout revokes the principal's current access token with reason "logout".
func (s *AuthService) Logout(ctx context.Context, user model.User) error {
	return s.ban(ctx, user, model.ReasonLogout)
}

// Ban revokes the principal's current access token with the supplied reason.
// Any reason other than "logout" is an administrative ban and additionally
// asks the external media host to purge the user's stored images.
func (s *AuthService) Ban(ctx context.Context, user model.User, reason string) error {
	return s.ban(ctx, user, reason)
}

func (s *AuthService) ban(ctx context.Context, user model.User, reason string) error {
	if reason != model.ReasonLogout {
		event := queue.MediaPurgeEvent{
			UserID:      user.ID,
			Username:    user.Username,
			Reason:      reason,
			RequestedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.Events.PublishMediaPurge(ctx, event); err != nil {
			log.Printf("auth: media purge event for user %d not published: %v", user.ID, err)
		}
	}
	if user.AccessToken == "" {
		// Nothing to revoke: the account holds no live token.
		return nil
	}
	return s.RecordRevocation(ctx, user.AccessToken, reason)
}

// RecordRevocation appends a ledger entry for the token and drops the cache
// snapshot so the revocation is visible to the very next request.
func (s *AuthService) RecordRevocation(ctx context.Context, accessToken, reason string) error {
	if err := s.Bans.Add(ctx, accessToken, reason); err != nil {
		return err
	}
	s.Banned.Invalidate(ctx)
	return nil
}

// IsRevoked reports whether the token has a ledger entry.  Diagnostics only;
// the request path consults the cache instead.
func (s *AuthService) IsRevoked(ctx context.Context, accessToken string) (bool, error) {
	return s.Bans.Exists(ctx, accessToken)
}

// IssueConfirmationToken mints the medium-lived single-purpose token carried
// by the confirmation email link.
func (s *AuthService) IssueConfirmationToken(email string) (string, error) {
	return utils.IssueToken(s.Cfg.JWTSecret, utils.KindConfirm, email, s.Cfg.ConfirmTTL())
}

// issuePair mints and stores a fresh access/refresh pair for the user.
func (s *AuthService) issuePair(ctx context.Context, user model.User) (TokenPair, error) {
	access, err := utils.IssueToken(s.Cfg.JWTSecret, utils.KindAccess, user.Email, s.Cfg.AccessTTL())
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.IssueToken(s.Cfg.JWTSecret, utils.KindRefresh, user.Email, s.Cfg.RefreshTTL())
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.Users.UpdateTokens(ctx, user.ID, access, refresh); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: TokenType}, nil
}

// sendConfirmation mints a confirmation token and publishes the email event.
// Failures are logged, never fatal to the calling flow.
func (s *AuthService) sendConfirmation(ctx context.Context, user model.User, baseURL string) {
	token, err := s.IssueConfirmationToken(user.Email)
	if err != nil {
		log.Printf("auth: issue confirmation token for %s failed: %v", user.Email, err)
		return
	}
	event := queue.EmailConfirmationEvent{
		Email:       user.Email,
		Username:    user.Username,
		Token:       token,
		BaseURL:     baseURL,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Events.PublishEmailConfirmation(ctx, event); err != nil {
		log.Printf("auth: confirmation email event for %s not published: %v", user.Email, err)
	}
}
