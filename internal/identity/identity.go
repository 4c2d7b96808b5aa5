// Package identity owns credentials and sessions: account creation, password
// checks with lockout, role assignment and the JWT/refresh token pair handed
// to clients.  Profile workflows reach it through a narrow interface.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/presenter-booking/internal/model"
	"github.com/iliyamo/presenter-booking/internal/repository"
	"github.com/iliyamo/presenter-booking/internal/utils"
)

var (
	// ErrEmailTaken is returned when another account already uses the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUnknownUser is returned when the account does not exist.
	ErrUnknownUser = errors.New("unknown user")
	// ErrInvalidSession is returned for unknown, revoked or expired refresh tokens.
	ErrInvalidSession = errors.New("invalid session")
)

// Outcome of a sign-in attempt.
type Outcome string

const (
	Success            Outcome = "success"
	LockedOut          Outcome = "locked_out"
	InvalidCredentials Outcome = "invalid_credentials"
)

// Users is the account storage used by the service.
type Users interface {
	Create(ctx context.Context, u *model.User, password string, cost int) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	SetRole(ctx context.Context, id uint64, role string) error
	RecordSignInFailure(ctx context.Context, id uint64, attempts int, lockedUntil *time.Time) error
	ResetSignInFailures(ctx context.Context, id uint64) error
	UpdateProfile(ctx context.Context, u *model.User) error
}

// Tokens stores hashed refresh tokens.
type Tokens interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time, persistent bool) error
	ValidateRefresh(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	// RevokeByHash revokes a live token; repository.ErrNotFound means it
	// was unknown or already revoked.
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// Config carries token lifetimes, hashing cost and lockout policy.
//
// SessionTTL bounds the refresh token of a sign-in without "remember me";
// RefreshTTL is used when the client asked to be remembered.
type Config struct {
	JWTSecret       string
	AccessTTLMin    int
	RefreshTTL      time.Duration
	SessionTTL      time.Duration
	BcryptCost      int
	MaxFailures     int
	LockoutDuration time.Duration
}

// Session is an established sign-in.
type Session struct {
	User       model.User
	Access     utils.AccessToken
	Refresh    utils.RefreshToken
	Persistent bool
}

// Service implements the identity operations.
type Service struct {
	users  Users
	tokens Tokens
	cfg    Config
	now    func() time.Time
}

// New builds a Service.  Zero lockout settings fall back to five failures
// and five minutes.
func New(users Users, tokens Tokens, cfg Config) *Service {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 5 * time.Minute
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Service{users: users, tokens: tokens, cfg: cfg, now: time.Now}
}

// CreateAccount stores a new account without any role.  The email is
// normalized to lower case.
func (s *Service) CreateAccount(ctx context.Context, u model.User, password string) (model.User, error) {
	u.ID = 0
	u.Role = ""
	if err := s.users.Create(ctx, &u, password, s.cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, err
	}
	return u, nil
}

// AssignRole sets the account role.
func (s *Service) AssignRole(ctx context.Context, userID uint64, role string) error {
	return s.mapUser(s.users.SetRole(ctx, userID, role))
}

// Authenticate checks the password and applies the lockout policy.  Unknown
// emails and wrong passwords are both reported as InvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (model.User, Outcome, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, InvalidCredentials, nil
	}
	if err != nil {
		return model.User{}, "", err
	}

	now := s.now().UTC()
	if u.LockedUntil != nil && now.Before(*u.LockedUntil) {
		return model.User{}, LockedOut, nil
	}

	if !utils.VerifyPassword(u.PasswordHash, password) {
		attempts := u.FailedAttempts + 1
		if u.LockedUntil != nil {
			// previous lockout has expired, start a fresh window
			attempts = 1
		}
		var until *time.Time
		if attempts >= s.cfg.MaxFailures {
			t := now.Add(s.cfg.LockoutDuration)
			until = &t
		}
		if err := s.users.RecordSignInFailure(ctx, u.ID, attempts, until); err != nil {
			return model.User{}, "", err
		}
		if until != nil {
			return model.User{}, LockedOut, nil
		}
		return model.User{}, InvalidCredentials, nil
	}

	if err := s.users.ResetSignInFailures(ctx, u.ID); err != nil {
		return model.User{}, "", err
	}
	u.FailedAttempts, u.LockedUntil = 0, nil
	return u, Success, nil
}

// EstablishSession issues an access token and stores a new refresh token.
func (s *Service) EstablishSession(ctx context.Context, u model.User, rememberMe bool) (Session, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return Session{}, err
	}
	ttl := s.cfg.SessionTTL
	if rememberMe {
		ttl = s.cfg.RefreshTTL
	}
	refresh, err := utils.NewRefreshToken(ttl)
	if err != nil {
		return Session{}, err
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp, rememberMe); err != nil {
		return Session{}, err
	}
	return Session{User: u, Access: access, Refresh: refresh, Persistent: rememberMe}, nil
}

// Refresh rotates a refresh token: the old one is revoked and a new pair is
// issued with the same lifetime class.  Only the caller whose revoke lands
// gets a session, so a token cannot be rotated twice.
func (s *Service) Refresh(ctx context.Context, raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, ErrInvalidSession
	}
	hash := utils.HashRefreshRaw(raw)
	tok, err := s.tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidSession
	}
	if err != nil {
		return Session{}, err
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrInvalidSession
		}
		return Session{}, err
	}
	u, err := s.FindUser(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, ErrUnknownUser) {
			return Session{}, ErrInvalidSession
		}
		return Session{}, err
	}
	return s.EstablishSession(ctx, u, tok.Persistent)
}

// EndSession revokes one refresh token, or every token of the user when raw
// is empty.  A token belonging to somebody else is ignored.
func (s *Service) EndSession(ctx context.Context, userID uint64, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.tokens.RevokeAllForUser(ctx, userID)
	}
	hash := utils.HashRefreshRaw(raw)
	tok, err := s.tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if tok.UserID != userID {
		return nil
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// EmailAvailable reports whether email is free or already owned by exceptID.
func (s *Service) EmailAvailable(ctx context.Context, email string, exceptID uint64) (bool, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return u.ID == exceptID, nil
}

// FindUser loads an account by id.
func (s *Service) FindUser(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, s.mapUser(err)
	}
	return u, nil
}

// SaveProfile writes the profile columns and login email in one update.
func (s *Service) SaveProfile(ctx context.Context, u *model.User) error {
	err := s.users.UpdateProfile(ctx, u)
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrEmailTaken
	}
	return s.mapUser(err)
}

func (s *Service) mapUser(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUnknownUser
	}
	return err
}
