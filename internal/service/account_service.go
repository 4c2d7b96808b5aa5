package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	"github.com/iliyamo/presenter-booking/internal/identity"
	"github.com/iliyamo/presenter-booking/internal/metrics"
	"github.com/iliyamo/presenter-booking/internal/model"
	"github.com/iliyamo/presenter-booking/internal/utils"
	"github.com/iliyamo/presenter-booking/internal/validation"
)

// Identity is the credential and session collaborator.
type Identity interface {
	CreateAccount(ctx context.Context, u model.User, password string) (model.User, error)
	AssignRole(ctx context.Context, userID uint64, role string) error
	Authenticate(ctx context.Context, email, password string) (model.User, identity.Outcome, error)
	EstablishSession(ctx context.Context, u model.User, rememberMe bool) (identity.Session, error)
	Refresh(ctx context.Context, raw string) (identity.Session, error)
	EndSession(ctx context.Context, userID uint64, raw string) error
	EmailAvailable(ctx context.Context, email string, exceptID uint64) (bool, error)
	FindUser(ctx context.Context, id uint64) (model.User, error)
	SaveProfile(ctx context.Context, u *model.User) error
}

// SignUp is the account registration form.
type SignUp struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Picture is an uploaded profile picture.
type Picture struct {
	Filename string
	Data     []byte
}

// ProfileUpdate is the profile form.  A nil Email keeps the current login
// identifier; a nil Picture keeps the current picture.
type ProfileUpdate struct {
	UserID    uint64
	FirstName string
	LastName  string
	Phone     string
	Email     *string
	Picture   *Picture
}

// SignInResult is the outcome of a sign-in attempt.  Session is only set
// on success.
type SignInResult struct {
	Outcome identity.Outcome  `json:"outcome"`
	Session *identity.Session `json:"-"`
	Message string            `json:"message"`
}

var pictureExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// AccountService runs the sign-up, sign-in and profile workflows.
type AccountService struct {
	identity Identity
	files    FileStore
	metrics  *metrics.Metrics
	newName  func(userID uint64, ext string) string
}

func NewAccountService(id Identity, files FileStore, m *metrics.Metrics) *AccountService {
	return &AccountService{
		identity: id,
		files:    files,
		metrics:  m,
		newName: func(userID uint64, ext string) string {
			return fmt.Sprintf("%d_%s%s", userID, uuid.NewString(), ext)
		},
	}
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func nameLengths(errs validation.Errors, first, last string) {
	errs.MaxLen("first_name", "First name", first, validation.MaxFirstNameLen)
	errs.MaxLen("last_name", "Last name", last, validation.MaxLastNameLen)
}

// RegisterAccount creates an account with the User role and signs it in.
func (s *AccountService) RegisterAccount(ctx context.Context, in SignUp) (Result[identity.Session], error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)

	errs := validation.Errors{}
	if in.FirstName == "" {
		errs.Add("first_name", "First name is required.")
	}
	if in.LastName == "" {
		errs.Add("last_name", "Last name is required.")
	}
	switch {
	case in.Email == "":
		errs.Add("email", "Email is required.")
	case !govalidator.IsEmail(in.Email):
		errs.Add("email", "Email is not a valid address.")
	}
	nameLengths(errs, in.FirstName, in.LastName)
	errs.MaxLen("email", "Email", in.Email, validation.MaxEmailLen)
	if len(in.Password) < utils.MinPasswordLength {
		errs.Add("password", fmt.Sprintf("Password must be at least %d characters.", utils.MinPasswordLength))
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		errs.Add("confirm_password", "Passwords do not match.")
	}
	if len(errs) > 0 {
		return rejected(identity.Session{}, &ValidationError{Fields: errs})
	}

	u, err := s.identity.CreateAccount(ctx, model.User{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}, in.Password)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return rejected(identity.Session{}, &IdentityError{Fields: fieldError("email", "An account with this email already exists.")})
		}
		return Result[identity.Session]{}, storageFault("create account", err)
	}
	if err := s.identity.AssignRole(ctx, u.ID, model.RoleUser); err != nil {
		return Result[identity.Session]{}, storageFault("assign role", err)
	}
	u.Role = model.RoleUser

	sess, err := s.identity.EstablishSession(ctx, u, false)
	if err != nil {
		return Result[identity.Session]{}, storageFault("establish session", err)
	}
	return Result[identity.Session]{Entity: sess, Message: "Your account was created."}, nil
}

// SignIn authenticates and, on success, establishes a session.  Unknown
// emails and wrong passwords share one generic message.
func (s *AccountService) SignIn(ctx context.Context, email, password string, rememberMe bool) (SignInResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.SignIn(string(identity.InvalidCredentials))
		return SignInResult{Outcome: identity.InvalidCredentials, Message: "Invalid email or password."}, nil
	}
	u, outcome, err := s.identity.Authenticate(ctx, email, password)
	if err != nil {
		return SignInResult{}, storageFault("authenticate", err)
	}
	s.metrics.SignIn(string(outcome))
	switch outcome {
	case identity.LockedOut:
		return SignInResult{Outcome: outcome, Message: "This account is temporarily locked. Try again later."}, nil
	case identity.Success:
	default:
		return SignInResult{Outcome: identity.InvalidCredentials, Message: "Invalid email or password."}, nil
	}
	sess, err := s.identity.EstablishSession(ctx, u, rememberMe)
	if err != nil {
		return SignInResult{}, storageFault("establish session", err)
	}
	return SignInResult{Outcome: identity.Success, Session: &sess, Message: "Signed in."}, nil
}

// RefreshSession exchanges a refresh token for a new token pair.
func (s *AccountService) RefreshSession(ctx context.Context, raw string) (identity.Session, error) {
	sess, err := s.identity.Refresh(ctx, raw)
	if errors.Is(err, identity.ErrInvalidSession) {
		return identity.Session{}, ErrUnauthenticated
	}
	if err != nil {
		return identity.Session{}, storageFault("refresh session", err)
	}
	return sess, nil
}

// SignOut ends one session, or all sessions of the principal when no
// refresh token is given.
func (s *AccountService) SignOut(ctx context.Context, p model.Principal, refreshToken string) error {
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	if err := s.identity.EndSession(ctx, p.UserID, refreshToken); err != nil {
		return storageFault("end session", err)
	}
	return nil
}

// Profile returns the principal's own account.
func (s *AccountService) Profile(ctx context.Context, p model.Principal) (model.User, error) {
	if !p.Authenticated() {
		return model.User{}, ErrUnauthenticated
	}
	u, err := s.identity.FindUser(ctx, p.UserID)
	if errors.Is(err, identity.ErrUnknownUser) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, storageFault("find user", err)
	}
	return u, nil
}

// UpdateProfile validates the whole form, checks the new email, stores the
// new picture, then writes the profile and login email in one update.  If
// that write fails the new picture is removed; once it succeeds the old
// picture is removed on a best-effort basis.
func (s *AccountService) UpdateProfile(ctx context.Context, p model.Principal, in ProfileUpdate) (Result[model.User], error) {
	if !p.Authenticated() {
		return Result[model.User]{}, ErrUnauthenticated
	}
	if p.UserID != in.UserID {
		return Result[model.User]{}, ErrForbidden
	}

	cur, err := s.identity.FindUser(ctx, in.UserID)
	if errors.Is(err, identity.ErrUnknownUser) {
		return Result[model.User]{}, ErrNotFound
	}
	if err != nil {
		return Result[model.User]{}, storageFault("find user", err)
	}

	next := cur
	next.FirstName = strings.TrimSpace(in.FirstName)
	next.LastName = strings.TrimSpace(in.LastName)
	next.Phone = strings.TrimSpace(in.Phone)
	if in.Email != nil {
		next.Email = normalizeEmail(*in.Email)
	}

	errs := validation.Errors{}
	if next.FirstName == "" {
		errs.Add("first_name", "First name is required.")
	}
	if next.LastName == "" {
		errs.Add("last_name", "Last name is required.")
	}
	if next.Phone != "" && !govalidator.Matches(next.Phone, `^\+?[0-9 ().-]{6,20}$`) {
		errs.Add("phone", "Phone number is not valid.")
	}
	switch {
	case next.Email == "":
		errs.Add("email", "Email is required.")
	case !govalidator.IsEmail(next.Email):
		errs.Add("email", "Email is not a valid address.")
	}
	nameLengths(errs, next.FirstName, next.LastName)
	errs.MaxLen("email", "Email", next.Email, validation.MaxEmailLen)
	errs.MaxLen("phone", "Phone number", next.Phone, validation.MaxPhoneLen)
	var ext string
	if in.Picture != nil {
		ext = strings.ToLower(filepath.Ext(in.Picture.Filename))
		switch {
		case len(in.Picture.Data) == 0:
			errs.Add("picture", "The uploaded picture is empty.")
		case !pictureExtensions[ext]:
			errs.Add("picture", "Picture must be a JPG, PNG, GIF or WEBP image.")
		}
	}
	if len(errs) > 0 {
		return rejected(next, &ValidationError{Fields: errs})
	}

	if next.Email != cur.Email {
		free, err := s.identity.EmailAvailable(ctx, next.Email, cur.ID)
		if err != nil {
			return Result[model.User]{Entity: next}, storageFault("check email", err)
		}
		if !free {
			return rejected(next, &IdentityError{Fields: fieldError("email", "This email is already used by another account.")})
		}
	}

	var newPicture string
	if in.Picture != nil {
		newPicture, err = s.files.Save(in.Picture.Data, s.newName(cur.ID, ext))
		if err != nil {
			return Result[model.User]{Entity: next}, storageFault("save picture", err)
		}
		next.ProfilePictureURL = &newPicture
	}

	if err := s.identity.SaveProfile(ctx, &next); err != nil {
		if newPicture != "" {
			if derr := s.files.Delete(newPicture); derr != nil {
				log.Printf("profile: cleanup of %s failed: %v", newPicture, derr)
			}
		}
		switch {
		case errors.Is(err, identity.ErrEmailTaken):
			next.ProfilePictureURL = cur.ProfilePictureURL
			return rejected(next, &IdentityError{Fields: fieldError("email", "This email is already used by another account.")})
		case errors.Is(err, identity.ErrUnknownUser):
			return Result[model.User]{}, ErrNotFound
		}
		return Result[model.User]{Entity: cur}, storageFault("save profile", err)
	}

	if newPicture != "" && cur.ProfilePictureURL != nil && *cur.ProfilePictureURL != newPicture {
		if err := s.files.Delete(*cur.ProfilePictureURL); err != nil {
			log.Printf("profile: removing old picture %s failed: %v", *cur.ProfilePictureURL, err)
		}
	}
	s.metrics.ProfileUpdated()
	return Result[model.User]{Entity: next, Message: "Your profile was updated."}, nil
}
