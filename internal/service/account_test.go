package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/iliyamo/presenter-booking/internal/identity"
	"github.com/iliyamo/presenter-booking/internal/model"
	"github.com/iliyamo/presenter-booking/internal/utils"
)

type AccountSuite struct {
	suite.Suite
	f *fixture
}

func TestAccountSuite(t *testing.T) {
	suite.Run(t, new(AccountSuite))
}

func (s *AccountSuite) SetupTest() {
	s.f = newFixture(s.T())
}

func (s *AccountSuite) TestRegisterAccountValidation() {
	res, err := s.f.accounts.RegisterAccount(s.f.ctx, SignUp{
		FirstName: " ", Email: "not-an-email", Password: "123", ConfirmPassword: "1234",
	})
	s.Require().ErrorIs(err, ErrValidation)
	for _, field := range []string{"first_name", "last_name", "email", "password", "confirm_password"} {
		s.NotEmpty(res.Errors[field], field)
	}
	n, err := s.f.store.Users.Count(s.f.ctx)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *AccountSuite) TestRegisterAccountEstablishesSession() {
	res, err := s.f.accounts.RegisterAccount(s.f.ctx, SignUp{
		FirstName: "Ada", LastName: "Lovelace", Email: " Ada@Example.com ", Password: "secret1",
	})
	s.Require().NoError(err)
	s.Equal("ada@example.com", res.Entity.User.Email)
	s.Equal(model.RoleUser, res.Entity.User.Role)

	claims, err := utils.ParseAccessToken("test-secret", res.Entity.Access.Token)
	s.Require().NoError(err)
	s.Equal(model.RoleUser, claims.Role)

	_, err = s.f.accounts.RegisterAccount(s.f.ctx, SignUp{
		FirstName: "Ada", LastName: "Again", Email: "ada@example.com", Password: "secret1",
	})
	s.Require().ErrorIs(err, ErrIdentity)
}

func (s *AccountSuite) TestSignInOutcomes() {
	s.f.user(s.T(), "ada@example.com")

	res, err := s.f.accounts.SignIn(s.f.ctx, "ada@example.com", "secret1", true)
	s.Require().NoError(err)
	s.Equal(identity.Success, res.Outcome)
	s.Require().NotNil(res.Session)
	s.True(res.Session.Persistent)

	res, err = s.f.accounts.SignIn(s.f.ctx, "nobody@example.com", "secret1", false)
	s.Require().NoError(err)
	s.Equal(identity.InvalidCredentials, res.Outcome)
	s.Nil(res.Session)
	unknownMsg := res.Message

	res, err = s.f.accounts.SignIn(s.f.ctx, "ada@example.com", "wrong", false)
	s.Require().NoError(err)
	s.Equal(identity.InvalidCredentials, res.Outcome)
	s.Equal(unknownMsg, res.Message)

	for i := 0; i < 2; i++ {
		res, err = s.f.accounts.SignIn(s.f.ctx, "ada@example.com", "wrong", false)
		s.Require().NoError(err)
	}
	s.Equal(identity.LockedOut, res.Outcome)
}

func (s *AccountSuite) TestSignOut() {
	p := s.f.user(s.T(), "ada@example.com")
	in, err := s.f.accounts.SignIn(s.f.ctx, "ada@example.com", "secret1", false)
	s.Require().NoError(err)

	s.Require().NoError(s.f.accounts.SignOut(s.f.ctx, p, in.Session.Refresh.Raw))
	_, err = s.f.accounts.RefreshSession(s.f.ctx, in.Session.Refresh.Raw)
	s.ErrorIs(err, ErrUnauthenticated)

	s.ErrorIs(s.f.accounts.SignOut(s.f.ctx, model.Principal{}, ""), ErrUnauthenticated)
}

func (s *AccountSuite) TestProfile() {
	p := s.f.user(s.T(), "ada@example.com")
	u, err := s.f.accounts.Profile(s.f.ctx, p)
	s.Require().NoError(err)
	s.Equal("ada@example.com", u.Email)

	_, err = s.f.accounts.Profile(s.f.ctx, model.Principal{})
	s.ErrorIs(err, ErrUnauthenticated)
}

func (s *AccountSuite) TestUpdateProfileReplacesPicture() {
	p := s.f.user(s.T(), "ada@example.com")
	s.f.accounts.newName = func(uint64, string) string { return "first.png" }
	res, err := s.f.accounts.UpdateProfile(s.f.ctx, p, ProfileUpdate{
		UserID: p.UserID, FirstName: "Ada", LastName: "Lovelace",
		Picture: &Picture{Filename: "me.PNG", Data: []byte("one")},
	})
	s.Require().NoError(err)
	s.Require().NotNil(res.Entity.ProfilePictureURL)
	s.Equal("/uploads/first.png", *res.Entity.ProfilePictureURL)

	s.f.accounts.newName = func(uint64, string) string { return "second.png" }
	email := "ada.l@example.com"
	res, err = s.f.accounts.UpdateProfile(s.f.ctx, p, ProfileUpdate{
		UserID: p.UserID, FirstName: "Ada", LastName: "King", Phone: "+44 20 7946 0000", Email: &email,
		Picture: &Picture{Filename: "me.png", Data: []byte("two")},
	})
	s.Require().NoError(err)
	s.False(s.f.files.has("/uploads/first.png"))
	s.True(s.f.files.has("/uploads/second.png"))

	u, err := s.f.accounts.Profile(s.f.ctx, p)
	s.Require().NoError(err)
	s.Equal("ada.l@example.com", u.Email)
	s.Equal("King", u.LastName)
	s.Equal("/uploads/second.png", *u.ProfilePictureURL)
}

func (s *AccountSuite) TestUpdateProfileTakenEmailWritesNothing() {
	p := s.f.user(s.T(), "ada@example.com")
	s.f.user(s.T(), "bob@example.com")
	email := "bob@example.com"

	res, err := s.f.accounts.UpdateProfile(s.f.ctx, p, ProfileUpdate{
		UserID: p.UserID, FirstName: "Ada", LastName: "Lovelace", Email: &email,
		Picture: &Picture{Filename: "me.png", Data: []byte("x")},
	})
	s.Require().ErrorIs(err, ErrIdentity)
	s.NotEmpty(res.Errors["email"])
	s.Empty(s.f.files.files)

	u, err := s.f.accounts.Profile(s.f.ctx, p)
	s.Require().NoError(err)
	s.Nil(u.ProfilePictureURL)
	s.Equal("ada@example.com", u.Email)
}

func (s *AccountSuite) TestUpdateProfileRemovesNewPictureWhenSaveFails() {
	p := s.f.user(s.T(), "ada@example.com")
	failing := &failingIdentity{Service: s.f.ident, saveErr: errBoom}
	acc := NewAccountService(failing, s.f.files, nil)

	_, err := acc.UpdateProfile(s.f.ctx, p, ProfileUpdate{
		UserID: p.UserID, FirstName: "Ada", LastName: "Lovelace",
		Picture: &Picture{Filename: "me.jpg", Data: []byte("x")},
	})
	s.Require().ErrorIs(err, ErrStorageUnavailable)
	s.Empty(s.f.files.files)
}

func (s *AccountSuite) TestUpdateProfileRules() {
	p := s.f.user(s.T(), "ada@example.com")
	other := s.f.user(s.T(), "bob@example.com")

	_, err := s.f.accounts.UpdateProfile(s.f.ctx, p, ProfileUpdate{UserID: other.UserID, FirstName: "X", LastName: "Y"})
	s.ErrorIs(err, ErrForbidden)

	_, err = s.f.accounts.UpdateProfile(s.f.ctx, model.Principal{}, ProfileUpdate{UserID: p.UserID})
	s.ErrorIs(err, ErrUnauthenticated)

	res, err := s.f.accounts.UpdateProfile(s.f.ctx, p, ProfileUpdate{
		UserID: p.UserID, FirstName: "", LastName: "Y", Phone: "call me",
		Picture: &Picture{Filename: "virus.exe", Data: []byte("x")},
	})
	s.Require().ErrorIs(err, ErrValidation)
	s.NotEmpty(res.Errors["first_name"])
	s.NotEmpty(res.Errors["phone"])
	s.NotEmpty(res.Errors["picture"])
	s.Empty(s.f.files.files)
}

func (s *AccountSuite) TestAccountLengthLimits() {
	long := strings.Repeat("x", 101)
	email := strings.Repeat("a", 250) + "@example.com"

	res, err := s.f.accounts.RegisterAccount(s.f.ctx, SignUp{
		FirstName: long, LastName: long, Email: email, Password: "secret1",
	})
	s.Require().ErrorIs(err, ErrValidation)
	s.Contains(res.Errors["first_name"], "First name may not be longer than 100 characters.")
	s.Contains(res.Errors["last_name"], "Last name may not be longer than 100 characters.")
	s.Contains(res.Errors["email"], "Email may not be longer than 255 characters.")

	p := s.f.user(s.T(), "ada@example.com")
	up, err := s.f.accounts.UpdateProfile(s.f.ctx, p, ProfileUpdate{
		UserID: p.UserID, FirstName: long, LastName: "Lovelace", Phone: strings.Repeat("1", 33),
	})
	s.Require().ErrorIs(err, ErrValidation)
	s.Contains(up.Errors["first_name"], "First name may not be longer than 100 characters.")
	s.Contains(up.Errors["phone"], "Phone number may not be longer than 32 characters.")
}

func TestSignInWithEmptyFields(t *testing.T) {
	f := newFixture(t)
	res, err := f.accounts.SignIn(f.ctx, "", "", false)
	require.NoError(t, err)
	assert.Equal(t, identity.InvalidCredentials, res.Outcome)
}
