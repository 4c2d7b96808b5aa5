package validation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/iliyamo/presenter-booking/internal/model"
	"github.com/iliyamo/presenter-booking/internal/repository"
)

type ValidatorSuite struct {
	suite.Suite
	ctx   context.Context
	store *repository.Memory
	v     *Validator
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = repository.NewMemory()
	s.v = New(s.store.Roles, s.store.Presenters, s.store.Numbers,
		s.store.Presenters.CountByRole, s.store.Numbers.CountByPresenter)
	s.Require().NoError(s.store.Roles.Create(s.ctx, &model.Role{Code: "CLW", Label: "Clown", PriceCents: 15000}))
	s.Require().NoError(s.store.Presenters.Create(s.ctx, &model.Presenter{Code: "P001", Name: "Jean", RoleCode: "CLW"}))
}

func (s *ValidatorSuite) number(duration int) model.Number {
	return model.Number{
		Code:            "N1",
		Title:           "Show",
		DurationMinutes: duration,
		PresenterCode:   "P001",
		ShowDateTime:    time.Now().Add(24 * time.Hour),
	}
}

func (s *ValidatorSuite) TestRequiredFields() {
	s.Run("whitespace-only strings are violations", func() {
		rep, err := s.v.Role(s.ctx, model.Role{Code: "  ", Label: "\t"}, Create)
		s.Require().NoError(err)
		s.False(rep.OK())
		s.True(rep.Fields.Has("code"))
		s.True(rep.Fields.Has("label"))
	})

	s.Run("negative price is rejected", func() {
		rep, err := s.v.Role(s.ctx, model.Role{Code: "JON", Label: "Juggler", PriceCents: -1}, Create)
		s.Require().NoError(err)
		s.True(rep.Fields.Has("price"))
	})

	s.Run("number without date is rejected", func() {
		n := s.number(30)
		n.ShowDateTime = time.Time{}
		rep, err := s.v.Number(s.ctx, n, Create)
		s.Require().NoError(err)
		s.True(rep.Fields.Has("show_date_time"))
	})
}

func (s *ValidatorSuite) TestDurationBoundaries() {
	for _, d := range []int{1, 30, 120} {
		rep, err := s.v.Number(s.ctx, s.number(d), Create)
		s.Require().NoError(err)
		s.True(rep.OK(), "duration %d should be accepted", d)
	}
	for _, d := range []int{-5, 0, 121, 500} {
		rep, err := s.v.Number(s.ctx, s.number(d), Create)
		s.Require().NoError(err)
		s.True(rep.Fields.Has("duration_minutes"), "duration %d should be rejected", d)
	}
}

func (s *ValidatorSuite) TestReferentialExistence() {
	s.Run("unknown role is attached to role_code", func() {
		rep, err := s.v.Presenter(s.ctx, model.Presenter{Code: "P002", Name: "Marie", RoleCode: "NOPE"}, Create)
		s.Require().NoError(err)
		s.Equal([]string{"The selected role does not exist."}, rep.Fields["role_code"])
		s.False(rep.Fields.Has("code"))
	})

	s.Run("unknown presenter is attached to presenter_code", func() {
		n := s.number(30)
		n.PresenterCode = "P999"
		rep, err := s.v.Number(s.ctx, n, Update)
		s.Require().NoError(err)
		s.True(rep.Fields.Has("presenter_code"))
	})
}

func (s *ValidatorSuite) TestUniquenessOnlyOnCreate() {
	rep, err := s.v.Presenter(s.ctx, model.Presenter{Code: "P001", Name: "Jean", RoleCode: "CLW"}, Create)
	s.Require().NoError(err)
	s.True(rep.Duplicate)
	s.True(rep.Fields.Has("code"))

	rep, err = s.v.Presenter(s.ctx, model.Presenter{Code: "P001", Name: "Jean R.", RoleCode: "CLW"}, Update)
	s.Require().NoError(err)
	s.True(rep.OK())
	s.False(rep.Duplicate)
}

func (s *ValidatorSuite) TestDeleteGuards() {
	g, err := s.v.RoleDelete(s.ctx, "CLW")
	s.Require().NoError(err)
	s.False(g.Allowed())
	s.Equal(1, g.Dependents)
	s.Contains(g.Reason, "1 presenter")

	g, err = s.v.PresenterDelete(s.ctx, "P001")
	s.Require().NoError(err)
	s.True(g.Allowed())
}

func (s *ValidatorSuite) TestLengthLimits() {
	long := func(n int) string { return strings.Repeat("é", n) }

	s.Run("role columns", func() {
		rep, err := s.v.Role(s.ctx, model.Role{Code: long(MaxCodeLen + 1), Label: long(MaxLabelLen + 1)}, Create)
		s.Require().NoError(err)
		s.Contains(rep.Fields["code"], "Code may not be longer than 32 characters.")
		s.Contains(rep.Fields["label"], "Label may not be longer than 100 characters.")
	})

	s.Run("limits count characters, not bytes", func() {
		rep, err := s.v.Role(s.ctx, model.Role{Code: long(MaxCodeLen), Label: long(MaxLabelLen)}, Create)
		s.Require().NoError(err)
		s.True(rep.OK())
	})

	s.Run("presenter columns", func() {
		rep, err := s.v.Presenter(s.ctx, model.Presenter{
			Code: long(MaxCodeLen + 1), Name: long(MaxNameLen + 1), RoleCode: long(MaxCodeLen + 1),
		}, Create)
		s.Require().NoError(err)
		s.True(rep.Fields.Has("code"))
		s.Contains(rep.Fields["name"], "Name may not be longer than 150 characters.")
		s.True(rep.Fields.Has("role_code"))

		rep, err = s.v.Presenter(s.ctx, model.Presenter{Code: "P002", Name: long(MaxNameLen), RoleCode: "CLW"}, Create)
		s.Require().NoError(err)
		s.True(rep.OK())
	})

	s.Run("number columns", func() {
		n := s.number(30)
		n.Code = long(MaxCodeLen + 1)
		n.Title = long(MaxTitleLen + 1)
		n.PresenterCode = long(MaxCodeLen + 1)
		rep, err := s.v.Number(s.ctx, n, Create)
		s.Require().NoError(err)
		s.True(rep.Fields.Has("code"))
		s.Contains(rep.Fields["title"], "Title may not be longer than 200 characters.")
		s.True(rep.Fields.Has("presenter_code"))

		n = s.number(30)
		n.Title = long(MaxTitleLen)
		rep, err = s.v.Number(s.ctx, n, Create)
		s.Require().NoError(err)
		s.True(rep.OK())
	})
}
