package service

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/presenter-booking/internal/model"
)

func TestPresenterCreateWithUnknownRole(t *testing.T) {
	f := newFixture(t)

	res, err := f.presenters.Create(f.ctx, model.Presenter{Code: "P001", Name: "Jean", RoleCode: "NOPE"})
	require.ErrorIs(t, err, ErrValidation)
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "P001", res.Entity.Code)
	assert.NotEmpty(t, res.Errors["role_code"])

	_, err = f.presenters.Detail(f.ctx, "P001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNumberDurationBoundaries(t *testing.T) {
	f := newFixture(t)
	f.catalog(t)

	cases := map[int]bool{0: false, 1: true, 120: true, 121: false}
	i := 0
	for d, ok := range cases {
		i++
		code := "D" + string(rune('0'+i))
		_, err := f.numbers.Create(f.ctx, model.Number{
			Code: code, Title: "Act", DurationMinutes: d, PresenterCode: "P001",
			ShowDateTime: time.Now().Add(time.Hour),
		})
		if ok {
			assert.NoError(t, err, "duration %d", d)
		} else {
			assert.ErrorIs(t, err, ErrValidation, "duration %d", d)
		}
	}
}

func TestDuplicateNumberCodeIsConflict(t *testing.T) {
	f := newFixture(t)
	f.catalog(t)
	before, err := f.numbers.Detail(f.ctx, "N1")
	require.NoError(t, err)

	res, err := f.numbers.Create(f.ctx, model.Number{
		Code: "N1", Title: "Other", DurationMinutes: 45, PresenterCode: "P001",
		ShowDateTime: time.Now().Add(48 * time.Hour),
	})
	require.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotEmpty(t, res.Errors["code"])

	after, err := f.numbers.Detail(f.ctx, "N1")
	require.NoError(t, err)
	assert.Equal(t, before.Title, after.Title)
	assert.Equal(t, before.DurationMinutes, after.DurationMinutes)
}

func TestRoleDeleteBlockedWhileReferenced(t *testing.T) {
	f := newFixture(t)
	f.catalog(t)

	preview, err := f.roles.DeletePreview(f.ctx, "CLW")
	require.NoError(t, err)
	assert.False(t, preview.Allowed)
	assert.Equal(t, 1, preview.Dependents)

	_, err = f.roles.Delete(f.ctx, "CLW")
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Reason, "CLW")

	_, err = f.roles.Detail(f.ctx, "CLW")
	assert.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.AdminWrites.WithLabelValues("role", "delete", "rejected")))
}

func TestPresenterDeleteGuardAndSuccess(t *testing.T) {
	f := newFixture(t)
	f.catalog(t)

	_, err := f.presenters.Delete(f.ctx, "P001")
	require.ErrorIs(t, err, ErrConflict)

	_, err = f.numbers.Delete(f.ctx, "N1")
	require.NoError(t, err)

	res, err := f.presenters.Delete(f.ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, "Presenter P001 was deleted.", res.Message)

	res2, err := f.roles.Delete(f.ctx, "CLW")
	require.NoError(t, err)
	assert.Equal(t, "CLW", res2.Entity.Code)
}

func TestNumberDeleteCascadesRegistrations(t *testing.T) {
	f := newFixture(t)
	f.catalog(t)
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")
	for _, p := range []model.Principal{a, b} {
		_, err := f.registrations.Register(f.ctx, p, "N1")
		require.NoError(t, err)
	}

	preview, err := f.numbers.DeletePreview(f.ctx, "N1")
	require.NoError(t, err)
	assert.True(t, preview.Allowed)
	assert.Equal(t, 2, preview.Dependents)

	_, err = f.numbers.Delete(f.ctx, "N1")
	require.NoError(t, err)
	assert.Equal(t, 0, f.store.Registrations.Len())

	_, err = f.numbers.Delete(f.ctx, "N1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRules(t *testing.T) {
	f := newFixture(t)
	f.catalog(t)

	t.Run("code mismatch", func(t *testing.T) {
		_, err := f.roles.Update(f.ctx, "CLW", model.Role{Code: "JUG", Label: "Juggler"})
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("no uniqueness check on update", func(t *testing.T) {
		res, err := f.roles.Update(f.ctx, "CLW", model.Role{Code: "CLW", Label: "Clown deluxe", PriceCents: 20000})
		require.NoError(t, err)
		assert.Equal(t, "Role CLW was updated.", res.Message)
		r, err := f.roles.Detail(f.ctx, "CLW")
		require.NoError(t, err)
		assert.Equal(t, int64(20000), r.PriceCents)
	})

	t.Run("vanished row", func(t *testing.T) {
		_, err := f.roles.Update(f.ctx, "GONE", model.Role{Code: "GONE", Label: "Gone"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("presenter moved to unknown role", func(t *testing.T) {
		res, err := f.presenters.Update(f.ctx, "P001", model.Presenter{Code: "P001", Name: "Jean", RoleCode: "NOPE"})
		require.ErrorIs(t, err, ErrValidation)
		assert.NotEmpty(t, res.Errors["role_code"])
	})
}

func TestDetailOfBlankCode(t *testing.T) {
	f := newFixture(t)
	_, err := f.roles.Detail(f.ctx, "  ")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.presenters.Detail(f.ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.numbers.Detail(f.ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPresenterOptions(t *testing.T) {
	f := newFixture(t)
	res, err := f.presenters.Options(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Entity)
	assert.NotEmpty(t, res.Message)

	f.catalog(t)
	res, err = f.presenters.Options(f.ctx)
	require.NoError(t, err)
	require.Len(t, res.Entity, 1)
	assert.Equal(t, "Clown", res.Entity[0].Role.Label)
	assert.Empty(t, res.Message)
}

func TestNumberListResolvesRelations(t *testing.T) {
	f := newFixture(t)
	f.catalog(t)
	f.number(t, "N0", "Earlier", time.Hour)

	list, err := f.numbers.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "N0", list[0].Code)
	assert.Equal(t, "Jean", list[1].Presenter.Name)
	assert.Equal(t, "CLW", list[1].Presenter.Role.Code)
}
