package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/presenter-booking/internal/model"
	"github.com/iliyamo/presenter-booking/internal/repository"
)

// danglingNumbers serves the stored numbers plus two whose relations did
// not resolve: one without a presenter, one whose presenter lost its role.
type danglingNumbers struct {
	*repository.MemoryNumberRepo
}

func danglingSet() []model.Number {
	at := time.Now().Add(48 * time.Hour).UTC()
	return []model.Number{
		{Code: "NOP", Title: "No presenter", DurationMinutes: 30, PresenterCode: "GONE", ShowDateTime: at},
		{Code: "NOR", Title: "No role", DurationMinutes: 30, PresenterCode: "P002", ShowDateTime: at,
			Presenter: &model.Presenter{Code: "P002", Name: "Orphan", RoleCode: "GONE"}},
	}
}

func (d danglingNumbers) List(ctx context.Context) ([]model.Number, error) {
	all, err := d.MemoryNumberRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return append(all, danglingSet()...), nil
}

func (d danglingNumbers) GetByCode(ctx context.Context, code string) (*model.Number, error) {
	for _, n := range danglingSet() {
		if n.Code == code {
			return &n, nil
		}
	}
	return d.MemoryNumberRepo.GetByCode(ctx, code)
}

// danglingRegistrations adds registrations pointing at unresolved numbers.
type danglingRegistrations struct {
	*repository.MemoryRegistrationRepo
}

func (d danglingRegistrations) ListByUser(ctx context.Context, userID uint64) ([]model.Registration, error) {
	regs, err := d.MemoryRegistrationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := danglingSet()
	return append(regs,
		model.Registration{ID: "r-missing", UserID: userID, NumberCode: "GONE"},
		model.Registration{ID: "r-nop", UserID: userID, NumberCode: "NOP", Number: &set[0]},
		model.Registration{ID: "r-nor", UserID: userID, NumberCode: "NOR", Number: &set[1]},
	), nil
}

func codesOf(ns []model.Number) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Code)
	}
	return out
}

func TestDanglingNumbersAreHidden(t *testing.T) {
	f := newFixture(t)
	f.catalog(t)
	numbers := danglingNumbers{f.store.Numbers}

	t.Run("admin list", func(t *testing.T) {
		list, err := NewNumberService(numbers, f.store.Registrations, nil, f.m).List(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"N1"}, codesOf(list))
	})

	t.Run("home", func(t *testing.T) {
		home, err := NewShowcaseService(numbers, f.store.Registrations).Home(f.ctx, model.Principal{})
		require.NoError(t, err)
		var codes []string
		for _, c := range append(home.Upcoming, home.Past...) {
			codes = append(codes, c.Code)
		}
		assert.Equal(t, []string{"N1"}, codes)
	})

	t.Run("public detail", func(t *testing.T) {
		sc := NewShowcaseService(numbers, f.store.Registrations)
		for _, code := range []string{"NOP", "NOR"} {
			_, err := sc.Number(f.ctx, code)
			assert.ErrorIs(t, err, ErrNotFound, code)
		}
		n, err := sc.Number(f.ctx, "N1")
		require.NoError(t, err)
		assert.Equal(t, "N1", n.Code)
	})

	t.Run("my registrations", func(t *testing.T) {
		p := f.user(t, "ada@example.com")
		_, err := f.registrations.Register(f.ctx, p, "N1")
		require.NoError(t, err)

		regs := NewRegistrationService(f.store.Numbers, danglingRegistrations{f.store.Registrations}, f.pub, f.m)
		mine, err := regs.MyRegistrations(f.ctx, p)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, "N1", mine[0].NumberCode)
	})
}

func TestReadsStampUpcoming(t *testing.T) {
	f := newFixture(t)
	f.catalog(t)
	f.number(t, "OLD", "Yesterday", -24*time.Hour)

	list, err := f.numbers.List(f.ctx)
	require.NoError(t, err)
	flags := map[string]bool{}
	for _, n := range list {
		flags[n.Code] = n.Upcoming
	}
	assert.Equal(t, map[string]bool{"N1": true, "OLD": false}, flags)

	n, err := f.numbers.Detail(f.ctx, "OLD")
	require.NoError(t, err)
	assert.False(t, n.Upcoming)

	n, err = f.showcase.Number(f.ctx, "N1")
	require.NoError(t, err)
	assert.True(t, n.Upcoming)

	home, err := f.showcase.Home(f.ctx, model.Principal{})
	require.NoError(t, err)
	require.Len(t, home.Upcoming, 1)
	require.Len(t, home.Past, 1)
	assert.True(t, home.Upcoming[0].Upcoming)
	assert.False(t, home.Past[0].Upcoming)

	p := f.user(t, "ada@example.com")
	_, err = f.registrations.Register(f.ctx, p, "N1")
	require.NoError(t, err)
	mine, err := f.registrations.MyRegistrations(f.ctx, p)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].Number.Upcoming)
}
