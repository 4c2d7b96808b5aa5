package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/presenter-booking/internal/model"
)

func TestHomeSplitsAndOrders(t *testing.T) {
	f := newFixture(t)
	f.catalog(t)
	f.number(t, "U2", "Later", 72*time.Hour)
	f.number(t, "P1", "Last week", -7*24*time.Hour)
	f.number(t, "P2", "Yesterday", -24*time.Hour)

	home, err := f.showcase.Home(f.ctx, model.Principal{})
	require.NoError(t, err)

	var up, past []string
	for _, c := range home.Upcoming {
		up = append(up, c.Code)
		assert.False(t, c.Registered)
	}
	for _, c := range home.Past {
		past = append(past, c.Code)
	}
	assert.Equal(t, []string{"N1", "U2"}, up)
	assert.Equal(t, []string{"P2", "P1"}, past)
}

func TestShowcaseNumberDetail(t *testing.T) {
	f := newFixture(t)
	f.catalog(t)

	n, err := f.showcase.Number(f.ctx, "N1")
	require.NoError(t, err)
	assert.Equal(t, "Jean", n.Presenter.Name)

	_, err = f.showcase.Number(f.ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	f.catalog(t)
	for i, code := range []string{"A1", "A2", "A3", "A4", "A5"} {
		f.number(t, code, "Act", time.Duration(i+2)*24*time.Hour)
	}
	f.number(t, "OLD", "Old", -time.Hour)
	a := f.user(t, "a@example.com")
	_, err := f.registrations.Register(f.ctx, a, "N1")
	require.NoError(t, err)

	d, err := f.dashboard.Dashboard(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Numbers: 7, Presenters: 1, Roles: 1, Users: 1}, d.Counts)
	require.Len(t, d.UpcomingNumbers, 5)
	assert.Equal(t, "N1", d.UpcomingNumbers[0].Code)
	require.Len(t, d.RecentRegistrations, 1)
	assert.Equal(t, "a@example.com", d.RecentRegistrations[0].User.Email)

	users, err := f.dashboard.Users(f.ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	detail, err := f.dashboard.UserDetail(f.ctx, a.UserID)
	require.NoError(t, err)
	assert.Len(t, detail.Registrations, 1)

	_, err = f.dashboard.UserDetail(f.ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
