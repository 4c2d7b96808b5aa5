package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/presenter-booking/internal/model"
	"github.com/iliyamo/presenter-booking/internal/repository"
)

const (
	dashboardUpcoming = 5
	dashboardRecent   = 10
)

// Counts are the totals shown on the dashboard.
type Counts struct {
	Numbers    int `json:"numbers"`
	Presenters int `json:"presenters"`
	Roles      int `json:"roles"`
	Users      int `json:"users"`
}

// Dashboard is the landing page of the admin console.
type Dashboard struct {
	Counts              Counts               `json:"counts"`
	UpcomingNumbers     []model.Number       `json:"upcoming_numbers"`
	RecentRegistrations []model.Registration `json:"recent_registrations"`
}

// UserDetail is one account with its registrations.
type UserDetail struct {
	User          model.User           `json:"user"`
	Registrations []model.Registration `json:"registrations"`
}

// DashboardService feeds the admin dashboard and the user pages.
type DashboardService struct {
	roles         RoleStore
	presenters    PresenterStore
	numbers       NumberStore
	registrations RegistrationStore
	users         UserDirectory
	now           func() time.Time
}

func NewDashboardService(roles RoleStore, presenters PresenterStore, numbers NumberStore,
	registrations RegistrationStore, users UserDirectory) *DashboardService {
	return &DashboardService{
		roles:         roles,
		presenters:    presenters,
		numbers:       numbers,
		registrations: registrations,
		users:         users,
		now:           time.Now,
	}
}

// Dashboard collects the totals, the next upcoming numbers and the most
// recent registrations.
func (s *DashboardService) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		d   Dashboard
		err error
	)
	if d.Counts.Numbers, err = s.numbers.Count(ctx); err != nil {
		return Dashboard{}, storageFault("count numbers", err)
	}
	if d.Counts.Presenters, err = s.presenters.Count(ctx); err != nil {
		return Dashboard{}, storageFault("count presenters", err)
	}
	if d.Counts.Roles, err = s.roles.Count(ctx); err != nil {
		return Dashboard{}, storageFault("count roles", err)
	}
	if d.Counts.Users, err = s.users.Count(ctx); err != nil {
		return Dashboard{}, storageFault("count users", err)
	}

	all, err := s.numbers.List(ctx)
	if err != nil {
		return Dashboard{}, storageFault("list numbers", err)
	}
	now := s.now()
	d.UpcomingNumbers = []model.Number{}
	for _, n := range resolvedOnly(all, "dashboard", now) {
		if len(d.UpcomingNumbers) == dashboardUpcoming {
			break
		}
		if n.Upcoming {
			d.UpcomingNumbers = append(d.UpcomingNumbers, n)
		}
	}

	d.RecentRegistrations, err = s.registrations.Recent(ctx, dashboardRecent)
	if err != nil {
		return Dashboard{}, storageFault("recent registrations", err)
	}
	if d.RecentRegistrations == nil {
		d.RecentRegistrations = []model.Registration{}
	}
	return d, nil
}

// Users lists every account.
func (s *DashboardService) Users(ctx context.Context) ([]model.User, error) {
	out, err := s.users.List(ctx)
	if err != nil {
		return nil, storageFault("list users", err)
	}
	return out, nil
}

// UserDetail loads one account and its registrations.
func (s *DashboardService) UserDetail(ctx context.Context, id uint64) (UserDetail, error) {
	if id == 0 {
		return UserDetail{}, ErrNotFound
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return UserDetail{}, ErrNotFound
	}
	if err != nil {
		return UserDetail{}, storageFault("get user", err)
	}
	regs, err := s.registrations.ListByUser(ctx, id)
	if err != nil {
		return UserDetail{}, storageFault("list registrations", err)
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	return UserDetail{User: u, Registrations: regs}, nil
}
