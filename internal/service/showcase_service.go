package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/presenter-booking/internal/model"
	"github.com/iliyamo/presenter-booking/internal/repository"
)

// NumberCard is a number on the public home page.
type NumberCard struct {
	model.Number
	Registered bool `json:"registered"`
}

// Home is the public landing page.
type Home struct {
	Upcoming []NumberCard `json:"upcoming"`
	Past     []NumberCard `json:"past"`
}

// ShowcaseService serves the public pages.
type ShowcaseService struct {
	numbers       NumberStore
	registrations RegistrationStore
	now           func() time.Time
}

func NewShowcaseService(numbers NumberStore, registrations RegistrationStore) *ShowcaseService {
	return &ShowcaseService{numbers: numbers, registrations: registrations, now: time.Now}
}

// Home splits the resolved numbers into upcoming (soonest first) and past
// (most recent first).  For an authenticated principal each card says
// whether they are registered.
func (s *ShowcaseService) Home(ctx context.Context, p model.Principal) (Home, error) {
	all, err := s.numbers.List(ctx)
	if err != nil {
		return Home{}, storageFault("list numbers", err)
	}
	mine := map[string]bool{}
	if p.Authenticated() {
		codes, err := s.registrations.NumberCodesByUser(ctx, p.UserID)
		if err != nil {
			return Home{}, storageFault("list registered numbers", err)
		}
		for _, c := range codes {
			mine[c] = true
		}
	}

	now := s.now()
	home := Home{Upcoming: []NumberCard{}, Past: []NumberCard{}}
	for _, n := range resolvedOnly(all, "home", now) {
		card := NumberCard{Number: n, Registered: mine[n.Code]}
		if n.IsUpcoming(now) {
			home.Upcoming = append(home.Upcoming, card)
		} else {
			home.Past = append(home.Past, card)
		}
	}
	sort.SliceStable(home.Upcoming, func(i, j int) bool {
		return home.Upcoming[i].ShowDateTime.Before(home.Upcoming[j].ShowDateTime)
	})
	sort.SliceStable(home.Past, func(i, j int) bool {
		return home.Past[i].ShowDateTime.After(home.Past[j].ShowDateTime)
	})
	return home, nil
}

// Number returns the public detail of one resolved number.
func (s *ShowcaseService) Number(ctx context.Context, code string) (*model.Number, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNotFound
	}
	n, err := s.numbers.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageFault("get number", err)
	}
	ok := resolvedOnly([]model.Number{*n}, "number detail", s.now())
	if len(ok) == 0 {
		return nil, ErrNotFound
	}
	return &ok[0], nil
}
