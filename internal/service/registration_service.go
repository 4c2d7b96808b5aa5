package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/presenter-booking/internal/metrics"
	"github.com/iliyamo/presenter-booking/internal/model"
	"github.com/iliyamo/presenter-booking/internal/queue"
	"github.com/iliyamo/presenter-booking/internal/repository"
)

// Outcome of a registration or cancellation request.
type Outcome string

const (
	Registered        Outcome = "registered"
	AlreadyRegistered Outcome = "already_registered"
	Cancelled         Outcome = "cancelled"
	NothingToCancel   Outcome = "nothing_to_cancel"
)

// RegistrationResult is returned by Register and Cancel.
type RegistrationResult struct {
	Outcome      Outcome             `json:"outcome"`
	NumberCode   string              `json:"number_code"`
	Registration *model.Registration `json:"registration,omitempty"`
	Message      string              `json:"message"`
}

// RegistrationService lets users sign up for and cancel numbers.
type RegistrationService struct {
	numbers       NumberStore
	registrations RegistrationStore
	events        EventPublisher
	metrics       *metrics.Metrics

	now   func() time.Time
	newID func() string
}

func NewRegistrationService(numbers NumberStore, registrations RegistrationStore, events EventPublisher, m *metrics.Metrics) *RegistrationService {
	if events == nil {
		events = queue.Nop{}
	}
	return &RegistrationService{
		numbers:       numbers,
		registrations: registrations,
		events:        events,
		metrics:       m,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// Register signs the principal up for a number.  Registering twice is not
// an error: the second call reports AlreadyRegistered.
func (s *RegistrationService) Register(ctx context.Context, p model.Principal, numberCode string) (RegistrationResult, error) {
	if !p.Authenticated() {
		return RegistrationResult{}, ErrUnauthenticated
	}
	code := strings.TrimSpace(numberCode)
	if code == "" {
		return RegistrationResult{}, ErrBadRequest
	}

	n, err := s.numbers.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return RegistrationResult{}, ErrNotFound
	}
	if err != nil {
		return RegistrationResult{}, storageFault("get number", err)
	}

	existing, err := s.registrations.Find(ctx, p.UserID, code)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return RegistrationResult{}, storageFault("find registration", err)
	}
	if existing != nil {
		return s.already(n, existing), nil
	}

	reg := &model.Registration{
		ID:           s.newID(),
		UserID:       p.UserID,
		NumberCode:   code,
		RegisteredAt: s.now().UTC(),
	}
	if err := s.registrations.Create(ctx, reg); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			// a concurrent request won the race
			return s.already(n, nil), nil
		case errors.Is(err, repository.ErrMissingParent):
			return RegistrationResult{}, ErrNotFound
		}
		return RegistrationResult{}, storageFault("create registration", err)
	}

	reg.Number = n
	s.metrics.RegistrationOutcome(string(Registered))
	s.publish(ctx, queue.ActionRegistered, reg, n)
	return RegistrationResult{
		Outcome:      Registered,
		NumberCode:   code,
		Registration: reg,
		Message:      fmt.Sprintf("You are registered for %q.", n.Title),
	}, nil
}

func (s *RegistrationService) already(n *model.Number, reg *model.Registration) RegistrationResult {
	s.metrics.RegistrationOutcome(string(AlreadyRegistered))
	return RegistrationResult{
		Outcome:      AlreadyRegistered,
		NumberCode:   n.Code,
		Registration: reg,
		Message:      fmt.Sprintf("You are already registered for %q.", n.Title),
	}
}

// Cancel removes the principal's registration for a number.  Cancelling a
// registration that does not exist reports NothingToCancel.
func (s *RegistrationService) Cancel(ctx context.Context, p model.Principal, numberCode string) (RegistrationResult, error) {
	if !p.Authenticated() {
		return RegistrationResult{}, ErrUnauthenticated
	}
	code := strings.TrimSpace(numberCode)
	if code == "" {
		return RegistrationResult{}, ErrBadRequest
	}

	existing, err := s.registrations.Find(ctx, p.UserID, code)
	if errors.Is(err, repository.ErrNotFound) {
		return s.nothing(code), nil
	}
	if err != nil {
		return RegistrationResult{}, storageFault("find registration", err)
	}
	if err := s.registrations.Delete(ctx, p.UserID, code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.nothing(code), nil
		}
		return RegistrationResult{}, storageFault("delete registration", err)
	}

	n, err := s.numbers.GetByCode(ctx, code)
	if err != nil {
		n = &model.Number{Code: code}
	}
	s.metrics.RegistrationOutcome(string(Cancelled))
	s.publish(ctx, queue.ActionCancelled, existing, n)
	return RegistrationResult{
		Outcome:    Cancelled,
		NumberCode: code,
		Message:    "Your registration was cancelled.",
	}, nil
}

func (s *RegistrationService) nothing(code string) RegistrationResult {
	s.metrics.RegistrationOutcome(string(NothingToCancel))
	return RegistrationResult{
		Outcome:    NothingToCancel,
		NumberCode: code,
		Message:    "You were not registered for this number.",
	}
}

// MyRegistrations lists the principal's registrations ordered by show
// date, dropping any whose number no longer resolves.
func (s *RegistrationService) MyRegistrations(ctx context.Context, p model.Principal) ([]model.Registration, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	regs, err := s.registrations.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, storageFault("list registrations", err)
	}
	now := s.now()
	out := make([]model.Registration, 0, len(regs))
	for _, r := range regs {
		if r.Number == nil || !r.Number.Resolved() {
			log.Printf("integrity: registration %s points at unresolved number %s", r.ID, r.NumberCode)
			continue
		}
		n := *r.Number
		n.Upcoming = n.IsUpcoming(now)
		r.Number = &n
		out = append(out, r)
	}
	return out, nil
}

// publish hands the event to the broker without letting failures or a slow
// broker affect the request.
func (s *RegistrationService) publish(ctx context.Context, action string, reg *model.Registration, n *model.Number) {
	ev := queue.RegistrationEvent{
		Action:     action,
		UserID:     reg.UserID,
		NumberCode: reg.NumberCode,
		OccurredAt: s.now().UTC().Format(time.RFC3339),
	}
	ev.RegistrationID = reg.ID
	if n != nil {
		ev.NumberTitle = n.Title
		if !n.ShowDateTime.IsZero() {
			ev.ShowDateTime = n.ShowDateTime.UTC().Format(time.RFC3339)
		}
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := s.events.PublishRegistration(pctx, ev)
	if err != nil {
		log.Printf("events: %s for user %d number %s not published: %v", action, reg.UserID, reg.NumberCode, err)
	}
	s.metrics.EventPublished(err)
}
