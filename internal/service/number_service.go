package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/presenter-booking/internal/metrics"
	"github.com/iliyamo/presenter-booking/internal/model"
	"github.com/iliyamo/presenter-booking/internal/repository"
	"github.com/iliyamo/presenter-booking/internal/validation"
)

// NumberService is the administrative workflow for numbers.
type NumberService struct {
	numbers       NumberStore
	registrations RegistrationStore
	v             *validation.Validator
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewNumberService(numbers NumberStore, registrations RegistrationStore, v *validation.Validator, m *metrics.Metrics) *NumberService {
	return &NumberService{numbers: numbers, registrations: registrations, v: v, metrics: m, now: time.Now}
}

func normalizeNumber(n model.Number) model.Number {
	n.Code = strings.TrimSpace(n.Code)
	n.Title = strings.TrimSpace(n.Title)
	n.PresenterCode = strings.TrimSpace(n.PresenterCode)
	if !n.ShowDateTime.IsZero() {
		n.ShowDateTime = n.ShowDateTime.UTC()
	}
	n.Presenter = nil
	n.Upcoming = false
	return n
}

// resolvedOnly drops numbers whose presenter or role did not resolve and
// stamps Upcoming on the rest.  The schema forbids the dangling state, so
// any hit is logged as an integrity problem.
func resolvedOnly(in []model.Number, where string, now time.Time) []model.Number {
	out := make([]model.Number, 0, len(in))
	for _, n := range in {
		if !n.Resolved() {
			log.Printf("integrity: %s: number %s has a dangling presenter or role (presenter=%q)", where, n.Code, n.PresenterCode)
			continue
		}
		n.Upcoming = n.IsUpcoming(now)
		out = append(out, n)
	}
	return out
}

// List returns every number whose presenter and role resolve, ordered by
// show date.
func (s *NumberService) List(ctx context.Context) ([]model.Number, error) {
	all, err := s.numbers.List(ctx)
	if err != nil {
		return nil, storageFault("list numbers", err)
	}
	return resolvedOnly(all, "admin number list", s.now()), nil
}

// Detail loads one number.  A blank or unknown code is ErrNotFound.
func (s *NumberService) Detail(ctx context.Context, code string) (*model.Number, error) {
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
	n.Upcoming = n.IsUpcoming(s.now())
	return n, nil
}

func (s *NumberService) missingPresenter(cand model.Number) (Result[model.Number], error) {
	return rejected(cand, &ValidationError{Fields: fieldError("presenter_code", "The selected presenter does not exist.")})
}

// Create validates and inserts a number.
func (s *NumberService) Create(ctx context.Context, cand model.Number) (res Result[model.Number], err error) {
	defer func() { s.metrics.AdminWrite("number", "create", err) }()
	cand = normalizeNumber(cand)
	rep, err := s.v.Number(ctx, cand, validation.Create)
	if err != nil {
		return Result[model.Number]{Entity: cand}, storageFault("validate number", err)
	}
	if !rep.OK() {
		return rejected(cand, invalid(rep))
	}
	if err := s.numbers.Create(ctx, &cand); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return rejected(cand, &ValidationError{
				Fields:    fieldError("code", "A number with this code already exists."),
				Duplicate: true,
			})
		case errors.Is(err, repository.ErrMissingParent):
			return s.missingPresenter(cand)
		}
		return Result[model.Number]{Entity: cand}, storageFault("create number", err)
	}
	return Result[model.Number]{Entity: cand, Message: fmt.Sprintf("Number %s was created.", cand.Code)}, nil
}

// Update rewrites every column of an existing number except its code.
func (s *NumberService) Update(ctx context.Context, code string, cand model.Number) (res Result[model.Number], err error) {
	defer func() { s.metrics.AdminWrite("number", "update", err) }()
	cand = normalizeNumber(cand)
	if strings.TrimSpace(code) != cand.Code {
		return Result[model.Number]{Entity: cand}, ErrBadRequest
	}
	rep, err := s.v.Number(ctx, cand, validation.Update)
	if err != nil {
		return Result[model.Number]{Entity: cand}, storageFault("validate number", err)
	}
	if !rep.OK() {
		return rejected(cand, invalid(rep))
	}
	if err := s.numbers.Update(ctx, &cand); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return Result[model.Number]{Entity: cand}, ErrNotFound
		case errors.Is(err, repository.ErrMissingParent):
			return s.missingPresenter(cand)
		}
		return Result[model.Number]{Entity: cand}, storageFault("update number", err)
	}
	return Result[model.Number]{Entity: cand, Message: fmt.Sprintf("Number %s was updated.", cand.Code)}, nil
}

// DeletePreview reports how many registrations the delete would cascade
// to.  Deleting a number is always allowed.
func (s *NumberService) DeletePreview(ctx context.Context, code string) (DeletePreview[model.Number], error) {
	n, err := s.Detail(ctx, code)
	if err != nil {
		return DeletePreview[model.Number]{}, err
	}
	c, err := s.registrations.CountByNumber(ctx, n.Code)
	if err != nil {
		return DeletePreview[model.Number]{}, storageFault("count registrations", err)
	}
	return DeletePreview[model.Number]{Entity: *n, Allowed: true, Dependents: c}, nil
}

// Delete removes a number together with its registrations.
func (s *NumberService) Delete(ctx context.Context, code string) (res Result[model.Number], err error) {
	defer func() { s.metrics.AdminWrite("number", "delete", err) }()
	n, err := s.Detail(ctx, code)
	if err != nil {
		return Result[model.Number]{}, err
	}
	if err := s.numbers.Delete(ctx, n.Code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Result[model.Number]{}, ErrNotFound
		}
		return Result[model.Number]{Entity: *n}, storageFault("delete number", err)
	}
	return Result[model.Number]{Entity: *n, Message: fmt.Sprintf("Number %s was deleted.", n.Code)}, nil
}
