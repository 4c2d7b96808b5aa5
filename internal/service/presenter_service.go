package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/presenter-booking/internal/metrics"
	"github.com/iliyamo/presenter-booking/internal/model"
	"github.com/iliyamo/presenter-booking/internal/repository"
	"github.com/iliyamo/presenter-booking/internal/validation"
)

// PresenterService is the administrative workflow for presenters.
type PresenterService struct {
	presenters PresenterStore
	v          *validation.Validator
	metrics    *metrics.Metrics
}

func NewPresenterService(presenters PresenterStore, v *validation.Validator, m *metrics.Metrics) *PresenterService {
	return &PresenterService{presenters: presenters, v: v, metrics: m}
}

func normalizePresenter(p model.Presenter) model.Presenter {
	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)
	p.RoleCode = strings.TrimSpace(p.RoleCode)
	p.Role = nil
	return p
}

// List returns every presenter with its role resolved.
func (s *PresenterService) List(ctx context.Context) ([]model.Presenter, error) {
	out, err := s.presenters.List(ctx)
	if err != nil {
		return nil, storageFault("list presenters", err)
	}
	return out, nil
}

// Detail loads one presenter.  A blank or unknown code is ErrNotFound.
func (s *PresenterService) Detail(ctx context.Context, code string) (*model.Presenter, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNotFound
	}
	p, err := s.presenters.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageFault("get presenter", err)
	}
	return p, nil
}

// Options lists the presenters a Number may be assigned to: only those
// whose role resolves.  An empty list comes with an explanatory message.
func (s *PresenterService) Options(ctx context.Context) (Result[[]model.Presenter], error) {
	all, err := s.List(ctx)
	if err != nil {
		return Result[[]model.Presenter]{}, err
	}
	out := make([]model.Presenter, 0, len(all))
	for _, p := range all {
		if p.Role != nil {
			out = append(out, p)
		}
	}
	res := Result[[]model.Presenter]{Entity: out}
	if len(out) == 0 {
		res.Message = "No presenters are available. Create a presenter before scheduling a number."
	}
	return res, nil
}

func (s *PresenterService) missingRole(cand model.Presenter) (Result[model.Presenter], error) {
	return rejected(cand, &ValidationError{Fields: fieldError("role_code", "The selected role does not exist.")})
}

// Create validates and inserts a presenter.
func (s *PresenterService) Create(ctx context.Context, cand model.Presenter) (res Result[model.Presenter], err error) {
	defer func() { s.metrics.AdminWrite("presenter", "create", err) }()
	cand = normalizePresenter(cand)
	rep, err := s.v.Presenter(ctx, cand, validation.Create)
	if err != nil {
		return Result[model.Presenter]{Entity: cand}, storageFault("validate presenter", err)
	}
	if !rep.OK() {
		return rejected(cand, invalid(rep))
	}
	if err := s.presenters.Create(ctx, &cand); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return rejected(cand, &ValidationError{
				Fields:    fieldError("code", "A presenter with this code already exists."),
				Duplicate: true,
			})
		case errors.Is(err, repository.ErrMissingParent):
			return s.missingRole(cand)
		}
		return Result[model.Presenter]{Entity: cand}, storageFault("create presenter", err)
	}
	return Result[model.Presenter]{Entity: cand, Message: fmt.Sprintf("Presenter %s was created.", cand.Code)}, nil
}

// Update rewrites the name and role of an existing presenter.
func (s *PresenterService) Update(ctx context.Context, code string, cand model.Presenter) (res Result[model.Presenter], err error) {
	defer func() { s.metrics.AdminWrite("presenter", "update", err) }()
	cand = normalizePresenter(cand)
	if strings.TrimSpace(code) != cand.Code {
		return Result[model.Presenter]{Entity: cand}, ErrBadRequest
	}
	rep, err := s.v.Presenter(ctx, cand, validation.Update)
	if err != nil {
		return Result[model.Presenter]{Entity: cand}, storageFault("validate presenter", err)
	}
	if !rep.OK() {
		return rejected(cand, invalid(rep))
	}
	if err := s.presenters.Update(ctx, &cand); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return Result[model.Presenter]{Entity: cand}, ErrNotFound
		case errors.Is(err, repository.ErrMissingParent):
			return s.missingRole(cand)
		}
		return Result[model.Presenter]{Entity: cand}, storageFault("update presenter", err)
	}
	return Result[model.Presenter]{Entity: cand, Message: fmt.Sprintf("Presenter %s was updated.", cand.Code)}, nil
}

// DeletePreview reports whether numbers still reference the presenter.
func (s *PresenterService) DeletePreview(ctx context.Context, code string) (DeletePreview[model.Presenter], error) {
	p, err := s.Detail(ctx, code)
	if err != nil {
		return DeletePreview[model.Presenter]{}, err
	}
	g, err := s.v.PresenterDelete(ctx, p.Code)
	if err != nil {
		return DeletePreview[model.Presenter]{}, storageFault("guard presenter delete", err)
	}
	return DeletePreview[model.Presenter]{Entity: *p, Allowed: g.Allowed(), Reason: g.Reason, Dependents: g.Dependents}, nil
}

// Delete removes a presenter that no number references.
func (s *PresenterService) Delete(ctx context.Context, code string) (res Result[model.Presenter], err error) {
	defer func() { s.metrics.AdminWrite("presenter", "delete", err) }()
	p, err := s.Detail(ctx, code)
	if err != nil {
		return Result[model.Presenter]{}, err
	}
	g, err := s.v.PresenterDelete(ctx, p.Code)
	if err != nil {
		return Result[model.Presenter]{Entity: *p}, storageFault("guard presenter delete", err)
	}
	if !g.Allowed() {
		return Result[model.Presenter]{Entity: *p}, &ConflictError{Reason: g.Reason}
	}
	if err := s.presenters.Delete(ctx, p.Code); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenced):
			return Result[model.Presenter]{Entity: *p}, &ConflictError{
				Reason: fmt.Sprintf("Presenter %q cannot be deleted: it is scheduled in numbers.", p.Code),
			}
		case errors.Is(err, repository.ErrNotFound):
			return Result[model.Presenter]{}, ErrNotFound
		}
		return Result[model.Presenter]{Entity: *p}, storageFault("delete presenter", err)
	}
	return Result[model.Presenter]{Entity: *p, Message: fmt.Sprintf("Presenter %s was deleted.", p.Code)}, nil
}
