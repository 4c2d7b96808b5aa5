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

// RoleService is the administrative workflow for roles.
type RoleService struct {
	roles   RoleStore
	v       *validation.Validator
	metrics *metrics.Metrics
}

func NewRoleService(roles RoleStore, v *validation.Validator, m *metrics.Metrics) *RoleService {
	return &RoleService{roles: roles, v: v, metrics: m}
}

func normalizeRole(r model.Role) model.Role {
	r.Code = strings.TrimSpace(r.Code)
	r.Label = strings.TrimSpace(r.Label)
	return r
}

// List returns every role ordered by code.
func (s *RoleService) List(ctx context.Context) ([]model.Role, error) {
	out, err := s.roles.List(ctx)
	if err != nil {
		return nil, storageFault("list roles", err)
	}
	return out, nil
}

// Detail loads one role.  A blank or unknown code is ErrNotFound.
func (s *RoleService) Detail(ctx context.Context, code string) (*model.Role, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNotFound
	}
	r, err := s.roles.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageFault("get role", err)
	}
	return r, nil
}

// Create validates and inserts a role.  On rejection the candidate is
// returned with its field errors and nothing is written.
func (s *RoleService) Create(ctx context.Context, cand model.Role) (res Result[model.Role], err error) {
	defer func() { s.metrics.AdminWrite("role", "create", err) }()
	cand = normalizeRole(cand)
	rep, err := s.v.Role(ctx, cand, validation.Create)
	if err != nil {
		return Result[model.Role]{Entity: cand}, storageFault("validate role", err)
	}
	if !rep.OK() {
		return rejected(cand, invalid(rep))
	}
	if err := s.roles.Create(ctx, &cand); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return rejected(cand, &ValidationError{
				Fields:    fieldError("code", "A role with this code already exists."),
				Duplicate: true,
			})
		}
		return Result[model.Role]{Entity: cand}, storageFault("create role", err)
	}
	return Result[model.Role]{Entity: cand, Message: fmt.Sprintf("Role %s was created.", cand.Code)}, nil
}

// Update rewrites the label and price of an existing role.  The code in the
// path must match the candidate's code.
func (s *RoleService) Update(ctx context.Context, code string, cand model.Role) (res Result[model.Role], err error) {
	defer func() { s.metrics.AdminWrite("role", "update", err) }()
	cand = normalizeRole(cand)
	if strings.TrimSpace(code) != cand.Code {
		return Result[model.Role]{Entity: cand}, ErrBadRequest
	}
	rep, err := s.v.Role(ctx, cand, validation.Update)
	if err != nil {
		return Result[model.Role]{Entity: cand}, storageFault("validate role", err)
	}
	if !rep.OK() {
		return rejected(cand, invalid(rep))
	}
	if err := s.roles.Update(ctx, &cand); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Result[model.Role]{Entity: cand}, ErrNotFound
		}
		return Result[model.Role]{Entity: cand}, storageFault("update role", err)
	}
	return Result[model.Role]{Entity: cand, Message: fmt.Sprintf("Role %s was updated.", cand.Code)}, nil
}

// DeletePreview reports what a delete would remove and whether the guard
// allows it.
func (s *RoleService) DeletePreview(ctx context.Context, code string) (DeletePreview[model.Role], error) {
	r, err := s.Detail(ctx, code)
	if err != nil {
		return DeletePreview[model.Role]{}, err
	}
	g, err := s.v.RoleDelete(ctx, r.Code)
	if err != nil {
		return DeletePreview[model.Role]{}, storageFault("guard role delete", err)
	}
	return DeletePreview[model.Role]{Entity: *r, Allowed: g.Allowed(), Reason: g.Reason, Dependents: g.Dependents}, nil
}

// Delete removes a role that no presenter references.
func (s *RoleService) Delete(ctx context.Context, code string) (res Result[model.Role], err error) {
	defer func() { s.metrics.AdminWrite("role", "delete", err) }()
	r, err := s.Detail(ctx, code)
	if err != nil {
		return Result[model.Role]{}, err
	}
	g, err := s.v.RoleDelete(ctx, r.Code)
	if err != nil {
		return Result[model.Role]{Entity: *r}, storageFault("guard role delete", err)
	}
	if !g.Allowed() {
		return Result[model.Role]{Entity: *r}, &ConflictError{Reason: g.Reason}
	}
	if err := s.roles.Delete(ctx, r.Code); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenced):
			return Result[model.Role]{Entity: *r}, &ConflictError{
				Reason: fmt.Sprintf("Role %q cannot be deleted: it is used by presenters.", r.Code),
			}
		case errors.Is(err, repository.ErrNotFound):
			return Result[model.Role]{}, ErrNotFound
		}
		return Result[model.Role]{Entity: *r}, storageFault("delete role", err)
	}
	return Result[model.Role]{Entity: *r, Message: fmt.Sprintf("Role %s was deleted.", r.Code)}, nil
}
