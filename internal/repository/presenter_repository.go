package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/presenter-booking/internal/model"
)

// PresenterRepo manages persistence for presenters.
type PresenterRepo struct {
	db *sql.DB
}

// NewPresenterRepo constructs a PresenterRepo with the given DB handle.
func NewPresenterRepo(db *sql.DB) *PresenterRepo { return &PresenterRepo{db: db} }

// presenterJoin selects a presenter with its role.  The role columns are
// nullable so that a dangling role_code still yields the presenter row.
const presenterJoin = `SELECT p.code, p.name, p.role_code, r.code, r.label, r.price_cents
                       FROM presenters p
                       LEFT JOIN roles r ON r.code = p.role_code`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPresenter(s rowScanner) (model.Presenter, error) {
	var (
		p         model.Presenter
		roleCode  sql.NullString
		roleLabel sql.NullString
		rolePrice sql.NullInt64
	)
	if err := s.Scan(&p.Code, &p.Name, &p.RoleCode, &roleCode, &roleLabel, &rolePrice); err != nil {
		return p, err
	}
	if roleCode.Valid {
		p.Role = &model.Role{Code: roleCode.String, Label: roleLabel.String, PriceCents: rolePrice.Int64}
	}
	return p, nil
}

// List returns all presenters with their role resolved, ordered by code.
func (r *PresenterRepo) List(ctx context.Context) ([]model.Presenter, error) {
	rows, err := r.db.QueryContext(ctx, presenterJoin+` ORDER BY p.code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Presenter
	for rows.Next() {
		p, err := scanPresenter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListByRole returns the presenters that reference the given role.
func (r *PresenterRepo) ListByRole(ctx context.Context, roleCode string) ([]model.Presenter, error) {
	rows, err := r.db.QueryContext(ctx, presenterJoin+` WHERE p.role_code = ? ORDER BY p.code`, roleCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Presenter
	for rows.Next() {
		p, err := scanPresenter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByCode retrieves a presenter with its role.  It returns ErrNotFound if
// there is no matching row.
func (r *PresenterRepo) GetByCode(ctx context.Context, code string) (*model.Presenter, error) {
	p, err := scanPresenter(r.db.QueryRowContext(ctx, presenterJoin+` WHERE p.code = ?`, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Exists reports whether a presenter with the given code is stored.
func (r *PresenterRepo) Exists(ctx context.Context, code string) (bool, error) {
	return exists(ctx, r.db, `SELECT 1 FROM presenters WHERE code = ? LIMIT 1`, code)
}

// Count returns the number of presenters.
func (r *PresenterRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM presenters`)
}

// CountByRole returns how many presenters reference the role.
func (r *PresenterRepo) CountByRole(ctx context.Context, roleCode string) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM presenters WHERE role_code = ?`, roleCode)
}

// Create inserts a presenter.  A taken code yields ErrDuplicate and an
// unknown role yields ErrMissingParent.
func (r *PresenterRepo) Create(ctx context.Context, p *model.Presenter) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO presenters (code, name, role_code) VALUES (?, ?, ?)`,
		p.Code, p.Name, p.RoleCode)
	return translate(err)
}

// Update overwrites name and role of an existing presenter.
func (r *PresenterRepo) Update(ctx context.Context, p *model.Presenter) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE presenters SET name = ?, role_code = ? WHERE code = ?`,
		p.Name, p.RoleCode, p.Code)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	ok, err := r.Exists(ctx, p.Code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Delete removes a presenter.  Numbers still pointing at it make the
// foreign key reject the delete with ErrReferenced.
func (r *PresenterRepo) Delete(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM presenters WHERE code = ?`, code)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
