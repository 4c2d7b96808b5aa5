package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/presenter-booking/internal/model"
)

// RoleRepo manages persistence for roles.
type RoleRepo struct {
	db *sql.DB
}

// NewRoleRepo constructs a RoleRepo with the given DB handle.
func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{db: db} }

const roleColumns = `code, label, price_cents`

// List returns all roles ordered by code.
func (r *RoleRepo) List(ctx context.Context) ([]model.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Role
	for rows.Next() {
		var ro model.Role
		if err := rows.Scan(&ro.Code, &ro.Label, &ro.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, ro)
	}
	return out, rows.Err()
}

// GetByCode retrieves a role by its code.  It returns ErrNotFound if there
// is no matching row.
func (r *RoleRepo) GetByCode(ctx context.Context, code string) (*model.Role, error) {
	var ro model.Role
	err := r.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE code = ?`, code).
		Scan(&ro.Code, &ro.Label, &ro.PriceCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ro, nil
}

// Exists reports whether a role with the given code is stored.
func (r *RoleRepo) Exists(ctx context.Context, code string) (bool, error) {
	return exists(ctx, r.db, `SELECT 1 FROM roles WHERE code = ? LIMIT 1`, code)
}

// Count returns the number of roles.
func (r *RoleRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM roles`)
}

// Create inserts a new role.  A taken code yields ErrDuplicate.
func (r *RoleRepo) Create(ctx context.Context, ro *model.Role) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (code, label, price_cents) VALUES (?, ?, ?)`,
		ro.Code, ro.Label, ro.PriceCents)
	return translate(err)
}

// Update overwrites label and price of an existing role.  It returns
// ErrNotFound when the row no longer exists.
func (r *RoleRepo) Update(ctx context.Context, ro *model.Role) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE roles SET label = ?, price_cents = ? WHERE code = ?`,
		ro.Label, ro.PriceCents, ro.Code)
	if err != nil {
		return translate(err)
	}
	return r.affectedOrMissing(ctx, res, ro.Code)
}

// Delete removes a role.  A role still used by presenters yields
// ErrReferenced from the foreign key; a missing row yields ErrNotFound.
func (r *RoleRepo) Delete(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE code = ?`, code)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// affectedOrMissing distinguishes "no row" from "no change": MySQL reports
// zero affected rows when an UPDATE writes identical values.
func (r *RoleRepo) affectedOrMissing(ctx context.Context, res sql.Result, code string) error {
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	ok, err := r.Exists(ctx, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// exists runs a `SELECT 1 ... LIMIT 1` style query and reports whether a
// row came back.
func exists(ctx context.Context, db *sql.DB, q string, args ...any) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, q, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// count runs a `SELECT COUNT(*)` query.
func count(ctx context.Context, db *sql.DB, q string, args ...any) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
