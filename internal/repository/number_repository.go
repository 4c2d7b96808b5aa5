package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/presenter-booking/internal/model"
)

// NumberRepo manages persistence for numbers (show slots).  Registrations
// referencing a number are removed by the ON DELETE CASCADE foreign key.
type NumberRepo struct {
	db *sql.DB
}

// NewNumberRepo constructs a NumberRepo with the given DB handle.
func NewNumberRepo(db *sql.DB) *NumberRepo { return &NumberRepo{db: db} }

// numberJoin selects a number with its presenter and the presenter's role.
// LEFT JOINs keep rows whose links dangle; callers decide what to do with
// them.
const numberJoin = `SELECT n.code, n.title, n.duration_minutes, n.presenter_code, n.show_date_time,
                           p.code, p.name, p.role_code, r.code, r.label, r.price_cents
                    FROM numbers n
                    LEFT JOIN presenters p ON p.code = n.presenter_code
                    LEFT JOIN roles r ON r.code = p.role_code`

func scanNumber(s rowScanner) (model.Number, error) {
	var (
		n                   model.Number
		pCode, pName, pRole sql.NullString
		rCode, rLabel       sql.NullString
		rPrice              sql.NullInt64
	)
	err := s.Scan(&n.Code, &n.Title, &n.DurationMinutes, &n.PresenterCode, &n.ShowDateTime,
		&pCode, &pName, &pRole, &rCode, &rLabel, &rPrice)
	if err != nil {
		return n, err
	}
	n.ShowDateTime = n.ShowDateTime.UTC()
	if pCode.Valid {
		n.Presenter = &model.Presenter{Code: pCode.String, Name: pName.String, RoleCode: pRole.String}
		if rCode.Valid {
			n.Presenter.Role = &model.Role{Code: rCode.String, Label: rLabel.String, PriceCents: rPrice.Int64}
		}
	}
	return n, nil
}

func (r *NumberRepo) query(ctx context.Context, q string, args ...any) ([]model.Number, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Number
	for rows.Next() {
		n, err := scanNumber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// List returns all numbers with relations resolved, ordered by show time
// ascending.
func (r *NumberRepo) List(ctx context.Context) ([]model.Number, error) {
	return r.query(ctx, numberJoin+` ORDER BY n.show_date_time ASC, n.code ASC`)
}

// ListByPresenter returns the numbers performed by the given presenter.
func (r *NumberRepo) ListByPresenter(ctx context.Context, presenterCode string) ([]model.Number, error) {
	return r.query(ctx, numberJoin+` WHERE n.presenter_code = ? ORDER BY n.show_date_time ASC`, presenterCode)
}

// GetByCode retrieves one number with relations resolved.  It returns
// ErrNotFound if there is no matching row.
func (r *NumberRepo) GetByCode(ctx context.Context, code string) (*model.Number, error) {
	n, err := scanNumber(r.db.QueryRowContext(ctx, numberJoin+` WHERE n.code = ?`, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// Exists reports whether a number with the given code is stored.
func (r *NumberRepo) Exists(ctx context.Context, code string) (bool, error) {
	return exists(ctx, r.db, `SELECT 1 FROM numbers WHERE code = ? LIMIT 1`, code)
}

// Count returns the number of numbers.
func (r *NumberRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM numbers`)
}

// CountByPresenter returns how many numbers reference the presenter.
func (r *NumberRepo) CountByPresenter(ctx context.Context, presenterCode string) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM numbers WHERE presenter_code = ?`, presenterCode)
}

// Create inserts a number.  A taken code yields ErrDuplicate and an unknown
// presenter yields ErrMissingParent.
func (r *NumberRepo) Create(ctx context.Context, n *model.Number) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO numbers (code, title, duration_minutes, presenter_code, show_date_time) VALUES (?, ?, ?, ?, ?)`,
		n.Code, n.Title, n.DurationMinutes, n.PresenterCode, n.ShowDateTime.UTC())
	return translate(err)
}

// Update overwrites the mutable columns of a number.  It returns
// ErrNotFound when the row has been deleted in the meantime.
func (r *NumberRepo) Update(ctx context.Context, n *model.Number) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE numbers SET title = ?, duration_minutes = ?, presenter_code = ?, show_date_time = ? WHERE code = ?`,
		n.Title, n.DurationMinutes, n.PresenterCode, n.ShowDateTime.UTC(), n.Code)
	if err != nil {
		return translate(err)
	}
	if k, _ := res.RowsAffected(); k > 0 {
		return nil
	}
	ok, err := r.Exists(ctx, n.Code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Delete removes a number; its registrations go with it through the
// cascading foreign key.
func (r *NumberRepo) Delete(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM numbers WHERE code = ?`, code)
	if err != nil {
		return translate(err)
	}
	if k, _ := res.RowsAffected(); k == 0 {
		return ErrNotFound
	}
	return nil
}
