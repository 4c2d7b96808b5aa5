package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/presenter-booking/internal/model"
)

// RegistrationRepo provides persistence for user sign-ups to numbers.  The
// unique key (user_id, number_code) is the concurrency boundary: two
// concurrent inserts for the same pair leave exactly one row and the
// loser receives ErrDuplicate.
type RegistrationRepo struct {
	db *sql.DB
}

// NewRegistrationRepo returns a new RegistrationRepo bound to the given database.
func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{db: db} }

// Find returns the registration of a user for a number, or ErrNotFound.
func (r *RegistrationRepo) Find(ctx context.Context, userID uint64, numberCode string) (*model.Registration, error) {
	var reg model.Registration
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, number_code, registered_at FROM registrations WHERE user_id = ? AND number_code = ?`,
		userID, numberCode).Scan(&reg.ID, &reg.UserID, &reg.NumberCode, &reg.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	reg.RegisteredAt = reg.RegisteredAt.UTC()
	return &reg, nil
}

// Create inserts a registration.  The caller supplies ID and RegisteredAt.
// A second row for the same pair yields ErrDuplicate; a number or user
// deleted concurrently yields ErrMissingParent.
func (r *RegistrationRepo) Create(ctx context.Context, reg *model.Registration) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO registrations (id, user_id, number_code, registered_at) VALUES (?, ?, ?, ?)`,
		reg.ID, reg.UserID, reg.NumberCode, reg.RegisteredAt.UTC())
	return translate(err)
}

// Delete removes the registration of a user for a number.  It returns
// ErrNotFound when there was nothing to delete.
func (r *RegistrationRepo) Delete(ctx context.Context, userID uint64, numberCode string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM registrations WHERE user_id = ? AND number_code = ?`, userID, numberCode)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// NumberCodesByUser returns the codes of all numbers the user signed up for.
func (r *RegistrationRepo) NumberCodesByUser(ctx context.Context, userID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT number_code FROM registrations WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

// CountByNumber returns how many users signed up for the number.
func (r *RegistrationRepo) CountByNumber(ctx context.Context, numberCode string) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM registrations WHERE number_code = ?`, numberCode)
}

// ListByUser returns a user's registrations with the number, its presenter
// and the presenter's role resolved, ordered by show time.
func (r *RegistrationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Registration, error) {
	const q = `SELECT g.id, g.user_id, g.number_code, g.registered_at,
                      n.code, n.title, n.duration_minutes, n.presenter_code, n.show_date_time,
                      p.code, p.name, p.role_code, r.code, r.label, r.price_cents
               FROM registrations g
               JOIN numbers n ON n.code = g.number_code
               LEFT JOIN presenters p ON p.code = n.presenter_code
               LEFT JOIN roles r ON r.code = p.role_code
               WHERE g.user_id = ?
               ORDER BY n.show_date_time ASC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Registration
	for rows.Next() {
		var reg model.Registration
		n, err := scanNumber(prefixScanner{rows, []any{&reg.ID, &reg.UserID, &reg.NumberCode, &reg.RegisteredAt}})
		if err != nil {
			return nil, err
		}
		reg.RegisteredAt = reg.RegisteredAt.UTC()
		reg.Number = &n
		out = append(out, reg)
	}
	return out, rows.Err()
}

// Recent returns the latest registrations with the user and the number
// attached, newest first.
func (r *RegistrationRepo) Recent(ctx context.Context, limit int) ([]model.Registration, error) {
	const q = `SELECT g.id, g.user_id, g.number_code, g.registered_at,
                      u.id, u.email, u.first_name, u.last_name,
                      n.code, n.title, n.show_date_time
               FROM registrations g
               JOIN users u ON u.id = g.user_id
               JOIN numbers n ON n.code = g.number_code
               ORDER BY g.registered_at DESC
               LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Registration
	for rows.Next() {
		var (
			reg model.Registration
			u   model.User
			n   model.Number
		)
		if err := rows.Scan(&reg.ID, &reg.UserID, &reg.NumberCode, &reg.RegisteredAt,
			&u.ID, &u.Email, &u.FirstName, &u.LastName,
			&n.Code, &n.Title, &n.ShowDateTime); err != nil {
			return nil, err
		}
		reg.RegisteredAt = reg.RegisteredAt.UTC()
		n.ShowDateTime = n.ShowDateTime.UTC()
		reg.User = &u
		reg.Number = &n
		out = append(out, reg)
	}
	return out, rows.Err()
}

// prefixScanner scans a row whose leading columns belong to another struct
// before handing the remaining destinations to an entity scanner.
type prefixScanner struct {
	rows   *sql.Rows
	prefix []any
}

func (p prefixScanner) Scan(dest ...any) error {
	return p.rows.Scan(append(append([]any{}, p.prefix...), dest...)...)
}
