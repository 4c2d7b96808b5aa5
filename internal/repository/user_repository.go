package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/presenter-booking/internal/model"
	"github.com/iliyamo/presenter-booking/internal/utils"
)

// UserRepo persists accounts in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id,email,password_hash,role,first_name,last_name,phone,profile_picture_url,failed_attempts,locked_until,created_at,updated_at`

func scanUser(s rowScanner) (model.User, error) {
	var (
		u       model.User
		picture sql.NullString
		locked  sql.NullTime
	)
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.FirstName, &u.LastName, &u.Phone,
		&picture, &u.FailedAttempts, &locked, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return u, err
	}
	if picture.Valid {
		p := picture.String
		u.ProfilePictureURL = &p
	}
	if locked.Valid {
		t := locked.Time.UTC()
		u.LockedUntil = &t
	}
	return u, nil
}

// Create hashes the password, inserts the user and assigns the generated ID.
// A taken email yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, first_name, last_name, phone) VALUES (?,?,?,?,?,?)",
		u.Email, hash, u.Role, u.FirstName, u.LastName, u.Phone)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.PasswordHash = hash
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// List returns all users ordered by last and first name.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY last_name, first_name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Count returns the number of accounts.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.DB, "SELECT COUNT(*) FROM users")
}

// SetRole changes the account role.
func (r *UserRepo) SetRole(ctx context.Context, id uint64, role string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", role, id)
	if err != nil {
		return err
	}
	return r.affected(ctx, res, id)
}

// RecordSignInFailure stores the failure counter and an optional lockout end.
func (r *UserRepo) RecordSignInFailure(ctx context.Context, id uint64, attempts int, lockedUntil *time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_attempts=?, locked_until=? WHERE id=?", attempts, lockedUntil, id)
	return err
}

// ResetSignInFailures clears the failure counter and any lockout.
func (r *UserRepo) ResetSignInFailures(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_attempts=0, locked_until=NULL WHERE id=? AND (failed_attempts<>0 OR locked_until IS NOT NULL)", id)
	return err
}

// UpdateProfile writes the profile columns and the login email in one
// statement.  A taken email yields ErrDuplicate.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET first_name=?, last_name=?, phone=?, email=?, profile_picture_url=? WHERE id=?",
		u.FirstName, u.LastName, u.Phone, u.Email, u.ProfilePictureURL, u.ID)
	if err != nil {
		return translate(err)
	}
	return r.affected(ctx, res, u.ID)
}

func (r *UserRepo) affected(ctx context.Context, res sql.Result, id uint64) error {
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return nil
}
