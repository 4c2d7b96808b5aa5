package repository

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/presenter-booking/internal/model"
	"github.com/iliyamo/presenter-booking/internal/utils"
)

// Memory is an in-process store with the same integrity rules as the MySQL
// schema: presenters restrict role deletes, numbers restrict presenter
// deletes, registrations cascade with their number, emails and
// (user, number) pairs are unique.  It backs STORE_DRIVER=memory and the
// tests.
type Memory struct {
	Roles         *MemoryRoleRepo
	Presenters    *MemoryPresenterRepo
	Numbers       *MemoryNumberRepo
	Registrations *MemoryRegistrationRepo
	Users         *MemoryUserRepo
	Tokens        *MemoryTokenRepo
}

type memState struct {
	mu            sync.RWMutex
	roles         map[string]model.Role
	presenters    map[string]model.Presenter
	numbers       map[string]model.Number
	registrations map[string]model.Registration
	users         map[uint64]model.User
	tokens        map[string]model.RefreshToken
	nextUserID    uint64
	nextTokenID   uint64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	st := &memState{
		roles:         make(map[string]model.Role),
		presenters:    make(map[string]model.Presenter),
		numbers:       make(map[string]model.Number),
		registrations: make(map[string]model.Registration),
		users:         make(map[uint64]model.User),
		tokens:        make(map[string]model.RefreshToken),
	}
	return &Memory{
		Roles:         &MemoryRoleRepo{st},
		Presenters:    &MemoryPresenterRepo{st},
		Numbers:       &MemoryNumberRepo{st},
		Registrations: &MemoryRegistrationRepo{st},
		Users:         &MemoryUserRepo{st},
		Tokens:        &MemoryTokenRepo{st},
	}
}

// resolvePresenter attaches the role; callers hold the lock.
func (st *memState) resolvePresenter(p model.Presenter) model.Presenter {
	if ro, ok := st.roles[p.RoleCode]; ok {
		p.Role = &ro
	} else {
		p.Role = nil
	}
	return p
}

// resolveNumber attaches presenter and role; callers hold the lock.
func (st *memState) resolveNumber(n model.Number) model.Number {
	n.Presenter = nil
	if p, ok := st.presenters[n.PresenterCode]; ok {
		p = st.resolvePresenter(p)
		n.Presenter = &p
	}
	return n
}

func sortNumbers(out []model.Number) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].ShowDateTime.Equal(out[j].ShowDateTime) {
			return out[i].Code < out[j].Code
		}
		return out[i].ShowDateTime.Before(out[j].ShowDateTime)
	})
}

func registrationKey(userID uint64, numberCode string) string {
	return strconv.FormatUint(userID, 10) + "\x00" + numberCode
}

// ---- Roles ----

// MemoryRoleRepo is the in-memory counterpart of RoleRepo.
type MemoryRoleRepo struct{ st *memState }

func (r *MemoryRoleRepo) List(_ context.Context) ([]model.Role, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := make([]model.Role, 0, len(r.st.roles))
	for _, ro := range r.st.roles {
		out = append(out, ro)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *MemoryRoleRepo) GetByCode(_ context.Context, code string) (*model.Role, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	ro, ok := r.st.roles[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &ro, nil
}

func (r *MemoryRoleRepo) Exists(_ context.Context, code string) (bool, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	_, ok := r.st.roles[code]
	return ok, nil
}

func (r *MemoryRoleRepo) Count(_ context.Context) (int, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	return len(r.st.roles), nil
}

func (r *MemoryRoleRepo) Create(_ context.Context, ro *model.Role) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.roles[ro.Code]; ok {
		return ErrDuplicate
	}
	r.st.roles[ro.Code] = *ro
	return nil
}

func (r *MemoryRoleRepo) Update(_ context.Context, ro *model.Role) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.roles[ro.Code]; !ok {
		return ErrNotFound
	}
	r.st.roles[ro.Code] = *ro
	return nil
}

func (r *MemoryRoleRepo) Delete(_ context.Context, code string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.roles[code]; !ok {
		return ErrNotFound
	}
	for _, p := range r.st.presenters {
		if p.RoleCode == code {
			return ErrReferenced
		}
	}
	delete(r.st.roles, code)
	return nil
}

// ---- Presenters ----

// MemoryPresenterRepo is the in-memory counterpart of PresenterRepo.
type MemoryPresenterRepo struct{ st *memState }

func (r *MemoryPresenterRepo) List(_ context.Context) ([]model.Presenter, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := make([]model.Presenter, 0, len(r.st.presenters))
	for _, p := range r.st.presenters {
		out = append(out, r.st.resolvePresenter(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *MemoryPresenterRepo) ListByRole(ctx context.Context, roleCode string) ([]model.Presenter, error) {
	all, _ := r.List(ctx)
	out := make([]model.Presenter, 0, len(all))
	for _, p := range all {
		if p.RoleCode == roleCode {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *MemoryPresenterRepo) GetByCode(_ context.Context, code string) (*model.Presenter, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	p, ok := r.st.presenters[code]
	if !ok {
		return nil, ErrNotFound
	}
	p = r.st.resolvePresenter(p)
	return &p, nil
}

func (r *MemoryPresenterRepo) Exists(_ context.Context, code string) (bool, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	_, ok := r.st.presenters[code]
	return ok, nil
}

func (r *MemoryPresenterRepo) Count(_ context.Context) (int, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	return len(r.st.presenters), nil
}

func (r *MemoryPresenterRepo) CountByRole(_ context.Context, roleCode string) (int, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	n := 0
	for _, p := range r.st.presenters {
		if p.RoleCode == roleCode {
			n++
		}
	}
	return n, nil
}

func (r *MemoryPresenterRepo) Create(_ context.Context, p *model.Presenter) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.presenters[p.Code]; ok {
		return ErrDuplicate
	}
	if _, ok := r.st.roles[p.RoleCode]; !ok {
		return ErrMissingParent
	}
	stored := *p
	stored.Role = nil
	r.st.presenters[p.Code] = stored
	return nil
}

func (r *MemoryPresenterRepo) Update(_ context.Context, p *model.Presenter) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.presenters[p.Code]; !ok {
		return ErrNotFound
	}
	if _, ok := r.st.roles[p.RoleCode]; !ok {
		return ErrMissingParent
	}
	stored := *p
	stored.Role = nil
	r.st.presenters[p.Code] = stored
	return nil
}

func (r *MemoryPresenterRepo) Delete(_ context.Context, code string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.presenters[code]; !ok {
		return ErrNotFound
	}
	for _, n := range r.st.numbers {
		if n.PresenterCode == code {
			return ErrReferenced
		}
	}
	delete(r.st.presenters, code)
	return nil
}

// ---- Numbers ----

// MemoryNumberRepo is the in-memory counterpart of NumberRepo.
type MemoryNumberRepo struct{ st *memState }

func (r *MemoryNumberRepo) List(_ context.Context) ([]model.Number, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := make([]model.Number, 0, len(r.st.numbers))
	for _, n := range r.st.numbers {
		out = append(out, r.st.resolveNumber(n))
	}
	sortNumbers(out)
	return out, nil
}

func (r *MemoryNumberRepo) ListByPresenter(ctx context.Context, presenterCode string) ([]model.Number, error) {
	all, _ := r.List(ctx)
	out := make([]model.Number, 0, len(all))
	for _, n := range all {
		if n.PresenterCode == presenterCode {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *MemoryNumberRepo) GetByCode(_ context.Context, code string) (*model.Number, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	n, ok := r.st.numbers[code]
	if !ok {
		return nil, ErrNotFound
	}
	n = r.st.resolveNumber(n)
	return &n, nil
}

func (r *MemoryNumberRepo) Exists(_ context.Context, code string) (bool, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	_, ok := r.st.numbers[code]
	return ok, nil
}

func (r *MemoryNumberRepo) Count(_ context.Context) (int, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	return len(r.st.numbers), nil
}

func (r *MemoryNumberRepo) CountByPresenter(_ context.Context, presenterCode string) (int, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	k := 0
	for _, n := range r.st.numbers {
		if n.PresenterCode == presenterCode {
			k++
		}
	}
	return k, nil
}

func (r *MemoryNumberRepo) Create(_ context.Context, n *model.Number) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.numbers[n.Code]; ok {
		return ErrDuplicate
	}
	if _, ok := r.st.presenters[n.PresenterCode]; !ok {
		return ErrMissingParent
	}
	stored := *n
	stored.Presenter = nil
	stored.ShowDateTime = stored.ShowDateTime.UTC()
	r.st.numbers[n.Code] = stored
	return nil
}

func (r *MemoryNumberRepo) Update(_ context.Context, n *model.Number) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.numbers[n.Code]; !ok {
		return ErrNotFound
	}
	if _, ok := r.st.presenters[n.PresenterCode]; !ok {
		return ErrMissingParent
	}
	stored := *n
	stored.Presenter = nil
	stored.ShowDateTime = stored.ShowDateTime.UTC()
	r.st.numbers[n.Code] = stored
	return nil
}

// Delete removes the number and cascades to its registrations.
func (r *MemoryNumberRepo) Delete(_ context.Context, code string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.numbers[code]; !ok {
		return ErrNotFound
	}
	delete(r.st.numbers, code)
	for k, reg := range r.st.registrations {
		if reg.NumberCode == code {
			delete(r.st.registrations, k)
		}
	}
	return nil
}

// ---- Registrations ----

// MemoryRegistrationRepo is the in-memory counterpart of RegistrationRepo.
type MemoryRegistrationRepo struct{ st *memState }

func (r *MemoryRegistrationRepo) Find(_ context.Context, userID uint64, numberCode string) (*model.Registration, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	reg, ok := r.st.registrations[registrationKey(userID, numberCode)]
	if !ok {
		return nil, ErrNotFound
	}
	return &reg, nil
}

func (r *MemoryRegistrationRepo) Create(_ context.Context, reg *model.Registration) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	key := registrationKey(reg.UserID, reg.NumberCode)
	if _, ok := r.st.registrations[key]; ok {
		return ErrDuplicate
	}
	if _, ok := r.st.numbers[reg.NumberCode]; !ok {
		return ErrMissingParent
	}
	if _, ok := r.st.users[reg.UserID]; !ok {
		return ErrMissingParent
	}
	stored := *reg
	stored.Number = nil
	stored.User = nil
	stored.RegisteredAt = stored.RegisteredAt.UTC()
	r.st.registrations[key] = stored
	return nil
}

func (r *MemoryRegistrationRepo) Delete(_ context.Context, userID uint64, numberCode string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	key := registrationKey(userID, numberCode)
	if _, ok := r.st.registrations[key]; !ok {
		return ErrNotFound
	}
	delete(r.st.registrations, key)
	return nil
}

func (r *MemoryRegistrationRepo) NumberCodesByUser(_ context.Context, userID uint64) ([]string, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var out []string
	for _, reg := range r.st.registrations {
		if reg.UserID == userID {
			out = append(out, reg.NumberCode)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *MemoryRegistrationRepo) CountByNumber(_ context.Context, numberCode string) (int, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	k := 0
	for _, reg := range r.st.registrations {
		if reg.NumberCode == numberCode {
			k++
		}
	}
	return k, nil
}

// Len returns the total number of registrations stored.
func (r *MemoryRegistrationRepo) Len() int {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	return len(r.st.registrations)
}

func (r *MemoryRegistrationRepo) ListByUser(_ context.Context, userID uint64) ([]model.Registration, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var out []model.Registration
	for _, reg := range r.st.registrations {
		if reg.UserID != userID {
			continue
		}
		n, ok := r.st.numbers[reg.NumberCode]
		if !ok {
			continue
		}
		n = r.st.resolveNumber(n)
		reg.Number = &n
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Number.ShowDateTime.Before(out[j].Number.ShowDateTime)
	})
	return out, nil
}

func (r *MemoryRegistrationRepo) Recent(_ context.Context, limit int) ([]model.Registration, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var out []model.Registration
	for _, reg := range r.st.registrations {
		u, uok := r.st.users[reg.UserID]
		n, nok := r.st.numbers[reg.NumberCode]
		if !uok || !nok {
			continue
		}
		reg.User = &u
		reg.Number = &n
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.After(out[j].RegisteredAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- Users ----

// MemoryUserRepo is the in-memory counterpart of UserRepo.
type MemoryUserRepo struct{ st *memState }

func (r *MemoryUserRepo) Create(_ context.Context, u *model.User, password string, cost int) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, other := range r.st.users {
		if other.Email == u.Email {
			return ErrDuplicate
		}
	}
	r.st.nextUserID++
	now := time.Now().UTC()
	u.ID = r.st.nextUserID
	u.PasswordHash = hash
	u.CreatedAt, u.UpdatedAt = now, now
	r.st.users[u.ID] = *u
	return nil
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	for _, u := range r.st.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id uint64) (model.User, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	u, ok := r.st.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryUserRepo) List(_ context.Context) ([]model.User, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := make([]model.User, 0, len(r.st.users))
	for _, u := range r.st.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryUserRepo) Count(_ context.Context) (int, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	return len(r.st.users), nil
}

func (r *MemoryUserRepo) SetRole(_ context.Context, id uint64, role string) error {
	return r.mutate(id, func(u *model.User) { u.Role = role })
}

func (r *MemoryUserRepo) RecordSignInFailure(_ context.Context, id uint64, attempts int, lockedUntil *time.Time) error {
	return r.mutate(id, func(u *model.User) {
		u.FailedAttempts = attempts
		u.LockedUntil = lockedUntil
	})
}

func (r *MemoryUserRepo) ResetSignInFailures(_ context.Context, id uint64) error {
	return r.mutate(id, func(u *model.User) {
		u.FailedAttempts = 0
		u.LockedUntil = nil
	})
}

func (r *MemoryUserRepo) UpdateProfile(_ context.Context, u *model.User) error {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	cur, ok := r.st.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range r.st.users {
		if id != u.ID && other.Email == email {
			return ErrDuplicate
		}
	}
	cur.FirstName = u.FirstName
	cur.LastName = u.LastName
	cur.Phone = u.Phone
	cur.Email = email
	cur.ProfilePictureURL = u.ProfilePictureURL
	cur.UpdatedAt = time.Now().UTC()
	r.st.users[u.ID] = cur
	u.Email = email
	return nil
}

// Delete removes the account and cascades to its registrations and tokens.
func (r *MemoryUserRepo) Delete(_ context.Context, id uint64) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.st.users, id)
	for k, reg := range r.st.registrations {
		if reg.UserID == id {
			delete(r.st.registrations, k)
		}
	}
	for k, t := range r.st.tokens {
		if t.UserID == id {
			delete(r.st.tokens, k)
		}
	}
	return nil
}

func (r *MemoryUserRepo) mutate(id uint64, fn func(u *model.User)) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	r.st.users[id] = u
	return nil
}

// ---- Refresh tokens ----

// MemoryTokenRepo is the in-memory counterpart of TokenRepo.
type MemoryTokenRepo struct{ st *memState }

func (r *MemoryTokenRepo) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time, persistent bool) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.nextTokenID++
	r.st.tokens[tokenHash] = model.RefreshToken{
		ID:         r.st.nextTokenID,
		UserID:     userID,
		TokenHash:  tokenHash,
		ExpiresAt:  exp,
		Persistent: persistent,
		CreatedAt:  time.Now().UTC(),
	}
	return nil
}

func (r *MemoryTokenRepo) ValidateRefresh(_ context.Context, tokenHash string) (model.RefreshToken, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	t, ok := r.st.tokens[tokenHash]
	if !ok || t.RevokedAt != nil || time.Now().UTC().After(t.ExpiresAt) {
		return model.RefreshToken{}, ErrNotFound
	}
	return t, nil
}

// RevokeByHash returns ErrNotFound when the token is unknown or was
// already revoked.
func (r *MemoryTokenRepo) RevokeByHash(_ context.Context, tokenHash string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	t, ok := r.st.tokens[tokenHash]
	if !ok || t.RevokedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	t.RevokedAt = &now
	r.st.tokens[tokenHash] = t
	return nil
}

func (r *MemoryTokenRepo) RevokeAllForUser(_ context.Context, userID uint64) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	now := time.Now().UTC()
	for k, t := range r.st.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			r.st.tokens[k] = t
		}
	}
	return nil
}
