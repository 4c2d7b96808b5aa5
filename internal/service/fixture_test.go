package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/presenter-booking/internal/identity"
	"github.com/iliyamo/presenter-booking/internal/metrics"
	"github.com/iliyamo/presenter-booking/internal/model"
	"github.com/iliyamo/presenter-booking/internal/queue"
	"github.com/iliyamo/presenter-booking/internal/repository"
	"github.com/iliyamo/presenter-booking/internal/validation"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.RegistrationEvent
	err    error
}

func (p *recordingPublisher) PublishRegistration(_ context.Context, ev queue.RegistrationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type memFiles struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
}

func newMemFiles() *memFiles { return &memFiles{files: map[string][]byte{}} }

func (f *memFiles) Save(data []byte, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	p := "/uploads/" + name
	f.files[p] = data
	return p, nil
}

func (f *memFiles) Delete(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, p)
	return nil
}

func (f *memFiles) has(p string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[p]
	return ok
}

// failingIdentity fails SaveProfile after delegating everything else.
type failingIdentity struct {
	*identity.Service
	saveErr error
}

func (f *failingIdentity) SaveProfile(ctx context.Context, u *model.User) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Service.SaveProfile(ctx, u)
}

var errBoom = errors.New("boom")

type fixture struct {
	ctx   context.Context
	store *repository.Memory
	m     *metrics.Metrics
	pub   *recordingPublisher
	files *memFiles
	ident *identity.Service

	roles         *RoleService
	presenters    *PresenterService
	numbers       *NumberService
	registrations *RegistrationService
	showcase      *ShowcaseService
	dashboard     *DashboardService
	accounts      *AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemory()
	v := validation.New(store.Roles, store.Presenters, store.Numbers,
		store.Presenters.CountByRole, store.Numbers.CountByPresenter)
	f := &fixture{
		ctx:   context.Background(),
		store: store,
		m:     metrics.New(),
		pub:   &recordingPublisher{},
		files: newMemFiles(),
	}
	f.ident = identity.New(store.Users, store.Tokens, identity.Config{
		JWTSecret:    "test-secret",
		AccessTTLMin: 15,
		BcryptCost:   4,
		MaxFailures:  3,
	})
	f.roles = NewRoleService(store.Roles, v, f.m)
	f.presenters = NewPresenterService(store.Presenters, v, f.m)
	f.numbers = NewNumberService(store.Numbers, store.Registrations, v, f.m)
	f.registrations = NewRegistrationService(store.Numbers, store.Registrations, f.pub, f.m)
	f.showcase = NewShowcaseService(store.Numbers, store.Registrations)
	f.dashboard = NewDashboardService(store.Roles, store.Presenters, store.Numbers, store.Registrations, store.Users)
	f.accounts = NewAccountService(f.ident, f.files, f.m)
	return f
}

// user creates an account with the User role and returns its principal.
func (f *fixture) user(t *testing.T, email string) model.Principal {
	t.Helper()
	res, err := f.accounts.RegisterAccount(f.ctx, SignUp{
		FirstName: "Test", LastName: "User", Email: email, Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	return model.Principal{UserID: res.Entity.User.ID, Role: model.RoleUser}
}

// catalog creates role CLW, presenter P001 and number N1 tomorrow.
func (f *fixture) catalog(t *testing.T) {
	t.Helper()
	_, err := f.roles.Create(f.ctx, model.Role{Code: "CLW", Label: "Clown", PriceCents: 15000})
	require.NoError(t, err)
	_, err = f.presenters.Create(f.ctx, model.Presenter{Code: "P001", Name: "Jean", RoleCode: "CLW"})
	require.NoError(t, err)
	f.number(t, "N1", "Show", 24*time.Hour)
}

func (f *fixture) number(t *testing.T, code, title string, in time.Duration) {
	t.Helper()
	_, err := f.numbers.Create(f.ctx, model.Number{
		Code:            code,
		Title:           title,
		DurationMinutes: 30,
		PresenterCode:   "P001",
		ShowDateTime:    time.Now().Add(in),
	})
	require.NoError(t, err)
}
