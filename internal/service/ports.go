package service

import (
	"context"

	"github.com/iliyamo/presenter-booking/internal/model"
	"github.com/iliyamo/presenter-booking/internal/queue"
)

// RoleStore persists roles.
type RoleStore interface {
	List(ctx context.Context) ([]model.Role, error)
	GetByCode(ctx context.Context, code string) (*model.Role, error)
	Exists(ctx context.Context, code string) (bool, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, r *model.Role) error
	Update(ctx context.Context, r *model.Role) error
	Delete(ctx context.Context, code string) error
}

// PresenterStore persists presenters with their role resolved on read.
type PresenterStore interface {
	List(ctx context.Context) ([]model.Presenter, error)
	ListByRole(ctx context.Context, roleCode string) ([]model.Presenter, error)
	GetByCode(ctx context.Context, code string) (*model.Presenter, error)
	Exists(ctx context.Context, code string) (bool, error)
	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, roleCode string) (int, error)
	Create(ctx context.Context, p *model.Presenter) error
	Update(ctx context.Context, p *model.Presenter) error
	Delete(ctx context.Context, code string) error
}

// NumberStore persists numbers with presenter and role resolved on read.
type NumberStore interface {
	List(ctx context.Context) ([]model.Number, error)
	ListByPresenter(ctx context.Context, presenterCode string) ([]model.Number, error)
	GetByCode(ctx context.Context, code string) (*model.Number, error)
	Exists(ctx context.Context, code string) (bool, error)
	Count(ctx context.Context) (int, error)
	CountByPresenter(ctx context.Context, presenterCode string) (int, error)
	Create(ctx context.Context, n *model.Number) error
	Update(ctx context.Context, n *model.Number) error
	Delete(ctx context.Context, code string) error
}

// RegistrationStore persists registrations.
type RegistrationStore interface {
	Find(ctx context.Context, userID uint64, numberCode string) (*model.Registration, error)
	Create(ctx context.Context, reg *model.Registration) error
	Delete(ctx context.Context, userID uint64, numberCode string) error
	NumberCodesByUser(ctx context.Context, userID uint64) ([]string, error)
	CountByNumber(ctx context.Context, numberCode string) (int, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Registration, error)
	Recent(ctx context.Context, limit int) ([]model.Registration, error)
}

// UserDirectory is the read side of accounts used by the console.
type UserDirectory interface {
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	Count(ctx context.Context) (int, error)
}

// EventPublisher delivers registration events.  Failures never reach the
// caller of a workflow.
type EventPublisher interface {
	PublishRegistration(ctx context.Context, ev queue.RegistrationEvent) error
}

// FileStore keeps uploaded files and returns their public path.
type FileStore interface {
	Save(data []byte, name string) (string, error)
	Delete(publicPath string) error
}
