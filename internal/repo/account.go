package repo

import (
	"context"

	"gorm.io/gorm"

	"KeeperMigrate/internal/model"
)

// AccountRepository — доступ к аккаунтам песочницы.
type AccountRepository interface {
	Create(ctx context.Context, a *model.Account) error
	Update(ctx context.Context, a *model.Account) error
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	GetByName(ctx context.Context, name string) (*model.Account, error)
	// All возвращает все аккаунты: ключ хранится как bcrypt-хеш, поиск по нему невозможен.
	All(ctx context.Context) ([]model.Account, error)
}

type accountRepo struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) Create(ctx context.Context, a *model.Account) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *accountRepo) Update(ctx context.Context, a *model.Account) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *accountRepo) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	var a model.Account
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepo) GetByName(ctx context.Context, name string) (*model.Account, error) {
	var a model.Account
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepo) All(ctx context.Context) ([]model.Account, error) {
	var out []model.Account
	if err := r.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
