package repo

import (
	"context"

	"gorm.io/gorm"

	"KeeperMigrate/internal/model"
)

// ActivityLogRepository — журнал действий аккаунта.
type ActivityLogRepository interface {
	Append(ctx context.Context, l *model.ActivityLog) error
	// List возвращает записи аккаунта в порядке добавления.
	List(ctx context.Context, accountID int64, p Page) ([]model.ActivityLog, int64, error)
}

type activityLogRepo struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Append(ctx context.Context, l *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *activityLogRepo) List(ctx context.Context, accountID int64, p Page) ([]model.ActivityLog, int64, error) {
	where := func(tx *gorm.DB) *gorm.DB { return tx.Where("account_id = ?", accountID) }
	return list[model.ActivityLog](r.db.WithContext(ctx), where, "id", p)
}
