package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"KeeperMigrate/internal/model"
)

// ItemRepository — записи хранилищ и их вложения.
type ItemRepository interface {
	// SaveItem и SaveAttachment создают запись или перезаписывают существующую с тем же id.
	SaveItem(ctx context.Context, it *model.Item) error
	SaveAttachment(ctx context.Context, a *model.Attachment) error

	GetItem(ctx context.Context, id string) (*model.Item, error)
	// ListItems возвращает записи папки folderID (nil — корень хранилища).
	ListItems(ctx context.Context, vaultID string, folderID *string, p Page) ([]model.Item, int64, error)
	ListAttachments(ctx context.Context, itemID string) ([]model.Attachment, error)
	GetAttachment(ctx context.Context, itemID, id string) (*model.Attachment, error)
}

type itemRepo struct {
	db *gorm.DB
}

// NewItemRepository создаёт реализацию репозитория для Item.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepo{db: db}
}

func (r *itemRepo) SaveItem(ctx context.Context, it *model.Item) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(it).Error
}

func (r *itemRepo) SaveAttachment(ctx context.Context, a *model.Attachment) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(a).Error
}

func (r *itemRepo) GetItem(ctx context.Context, id string) (*model.Item, error) {
	var it model.Item
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *itemRepo) ListItems(ctx context.Context, vaultID string, folderID *string, p Page) ([]model.Item, int64, error) {
	where := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("vault_id = ?", vaultID)
		if folderID == nil {
			return tx.Where("folder_id IS NULL")
		}
		return tx.Where("folder_id = ?", *folderID)
	}
	return list[model.Item](r.db.WithContext(ctx), where, "position, name, id", p)
}

func (r *itemRepo) ListAttachments(ctx context.Context, itemID string) ([]model.Attachment, error) {
	out := []model.Attachment{}
	if err := r.db.WithContext(ctx).Where("item_id = ?", itemID).Order("name, id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *itemRepo) GetAttachment(ctx context.Context, itemID, id string) (*model.Attachment, error) {
	var a model.Attachment
	if err := r.db.WithContext(ctx).Where("id = ? AND item_id = ?", id, itemID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
