package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"KeeperMigrate/internal/model"
)

// VaultRepository — хранилища и дерево папок.
type VaultRepository interface {
	// SaveVault и SaveFolder создают запись или перезаписывают существующую с тем же id.
	SaveVault(ctx context.Context, v *model.Vault) error
	SaveFolder(ctx context.Context, f *model.Folder) error

	GetVault(ctx context.Context, accountID int64, id string) (*model.Vault, error)
	GetFolder(ctx context.Context, vaultID, id string) (*model.Folder, error)
	ListVaults(ctx context.Context, accountID int64, p Page) ([]model.Vault, int64, error)
	// ListFolders возвращает дочерние папки parentID (nil — верхний уровень хранилища).
	ListFolders(ctx context.Context, vaultID string, parentID *string, p Page) ([]model.Folder, int64, error)
}

type vaultRepo struct {
	db *gorm.DB
}

func NewVaultRepository(db *gorm.DB) VaultRepository {
	return &vaultRepo{db: db}
}

func (r *vaultRepo) SaveVault(ctx context.Context, v *model.Vault) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(v).Error
}

func (r *vaultRepo) SaveFolder(ctx context.Context, f *model.Folder) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(f).Error
}

func (r *vaultRepo) GetVault(ctx context.Context, accountID int64, id string) (*model.Vault, error) {
	var v model.Vault
	if err := r.db.WithContext(ctx).Where("id = ? AND account_id = ?", id, accountID).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vaultRepo) GetFolder(ctx context.Context, vaultID, id string) (*model.Folder, error) {
	var f model.Folder
	if err := r.db.WithContext(ctx).Where("id = ? AND vault_id = ?", id, vaultID).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *vaultRepo) ListVaults(ctx context.Context, accountID int64, p Page) ([]model.Vault, int64, error) {
	where := func(tx *gorm.DB) *gorm.DB { return tx.Where("account_id = ?", accountID) }
	return list[model.Vault](r.db.WithContext(ctx), where, "position, name, id", p)
}

func (r *vaultRepo) ListFolders(ctx context.Context, vaultID string, parentID *string, p Page) ([]model.Folder, int64, error) {
	where := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("vault_id = ?", vaultID)
		if parentID == nil {
			return tx.Where("parent_id IS NULL")
		}
		return tx.Where("parent_id = ?", *parentID)
	}
	return list[model.Folder](r.db.WithContext(ctx), where, "position, name, id", p)
}
