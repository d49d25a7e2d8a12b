package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"KeeperMigrate/internal/model"
	"KeeperMigrate/internal/repo"
)

// ErrNotFound — объект не существует или принадлежит другому аккаунту.
var ErrNotFound = errors.New("not found")

type VaultDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type FolderDTO struct {
	ID       string  `json:"id"`
	VaultID  string  `json:"vaultId"`
	Name     string  `json:"name"`
	ParentID *string `json:"parentId,omitempty"`
}

type ItemRefDTO struct {
	ID       string  `json:"id"`
	VaultID  string  `json:"vaultId"`
	Name     string  `json:"name"`
	FolderID *string `json:"folderId,omitempty"`
}

type AttachmentDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	EncryptedData string `json:"encryptedData"`
}

// VaultService отдаёт содержимое хранилищ аккаунта. Секреты не расшифровываются:
// клиент получает их запечатанными мастер-ключом.
type VaultService struct {
	vaults repo.VaultRepository
	items  repo.ItemRepository
	logs   repo.ActivityLogRepository
}

func NewVaultService(vaults repo.VaultRepository, items repo.ItemRepository, logs repo.ActivityLogRepository) *VaultService {
	return &VaultService{vaults: vaults, items: items, logs: logs}
}

func (s *VaultService) Vaults(ctx context.Context, accountID int64, p repo.Page) ([]VaultDTO, int64, error) {
	vs, total, err := s.vaults.ListVaults(ctx, accountID, p)
	if err != nil {
		return nil, 0, err
	}
	out := make([]VaultDTO, 0, len(vs))
	for _, v := range vs {
		out = append(out, VaultDTO{ID: v.ID, Name: v.Name})
	}
	return out, total, nil
}

func (s *VaultService) Folders(ctx context.Context, accountID int64, vaultID string, parentID *string, p repo.Page) ([]FolderDTO, int64, error) {
	if err := s.checkVault(ctx, accountID, vaultID); err != nil {
		return nil, 0, err
	}
	fs, total, err := s.vaults.ListFolders(ctx, vaultID, parentID, p)
	if err != nil {
		return nil, 0, err
	}
	out := make([]FolderDTO, 0, len(fs))
	for _, f := range fs {
		out = append(out, FolderDTO{ID: f.ID, VaultID: f.VaultID, Name: f.Name, ParentID: f.ParentID})
	}
	return out, total, nil
}

func (s *VaultService) Items(ctx context.Context, accountID int64, vaultID string, folderID *string, p repo.Page) ([]ItemRefDTO, int64, error) {
	if err := s.checkVault(ctx, accountID, vaultID); err != nil {
		return nil, 0, err
	}
	its, total, err := s.items.ListItems(ctx, vaultID, folderID, p)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ItemRefDTO, 0, len(its))
	for _, it := range its {
		out = append(out, ItemRefDTO{ID: it.ID, VaultID: it.VaultID, Name: it.Name, FolderID: it.FolderID})
	}
	return out, total, nil
}

// Item собирает полную запись: произвольные поля, служебные поля, cryptedPassword и список вложений.
func (s *VaultService) Item(ctx context.Context, accountID int64, id string) (map[string]any, error) {
	it, err := s.ownedItem(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if it.Fields != "" {
		if err := json.Unmarshal([]byte(it.Fields), &out); err != nil {
			return nil, fmt.Errorf("item %s: decode fields: %w", id, err)
		}
	}
	out["id"] = it.ID
	out["name"] = it.Name
	out["vaultId"] = it.VaultID
	if it.FolderID != nil {
		out["folderId"] = *it.FolderID
	}
	if it.PasswordSealed != "" {
		out["cryptedPassword"] = it.PasswordSealed
	}
	atts, err := s.items.ListAttachments(ctx, it.ID)
	if err != nil {
		return nil, err
	}
	refs := make([]map[string]string, 0, len(atts))
	for _, a := range atts {
		refs = append(refs, map[string]string{"id": a.ID, "name": a.Name})
	}
	out["attachments"] = refs

	if err := appendEvent(ctx, s.logs, accountID, map[string]any{"event": "item.read", "itemId": it.ID}); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *VaultService) Attachment(ctx context.Context, accountID int64, itemID, attachmentID string) (*AttachmentDTO, error) {
	if _, err := s.ownedItem(ctx, accountID, itemID); err != nil {
		return nil, err
	}
	a, err := s.items.GetAttachment(ctx, itemID, attachmentID)
	if err != nil {
		return nil, notFound(err)
	}
	event := map[string]any{"event": "attachment.read", "itemId": itemID, "attachmentId": a.ID}
	if err := appendEvent(ctx, s.logs, accountID, event); err != nil {
		return nil, err
	}
	return &AttachmentDTO{ID: a.ID, Name: a.Name, EncryptedData: a.DataSealed}, nil
}

// ActivityLogs возвращает журнал действий аккаунта как исходные JSON-объекты.
func (s *VaultService) ActivityLogs(ctx context.Context, accountID int64, p repo.Page) ([]json.RawMessage, int64, error) {
	logs, total, err := s.logs.List(ctx, accountID, p)
	if err != nil {
		return nil, 0, err
	}
	out := make([]json.RawMessage, 0, len(logs))
	for _, l := range logs {
		out = append(out, json.RawMessage(l.Payload))
	}
	return out, total, nil
}

func (s *VaultService) checkVault(ctx context.Context, accountID int64, vaultID string) error {
	_, err := s.vaults.GetVault(ctx, accountID, vaultID)
	return notFound(err)
}

func (s *VaultService) ownedItem(ctx context.Context, accountID int64, id string) (*model.Item, error) {
	it, err := s.items.GetItem(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.checkVault(ctx, accountID, it.VaultID); err != nil {
		return nil, err
	}
	return it, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
