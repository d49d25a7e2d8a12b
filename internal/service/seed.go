package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"KeeperMigrate/internal/crypto"
	"KeeperMigrate/internal/model"
	"KeeperMigrate/internal/repo"
)

// seedNamespace — пространство имён для стабильных UUID объектов без явного id.
var seedNamespace = uuid.MustParse("5b1f3c1e-8a4e-4c55-9b7e-0f2a6d3c9e41")

// Seed — YAML-фикстура песочницы.
type Seed struct {
	Accounts []SeedAccount `yaml:"accounts"`
}

type SeedAccount struct {
	Name           string           `yaml:"name"`
	APIKey         string           `yaml:"apiKey"`
	MasterPassword string           `yaml:"masterPassword"`
	Vaults         []SeedVault      `yaml:"vaults"`
	ActivityLogs   []map[string]any `yaml:"activityLogs"`
}

type SeedVault struct {
	ID      string       `yaml:"id"`
	Name    string       `yaml:"name"`
	Folders []SeedFolder `yaml:"folders"`
	Items   []SeedItem   `yaml:"items"`
}

type SeedFolder struct {
	ID      string       `yaml:"id"`
	Name    string       `yaml:"name"`
	Folders []SeedFolder `yaml:"folders"`
	Items   []SeedItem   `yaml:"items"`
}

// SeedItem — запись; Fields попадают в ответ API как есть, Password запечатывается.
type SeedItem struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	Password    string           `yaml:"password"`
	Fields      map[string]any   `yaml:"fields"`
	Attachments []SeedAttachment `yaml:"attachments"`
}

// SeedAttachment — содержимое задаётся текстом или base64 (приоритет у base64).
type SeedAttachment struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Text   string `yaml:"text"`
	Base64 string `yaml:"base64"`
}

// SeedStats — сколько объектов загружено.
type SeedStats struct {
	Accounts     int
	Vaults       int
	Folders      int
	Items        int
	Attachments  int
	ActivityLogs int
}

// LoadSeed читает фикстуру из файла.
func LoadSeed(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseSeed(f)
}

// ParseSeed разбирает фикстуру; неизвестные ключи считаются ошибкой.
func ParseSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Seed
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for i, a := range s.Accounts {
		if a.Name == "" || a.APIKey == "" || a.MasterPassword == "" {
			return nil, fmt.Errorf("parse seed: account #%d: name, apiKey and masterPassword are required", i+1)
		}
	}
	return &s, nil
}

// Seeder загружает фикстуру в БД. Повторная загрузка той же фикстуры перезаписывает объекты.
type Seeder struct {
	accounts repo.AccountRepository
	vaults   repo.VaultRepository
	items    repo.ItemRepository
	logs     repo.ActivityLogRepository
	logger   *zap.SugaredLogger
}

func NewSeeder(accounts repo.AccountRepository, vaults repo.VaultRepository, items repo.ItemRepository, logs repo.ActivityLogRepository, logger *zap.SugaredLogger) *Seeder {
	return &Seeder{accounts: accounts, vaults: vaults, items: items, logs: logs, logger: logger}
}

// seedCtx — состояние загрузки одного аккаунта.
type seedCtx struct {
	account *model.Account
	key     []byte
	stats   *SeedStats
}

func (s *Seeder) Apply(ctx context.Context, seed *Seed) (SeedStats, error) {
	var stats SeedStats
	for _, sa := range seed.Accounts {
		acc, created, err := s.saveAccount(ctx, sa)
		if err != nil {
			return stats, fmt.Errorf("account %s: %w", sa.Name, err)
		}
		stats.Accounts++
		sc := &seedCtx{account: acc, key: crypto.DeriveKey(sa.MasterPassword, acc.MasterSalt), stats: &stats}

		for i, sv := range sa.Vaults {
			if err := s.saveVault(ctx, sc, sv, i); err != nil {
				return stats, fmt.Errorf("account %s: %w", sa.Name, err)
			}
		}

		// журнал из фикстуры добавляется только при создании аккаунта, чтобы не дублироваться
		if created {
			for _, entry := range sa.ActivityLogs {
				b, err := json.Marshal(entry)
				if err != nil {
					return stats, fmt.Errorf("account %s: activity log: %w", sa.Name, err)
				}
				if err := s.logs.Append(ctx, &model.ActivityLog{AccountID: acc.ID, Payload: string(b)}); err != nil {
					return stats, err
				}
				stats.ActivityLogs++
			}
		}
		s.logger.Infow("seeded account", "account", sa.Name, "id", acc.ID, "created", created)
	}
	return stats, nil
}

// saveAccount создаёт аккаунт или обновляет ключи существующего, сохраняя его соль.
func (s *Seeder) saveAccount(ctx context.Context, sa SeedAccount) (*model.Account, bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(sa.APIKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, err
	}

	acc, err := s.accounts.GetByName(ctx, sa.Name)
	created := false
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		salt, err := crypto.NewSalt()
		if err != nil {
			return nil, false, err
		}
		acc = &model.Account{Name: sa.Name, MasterSalt: salt}
		created = true
	case err != nil:
		return nil, false, err
	}

	check, err := crypto.Seal([]byte(crypto.CheckPhrase), crypto.DeriveKey(sa.MasterPassword, acc.MasterSalt))
	if err != nil {
		return nil, false, err
	}
	acc.APIKeyHash = string(hash)
	acc.MasterCheck = check

	if created {
		err = s.accounts.Create(ctx, acc)
	} else {
		err = s.accounts.Update(ctx, acc)
	}
	return acc, created, err
}

func (s *Seeder) saveVault(ctx context.Context, sc *seedCtx, sv SeedVault, pos int) error {
	path := sc.account.Name + "/" + strconv.Itoa(pos) + ":" + sv.Name
	v := &model.Vault{ID: idOr(sv.ID, path), AccountID: sc.account.ID, Name: sv.Name, Position: pos}
	if err := s.vaults.SaveVault(ctx, v); err != nil {
		return fmt.Errorf("vault %s: %w", sv.Name, err)
	}
	sc.stats.Vaults++
	return s.saveChildren(ctx, sc, v.ID, nil, path, sv.Folders, sv.Items)
}

func (s *Seeder) saveChildren(ctx context.Context, sc *seedCtx, vaultID string, parentID *string, path string, folders []SeedFolder, items []SeedItem) error {
	for i, it := range items {
		if err := s.saveItem(ctx, sc, vaultID, parentID, path+"/item"+strconv.Itoa(i), it, i); err != nil {
			return err
		}
	}
	for i, sf := range folders {
		fpath := path + "/" + strconv.Itoa(i) + ":" + sf.Name
		f := &model.Folder{ID: idOr(sf.ID, fpath), VaultID: vaultID, ParentID: parentID, Name: sf.Name, Position: i}
		if err := s.vaults.SaveFolder(ctx, f); err != nil {
			return fmt.Errorf("folder %s: %w", sf.Name, err)
		}
		sc.stats.Folders++
		id := f.ID
		if err := s.saveChildren(ctx, sc, vaultID, &id, fpath, sf.Folders, sf.Items); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) saveItem(ctx context.Context, sc *seedCtx, vaultID string, folderID *string, path string, si SeedItem, pos int) error {
	fields := map[string]any{}
	for k, v := range si.Fields {
		fields[k] = v
	}
	password := si.Password
	// открытый пароль в полях тоже запечатывается
	if p, ok := fields["password"].(string); ok && password == "" {
		password = p
	}
	delete(fields, "password")
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("item %s: fields: %w", si.Name, err)
	}

	it := &model.Item{
		ID:       idOr(si.ID, path+":"+si.Name),
		VaultID:  vaultID,
		FolderID: folderID,
		Name:     si.Name,
		Fields:   string(fieldsJSON),
		Position: pos,
	}
	if password != "" {
		if it.PasswordSealed, err = crypto.Seal([]byte(password), sc.key); err != nil {
			return fmt.Errorf("item %s: seal password: %w", si.Name, err)
		}
	}
	if err := s.items.SaveItem(ctx, it); err != nil {
		return fmt.Errorf("item %s: %w", si.Name, err)
	}
	sc.stats.Items++

	for i, sa := range si.Attachments {
		data := []byte(sa.Text)
		if sa.Base64 != "" {
			if data, err = base64.StdEncoding.DecodeString(sa.Base64); err != nil {
				return fmt.Errorf("attachment %s: %w", sa.Name, err)
			}
		}
		sealed, err := crypto.Seal(data, sc.key)
		if err != nil {
			return fmt.Errorf("attachment %s: seal: %w", sa.Name, err)
		}
		a := &model.Attachment{
			ID:         idOr(sa.ID, it.ID+"/"+strconv.Itoa(i)+":"+sa.Name),
			ItemID:     it.ID,
			Name:       sa.Name,
			DataSealed: sealed,
		}
		if err := s.items.SaveAttachment(ctx, a); err != nil {
			return fmt.Errorf("attachment %s: %w", sa.Name, err)
		}
		sc.stats.Attachments++
	}
	return nil
}

func idOr(id, path string) string {
	if id != "" {
		return id
	}
	return uuid.NewSHA1(seedNamespace, []byte(path)).String()
}
