package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"KeeperMigrate/internal/cli/repo"
)

const (
	// AttachmentsDir — подкаталог с вложениями рядом с файлами записей.
	AttachmentsDir = "attachments"
	// ActivityLogFile — файл журнала действий в корне выгрузки.
	ActivityLogFile = "activity_logs.json"
	// ItemFilePattern — шаблон имени файла записи.
	ItemFilePattern = "item_*.json"

	maxSlugLen = 64
)

// Slug оставляет буквы, цифры и символы "._- " и обрезает результат до 64 символов.
func Slug(name string) string {
	var b strings.Builder
	n := 0
	for _, r := range name {
		if n == maxSlugLen {
			break
		}
		if unicode.IsLetter(r) || unicode.IsNumber(r) || strings.ContainsRune("._- ", r) {
			b.WriteRune(r)
			n++
		}
	}
	return b.String()
}

// SafeName возвращает Slug(name), а если он пуст или состоит только из точек — fallback.
func SafeName(name, fallback string) string {
	s := Slug(name)
	if strings.Trim(s, ".") == "" {
		return fallback
	}
	return s
}

// ItemFileName возвращает имя файла записи с указанным id.
func ItemFileName(id string) string {
	return "item_" + SafeName(id, "unknown") + ".json"
}

// TreeStore — файловое хранилище дерева выгрузки.
type TreeStore struct {
	root string
}

var _ repo.ExportTree = (*TreeStore)(nil)

// NewTreeStore создаёт корень выгрузки (если его нет) и возвращает хранилище.
func NewTreeStore(root string) (*TreeStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, err
	}
	return &TreeStore{root: abs}, nil
}

func (s *TreeStore) Root() string { return s.root }

func (s *TreeStore) EnsureDir(dir string) error {
	return os.MkdirAll(s.path(dir), 0o700)
}

func (s *TreeStore) WriteItem(dir, id string, item any) (string, error) {
	p := filepath.Join(s.path(dir), ItemFileName(id))
	return p, writeJSON(p, item)
}

func (s *TreeStore) WriteAttachment(dir, name string, data []byte) (string, error) {
	adir := filepath.Join(s.path(dir), AttachmentsDir)
	if err := os.MkdirAll(adir, 0o700); err != nil {
		return "", err
	}
	p := filepath.Join(adir, name)
	return p, os.WriteFile(p, data, 0o600)
}

func (s *TreeStore) WriteActivityLogs(logs any) (string, error) {
	p := filepath.Join(s.root, ActivityLogFile)
	return p, writeJSON(p, logs)
}

func (s *TreeStore) path(dir string) string {
	return filepath.Join(s.root, dir)
}

// writeJSON пишет v с отступом в два пробела, не экранируя не-ASCII и HTML-символы.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
