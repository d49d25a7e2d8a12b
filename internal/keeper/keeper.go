// Package keeper describes Keeper's JSON bulk-import document.
package keeper

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FolderSeparator разделяет уровни вложенности в пути папки Keeper.
const FolderSeparator = `\`

// OneTimeCodeField — зарезервированное имя custom field, которое Keeper
// показывает как генератор одноразовых кодов.
const OneTimeCodeField = "$oneTimeCode"

// Folder — размещение записи в дереве папок Keeper.
type Folder struct {
	Folder string `json:"folder"`
}

// File — вложение, встроенное в документ как base64.
type File struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// Record — одна запись импорта.
type Record struct {
	Title        string            `json:"title"`
	Login        string            `json:"login"`
	Password     string            `json:"password"`
	LoginURL     string            `json:"login_url"`
	Notes        string            `json:"notes"`
	CustomFields map[string]string `json:"custom_fields"`
	Folders      []Folder          `json:"folders,omitempty"`
	Files        []File            `json:"files,omitempty"`
}

// Document — корневой объект файла импорта.
type Document struct {
	Records []Record `json:"records"`
}

// Encode пишет документ с отступом в два пробела, не экранируя не-ASCII и HTML-символы.
func Encode(w io.Writer, doc Document) error {
	if doc.Records == nil {
		doc.Records = []Record{}
	}
	for i := range doc.Records {
		if doc.Records[i].CustomFields == nil {
			doc.Records[i].CustomFields = map[string]string{}
		}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Write пересоздаёт файл path с документом doc.
func Write(path string, doc Document) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, doc); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
