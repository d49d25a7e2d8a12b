package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	fsrepo "KeeperMigrate/internal/cli/repo/fs"
	"KeeperMigrate/internal/keeper"
)

// ErrExportDirNotFound — каталог выгрузки не существует.
var ErrExportDirNotFound = errors.New("export directory not found")

const (
	untitled = "Untitled"

	activityLogTitle  = "Passwork Activity Log"
	activityLogNotes  = "Original activity_logs.json from Passwork export"
	activityLogFolder = "Passwork_Archive"
)

// ScanResult — записи, собранные при обходе выгрузки.
type ScanResult struct {
	Records []keeper.Record
	// Skipped — число файлов записей, которые не удалось разобрать.
	Skipped int
	// ActivityLog — в результат добавлена запись с журналом действий.
	ActivityLog bool
}

// Converter преобразует дерево выгрузки Passwork в документ импорта Keeper.
// Ошибки отдельных записей и вложений логируются и не прерывают конвертацию.
type Converter struct {
	root   string
	logger *zap.SugaredLogger
}

// NewConverter проверяет, что каталог выгрузки существует.
func NewConverter(root string, logger *zap.SugaredLogger) (*Converter, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(abs)
	if err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w: %s (set PASSWORK_EXPORT_DIR or run export first)", ErrExportDirNotFound, abs)
	}
	return &Converter{root: abs, logger: logger}, nil
}

// Root возвращает абсолютный путь каталога выгрузки.
func (c *Converter) Root() string { return c.root }

// Run собирает записи и записывает документ импорта в outPath.
// Возвращает число записанных записей.
func (c *Converter) Run(ctx context.Context, outPath string) (int, error) {
	res, err := c.Scan(ctx)
	if err != nil {
		return 0, err
	}
	if err := keeper.Write(outPath, keeper.Document{Records: res.Records}); err != nil {
		return 0, fmt.Errorf("write %s: %w", outPath, err)
	}
	return len(res.Records), nil
}

// Scan обходит выгрузку и возвращает записи Keeper; журнал действий добавляется последним.
func (c *Converter) Scan(ctx context.Context) (ScanResult, error) {
	var res ScanResult
	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			c.logger.Warnw("cannot read path, skipped", "path", path, "error", err)
			if d != nil && d.IsDir() && path != c.root {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			// вложения подтягиваются из записи, сами они не записи
			if path != c.root && d.Name() == fsrepo.AttachmentsDir {
				return fs.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(fsrepo.ItemFilePattern, d.Name()); !ok {
			return nil
		}
		rec, err := c.convertFile(path)
		if err != nil {
			c.logger.Warnw("skipping item file", "path", path, "error", err)
			res.Skipped++
			return nil
		}
		res.Records = append(res.Records, rec)
		return nil
	})
	if err != nil {
		return res, err
	}

	logPath := filepath.Join(c.root, fsrepo.ActivityLogFile)
	if rec, ok := c.activityLogRecord(logPath); ok {
		res.Records = append(res.Records, rec)
		res.ActivityLog = true
	}
	return res, nil
}

func (c *Converter) convertFile(path string) (keeper.Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return keeper.Record{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return keeper.Record{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return keeper.Record{}, errors.New("unexpected data after JSON object")
	}
	if data == nil {
		return keeper.Record{}, errors.New("item is not a JSON object")
	}

	rel, err := filepath.Rel(c.root, filepath.Dir(path))
	if err != nil {
		return keeper.Record{}, err
	}
	rec := MapRecord(data, FolderPath(rel), c.logger)
	rec.Files = c.inlineAttachments(filepath.Join(filepath.Dir(path), fsrepo.AttachmentsDir))
	return rec, nil
}

// FolderPath собирает путь папки Keeper из пути каталога относительно корня выгрузки.
// Корень выгрузки ("." или "") даёт пустой путь.
func FolderPath(rel string) string {
	rel = filepath.ToSlash(filepath.Clean(rel))
	if rel == "." || rel == "" {
		return ""
	}
	return strings.Join(strings.Split(rel, "/"), keeper.FolderSeparator)
}

// MapRecord переносит поля записи Passwork в запись Keeper.
// Каждое поле берётся из первого непустого кандидата.
func MapRecord(data map[string]any, folderPath string, logger *zap.SugaredLogger) keeper.Record {
	rec := keeper.Record{
		Title:        firstOf(data, "title", "name"),
		Login:        firstOf(data, "login", "username"),
		Password:     firstOf(data, "password"),
		LoginURL:     firstOf(data, "url", "link"),
		Notes:        firstOf(data, "description", "notes"),
		CustomFields: customFields(data["customFields"], logger),
	}
	if rec.Title == "" {
		rec.Title = untitled
	}
	if totp := data["totp"]; truthy(totp) {
		rec.CustomFields[keeper.OneTimeCodeField] = stringify(totp)
	}
	if folderPath != "" {
		rec.Folders = []keeper.Folder{{Folder: folderPath}}
	}
	return rec
}

// customFields строит словарь из списка {name, value}; при повторе имени побеждает последнее.
func customFields(raw any, logger *zap.SugaredLogger) map[string]string {
	out := map[string]string{}
	list, ok := raw.([]any)
	if !ok {
		return out
	}
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			logger.Warnw("custom field is not an object, skipped", "value", entry)
			continue
		}
		name, ok := m["name"]
		if !ok {
			logger.Warnw("custom field without name, skipped", "value", m)
			continue
		}
		out[stringify(name)] = stringify(m["value"])
	}
	return out
}

func (c *Converter) inlineAttachments(dir string) []keeper.File {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warnw("cannot list attachments", "dir", dir, "error", err)
		}
		return nil
	}
	var files []keeper.File
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if e.IsDir() {
			c.logger.Warnw("could not encode attachment: is a directory", "path", p)
			continue
		}
		b, err := os.ReadFile(p)
		if err != nil {
			c.logger.Warnw("could not encode attachment", "path", p, "error", err)
			continue
		}
		files = append(files, keeper.File{Name: e.Name(), Data: base64.StdEncoding.EncodeToString(b)})
	}
	return files
}

// activityLogRecord упаковывает сырой журнал действий в отдельную запись архива.
func (c *Converter) activityLogRecord(path string) (keeper.Record, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warnw("cannot read activity log", "path", path, "error", err)
		}
		return keeper.Record{}, false
	}
	return keeper.Record{
		Title:        activityLogTitle,
		Notes:        activityLogNotes,
		CustomFields: map[string]string{},
		Folders:      []keeper.Folder{{Folder: activityLogFolder}},
		Files: []keeper.File{{
			Name: fsrepo.ActivityLogFile,
			Data: base64.StdEncoding.EncodeToString(b),
		}},
	}, true
}

// firstOf возвращает первое непустое значение среди ключей в виде строки.
func firstOf(data map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := data[k]; truthy(v) {
			return stringify(v)
		}
	}
	return ""
}

// truthy: null, "", false, 0, пустые список и объект считаются отсутствующим значением.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case float64:
		return x != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
