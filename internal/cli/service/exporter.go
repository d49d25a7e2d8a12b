package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"KeeperMigrate/internal/cli/api"
	"KeeperMigrate/internal/cli/model"
	crepo "KeeperMigrate/internal/cli/repo"
	fsrepo "KeeperMigrate/internal/cli/repo/fs"
)

// ExportSummary — итог выгрузки.
type ExportSummary struct {
	Root         string
	Vaults       int
	Folders      int
	Items        int
	Attachments  int
	ActivityLogs int
}

// folderTask — элемент очереди обхода: папка (nil — корень хранилища)
// и каталог выгрузки, в который она отображается.
type folderTask struct {
	folderID *string
	dir      string
}

// folderQueue — FIFO-очередь обхода дерева папок в ширину.
type folderQueue struct {
	tasks []folderTask
}

func (q *folderQueue) push(t folderTask) { q.tasks = append(q.tasks, t) }

func (q *folderQueue) pop() (folderTask, bool) {
	if len(q.tasks) == 0 {
		return folderTask{}, false
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	return t, true
}

// Exporter выгружает все хранилища Passwork в дерево каталогов.
// Любая ошибка API или записи прерывает выгрузку.
type Exporter struct {
	client api.Client
	tree   crepo.ExportTree
	logger *zap.SugaredLogger
	out    io.Writer
}

// NewExporter создаёт экспортёр. out получает строки прогресса для пользователя.
func NewExporter(client api.Client, tree crepo.ExportTree, logger *zap.SugaredLogger, out io.Writer) *Exporter {
	if out == nil {
		out = io.Discard
	}
	return &Exporter{client: client, tree: tree, logger: logger, out: out}
}

// Run авторизуется, обходит хранилища → папки → записи и сохраняет журнал действий.
func (e *Exporter) Run(ctx context.Context, apiKey, masterPassword string) (ExportSummary, error) {
	sum := ExportSummary{Root: e.tree.Root()}

	if err := e.client.Authorize(ctx, apiKey, masterPassword); err != nil {
		return sum, fmt.Errorf("authorize: %w", err)
	}

	fmt.Fprintln(e.out, "▶ listing vaults …")
	vaults, err := e.client.Vaults(ctx)
	if err != nil {
		return sum, fmt.Errorf("list vaults: %w", err)
	}
	for _, v := range vaults {
		if err := e.exportVault(ctx, v, &sum); err != nil {
			return sum, err
		}
		sum.Vaults++
	}

	fmt.Fprintln(e.out, "▶ pulling activity logs …")
	logs, err := e.client.ActivityLogs(ctx)
	if err != nil {
		return sum, fmt.Errorf("list activity logs: %w", err)
	}
	if _, err := e.tree.WriteActivityLogs(logs); err != nil {
		return sum, fmt.Errorf("write activity logs: %w", err)
	}
	sum.ActivityLogs = len(logs)

	fmt.Fprintf(e.out, "✔ finished.  Data saved under %s\n", sum.Root)
	return sum, nil
}

func (e *Exporter) exportVault(ctx context.Context, v model.Vault, sum *ExportSummary) error {
	root := fsrepo.SafeName(v.Name, "vault_"+v.ID)
	fmt.Fprintf(e.out, "  └─ vault %s (%s)\n", root, v.ID)

	q := &folderQueue{}
	q.push(folderTask{dir: root})
	for {
		task, ok := q.pop()
		if !ok {
			return nil
		}
		if err := e.tree.EnsureDir(task.dir); err != nil {
			return fmt.Errorf("create %s: %w", task.dir, err)
		}

		subs, err := e.client.Folders(ctx, v.ID, task.folderID)
		if err != nil {
			return fmt.Errorf("list folders of vault %s: %w", v.ID, err)
		}
		for _, sub := range subs {
			id := sub.ID
			q.push(folderTask{
				folderID: &id,
				dir:      filepath.Join(task.dir, fsrepo.SafeName(sub.Name, "folder_"+sub.ID)),
			})
			sum.Folders++
		}

		refs, err := e.client.Items(ctx, v.ID, task.folderID)
		if err != nil {
			return fmt.Errorf("list items of vault %s: %w", v.ID, err)
		}
		for _, ref := range refs {
			if !sameFolder(ref.FolderID, task.folderID) {
				e.logger.Debugw("item belongs to another folder, skipped here", "item", ref.ID, "folder", ref.FolderID)
				continue
			}
			if err := e.exportItem(ctx, task.dir, ref, sum); err != nil {
				return err
			}
		}
	}
}

func (e *Exporter) exportItem(ctx context.Context, dir string, ref model.ItemRef, sum *ExportSummary) error {
	item, err := e.client.Item(ctx, ref.ID)
	if err != nil {
		return fmt.Errorf("get item %s: %w", ref.ID, err)
	}
	id := item.ID()
	if id == "" {
		id = ref.ID
	}
	path, err := e.tree.WriteItem(dir, id, item)
	if err != nil {
		return fmt.Errorf("write item %s: %w", id, err)
	}
	e.logger.Debugw("item exported", "item", id, "path", path)
	sum.Items++

	for _, ref := range item.Attachments() {
		att, err := e.client.Attachment(ctx, id, ref.ID)
		if err != nil {
			return fmt.Errorf("get attachment %s of item %s: %w", ref.ID, id, err)
		}
		name := ref.Name
		if name == "" {
			name = att.Name
		}
		name = fsrepo.SafeName(name, "attachment_"+ref.ID)
		fmt.Fprintf(e.out, "      ↳ attachment %s\n", name)
		if _, err := e.tree.WriteAttachment(dir, name, att.Data); err != nil {
			return fmt.Errorf("write attachment %s: %w", name, err)
		}
		sum.Attachments++
	}
	return nil
}

// sameFolder сравнивает папку записи с текущим узлом обхода; пустой id — корень.
// Если сервер не вернул folderId, запись считается принадлежащей узлу.
func sameFolder(itemFolder, node *string) bool {
	if itemFolder == nil {
		return true
	}
	b := ""
	if node != nil {
		b = *node
	}
	return *itemFolder == b
}
