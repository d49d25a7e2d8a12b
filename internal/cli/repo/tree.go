package repo

// ExportTree определяет порт записи дерева выгрузки на диск.
// Пути dir задаются относительно корня выгрузки.
type ExportTree interface {
	// Root возвращает абсолютный путь корня выгрузки.
	Root() string
	// EnsureDir создаёт каталог (и родителей), если его ещё нет.
	EnsureDir(dir string) error
	// WriteItem сохраняет запись в item_<id>.json и возвращает путь файла.
	WriteItem(dir, id string, item any) (string, error)
	// WriteAttachment сохраняет вложение в <dir>/attachments/<name>.
	WriteAttachment(dir, name string, data []byte) (string, error)
	// WriteActivityLogs сохраняет журнал действий в корень выгрузки.
	WriteActivityLogs(logs any) (string, error)
}
