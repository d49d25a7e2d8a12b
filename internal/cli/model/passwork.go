package model

import (
	"encoding/json"
	"fmt"
)

// Vault — хранилище Passwork (корень дерева папок).
type Vault struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Folder — узел дерева папок внутри хранилища. ParentID == nil для папок верхнего уровня.
type Folder struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parentId,omitempty"`
}

// ItemRef — краткая запись из списка items (без секретов).
type ItemRef struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	FolderID *string `json:"folderId,omitempty"`
}

// AttachmentRef — ссылка на вложение внутри записи.
type AttachmentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Attachment — расшифрованное вложение.
type Attachment struct {
	ID   string
	Name string
	Data []byte
}

// Item — расшифрованная запись в том виде, в каком её вернул Passwork.
// Набор полей принадлежит вендору, поэтому запись хранится как JSON-объект
// и выгружается на диск без изменений.
type Item map[string]any

// ID возвращает идентификатор записи (строка или число в исходном JSON).
func (it Item) ID() string {
	return scalarString(it["id"])
}

// scalarString приводит строку или число из JSON к строке.
func scalarString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Attachments извлекает ссылки на вложения из поля attachments.
func (it Item) Attachments() []AttachmentRef {
	raw, ok := it["attachments"].([]any)
	if !ok {
		return nil
	}
	refs := make([]AttachmentRef, 0, len(raw))
	for _, a := range raw {
		m, ok := a.(map[string]any)
		if !ok {
			continue
		}
		ref := AttachmentRef{}
		ref.ID = scalarString(m["id"])
		ref.Name = scalarString(m["name"])
		if ref.ID == "" {
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

// ActivityLog — непрозрачная запись журнала действий.
type ActivityLog = json.RawMessage
