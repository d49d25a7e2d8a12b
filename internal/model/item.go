package model

// Item — запись хранилища. FolderID == nil для записей в корне хранилища.
type Item struct {
	ID       string  `gorm:"primaryKey"`
	VaultID  string  `gorm:"not null;index"`
	FolderID *string `gorm:"index"`

	Vault *Vault `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Name string `gorm:"not null"`

	// Fields — прочие поля записи (login, url, description, totp, customFields ...) в виде JSON-объекта.
	Fields string `gorm:"not null;default:'{}'"`
	// PasswordSealed — пароль, запечатанный мастер-ключом аккаунта (base64(nonce‖ciphertext)).
	PasswordSealed string

	Position int `gorm:"not null;default:0"`
}

// Attachment — вложение записи, содержимое запечатано мастер-ключом.
type Attachment struct {
	ID     string `gorm:"primaryKey"`
	ItemID string `gorm:"not null;index"`

	Item *Item `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Name       string `gorm:"not null"`
	DataSealed string `gorm:"not null"`
}

// All возвращает модели для AutoMigrate в порядке зависимостей.
func All() []any {
	return []any{&Account{}, &ActivityLog{}, &Vault{}, &Folder{}, &Item{}, &Attachment{}}
}
