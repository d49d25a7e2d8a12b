package model

// Vault — хранилище аккаунта.
type Vault struct {
	ID        string `gorm:"primaryKey"`
	AccountID int64  `gorm:"not null;index"`

	Account *Account `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Name     string `gorm:"not null"`
	Position int    `gorm:"not null;default:0"`
}

// Folder — папка хранилища; ParentID == nil у папок верхнего уровня.
type Folder struct {
	ID       string  `gorm:"primaryKey"`
	VaultID  string  `gorm:"not null;index"`
	ParentID *string `gorm:"index"`

	Vault *Vault `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Name     string `gorm:"not null"`
	Position int    `gorm:"not null;default:0"`
}
