package model

import "time"

// Account — владелец API-ключа песочницы.
type Account struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"not null;uniqueIndex"`

	// APIKeyHash — bcrypt-хеш API-ключа; сам ключ не хранится.
	APIKeyHash string `gorm:"not null"`

	// Соль мастер-ключа и контрольная строка, запечатанная мастер-ключом.
	MasterSalt  []byte `gorm:"not null"`
	MasterCheck string `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// ActivityLog — запись журнала действий аккаунта. Payload — исходный JSON-объект.
type ActivityLog struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	AccountID int64 `gorm:"not null;index"`

	Account *Account `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Payload   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
