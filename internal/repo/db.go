package repo

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"KeeperMigrate/internal/model"
)

// Page — параметры постраничной выборки.
type Page struct {
	Limit  int
	Offset int
}

// InitDB открывает БД песочницы и применяет миграции.
// DSN вида postgres://… или "host=… " уходит в PostgreSQL, всё остальное — путь/DSN SQLite (modernc).
func InitDB(dsn string) (*gorm.DB, error) {
	var dial gorm.Dialector
	if isPostgres(dsn) {
		dial = postgres.Open(dsn)
	} else {
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: sqliteDSN(dsn)}
	}
	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// sqliteDSN включает внешние ключи: без них каскадное удаление в SQLite не работает.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// list выполняет count и постраничную выборку по одному и тому же условию.
func list[T any](db *gorm.DB, where func(*gorm.DB) *gorm.DB, order string, p Page) ([]T, int64, error) {
	var total int64
	if err := db.Model(new(T)).Scopes(where).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []T{}
	q := db.Scopes(where).Order(order).Offset(p.Offset)
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
