package repo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"KeeperMigrate/internal/model"
)

// newTestDB открывает отдельную SQLite (modernc.org/sqlite) во временном каталоге теста
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "sandbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func strp(s string) *string { return &s }

func mkAccount(t *testing.T, db *gorm.DB, name string) *model.Account {
	t.Helper()
	a := &model.Account{Name: name, APIKeyHash: "hash", MasterSalt: []byte("salt"), MasterCheck: "check"}
	require.NoError(t, NewAccountRepository(db).Create(context.Background(), a))
	return a
}

func TestIsPostgres(t *testing.T) {
	assert.True(t, isPostgres("postgres://u:p@localhost:5432/db"))
	assert.True(t, isPostgres("postgresql://localhost/db"))
	assert.True(t, isPostgres("host=localhost user=u dbname=db"))
	assert.False(t, isPostgres("sandbox.db"))
	assert.False(t, isPostgres("file::memory:?cache=shared"))
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=foreign_keys(1)", sqliteDSN("a.db"))
	assert.Equal(t, "file::memory:?cache=shared&_pragma=foreign_keys(1)", sqliteDSN("file::memory:?cache=shared"))
	assert.Equal(t, "a.db?_pragma=foreign_keys(1)", sqliteDSN("a.db?_pragma=foreign_keys(1)"))
}

func TestAccountRepository(t *testing.T) {
	db := newTestDB(t)
	r := NewAccountRepository(db)
	ctx := context.Background()

	a := mkAccount(t, db, "demo")
	assert.NotZero(t, a.ID)

	got, err := r.GetByName(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, []byte("salt"), got.MasterSalt)

	got.MasterCheck = "check2"
	require.NoError(t, r.Update(ctx, got))
	got, err = r.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "check2", got.MasterCheck)

	// уникальное имя
	err = r.Create(ctx, &model.Account{Name: "demo", APIKeyHash: "x", MasterSalt: []byte("s"), MasterCheck: "c"})
	assert.Error(t, err)

	_, err = r.GetByName(ctx, "nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	mkAccount(t, db, "second")
	all, err := r.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestVaultRepository_TreeAndPagination(t *testing.T) {
	db := newTestDB(t)
	r := NewVaultRepository(db)
	ctx := context.Background()
	a := mkAccount(t, db, "demo")
	other := mkAccount(t, db, "other")

	for i, name := range []string{"B", "A", "C"} {
		require.NoError(t, r.SaveVault(ctx, &model.Vault{ID: "v" + name, AccountID: a.ID, Name: name, Position: i}))
	}
	require.NoError(t, r.SaveVault(ctx, &model.Vault{ID: "vx", AccountID: other.ID, Name: "X"}))

	page, total, err := r.ListVaults(ctx, a.ID, Page{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	if assert.Len(t, page, 2) {
		assert.Equal(t, "vB", page[0].ID)
		assert.Equal(t, "vA", page[1].ID)
	}
	page, _, err = r.ListVaults(ctx, a.ID, Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	if assert.Len(t, page, 1) {
		assert.Equal(t, "vC", page[0].ID)
	}

	// чужое хранилище не видно
	_, err = r.GetVault(ctx, a.ID, "vx")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// повторное сохранение перезаписывает
	require.NoError(t, r.SaveVault(ctx, &model.Vault{ID: "vA", AccountID: a.ID, Name: "A2", Position: 1}))
	v, err := r.GetVault(ctx, a.ID, "vA")
	require.NoError(t, err)
	assert.Equal(t, "A2", v.Name)

	require.NoError(t, r.SaveFolder(ctx, &model.Folder{ID: "f1", VaultID: "vA", Name: "Email"}))
	require.NoError(t, r.SaveFolder(ctx, &model.Folder{ID: "f2", VaultID: "vA", ParentID: strp("f1"), Name: "Work"}))

	top, total, err := r.ListFolders(ctx, "vA", nil, Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	if assert.Len(t, top, 1) {
		assert.Equal(t, "f1", top[0].ID)
	}
	sub, _, err := r.ListFolders(ctx, "vA", strp("f1"), Page{Limit: 10})
	require.NoError(t, err)
	if assert.Len(t, sub, 1) {
		assert.Equal(t, "f2", sub[0].ID)
		assert.Equal(t, "f1", *sub[0].ParentID)
	}

	f, err := r.GetFolder(ctx, "vA", "f2")
	require.NoError(t, err)
	assert.Equal(t, "Work", f.Name)
	_, err = r.GetFolder(ctx, "vB", "f2")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestItemRepository_ItemsAndAttachments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := mkAccount(t, db, "demo")
	require.NoError(t, NewVaultRepository(db).SaveVault(ctx, &model.Vault{ID: "v1", AccountID: a.ID, Name: "Personal"}))

	r := NewItemRepository(db)
	require.NoError(t, r.SaveItem(ctx, &model.Item{ID: "i1", VaultID: "v1", Name: "Root"}))
	require.NoError(t, r.SaveItem(ctx, &model.Item{ID: "i2", VaultID: "v1", FolderID: strp("f1"), Name: "Gmail", Fields: `{"login":"me"}`, PasswordSealed: "sealed"}))

	root, total, err := r.ListItems(ctx, "v1", nil, Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	if assert.Len(t, root, 1) {
		assert.Equal(t, "i1", root[0].ID)
		assert.Equal(t, "{}", root[0].Fields)
	}
	inFolder, _, err := r.ListItems(ctx, "v1", strp("f1"), Page{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, inFolder, 1)

	it, err := r.GetItem(ctx, "i2")
	require.NoError(t, err)
	assert.Equal(t, "sealed", it.PasswordSealed)
	_, err = r.GetItem(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, r.SaveAttachment(ctx, &model.Attachment{ID: "a2", ItemID: "i2", Name: "z.txt", DataSealed: "x"}))
	require.NoError(t, r.SaveAttachment(ctx, &model.Attachment{ID: "a1", ItemID: "i2", Name: "a.txt", DataSealed: "y"}))
	atts, err := r.ListAttachments(ctx, "i2")
	require.NoError(t, err)
	if assert.Len(t, atts, 2) {
		assert.Equal(t, "a.txt", atts[0].Name)
	}
	none, err := r.ListAttachments(ctx, "i1")
	require.NoError(t, err)
	assert.Empty(t, none)

	att, err := r.GetAttachment(ctx, "i2", "a1")
	require.NoError(t, err)
	assert.Equal(t, "y", att.DataSealed)
	_, err = r.GetAttachment(ctx, "i1", "a1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestActivityLogRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := mkAccount(t, db, "demo")
	b := mkAccount(t, db, "other")
	r := NewActivityLogRepository(db)

	for _, p := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		require.NoError(t, r.Append(ctx, &model.ActivityLog{AccountID: a.ID, Payload: p}))
	}
	require.NoError(t, r.Append(ctx, &model.ActivityLog{AccountID: b.ID, Payload: `{}`}))

	logs, total, err := r.List(ctx, a.ID, Page{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	if assert.Len(t, logs, 2) {
		assert.Equal(t, `{"n":2}`, logs[0].Payload)
		assert.Equal(t, `{"n":3}`, logs[1].Payload)
	}
}
