package commands

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"KeeperMigrate/internal/cli/service"
	"KeeperMigrate/internal/config"
	"KeeperMigrate/internal/handlers"
	"KeeperMigrate/internal/keeper"
	"KeeperMigrate/internal/repo"
	sandbox "KeeperMigrate/internal/service"
)

const sandboxSeed = `
accounts:
  - name: demo
    apiKey: demo-key
    masterPassword: demo-master
    vaults:
      - id: v1
        name: Personal
        items:
          - id: i0
            name: Wi-Fi
            password: hunter2
            fields:
              description: home router
        folders:
          - id: f1
            name: Email
            items:
              - id: i1
                name: Gmail
                password: p@ss
                fields:
                  login: me@gmail.com
                  url: https://mail.google.com
                  totp: JBSWY3DPEHPK3PXP
                  customFields:
                    - name: PIN
                      value: "1234"
                attachments:
                  - id: a1
                    name: key.bin
                    base64: AP8Q
    activityLogs:
      - event: import
`

// newSandbox поднимает песочницу Passwork API на httptest-сервере
func newSandbox(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := repo.InitDB(filepath.Join(t.TempDir(), "sandbox.db"))
	require.NoError(t, err)
	accounts := repo.NewAccountRepository(db)
	vaults := repo.NewVaultRepository(db)
	items := repo.NewItemRepository(db)
	logs := repo.NewActivityLogRepository(db)

	seed, err := sandbox.ParseSeed(strings.NewReader(sandboxSeed))
	require.NoError(t, err)
	_, err = sandbox.NewSeeder(accounts, vaults, items, logs, zap.NewNop().Sugar()).Apply(context.Background(), seed)
	require.NoError(t, err)

	cfg := &config.Config{AuthSecret: "secret"}
	h := handlers.NewHandler(
		sandbox.NewAuthService(accounts, logs, cfg.AuthSecret, time.Minute),
		sandbox.NewVaultService(vaults, items, logs),
		zap.NewNop().Sugar(), cfg,
	)
	srv := httptest.NewServer(h.Router)
	t.Cleanup(func() {
		srv.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return srv
}

func exportConfig(url, dir string) *config.Config {
	return &config.Config{
		PassworkURL:    url,
		APIKey:         "demo-key",
		MasterPassword: "demo-master",
		VerifyTLS:      true,
		Timeout:        5 * time.Second,
		PageSize:       1,
		ExportDir:      dir,
		OutputFile:     filepath.Join(dir, "unused.json"),
	}
}

func TestExport_MissingEnv(t *testing.T) {
	var err error
	withStdoutCapture(t, func() {
		err = exportCmd{}.Run(context.Background(), &config.Config{ExportDir: t.TempDir()}, nil)
	})
	assert.ErrorIs(t, err, config.ErrMissingEnv)
	assert.Contains(t, err.Error(), "PASSWORK_URL")

	err = exportCmd{}.Run(context.Background(), &config.Config{}, []string{"extra"})
	assert.ErrorIs(t, err, ErrUsage)
}

func TestConvert_MissingExportDir(t *testing.T) {
	cfg := &config.Config{ExportDir: filepath.Join(t.TempDir(), "absent"), OutputFile: "out.json"}
	err := convertCmd{}.Run(context.Background(), cfg, nil)
	assert.True(t, errors.Is(err, service.ErrExportDirNotFound))

	err = convertCmd{}.Run(context.Background(), cfg, []string{"-x"})
	assert.ErrorIs(t, err, ErrUsage)
	err = convertCmd{}.Run(context.Background(), cfg, []string{"stray"})
	assert.ErrorIs(t, err, ErrUsage)
}

func TestExport_WrongMasterPassword(t *testing.T) {
	srv := newSandbox(t)
	cfg := exportConfig(srv.URL, filepath.Join(t.TempDir(), "export"))
	cfg.MasterPassword = "nope"

	var code int
	out := withStdoutCapture(t, func() { code = Dispatch(context.Background(), cfg, []string{"export"}) })
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "invalid master password")
}

func TestExportThenConvert_RoundTrip(t *testing.T) {
	srv := newSandbox(t)
	dir := filepath.Join(t.TempDir(), "export")
	cfg := exportConfig(srv.URL, dir)
	outFile := filepath.Join(t.TempDir(), "keeper.json")

	var code int
	out := withStdoutCapture(t, func() { code = Dispatch(context.Background(), cfg, []string{"export"}) })
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "vault Personal (v1)")
	assert.Contains(t, out, "↳ attachment key.bin")
	assert.Contains(t, out, "1 vaults, 1 folders, 2 items, 1 attachments")
	assert.FileExists(t, filepath.Join(dir, "Personal", "item_i0.json"))
	assert.FileExists(t, filepath.Join(dir, "Personal", "Email", "item_i1.json"))
	assert.FileExists(t, filepath.Join(dir, "activity_logs.json"))

	out = withStdoutCapture(t, func() { code = Dispatch(context.Background(), cfg, []string{"convert", "-o", outFile}) })
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "with 3 records.")

	b, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var doc keeper.Document
	require.NoError(t, json.Unmarshal(b, &doc))
	require.Len(t, doc.Records, 3)

	byTitle := map[string]keeper.Record{}
	for _, r := range doc.Records {
		byTitle[r.Title] = r
	}

	gmail := byTitle["Gmail"]
	assert.Equal(t, "me@gmail.com", gmail.Login)
	assert.Equal(t, "p@ss", gmail.Password)
	assert.Equal(t, "https://mail.google.com", gmail.LoginURL)
	assert.Equal(t, []keeper.Folder{{Folder: `Personal\Email`}}, gmail.Folders)
	assert.Equal(t, map[string]string{"PIN": "1234", keeper.OneTimeCodeField: "JBSWY3DPEHPK3PXP"}, gmail.CustomFields)
	require.Len(t, gmail.Files, 1)
	data, err := base64.StdEncoding.DecodeString(gmail.Files[0].Data)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff, 0x10}, data)

	wifi := byTitle["Wi-Fi"]
	assert.Equal(t, "hunter2", wifi.Password)
	assert.Equal(t, "home router", wifi.Notes)
	assert.Equal(t, []keeper.Folder{{Folder: "Personal"}}, wifi.Folders)

	archive := byTitle["Passwork Activity Log"]
	assert.Equal(t, []keeper.Folder{{Folder: "Passwork_Archive"}}, archive.Folders)
	require.Len(t, archive.Files, 1)
	raw, err := base64.StdEncoding.DecodeString(archive.Files[0].Data)
	require.NoError(t, err)
	var events []map[string]any
	require.NoError(t, json.Unmarshal(raw, &events))
	require.NotEmpty(t, events)
	assert.Equal(t, "import", events[0]["event"])
}
