package api

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"KeeperMigrate/internal/cli/model"
)

// ErrAuthorization сигнализирует об ошибке авторизации (401 или отсутствие токена).
var ErrAuthorization = errors.New("authorization failed")

// ErrMasterPassword — мастер-пароль не подходит к ключу аккаунта.
var ErrMasterPassword = errors.New("invalid master password")

// Client — узкий интерфейс к Passwork, которого достаточно для полной выгрузки.
// Все методы, кроме Authorize, требуют предварительной авторизации.
type Client interface {
	// Authorize обменивает API-ключ на токены и выводит мастер-ключ для расшифровки.
	Authorize(ctx context.Context, apiKey, masterPassword string) error
	// Vaults возвращает все хранилища, доступные ключу.
	Vaults(ctx context.Context) ([]model.Vault, error)
	// Folders возвращает дочерние папки parentID (nil — корень хранилища).
	Folders(ctx context.Context, vaultID string, parentID *string) ([]model.Folder, error)
	// Items возвращает записи папки folderID (nil — корень хранилища).
	Items(ctx context.Context, vaultID string, folderID *string) ([]model.ItemRef, error)
	// Item возвращает расшифрованную запись.
	Item(ctx context.Context, id string) (model.Item, error)
	// Attachment возвращает расшифрованное вложение записи.
	Attachment(ctx context.Context, itemID, attachmentID string) (*model.Attachment, error)
	// ActivityLogs возвращает полный журнал действий.
	ActivityLogs(ctx context.Context) ([]model.ActivityLog, error)
}

// Options — параметры HTTP-клиента.
type Options struct {
	Timeout   time.Duration
	VerifyTLS bool
	PageSize  int
	// HTTPClient переопределяет транспорт целиком (используется в тестах).
	HTTPClient *http.Client
}

// httpClient реализует Client поверх REST API Passwork.
type httpClient struct {
	baseURL      string
	httpClient   *http.Client
	pageSize     int
	accessToken  string
	refreshToken string
	masterKey    []byte
	now          func() time.Time
}

var _ Client = (*httpClient)(nil)

// NewHTTPClient создает новый экземпляр API клиента.
func NewHTTPClient(baseURL string, opts Options) Client {
	hc := opts.HTTPClient
	if hc == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		if !opts.VerifyTLS {
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // явно запрошено PASSWORK_VERIFY_TLS=false
		}
		hc = &http.Client{Timeout: opts.Timeout, Transport: tr}
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &httpClient{
		baseURL:    baseURL,
		httpClient: hc,
		pageSize:   pageSize,
		now:        time.Now,
	}
}
