package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"KeeperMigrate/internal/middleware"
	"KeeperMigrate/internal/model"
	"KeeperMigrate/internal/repo"
)

// RefreshTTL — срок жизни refresh-токена.
const RefreshTTL = 24 * time.Hour

var (
	ErrInvalidAPIKey       = errors.New("invalid api key")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// Tokens — ответ на login/refresh: токены и параметры мастер-ключа аккаунта.
type Tokens struct {
	AccessToken    string `json:"accessToken"`
	RefreshToken   string `json:"refreshToken"`
	MasterKeySalt  string `json:"masterKeySalt"`
	MasterKeyCheck string `json:"masterKeyCheck"`
}

// AuthService обменивает API-ключ на пару JWT.
type AuthService struct {
	accounts  repo.AccountRepository
	logs      repo.ActivityLogRepository
	secret    string
	accessTTL time.Duration
}

func NewAuthService(accounts repo.AccountRepository, logs repo.ActivityLogRepository, secret string, accessTTL time.Duration) *AuthService {
	return &AuthService{accounts: accounts, logs: logs, secret: secret, accessTTL: accessTTL}
}

// Login ищет аккаунт по API-ключу и выпускает токены.
func (s *AuthService) Login(ctx context.Context, apiKey string) (*Tokens, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}
	accounts, err := s.accounts.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		a := &accounts[i]
		if bcrypt.CompareHashAndPassword([]byte(a.APIKeyHash), []byte(apiKey)) != nil {
			continue
		}
		if err := appendEvent(ctx, s.logs, a.ID, map[string]any{"event": "auth.login"}); err != nil {
			return nil, err
		}
		return s.issue(a)
	}
	return nil, ErrInvalidAPIKey
}

// Refresh выпускает новую пару токенов по действующему refresh-токену.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	id, err := middleware.ParseToken(refreshToken, middleware.TokenRefresh, s.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return s.issue(a)
}

func (s *AuthService) issue(a *model.Account) (*Tokens, error) {
	access, err := middleware.BuildToken(a.ID, middleware.TokenAccess, s.accessTTL, s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := middleware.BuildToken(a.ID, middleware.TokenRefresh, RefreshTTL, s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &Tokens{
		AccessToken:    access,
		RefreshToken:   refresh,
		MasterKeySalt:  base64.StdEncoding.EncodeToString(a.MasterSalt),
		MasterKeyCheck: a.MasterCheck,
	}, nil
}

// appendEvent добавляет событие в журнал действий аккаунта с меткой времени.
func appendEvent(ctx context.Context, logs repo.ActivityLogRepository, accountID int64, event map[string]any) error {
	event["time"] = time.Now().UTC().Format(time.RFC3339)
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := logs.Append(ctx, &model.ActivityLog{AccountID: accountID, Payload: string(b)}); err != nil {
		return fmt.Errorf("append activity log: %w", err)
	}
	return nil
}
