package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"KeeperMigrate/internal/cli/model"
	"KeeperMigrate/internal/crypto"
)

const (
	pathLogin        = "/api/v1/auth/login"
	pathRefresh      = "/api/v1/auth/refresh"
	pathVaults       = "/api/v1/vaults"
	pathFolders      = "/api/v1/folders"
	pathItems        = "/api/v1/items"
	pathActivityLogs = "/api/v1/activity_logs"
)

type loginRequest struct {
	APIKey string `json:"apiKey"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken    string `json:"accessToken"`
	RefreshToken   string `json:"refreshToken"`
	MasterKeySalt  string `json:"masterKeySalt"`
	MasterKeyCheck string `json:"masterKeyCheck"`
}

type attachmentResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	EncryptedData string `json:"encryptedData"`
}

// Authorize получает токены и проверяет мастер-пароль по masterKeyCheck.
func (c *httpClient) Authorize(ctx context.Context, apiKey, masterPassword string) error {
	var tr tokenResponse
	if err := c.do(ctx, http.MethodPost, pathLogin, nil, loginRequest{APIKey: apiKey}, &tr, false); err != nil {
		return err
	}
	if tr.AccessToken == "" {
		return fmt.Errorf("%w: server returned empty access token", ErrAuthorization)
	}
	salt, err := base64.StdEncoding.DecodeString(tr.MasterKeySalt)
	if err != nil {
		return fmt.Errorf("decode master key salt: %w", err)
	}
	key := crypto.DeriveKey(masterPassword, salt)
	check, err := crypto.Open(tr.MasterKeyCheck, key)
	if err != nil || string(check) != crypto.CheckPhrase {
		return ErrMasterPassword
	}
	c.accessToken = tr.AccessToken
	c.refreshToken = tr.RefreshToken
	c.masterKey = key
	return nil
}

func (c *httpClient) refresh(ctx context.Context) error {
	var tr tokenResponse
	if err := c.do(ctx, http.MethodPost, pathRefresh, nil, refreshRequest{RefreshToken: c.refreshToken}, &tr, false); err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	if tr.AccessToken == "" {
		return fmt.Errorf("%w: server returned empty access token", ErrAuthorization)
	}
	c.accessToken = tr.AccessToken
	if tr.RefreshToken != "" {
		c.refreshToken = tr.RefreshToken
	}
	return nil
}

func (c *httpClient) Vaults(ctx context.Context) ([]model.Vault, error) {
	return listAll[model.Vault](ctx, c, pathVaults, nil)
}

func (c *httpClient) Folders(ctx context.Context, vaultID string, parentID *string) ([]model.Folder, error) {
	q := url.Values{"vaultId": {vaultID}}
	if parentID != nil {
		q.Set("parentId", *parentID)
	}
	return listAll[model.Folder](ctx, c, pathFolders, q)
}

func (c *httpClient) Items(ctx context.Context, vaultID string, folderID *string) ([]model.ItemRef, error) {
	q := url.Values{"vaultId": {vaultID}}
	if folderID != nil {
		q.Set("folderId", *folderID)
	}
	return listAll[model.ItemRef](ctx, c, pathItems, q)
}

// Item загружает запись и расшифровывает cryptedPassword в поле password.
func (c *httpClient) Item(ctx context.Context, id string) (model.Item, error) {
	var it model.Item
	if err := c.do(ctx, http.MethodGet, pathItems+"/"+url.PathEscape(id), nil, nil, &it, true); err != nil {
		return nil, err
	}
	if it == nil {
		return nil, fmt.Errorf("item %s: empty response", id)
	}
	if sealed, ok := it["cryptedPassword"].(string); ok {
		if sealed != "" {
			plain, err := c.open(sealed)
			if err != nil {
				return nil, fmt.Errorf("decrypt item %s: %w", id, err)
			}
			it["password"] = string(plain)
		}
		delete(it, "cryptedPassword")
	}
	return it, nil
}

func (c *httpClient) Attachment(ctx context.Context, itemID, attachmentID string) (*model.Attachment, error) {
	var ar attachmentResponse
	path := pathItems + "/" + url.PathEscape(itemID) + "/attachments/" + url.PathEscape(attachmentID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &ar, true); err != nil {
		return nil, err
	}
	data, err := c.open(ar.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("decrypt attachment %s: %w", attachmentID, err)
	}
	return &model.Attachment{ID: ar.ID, Name: ar.Name, Data: data}, nil
}

func (c *httpClient) ActivityLogs(ctx context.Context) ([]model.ActivityLog, error) {
	return listAll[model.ActivityLog](ctx, c, pathActivityLogs, nil)
}

func (c *httpClient) open(sealed string) ([]byte, error) {
	if c.masterKey == nil {
		return nil, errors.New("master key is not derived: call Authorize first")
	}
	return crypto.Open(sealed, c.masterKey)
}
