package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// refreshLeeway — за сколько до истечения access-токена он обновляется заранее.
const refreshLeeway = 30 * time.Second

// StatusError — ответ сервера с неуспешным кодом.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server status %d", e.Code)
	}
	return fmt.Sprintf("server status %d: %s", e.Code, e.Body)
}

// do выполняет JSON-запрос. authed=true добавляет Bearer-токен и один раз
// повторяет запрос после обновления токена, если сервер ответил 401.
func (c *httpClient) do(ctx context.Context, method, path string, query url.Values, payload, out any, authed bool) error {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("build url for %s: %w", path, err)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var body []byte
	if payload != nil {
		if body, err = json.Marshal(payload); err != nil {
			return err
		}
	}
	if authed {
		if err := c.ensureFreshToken(ctx); err != nil {
			return err
		}
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, method, endpoint, body, authed)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized && authed && attempt == 0 && c.refreshToken != "" {
			resp.Body.Close()
			if err := c.refresh(ctx); err != nil {
				return err
			}
			continue
		}
		return decodeResponse(resp, out)
	}
}

func (c *httpClient) send(ctx context.Context, method, endpoint string, body []byte, authed bool) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	return resp, nil
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		se := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %v", ErrAuthorization, se)
		}
		return se
	}
	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ensureFreshToken обновляет access-токен, если он истекает в ближайшие refreshLeeway.
func (c *httpClient) ensureFreshToken(ctx context.Context) error {
	if c.accessToken == "" {
		return fmt.Errorf("%w: not authorized", ErrAuthorization)
	}
	exp, ok := tokenExpiry(c.accessToken)
	if !ok || c.refreshToken == "" {
		return nil
	}
	if c.now().Add(refreshLeeway).Before(exp) {
		return nil
	}
	return c.refresh(ctx)
}

// tokenExpiry читает exp из JWT без проверки подписи: подпись проверяет сервер,
// клиенту нужен только момент истечения.
func tokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// page — страница списка. Total == nil, если сервер не прислал total.
type page[T any] struct {
	Items []T  `json:"items"`
	Total *int `json:"total"`
}

// listAll выбирает все страницы списка: limit/offset до total или пустой страницы.
// Если total нет, страницы запрашиваются до пустой или неполной.
func listAll[T any](ctx context.Context, c *httpClient, path string, query url.Values) ([]T, error) {
	if query == nil {
		query = url.Values{}
	}
	all := make([]T, 0)
	offset := 0
	for {
		query.Set("limit", strconv.Itoa(c.pageSize))
		query.Set("offset", strconv.Itoa(offset))
		var p page[T]
		if err := c.do(ctx, http.MethodGet, path, query, nil, &p, true); err != nil {
			return nil, err
		}
		all = append(all, p.Items...)
		offset += len(p.Items)
		if len(p.Items) == 0 {
			return all, nil
		}
		if p.Total != nil {
			if offset >= *p.Total {
				return all, nil
			}
			continue
		}
		// без total признак конца — неполная страница
		if len(p.Items) < c.pageSize {
			return all, nil
		}
	}
}
