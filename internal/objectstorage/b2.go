// Package objectstorage реализует клиент объектного хранилища Backblaze B2.
//
// Нативный протокол B2 трёхшаговый: b2_authorize_account выдаёт токен и адрес
// API, b2_get_upload_url выдаёт одноразовый адрес загрузки, затем сам upload.
// Токен авторизации кешируется по настенным часам; при любой ошибке кеш
// сбрасывается и вся последовательность повторяется с экспоненциальной
// задержкой и джиттером. Всего выполняется maxRetries+1 попыток, наружу
// отдаётся последняя ошибка.
package objectstorage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/car-dano/inspection-backend/internal/config"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
)

const defaultAuthURL = "https://api.backblazeb2.com/b2api/v2/b2_authorize_account"

// Токен B2 живёт сутки, кешируем с запасом.
const authTokenTTL = 23 * time.Hour

const backoffBase = 500 * time.Millisecond

// Client клиент Backblaze B2 с кешем токена авторизации.
type Client struct {
	cfg        config.Backblaze
	log        *slog.Logger
	httpClient *http.Client
	authURL    string

	mu   sync.Mutex
	auth *authState

	now   func() time.Time
	sleep func(time.Duration)
}

type authState struct {
	Token       string
	APIURL      string
	DownloadURL string
	expiresAt   time.Time
}

// UploadResult результат загрузки файла в B2.
type UploadResult struct {
	FileID  string
	FileURL string
}

// New создаёт клиент B2 по настройкам конфига.
func New(cfg config.Backblaze, log *slog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		log:        log,
		httpClient: &http.Client{Timeout: cfg.TimeoutB2},
		authURL:    defaultAuthURL,
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

type authorizeResponse struct {
	AuthorizationToken string `json:"authorizationToken"`
	APIURL             string `json:"apiUrl"`
	DownloadURL        string `json:"downloadUrl"`
}

type uploadURLResponse struct {
	UploadURL          string `json:"uploadUrl"`
	AuthorizationToken string `json:"authorizationToken"`
}

type uploadResponse struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
}

// authorize возвращает кешированный токен авторизации или запрашивает новый.
func (c *Client) authorize(ctx context.Context) (*authState, error) {
	const op = "objectstorage.authorize"

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.auth != nil && c.now().Before(c.auth.expiresAt) {
		return c.auth, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.authURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.ApplicationKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %s", op, resp.Status)
	}

	var authResp authorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.auth = &authState{
		Token:       authResp.AuthorizationToken,
		APIURL:      authResp.APIURL,
		DownloadURL: authResp.DownloadURL,
		expiresAt:   c.now().Add(authTokenTTL),
	}
	return c.auth, nil
}

// invalidateAuth сбрасывает кеш токена после ошибки.
func (c *Client) invalidateAuth() {
	c.mu.Lock()
	c.auth = nil
	c.mu.Unlock()
}

// Upload загружает файл в бакет и возвращает его идентификатор и публичный URL.
func (c *Client) Upload(ctx context.Context, fileName, contentType string, data []byte) (*UploadResult, error) {
	const op = "objectstorage.Upload"

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.sleep(backoffWithJitter(attempt))
		}

		result, err := c.uploadOnce(ctx, fileName, contentType, data)
		if err == nil {
			return result, nil
		}
		lastErr = err
		c.invalidateAuth()
		c.log.Warn("b2 upload attempt failed",
			slog.Int("attempt", attempt+1), sl.Err(err))
	}
	return nil, fmt.Errorf("%s: %w", op, lastErr)
}

func (c *Client) uploadOnce(ctx context.Context, fileName, contentType string, data []byte) (*UploadResult, error) {
	auth, err := c.authorize(ctx)
	if err != nil {
		return nil, err
	}

	uploadTarget, err := c.getUploadURL(ctx, auth)
	if err != nil {
		return nil, err
	}

	checksum := sha1.Sum(data)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadTarget.UploadURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", uploadTarget.AuthorizationToken)
	req.Header.Set("X-Bz-File-Name", url.PathEscape(fileName))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Bz-Content-Sha1", hex.EncodeToString(checksum[:]))
	req.ContentLength = int64(len(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("upload failed: %s: %s", resp.Status, body)
	}

	var upResp uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&upResp); err != nil {
		return nil, err
	}

	return &UploadResult{
		FileID:  upResp.FileID,
		FileURL: fmt.Sprintf("%s/file/%s/%s", auth.DownloadURL, c.cfg.BucketName, fileName),
	}, nil
}

func (c *Client) getUploadURL(ctx context.Context, auth *authState) (*uploadURLResponse, error) {
	body, err := json.Marshal(map[string]string{"bucketId": c.cfg.BucketID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		auth.APIURL+"/b2api/v2/b2_get_upload_url", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", auth.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get upload url failed: %s", resp.Status)
	}

	var urlResp uploadURLResponse
	if err := json.NewDecoder(resp.Body).Decode(&urlResp); err != nil {
		return nil, err
	}
	return &urlResp, nil
}

// Delete удаляет версию файла из бакета. Использует тот же кеш токена
// и ту же схему повторов, что и Upload.
func (c *Client) Delete(ctx context.Context, fileName, fileID string) error {
	const op = "objectstorage.Delete"

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.sleep(backoffWithJitter(attempt))
		}

		if err := c.deleteOnce(ctx, fileName, fileID); err != nil {
			lastErr = err
			c.invalidateAuth()
			c.log.Warn("b2 delete attempt failed",
				slog.Int("attempt", attempt+1), sl.Err(err))
			continue
		}
		return nil
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func (c *Client) deleteOnce(ctx context.Context, fileName, fileID string) error {
	auth, err := c.authorize(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{
		"fileName": fileName,
		"fileId":   fileID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		auth.APIURL+"/b2api/v2/b2_delete_file_version", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", auth.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete failed: %s", resp.Status)
	}
	return nil
}

// backoffWithJitter считает задержку перед повтором: base * 2^(attempt-1)
// плюс случайный джиттер до половины интервала.
func backoffWithJitter(attempt int) time.Duration {
	backoff := backoffBase << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(backoff)/2 + 1))
	return backoff + jitter
}
