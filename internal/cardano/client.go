// Package cardano реализует клиент шлюза минтинга Cardano.
//
// Шлюз совместим по аутентификации с Blockfrost (заголовок project_id) и
// принимает метаданные NFT в формате CIP-25. Клиент — тонкая обёртка над
// net/http с типизированными методами и JSON-телами.
package cardano

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/car-dano/inspection-backend/internal/config"
)

// Client клиент шлюза минтинга.
type Client struct {
	baseURL    string
	projectID  string
	policyID   string
	wallet     string
	httpClient *http.Client
}

// NewClient создаёт клиент по настройкам конфига.
func NewClient(cfg config.Cardano) *Client {
	return &Client{
		baseURL:    cfg.BlockfrostURL,
		projectID:  cfg.ProjectID,
		policyID:   cfg.PolicyID,
		wallet:     cfg.WalletAddress,
		httpClient: &http.Client{Timeout: cfg.TimeoutChain},
	}
}

// Metadata структура метаданных NFT по CIP-25 (ключ 721).
type Metadata struct {
	PolicyID  string            `json:"policy_id"`
	AssetName string            `json:"asset_name"`
	Fields    map[string]string `json:"fields"`
}

// MintRequest запрос на минтинг одного NFT на адрес кошелька платформы.
type MintRequest struct {
	Address  string   `json:"address"`
	Metadata Metadata `json:"metadata"`
}

// MintResult результат минтинга.
type MintResult struct {
	TxHash  string `json:"tx_hash"`
	AssetID string `json:"asset_id"`
}

type healthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

type blockResponse struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("project_id", c.projectID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %s: %s", resp.Status, respBody)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// Health проверяет доступность шлюза.
func (c *Client) Health(ctx context.Context) (bool, error) {
	var resp healthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return false, err
	}
	return resp.IsHealthy, nil
}

// LatestBlockHeight возвращает высоту последнего блока.
func (c *Client) LatestBlockHeight(ctx context.Context) (uint64, error) {
	var resp blockResponse
	if err := c.do(ctx, http.MethodGet, "/blocks/latest", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Height, nil
}

// MintNFT отправляет транзакцию минтинга и возвращает её хэш и идентификатор актива.
func (c *Client) MintNFT(ctx context.Context, assetName string, fields map[string]string) (*MintResult, error) {
	req := MintRequest{
		Address: c.wallet,
		Metadata: Metadata{
			PolicyID:  c.policyID,
			AssetName: assetName,
			Fields:    fields,
		},
	}

	var result MintResult
	if err := c.do(ctx, http.MethodPost, "/tx/mint", req, &result); err != nil {
		return nil, err
	}
	if result.AssetID == "" {
		result.AssetID = AssetID(c.policyID, assetName)
	}
	return &result, nil
}

// AssetID собирает идентификатор актива: policy id + hex-имя актива.
func AssetID(policyID, assetName string) string {
	return policyID + hex.EncodeToString([]byte(assetName))
}
