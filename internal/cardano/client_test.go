package cardano

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/car-dano/inspection-backend/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.Cardano{
		BlockfrostURL: srv.URL,
		ProjectID:     "project-123",
		PolicyID:      "policyabc",
		WalletAddress: "addr_test1qz",
		TimeoutChain:  5 * time.Second,
	})
}

func TestMintNFT(t *testing.T) {
	var gotReq MintRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tx/mint", r.URL.Path)
		assert.Equal(t, "project-123", r.Header.Get("project_id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(MintResult{TxHash: "txhash1"})
	}))

	res, err := c.MintNFT(context.Background(), "CARDANO42", map[string]string{"plate": "B1234XYZ"})
	require.NoError(t, err)

	assert.Equal(t, "txhash1", res.TxHash)
	// Пустой asset_id в ответе шлюза достраивается на клиенте
	assert.Equal(t, AssetID("policyabc", "CARDANO42"), res.AssetID)
	assert.Equal(t, "addr_test1qz", gotReq.Address)
	assert.Equal(t, "policyabc", gotReq.Metadata.PolicyID)
}

func TestMintNFT_GatewayError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "insufficient funds", http.StatusBadRequest)
	}))

	_, err := c.MintNFT(context.Background(), "CARDANO42", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestHealthAndLatestBlock(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte(`{"is_healthy": true}`))
		case "/blocks/latest":
			_, _ = w.Write([]byte(`{"height": 123456, "hash": "abc"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	healthy, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, healthy)

	height, err := c.LatestBlockHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(123456), height)
}

func TestAssetID(t *testing.T) {
	assert.Equal(t, "pol4e4654", AssetID("pol", "NFT"))
}
