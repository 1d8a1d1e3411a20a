package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePinger struct {
	err   error
	calls int
}

func (f *fakePinger) Ping(_ context.Context) error {
	f.calls++
	return f.err
}

type fakeChain struct {
	healthy bool
	err     error
}

func (f *fakeChain) Health(_ context.Context) (bool, error) {
	return f.healthy, f.err
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestHealthHandler_AllUp(t *testing.T) {
	handler := New(newNoopLogger(), &fakePinger{}, &fakePinger{}, &fakeChain{healthy: true})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"up"`)
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	handler := New(newNoopLogger(), &fakePinger{err: errors.New("refused")}, &fakePinger{}, &fakeChain{healthy: true})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthHandler_DegradedRedisStaysOK(t *testing.T) {
	handler := New(newNoopLogger(), &fakePinger{}, &fakePinger{err: errors.New("refused")}, &fakeChain{healthy: true})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
}

func TestHealthHandler_ProbesAreCached(t *testing.T) {
	db := &fakePinger{}
	handler := New(newNoopLogger(), db, &fakePinger{}, &fakeChain{healthy: true})

	now := time.Now()
	handler.now = func() time.Time { return now }

	for range 5 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, db.calls)

	// после истечения TTL проверка повторяется
	now = now.Add(probeTTL + time.Second)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, db.calls)
}
