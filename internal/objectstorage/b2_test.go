package objectstorage

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/car-dano/inspection-backend/internal/config"
)

// fakeB2 поднимает httptest-сервер со всеми тремя эндпоинтами протокола B2.
type fakeB2 struct {
	srv *httptest.Server

	authCalls   atomic.Int32
	uploadCalls atomic.Int32
	failUploads int32 // сколько первых загрузок вернёт 500
}

func newFakeB2(t *testing.T, failUploads int32) *fakeB2 {
	f := &fakeB2{failUploads: failUploads}

	mux := http.NewServeMux()
	mux.HandleFunc("/b2api/v2/b2_authorize_account", func(w http.ResponseWriter, _ *http.Request) {
		f.authCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"authorizationToken": "auth-token",
			"apiUrl":             f.srv.URL,
			"downloadUrl":        f.srv.URL + "/dl",
		})
	})
	mux.HandleFunc("/b2api/v2/b2_get_upload_url", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "auth-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"uploadUrl":          f.srv.URL + "/upload",
			"authorizationToken": "upload-token",
		})
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		calls := f.uploadCalls.Add(1)
		if calls <= f.failUploads {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body, _ := io.ReadAll(r.Body)
		assert.NotEmpty(t, body)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"fileId":   "file-1",
			"fileName": r.Header.Get("X-Bz-File-Name"),
		})
	})
	mux.HandleFunc("/b2api/v2/b2_delete_file_version", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func newTestClient(f *fakeB2, maxRetries int) *Client {
	c := New(config.Backblaze{
		KeyID:          "key",
		ApplicationKey: "app-key",
		BucketID:       "bucket-id",
		BucketName:     "cardano-photos",
		MaxRetries:     maxRetries,
		TimeoutB2:      5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.authURL = f.srv.URL + "/b2api/v2/b2_authorize_account"
	c.sleep = func(time.Duration) {} // в тестах не ждём
	return c
}

func TestUpload_Success(t *testing.T) {
	f := newFakeB2(t, 0)
	c := newTestClient(f, 3)

	res, err := c.Upload(context.Background(), "inspections/1/photo.jpg", "image/jpeg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "file-1", res.FileID)
	assert.Contains(t, res.FileURL, "/dl/file/cardano-photos/inspections/1/photo.jpg")
	assert.Equal(t, int32(1), f.authCalls.Load())
}

func TestUpload_AuthTokenCached(t *testing.T) {
	f := newFakeB2(t, 0)
	c := newTestClient(f, 3)

	_, err := c.Upload(context.Background(), "a.jpg", "image/jpeg", []byte("x"))
	require.NoError(t, err)
	_, err = c.Upload(context.Background(), "b.jpg", "image/jpeg", []byte("y"))
	require.NoError(t, err)

	// Вторая загрузка использует кешированный токен
	assert.Equal(t, int32(1), f.authCalls.Load())
}

func TestUpload_AuthTokenExpires(t *testing.T) {
	f := newFakeB2(t, 0)
	c := newTestClient(f, 3)

	fakeNow := time.Now()
	c.now = func() time.Time { return fakeNow }

	_, err := c.Upload(context.Background(), "a.jpg", "image/jpeg", []byte("x"))
	require.NoError(t, err)

	fakeNow = fakeNow.Add(24 * time.Hour)
	_, err = c.Upload(context.Background(), "b.jpg", "image/jpeg", []byte("y"))
	require.NoError(t, err)

	assert.Equal(t, int32(2), f.authCalls.Load())
}

func TestUpload_RetriesThenSucceeds(t *testing.T) {
	f := newFakeB2(t, 2)
	c := newTestClient(f, 3)

	_, err := c.Upload(context.Background(), "a.jpg", "image/jpeg", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, int32(3), f.uploadCalls.Load())
}

func TestUpload_ExhaustsRetries(t *testing.T) {
	// Все загрузки падают: ровно maxRetries+1 попыток, наружу последняя ошибка
	f := newFakeB2(t, 1000)
	c := newTestClient(f, 3)

	_, err := c.Upload(context.Background(), "a.jpg", "image/jpeg", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, int32(4), f.uploadCalls.Load())
	assert.Contains(t, err.Error(), "upload failed")
}

func TestDelete_Success(t *testing.T) {
	f := newFakeB2(t, 0)
	c := newTestClient(f, 3)

	err := c.Delete(context.Background(), "a.jpg", "file-1")
	assert.NoError(t, err)
}

func TestBackoffWithJitter_Grows(t *testing.T) {
	for attempt := 1; attempt <= 4; attempt++ {
		base := backoffBase << (attempt - 1)
		got := backoffWithJitter(attempt)
		assert.GreaterOrEqual(t, got, base)
		assert.Less(t, got, base+base/2+time.Millisecond)
	}
}
