package download

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/car-dano/inspection-backend/internal/http/middlewarectx"
	"github.com/car-dano/inspection-backend/internal/models"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

type CreditMock struct {
	mock.Mock
}

func (m *CreditMock) ChargeDownload(ctx context.Context, userUID, inspectionID string) (bool, error) {
	args := m.Called(ctx, userUID, inspectionID)
	return args.Bool(0), args.Error(1)
}

type ReportMock struct {
	mock.Mock
}

func (m *ReportMock) Read(ctx context.Context, id string) (*models.Inspection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inspection), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRequest(inspectionID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/"+inspectionID+"/download", nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("inspectionID", inspectionID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middlewarectx.UIDKey, "user-1")
	return req.WithContext(ctx)
}

func TestDownloadHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		charged        bool
		chargeErr      error
		wantStatusCode int
		wantCharged    bool
	}{
		{
			name:           "first download charges credit",
			charged:        true,
			wantStatusCode: http.StatusOK,
			wantCharged:    true,
		},
		{
			name:           "repeat download is free",
			charged:        false,
			wantStatusCode: http.StatusOK,
			wantCharged:    false,
		},
		{
			name:           "no credits",
			chargeErr:      repository.ErrNoCredit,
			wantStatusCode: http.StatusPaymentRequired,
		},
		{
			name:           "not archived reads as missing",
			chargeErr:      repository.ErrWrongStatus,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "inspection missing",
			chargeErr:      repository.ErrNotFound,
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			credits := new(CreditMock)
			reports := new(ReportMock)
			credits.On("ChargeDownload", mock.Anything, "user-1", "ins-1").Return(tc.charged, tc.chargeErr)
			if tc.chargeErr == nil {
				reports.On("Read", mock.Anything, "ins-1").Return(&models.Inspection{
					ID:     "ins-1",
					Status: models.StatusArchived,
				}, nil)
			}
			handler := New(newNoopLogger(), credits, reports)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newRequest("ins-1"))

			assert.Equal(t, tc.wantStatusCode, rec.Code)
			if tc.wantStatusCode == http.StatusOK {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				data := resp["data"].(map[string]any)
				assert.Equal(t, tc.wantCharged, data["charged"])
			}
		})
	}
}
