package purchase

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/car-dano/inspection-backend/internal/models"
	"github.com/car-dano/inspection-backend/internal/paymentgateway"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ReadCreditPackage(ctx context.Context, id string) (*models.CreditPackage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreditPackage), args.Error(1)
}

func (m *MockRepository) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) CreatePurchase(ctx context.Context, purchase models.Purchase) (string, error) {
	args := m.Called(ctx, purchase)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) ListPurchasesByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Purchase, error) {
	args := m.Called(ctx, userUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Purchase), args.Error(1)
}

func (m *MockRepository) SettlePurchase(ctx context.Context, externalID string, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, externalID, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ExpirePurchase(ctx context.Context, externalID string) error {
	args := m.Called(ctx, externalID)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateInvoice(ctx context.Context, req paymentgateway.CreateInvoiceRequest) (*paymentgateway.CreateInvoiceResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.CreateInvoiceResponse), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckout_Success(t *testing.T) {
	repo := new(MockRepository)
	gw := new(MockGateway)
	svc := NewPurchaseService(repo, gw, "https://app/success", "https://app/failure", discardLogger())

	repo.On("ReadCreditPackage", mock.Anything, "pkg-1").Return(&models.CreditPackage{
		ID:           "pkg-1",
		Name:         "Starter",
		CreditAmount: 5,
		PriceIDR:     50000,
		IsActive:     true,
	}, nil)
	repo.On("GetUser", mock.Anything, "user-1").Return(&models.User{
		UUID:  "user-1",
		Email: "buyer@example.com",
	}, nil)
	gw.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(req paymentgateway.CreateInvoiceRequest) bool {
		return strings.HasPrefix(req.ExternalID, "purchase-") &&
			req.Amount == 50000 &&
			req.PayerEmail == "buyer@example.com"
	})).Return(&paymentgateway.CreateInvoiceResponse{
		ID:         "inv-1",
		Status:     "PENDING",
		InvoiceURL: "https://checkout.xendit.co/web/inv-1",
	}, nil)
	repo.On("CreatePurchase", mock.Anything, mock.MatchedBy(func(p models.Purchase) bool {
		return p.Status == models.PurchasePending && p.CreditAmount == 5 && p.UserUID == "user-1"
	})).Return("purchase-row-1", nil)

	purchase, err := svc.Checkout(context.Background(), "user-1", "pkg-1")

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.xendit.co/web/inv-1", purchase.InvoiceURL)
	assert.Equal(t, models.PurchasePending, purchase.Status)
}

func TestCheckout_InactivePackage(t *testing.T) {
	repo := new(MockRepository)
	gw := new(MockGateway)
	svc := NewPurchaseService(repo, gw, "", "", discardLogger())

	repo.On("ReadCreditPackage", mock.Anything, "pkg-1").Return(&models.CreditPackage{
		ID:       "pkg-1",
		IsActive: false,
	}, nil)

	_, err := svc.Checkout(context.Background(), "user-1", "pkg-1")

	assert.ErrorIs(t, err, repository.ErrNotFound)
	gw.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything)
}

func TestHandleCallback_Paid(t *testing.T) {
	repo := new(MockRepository)
	svc := NewPurchaseService(repo, new(MockGateway), "", "", discardLogger())

	paidAt, err := time.Parse(time.RFC3339, "2025-06-01T10:00:00Z")
	require.NoError(t, err)
	repo.On("SettlePurchase", mock.Anything, "purchase-abc", paidAt).Return(true, nil)

	err = svc.HandleCallback(context.Background(), paymentgateway.InvoiceCallback{
		ExternalID: "purchase-abc",
		Status:     "PAID",
		PaidAt:     "2025-06-01T10:00:00Z",
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestHandleCallback_DuplicatePaidIsNoop(t *testing.T) {
	repo := new(MockRepository)
	svc := NewPurchaseService(repo, new(MockGateway), "", "", discardLogger())

	repo.On("SettlePurchase", mock.Anything, "purchase-abc", mock.Anything).Return(false, nil)

	err := svc.HandleCallback(context.Background(), paymentgateway.InvoiceCallback{
		ExternalID: "purchase-abc",
		Status:     "PAID",
	})

	require.NoError(t, err)
}

func TestHandleCallback_Expired(t *testing.T) {
	repo := new(MockRepository)
	svc := NewPurchaseService(repo, new(MockGateway), "", "", discardLogger())

	repo.On("ExpirePurchase", mock.Anything, "purchase-abc").Return(nil)

	err := svc.HandleCallback(context.Background(), paymentgateway.InvoiceCallback{
		ExternalID: "purchase-abc",
		Status:     "EXPIRED",
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}
