package minting

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/car-dano/inspection-backend/internal/cardano"
	"github.com/car-dano/inspection-backend/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ReadInspection(ctx context.Context, id string) (*models.Inspection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inspection), args.Error(1)
}

func (m *MockRepository) SetInspectionMinted(ctx context.Context, id, txHash, assetID string) error {
	args := m.Called(ctx, id, txHash, assetID)
	return args.Error(0)
}

func (m *MockRepository) SetInspectionMintFailed(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockMinter struct {
	mock.Mock
}

func (m *MockMinter) MintNFT(ctx context.Context, assetName string, fields map[string]string) (*cardano.MintResult, error) {
	args := m.Called(ctx, assetName, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cardano.MintResult), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jobBody(t *testing.T, inspectionID string) []byte {
	t.Helper()
	body, err := json.Marshal(models.MintJob{InspectionID: inspectionID})
	require.NoError(t, err)
	return body
}

func archivingInspection(id string) *models.Inspection {
	return &models.Inspection{
		ID:            id,
		PlateNumber:   "AB1234CD",
		VehicleMake:   "Toyota",
		VehicleModel:  "Avanza",
		VehicleYear:   2019,
		OdometerKM:    51000,
		OverallRating: 8,
		Status:        models.StatusArchiving,
	}
}

func TestHandleDelivery_Success(t *testing.T) {
	repo := new(MockRepository)
	minter := new(MockMinter)
	svc := NewMintingService(repo, minter, discardLogger())

	repo.On("ReadInspection", mock.Anything, "ins-1").Return(archivingInspection("ins-1"), nil)
	minter.On("MintNFT", mock.Anything, "CarDanoins-1", mock.MatchedBy(func(fields map[string]string) bool {
		return fields["plate_number"] == "AB1234CD" && fields["inspection_id"] == "ins-1"
	})).Return(&cardano.MintResult{
		TxHash:  "tx-hash-1",
		AssetID: "asset-1",
	}, nil)
	repo.On("SetInspectionMinted", mock.Anything, "ins-1", "tx-hash-1", "asset-1").Return(nil)

	err := svc.HandleDelivery(jobBody(t, "ins-1"), false)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestHandleDelivery_FirstFailureRequeues(t *testing.T) {
	repo := new(MockRepository)
	minter := new(MockMinter)
	svc := NewMintingService(repo, minter, discardLogger())

	repo.On("ReadInspection", mock.Anything, "ins-1").Return(archivingInspection("ins-1"), nil)
	minter.On("MintNFT", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("chain unavailable"))

	err := svc.HandleDelivery(jobBody(t, "ins-1"), false)

	require.Error(t, err)
	repo.AssertNotCalled(t, "SetInspectionMintFailed", mock.Anything, mock.Anything)
}

func TestHandleDelivery_RedeliveredFailureMarksFailArchive(t *testing.T) {
	repo := new(MockRepository)
	minter := new(MockMinter)
	svc := NewMintingService(repo, minter, discardLogger())

	repo.On("ReadInspection", mock.Anything, "ins-1").Return(archivingInspection("ins-1"), nil)
	minter.On("MintNFT", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("chain unavailable"))
	repo.On("SetInspectionMintFailed", mock.Anything, "ins-1").Return(nil)

	err := svc.HandleDelivery(jobBody(t, "ins-1"), true)

	require.NoError(t, err)
	repo.AssertCalled(t, "SetInspectionMintFailed", mock.Anything, "ins-1")
}

func TestHandleDelivery_StaleJobSkipped(t *testing.T) {
	repo := new(MockRepository)
	minter := new(MockMinter)
	svc := NewMintingService(repo, minter, discardLogger())

	ins := archivingInspection("ins-1")
	ins.Status = models.StatusArchived
	repo.On("ReadInspection", mock.Anything, "ins-1").Return(ins, nil)

	err := svc.HandleDelivery(jobBody(t, "ins-1"), false)

	require.NoError(t, err)
	minter.AssertNotCalled(t, "MintNFT", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleDelivery_MalformedBodyAcked(t *testing.T) {
	svc := NewMintingService(new(MockRepository), new(MockMinter), discardLogger())

	err := svc.HandleDelivery([]byte("{not json"), false)

	assert.NoError(t, err)
}
