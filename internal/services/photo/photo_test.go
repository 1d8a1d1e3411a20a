package photo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/car-dano/inspection-backend/internal/models"
	"github.com/car-dano/inspection-backend/internal/objectstorage"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreatePhoto(ctx context.Context, photo models.Photo) (string, error) {
	args := m.Called(ctx, photo)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) ReadPhoto(ctx context.Context, id string) (*models.Photo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Photo), args.Error(1)
}

func (m *MockRepository) DeletePhoto(ctx context.Context, id string) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ListPhotosByInspection(ctx context.Context, inspectionID string) ([]*models.Photo, error) {
	args := m.Called(ctx, inspectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Photo), args.Error(1)
}

func (m *MockRepository) ReadInspection(ctx context.Context, id string) (*models.Inspection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inspection), args.Error(1)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, fileName, contentType string, data []byte) (*objectstorage.UploadResult, error) {
	args := m.Called(ctx, fileName, contentType, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*objectstorage.UploadResult), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, fileName, fileID string) error {
	args := m.Called(ctx, fileName, fileID)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUpload_Success(t *testing.T) {
	repo := new(MockRepository)
	store := new(MockStorage)
	svc := NewPhotoService(repo, store, discardLogger())

	repo.On("ReadInspection", mock.Anything, "ins-1").Return(&models.Inspection{
		ID:           "ins-1",
		Status:       models.StatusNeedReview,
		InspectorUID: "insp-1",
	}, nil)
	store.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "inspections/ins-1/") && strings.HasSuffix(key, ".jpg")
	}), "image/jpeg", []byte("img")).Return(&objectstorage.UploadResult{
		FileID:  "b2-file-1",
		FileURL: "https://f000.backblazeb2.com/file/bucket/key",
	}, nil)
	repo.On("CreatePhoto", mock.Anything, mock.MatchedBy(func(p models.Photo) bool {
		return p.InspectionID == "ins-1" && p.FileID == "b2-file-1" && p.UploadedBy == "insp-1"
	})).Return("photo-1", nil)

	photo, err := svc.Upload(context.Background(), "ins-1", "Front.JPG", "image/jpeg", "front view", "insp-1", []byte("img"))

	require.NoError(t, err)
	assert.Equal(t, "photo-1", photo.ID)
	assert.Equal(t, "https://f000.backblazeb2.com/file/bucket/key", photo.URL)
}

func TestUpload_WrongStatus(t *testing.T) {
	repo := new(MockRepository)
	store := new(MockStorage)
	svc := NewPhotoService(repo, store, discardLogger())

	repo.On("ReadInspection", mock.Anything, "ins-1").Return(&models.Inspection{
		ID:           "ins-1",
		Status:       models.StatusArchived,
		InspectorUID: "insp-1",
	}, nil)

	_, err := svc.Upload(context.Background(), "ins-1", "front.jpg", "image/jpeg", "", "insp-1", []byte("img"))

	assert.ErrorIs(t, err, repository.ErrWrongStatus)
	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpload_ForeignInspection(t *testing.T) {
	repo := new(MockRepository)
	store := new(MockStorage)
	svc := NewPhotoService(repo, store, discardLogger())

	repo.On("ReadInspection", mock.Anything, "ins-1").Return(&models.Inspection{
		ID:           "ins-1",
		Status:       models.StatusNeedReview,
		InspectorUID: "insp-1",
	}, nil)

	_, err := svc.Upload(context.Background(), "ins-1", "front.jpg", "image/jpeg", "", "insp-2", []byte("img"))

	assert.ErrorIs(t, err, repository.ErrNotFound)
	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "CreatePhoto", mock.Anything, mock.Anything)
}

func TestUpload_CleansUpOrphanOnDBError(t *testing.T) {
	repo := new(MockRepository)
	store := new(MockStorage)
	svc := NewPhotoService(repo, store, discardLogger())

	repo.On("ReadInspection", mock.Anything, "ins-1").Return(&models.Inspection{
		ID:           "ins-1",
		Status:       models.StatusNeedReview,
		InspectorUID: "insp-1",
	}, nil)
	store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(&objectstorage.UploadResult{
		FileID:  "b2-file-1",
		FileURL: "https://example.com/f",
	}, nil)
	repo.On("CreatePhoto", mock.Anything, mock.Anything).Return("", errors.New("db down"))
	store.On("Delete", mock.Anything, mock.Anything, "b2-file-1").Return(nil)

	_, err := svc.Upload(context.Background(), "ins-1", "front.jpg", "image/jpeg", "", "insp-1", []byte("img"))

	require.Error(t, err)
	store.AssertCalled(t, "Delete", mock.Anything, mock.Anything, "b2-file-1")
}

func TestDelete_Success(t *testing.T) {
	repo := new(MockRepository)
	store := new(MockStorage)
	svc := NewPhotoService(repo, store, discardLogger())

	repo.On("ReadPhoto", mock.Anything, "photo-1").Return(&models.Photo{
		ID:           "photo-1",
		InspectionID: "ins-1",
		ObjectKey:    "inspections/ins-1/abc.jpg",
		FileID:       "b2-file-1",
	}, nil)
	repo.On("ReadInspection", mock.Anything, "ins-1").Return(&models.Inspection{
		ID:           "ins-1",
		Status:       models.StatusNeedReview,
		InspectorUID: "insp-1",
	}, nil)
	store.On("Delete", mock.Anything, "inspections/ins-1/abc.jpg", "b2-file-1").Return(nil)
	repo.On("DeletePhoto", mock.Anything, "photo-1").Return(1, nil)

	err := svc.Delete(context.Background(), "photo-1", "insp-1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestDelete_ForeignInspection(t *testing.T) {
	repo := new(MockRepository)
	store := new(MockStorage)
	svc := NewPhotoService(repo, store, discardLogger())

	repo.On("ReadPhoto", mock.Anything, "photo-1").Return(&models.Photo{
		ID:           "photo-1",
		InspectionID: "ins-1",
		ObjectKey:    "inspections/ins-1/abc.jpg",
		FileID:       "b2-file-1",
	}, nil)
	repo.On("ReadInspection", mock.Anything, "ins-1").Return(&models.Inspection{
		ID:           "ins-1",
		Status:       models.StatusNeedReview,
		InspectorUID: "insp-1",
	}, nil)

	err := svc.Delete(context.Background(), "photo-1", "insp-2")

	assert.ErrorIs(t, err, repository.ErrNotFound)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "DeletePhoto", mock.Anything, mock.Anything)
}
