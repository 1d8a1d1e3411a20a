// Package photo содержит логику загрузки фотографий осмотра в Backblaze B2
// и ведения их записей в базе данных.
package photo

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
	"github.com/car-dano/inspection-backend/internal/objectstorage"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

// Repository описывает контракт для работы с фотографиями в базе данных.
type Repository interface {
	CreatePhoto(ctx context.Context, photo models.Photo) (string, error)
	ReadPhoto(ctx context.Context, id string) (*models.Photo, error)
	DeletePhoto(ctx context.Context, id string) (int, error)
	ListPhotosByInspection(ctx context.Context, inspectionID string) ([]*models.Photo, error)
	ReadInspection(ctx context.Context, id string) (*models.Inspection, error)
}

// ObjectStorage описывает контракт хранилища файлов.
type ObjectStorage interface {
	Upload(ctx context.Context, fileName, contentType string, data []byte) (*objectstorage.UploadResult, error)
	Delete(ctx context.Context, fileName, fileID string) error
}

// PhotoService реализует операции над фотографиями осмотра.
type PhotoService struct {
	repo    Repository
	storage ObjectStorage
	log     *slog.Logger
}

// NewPhotoService создает новый экземпляр PhotoService.
func NewPhotoService(repo Repository, storage ObjectStorage, log *slog.Logger) *PhotoService {
	return &PhotoService{repo: repo, storage: storage, log: log}
}

// Upload загружает файл в хранилище и сохраняет запись фотографии.
// Фотографии принимаются только от инспектора, проводившего осмотр,
// и только пока осмотр в статусе NEED_REVIEW.
func (s *PhotoService) Upload(ctx context.Context, inspectionID, originalName, contentType, caption, uploaderUID string, data []byte) (*models.Photo, error) {
	const op = "photo.Upload"

	ins, err := s.repo.ReadInspection(ctx, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ins.InspectorUID != uploaderUID {
		// чужой осмотр не раскрываем
		return nil, repository.ErrNotFound
	}
	if ins.Status != models.StatusNeedReview {
		return nil, repository.ErrWrongStatus
	}

	objectKey := buildObjectKey(inspectionID, originalName)
	result, err := s.storage.Upload(ctx, objectKey, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	photo := models.Photo{
		InspectionID: inspectionID,
		ObjectKey:    objectKey,
		FileID:       result.FileID,
		URL:          result.FileURL,
		Caption:      caption,
		UploadedBy:   uploaderUID,
	}
	photo.ID, err = s.repo.CreatePhoto(ctx, photo)
	if err != nil {
		// файл уже в хранилище, подчищаем, чтобы не копить сирот
		if derr := s.storage.Delete(ctx, objectKey, result.FileID); derr != nil {
			s.log.Error("failed to clean up orphan object", slog.String("object_key", objectKey), sl.Err(derr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &photo, nil
}

// Delete удаляет фотографию из хранилища и базы данных.
// Удаление доступно только инспектору, проводившему осмотр.
func (s *PhotoService) Delete(ctx context.Context, id, actorUID string) error {
	const op = "photo.Delete"

	photo, err := s.repo.ReadPhoto(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	ins, err := s.repo.ReadInspection(ctx, photo.InspectionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ins.InspectorUID != actorUID {
		return repository.ErrNotFound
	}

	if err := s.storage.Delete(ctx, photo.ObjectKey, photo.FileID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.repo.DeletePhoto(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List возвращает фотографии осмотра.
func (s *PhotoService) List(ctx context.Context, inspectionID string) ([]*models.Photo, error) {
	return s.repo.ListPhotosByInspection(ctx, inspectionID)
}

// buildObjectKey собирает ключ объекта вида inspections/{id}/{uuid}{ext}.
func buildObjectKey(inspectionID, originalName string) string {
	ext := strings.ToLower(path.Ext(originalName))
	return fmt.Sprintf("inspections/%s/%s%s", inspectionID, uuid.NewString(), ext)
}
