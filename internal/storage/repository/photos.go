package repository

import (
	"context"
	"fmt"

	"github.com/car-dano/inspection-backend/internal/models"
)

// CreatePhoto вставляет запись фотографии и возвращает её ID.
func (s *Storage) CreatePhoto(ctx context.Context, photo models.Photo) (string, error) {
	const op = "storage.CreatePhoto"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO inspection_photos (inspection_id, object_key, file_id, url, caption, uploaded_by)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		photo.InspectionID, photo.ObjectKey, photo.FileID, photo.URL, photo.Caption, photo.UploadedBy).Scan(&newID)
	if err != nil {
		return "", wrapErr(op, err)
	}
	return newID, nil
}

// ReadPhoto возвращает запись фотографии по ID.
func (s *Storage) ReadPhoto(ctx context.Context, id string) (*models.Photo, error) {
	const op = "storage.ReadPhoto"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, inspection_id, object_key, file_id, url, caption, uploaded_by, created_at
			  FROM inspection_photos WHERE id = $1`
	var p models.Photo
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.InspectionID, &p.ObjectKey, &p.FileID,
		&p.URL, &p.Caption, &p.UploadedBy, &p.CreatedAt)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &p, nil
}

// DeletePhoto удаляет запись фотографии и возвращает количество удалённых строк.
func (s *Storage) DeletePhoto(ctx context.Context, id string) (int, error) {
	const op = "storage.DeletePhoto"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM inspection_photos WHERE id = $1`, id)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return int(rowsAffected), nil
}

// ListPhotosByInspection возвращает фотографии осмотра в порядке загрузки.
func (s *Storage) ListPhotosByInspection(ctx context.Context, inspectionID string) ([]*models.Photo, error) {
	const op = "storage.ListPhotosByInspection"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, inspection_id, object_key, file_id, url, caption, uploaded_by, created_at
			  FROM inspection_photos
			  WHERE inspection_id = $1
			  ORDER BY created_at`
	rows, err := s.DB.QueryContext(ctx, query, inspectionID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Photo
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.InspectionID, &p.ObjectKey, &p.FileID, &p.URL, &p.Caption,
			&p.UploadedBy, &p.CreatedAt); err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}
