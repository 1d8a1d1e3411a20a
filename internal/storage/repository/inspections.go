package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/car-dano/inspection-backend/internal/models"
)

const inspectionColumns = `id, plate_number, vehicle_make, vehicle_model, vehicle_year,
			      odometer_km, overall_rating, summary, status, inspector_uid, reviewer_uid,
			      nft_tx_hash, nft_asset_id, created_at, updated_at`

func scanInspection(row interface{ Scan(...any) error }) (*models.Inspection, error) {
	ins := &models.Inspection{}
	var reviewerUID, nftTxHash, nftAssetID sql.NullString
	if err := row.Scan(&ins.ID, &ins.PlateNumber, &ins.VehicleMake, &ins.VehicleModel,
		&ins.VehicleYear, &ins.OdometerKM, &ins.OverallRating, &ins.Summary, &ins.Status,
		&ins.InspectorUID, &reviewerUID, &nftTxHash, &nftAssetID,
		&ins.CreatedAt, &ins.UpdatedAt); err != nil {
		return nil, err
	}
	if reviewerUID.Valid {
		ins.ReviewerUID = &reviewerUID.String
	}
	if nftTxHash.Valid {
		ins.NFTTxHash = &nftTxHash.String
	}
	if nftAssetID.Valid {
		ins.NFTAssetID = &nftAssetID.String
	}
	return ins, nil
}

// CreateInspection вставляет новую запись осмотра и возвращает её ID.
func (s *Storage) CreateInspection(ctx context.Context, ins models.Inspection) (string, error) {
	const op = "storage.CreateInspection"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO inspections (plate_number, vehicle_make, vehicle_model, vehicle_year,
			      odometer_km, overall_rating, summary, status, inspector_uid)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		ins.PlateNumber, ins.VehicleMake, ins.VehicleModel, ins.VehicleYear,
		ins.OdometerKM, ins.OverallRating, []byte(ins.Summary), ins.Status,
		ins.InspectorUID).Scan(&newID)
	if err != nil {
		return "", wrapErr(op, err)
	}
	return newID, nil
}

// ReadInspection возвращает данные осмотра по его ID.
func (s *Storage) ReadInspection(ctx context.Context, id string) (*models.Inspection, error) {
	const op = "storage.ReadInspection"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + inspectionColumns + ` FROM inspections WHERE id = $1`
	ins, err := scanInspection(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return ins, nil
}

// ListInspections возвращает список осмотров с пагинацией.
// Пустой status или inspectorUID отключает соответствующий фильтр.
func (s *Storage) ListInspections(ctx context.Context, status, inspectorUID string, limit, offset int) ([]*models.Inspection, error) {
	const op = "storage.ListInspections"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + inspectionColumns + `
			  FROM inspections
			  WHERE ($1 = '' OR status = $1)
			  	AND ($2 = '' OR inspector_uid::text = $2)
			  ORDER BY created_at DESC
			  LIMIT $3 OFFSET $4`
	rows, err := s.DB.QueryContext(ctx, query, status, inspectorUID, limit, offset)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Inspection
	for rows.Next() {
		ins, err := scanInspection(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, ins)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// UpdateInspection обновляет редактируемые поля осмотра и записывает
// изменения в журнал правок одной транзакцией.
// Обновление проходит только в статусе NEED_REVIEW.
func (s *Storage) UpdateInspection(ctx context.Context, id string, ins models.Inspection, changes []models.ChangelogEntry) (int, error) {
	const op = "storage.UpdateInspection"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE inspections
			  SET plate_number = $1, vehicle_make = $2, vehicle_model = $3, vehicle_year = $4,
			      odometer_km = $5, overall_rating = $6, summary = $7, updated_at = now()
			  WHERE id = $8 AND status = 'NEED_REVIEW'`
	result, err := tx.ExecContext(ctx, query,
		ins.PlateNumber, ins.VehicleMake, ins.VehicleModel, ins.VehicleYear,
		ins.OdometerKM, ins.OverallRating, []byte(ins.Summary), id)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, wrapErr(op, err)
	}
	if rowsAffected == 0 {
		return 0, nil
	}

	for _, ch := range changes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO inspection_changelog (inspection_id, field_name, old_value, new_value, changed_by)
			 VALUES ($1, $2, $3, $4, $5)`,
			id, ch.FieldName, ch.OldValue, ch.NewValue, ch.ChangedBy)
		if err != nil {
			return 0, wrapErr(op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, wrapErr(op, err)
	}
	return int(rowsAffected), nil
}

// TransitionInspectionStatus атомарно переводит осмотр из статуса from в to.
// Возвращает ErrWrongStatus, если осмотр существует, но находится в другом статусе.
func (s *Storage) TransitionInspectionStatus(ctx context.Context, id, from, to string, reviewerUID *string) error {
	const op = "storage.TransitionInspectionStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE inspections
			  SET status = $1, reviewer_uid = COALESCE($2, reviewer_uid), updated_at = now()
			  WHERE id = $3 AND status = $4`
	result, err := s.DB.ExecContext(ctx, query, to, reviewerUID, id, from)
	if err != nil {
		return wrapErr(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrapErr(op, err)
	}
	if rowsAffected == 0 {
		var exists bool
		if err := s.DB.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM inspections WHERE id = $1)`, id).Scan(&exists); err != nil {
			return wrapErr(op, err)
		}
		if !exists {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, ErrWrongStatus)
	}
	return nil
}

// SetInspectionMinted помечает осмотр заархивированным с реквизитами NFT.
func (s *Storage) SetInspectionMinted(ctx context.Context, id, txHash, assetID string) error {
	const op = "storage.SetInspectionMinted"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE inspections
			  SET status = 'ARCHIVED', nft_tx_hash = $1, nft_asset_id = $2, updated_at = now()
			  WHERE id = $3 AND status = 'ARCHIVING'`
	result, err := s.DB.ExecContext(ctx, query, txHash, assetID, id)
	if err != nil {
		return wrapErr(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrapErr(op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrWrongStatus)
	}
	return nil
}

// SetInspectionMintFailed помечает осмотр как не прошедший архивирование.
func (s *Storage) SetInspectionMintFailed(ctx context.Context, id string) error {
	const op = "storage.SetInspectionMintFailed"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE inspections
			  SET status = 'FAIL_ARCHIVE', updated_at = now()
			  WHERE id = $1 AND status = 'ARCHIVING'`
	_, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// ListChangelog возвращает журнал правок осмотра в хронологическом порядке.
func (s *Storage) ListChangelog(ctx context.Context, inspectionID string) ([]*models.ChangelogEntry, error) {
	const op = "storage.ListChangelog"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, inspection_id, field_name, old_value, new_value, changed_by, changed_at
			  FROM inspection_changelog
			  WHERE inspection_id = $1
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, inspectionID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ChangelogEntry
	for rows.Next() {
		var e models.ChangelogEntry
		if err := rows.Scan(&e.ID, &e.InspectionID, &e.FieldName, &e.OldValue,
			&e.NewValue, &e.ChangedBy, &e.ChangedAt); err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// CountInspectionsByStatus возвращает количество осмотров в разрезе статусов.
func (s *Storage) CountInspectionsByStatus(ctx context.Context) (map[string]int, error) {
	const op = "storage.CountInspectionsByStatus"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM inspections GROUP BY status`)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, wrapErr(op, err)
		}
		result[status] = count
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// CountInspectionsByBucket агрегирует количество осмотров по корзинам времени.
// Ключ корзины форматируется в часовом поясе tz шаблоном format, который
// обязан совпадать с форматом ключей period.Keys.
func (s *Storage) CountInspectionsByBucket(ctx context.Context, start, end time.Time, tz, format string) (map[string]int, error) {
	const op = "storage.CountInspectionsByBucket"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT to_char(created_at AT TIME ZONE $1, $2) AS bucket, COUNT(*)
			  FROM inspections
			  WHERE created_at >= $3 AND created_at < $4
			  GROUP BY bucket`
	rows, err := s.DB.QueryContext(ctx, query, tz, format, start, end)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make(map[string]int)
	for rows.Next() {
		var bucket string
		var count int
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, wrapErr(op, err)
		}
		result[bucket] = count
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// ListArchivedInspections возвращает заархивированные осмотры для публичного API.
// Пустой plate отключает фильтр по номеру.
func (s *Storage) ListArchivedInspections(ctx context.Context, plate string, limit, offset int) ([]*models.PublicInspection, error) {
	const op = "storage.ListArchivedInspections"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, plate_number, vehicle_make, vehicle_model, vehicle_year,
			      overall_rating, nft_tx_hash, nft_asset_id, created_at
			  FROM inspections
			  WHERE status = 'ARCHIVED' AND ($1 = '' OR plate_number = $1)
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, plate, limit, offset)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PublicInspection
	for rows.Next() {
		var p models.PublicInspection
		var nftTxHash, nftAssetID sql.NullString
		if err := rows.Scan(&p.ID, &p.PlateNumber, &p.VehicleMake, &p.VehicleModel,
			&p.VehicleYear, &p.OverallRating, &nftTxHash, &nftAssetID, &p.CreatedAt); err != nil {
			return nil, wrapErr(op, err)
		}
		if nftTxHash.Valid {
			p.NFTTxHash = &nftTxHash.String
		}
		if nftAssetID.Valid {
			p.NFTAssetID = &nftAssetID.String
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// ReadArchivedInspection возвращает один заархивированный осмотр для публичного API.
func (s *Storage) ReadArchivedInspection(ctx context.Context, id string) (*models.PublicInspection, error) {
	const op = "storage.ReadArchivedInspection"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, plate_number, vehicle_make, vehicle_model, vehicle_year,
			      overall_rating, nft_tx_hash, nft_asset_id, created_at
			  FROM inspections
			  WHERE id = $1 AND status = 'ARCHIVED'`
	var p models.PublicInspection
	var nftTxHash, nftAssetID sql.NullString
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.PlateNumber, &p.VehicleMake,
		&p.VehicleModel, &p.VehicleYear, &p.OverallRating, &nftTxHash, &nftAssetID, &p.CreatedAt)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	if nftTxHash.Valid {
		p.NFTTxHash = &nftTxHash.String
	}
	if nftAssetID.Valid {
		p.NFTAssetID = &nftAssetID.String
	}
	return &p, nil
}
