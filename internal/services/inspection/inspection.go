// Package inspection содержит логику бизнес-уровня жизненного цикла осмотра:
// создание, правки до ревью с фиксацией изменений, ревью и отправку
// одобренных осмотров на архивацию в блокчейн.
package inspection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

// Repository описывает контракт для работы с осмотрами в базе данных.
type Repository interface {
	CreateInspection(ctx context.Context, ins models.Inspection) (string, error)
	ReadInspection(ctx context.Context, id string) (*models.Inspection, error)
	ListInspections(ctx context.Context, status, inspectorUID string, limit, offset int) ([]*models.Inspection, error)
	UpdateInspection(ctx context.Context, id string, ins models.Inspection, changes []models.ChangelogEntry) (int, error)
	TransitionInspectionStatus(ctx context.Context, id, from, to string, reviewerUID *string) error
	SetInspectionMintFailed(ctx context.Context, id string) error
	ListChangelog(ctx context.Context, inspectionID string) ([]*models.ChangelogEntry, error)
}

// MintPublisher отправляет задание на минтинг в очередь.
type MintPublisher interface {
	PublishMintJob(job models.MintJob) error
}

// InspectionService реализует операции над осмотрами.
type InspectionService struct {
	repo      Repository
	publisher MintPublisher
	log       *slog.Logger
}

// NewInspectionService создает новый экземпляр InspectionService.
func NewInspectionService(repo Repository, publisher MintPublisher, log *slog.Logger) *InspectionService {
	return &InspectionService{repo: repo, publisher: publisher, log: log}
}

// Create сохраняет новый осмотр со статусом NEED_REVIEW.
func (s *InspectionService) Create(ctx context.Context, entry models.DummyInspection, inspectorUID string) (string, error) {
	ins := models.Inspection{
		PlateNumber:   entry.PlateNumber,
		VehicleMake:   entry.VehicleMake,
		VehicleModel:  entry.VehicleModel,
		VehicleYear:   entry.VehicleYear,
		OdometerKM:    entry.OdometerKM,
		OverallRating: entry.OverallRating,
		Summary:       entry.Summary,
		Status:        models.StatusNeedReview,
		InspectorUID:  inspectorUID,
	}
	return s.repo.CreateInspection(ctx, ins)
}

// Read возвращает осмотр по идентификатору.
func (s *InspectionService) Read(ctx context.Context, id string) (*models.Inspection, error) {
	return s.repo.ReadInspection(ctx, id)
}

// List возвращает страницу осмотров с фильтрами по статусу и инспектору.
func (s *InspectionService) List(ctx context.Context, status, inspectorUID string, limit, offset int) ([]*models.Inspection, error) {
	return s.repo.ListInspections(ctx, status, inspectorUID, limit, offset)
}

// Update применяет правки к осмотру в статусе NEED_REVIEW и записывает
// каждое изменённое поле в журнал правок. Осмотр в любом другом статусе
// менять нельзя: возвращается repository.ErrWrongStatus.
func (s *InspectionService) Update(ctx context.Context, id string, entry models.DummyInspection, editorUID string) error {
	const op = "inspection.Update"

	current, err := s.repo.ReadInspection(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if current.Status != models.StatusNeedReview {
		return repository.ErrWrongStatus
	}

	updated := models.Inspection{
		PlateNumber:   entry.PlateNumber,
		VehicleMake:   entry.VehicleMake,
		VehicleModel:  entry.VehicleModel,
		VehicleYear:   entry.VehicleYear,
		OdometerKM:    entry.OdometerKM,
		OverallRating: entry.OverallRating,
		Summary:       entry.Summary,
	}
	changes := diffInspections(current, updated, editorUID)
	changes = append(changes, diffSummaries(id, current.Summary, updated.Summary, editorUID)...)
	for i := range changes {
		changes[i].InspectionID = id
	}

	rows, err := s.repo.UpdateInspection(ctx, id, updated, changes)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		// статус успел поменяться между чтением и обновлением
		return repository.ErrWrongStatus
	}
	return nil
}

// Review фиксирует решение ревьюера: approve переводит осмотр в APPROVED,
// reject в REJECTED. Решение по уже разобранному осмотру отклоняется.
func (s *InspectionService) Review(ctx context.Context, id, reviewerUID, decision string) (string, error) {
	target := models.StatusApproved
	if decision == "reject" {
		target = models.StatusRejected
	}
	if err := s.repo.TransitionInspectionStatus(ctx, id, models.StatusNeedReview, target, &reviewerUID); err != nil {
		return "", err
	}
	return target, nil
}

// Archive переводит одобренный осмотр в ARCHIVING и ставит задание минтинга
// в очередь. Если публикация не удалась, осмотр помечается FAIL_ARCHIVE,
// чтобы его можно было отправить повторно.
func (s *InspectionService) Archive(ctx context.Context, id string) error {
	const op = "inspection.Archive"

	if err := s.repo.TransitionInspectionStatus(ctx, id, models.StatusApproved, models.StatusArchiving, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.publisher.PublishMintJob(models.MintJob{InspectionID: id}); err != nil {
		s.log.Error("failed to publish mint job", slog.String("inspection_id", id), sl.Err(err))
		if ferr := s.repo.SetInspectionMintFailed(ctx, id); ferr != nil {
			s.log.Error("failed to mark inspection FAIL_ARCHIVE", slog.String("inspection_id", id), sl.Err(ferr))
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Retry повторно отправляет осмотр из FAIL_ARCHIVE в очередь минтинга.
func (s *InspectionService) Retry(ctx context.Context, id string) error {
	const op = "inspection.Retry"

	if err := s.repo.TransitionInspectionStatus(ctx, id, models.StatusFailArchive, models.StatusArchiving, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.publisher.PublishMintJob(models.MintJob{InspectionID: id}); err != nil {
		if ferr := s.repo.SetInspectionMintFailed(ctx, id); ferr != nil {
			s.log.Error("failed to mark inspection FAIL_ARCHIVE", slog.String("inspection_id", id), sl.Err(ferr))
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Changelog возвращает журнал правок осмотра.
func (s *InspectionService) Changelog(ctx context.Context, id string) ([]*models.ChangelogEntry, error) {
	if _, err := s.repo.ReadInspection(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListChangelog(ctx, id)
}

// diffInspections сравнивает скалярные поля двух версий осмотра.
func diffInspections(old *models.Inspection, upd models.Inspection, editorUID string) []models.ChangelogEntry {
	var changes []models.ChangelogEntry
	add := func(field, oldVal, newVal string) {
		if oldVal == newVal {
			return
		}
		changes = append(changes, models.ChangelogEntry{
			FieldName: field,
			OldValue:  oldVal,
			NewValue:  newVal,
			ChangedBy: editorUID,
		})
	}
	add("plate_number", old.PlateNumber, upd.PlateNumber)
	add("vehicle_make", old.VehicleMake, upd.VehicleMake)
	add("vehicle_model", old.VehicleModel, upd.VehicleModel)
	add("vehicle_year", strconv.Itoa(old.VehicleYear), strconv.Itoa(upd.VehicleYear))
	add("odometer_km", strconv.Itoa(old.OdometerKM), strconv.Itoa(upd.OdometerKM))
	add("overall_rating", strconv.Itoa(old.OverallRating), strconv.Itoa(upd.OverallRating))
	return changes
}

// diffSummaries сравнивает верхнеуровневые ключи JSON-результатов осмотра.
// Нечитаемый JSON фиксируется как полная замена поля summary.
func diffSummaries(id string, oldRaw, newRaw json.RawMessage, editorUID string) []models.ChangelogEntry {
	var oldMap, newMap map[string]json.RawMessage
	if err := json.Unmarshal(oldRaw, &oldMap); err != nil {
		oldMap = nil
	}
	if err := json.Unmarshal(newRaw, &newMap); err != nil {
		newMap = nil
	}
	if oldMap == nil || newMap == nil {
		if string(oldRaw) == string(newRaw) {
			return nil
		}
		return []models.ChangelogEntry{{
			InspectionID: id,
			FieldName:    "summary",
			OldValue:     string(oldRaw),
			NewValue:     string(newRaw),
			ChangedBy:    editorUID,
		}}
	}

	var changes []models.ChangelogEntry
	for key, oldVal := range oldMap {
		newVal, ok := newMap[key]
		switch {
		case !ok:
			changes = append(changes, models.ChangelogEntry{
				FieldName: "summary." + key,
				OldValue:  string(oldVal),
				NewValue:  "",
				ChangedBy: editorUID,
			})
		case string(oldVal) != string(newVal):
			changes = append(changes, models.ChangelogEntry{
				FieldName: "summary." + key,
				OldValue:  string(oldVal),
				NewValue:  string(newVal),
				ChangedBy: editorUID,
			})
		}
	}
	for key, newVal := range newMap {
		if _, ok := oldMap[key]; !ok {
			changes = append(changes, models.ChangelogEntry{
				FieldName: "summary." + key,
				OldValue:  "",
				NewValue:  string(newVal),
				ChangedBy: editorUID,
			})
		}
	}
	return changes
}
