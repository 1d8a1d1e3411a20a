// Package credit содержит логику бизнес-уровня для пакетов кредитов
// и списания кредитов при скачивании отчётов.
package credit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/car-dano/inspection-backend/internal/cache"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

const (
	activePackagesKey = "creditpackages:active"
	packagesCacheTTL  = 5 * time.Minute
)

// Repository описывает контракт для работы с пакетами кредитов и списаниями.
type Repository interface {
	CreateCreditPackage(ctx context.Context, pkg models.CreditPackage) (string, error)
	ReadCreditPackage(ctx context.Context, id string) (*models.CreditPackage, error)
	ListCreditPackages(ctx context.Context, onlyActive bool, limit, offset int) ([]*models.CreditPackage, error)
	UpdateCreditPackage(ctx context.Context, id string, pkg models.CreditPackage) (int, error)
	DeleteCreditPackage(ctx context.Context, id string) (int, error)
	ChargeDownload(ctx context.Context, userUID, inspectionID string) (bool, error)
	ReadInspection(ctx context.Context, id string) (*models.Inspection, error)
}

// CreditService реализует операции над пакетами кредитов.
type CreditService struct {
	repo  Repository
	cache *cache.Cache
	log   *slog.Logger
}

// NewCreditService создает новый экземпляр CreditService.
func NewCreditService(repo Repository, c *cache.Cache, log *slog.Logger) *CreditService {
	return &CreditService{repo: repo, cache: c, log: log}
}

// CreatePackage сохраняет новый пакет кредитов.
func (s *CreditService) CreatePackage(ctx context.Context, entry models.DummyCreditPackage) (string, error) {
	pkg := models.CreditPackage{
		Name:         entry.Name,
		CreditAmount: entry.CreditAmount,
		PriceIDR:     entry.PriceIDR,
		IsActive:     *entry.IsActive,
	}
	id, err := s.repo.CreateCreditPackage(ctx, pkg)
	if err != nil {
		return "", err
	}
	s.dropPackagesCache()
	return id, nil
}

// ReadPackage возвращает пакет кредитов по ID.
func (s *CreditService) ReadPackage(ctx context.Context, id string) (*models.CreditPackage, error) {
	return s.repo.ReadCreditPackage(ctx, id)
}

// ListPackages возвращает страницу пакетов. Список активных пакетов,
// который запрашивает витрина, кешируется.
func (s *CreditService) ListPackages(ctx context.Context, onlyActive bool, limit, offset int) ([]*models.CreditPackage, error) {
	const op = "credit.ListPackages"

	cacheable := onlyActive && offset == 0
	if cacheable {
		var cached []*models.CreditPackage
		found, err := s.cache.Get(activePackagesKey, &cached)
		if err != nil {
			s.log.Warn("failed to read packages cache", sl.Err(err))
		}
		if found {
			return cached, nil
		}
	}

	packages, err := s.repo.ListCreditPackages(ctx, onlyActive, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cacheable {
		if err := s.cache.Set(activePackagesKey, packages, packagesCacheTTL); err != nil {
			s.log.Warn("failed to write packages cache", sl.Err(err))
		}
	}
	return packages, nil
}

// UpdatePackage обновляет пакет кредитов.
func (s *CreditService) UpdatePackage(ctx context.Context, id string, entry models.DummyCreditPackage) error {
	pkg := models.CreditPackage{
		Name:         entry.Name,
		CreditAmount: entry.CreditAmount,
		PriceIDR:     entry.PriceIDR,
		IsActive:     *entry.IsActive,
	}
	rows, err := s.repo.UpdateCreditPackage(ctx, id, pkg)
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	s.dropPackagesCache()
	return nil
}

// DeletePackage удаляет пакет кредитов.
func (s *CreditService) DeletePackage(ctx context.Context, id string) error {
	rows, err := s.repo.DeleteCreditPackage(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	s.dropPackagesCache()
	return nil
}

// ChargeDownload списывает один кредит за скачивание отчёта по архивированному
// осмотру. Возвращает true, если кредит был списан, и false при повторном
// скачивании того же отчёта. При нулевом балансе возвращается
// repository.ErrNoCredit, при неархивированном осмотре repository.ErrWrongStatus.
func (s *CreditService) ChargeDownload(ctx context.Context, userUID, inspectionID string) (bool, error) {
	const op = "credit.ChargeDownload"

	ins, err := s.repo.ReadInspection(ctx, inspectionID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if ins.Status != models.StatusArchived {
		return false, repository.ErrWrongStatus
	}
	return s.repo.ChargeDownload(ctx, userUID, inspectionID)
}

func (s *CreditService) dropPackagesCache() {
	if err := s.cache.Invalidate(activePackagesKey); err != nil {
		s.log.Warn("failed to invalidate packages cache", sl.Err(err))
	}
}
