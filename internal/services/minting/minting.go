// Package minting содержит обработчик заданий воркера минтинга: запись
// одобренного осмотра в блокчейн Cardano в виде NFT.
package minting

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/car-dano/inspection-backend/internal/cardano"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
)

var (
	mintedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minting_minted_total",
		Help: "Inspections successfully archived to the blockchain.",
	})
	failedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minting_failed_total",
		Help: "Mint jobs that exhausted their redelivery and were marked FAIL_ARCHIVE.",
	})
	retriedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minting_retried_total",
		Help: "Mint jobs returned to the queue after a first failure.",
	})
)

// Repository описывает контракт для работы с осмотрами в базе данных.
type Repository interface {
	ReadInspection(ctx context.Context, id string) (*models.Inspection, error)
	SetInspectionMinted(ctx context.Context, id, txHash, assetID string) error
	SetInspectionMintFailed(ctx context.Context, id string) error
}

// Minter описывает контракт шлюза блокчейна.
type Minter interface {
	MintNFT(ctx context.Context, assetName string, fields map[string]string) (*cardano.MintResult, error)
}

// MintingService обрабатывает задания очереди минтинга.
type MintingService struct {
	repo   Repository
	minter Minter
	log    *slog.Logger
}

// NewMintingService создает новый экземпляр MintingService.
func NewMintingService(repo Repository, minter Minter, log *slog.Logger) *MintingService {
	return &MintingService{repo: repo, minter: minter, log: log}
}

// HandleDelivery обрабатывает одно сообщение очереди. Первая неудача
// возвращает ошибку, и сообщение уходит обратно в очередь; неудача повторной
// доставки фиксируется как FAIL_ARCHIVE, и сообщение подтверждается.
func (s *MintingService) HandleDelivery(body []byte, redelivered bool) error {
	const op = "minting.HandleDelivery"
	ctx := context.Background()

	var job models.MintJob
	if err := json.Unmarshal(body, &job); err != nil {
		// сообщение не станет валидным от повторной доставки
		s.log.Error("malformed mint job dropped", sl.Err(err))
		return nil
	}
	log := s.log.With(slog.String("inspection_id", job.InspectionID))

	if err := s.mint(ctx, job.InspectionID); err != nil {
		if !redelivered {
			retriedTotal.Inc()
			log.Warn("mint attempt failed, requeueing", sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}

		failedTotal.Inc()
		log.Error("mint failed after redelivery, marking FAIL_ARCHIVE", sl.Err(err))
		if ferr := s.repo.SetInspectionMintFailed(ctx, job.InspectionID); ferr != nil {
			log.Error("failed to mark inspection FAIL_ARCHIVE", sl.Err(ferr))
			return fmt.Errorf("%s: %w", op, ferr)
		}
		return nil
	}

	mintedTotal.Inc()
	log.Info("inspection archived to blockchain")
	return nil
}

func (s *MintingService) mint(ctx context.Context, inspectionID string) error {
	ins, err := s.repo.ReadInspection(ctx, inspectionID)
	if err != nil {
		return err
	}
	if ins.Status != models.StatusArchiving {
		// задание устарело: статус уже сменился другим путём
		s.log.Warn("mint job skipped",
			slog.String("inspection_id", inspectionID), slog.String("status", ins.Status))
		return nil
	}

	assetName := fmt.Sprintf("CarDano%s", shortID(ins.ID))
	result, err := s.minter.MintNFT(ctx, assetName, map[string]string{
		"plate_number":   ins.PlateNumber,
		"vehicle_make":   ins.VehicleMake,
		"vehicle_model":  ins.VehicleModel,
		"vehicle_year":   strconv.Itoa(ins.VehicleYear),
		"odometer_km":    strconv.Itoa(ins.OdometerKM),
		"overall_rating": strconv.Itoa(ins.OverallRating),
		"inspection_id":  ins.ID,
	})
	if err != nil {
		return err
	}

	return s.repo.SetInspectionMinted(ctx, ins.ID, result.TxHash, result.AssetID)
}

// shortID возвращает первые 8 символов UUID для имени ассета.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
