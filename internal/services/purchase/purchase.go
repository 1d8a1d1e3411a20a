// Package purchase содержит логику бизнес-уровня покупки пакетов кредитов:
// выставление счёта в Xendit и обработку вебхуков об оплате.
package purchase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/car-dano/inspection-backend/internal/models"
	"github.com/car-dano/inspection-backend/internal/paymentgateway"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

// Repository описывает контракт для работы с покупками в базе данных.
type Repository interface {
	ReadCreditPackage(ctx context.Context, id string) (*models.CreditPackage, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	CreatePurchase(ctx context.Context, purchase models.Purchase) (string, error)
	ListPurchasesByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Purchase, error)
	SettlePurchase(ctx context.Context, externalID string, paidAt time.Time) (bool, error)
	ExpirePurchase(ctx context.Context, externalID string) error
}

// InvoiceCreator описывает контракт платёжного шлюза.
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, req paymentgateway.CreateInvoiceRequest) (*paymentgateway.CreateInvoiceResponse, error)
}

// PurchaseService реализует покупку пакетов кредитов.
type PurchaseService struct {
	repo       Repository
	gateway    InvoiceCreator
	successURL string
	failureURL string
	log        *slog.Logger
}

// NewPurchaseService создает новый экземпляр PurchaseService.
func NewPurchaseService(repo Repository, gateway InvoiceCreator, successURL, failureURL string, log *slog.Logger) *PurchaseService {
	return &PurchaseService{
		repo:       repo,
		gateway:    gateway,
		successURL: successURL,
		failureURL: failureURL,
		log:        log,
	}
}

// Checkout выставляет счёт на выбранный пакет и сохраняет покупку в PENDING.
// Покупать можно только активные пакеты.
func (s *PurchaseService) Checkout(ctx context.Context, userUID, packageID string) (*models.Purchase, error) {
	const op = "purchase.Checkout"

	pkg, err := s.repo.ReadCreditPackage(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !pkg.IsActive {
		return nil, repository.ErrNotFound
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	externalID := "purchase-" + uuid.NewString()
	invoice, err := s.gateway.CreateInvoice(ctx, paymentgateway.CreateInvoiceRequest{
		ExternalID:         externalID,
		Amount:             pkg.PriceIDR,
		PayerEmail:         user.Email,
		Description:        fmt.Sprintf("%s: %d report credits", pkg.Name, pkg.CreditAmount),
		SuccessRedirectURL: s.successURL,
		FailureRedirectURL: s.failureURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	purchase := models.Purchase{
		ExternalID:   externalID,
		UserUID:      userUID,
		PackageID:    packageID,
		CreditAmount: pkg.CreditAmount,
		PriceIDR:     pkg.PriceIDR,
		Status:       models.PurchasePending,
		InvoiceURL:   invoice.InvoiceURL,
	}
	purchase.ID, err = s.repo.CreatePurchase(ctx, purchase)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &purchase, nil
}

// List возвращает покупки пользователя.
func (s *PurchaseService) List(ctx context.Context, userUID string, limit, offset int) ([]*models.Purchase, error) {
	return s.repo.ListPurchasesByUser(ctx, userUID, limit, offset)
}

// HandleCallback применяет вебхук Xendit. Оплата зачисляет кредиты ровно один
// раз: повторный вебхук по уже оплаченному счёту ничего не меняет.
func (s *PurchaseService) HandleCallback(ctx context.Context, cb paymentgateway.InvoiceCallback) error {
	const op = "purchase.HandleCallback"

	switch cb.Status {
	case "PAID":
		paidAt := time.Now().UTC()
		if cb.PaidAt != "" {
			if parsed, err := time.Parse(time.RFC3339, cb.PaidAt); err == nil {
				paidAt = parsed
			}
		}
		settled, err := s.repo.SettlePurchase(ctx, cb.ExternalID, paidAt)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !settled {
			s.log.Info("duplicate payment callback ignored", slog.String("external_id", cb.ExternalID))
		}
		return nil
	case "EXPIRED":
		if err := s.repo.ExpirePurchase(ctx, cb.ExternalID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	default:
		s.log.Warn("unknown invoice status in callback",
			slog.String("external_id", cb.ExternalID), slog.String("status", cb.Status))
		return nil
	}
}
