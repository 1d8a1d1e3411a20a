package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/car-dano/inspection-backend/internal/models"
)

const purchaseColumns = `id, external_id, user_uid, package_id, credit_amount, price_idr,
			      status, invoice_url, paid_at, created_at`

func scanPurchase(row interface{ Scan(...any) error }) (*models.Purchase, error) {
	p := &models.Purchase{}
	var paidAt sql.NullTime
	if err := row.Scan(&p.ID, &p.ExternalID, &p.UserUID, &p.PackageID, &p.CreditAmount,
		&p.PriceIDR, &p.Status, &p.InvoiceURL, &paidAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	return p, nil
}

// CreatePurchase вставляет покупку со статусом PENDING и возвращает её ID.
func (s *Storage) CreatePurchase(ctx context.Context, purchase models.Purchase) (string, error) {
	const op = "storage.CreatePurchase"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO purchases (external_id, user_uid, package_id, credit_amount,
			      price_idr, status, invoice_url)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		purchase.ExternalID, purchase.UserUID, purchase.PackageID, purchase.CreditAmount,
		purchase.PriceIDR, purchase.Status, purchase.InvoiceURL).Scan(&newID)
	if err != nil {
		return "", wrapErr(op, err)
	}
	return newID, nil
}

// GetPurchaseByExternalID возвращает покупку по идентификатору платёжного шлюза.
func (s *Storage) GetPurchaseByExternalID(ctx context.Context, externalID string) (*models.Purchase, error) {
	const op = "storage.GetPurchaseByExternalID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE external_id = $1`
	p, err := scanPurchase(s.DB.QueryRowContext(ctx, query, externalID))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// ListPurchasesByUser возвращает покупки пользователя с пагинацией.
func (s *Storage) ListPurchasesByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Purchase, error) {
	const op = "storage.ListPurchasesByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + purchaseColumns + `
			  FROM purchases
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// SettlePurchase переводит покупку PENDING -> PAID и начисляет кредиты
// пользователю одной транзакцией. Возвращает false без ошибки, если
// покупка уже рассчитана: повторный вызов вебхука должен быть no-op.
func (s *Storage) SettlePurchase(ctx context.Context, externalID string, paidAt time.Time) (bool, error) {
	const op = "storage.SettlePurchase"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, wrapErr(op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var userUID string
	var creditAmount int
	err = tx.QueryRowContext(ctx,
		`UPDATE purchases
		 SET status = 'PAID', paid_at = $1
		 WHERE external_id = $2 AND status = 'PENDING'
		 RETURNING user_uid, credit_amount`,
		paidAt, externalID).Scan(&userUID, &creditAmount)
	if err == sql.ErrNoRows {
		// Запись либо отсутствует, либо уже рассчитана.
		var exists bool
		if err := s.DB.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM purchases WHERE external_id = $1)`, externalID).Scan(&exists); err != nil {
			return false, wrapErr(op, err)
		}
		if !exists {
			return false, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return false, nil
	}
	if err != nil {
		return false, wrapErr(op, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET credit_balance = credit_balance + $1, updated_at = now() WHERE uid = $2`,
		creditAmount, userUID)
	if err != nil {
		return false, wrapErr(op, err)
	}

	if err = tx.Commit(); err != nil {
		return false, wrapErr(op, err)
	}
	return true, nil
}

// ExpirePurchase помечает неоплаченную покупку истёкшей.
func (s *Storage) ExpirePurchase(ctx context.Context, externalID string) error {
	const op = "storage.ExpirePurchase"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE purchases SET status = 'EXPIRED' WHERE external_id = $1 AND status = 'PENDING'`,
		externalID)
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
			`SELECT EXISTS (SELECT 1 FROM purchases WHERE external_id = $1)`, externalID).Scan(&exists); err != nil {
			return wrapErr(op, err)
		}
		if !exists {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
	}
	return nil
}

// SumCreditsSold возвращает суммарное число проданных кредитов.
func (s *Storage) SumCreditsSold(ctx context.Context) (int, error) {
	const op = "storage.SumCreditsSold"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(credit_amount), 0) FROM purchases WHERE status = 'PAID'`).Scan(&total)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return total, nil
}
