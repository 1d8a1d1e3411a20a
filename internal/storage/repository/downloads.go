package repository

import (
	"context"
	"fmt"
)

// ChargeDownload списывает один кредит за скачивание отчёта.
//
// Пара (user_uid, inspection_id) уникальна: если отчёт уже куплен, вставка
// падает на 23505 и повторное скачивание проходит бесплатно (charged=false).
// Если отчёт новый, вставка и списание кредита проходят одной транзакцией;
// при нулевом балансе транзакция откатывается с ErrNoCredit.
func (s *Storage) ChargeDownload(ctx context.Context, userUID, inspectionID string) (bool, error) {
	const op = "storage.ChargeDownload"
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

	_, err = tx.ExecContext(ctx,
		`INSERT INTO report_downloads (user_uid, inspection_id) VALUES ($1, $2)`,
		userUID, inspectionID)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, wrapErr(op, err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE users
		 SET credit_balance = credit_balance - 1, updated_at = now()
		 WHERE uid = $1 AND credit_balance > 0`,
		userUID)
	if err != nil {
		return false, wrapErr(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, wrapErr(op, err)
	}
	if rowsAffected == 0 {
		return false, fmt.Errorf("%s: %w", op, ErrNoCredit)
	}

	if err = tx.Commit(); err != nil {
		return false, wrapErr(op, err)
	}
	return true, nil
}

// CountDownloads возвращает суммарное число скачанных отчётов.
func (s *Storage) CountDownloads(ctx context.Context) (int, error) {
	const op = "storage.CountDownloads"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM report_downloads`).Scan(&total); err != nil {
		return 0, wrapErr(op, err)
	}
	return total, nil
}
