package repository

import (
	"context"
	"fmt"

	"github.com/car-dano/inspection-backend/internal/models"
)

const packageColumns = `id, name, credit_amount, price_idr, is_active, created_at, updated_at`

func scanPackage(row interface{ Scan(...any) error }) (*models.CreditPackage, error) {
	p := &models.CreditPackage{}
	if err := row.Scan(&p.ID, &p.Name, &p.CreditAmount, &p.PriceIDR, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateCreditPackage вставляет пакет кредитов и возвращает его ID.
func (s *Storage) CreateCreditPackage(ctx context.Context, pkg models.CreditPackage) (string, error) {
	const op = "storage.CreateCreditPackage"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO credit_packages (name, credit_amount, price_idr, is_active)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		pkg.Name, pkg.CreditAmount, pkg.PriceIDR, pkg.IsActive).Scan(&newID)
	if err != nil {
		return "", wrapErr(op, err)
	}
	return newID, nil
}

// ReadCreditPackage возвращает пакет по ID.
func (s *Storage) ReadCreditPackage(ctx context.Context, id string) (*models.CreditPackage, error) {
	const op = "storage.ReadCreditPackage"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + packageColumns + ` FROM credit_packages WHERE id = $1`
	pkg, err := scanPackage(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return pkg, nil
}

// ListCreditPackages возвращает пакеты с пагинацией.
// При onlyActive=true скрываются выключенные пакеты.
func (s *Storage) ListCreditPackages(ctx context.Context, onlyActive bool, limit, offset int) ([]*models.CreditPackage, error) {
	const op = "storage.ListCreditPackages"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + packageColumns + `
			  FROM credit_packages
			  WHERE (NOT $1 OR is_active)
			  ORDER BY price_idr
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, onlyActive, limit, offset)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.CreditPackage
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, pkg)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// UpdateCreditPackage обновляет пакет и возвращает количество изменённых строк.
func (s *Storage) UpdateCreditPackage(ctx context.Context, id string, pkg models.CreditPackage) (int, error) {
	const op = "storage.UpdateCreditPackage"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE credit_packages
			  SET name = $1, credit_amount = $2, price_idr = $3, is_active = $4, updated_at = now()
			  WHERE id = $5`
	result, err := s.DB.ExecContext(ctx, query,
		pkg.Name, pkg.CreditAmount, pkg.PriceIDR, pkg.IsActive, id)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return int(rowsAffected), nil
}

// DeleteCreditPackage удаляет пакет и возвращает количество удалённых строк.
func (s *Storage) DeleteCreditPackage(ctx context.Context, id string) (int, error) {
	const op = "storage.DeleteCreditPackage"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM credit_packages WHERE id = $1`, id)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return int(rowsAffected), nil
}
