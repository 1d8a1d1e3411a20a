package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/car-dano/inspection-backend/internal/models"
)

const userColumns = `uid, email, username, full_name, COALESCE(password_hash, ''), google_id,
			      role, is_active, credit_balance, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var googleID sql.NullString
	if err := row.Scan(&u.UUID, &u.Email, &u.Username, &u.FullName, &u.PasswordHash, &googleID,
		&u.Role, &u.IsActive, &u.CreditBalance, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if googleID.Valid {
		u.GoogleID = &googleID.String
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его UID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (email, username, full_name, password_hash, role, is_active)
			  VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.FullName, user.PasswordHash, user.Role,
		user.IsActive).Scan(&newUID); err != nil {
		return "", wrapErr(op, err)
	}
	return newUID, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// UpsertGoogleUser сохраняет пользователя, пришедшего через Google OAuth.
// Повторный вход по тому же email привязывает google_id к существующей записи.
func (s *Storage) UpsertGoogleUser(ctx context.Context, email, fullName, googleID string) (*models.User, error) {
	const op = "storage.UpsertGoogleUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (email, username, full_name, google_id, role, is_active)
			  VALUES ($1, $2, $3, $4, 'CUSTOMER', true)
			  ON CONFLICT (email) DO UPDATE
			      SET google_id = EXCLUDED.google_id, updated_at = now()
			  RETURNING ` + userColumns
	username := strings.SplitN(email, "@", 2)[0]
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email, username, fullName, googleID))
	if err != nil && isUniqueViolation(err) {
		// локальная часть email уже занята другим пользователем
		username = username + "-" + uuid.NewString()[:8]
		u, err = scanUser(s.DB.QueryRowContext(ctx, query, email, username, fullName, googleID))
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// ListUsers возвращает пользователей с пагинацией и необязательным фильтром по роли.
func (s *Storage) ListUsers(ctx context.Context, role string, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE ($1 = '' OR role = $1)
			  ORDER BY created_at
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, role, limit, offset)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// UpdateUser обновляет имя, роль и активность и возвращает количество изменённых строк.
func (s *Storage) UpdateUser(ctx context.Context, userUID, fullName, role string, isActive bool) (int, error) {
	const op = "storage.UpdateUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET full_name = $1, role = $2, is_active = $3, updated_at = now()
			  WHERE uid = $4`
	result, err := s.DB.ExecContext(ctx, query, fullName, role, isActive, userUID)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return int(rowsAffected), nil
}

// DeleteUser удаляет пользователя по UID и возвращает количество удалённых строк.
func (s *Storage) DeleteUser(ctx context.Context, userUID string) (int, error) {
	const op = "storage.DeleteUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM users WHERE uid = $1`
	result, err := s.DB.ExecContext(ctx, query, userUID)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return int(rowsAffected), nil
}

// CountUsersByRole возвращает количество пользователей в разрезе ролей.
func (s *Storage) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	const op = "storage.CountUsersByRole"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make(map[string]int)
	for rows.Next() {
		var role string
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, wrapErr(op, err)
		}
		result[role] = count
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// ListActiveInspectors возвращает активных инспекторов для публичного API.
func (s *Storage) ListActiveInspectors(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListActiveInspectors"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE role = 'INSPECTOR' AND is_active = true
			  ORDER BY full_name`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}
