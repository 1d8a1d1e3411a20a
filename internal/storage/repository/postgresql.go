// Package repository реализует хранилище данных на основе PostgreSQL
// для платформы осмотра автомобилей. Предоставляет методы работы с
// пользователями, осмотрами, фотографиями, пакетами кредитов, покупками
// и агрегатами панели управления.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Сигнальные ошибки хранилища. Обработчики переводят их в HTTP-статусы.
var (
	// ErrNotFound запись отсутствует (sql.ErrNoRows).
	ErrNotFound = errors.New("not found")
	// ErrConflict нарушение уникальности (код PostgreSQL 23505).
	ErrConflict = errors.New("already exists")
	// ErrNoCredit на балансе пользователя нет кредитов для списания.
	ErrNoCredit = errors.New("insufficient credit balance")
	// ErrWrongStatus запрошенный переход статуса осмотра невозможен.
	ErrWrongStatus = errors.New("illegal status transition")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// Ping проверяет доступность базы данных.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// wrapErr оборачивает ошибку запроса, подменяя известные случаи сигнальными.
func wrapErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUniqueViolation true для нарушения уникального ограничения.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
