// Package user содержит логику бизнес-уровня для администрирования
// учётных записей персонала.
package user

import (
	"context"

	"github.com/car-dano/inspection-backend/internal/lib/password"
	"github.com/car-dano/inspection-backend/internal/models"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

// Repository описывает контракт для работы с пользователями в базе данных.
type Repository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	ListUsers(ctx context.Context, role string, limit, offset int) ([]*models.User, error)
	UpdateUser(ctx context.Context, userUID, fullName, role string, isActive bool) (int, error)
	DeleteUser(ctx context.Context, userUID string) (int, error)
}

// UserService реализует операции управления пользователями.
type UserService struct {
	repo Repository
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo Repository) *UserService {
	return &UserService{repo: repo}
}

// Create регистрирует сотрудника с указанной ролью. Пароль хэшируется,
// пустой пароль допустим для учёток, входящих только через Google.
func (s *UserService) Create(ctx context.Context, entry models.DummyUser) (string, error) {
	var hashed string
	if entry.Password != "" {
		var err error
		hashed, err = password.GetHash(entry.Password)
		if err != nil {
			return "", err
		}
	}
	user := models.User{
		Email:        entry.Email,
		Username:     entry.Username,
		FullName:     entry.FullName,
		PasswordHash: hashed,
		Role:         entry.Role,
		IsActive:     true,
	}
	return s.repo.CreateUser(ctx, user)
}

// Read возвращает пользователя по UID.
func (s *UserService) Read(ctx context.Context, uid string) (*models.User, error) {
	return s.repo.GetUser(ctx, uid)
}

// List возвращает страницу пользователей, опционально отфильтрованную по роли.
func (s *UserService) List(ctx context.Context, role string, limit, offset int) ([]*models.User, error) {
	return s.repo.ListUsers(ctx, role, limit, offset)
}

// Update применяет обновление профиля. Возвращает repository.ErrNotFound,
// если пользователь с таким UID отсутствует.
func (s *UserService) Update(ctx context.Context, uid string, upd models.DummyUserUpdate) error {
	rows, err := s.repo.UpdateUser(ctx, uid, upd.FullName, upd.Role, *upd.IsActive)
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete удаляет пользователя по UID.
func (s *UserService) Delete(ctx context.Context, uid string) error {
	rows, err := s.repo.DeleteUser(ctx, uid)
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
