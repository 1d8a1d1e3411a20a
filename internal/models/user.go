// Package models содержит доменные структуры платформы осмотра автомобилей,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Роли пользователей системы.
const (
	RoleAdmin     = "ADMIN"
	RoleReviewer  = "REVIEWER"
	RoleInspector = "INSPECTOR"
	RoleCustomer  = "CUSTOMER"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID          string    `json:"uid"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	FullName      string    `json:"full_name"`
	PasswordHash  string    `json:"-"`
	GoogleID      *string   `json:"-"`
	Role          string    `json:"role"`
	IsActive      bool      `json:"is_active"`
	CreditBalance int       `json:"credit_balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DummyUser используется для приёма данных нового пользователя из JSON-запроса.
type DummyUser struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=50"`
	FullName string `json:"full_name" validate:"required,max=120"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=ADMIN REVIEWER INSPECTOR CUSTOMER"`
}

// DummyUserUpdate используется для приёма изменяемых полей пользователя.
type DummyUserUpdate struct {
	FullName string `json:"full_name" validate:"required,max=120"`
	Role     string `json:"role" validate:"required,oneof=ADMIN REVIEWER INSPECTOR CUSTOMER"`
	IsActive *bool  `json:"is_active" validate:"required"`
}
