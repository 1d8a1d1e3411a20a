// Package auth содержит логику бизнес-уровня для регистрации и аутентификации
// пользователей: локальной по паролю и через Google OAuth.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/car-dano/inspection-backend/internal/config"
	"github.com/car-dano/inspection-backend/internal/lib/jwt"
	"github.com/car-dano/inspection-backend/internal/lib/password"
	"github.com/car-dano/inspection-backend/internal/models"
)

// ErrInvalidCredentials пароль не подошёл либо учётная запись выключена.
var ErrInvalidCredentials = errors.New("invalid credentials")

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его UID.
	CreateUser(ctx context.Context, user models.User) (string, error)

	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// UpsertGoogleUser сохраняет или привязывает пользователя Google по email.
	UpsertGoogleUser(ctx context.Context, email, fullName, googleID string) (*models.User, error)
}

// AuthService отвечает за регистрацию, авторизацию и выпуск JWT.
type AuthService struct {
	users       UserRepository
	jwtMaker    jwt.Maker
	oauthConfig *oauth2.Config
	userinfoURL string
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, cfg config.GoogleOAuth) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userinfoURL: googleUserinfoURL,
	}
}

// Register создает нового покупателя с хэшированием пароля.
func (s *AuthService) Register(ctx context.Context, email, username, fullName, rawPassword string) (string, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", err
	}
	user := models.User{
		Email:        email,
		Username:     username,
		FullName:     fullName,
		PasswordHash: hashed,
		Role:         models.RoleCustomer, // дефолтная роль при самостоятельной регистрации
		IsActive:     true,
	}
	return s.users.CreateUser(ctx, user)
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (token, role string, err error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", "", err
	}
	if !user.IsActive {
		return "", "", ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", ErrInvalidCredentials
	}
	token, err = s.jwtMaker.GenerateToken(user.Username, user.Role, user.UUID)
	if err != nil {
		return "", "", err
	}
	return token, user.Role, nil
}

// GoogleAuthURL возвращает адрес страницы согласия Google для переданного state.
func (s *AuthService) GoogleAuthURL(state string) string {
	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserinfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleLogin обменивает код авторизации на профиль Google, сохраняет
// пользователя и выпускает JWT.
func (s *AuthService) GoogleLogin(ctx context.Context, code string) (string, *models.User, error) {
	const op = "auth.GoogleLogin"

	oauthToken, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := s.oauthConfig.Client(ctx, oauthToken).Get(s.userinfoURL)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	var info googleUserinfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if info.Email == "" {
		return "", nil, fmt.Errorf("%s: userinfo without email", op)
	}

	user, err := s.users.UpsertGoogleUser(ctx, info.Email, info.Name, info.ID)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.Username, user.Role, user.UUID)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// ValidateToken проверяет JWT и возвращает данные пользователя из claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*jwt.CustomClaims, error) {
	return s.jwtMaker.ParseToken(token)
}
