package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/car-dano/inspection-backend/internal/config"
	"github.com/car-dano/inspection-backend/internal/lib/jwt"
	"github.com/car-dano/inspection-backend/internal/lib/password"
	"github.com/car-dano/inspection-backend/internal/models"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpsertGoogleUser(ctx context.Context, email, fullName, googleID string) (*models.User, error) {
	args := m.Called(ctx, email, fullName, googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newTestMaker(t *testing.T) jwt.Maker {
	t.Helper()
	return jwt.NewJWTMaker("test-secret", time.Hour)
}

func TestRegister_Success(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewAuthService(repo, newTestMaker(t), config.GoogleOAuth{})

	repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Username == "ivan" && u.Role == models.RoleCustomer && u.IsActive && u.PasswordHash != "secret123"
	})).Return("uid-1", nil)

	uid, err := svc.Register(context.Background(), "ivan@example.com", "ivan", "Ivan Petrov", "secret123")

	require.NoError(t, err)
	assert.Equal(t, "uid-1", uid)
	repo.AssertExpectations(t)
}

func TestLogin_Success(t *testing.T) {
	repo := new(MockUserRepository)
	maker := newTestMaker(t)
	svc := NewAuthService(repo, maker, config.GoogleOAuth{})

	hash, err := password.GetHash("secret123")
	require.NoError(t, err)

	repo.On("GetUserByUsername", mock.Anything, "ivan").Return(&models.User{
		UUID:         "uid-1",
		Username:     "ivan",
		PasswordHash: hash,
		Role:         models.RoleInspector,
		IsActive:     true,
	}, nil)

	token, role, err := svc.Login(context.Background(), "ivan", "secret123")

	require.NoError(t, err)
	assert.Equal(t, models.RoleInspector, role)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.UserUID)
	assert.Equal(t, models.RoleInspector, claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewAuthService(repo, newTestMaker(t), config.GoogleOAuth{})

	hash, err := password.GetHash("secret123")
	require.NoError(t, err)

	repo.On("GetUserByUsername", mock.Anything, "ivan").Return(&models.User{
		Username:     "ivan",
		PasswordHash: hash,
		IsActive:     true,
	}, nil)

	_, _, err = svc.Login(context.Background(), "ivan", "wrong")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewAuthService(repo, newTestMaker(t), config.GoogleOAuth{})

	hash, err := password.GetHash("secret123")
	require.NoError(t, err)

	repo.On("GetUserByUsername", mock.Anything, "ivan").Return(&models.User{
		Username:     "ivan",
		PasswordHash: hash,
		IsActive:     false,
	}, nil)

	_, _, err = svc.Login(context.Background(), "ivan", "secret123")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGoogleAuthURL_ContainsState(t *testing.T) {
	svc := NewAuthService(new(MockUserRepository), newTestMaker(t), config.GoogleOAuth{
		ClientID:    "client-id",
		RedirectURL: "https://app.example.com/callback",
	})

	url := svc.GoogleAuthURL("state-token")

	assert.Contains(t, url, "state=state-token")
	assert.Contains(t, url, "client-id")
}
