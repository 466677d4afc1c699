package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"shop/internal/models"
	"shop/internal/repositories"
	"shop/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

func notFound(what string) error {
	return fmt.Errorf("user with %s not found: %w", what, repositories.ErrNotFound)
}

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour, nil)
	ctx := context.Background()

	// Test successful registration; a requested admin role is ignored.
	user := &models.User{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "password123",
		Role:     models.RoleAdmin,
	}
	mockRepo.On("GetByUsername", ctx, user.Username).Return(nil, notFound("username")).Once()
	mockRepo.On("GetByEmail", ctx, user.Email).Return(nil, notFound("email")).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := authService.RegisterUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)

	// Test username already taken
	dup := &models.User{Username: "testuser", Email: "test@example.com", Password: "password123"}
	mockRepo.On("GetByUsername", ctx, dup.Username).Return(&models.User{ID: "1"}, nil).Once()
	err = authService.RegisterUser(ctx, dup)
	assert.ErrorIs(t, err, services.ErrConflict)
	assert.Contains(t, err.Error(), "username 'testuser' already taken")

	// Test email already registered
	mockRepo.On("GetByUsername", ctx, dup.Username).Return(nil, notFound("username")).Once()
	mockRepo.On("GetByEmail", ctx, dup.Email).Return(&models.User{ID: "1"}, nil).Once()
	err = authService.RegisterUser(ctx, dup)
	assert.ErrorIs(t, err, services.ErrConflict)
	assert.Contains(t, err.Error(), "email 'test@example.com' already registered")

	// A username with "@" could never log in, since such logins go by email.
	err = authService.RegisterUser(ctx, &models.User{Username: "a@b", Email: "ab@example.com", Password: "password123"})
	assert.ErrorIs(t, err, services.ErrValidation)
	mockRepo.AssertNotCalled(t, "GetByUsername", ctx, "a@b")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_EnsureUser(t *testing.T) {
	ctx := context.Background()
	authService := services.NewAuthService(repositories.NewMockUserRepository(), testJWTSecret, time.Hour, nil)

	admin := &models.User{Username: "admin", Email: "admin@example.com", Password: "admin123", Role: models.RoleAdmin}
	created, err := authService.EnsureUser(ctx, admin)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	created, err = authService.EnsureUser(ctx, &models.User{Username: "admin", Email: "other@example.com", Password: "x"})
	require.NoError(t, err)
	assert.False(t, created)

	_, err = authService.EnsureUser(ctx, &models.User{Username: "root", Email: "root@example.com", Password: "x", Role: "superuser"})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestAuthService_LoginUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour, nil)
	ctx := context.Background()

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{
		ID:       "user-123",
		Username: "testuser",
		Email:    "test@example.com",
		Password: string(hashedPassword),
		Role:     models.RoleUser,
	}

	// Test successful login
	mockRepo.On("GetByUsername", ctx, user.Username).Return(user, nil).Once()
	token, loggedIn, err := authService.LoginUser(ctx, "testuser", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	// Validate the token structure
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, "user", claims["role"])
	assert.NotNil(t, claims["exp"])

	// Email login
	mockRepo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	_, _, err = authService.LoginUser(ctx, user.Email, "password123")
	assert.NoError(t, err)

	// Test invalid credentials (wrong password)
	mockRepo.On("GetByUsername", ctx, user.Username).Return(user, nil).Once()
	_, _, err = authService.LoginUser(ctx, "testuser", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// Test invalid credentials (user not found)
	mockRepo.On("GetByUsername", ctx, "nonexistentuser").Return(nil, notFound("username")).Once()
	_, _, err = authService.LoginUser(ctx, "nonexistentuser", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials) // Should return generic invalid credentials message
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, time.Hour, nil)

	// Test valid token
	validTokenString, err := authService.IssueToken(&models.User{ID: "user-123", Role: models.RoleAdmin})
	require.NoError(t, err)
	identity, err := authService.ValidateToken(validTokenString)
	require.NoError(t, err)
	assert.Equal(t, models.Identity{UserID: "user-123", Role: models.RoleAdmin}, identity)
	assert.True(t, identity.IsAdmin())

	// Test malformed token
	_, err = authService.ValidateToken("invalid.token.string")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	// Test wrong secret
	other := services.NewAuthService(new(MockUserRepository), "other_secret", time.Hour, nil)
	forged, err := other.IssueToken(&models.User{ID: "user-123", Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = authService.ValidateToken(forged)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	// Test unknown role
	unknownRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-123",
		"role":    "superuser",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	_, err = authService.ValidateToken(unknownRole)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	// Test expired token
	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-123",
		"role":    "user",
		"exp":     time.Now().Add(-time.Hour).Unix(), // Expired 1 hour ago
	})
	expiredTokenString, _ := expiredToken.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(expiredTokenString)
	assert.ErrorIs(t, err, services.ErrTokenExpired)
}
