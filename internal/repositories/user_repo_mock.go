package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shop/internal/models"

	"github.com/google/uuid"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]models.User),
	}
}

// Create adds a new user. Username and email are unique.
func (r *MockUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("user %s already exists: %w", user.Username, ErrDuplicate)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

// GetByUsername returns a user by username.
func (r *MockUserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find("username", username, func(u models.User) bool { return u.Username == username })
}

// GetByEmail returns a user by email.
func (r *MockUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find("email", email, func(u models.User) bool { return u.Email == email })
}

// GetByID returns a user by ID.
func (r *MockUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	return r.find("id", id, func(u models.User) bool { return u.ID == id })
}

func (r *MockUserRepository) find(column, value string, match func(models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with %s %s not found: %w", column, value, ErrNotFound)
}

func (r *MockUserRepository) lookup(id string) *models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil
	}
	return &user
}
