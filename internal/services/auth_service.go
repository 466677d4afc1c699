package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shop/internal/models"
	"shop/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.StandardClaims
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
	logger     *slog.Logger
}

// NewAuthService creates a new AuthService. A non-positive ttl defaults to 24 hours.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, ttl time.Duration, logger *slog.Logger) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: ttl,
		logger:     logger,
	}
}

// RegisterUser registers a new user with the user role, hashes their password, and saves them.
func (s *AuthService) RegisterUser(ctx context.Context, user *models.User) error {
	user.Role = models.RoleUser
	return s.createUser(ctx, user)
}

// EnsureUser creates user with its own role unless the username is already taken.
// It reports whether a user was created.
func (s *AuthService) EnsureUser(ctx context.Context, user *models.User) (bool, error) {
	if _, err := s.userRepo.GetByUsername(ctx, user.Username); err == nil {
		return false, nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return false, err
	}
	if !user.Role.Valid() {
		return false, fmt.Errorf("unknown role %q: %w", user.Role, ErrValidation)
	}
	if err := s.createUser(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AuthService) createUser(ctx context.Context, user *models.User) error {
	// Logins containing "@" are looked up by email.
	if strings.Contains(user.Username, "@") {
		return fmt.Errorf("username must not contain '@': %w", ErrValidation)
	}
	// Check if username or email already exists
	if _, err := s.userRepo.GetByUsername(ctx, user.Username); err == nil {
		return fmt.Errorf("username '%s' already taken: %w", user.Username, ErrConflict)
	}
	if _, err := s.userRepo.GetByEmail(ctx, user.Email); err == nil {
		return fmt.Errorf("email '%s' already registered: %w", user.Email, ErrConflict)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return fmt.Errorf("user '%s' already exists: %w", user.Username, ErrConflict)
		}
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// LoginUser authenticates by username or email and returns a signed token with the user.
func (s *AuthService) LoginUser(ctx context.Context, emailOrUsername, password string) (string, *models.User, error) {
	var (
		user *models.User
		err  error
	)
	if strings.Contains(emailOrUsername, "@") {
		user, err = s.userRepo.GetByEmail(ctx, emailOrUsername)
	} else {
		user, err = s.userRepo.GetByUsername(ctx, emailOrUsername)
	}
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return "", nil, err
		}
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// IssueToken signs an HS256 token carrying the user's id and role.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: user.ID,
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenDurat).Unix(),
		},
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken verifies signature and expiry and returns the caller identity.
func (s *AuthService) ValidateToken(tokenString string) (models.Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return models.Identity{}, ErrTokenExpired
		}
		s.logger.Debug("token validation failed", "error", err)
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" || !claims.Role.Valid() {
		return models.Identity{}, ErrInvalidToken
	}
	return models.Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

// CurrentUser returns the stored user behind an identity.
func (s *AuthService) CurrentUser(ctx context.Context, identity models.Identity) (*models.User, error) {
	return s.userRepo.GetByID(ctx, identity.UserID)
}
