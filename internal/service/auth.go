package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/medinfo/backend/internal/models"
)

var (
	// ErrInvalidCredentials is returned for both unknown emails and wrong
	// passwords, deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidResetToken  = errors.New("invalid or expired token")
)

// TokenClaims are the session claims carried in the JWT.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

// ResetTokenStore keeps password reset tokens. Tokens are single-use and
// expire after their TTL.
type ResetTokenStore interface {
	// Save stores token → email with the given TTL.
	Save(ctx context.Context, token, email string, ttl time.Duration) error
	// Peek returns the email for a live token without consuming it.
	Peek(ctx context.Context, token string) (string, error)
	// Redeem returns the email for a live token and consumes it atomically.
	Redeem(ctx context.Context, token string) (string, error)
}

// redisTokenStore backs ResetTokenStore with Redis; TTL handles expiry and
// GETDEL makes redemption single-use.
type redisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore wraps a Redis client as a ResetTokenStore.
func NewRedisTokenStore(client *redis.Client) ResetTokenStore {
	return &redisTokenStore{client: client}
}

func resetKey(token string) string {
	return "reset_token:" + token
}

func (s *redisTokenStore) Save(ctx context.Context, token, email string, ttl time.Duration) error {
	return s.client.Set(ctx, resetKey(token), email, ttl).Err()
}

func (s *redisTokenStore) Peek(ctx context.Context, token string) (string, error) {
	email, err := s.client.Get(ctx, resetKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvalidResetToken
	}
	return email, err
}

func (s *redisTokenStore) Redeem(ctx context.Context, token string) (string, error) {
	email, err := s.client.GetDel(ctx, resetKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvalidResetToken
	}
	return email, err
}

// AuthService handles signup, login, session tokens and password resets.
type AuthService struct {
	db          *gorm.DB
	jwtSecret   string
	resetTokens ResetTokenStore
	resetTTL    time.Duration
}

func NewAuthService(db *gorm.DB, jwtSecret string, resetTokens ResetTokenStore) *AuthService {
	return &AuthService{
		db:          db,
		jwtSecret:   jwtSecret,
		resetTokens: resetTokens,
		resetTTL:    time.Hour,
	}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailTaken reports whether an account exists for the email.
func (s *AuthService) EmailTaken(email string) (bool, error) {
	var count int64
	err := s.db.Model(&models.User{}).
		Where("email = ?", NormalizeEmail(email)).
		Count(&count).Error
	return count > 0, err
}

// Register creates an account. Field validation is the handler's job; this
// enforces only uniqueness and hashing.
func (s *AuthService) Register(fullName, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)

	taken, err := s.EmailTaken(email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:           uuid.New(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Login verifies credentials and returns the user.
func (s *AuthService) Login(email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// GenerateToken issues a signed session token for the user.
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"name":    user.FullName,
		"exp":     time.Now().Add(time.Hour * 24).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateToken parses and verifies a session token.
func (s *AuthService) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, err
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	return &TokenClaims{UserID: userID, Email: email, Name: name}, nil
}

// CreateResetToken issues a reset token for the email when an account
// exists. The empty-token success return for unknown emails lets the handler
// respond identically either way.
func (s *AuthService) CreateResetToken(ctx context.Context, email string) (string, error) {
	email = NormalizeEmail(email)

	taken, err := s.EmailTaken(email)
	if err != nil {
		return "", err
	}
	if !taken {
		return "", nil
	}

	token := uuid.NewString()
	if err := s.resetTokens.Save(ctx, token, email, s.resetTTL); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}
	return token, nil
}

// ValidateResetToken returns the email a live token belongs to.
func (s *AuthService) ValidateResetToken(ctx context.Context, token string) (string, error) {
	return s.resetTokens.Peek(ctx, token)
}

// ResetPassword redeems the token (single-use) and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	email, err := s.resetTokens.Redeem(ctx, token)
	if err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.db.Model(&models.User{}).
		Where("email = ?", email).
		Update("password_hash", string(hashedPassword)).Error
}
