package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/classpulse/feedback-service/internal/models"
	"github.com/classpulse/feedback-service/internal/repositories"
	"github.com/classpulse/feedback-service/internal/validator"
)

const tokenLifetime = 24 * time.Hour

type authService struct {
	repo      repositories.Repository
	secret    []byte
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAuthService(repo repositories.Repository, jwtSecret string, logger *slog.Logger, validator *validator.Validator) AuthService {
	return &authService{
		repo:      repo,
		secret:    []byte(jwtSecret),
		logger:    logger,
		validator: validator,
	}
}

// Login verifies admin credentials and issues a signed bearer token. Unknown
// usernames and bad passwords return the same error.
func (s *authService) Login(ctx context.Context, req *LoginRequest) (string, error) {
	if err := s.validator.Validate(req); err != nil {
		return "", NewValidationError(err.Error())
	}

	user, err := s.repo.Admin().GetByUsername(ctx, req.Username)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return "", ErrInvalidCredentials
		}
		return "", NewStorageError("failed to get admin user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info("Admin logged in", "username", user.Username)
	return token, nil
}

// VerifyToken validates a bearer token and returns the admin username.
func (s *authService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("invalid token claims")
	}
	return claims.Subject, nil
}

// SeedAdmin ensures the configured admin account exists at startup.
func (s *authService) SeedAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	_, err := s.repo.Admin().GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !repositories.IsNotFoundError(err) {
		return NewStorageError("failed to check admin user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	user := &models.AdminUser{Username: username, PasswordHash: string(hash)}
	if err := s.repo.Admin().Create(ctx, user); err != nil {
		return NewStorageError("failed to seed admin user", err)
	}

	s.logger.Info("Admin user seeded", "username", username)
	return nil
}
