//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"chat-relay/auth"
	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"chat-relay/repositories"
)

type IAuthService interface {
	Register(email, password, fullName string) (domain.User, Token, error)
	Login(email, password string) (domain.User, Token, error)
	Identify(token string) (string, error)
}

type Token string

type AuthService struct {
	users  repositories.IUserRepository
	issuer auth.TokenIssuer
}

func NewAuthService(users repositories.IUserRepository, issuer auth.TokenIssuer) *AuthService {
	return &AuthService{users: users, issuer: issuer}
}

// Register validates business rules before any expensive cryptographic
// work, hashes the password, persists the account, and issues the initial
// session token.
func (s *AuthService) Register(email, password, fullName string) (domain.User, Token, error) {
	valReq := auth.RegisterRequest{Email: email, Password: password, FullName: fullName}
	if err := auth.ValidateRegister(valReq); err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %v", apperrors.ErrInvalidPassword, err)
	}

	// Hashing happens here so the repository never sees plain passwords.
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hashing failed: %w", err)
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  fullName,
		Status:    domain.DefaultStatus,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.CreateUser(user, hashed); err != nil {
		return domain.User{}, "", err // propagates ErrUserAlreadyExists
	}

	token, err := s.issuer.Generate(user.ID)
	if err != nil {
		return domain.User{}, "", apperrors.ErrTokenGeneration
	}
	return user, Token(token), nil
}

// Login deliberately returns the same ErrInvalidCredentials for an unknown
// email and a wrong password, to prevent account enumeration.
func (s *AuthService) Login(email, password string) (domain.User, Token, error) {
	user, hash, err := s.users.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", apperrors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, hash)
	if err != nil || !match {
		return domain.User{}, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.issuer.Generate(user.ID)
	if err != nil {
		return domain.User{}, "", apperrors.ErrTokenGeneration
	}
	return user, Token(token), nil
}

// Identify resolves a session token back to the user id it was issued for.
func (s *AuthService) Identify(token string) (string, error) {
	return s.issuer.Identify(token)
}
