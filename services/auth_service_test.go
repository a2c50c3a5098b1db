package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-relay/auth"
	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/services"
)

func newIssuer() auth.TokenIssuer {
	return auth.NewTokenIssuer("test-secret", 24*time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := services.NewAuthService(mockRepo, newIssuer())

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		email := "test@example.com"
		password := "ComplexPass123!"

		// Expect CreateUser to be called with a hashed password (not the plain one)
		mockRepo.EXPECT().
			CreateUser(gomock.Any(), gomock.Not(password)).
			DoAndReturn(func(user domain.User, hash string) error {
				require.Equal(t, email, user.Email)
				require.Equal(t, domain.DefaultStatus, user.Status)
				require.NotEmpty(t, user.ID)
				require.Contains(t, hash, "$argon2id$")
				return nil
			}).
			Times(1)

		user, token, err := svc.Register(email, password, "Test User")

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal(email, user.Email)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		// Repository should NEVER be called
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Times(0)

		_, token, err := svc.Register("test@example.com", "simplepassword", "Test User")

		req.ErrorIs(err, apperrors.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateUser(gomock.Any(), gomock.Any()).
			Return(apperrors.ErrUserAlreadyExists).
			Times(1)

		_, _, err := svc.Register("duplicate@example.com", "ComplexPass123!", "Dup User")

		req.ErrorIs(err, apperrors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := services.NewAuthService(mockRepo, newIssuer())

	password := "ComplexPass123!"
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	stored := domain.User{ID: "user-1", Email: "user@example.com", FullName: "User One"}

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetUserByEmail(stored.Email).
			Return(stored, hash, nil).
			Times(1)

		user, token, err := svc.Login(stored.Email, password)

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal(stored.ID, user.ID)

		// The token resolves back to the same user.
		id, err := svc.Identify(string(token))
		req.NoError(err)
		req.Equal(stored.ID, id)
	})

	t.Run("should fail with the same error for a wrong password", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetUserByEmail(stored.Email).
			Return(stored, hash, nil).
			Times(1)

		_, _, err := svc.Login(stored.Email, "WrongPass123!")
		req.ErrorIs(err, apperrors.ErrInvalidCredentials)
	})

	t.Run("should fail with the same error for an unknown email", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetUserByEmail("ghost@example.com").
			Return(domain.User{}, "", apperrors.ErrNotFound).
			Times(1)

		_, _, err := svc.Login("ghost@example.com", password)
		req.ErrorIs(err, apperrors.ErrInvalidCredentials)
	})
}

func TestAuthService_Identify(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := services.NewAuthService(mocks.NewMockIUserRepository(ctrl), newIssuer())

	t.Run("should reject a malformed token", func(t *testing.T) {
		req := require.New(t)
		_, err := svc.Identify("not-a-jwt")
		req.ErrorIs(err, apperrors.ErrInvalidToken)
	})

	t.Run("should reject a token signed with another secret", func(t *testing.T) {
		req := require.New(t)
		other := auth.NewTokenIssuer("other-secret", time.Hour)
		token, err := other.Generate("user-1")
		req.NoError(err)

		_, err = svc.Identify(token)
		req.ErrorIs(err, apperrors.ErrInvalidToken)
	})
}
