package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "chat-relay/errors"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MonMotDePasseTr0pSûr!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	// Wrong password must not match.
	match, err = ComparePassword("MauvaisMDP", hash)
	req.NoError(err)
	req.False(match)
}

func TestRegistrationValidation(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"Valid request", RegisterRequest{"test@example.com", "ComplexPass123!", "Test User"}, false},
		{"Invalid email", RegisterRequest{"notanemail", "ComplexPass123!", "Test User"}, true},
		{"Password too short", RegisterRequest{"test@example.com", "Short1!", "Test User"}, true},
		{"Missing digit", RegisterRequest{"test@example.com", "NoDigitPassword!", "Test User"}, true},
		{"Missing special char", RegisterRequest{"test@example.com", "NoSpecialChar123", "Test User"}, true},
		{"Missing uppercase", RegisterRequest{"test@example.com", "nouppercase123!", "Test User"}, true},
		{"Missing full name", RegisterRequest{"test@example.com", "ComplexPass123!", ""}, true},
		{"Password too long (edge case)", RegisterRequest{"test@example.com", strings.Repeat("a", 73), "Test User"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestTokenIssuer(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Generate("user-42")
	req.NoError(err)
	req.NotEmpty(token)

	userID, err := issuer.Identify(token)
	req.NoError(err)
	req.Equal("user-42", userID)

	t.Run("should reject garbage", func(t *testing.T) {
		req := require.New(t)
		_, err := issuer.Identify("garbage.token.value")
		req.ErrorIs(err, apperrors.ErrInvalidToken)
	})

	t.Run("should reject an expired token", func(t *testing.T) {
		req := require.New(t)
		expired := NewTokenIssuer("test-secret", -time.Minute)
		token, err := expired.Generate("user-42")
		req.NoError(err)

		_, err = issuer.Identify(token)
		req.ErrorIs(err, apperrors.ErrInvalidToken)
	})

	t.Run("should reject a token from a different secret", func(t *testing.T) {
		req := require.New(t)
		other := NewTokenIssuer("another-secret", time.Hour)
		token, err := other.Generate("user-42")
		req.NoError(err)

		_, err = issuer.Identify(token)
		req.ErrorIs(err, apperrors.ErrInvalidToken)
	})
}

// BenchmarkHashPassword measures the CPU/RAM impact of the hashing settings.
func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
