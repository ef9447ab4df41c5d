package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefscript/backend/internal/models"
	"github.com/chefscript/backend/internal/service"
	"github.com/chefscript/backend/internal/testhelpers"
)

func TestAuthService(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewAuthService(db, "test-secret")

	t.Run("register grants the signup token balance", func(t *testing.T) {
		token, err := svc.Register("Alice", "alice@example.com", "hunter22")
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		var user models.User
		require.NoError(t, db.Where("email = ?", "alice@example.com").First(&user).Error)
		assert.Equal(t, 10, user.Tokens)
		assert.NotEqual(t, "hunter22", user.PasswordHash)
	})

	t.Run("register rejects a duplicate email", func(t *testing.T) {
		_, err := svc.Register("Alice Again", "alice@example.com", "hunter22")
		assert.ErrorContains(t, err, "already exists")
	})

	t.Run("login returns a token the validator accepts", func(t *testing.T) {
		token, err := svc.Login("alice@example.com", "hunter22")
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "Alice", claims.Username)

		var user models.User
		require.NoError(t, db.Where("email = ?", "alice@example.com").First(&user).Error)
		assert.Equal(t, user.ID, claims.UserID)
	})

	t.Run("login rejects a wrong password", func(t *testing.T) {
		_, err := svc.Login("alice@example.com", "wrong")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("login rejects an unknown email", func(t *testing.T) {
		_, err := svc.Login("nobody@example.com", "hunter22")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("validate rejects a token signed with another secret", func(t *testing.T) {
		other := service.NewAuthService(db, "other-secret")
		token, err := other.Login("alice@example.com", "hunter22")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})
}
