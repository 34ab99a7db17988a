package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airhive/airline-backend/internal/models"
)

func TestGenerateAndValidateAccessToken(t *testing.T) {
	service := NewService("test-secret", time.Hour)

	t.Run("Round Trip", func(t *testing.T) {
		tokenString, err := service.GenerateAccessToken(42, "jane@example.com", models.UserRolePassenger)
		require.NoError(t, err)
		require.NotEmpty(t, tokenString)

		claims, err := service.ValidateAccessToken(tokenString)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, "jane@example.com", claims.Email)
		assert.Equal(t, models.UserRolePassenger, claims.Role)
		assert.Equal(t, "42", claims.Subject)
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		tokenString, err := service.GenerateAccessToken(42, "jane@example.com", models.UserRoleStaff)
		require.NoError(t, err)

		other := NewService("other-secret", time.Hour)
		claims, err := other.ValidateAccessToken(tokenString)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("Expired Token", func(t *testing.T) {
		expired := NewService("test-secret", -time.Minute)
		tokenString, err := expired.GenerateAccessToken(42, "jane@example.com", models.UserRolePassenger)
		require.NoError(t, err)

		claims, err := service.ValidateAccessToken(tokenString)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("Garbage Token", func(t *testing.T) {
		claims, err := service.ValidateAccessToken("not-a-token")
		assert.Error(t, err)
		assert.Nil(t, claims)
	})
}
