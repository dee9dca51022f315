package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vhtruong/product-catalog/internal/auth"
)

func TestTokenManager(t *testing.T) {
	mgr := auth.NewTokenManager("test-secret", time.Hour, "product-catalog")

	t.Run("Should round-trip subject and roles", func(t *testing.T) {
		token, err := mgr.Generate("admin", []auth.Role{auth.RoleAdmin, auth.RoleUser})
		require.NoError(t, err)

		principal, err := mgr.Validate(token)
		require.NoError(t, err)

		assert.Equal(t, "admin", principal.Subject)
		assert.Equal(t, []auth.Role{auth.RoleAdmin, auth.RoleUser}, principal.Roles)
	})

	t.Run("Should reject token signed with another secret", func(t *testing.T) {
		other := auth.NewTokenManager("other-secret", time.Hour, "product-catalog")

		token, err := other.Generate("admin", []auth.Role{auth.RoleAdmin})
		require.NoError(t, err)

		_, err = mgr.Validate(token)
		assert.Error(t, err)
	})

	t.Run("Should reject expired token", func(t *testing.T) {
		expired := auth.NewTokenManager("test-secret", -time.Minute, "product-catalog")

		token, err := expired.Generate("admin", []auth.Role{auth.RoleAdmin})
		require.NoError(t, err)

		_, err = mgr.Validate(token)
		assert.Error(t, err)
	})

	t.Run("Should reject garbage token", func(t *testing.T) {
		_, err := mgr.Validate("not-a-jwt")
		assert.Error(t, err)
	})
}
