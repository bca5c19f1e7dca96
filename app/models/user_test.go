package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserHashesPassword(t *testing.T) {
	u, err := CreateUser("alice", "alice@example.com", "secret123")
	require.NoError(t, err)

	assert.NotEqual(t, "secret123", u.PasswordHash)
	assert.True(t, u.HasPassword())
	assert.True(t, u.CheckPassword("secret123"))
	assert.False(t, u.CheckPassword("wrong"))
	assert.False(t, u.LastUsageReset.IsZero())
}

func TestCreateUserValidation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{name: "short username", username: "ab", email: "a@example.com", password: "secret123"},
		{name: "invalid email", username: "alice", email: "not-an-email", password: "secret123"},
		{name: "empty email", username: "alice", email: "", password: "secret123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateUser(tt.username, tt.email, tt.password)
			assert.Error(t, err)
		})
	}
}

func TestOAuthUserHasNoPassword(t *testing.T) {
	u, err := CreateOAuthUser("bob", "bob@example.com", OAUTH_PROVIDER_GOOGLE, "109234")
	require.NoError(t, err)

	assert.False(t, u.HasPassword())
	// comparing against a missing credential must reject, not crash
	assert.False(t, u.CheckPassword("anything"))
}

func TestPremiumListingStatus(t *testing.T) {
	l := &PremiumListing{Email: "paid@example.com", Status: LISTING_STATUS_ACTIVE}
	require.NoError(t, l.Validate())
	assert.True(t, l.IsActive())

	l.Status = LISTING_STATUS_CANCELLED
	assert.False(t, l.IsActive())

	l.Status = "bogus"
	assert.Error(t, l.Validate())
}
