package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordConfig(t *testing.T) {
	tests := []struct {
		name     string
		cost     string
		pepper   string
		wantCost int
		wantErr  string
	}{
		{name: "default cost", cost: "", wantCost: 12},
		{name: "explicit cost", cost: "10", wantCost: 10},
		{name: "max cost", cost: "14", wantCost: 14},
		{name: "with pepper", cost: "10", pepper: "global-secret", wantCost: 10},
		{name: "non-numeric cost", cost: "expensive", wantErr: "invalid BCRYPT_COST"},
		{name: "cost too low", cost: "4", wantErr: "out of range"},
		{name: "cost too high", cost: "20", wantErr: "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BCRYPT_COST", tt.cost)
			t.Setenv("PASSWORD_PEPPER", tt.pepper)

			cfg, err := NewPasswordConfig()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCost, cfg.BcryptCost)
			assert.Equal(t, tt.pepper, cfg.Pepper)
		})
	}
}

func TestPasswordConfig_HashAndVerify(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	hash, err := cfg.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, cfg.VerifyPassword("correct horse battery staple", hash))
	assert.False(t, cfg.VerifyPassword("wrong password", hash))
	assert.False(t, cfg.VerifyPassword("", hash))
}

func TestPasswordConfig_PepperChangesVerification(t *testing.T) {
	withPepper := &PasswordConfig{BcryptCost: 10, Pepper: "pepper-a"}
	hash, err := withPepper.HashPassword("swordfish")
	require.NoError(t, err)

	assert.True(t, withPepper.VerifyPassword("swordfish", hash))

	// Same password under a different (or missing) pepper must not verify.
	otherPepper := &PasswordConfig{BcryptCost: 10, Pepper: "pepper-b"}
	assert.False(t, otherPepper.VerifyPassword("swordfish", hash))
	noPepper := &PasswordConfig{BcryptCost: 10}
	assert.False(t, noPepper.VerifyPassword("swordfish", hash))
}

func TestPasswordConfig_HashesAreSalted(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	h1, err := cfg.HashPassword("same password")
	require.NoError(t, err)
	h2, err := cfg.HashPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, cfg.VerifyPassword("same password", h1))
	assert.True(t, cfg.VerifyPassword("same password", h2))
}
