package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	blackList := map[string]bool{"Password1!": true}

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Welcome1!", false},
		{"too short", "Ab1!", true},
		{"no uppercase", "welcome1!", true},
		{"no digit", "Welcome!!", true},
		{"no special", "Welcome12", true},
		{"blacklisted", "Password1!", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, blackList)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadBlackList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	require.NoError(t, os.WriteFile(path, []byte("Password1!\n\n  Qwerty123!  \n"), 0o600))

	list, err := LoadBlackList(path)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.True(t, list["Qwerty123!"])

	_, err = LoadBlackList(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
