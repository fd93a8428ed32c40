package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidProfiles(t *testing.T) {
	want := []Profile{ProfileSKP, ProfileCentral, ProfileBots}
	assert.Equal(t, want, ValidProfiles())

	// Callers cannot mutate the fixed set.
	got := ValidProfiles()
	got[0] = "mutated"
	assert.Equal(t, want, ValidProfiles())
}

func TestParseProfile(t *testing.T) {
	for _, name := range []string{"skp", "central", "bots"} {
		p, err := ParseProfile(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.String())
		assert.True(t, p.Valid())
	}

	for _, name := range []string{"", "unknown", "Bots", " skp"} {
		_, err := ParseProfile(name)
		assert.ErrorIs(t, err, ErrInvalidProfile, name)
		assert.False(t, Profile(name).Valid())
	}
}
