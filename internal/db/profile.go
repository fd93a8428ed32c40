// Package db resolves named database profiles to cached connection pools.
package db

import "fmt"

// Profile names a database target. The profile doubles as the database
// name the pool connects to.
type Profile string

const (
	ProfileSKP     Profile = "skp"
	ProfileCentral Profile = "central"
	ProfileBots    Profile = "bots"
)

var validProfiles = [...]Profile{ProfileSKP, ProfileCentral, ProfileBots}

// ValidProfiles returns the recognized profiles in their fixed order.
func ValidProfiles() []Profile {
	out := make([]Profile, len(validProfiles))
	copy(out, validProfiles[:])
	return out
}

// Valid reports whether p is one of the recognized profiles.
func (p Profile) Valid() bool {
	for _, v := range validProfiles {
		if p == v {
			return true
		}
	}
	return false
}

func (p Profile) String() string {
	return string(p)
}

// ParseProfile converts an external name into a Profile.
func ParseProfile(name string) (Profile, error) {
	p := Profile(name)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidProfile, name)
	}
	return p, nil
}
