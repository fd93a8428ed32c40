package db

import "errors"

// Accessor errors.
var (
	ErrConfigurationIncomplete = errors.New("database connection is not properly configured")
	ErrInvalidProfile          = errors.New("invalid database profile specified")
	ErrInvalidPort             = errors.New("database port must be a number between 1 and 65535")
)

// Wiring errors.
var (
	ErrNoRegistry    = errors.New("no pool registry in context")
	ErrUnknownEngine = errors.New("unknown database engine")
)
