package config

import "errors"

var (
	// ErrMissingCredentials indicates neither a token nor an email/password
	// pair is configured
	ErrMissingCredentials = errors.New("either token or email and password are required in configuration")

	// ErrConfigFileNotFound indicates that the config file was not found
	ErrConfigFileNotFound = errors.New("configuration file not found")

	// ErrInvalidConfigFormat indicates that the config file has invalid JSON
	ErrInvalidConfigFormat = errors.New("invalid configuration file format")
)
