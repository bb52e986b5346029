// Package config loads the CLI's connection profile from a JSON file,
// with environment variable overrides applied on top.
package config

import (
	"time"

	"github.com/nios4/go-nios4/client"
)

// Config holds everything the nios4 CLI needs to build a session client.
type Config struct {
	BaseURL  string `json:"baseUrl"`
	FileURL  string `json:"fileUrl"`
	Token    string `json:"token"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Database string `json:"database"`
	// TimeoutSeconds bounds every call; zero means the client default.
	TimeoutSeconds int    `json:"timeoutSeconds"`
	LogLevel       string `json:"logLevel"`
}

// Validate checks that the profile can authenticate: either a token or an
// email/password pair must be present.
func (c *Config) Validate() error {
	if c.Token == "" && (c.Email == "" || c.Password == "") {
		return ErrMissingCredentials
	}
	return nil
}

// ClientConfig converts the profile into a client.Config.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		BaseURL:  c.BaseURL,
		FileURL:  c.FileURL,
		Token:    c.Token,
		Username: c.Email,
		Password: c.Password,
		Database: c.Database,
		Timeout:  time.Duration(c.TimeoutSeconds) * time.Second,
	}
}
