// Package client implements the NIOS4 session client: one method per
// remote action, each a single HTTP round trip followed by envelope
// decoding. The service reports business failures inside a JSON envelope
// ({error, error_code, error_message}); those surface as *APIError, while
// connection-level problems surface as *TransportError.
package client

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the fixed service endpoint for metadata, record
	// and sync actions.
	DefaultBaseURL = "https://web.nios4.com/ws/"

	// DefaultFileURL is the distinct fixed endpoint for binary file
	// transfer actions.
	DefaultFileURL = "https://app.pocketsell.com/_sync/"

	// DefaultTimeout bounds every call, file transfers included.
	DefaultTimeout = 30 * time.Second
)

// Config configures a Client. The zero value is usable: it targets the
// production endpoints with the default timeout and a disabled logger.
type Config struct {
	// BaseURL overrides the metadata/record/sync endpoint.
	BaseURL string
	// FileURL overrides the binary file transfer endpoint.
	FileURL string

	// Token is a pre-existing bearer credential. When empty, Login with
	// Username/Password obtains one from the service.
	Token    string
	Username string
	Password string
	// Database selects the target database for database-scoped actions.
	Database string

	// Timeout applies uniformly to every call. Zero means DefaultTimeout.
	Timeout time.Duration
	// HTTPClient substitutes the underlying transport; its own timeout is
	// kept when set, otherwise Timeout is applied.
	HTTPClient *http.Client

	Logger zerolog.Logger
}

// Client holds one logical NIOS4 session: the bearer token, the identity
// populated by Login, and the selected database. All session state sits
// behind a mutex, so a Client is safe for concurrent use — but note that
// per-call Scope overrides rebind the session for every caller (see Scope).
//
// Every operation returns its payload and an error directly; LastError
// keeps the most recent failure as a convenience for callers that poll it.
type Client struct {
	baseURL string
	fileURL string
	http    *http.Client
	log     zerolog.Logger

	mu        sync.Mutex
	token     string
	userID    string
	userEmail string
	username  string
	password  string
	dbName    string
	lastErr   error
}

// New creates a Client from cfg.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	fileURL := cfg.FileURL
	if fileURL == "" {
		fileURL = DefaultFileURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:  baseURL,
		fileURL:  fileURL,
		http:     httpClient,
		log:      cfg.Logger,
		token:    cfg.Token,
		username: cfg.Username,
		password: cfg.Password,
		dbName:   cfg.Database,
	}
}

// Scope carries per-call token/database overrides. A non-empty field
// REBINDS the session: the override replaces the stored value and persists
// past the call. This mirrors the service's session semantics; pass a
// fresh Client instead if you need call-local credentials.
type Scope struct {
	Token    string
	Database string
}

// begin starts an operation: clears the last error, applies scope
// overrides, and resolves the effective token and database. An empty
// effective token fails with *AuthError before any network attempt.
func (c *Client) begin(s Scope) (token, db string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastErr = nil
	if s.Token != "" {
		c.token = s.Token
	}
	if s.Database != "" {
		c.dbName = s.Database
	}
	if c.token == "" {
		err = &AuthError{Reason: "token missing"}
		c.lastErr = err
		return "", "", err
	}
	return c.token, c.dbName, nil
}

// fail records err as the session's last error and returns it.
func (c *Client) fail(err error) error {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	return err
}

// LastError returns the failure of the most recent operation, or nil if
// it succeeded. It is derived from the same error each operation returns.
func (c *Client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Token returns the session's current bearer token.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Database returns the session's currently selected database name.
func (c *Client) Database() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dbName
}

// UserID returns the user id populated by Login.
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// UserEmail returns the user email populated by Login.
func (c *Client) UserEmail() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userEmail
}
