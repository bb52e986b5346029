package client

import (
	"context"
	"net/url"
)

// Login authenticates the session. With a token (stored or passed through
// scope) the token itself is verified; otherwise the configured
// username/password pair is submitted and the token issued by the service
// is adopted. On success the session's user id and email are populated.
func (c *Client) Login(ctx context.Context, scope Scope) error {
	c.mu.Lock()
	c.lastErr = nil
	if scope.Token != "" {
		c.token = scope.Token
	}
	token := c.token
	username, password := c.username, c.password
	c.mu.Unlock()

	var rawURL string
	if token != "" {
		rawURL = actionURL(c.baseURL, "user_login", token, "", nil)
	} else {
		q := url.Values{}
		q.Set("email", username)
		q.Set("password", password)
		rawURL = actionURL(c.baseURL, "user_login", "", "", q)
	}

	env, err := c.call(ctx, "user_login", rawURL, nil)
	if err != nil {
		return err
	}

	user, err := extract[struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Token string `json:"token"`
	}](env, "user")
	if err != nil {
		return c.fail(err)
	}

	c.mu.Lock()
	c.userID = user.ID
	c.userEmail = user.Email
	if c.token == "" {
		c.token = user.Token
	}
	c.mu.Unlock()

	c.log.Info().Str("user", user.ID).Msg("logged in")
	return nil
}
