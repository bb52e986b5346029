package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// envelope is the decoded JSON wrapper every non-streaming action returns:
// {error, error_code, error_message, <action-specific payload keys>}.
type envelope map[string]json.RawMessage

// actionURL builds a service URL. Note the wire contract: the bearer token
// and database name travel as plaintext query parameters.
func actionURL(base, action, token, db string, extra url.Values) string {
	q := url.Values{}
	q.Set("action", action)
	if token != "" {
		q.Set("token", token)
	}
	if db != "" {
		q.Set("db", db)
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return base + "?" + q.Encode()
}

// call performs one round trip and decodes the envelope. body non-nil
// means a JSON POST; nil means GET. Transport failures and undecodable
// responses come back as *TransportError, envelope-level failures as
// *APIError. The returned error is already recorded via fail.
func (c *Client) call(ctx context.Context, action, rawURL string, body any) (envelope, error) {
	var (
		req *http.Request
		err error
	)
	if body != nil {
		payload, merr := json.Marshal(body)
		if merr != nil {
			return nil, c.fail(&TransportError{Err: fmt.Errorf("encoding request body: %w", merr)})
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	}
	if err != nil {
		return nil, c.fail(&TransportError{Err: err})
	}

	logger := c.log.With().
		Str("action", action).
		Str("method", req.Method).
		Logger()

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("request failed")
		return nil, c.fail(&TransportError{Err: err})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error().Err(err).Msg("reading response failed")
		return nil, c.fail(&TransportError{Status: resp.StatusCode, Err: err})
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request completed")

	if resp.StatusCode != http.StatusOK {
		return nil, c.fail(&TransportError{Status: resp.StatusCode, Body: string(raw)})
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, c.fail(&TransportError{Status: resp.StatusCode, Body: string(raw), Err: err})
	}

	if apiErr := env.failure(); apiErr != nil {
		logger.Warn().
			Str("code", apiErr.Code).
			Str("message", apiErr.Message).
			Msg("service reported error")
		return nil, c.fail(apiErr)
	}
	return env, nil
}

// failure inspects the envelope's error flag and returns the reported
// *APIError, or nil on success.
func (env envelope) failure() *APIError {
	raw, ok := env["error"]
	if !ok {
		return nil
	}
	var flag bool
	if err := json.Unmarshal(raw, &flag); err != nil || !flag {
		return nil
	}
	apiErr := &APIError{}
	if raw, ok := env["error_code"]; ok {
		_ = json.Unmarshal(raw, &apiErr.Code)
	}
	if raw, ok := env["error_message"]; ok {
		_ = json.Unmarshal(raw, &apiErr.Message)
	}
	return apiErr
}

// whole decodes the full envelope into a generic map, for actions whose
// contract is the envelope itself (save, delete, resolve, sync).
func (env envelope) whole() (map[string]any, error) {
	out := make(map[string]any, len(env))
	for k, raw := range env {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &TransportError{Err: fmt.Errorf("decoding %q: %w", k, err)}
		}
		out[k] = v
	}
	return out, nil
}

// extract decodes one payload key from the envelope. Every action's key
// is a fixed contract; a missing key means the service broke it.
func extract[T any](env envelope, key string) (T, error) {
	var out T
	raw, ok := env[key]
	if !ok {
		return out, &TransportError{Err: fmt.Errorf("response missing %q", key)}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &TransportError{Err: fmt.Errorf("decoding %q: %w", key, err)}
	}
	return out, nil
}
