package client

import "context"

// Sync forces a server-side synchronization pass on the selected database
// and returns the full response envelope. When the service performs a
// partial pass, the envelope carries the resume markers partial,
// partial_from and partial_total; callers re-invoke Sync until partial is
// no longer set.
func (c *Client) Sync(ctx context.Context, scope Scope) (map[string]any, error) {
	token, db, err := c.begin(scope)
	if err != nil {
		return nil, err
	}
	env, err := c.call(ctx, "sync", actionURL(c.baseURL, "sync", token, db, nil), nil)
	if err != nil {
		return nil, err
	}
	out, err := env.whole()
	if err != nil {
		return nil, c.fail(err)
	}
	return out, nil
}
