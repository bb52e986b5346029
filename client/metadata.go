package client

import (
	"context"
	"net/url"
)

// DatabaseList returns the databases available to the authenticated user.
func (c *Client) DatabaseList(ctx context.Context, scope Scope) ([]map[string]any, error) {
	token, _, err := c.begin(scope)
	if err != nil {
		return nil, err
	}
	env, err := c.call(ctx, "database_list", actionURL(c.baseURL, "database_list", token, "", nil), nil)
	if err != nil {
		return nil, err
	}
	dbs, err := extract[[]map[string]any](env, "db")
	if err != nil {
		return nil, c.fail(err)
	}
	return dbs, nil
}

// Users returns the users of the selected database.
func (c *Client) Users(ctx context.Context, scope Scope) ([]map[string]any, error) {
	token, db, err := c.begin(scope)
	if err != nil {
		return nil, err
	}
	env, err := c.call(ctx, "users", actionURL(c.baseURL, "users", token, db, nil), nil)
	if err != nil {
		return nil, err
	}
	users, err := extract[[]map[string]any](env, "users")
	if err != nil {
		return nil, c.fail(err)
	}
	return users, nil
}

// TableList returns the tables of the selected database.
func (c *Client) TableList(ctx context.Context, scope Scope) ([]map[string]any, error) {
	token, db, err := c.begin(scope)
	if err != nil {
		return nil, err
	}
	env, err := c.call(ctx, "table_list", actionURL(c.baseURL, "table_list", token, db, nil), nil)
	if err != nil {
		return nil, err
	}
	tables, err := extract[[]map[string]any](env, "tables")
	if err != nil {
		return nil, c.fail(err)
	}
	return tables, nil
}

// TableInfo returns the metadata of one table: parameters, expressions
// and applied styles.
func (c *Client) TableInfo(ctx context.Context, table string, scope Scope) (map[string]any, error) {
	token, db, err := c.begin(scope)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("tablename", table)
	env, err := c.call(ctx, "table_info", actionURL(c.baseURL, "table_info", token, db, q), nil)
	if err != nil {
		return nil, err
	}
	info, err := extract[map[string]any](env, "table")
	if err != nil {
		return nil, c.fail(err)
	}
	return info, nil
}

// FieldsInfo returns the field definitions of one table. It shares the
// table_info action with TableInfo but reads the fields payload.
func (c *Client) FieldsInfo(ctx context.Context, table string, scope Scope) ([]map[string]any, error) {
	token, db, err := c.begin(scope)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("tablename", table)
	env, err := c.call(ctx, "table_info", actionURL(c.baseURL, "table_info", token, db, q), nil)
	if err != nil {
		return nil, err
	}
	fields, err := extract[[]map[string]any](env, "fields")
	if err != nil {
		return nil, c.fail(err)
	}
	return fields, nil
}
