package client

import (
	"context"
	"encoding/json"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// Record is one database row as an opaque field-name-to-value mapping.
// The client never interprets fields beyond the gguid presence check on
// save and delete.
type Record map[string]any

// gguid returns the record's identifier and whether it is usable
// (present, non-nil, non-empty).
func (r Record) gguid() (string, bool) {
	v, ok := r["gguid"]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// GetRecord fetches a single record by gguid.
func (c *Client) GetRecord(ctx context.Context, table, gguid string, scope Scope) ([]Record, error) {
	token, db, err := c.begin(scope)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("tablename", table)
	q.Set("gguid", gguid)
	env, err := c.call(ctx, "model", actionURL(c.baseURL, "model", token, db, q), nil)
	if err != nil {
		return nil, err
	}
	records, err := extract[[]Record](env, "records")
	if err != nil {
		return nil, c.fail(err)
	}
	return records, nil
}

// SaveOptions qualifies a SaveRecord call. IsNew must be set for inserts;
// Delete marks the record deleted instead of updating it.
type SaveOptions struct {
	IsNew  bool
	Delete bool
}

// SaveRecord submits one record. The record must carry a non-empty gguid;
// a missing, nil or empty one fails locally with *ValidationError and no
// request is made. The full response envelope is returned.
func (c *Client) SaveRecord(ctx context.Context, table string, values Record, opts SaveOptions, scope Scope) (map[string]any, error) {
	token, db, err := c.begin(scope)
	if err != nil {
		return nil, err
	}
	if _, ok := values.gguid(); !ok {
		return nil, c.fail(&ValidationError{Field: "gguid", Reason: "record gguid is not defined"})
	}

	payload := map[string]any{
		"is_new": opts.IsNew,
		"values": values,
		"delete": opts.Delete,
	}
	q := url.Values{}
	q.Set("tablename", table)
	env, err := c.call(ctx, "detail_save", actionURL(c.baseURL, "detail_save", token, db, q), payload)
	if err != nil {
		return nil, err
	}
	out, err := env.whole()
	if err != nil {
		return nil, c.fail(err)
	}
	return out, nil
}

// SaveRecords submits a batch of records as one table_save call. Every
// row must carry a non-empty gguid. The batch has no per-row failure
// reporting: it succeeds as one envelope or fails as one call.
func (c *Client) SaveRecords(ctx context.Context, table string, rows []Record, scope Scope) (map[string]any, error) {
	token, db, err := c.begin(scope)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if _, ok := row.gguid(); !ok {
			return nil, c.fail(&ValidationError{Field: "gguid", Reason: "record gguid is not defined in row " + strconv.Itoa(i)})
		}
	}

	payload := map[string]any{"rows": rows}
	q := url.Values{}
	q.Set("tablename", table)
	env, err := c.call(ctx, "table_save", actionURL(c.baseURL, "table_save", token, db, q), payload)
	if err != nil {
		return nil, err
	}
	out, err := env.whole()
	if err != nil {
		return nil, c.fail(err)
	}
	return out, nil
}

// DeleteRecord deletes a record and its related details in linked tables.
// The full response envelope is returned.
func (c *Client) DeleteRecord(ctx context.Context, table, gguid string, scope Scope) (map[string]any, error) {
	token, db, err := c.begin(scope)
	if err != nil {
		return nil, err
	}
	if gguid == "" {
		return nil, c.fail(&ValidationError{Field: "gguid", Reason: "record gguid is not defined"})
	}

	payload := map[string]any{
		"tablename": table,
		"gguid":     gguid,
	}
	q := url.Values{}
	q.Set("tablename", table)
	env, err := c.call(ctx, "detail_delete", actionURL(c.baseURL, "detail_delete", token, db, q), payload)
	if err != nil {
		return nil, err
	}
	out, err := env.whole()
	if err != nil {
		return nil, c.fail(err)
	}
	return out, nil
}

// ResolveRecord forces the service to recalculate a record's derived
// values (expressions, totals). The full response envelope is returned.
func (c *Client) ResolveRecord(ctx context.Context, table, gguid string, scope Scope) (map[string]any, error) {
	token, db, err := c.begin(scope)
	if err != nil {
		return nil, err
	}
	if gguid == "" {
		return nil, c.fail(&ValidationError{Field: "gguid", Reason: "record gguid is not defined"})
	}

	payload := map[string]any{
		"tablename": table,
		"gguid":     gguid,
	}
	q := url.Values{}
	q.Set("tablename", table)
	env, err := c.call(ctx, "detail_resolve", actionURL(c.baseURL, "detail_resolve", token, db, q), payload)
	if err != nil {
		return nil, err
	}
	out, err := env.whole()
	if err != nil {
		return nil, c.fail(err)
	}
	return out, nil
}

// NewDataFile prepares the metadata blob a file-typed field stores: a
// gguid for the transferred file plus its bare filename. A fresh gguid is
// generated when none is supplied.
func NewDataFile(filename, gguid string) (string, []byte, error) {
	if gguid == "" {
		gguid = uuid.New().String()
	}
	body, err := json.Marshal(map[string]string{
		"gguidfile": gguid,
		"nomefile":  filepath.Base(filename),
	})
	if err != nil {
		return "", nil, err
	}
	return gguid, body, nil
}
