package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
)

// fileActionURL builds a binary transfer URL against the file endpoint.
func (c *Client) fileActionURL(action, token, db, table, gguid string, extra url.Values) string {
	q := url.Values{}
	q.Set("tablename", table)
	q.Set("gguid", gguid)
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return actionURL(c.fileURL, action, token, db, q)
}

// Upload sends raw file bytes to the file endpoint, bypassing the JSON
// envelope for the payload itself. isImage classifies the content so the
// service can generate thumbnails server-side. The small JSON
// acknowledgement counts as failure when result is "KO".
func (c *Client) Upload(ctx context.Context, data io.Reader, isImage bool, gguid, table string, scope Scope) error {
	token, db, err := c.begin(scope)
	if err != nil {
		return err
	}

	kind := "file"
	if isImage {
		kind = "image"
	}
	q := url.Values{}
	q.Set("type", kind)
	rawURL := c.fileActionURL("file_upload", token, db, table, gguid, q)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, data)
	if err != nil {
		return c.fail(&TransportError{Err: err})
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("action", "file_upload").Msg("upload failed")
		return c.fail(&TransportError{Err: err})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(&TransportError{Status: resp.StatusCode, Err: err})
	}
	if resp.StatusCode != http.StatusOK {
		return c.fail(&TransportError{Status: resp.StatusCode, Body: string(raw)})
	}

	var ack struct {
		Result       string `json:"result"`
		ErrorCode    string `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	}
	if err := json.Unmarshal(raw, &ack); err != nil {
		return c.fail(&TransportError{Status: resp.StatusCode, Body: string(raw), Err: err})
	}
	if ack.Result == "KO" {
		return c.fail(&APIError{Code: ack.ErrorCode, Message: ack.ErrorMessage})
	}

	c.log.Debug().Str("gguid", gguid).Str("type", kind).Msg("file uploaded")
	return nil
}

// UploadFile reads path from disk and uploads it. See Upload.
func (c *Client) UploadFile(ctx context.Context, path string, isImage bool, gguid, table string, scope Scope) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return c.fail(&TransportError{Err: err})
	}
	return c.Upload(ctx, bytes.NewReader(data), isImage, gguid, table, scope)
}

// Download streams a file's bytes from the file endpoint into w. The
// transferred payload is raw binary with no envelope.
func (c *Client) Download(ctx context.Context, w io.Writer, gguid, table string, scope Scope) error {
	token, db, err := c.begin(scope)
	if err != nil {
		return err
	}
	rawURL := c.fileActionURL("file_download", token, db, table, gguid, nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return c.fail(&TransportError{Err: err})
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("action", "file_download").Msg("download failed")
		return c.fail(&TransportError{Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return c.fail(&TransportError{Status: resp.StatusCode, Body: string(raw)})
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return c.fail(&TransportError{Err: err})
	}

	c.log.Debug().Str("gguid", gguid).Msg("file downloaded")
	return nil
}

// DownloadFile streams a file to the given local path. See Download.
func (c *Client) DownloadFile(ctx context.Context, path, gguid, table string, scope Scope) error {
	f, err := os.Create(path)
	if err != nil {
		return c.fail(&TransportError{Err: err})
	}
	defer f.Close()
	return c.Download(ctx, f, gguid, table, scope)
}
