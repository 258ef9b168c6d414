// Package client talks to a bookmarkd server over its HTTP and websocket API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/bookmarkd/internal/api"
	"github.com/MrSnakeDoc/bookmarkd/internal/utils"
)

var (
	ErrImportDisabled = errors.New("import is not configured on the server")
	ErrImportPending  = errors.New("an import is already pending")
)

// StatusError is returned for any unexpected HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
}

type Client struct {
	base   *url.URL
	http   *http.Client
	dialer *websocket.Dialer
}

// New validates baseURL (scheme http or https). A nil httpClient uses a
// client with a 10s timeout.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: missing host", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: u, http: httpClient, dialer: websocket.DefaultDialer}, nil
}

// List returns the current state. A non-empty query ranks and filters items.
func (c *Client) List(ctx context.Context, query string) (api.State, error) {
	var st api.State
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	resp, err := c.do(ctx, http.MethodGet, "/api/bookmarks", q, nil)
	if err != nil {
		return st, err
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return st, statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("decode state: %w", err)
	}
	return st, nil
}

// Add queues a bookmark. It returns false when the server ignored blank text.
func (c *Client) Add(ctx context.Context, text string) (bool, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/bookmarks", nil, api.AddRequest{Text: text})
	if err != nil {
		return false, err
	}
	defer utils.Close(resp.Body)

	switch resp.StatusCode {
	case http.StatusAccepted:
		return true, nil
	case http.StatusNoContent:
		return false, nil
	default:
		return false, statusError(resp)
	}
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("empty bookmark id")
	}
	return c.expectAccepted(ctx, http.MethodDelete, "/api/bookmarks/"+url.PathEscape(id))
}

// Retry asks the server to reconnect after a failure.
func (c *Client) Retry(ctx context.Context) error {
	return c.expectAccepted(ctx, http.MethodPost, "/api/retry")
}

func (c *Client) Import(ctx context.Context) error {
	err := c.expectAccepted(ctx, http.MethodPost, "/api/import")
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusNotFound:
			return ErrImportDisabled
		case http.StatusTooManyRequests:
			return ErrImportPending
		}
	}
	return err
}

// Watch streams states to fn until ctx is done, fn returns an error or the
// server closes the stream. A server-side close returns nil.
func (c *Client) Watch(ctx context.Context, fn func(api.State) error) error {
	u := *c.base
	u.Path += "/api/bookmarks/stream"
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}

	ws, resp, err := c.dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer utils.Close(ws)

	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()

	for {
		var st api.State
		if err := ws.ReadJSON(&st); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read stream: %w", err)
		}
		if err := fn(st); err != nil {
			return err
		}
	}
}

func (c *Client) expectAccepted(ctx context.Context, method, path string) error {
	resp, err := c.do(ctx, method, path, nil, nil)
	if err != nil {
		return err
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		return statusError(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	body := strings.TrimSpace(string(b))

	var msg api.Message
	if json.Unmarshal(b, &msg) == nil && msg.Message != "" {
		body = msg.Message
	}
	return &StatusError{Code: resp.StatusCode, Body: body}
}
