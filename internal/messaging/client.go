package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/utils"
)

// Client talks to the daemon control API.
type Client struct {
	http    *http.Client
	baseURL string
}

var _ Handler = (*Client)(nil)

// NewClient targets baseURL (e.g. "http://127.0.0.1:7717").
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Authorize asks the owner to run the interactive grant.
func (c *Client) Authorize(ctx context.Context) (Response, error) {
	return c.send(ctx, Request{Action: ActionAuthorize})
}

// ClearAuth asks the owner to drop the session.
func (c *Client) ClearAuth(ctx context.Context) (Response, error) {
	return c.send(ctx, Request{Action: ActionClearAuth})
}

// TextCopied forwards an observed copy.
func (c *Client) TextCopied(ctx context.Context, req Request) (Response, error) {
	req.Action = ActionTextCopied
	return c.send(ctx, req)
}

// ManualPaste sends text typed by the user.
func (c *Client) ManualPaste(ctx context.Context, req Request) (Response, error) {
	req.Action = ActionManualPaste
	return c.send(ctx, req)
}

func (c *Client) send(ctx context.Context, req Request) (Response, error) {
	var resp Response
	err := c.do(ctx, http.MethodPost, "/api/messages/"+string(req.Action), req, &resp)
	return resp, err
}

// Status returns the daemon state.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &st)
	return st, err
}

// Settings returns the persisted settings.
func (c *Client) Settings(ctx context.Context) (domain.Settings, error) {
	var s domain.Settings
	err := c.do(ctx, http.MethodGet, "/api/settings", nil, &s)
	return s, err
}

// UpdateSettings saves the set fields and returns the resulting settings.
func (c *Client) UpdateSettings(ctx context.Context, upd SettingsUpdate) (domain.Settings, error) {
	var s domain.Settings
	err := c.do(ctx, http.MethodPut, "/api/settings", upd, &s)
	return s, err
}

// TriggerPoll runs the background clipboard check now.
func (c *Client) TriggerPoll(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/poll", nil, nil)
}

// SetActiveTab reports the active browsing context.
func (c *Client) SetActiveTab(ctx context.Context, tab domain.Tab) error {
	return c.do(ctx, http.MethodPut, "/api/tabs/active", tab, nil)
}

// do performs a JSON call. Every failure to obtain a decodable 2xx answer
// wraps domain.ErrMessagingChannel.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode %s: %v", domain.ErrMessagingChannel, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMessagingChannel, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMessagingChannel, err)
	}
	defer utils.Close(resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", domain.ErrMessagingChannel, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s: %d %s", domain.ErrMessagingChannel, method, path,
			resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrMessagingChannel, path, err)
	}
	return nil
}
