// Package docs talks to the Google Docs REST API.
package docs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/utils"
)

// DefaultBaseURL is the public Docs API endpoint.
const DefaultBaseURL = "https://docs.googleapis.com"

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

// Client issues batchUpdate calls.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a Docs client. A zero timeout leaves the transport's own
// limits in charge.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type location struct {
	Index int `json:"index"`
}

type insertText struct {
	Location location `json:"location"`
	Text     string   `json:"text"`
}

type request struct {
	InsertText *insertText `json:"insertText,omitempty"`
}

type batchUpdateRequest struct {
	Requests []request `json:"requests"`
}

// BatchUpdateResponse is the success body of documents.batchUpdate.
type BatchUpdateResponse struct {
	DocumentID   string            `json:"documentId"`
	Replies      []json.RawMessage `json:"replies"`
	WriteControl *struct {
		RequiredRevisionID string `json:"requiredRevisionId"`
	} `json:"writeControl,omitempty"`
}

type apiErrorBody struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// InsertText inserts text at index in documentID with a single write.
func (c *Client) InsertText(ctx context.Context, token, documentID, text string, index int) (*BatchUpdateResponse, error) {
	body, err := json.Marshal(batchUpdateRequest{
		Requests: []request{{
			InsertText: &insertText{Location: location{Index: index}, Text: text},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batchUpdate: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/documents/%s:batchUpdate", c.baseURL, url.PathEscape(documentID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call docs api: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg, status := errorMessage(raw)
		return nil, &domain.APIError{
			StatusCode: resp.StatusCode,
			Status:     status,
			Message:    msg,
		}
	}

	var out BatchUpdateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode batchUpdate response: %w", err)
	}
	return &out, nil
}

// errorMessage extracts error.message and error.status from a JSON body.
// The message falls back to the raw text and finally to a generic message.
func errorMessage(raw []byte) (msg, status string) {
	var parsed apiErrorBody
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Error == nil {
			return "API error", ""
		}
		msg = parsed.Error.Message
		if msg == "" {
			msg = "API error"
		}
		return msg, parsed.Error.Status
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text, ""
	}
	return "Unknown error", ""
}
