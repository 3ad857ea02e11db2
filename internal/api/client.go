package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNoToken is returned before any request is made when the client has
// no bearer credential configured.
var ErrNoToken = errors.New("veri access token not configured")

// Error is a failure reported inside the Veri response envelope.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("veri API error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("veri API returned status %d", e.Status)
}

// Client talks to the Veri backend. Every response shares the
// {isSuccess, code, message, result} envelope.
type Client struct {
	BaseURL    string
	Token      string
	httpClient *http.Client
}

// NewClient creates a new Veri API client.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type envelope struct {
	IsSuccess bool            `json:"isSuccess"`
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Result    json.RawMessage `json:"result"`
}

// Get performs an enveloped GET and unmarshals the result field into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post performs an enveloped POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.Token == "" {
		return ErrNoToken
	}

	reqURL := c.BaseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Veri API: %w", err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respData, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &Error{Status: resp.StatusCode}
		}
		return fmt.Errorf("failed to decode response envelope: %w", err)
	}

	if !env.IsSuccess {
		return &Error{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	}

	// Absent or null result is valid for endpoints like book search.
	if out != nil && len(env.Result) > 0 && string(env.Result) != "null" {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("failed to decode result: %w", err)
		}
	}

	return nil
}
