package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const userAgent = "notsteam-storefront/1.0"

// Client calls the NotSteam store backend over HTTP. It is stateless: the
// bearer credential is an explicit argument on every authenticated call,
// never an ambient default.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a backend error response. Fields carries
// field-keyed validation messages when the backend returns them
// (registration, profile updates); Message is always set.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsAuthError reports whether err is a backend 401/403 response.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// NewClient constructs a store backend client. baseURL points at the API
// root, e.g. "http://localhost:8000/api".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetTimeout overrides the default request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return parseAPIError(resp.StatusCode, data)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// parseAPIError understands the backend's two error shapes: a single
// message under "error"/"detail"/"message", or a field-keyed validation
// map whose values are strings or arrays of strings.
func parseAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status}
	var single struct {
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(data, &single)
	switch {
	case single.Error != "":
		apiErr.Message = single.Error
	case single.Detail != "":
		apiErr.Message = single.Detail
	case single.Message != "":
		apiErr.Message = single.Message
	}
	if apiErr.Message == "" {
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err == nil && len(raw) > 0 {
			apiErr.Fields = make(map[string][]string, len(raw))
			for field, value := range raw {
				switch v := value.(type) {
				case string:
					apiErr.Fields[field] = []string{v}
				case []any:
					for _, item := range v {
						if s, ok := item.(string); ok {
							apiErr.Fields[field] = append(apiErr.Fields[field], s)
						}
					}
				}
			}
			for field, msgs := range apiErr.Fields {
				if len(msgs) > 0 {
					apiErr.Message = field + ": " + msgs[0]
					break
				}
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
