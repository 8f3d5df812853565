package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/set-night/ibisbots/internal/clock"
)

const maxResponseBytes = 8 * 1024 * 1024

type Client struct {
	baseURL    string
	appURL     string
	token      string
	botID      string
	httpClient *http.Client
	clock      *clock.Clock
}

type Options struct {
	BaseURL string
	AppURL  string
	Token   string
	BotID   string
	Timeout time.Duration
	Clock   *clock.Clock
}

// RequestError describes a failed platform call. Status is zero for transport
// and GraphQL-level failures.
type RequestError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Err != nil && e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d", e.Op, e.StatusCode)
	default:
		return e.Op
	}
}

func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse platform url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid platform url: %q", opts.BaseURL)
	}
	if strings.TrimSpace(opts.BotID) == "" {
		return nil, errors.New("platform bot id is empty")
	}

	appURL := strings.TrimRight(strings.TrimSpace(opts.AppURL), "/")
	if appURL == "" {
		appURL = defaultAppURL(parsed)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New(time.UTC)
	}

	return &Client{
		baseURL:    base,
		appURL:     appURL,
		token:      strings.TrimSpace(opts.Token),
		botID:      strings.TrimSpace(opts.BotID),
		httpClient: &http.Client{Timeout: timeout},
		clock:      clk,
	}, nil
}

// defaultAppURL drops the API subdomain: https://api.example.org -> https://example.org.
func defaultAppURL(u *url.URL) string {
	host := u.Host
	if net.ParseIP(u.Hostname()) != nil || !strings.Contains(u.Hostname(), ".") {
		return u.Scheme + "://" + host
	}
	if parts := strings.SplitN(host, ".", 2); len(parts) == 2 && strings.Contains(parts[1], ".") {
		host = parts[1]
	}
	return u.Scheme + "://" + host
}

func (c *Client) BotID() string { return c.botID }

// AppLink returns a link to any platform object in the web app.
func (c *Client) AppLink(id string) string {
	return fmt.Sprintf("%s/#/_/Object?id=%s", c.appURL, url.QueryEscape(id))
}

// InviteLink is the page users share to refer friends.
func (c *Client) InviteLink() string {
	return c.appURL + "/#/Person/PersonList"
}

type graphQLRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// query runs a GraphQL operation and decodes the named top-level field into out.
func (c *Client) query(ctx context.Context, op, document, field string, vars map[string]any, out any) error {
	payload, err := json.Marshal(graphQLRequest{OperationName: op, Query: document, Variables: vars})
	if err != nil {
		return &RequestError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
	}

	status, body, err := c.do(ctx, http.MethodPost, "/graphql/", payload)
	if err != nil {
		return &RequestError{Op: op, StatusCode: status, Err: err}
	}

	var resp graphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return &RequestError{Op: op, StatusCode: status, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return &RequestError{Op: op, StatusCode: status, Err: errors.New(strings.Join(msgs, "; "))}
	}

	raw, ok := resp.Data[field]
	if !ok {
		return &RequestError{Op: op, StatusCode: status, Err: fmt.Errorf("missing field %q", field)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &RequestError{Op: op, StatusCode: status, Err: fmt.Errorf("decode %s: %w", field, err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return resp.StatusCode, data, errors.New(msg)
	}
	return resp.StatusCode, data, nil
}
