package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// Client talks to the hosted identity provider's REST contract. All
// credential and token state lives on the vendor side; this client only
// relays requests and surfaces the vendor's responses.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout overrides the default request timeout. It applies after
// all options run, so it combines with WithHTTPClient in any order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates a client for the identity deployment at baseURL.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		c.httpClient.Timeout = c.timeout
	}
	return c
}

// SignUpInput carries the fields for a new account registration.
type SignUpInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInInput carries the fields for an existing-account sign-in.
type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentialsResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      Identity  `json:"user"`
}

// SignUp registers a new account with the identity provider.
func (c *Client) SignUp(ctx context.Context, input SignUpInput) (*Credentials, error) {
	return c.postCredentials(ctx, "/v1/sign-up", input)
}

// SignIn authenticates an existing account.
func (c *Client) SignIn(ctx context.Context, input SignInInput) (*Credentials, error) {
	return c.postCredentials(ctx, "/v1/sign-in", input)
}

// SignOut invalidates the session behind the given token. Unknown or
// already-expired tokens are not an error.
func (c *Client) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/sign-out", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("idp: sign-out: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusUnauthorized {
		return decodeAPIError(resp)
	}
	return nil
}

// CurrentSession resolves the identity behind a session token. It returns
// (nil, nil) when the vendor reports no valid session for the token.
func (c *Client) CurrentSession(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/v1/session", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("idp: current session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= 400:
		return nil, decodeAPIError(resp)
	}

	var payload struct {
		User Identity `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("idp: decode session: %w", err)
	}
	if payload.User.ID == "" {
		return nil, nil
	}
	return &payload.User, nil
}

func (c *Client) postCredentials(ctx context.Context, path string, input any) (*Credentials, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("idp: encode request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("idp: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp)
	}

	var payload credentialsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("idp: decode credentials: %w", err)
	}
	if payload.Token == "" {
		return nil, fmt.Errorf("idp: response missing session token")
	}

	return &Credentials{
		Token:     payload.Token,
		Identity:  payload.User,
		ExpiresAt: payload.ExpiresAt,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("idp: build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return req, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return apiErr
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			apiErr.Message = payload.Message
		} else if payload.Error != "" {
			apiErr.Message = payload.Error
		}
	}
	return apiErr
}
