package identity

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

	"github.com/nmartinez-dev/expensio-backend/pkg/config"
	pkgerrors "github.com/nmartinez-dev/expensio-backend/pkg/errors"
)

const requestBodyReadLimit int64 = 1024

var errAPIKeyRequired = errors.New("identity provider api key is required")

// Client talks to the external identity provider's management API. The app
// delegates all authentication to that provider; this client only pushes
// profile cosmetics (avatar URL) back so both sides show the same picture.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the provider base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the identity provider client given its management API key.
func NewClient(cfg config.IdentityConfig, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(cfg.APIKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    strings.TrimSpace(cfg.BaseURL),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// UpdateProfileImage points the provider-side profile at the supplied image URL.
func (c *Client) UpdateProfileImage(ctx context.Context, userID, imageURL string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "identity client not configured")
	}
	trimmedID := strings.TrimSpace(userID)
	if trimmedID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	body, err := json.Marshal(map[string]string{"profile_image_url": imageURL})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal profile image request")
	}

	reqURL := fmt.Sprintf("%s/users/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(trimmedID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, reqURL, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build profile image request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute profile image request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"profile image request failed")
	}

	return nil
}
