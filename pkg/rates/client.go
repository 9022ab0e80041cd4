package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nmartinez-dev/expensio-backend/pkg/config"
	pkgerrors "github.com/nmartinez-dev/expensio-backend/pkg/errors"
	"github.com/nmartinez-dev/expensio-backend/pkg/logger"
)

const (
	defaultPrimaryBaseURL = "https://v6.exchangerate-api.com/v6"
	defaultTimeout        = 5 * time.Second

	// DefaultBase is used when the caller does not name a base currency.
	DefaultBase = "USD"
)

// Result is the stable shape handed to clients regardless of which upstream
// provider answered.
type Result struct {
	Rates    map[string]float64 `json:"rates"`
	TS       int64              `json:"ts"`
	Base     string             `json:"base"`
	Provider string             `json:"provider"`
}

// payload is the union of the response fields the supported providers use.
type payload struct {
	Rates           map[string]float64 `json:"rates"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
	Base            string             `json:"base"`
	BaseCode        string             `json:"base_code"`
}

type fallbackProvider struct {
	name    string
	baseURL string
	request func(baseURL, base string) string
	rates   func(p payload) map[string]float64
	base    func(p payload) string
}

// Client queries foreign-exchange providers in a fixed fallback order, hiding
// the primary provider's API key from API consumers.
type Client struct {
	httpClient *http.Client
	apiKey     string
	timeout    time.Duration

	primaryBaseURL string
	fallbacks      []fallbackProvider

	logg *logger.Logger
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

// WithPrimaryBaseURL overrides the keyed provider endpoint.
func WithPrimaryBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.primaryBaseURL = trimmed
		}
	}
}

// WithFallbackBaseURL overrides a named fallback provider's endpoint.
func WithFallbackBaseURL(name, baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed == "" {
			return
		}
		for i := range c.fallbacks {
			if c.fallbacks[i].name == name {
				c.fallbacks[i].baseURL = trimmed
			}
		}
	}
}

// NewClient builds the rates client. An empty API key skips the keyed primary
// provider and goes straight to the free fallbacks.
func NewClient(cfg config.RatesConfig, logg *logger.Logger, opts ...Option) *Client {
	timeout := cfg.ProviderTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		httpClient:     &http.Client{Timeout: timeout},
		apiKey:         strings.TrimSpace(cfg.APIKey),
		timeout:        timeout,
		primaryBaseURL: defaultPrimaryBaseURL,
		fallbacks:      defaultFallbacks(),
		logg:           logg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client
}

func defaultFallbacks() []fallbackProvider {
	return []fallbackProvider{
		{
			name:    "exchangerate.host",
			baseURL: "https://api.exchangerate.host",
			request: func(baseURL, base string) string {
				return fmt.Sprintf("%s/latest?base=%s", strings.TrimRight(baseURL, "/"), url.QueryEscape(base))
			},
			rates: func(p payload) map[string]float64 { return p.Rates },
			base:  func(p payload) string { return p.Base },
		},
		{
			name:    "open.er-api",
			baseURL: "https://open.er-api.com",
			request: func(baseURL, base string) string {
				return fmt.Sprintf("%s/v6/latest/%s", strings.TrimRight(baseURL, "/"), url.PathEscape(base))
			},
			rates: firstRates,
			base: func(p payload) string {
				if p.BaseCode != "" {
					return p.BaseCode
				}
				return p.Base
			},
		},
		{
			name:    "exchangerate-api-v4",
			baseURL: "https://api.exchangerate-api.com",
			request: func(baseURL, base string) string {
				return fmt.Sprintf("%s/v4/latest/%s", strings.TrimRight(baseURL, "/"), url.PathEscape(base))
			},
			rates: firstRates,
			base: func(p payload) string {
				if p.Base != "" {
					return p.Base
				}
				return p.BaseCode
			},
		},
	}
}

func firstRates(p payload) map[string]float64 {
	if len(p.Rates) > 0 {
		return p.Rates
	}
	return p.ConversionRates
}

// GetLatest walks the provider chain and returns the first usable rates
// mapping. It never fabricates rates: exhausting the chain is an upstream
// error, not an empty result.
func (c *Client) GetLatest(ctx context.Context, base string) (*Result, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		base = DefaultBase
	}

	if c.apiKey != "" {
		result, err := c.tryPrimary(ctx, base)
		if err == nil {
			return result, nil
		}
		c.warn(ctx, "exchangerate-api", err)
	}

	for _, provider := range c.fallbacks {
		result, err := c.tryFallback(ctx, provider, base)
		if err == nil {
			return result, nil
		}
		c.warn(ctx, provider.name, err)
	}

	return nil, pkgerrors.New(pkgerrors.CodeUpstream, "Invalid response from upstream provider")
}

func (c *Client) tryPrimary(ctx context.Context, base string) (*Result, error) {
	reqURL := fmt.Sprintf("%s/%s/latest/%s",
		strings.TrimRight(c.primaryBaseURL, "/"), url.PathEscape(c.apiKey), url.PathEscape(base))

	parsed, err := c.fetch(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	if len(parsed.ConversionRates) == 0 {
		return nil, fmt.Errorf("response has no conversion_rates")
	}

	resolvedBase := parsed.BaseCode
	if resolvedBase == "" {
		resolvedBase = base
	}

	return &Result{
		Rates:    parsed.ConversionRates,
		TS:       time.Now().UnixMilli(),
		Base:     resolvedBase,
		Provider: "exchangerate-api",
	}, nil
}

func (c *Client) tryFallback(ctx context.Context, provider fallbackProvider, base string) (*Result, error) {
	parsed, err := c.fetch(ctx, provider.request(provider.baseURL, base))
	if err != nil {
		return nil, err
	}

	ratesMap := provider.rates(parsed)
	if len(ratesMap) == 0 {
		return nil, fmt.Errorf("response has no rates")
	}

	resolvedBase := provider.base(parsed)
	if resolvedBase == "" {
		resolvedBase = base
	}

	return &Result{
		Rates:    ratesMap,
		TS:       time.Now().UnixMilli(),
		Base:     resolvedBase,
		Provider: provider.name,
	}, nil
}

// fetch performs one time-bounded GET so a slow provider cannot stall the
// whole chain.
func (c *Client) fetch(ctx context.Context, reqURL string) (payload, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return payload{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return payload{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return payload{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	var parsed payload
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return payload{}, fmt.Errorf("decode response: %w", err)
	}
	return parsed, nil
}

func (c *Client) warn(ctx context.Context, provider string, err error) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithFields(ctx, map[string]any{
		"provider": provider,
		"error":    err.Error(),
	})
	c.logg.Warn(ctx, "rates.provider.unusable")
}
