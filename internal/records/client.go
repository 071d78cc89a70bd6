package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// DefaultURL is the production getAllDogs endpoint
const DefaultURL = "https://dog-stray-backend-x7ik.onrender.com/api/getAllDogs"

// maxPayloadBytes caps the upstream body; the full dataset is a few MB
const maxPayloadBytes = 64 << 20

// OAuthConfig enables client-credentials auth against the record service
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// ClientConfig configures the record service client
type ClientConfig struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
	OAuth     *OAuthConfig
}

// Fetcher returns the full record list in one call
type Fetcher interface {
	FetchAll(ctx context.Context) ([]AnimalRecord, error)
}

// Client fetches the animal record list from the remote service
type Client struct {
	url        string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a record service client
func NewClient(cfg ClientConfig) *Client {
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.OAuth != nil && cfg.OAuth.ClientID != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			TokenURL:     cfg.OAuth.TokenURL,
			Scopes:       cfg.OAuth.Scopes,
		}
		httpClient = cc.Client(context.Background())
		httpClient.Timeout = timeout
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = "abc-dashboard/1.0"
	}

	return &Client{
		url:        url,
		userAgent:  ua,
		httpClient: httpClient,
	}
}

// FetchAll downloads every record. Failures are NetworkError or
// ServiceError and are never retried here.
func (c *Client) FetchAll(ctx context.Context) ([]AnimalRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, &NetworkError{URL: c.url, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServiceError{
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(body, resp.Status),
		}
	}

	var envelope DogsResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: "malformed payload", Err: err}
	}
	if envelope.Dogs == nil {
		return nil, &ServiceError{
			StatusCode: resp.StatusCode,
			Message:    "malformed payload: missing dogs list",
			Err:        errors.New("dogs field absent"),
		}
	}

	return *envelope.Dogs, nil
}

// upstreamMessage extracts the message field of an error body when present
func upstreamMessage(body []byte, fallback string) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" || len(text) > 200 {
		return fallback
	}
	return text
}
