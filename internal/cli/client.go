package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"abc-dashboard/internal/geo"
	"abc-dashboard/internal/handlers"
	"abc-dashboard/internal/stats"
)

// Client represents an HTTP client for the dashboard API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, token string) *Client {
	return NewClientWithTimeout(baseURL, token, 30*time.Second)
}

// NewClientWithTimeout creates a new API client with a custom timeout.
// Exports render on the server and need more than the default.
func NewClientWithTimeout(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError represents an error from the API
type APIError struct {
	Code       int    `json:"code"`
	Message    string `json:"error"`
	RetryAfter string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Code == http.StatusUnauthorized {
		return fmt.Sprintf("API error %d: %s (run 'abc-cli login' first)", e.Code, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// DogQuery selects a page of the dog table. Page is zero-based.
type DogQuery struct {
	District  string
	ULB       string
	From      string
	To        string
	DateField string
	Page      int
	PageSize  int
}

// Values encodes the query string; zero fields are left out
func (q DogQuery) Values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("district", q.District)
	set("ulb", q.ULB)
	set("from", q.From)
	set("to", q.To)
	set("date_field", q.DateField)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}

// MapPoints is the body of GET /api/map/ulbs
type MapPoints struct {
	Points   []geo.ULBPoint `json:"points"`
	Excluded int            `json:"excluded"`
}

// Download is a file produced by an export endpoint
type Download struct {
	Filename string
	Data     []byte
	// OmittedImages counts image fields the server could not inline
	OmittedImages int
}

// doRequest performs an HTTP request and handles errors
func (c *Client) doRequest(method, path string, query url.Values, body interface{}) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	// Handle API errors
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()

		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
		apiErr.Code = resp.StatusCode
		apiErr.RetryAfter = resp.Header.Get("Retry-After")
		return nil, &apiErr
	}

	return resp, nil
}

// getJSON decodes the body of a GET into out
func (c *Client) getJSON(path string, query url.Values, out interface{}) error {
	resp, err := c.doRequest("GET", path, query, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// HealthCheck checks if the API server is healthy
func (c *Client) HealthCheck() (*handlers.HealthResponse, error) {
	var health handlers.HealthResponse
	if err := c.getJSON("/api/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Login starts a session and returns its token
func (c *Client) Login(username, password string) (*handlers.SessionResponse, error) {
	resp, err := c.doRequest("POST", "/api/auth/login", nil, handlers.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var s handlers.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	c.token = s.Token
	return &s, nil
}

// Logout ends the client's session
func (c *Client) Logout() error {
	resp, err := c.doRequest("POST", "/api/auth/logout", nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.token = ""
	return nil
}

// GetDashboard returns the headline metrics
func (c *Client) GetDashboard() (*handlers.DashboardResponse, error) {
	var d handlers.DashboardResponse
	if err := c.getJSON("/api/dashboard", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDistricts returns the district roll-up
func (c *Client) GetDistricts() ([]stats.DistrictSummary, error) {
	var districts []stats.DistrictSummary
	if err := c.getJSON("/api/districts", nil, &districts); err != nil {
		return nil, err
	}
	return districts, nil
}

// GetDistrictULBs returns the ULB choices of a district
func (c *Client) GetDistrictULBs(district string) ([]string, error) {
	var resp handlers.DistrictULBsResponse
	if err := c.getJSON("/api/districts/"+url.PathEscape(district)+"/ulbs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.ULBs, nil
}

// GetDogs returns one page of the dog table
func (c *Client) GetDogs(q DogQuery) (*handlers.DogsResponse, error) {
	var page handlers.DogsResponse
	if err := c.getJSON("/api/dogs", q.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetULBs returns the ULB summary table, optionally for one district
func (c *Client) GetULBs(district string) ([]stats.ULBSummary, error) {
	query := url.Values{}
	if district != "" {
		query.Set("district", district)
	}
	var rows []stats.ULBSummary
	if err := c.getJSON("/api/ulbs", query, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetMapPoints returns the ULB markers
func (c *Client) GetMapPoints() (*MapPoints, error) {
	var points MapPoints
	if err := c.getJSON("/api/map/ulbs", nil, &points); err != nil {
		return nil, err
	}
	return &points, nil
}

// GetStatistics returns the target report. from and to may be empty.
func (c *Client) GetStatistics(from, to string) (*stats.TargetReport, error) {
	query := url.Values{}
	if from != "" {
		query.Set("from", from)
	}
	if to != "" {
		query.Set("to", to)
	}
	var report stats.TargetReport
	if err := c.getJSON("/api/statistics", query, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Refresh asks the server to refetch the records now
func (c *Client) Refresh(force bool) (*handlers.RefreshResponse, error) {
	query := url.Values{}
	if force {
		query.Set("force", "true")
	}
	resp, err := c.doRequest("POST", "/api/snapshot/refresh", query, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var r handlers.RefreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &r, nil
}

// Download fetches a file from an export or print endpoint
func (c *Client) Download(path string, query url.Values) (*Download, error) {
	resp, err := c.doRequest("GET", path, query, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read download: %w", err)
	}

	d := &Download{Data: data}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		d.Filename = params["filename"]
	}
	if d.Filename == "" {
		d.Filename = path[strings.LastIndex(path, "/")+1:]
	}
	if n, err := strconv.Atoi(resp.Header.Get("X-Omitted-Images")); err == nil {
		d.OmittedImages = n
	}
	return d, nil
}
