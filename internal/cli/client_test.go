package cli

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"abc-dashboard/internal/handlers"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://example.com"
	client := NewClient(baseURL, "tok")

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL to be '%s', got '%s'", baseURL, client.baseURL)
	}

	if client.token != "tok" {
		t.Errorf("Expected token 'tok', got '%s'", client.token)
	}

	if client.httpClient.Timeout != 30*time.Second {
		t.Errorf("Expected timeout to be 30s, got %v", client.httpClient.Timeout)
	}
}

func TestNewClient_RemovesTrailingSlash(t *testing.T) {
	client := NewClient("http://example.com/", "")

	expected := "http://example.com"
	if client.baseURL != expected {
		t.Errorf("Expected baseURL to be '%s', got '%s'", expected, client.baseURL)
	}
}

func TestNewClientWithTimeout(t *testing.T) {
	timeout := 2 * time.Minute
	client := NewClientWithTimeout("http://example.com", "", timeout)

	if client.httpClient.Timeout != timeout {
		t.Errorf("Expected timeout to be %v, got %v", timeout, client.httpClient.Timeout)
	}
}

func TestHealthCheck_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		if r.URL.Path != "/api/health" {
			t.Errorf("Expected path '/api/health', got '%s'", r.URL.Path)
		}
		w.Write([]byte(`{"status":"healthy","database":"ok","records":"ok"}`))
	}))
	defer server.Close()

	health, err := NewClient(server.URL, "").HealthCheck()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", health.Status)
	}
}

func TestHealthCheck_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"Database unavailable"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "").HealthCheck()

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T", err)
	}
	if apiErr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected code 503, got %d", apiErr.Code)
	}
	if apiErr.Message != "Database unavailable" {
		t.Errorf("Expected message 'Database unavailable', got '%s'", apiErr.Message)
	}
}

func TestAPIError_FallsBackToStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "").GetDashboard()

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T", err)
	}
	if apiErr.Message != "502 Bad Gateway" {
		t.Errorf("Expected status text fallback, got '%s'", apiErr.Message)
	}
}

func TestAPIError_Unauthorized(t *testing.T) {
	err := &APIError{Code: 401, Message: "Unauthorized"}
	if !strings.Contains(err.Error(), "login") {
		t.Errorf("Expected login hint, got '%s'", err.Error())
	}

	err = &APIError{Code: 400, Message: "bad page"}
	if err.Error() != "API error 400: bad page" {
		t.Errorf("Unexpected error text '%s'", err.Error())
	}
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/auth/login" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type, got '%s'", r.Header.Get("Content-Type"))
		}

		var req handlers.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Username != "admin" || req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid username or password"}`))
			return
		}
		w.Write([]byte(`{"token":"abc123","username":"admin","expires_at":"2025-01-01T00:00:00Z"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	s, err := client.Login("admin", "secret")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if s.Token != "abc123" {
		t.Errorf("Expected token 'abc123', got '%s'", s.Token)
	}
	if client.token != "abc123" {
		t.Error("Expected client to keep the session token")
	}

	_, err = NewClient(server.URL, "").Login("admin", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 APIError, got %v", err)
	}
}

func TestLogin_Throttled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"too many login attempts"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "").Login("admin", "secret")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T", err)
	}
	if apiErr.RetryAfter != "60" {
		t.Errorf("Expected Retry-After '60', got '%s'", apiErr.RetryAfter)
	}
}

func TestBearerToken(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, "tok").GetDistricts(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if auth != "Bearer tok" {
		t.Errorf("Expected 'Bearer tok', got '%s'", auth)
	}

	if _, err := NewClient(server.URL, "").GetDistricts(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if auth != "" {
		t.Errorf("Expected no Authorization header, got '%s'", auth)
	}
}

func TestLogout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/auth/logout" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"message":"logged out"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok")
	if err := client.Logout(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if client.token != "" {
		t.Error("Expected token to be cleared")
	}
}

func TestGetDashboard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/dashboard" {
			t.Errorf("Expected path '/api/dashboard', got '%s'", r.URL.Path)
		}
		w.Write([]byte(`{"version":3,"metrics":{"total_ulbs":2,"total_stray_dogs":10,"sterilized_dogs":4,"pending_dogs":6,"released_dogs":1,"overall_progress":40},"gender":{"male":7,"female":3,"other":0},"top_districts":[{"name":"Guntur District","total":10}]}`))
	}))
	defer server.Close()

	d, err := NewClient(server.URL, "tok").GetDashboard()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if d.Version != 3 || d.Metrics.TotalStrayDogs != 10 || d.Metrics.SterilizedDogs != 4 {
		t.Errorf("Unexpected dashboard %+v", d)
	}
	if len(d.TopDistricts) != 1 || d.TopDistricts[0].Name != "Guntur District" {
		t.Errorf("Unexpected top districts %+v", d.TopDistricts)
	}
}

func TestGetDistrictULBs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/api/districts/Guntur%20District/ulbs" {
			t.Errorf("Unexpected path '%s'", r.URL.EscapedPath())
		}
		w.Write([]byte(`{"district":"Guntur District","ulbs":["Tenali","Guntur"]}`))
	}))
	defer server.Close()

	ulbs, err := NewClient(server.URL, "tok").GetDistrictULBs("Guntur District")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(ulbs) != 2 || ulbs[0] != "Tenali" {
		t.Errorf("Unexpected ULBs %v", ulbs)
	}
}

func TestDogQueryValues(t *testing.T) {
	tests := []struct {
		name     string
		query    DogQuery
		expected string
	}{
		{"empty", DogQuery{}, ""},
		{"page only", DogQuery{Page: 2}, "page=2"},
		{
			"full",
			DogQuery{District: "Guntur District", ULB: "Tenali", From: "2025-01-01", To: "2025-01-31", DateField: "surgery", Page: 1, PageSize: 25},
			"date_field=surgery&district=Guntur+District&from=2025-01-01&page=1&page_size=25&to=2025-01-31&ulb=Tenali",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.Values().Encode(); got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestGetDogs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ulb") != "Tenali" || r.URL.Query().Get("page_size") != "5" {
			t.Errorf("Unexpected query '%s'", r.URL.RawQuery)
		}
		w.Write([]byte(`{"items":[{"id":101,"district":"Guntur District","ulb":"Tenali","date_of_caught":"2025-01-05","map_url":"https://maps.mapmyindia.com/@16.24,80.64,17z"}],"page":1,"page_size":5,"total_items":1,"total_pages":1}`))
	}))
	defer server.Close()

	page, err := NewClient(server.URL, "tok").GetDogs(DogQuery{District: "Guntur District", ULB: "Tenali", PageSize: 5})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != 101 {
		t.Fatalf("Unexpected items %+v", page.Items)
	}
	if page.Items[0].DateOfCatch.Format("2006-01-02") != "2025-01-05" {
		t.Errorf("Expected catch date 2025-01-05, got %v", page.Items[0].DateOfCatch)
	}
	if page.Items[0].MapURL == "" {
		t.Error("Expected map URL")
	}
}

func TestGetStatistics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("from") != "2025-01-01" || r.URL.Query().Get("to") != "2025-01-31" {
			t.Errorf("Unexpected query '%s'", r.URL.RawQuery)
		}
		w.Write([]byte(`{"regions":[],"totals":{"target":350,"completed":21,"balance":329,"progress":6}}`))
	}))
	defer server.Close()

	report, err := NewClient(server.URL, "tok").GetStatistics("2025-01-01", "2025-01-31")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.Totals.Target != 350 || report.Totals.Balance != 329 {
		t.Errorf("Unexpected totals %+v", report.Totals)
	}
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name  string
		force bool
	}{
		{"normal", false},
		{"forced", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != "POST" || r.URL.Path != "/api/snapshot/refresh" {
					t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
				}
				if got := r.URL.Query().Get("force") == "true"; got != tt.force {
					t.Errorf("Expected force=%v, got query '%s'", tt.force, r.URL.RawQuery)
				}
				w.Write([]byte(`{"version":2,"records":15,"reason":"forced_refresh"}`))
			}))
			defer server.Close()

			r, err := NewClient(server.URL, "tok").Refresh(tt.force)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if r.Version != 2 || r.Records != 15 {
				t.Errorf("Unexpected response %+v", r)
			}
		})
	}
}

func TestRefresh_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "50")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"refreshed too recently"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "tok").Refresh(false)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusTooManyRequests || apiErr.RetryAfter != "50" {
		t.Errorf("Expected 429 with Retry-After, got %v", err)
	}
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/export/dogs.pdf":
			if r.URL.Query().Get("images") != "true" {
				t.Errorf("Expected images=true, got '%s'", r.URL.RawQuery)
			}
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Disposition", `attachment; filename="Stray_Dogs_Report_Full_Dataset.pdf"`)
			w.Header().Set("X-Omitted-Images", "3")
			w.Write([]byte("%PDF-1.4"))
		default:
			w.Write([]byte("plain"))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok")

	t.Run("WithDisposition", func(t *testing.T) {
		d, err := client.Download("/api/export/dogs.pdf", map[string][]string{"images": {"true"}})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if d.Filename != "Stray_Dogs_Report_Full_Dataset.pdf" {
			t.Errorf("Unexpected filename '%s'", d.Filename)
		}
		if string(d.Data) != "%PDF-1.4" {
			t.Errorf("Unexpected data '%s'", d.Data)
		}
		if d.OmittedImages != 3 {
			t.Errorf("Expected 3 omitted images, got %d", d.OmittedImages)
		}
	})

	t.Run("FallsBackToPath", func(t *testing.T) {
		d, err := client.Download("/api/export/ulbs.xlsx", nil)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if d.Filename != "ulbs.xlsx" {
			t.Errorf("Expected 'ulbs.xlsx', got '%s'", d.Filename)
		}
	})
}

func TestNetworkError(t *testing.T) {
	client := NewClientWithTimeout("http://127.0.0.1:1", "", time.Second)

	_, err := client.GetDashboard()
	if err == nil {
		t.Fatal("Expected error for unreachable server")
	}
	if !strings.Contains(err.Error(), "request failed") {
		t.Errorf("Expected 'request failed' error, got '%v'", err)
	}
}
