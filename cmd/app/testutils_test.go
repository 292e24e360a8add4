package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/inkpost/internal/blogservice"
	"github.com/sushihentaime/inkpost/internal/common"
	"github.com/sushihentaime/inkpost/internal/userservice"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func newTestConfig() *Config {
	return &Config{
		Port:        "4000",
		Environment: "testing",
		Version:     "1.0.0",
		DBDriver:    driverMemory,
		JWT:         jwtConfig{Secret: "test-secret", Issuer: "inkpost-test", TTL: time.Hour},
	}
}

// newTestApplication wires the in-memory stores.
func newTestApplication(t *testing.T, cfg *Config) *application {
	t.Helper()

	if cfg == nil {
		cfg = newTestConfig()
	}

	tokens, err := userservice.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	require.NoError(t, err)

	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	userService := userservice.NewUserService(userservice.NewMemoryStore(), tokens, userservice.NewCacheDenylist(cache), cache, nil, logger)

	return &application{
		config:      cfg,
		logger:      logger,
		userService: userService,
		blogService: blogservice.NewBlogService(blogservice.NewMemoryStore(), userService),
	}
}

// readResponse decodes the JSON body. An empty body yields a nil envelope.
func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	t.Helper()
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	if len(responseBody) == 0 {
		return res.StatusCode, res.Header, nil
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, envelope
}

func (ts *testServer) do(t *testing.T, method, path, token string, payload any) (int, http.Header, envelope) {
	t.Helper()

	var body io.Reader
	switch p := payload.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(p)
	default:
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) get(t *testing.T, path, token string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodGet, path, token, nil)
}

func (ts *testServer) post(t *testing.T, path, token string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPost, path, token, payload)
}

func (ts *testServer) patch(t *testing.T, path, token string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPatch, path, token, payload)
}

func (ts *testServer) delete(t *testing.T, path, token string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodDelete, path, token, nil)
}

// registerAndLogin creates a user and returns its access token.
func (ts *testServer) registerAndLogin(t *testing.T, firstName, lastName, email string) string {
	t.Helper()

	code, _, _ := ts.post(t, "/auth/register", "", map[string]string{
		"first_name": firstName,
		"last_name":  lastName,
		"email":      email,
		"password":   "password123",
	})
	require.Equal(t, http.StatusOK, code)

	code, _, body := ts.post(t, "/auth/login", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, code)

	return body["data"].(map[string]any)["accessToken"].(string)
}

func data(t *testing.T, body envelope) map[string]any {
	t.Helper()

	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", body)
	return d
}

func blogData(t *testing.T, body envelope) map[string]any {
	t.Helper()

	b, ok := data(t, body)["blog"].(map[string]any)
	require.True(t, ok, "response has no blog: %v", body)
	return b
}
