package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"invite-studio/internal/common/middleware"
	"invite-studio/internal/gateway/proxy"

	"github.com/gofiber/fiber/v3"
)

type seen struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Query  string `json:"query"`
	Auth   string `json:"auth"`
	Body   string `json:"body"`
}

func echoServer(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream", name)
		w.WriteHeader(http.StatusTeapot)
		json.NewEncoder(w).Encode(seen{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(t *testing.T) *fiber.App {
	t.Helper()
	authSrv := echoServer(t, "auth")
	studioSrv := echoServer(t, "studio")

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	mountRoutes(app.Group(apiPrefix),
		proxy.NewUpstream("auth", authSrv.URL, 2*time.Second),
		proxy.NewUpstream("studio", studioSrv.URL, 2*time.Second),
	)
	return app
}

func TestRoutesReachUpstreams(t *testing.T) {
	app := newGateway(t)

	cases := []struct {
		method, path, upstream, wantPath, wantQuery string
	}{
		{http.MethodPost, "/api/v1/login", "auth", "/login", ""},
		{http.MethodGet, "/api/v1/me", "auth", "/me", ""},
		{http.MethodPost, "/api/v1/admin/users/ana@example.com/approve", "auth", "/admin/users/ana@example.com/approve", ""},
		{http.MethodDelete, "/api/v1/admin/users/ana@example.com", "auth", "/admin/users/ana@example.com", ""},
		{http.MethodGet, "/api/v1/projects", "studio", "/projects", ""},
		{http.MethodPatch, "/api/v1/projects/festa/pages/p1/hotspots/h1", "studio", "/projects/festa/pages/p1/hotspots/h1", ""},
		{http.MethodGet, "/api/v1/projects/festa/pages/p1/preview.png?width=270", "studio", "/projects/festa/pages/p1/preview.png", "width=270"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{"x":1}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer tok")

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s %s: %v", tc.method, tc.path, err)
		}
		if resp.StatusCode != http.StatusTeapot {
			t.Fatalf("%s %s: status %d", tc.method, tc.path, resp.StatusCode)
		}
		if got := resp.Header.Get("X-Upstream"); got != tc.upstream {
			t.Errorf("%s %s: upstream %q, want %q", tc.method, tc.path, got, tc.upstream)
		}

		var s seen
		if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
			t.Fatal(err)
		}
		if s.Method != tc.method || s.Path != tc.wantPath || s.Query != tc.wantQuery {
			t.Errorf("%s %s: upstream saw %+v", tc.method, tc.path, s)
		}
		if s.Auth != "Bearer tok" || s.Body != `{"x":1}` {
			t.Errorf("%s %s: headers/body not forwarded: %+v", tc.method, tc.path, s)
		}
	}
}

func TestInternalRoutesNotExposed(t *testing.T) {
	app := newGateway(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/internal/sessions/tok", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("internal route reachable: %d", resp.StatusCode)
	}
}

func TestUnreachableUpstream(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	dead := proxy.NewUpstream("studio", "http://127.0.0.1:1", time.Second)
	mountRoutes(app.Group(apiPrefix), dead, dead)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status %d", resp.StatusCode)
	}
}
