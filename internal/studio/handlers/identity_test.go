package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthClientResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/internal/sessions/known":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"u1","email":"a@example.com","role":"admin","status":"APPROVED"}`))
		case "/internal/sessions/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewAuthClient(srv.URL + "/")
	ctx := context.Background()

	id, ok, err := client.Resolve(ctx, "known")
	if err != nil || !ok || id.ID != "u1" || id.Role != "admin" {
		t.Fatalf("known: %+v %v %v", id, ok, err)
	}

	if _, ok, err := client.Resolve(ctx, "stranger"); ok || err != nil {
		t.Errorf("unknown: %v %v", ok, err)
	}
	if _, _, err := client.Resolve(ctx, "broken"); err == nil {
		t.Error("server error not reported")
	}
}
