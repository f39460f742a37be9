package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Identity
// ============================================================

// Identity is the caller as reported by the auth service.
type Identity struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// SessionResolver maps a bearer token to a user. ok is false for unknown
// tokens; err is reserved for transport failures.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (id Identity, ok bool, err error)
}

// AuthClient asks the auth service about tokens over HTTP.
type AuthClient struct {
	baseURL string
	client  *http.Client
}

func NewAuthClient(baseURL string) *AuthClient {
	return &AuthClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (a *AuthClient) Resolve(ctx context.Context, token string) (Identity, bool, error) {
	if a.baseURL == "" {
		return Identity{}, false, fmt.Errorf("auth url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/internal/sessions/"+url.PathEscape(token), nil)
	if err != nil {
		return Identity{}, false, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return Identity{}, false, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Identity{}, false, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnauthorized:
		return Identity{}, false, nil
	case resp.StatusCode >= 300:
		return Identity{}, false, fmt.Errorf("auth status %d", resp.StatusCode)
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, false, fmt.Errorf("decode session: %w", err)
	}
	return id, true, nil
}

const identityKey = "identity"

// RequireUser rejects requests without a valid bearer token of an approved
// user and stores the Identity in the request locals.
func RequireUser(sessions SessionResolver) fiber.Handler {
	return func(c fiber.Ctx) error {
		auth := c.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		id, ok, err := sessions.Resolve(ctx, token)
		if err != nil {
			log.Printf("[STUDIO] Session lookup failed: %v", err)
			return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "auth service unavailable"})
		}
		if !ok {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		if id.Status != "APPROVED" {
			return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "account not approved"})
		}

		c.Locals(identityKey, id)
		return c.Next()
	}
}

func identity(c fiber.Ctx) Identity {
	id, _ := c.Locals(identityKey).(Identity)
	return id
}
