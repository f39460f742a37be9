package proxy

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Hop-by-hop headers are never copied between client and upstream.
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
	"Content-Length":      true,
}

// ============================================================
// Proxy Handler
// ============================================================

// Upstream forwards requests to one backend service.
type Upstream struct {
	Name    string
	BaseURL string
	client  *http.Client
}

func NewUpstream(name, baseURL string, timeout time.Duration) *Upstream {
	return &Upstream{
		Name:    name,
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Strip возвращает handler, который срезает prefix с пути и проксирует
// остаток вместе с query string.
func (u *Upstream) Strip(prefix string) fiber.Handler {
	return func(c fiber.Ctx) error {
		path := strings.TrimPrefix(string(c.Request().URI().Path()), prefix)
		if path == "" {
			path = "/"
		}
		target := u.BaseURL + path
		if qs := c.Request().URI().QueryString(); len(qs) > 0 {
			target += "?" + string(qs)
		}
		return u.Forward(c, target)
	}
}

// Forward проксирует запрос по переданному URL. Тело передаётся как есть,
// multipart сохраняет исходный boundary.
func (u *Upstream) Forward(c fiber.Ctx, targetURL string) error {
	log.Printf("[PROXY] %s %s -> %s (%d bytes)", c.Method(), c.Path(), targetURL, len(c.Body()))

	req, err := http.NewRequest(c.Method(), targetURL, bytes.NewReader(c.Body()))
	if err != nil {
		log.Printf("[PROXY] build request error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}

	for _, name := range []string{"Content-Type", "Authorization", "Accept"} {
		if v := c.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}
	req.Header.Set("X-Forwarded-For", c.IP())

	resp, err := u.client.Do(req)
	if err != nil {
		log.Printf("[PROXY] %s unreachable: %v", u.Name, err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach " + u.Name + " service"})
	}
	defer resp.Body.Close()

	return copyResponse(c, resp)
}

// Ping checks the upstream's liveness probe.
func (u *Upstream) Ping() error {
	resp, err := u.client.Get(u.BaseURL + "/health/live")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fiber.NewError(resp.StatusCode, u.Name+" is not live")
	}
	return nil
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[PROXY] Read response error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if hopHeaders[key] {
			continue
		}
		for i, v := range values {
			if i == 0 {
				c.Set(key, v)
			} else {
				c.Append(key, v)
			}
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
