package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/client"
)

// ============================================================
// Health Check Handlers
// ============================================================

// Live reports that the process is up.
func Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// Started reports that startup finished.
func Started(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "started",
	})
}

// Readiness checks the liveness endpoint of every upstream service.
type Readiness struct {
	upstreams map[string]string // name -> base URL
	http      *client.Client
	timeout   time.Duration
}

func NewReadiness(upstreams map[string]string) *Readiness {
	return &Readiness{
		upstreams: upstreams,
		http:      client.New(),
		timeout:   2 * time.Second,
	}
}

// Check answers 200 when every upstream is live and 503 otherwise.
func (r *Readiness) Check(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), r.timeout)
	defer cancel()

	names := make([]string, 0, len(r.upstreams))
	for name := range r.upstreams {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := fiber.Map{}
	ready := true
	for _, name := range names {
		if err := r.check(ctx, r.upstreams[name]); err != nil {
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": checks})
	}
	return c.JSON(fiber.Map{"status": "ready", "checks": checks})
}

func (r *Readiness) check(ctx context.Context, baseURL string) error {
	resp, err := r.http.R().SetContext(ctx).Get(baseURL + "/health/live")
	if err != nil {
		return err
	}
	defer resp.Close()
	if resp.StatusCode() != http.StatusOK {
		return fiber.NewError(resp.StatusCode(), http.StatusText(resp.StatusCode()))
	}
	return nil
}
