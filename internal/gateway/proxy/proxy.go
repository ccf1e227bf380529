package proxy

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"
	fiberproxy "github.com/gofiber/fiber/v3/middleware/proxy"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

// ============================================================
// Proxy Handler
// ============================================================

// Upstream forwards requests under a gateway prefix to a backend service.
type Upstream struct {
	name    string
	baseURL string
	prefix  string
	client  *fasthttp.Client
	log     logrus.FieldLogger
}

type Option func(*Upstream)

// WithStreaming makes the upstream pass response bodies through as they
// arrive instead of buffering them. Needed for event streams.
func WithStreaming() Option {
	return func(u *Upstream) {
		u.client = &fasthttp.Client{StreamResponseBody: true}
	}
}

// NewUpstream proxies requests whose path starts with prefix to baseURL with
// the prefix stripped.
func NewUpstream(name, baseURL, prefix string, log logrus.FieldLogger, opts ...Option) *Upstream {
	u := &Upstream{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		prefix:  prefix,
		log:     log.WithField("upstream", name),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Target returns the backend URL for a gateway path and raw query.
func (u *Upstream) Target(path, query string) string {
	target := u.baseURL + strings.TrimPrefix(path, u.prefix)
	if query != "" {
		target += "?" + query
	}
	return target
}

// Handler forwards the request to the upstream service.
func (u *Upstream) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		target := u.Target(c.Path(), string(c.Request().URI().QueryString()))
		u.log.WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
			"target": target,
		}).Debug("proxying request")

		var err error
		if u.client != nil {
			err = fiberproxy.Do(c, target, u.client)
		} else {
			err = fiberproxy.Do(c, target)
		}
		if err != nil {
			u.log.WithError(err).Warn("upstream unreachable")
			return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach upstream service"})
		}
		c.Response().Header.Del(fiber.HeaderServer)
		return nil
	}
}
