// Package identity is the editor's client for the auth service. It keeps the
// current session, pushes session changes to subscribers and resolves bearer
// tokens for request middleware.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"scene-editor/internal/auth/models"

	"github.com/gofiber/fiber/v3/client"
)

var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer from the auth service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth service: %d %s", e.Status, e.Message)
}

// ============================================================
// Client
// ============================================================

type Client struct {
	http *client.Client

	mu        sync.Mutex
	session   *models.Session
	listeners map[int]func(*models.Session)
	nextID    int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// New returns a signed-out client for the auth service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:      client.New().SetBaseURL(baseURL),
		listeners: make(map[int]func(*models.Session)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a client that shares the transport of c and starts out
// holding token. The user is filled in by the first GetSession.
func (c *Client) WithToken(token string) *Client {
	bound := &Client{
		http:      c.http,
		listeners: make(map[int]func(*models.Session)),
	}
	if token != "" {
		bound.session = &models.Session{Token: token}
	}
	return bound
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpResponse struct {
	User    models.User `json:"user"`
	Message string      `json:"message"`
}

// SignUp creates an account and returns the service's confirmation
// message. The client stays signed out.
func (c *Client) SignUp(ctx context.Context, email, password string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetJSON(credentials{Email: email, Password: password}).
		Post("/signup")
	if err != nil {
		return "", fmt.Errorf("sign up: %w", err)
	}
	defer resp.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}
	var out signUpResponse
	if err := resp.JSON(&out); err != nil {
		return "", fmt.Errorf("decode sign up: %w", err)
	}
	return out.Message, nil
}

// SignIn exchanges credentials for a session and announces it.
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetJSON(credentials{Email: email, Password: password}).
		Post("/signin")
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	defer resp.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var sess models.Session
	if err := resp.JSON(&sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	c.setSession(&sess)
	return &sess, nil
}

// SignOut revokes the held token. The local session is dropped even when
// the service cannot be reached.
func (c *Client) SignOut(ctx context.Context) error {
	token := c.token()
	if token == "" {
		return nil
	}
	c.setSession(nil)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		Post("/signout")
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	defer resp.Close()
	return checkStatus(resp)
}

// GetSession refreshes and returns the held session. It returns nil, nil
// when signed out or when the service no longer accepts the token.
func (c *Client) GetSession(ctx context.Context) (*models.Session, error) {
	token := c.token()
	if token == "" {
		return nil, nil
	}
	sess, err := c.fetch(ctx, "/session", token)
	if errors.Is(err, ErrUnauthorized) {
		c.setSession(nil)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	changed := c.session == nil || c.session.User.ID != sess.User.ID
	c.mu.Unlock()
	if changed {
		c.setSession(sess)
	}
	return sess, nil
}

// Current returns the held session without contacting the service.
func (c *Client) Current() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// Resolve looks up any token through the internal endpoint. It does not
// touch the held session.
func (c *Client) Resolve(ctx context.Context, token string) (*models.Session, error) {
	return c.fetch(ctx, "/internal/sessions/"+url.PathEscape(token), "")
}

// OnChange registers fn to run after every sign-in, sign-out or detected
// session loss. The returned func unregisters it.
func (c *Client) OnChange(fn func(*models.Session)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// ============================================================
// Helpers
// ============================================================

func (c *Client) fetch(ctx context.Context, path, bearer string) (*models.Session, error) {
	req := c.http.R().SetContext(ctx)
	if bearer != "" {
		req.SetHeader("Authorization", "Bearer "+bearer)
	}
	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	defer resp.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var sess models.Session
	if err := resp.JSON(&sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

func (c *Client) setSession(s *models.Session) {
	c.mu.Lock()
	c.session = s
	fns := make([]func(*models.Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func checkStatus(resp *client.Response) error {
	code := resp.StatusCode()
	if code >= 200 && code < 300 {
		return nil
	}
	if code == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	var body errorBody
	if err := resp.JSON(&body); err != nil || body.Error == "" {
		body.Error = http.StatusText(code)
	}
	return &APIError{Status: code, Message: body.Error}
}
