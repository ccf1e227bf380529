package workspace

import (
	"context"
	"sync"
	"time"

	authmodels "scene-editor/internal/auth/models"
	"scene-editor/internal/scene/bridge"
	"scene-editor/internal/scene/editor"
	"scene-editor/internal/scene/history"

	"github.com/sirupsen/logrus"
)

// SessionFactory binds a session source to a bearer token.
type SessionFactory func(token string) bridge.SessionSource

// changeNotifier is implemented by session sources that report sign-out.
type changeNotifier interface {
	OnChange(fn func(*authmodels.Session)) func()
}

// ============================================================
// Registry
// ============================================================

// Registry keeps one workspace per session token.
type Registry struct {
	mu    sync.Mutex
	items map[string]*entry

	store        bridge.DocumentStore
	sessions     SessionFactory
	historyLimit int
	idle         time.Duration
	now          func() time.Time
	log          logrus.FieldLogger
}

type entry struct {
	ws   *Workspace
	stop func()
}

type RegistryOption func(*Registry)

func WithHistoryLimit(n int) RegistryOption {
	return func(r *Registry) { r.historyLimit = n }
}

// WithIdleTimeout drops workspaces unused for d. Zero keeps them forever.
func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.idle = d }
}

func WithLogger(l logrus.FieldLogger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

func NewRegistry(store bridge.DocumentStore, sessions SessionFactory, opts ...RegistryOption) *Registry {
	r := &Registry{
		items:        make(map[string]*entry),
		store:        store,
		sessions:     sessions,
		historyLimit: history.DefaultLimit,
		now:          time.Now,
		log:          logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the workspace for token, creating it on first use.
func (r *Registry) Get(token string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.items[token]; ok {
		return e.ws
	}

	src := r.sessions(token)
	ws := New(r.store, src, r.log.WithField("workspace", shortToken(token)),
		editor.WithHistoryLimit(r.historyLimit))
	ws.now = r.now
	ws.touch()

	e := &entry{ws: ws, stop: func() {}}
	if cn, ok := src.(changeNotifier); ok {
		e.stop = cn.OnChange(func(s *authmodels.Session) {
			if s == nil {
				r.Drop(token)
			}
		})
	}
	r.items[token] = e
	r.log.WithField("workspace", shortToken(token)).Debug("workspace opened")
	return ws
}

// Drop discards the workspace for token and ends its watch streams.
func (r *Registry) Drop(token string) bool {
	r.mu.Lock()
	e, ok := r.items[token]
	delete(r.items, token)
	r.mu.Unlock()

	if !ok {
		return false
	}
	e.stop()
	e.ws.close()
	r.log.WithField("workspace", shortToken(token)).Debug("workspace closed")
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep drops workspaces idle longer than the idle timeout and returns how
// many were dropped.
func (r *Registry) Sweep() int {
	if r.idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	var stale []string
	for token, e := range r.items {
		if e.ws.idleSince().Before(cutoff) {
			stale = append(stale, token)
		}
	}
	r.mu.Unlock()

	n := 0
	for _, token := range stale {
		if r.Drop(token) {
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.log.WithField("dropped", n).Info("idle workspaces swept")
			}
		}
	}
}

func shortToken(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}
