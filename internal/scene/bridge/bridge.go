// Package bridge connects an editor to the remote scene document store and
// to file export/import.
//
// Remote failures are reported through the Notifier and returned, and never
// leave the editor partially modified. The saving/loading flags are released
// on every exit path.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	authmodels "scene-editor/internal/auth/models"
	"scene-editor/internal/scene/editor"
	"scene-editor/internal/scene/fileio"
	"scene-editor/internal/scene/models"

	"github.com/sirupsen/logrus"
)

var (
	ErrNotSignedIn = errors.New("not signed in")
	ErrBusy        = errors.New("another scene operation is in progress")
	ErrNotFound    = models.ErrSceneNotFound
	ErrInvalidName = errors.New("scene name required")
)

// ============================================================
// Collaborators
// ============================================================

// DocumentStore persists saved scenes.
type DocumentStore interface {
	Insert(ctx context.Context, s models.SavedScene) (*models.SavedScene, error)
	Update(ctx context.Context, id, name string, objects []models.Object) error
	GetByID(ctx context.Context, id string) (*models.SavedScene, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.SceneSummary, error)
	DeleteByID(ctx context.Context, id string) error
}

// SessionSource reports the signed-in identity. A nil session with a nil
// error means nobody is signed in.
type SessionSource interface {
	GetSession(ctx context.Context) (*authmodels.Session, error)
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type discardNotifier struct{}

func (discardNotifier) Success(string) {}
func (discardNotifier) Error(string)   {}

// ============================================================
// Bridge
// ============================================================

type Bridge struct {
	mu       sync.Locker
	editor   *editor.Editor
	store    DocumentStore
	sessions SessionSource
	notify   Notifier
	log      logrus.FieldLogger

	saving  int
	loading bool
}

type Option func(*Bridge)

// WithLocker makes the bridge take lk around every editor access. Hosts
// pass the same lock they hold for their own editor calls.
func WithLocker(lk sync.Locker) Option {
	return func(b *Bridge) { b.mu = lk }
}

func WithNotifier(n Notifier) Option {
	return func(b *Bridge) { b.notify = n }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Bridge) { b.log = l }
}

func New(ed *editor.Editor, store DocumentStore, sessions SessionSource, opts ...Option) *Bridge {
	b := &Bridge{
		mu:       &sync.Mutex{},
		editor:   ed,
		store:    store,
		sessions: sessions,
		notify:   discardNotifier{},
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.WithField("component", "bridge")
	return b
}

// Status is the busy state consulted by the UI.
type Status struct {
	Saving  bool `json:"is_saving"`
	Loading bool `json:"is_loading"`
}

func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status()
}

func (b *Bridge) status() Status {
	return Status{Saving: b.saving > 0, Loading: b.loading}
}

// ============================================================
// Remote Store
// ============================================================

// Save writes the scene to the store: the associated record is updated, an
// unsaved scene is inserted and associated with the new record. Saves may
// overlap; the last one to reach the store wins.
func (b *Bridge) Save(ctx context.Context) error {
	b.mu.Lock()
	sceneID := b.editor.SceneID()
	name := b.editor.SceneName()
	objects := b.editor.Objects()
	b.saving++
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.saving--
		b.mu.Unlock()
	}()

	session, err := b.session(ctx)
	if err != nil {
		return b.fail("You must be logged in to save", "save scene", err)
	}

	if sceneID != "" {
		if err := b.store.Update(ctx, sceneID, name, objects); err != nil {
			return b.fail("Failed to save scene", "save scene", err)
		}
		b.log.WithField("scene_id", sceneID).Info("scene saved")
		b.notify.Success("Scene saved")
		return nil
	}

	saved, err := b.store.Insert(ctx, models.SavedScene{
		OwnerID: session.User.ID,
		Name:    name,
		Objects: objects,
	})
	if err != nil {
		return b.fail("Failed to save scene", "save scene", err)
	}

	b.mu.Lock()
	if b.editor.SceneID() == "" {
		b.editor.Associate(saved.ID)
	}
	b.mu.Unlock()

	b.log.WithField("scene_id", saved.ID).Info("scene created")
	b.notify.Success("Scene created and saved")
	return nil
}

// Load replaces the editor contents with a stored scene owned by the
// signed-in user.
func (b *Bridge) Load(ctx context.Context, id string) error {
	release, err := b.beginSwitch()
	if err != nil {
		return b.fail("Failed to load scene", "load scene", err)
	}
	defer release()

	session, err := b.session(ctx)
	if err != nil {
		return b.fail("Failed to load scene", "load scene", err)
	}
	rec, err := b.owned(ctx, session, id)
	if err != nil {
		return b.fail("Failed to load scene", "load scene", err)
	}

	b.mu.Lock()
	b.editor.Replace(rec.Objects, rec.ID, rec.Name)
	b.mu.Unlock()

	b.log.WithField("scene_id", rec.ID).Info("scene loaded")
	b.notify.Success("Scene loaded")
	return nil
}

// List returns the signed-in user's scenes, most recently updated first.
func (b *Bridge) List(ctx context.Context) ([]models.SceneSummary, error) {
	session, err := b.session(ctx)
	if err != nil {
		return nil, b.fail("Failed to load scenes", "list scenes", err)
	}
	list, err := b.store.ListByOwner(ctx, session.User.ID)
	if err != nil {
		return nil, b.fail("Failed to load scenes", "list scenes", err)
	}
	return list, nil
}

// CreateNew stores an empty scene called name and switches the editor to it.
func (b *Bridge) CreateNew(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return b.fail("Failed to create scene", "create scene", ErrInvalidName)
	}

	release, err := b.beginSwitch()
	if err != nil {
		return b.fail("Failed to create scene", "create scene", err)
	}
	defer release()

	session, err := b.session(ctx)
	if err != nil {
		return b.fail("You must be logged in", "create scene", err)
	}
	saved, err := b.store.Insert(ctx, models.SavedScene{
		OwnerID: session.User.ID,
		Name:    name,
		Objects: []models.Object{},
	})
	if err != nil {
		return b.fail("Failed to create scene", "create scene", err)
	}

	b.mu.Lock()
	b.editor.Replace(nil, saved.ID, name)
	b.mu.Unlock()

	b.log.WithField("scene_id", saved.ID).Info("scene created")
	b.notify.Success("New scene created")
	return nil
}

// Delete removes a stored scene. Deleting the open scene clears the editor.
// Delete counts as a scene switch: it fails with ErrBusy while a save or
// load is in flight, and loads are rejected until it finishes.
func (b *Bridge) Delete(ctx context.Context, id string) error {
	release, err := b.beginSwitch()
	if err != nil {
		return b.fail("Failed to delete scene", "delete scene", err)
	}
	defer release()

	session, err := b.session(ctx)
	if err != nil {
		return b.fail("Failed to delete scene", "delete scene", err)
	}
	if _, err := b.owned(ctx, session, id); err != nil {
		return b.fail("Failed to delete scene", "delete scene", err)
	}
	if err := b.store.DeleteByID(ctx, id); err != nil {
		return b.fail("Failed to delete scene", "delete scene", err)
	}

	b.mu.Lock()
	if b.editor.SceneID() == id {
		b.editor.Clear()
	}
	b.mu.Unlock()

	b.log.WithField("scene_id", id).Info("scene deleted")
	b.notify.Success("Scene deleted")
	return nil
}

// ============================================================
// Files
// ============================================================

// Export writes the live object list to w and returns the download name.
func (b *Bridge) Export(w io.Writer) (string, error) {
	b.mu.Lock()
	objects := b.editor.Objects()
	name := b.editor.SceneName()
	b.mu.Unlock()

	if err := fileio.Encode(w, objects); err != nil {
		return "", b.fail("Failed to export scene", "export scene", err)
	}
	return fileio.FileName(name), nil
}

// Import replaces the editor contents with a scene document. The scene is
// detached from any stored record and its history restarts.
func (b *Bridge) Import(r io.Reader, fileName string) error {
	objects, err := fileio.Decode(r)
	if err != nil {
		return b.fail("Failed to load scene file", "import scene", err)
	}

	b.mu.Lock()
	if st := b.status(); st.Saving || st.Loading {
		b.mu.Unlock()
		return b.fail("Failed to load scene file", "import scene", ErrBusy)
	}
	b.editor.Replace(objects, "", fileio.SceneName(fileName))
	b.mu.Unlock()

	b.notify.Success("Scene loaded from file")
	return nil
}

// ============================================================
// Helpers
// ============================================================

// beginSwitch marks a scene switch (load, create, delete) as loading. It
// fails while a save or another switch is in flight.
func (b *Bridge) beginSwitch() (release func(), err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saving > 0 || b.loading {
		return nil, ErrBusy
	}
	b.loading = true
	return func() {
		b.mu.Lock()
		b.loading = false
		b.mu.Unlock()
	}, nil
}

func (b *Bridge) session(ctx context.Context) (*authmodels.Session, error) {
	if b.sessions == nil {
		return nil, ErrNotSignedIn
	}
	s, err := b.sessions.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if s == nil || s.User.ID == "" {
		return nil, ErrNotSignedIn
	}
	return s, nil
}

// owned fetches a record and hides records of other users as not found.
func (b *Bridge) owned(ctx context.Context, s *authmodels.Session, id string) (*models.SavedScene, error) {
	rec, err := b.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != s.User.ID {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (b *Bridge) fail(userMsg, op string, err error) error {
	b.log.WithError(err).Warnf("%s failed", op)
	b.notify.Error(userMsg)
	return fmt.Errorf("%s: %w", op, err)
}
