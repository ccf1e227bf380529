package workspace

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	authmodels "scene-editor/internal/auth/models"
	"scene-editor/internal/common/database"
	"scene-editor/internal/scene/bridge"
	"scene-editor/internal/scene/editor"
	"scene-editor/internal/scene/models"
	"scene-editor/internal/scene/store"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// Fixtures
// ============================================================

type fakeSession struct {
	mu        sync.Mutex
	session   *authmodels.Session
	listeners []func(*authmodels.Session)
}

func signedIn(userID string) *fakeSession {
	return &fakeSession{session: &authmodels.Session{
		Token: "tok-" + userID,
		User:  authmodels.User{ID: userID, Email: userID + "@example.com"},
	}}
}

func (f *fakeSession) GetSession(context.Context) (*authmodels.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, nil
}

func (f *fakeSession) OnChange(fn func(*authmodels.Session)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	return func() {}
}

func (f *fakeSession) signOut() {
	f.mu.Lock()
	f.session = nil
	fns := append([]func(*authmodels.Session){}, f.listeners...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(nil)
	}
}

func newTestStore(t *testing.T) *store.Repository {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "scenes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := store.New(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func nullLog() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logrus.NewEntry(logger)
}

func newTestWorkspace(t *testing.T) (*Workspace, *store.Repository) {
	repo := newTestStore(t)
	return New(repo, signedIn("u1"), nullLog()), repo
}

// ============================================================
// Tests
// ============================================================

func TestKeyboardShortcuts(t *testing.T) {
	ctx := context.Background()
	ws, _ := newTestWorkspace(t)

	var cube models.Object
	ws.Do(func(ed *editor.Editor) { cube = ed.Add(models.Cube) })

	act, err := ws.HandleKey(ctx, KeyPress{Key: "d", Ctrl: true})
	require.NoError(t, err)
	assert.Equal(t, ActionDuplicate, act)
	assert.Len(t, ws.State().Objects, 1, "duplicate needs a selection")

	ws.Do(func(ed *editor.Editor) { ed.Select(cube.ID) })
	ws.HandleKey(ctx, KeyPress{Key: "d", Meta: true})
	st := ws.State()
	require.Len(t, st.Objects, 2)
	assert.Equal(t, "Cube 2", st.Objects[1].Name)
	assert.Equal(t, st.Objects[1].ID, st.SelectedID)

	ws.HandleKey(ctx, KeyPress{Key: "Delete", InputFocused: true})
	assert.Len(t, ws.State().Objects, 2)

	ws.HandleKey(ctx, KeyPress{Key: "Backspace"})
	st = ws.State()
	assert.Len(t, st.Objects, 1)
	assert.Equal(t, "", st.SelectedID)

	ws.HandleKey(ctx, KeyPress{Key: "z", Ctrl: true})
	assert.Len(t, ws.State().Objects, 2)
	ws.HandleKey(ctx, KeyPress{Key: "y", Ctrl: true})
	assert.Len(t, ws.State().Objects, 1)

	ws.HandleKey(ctx, KeyPress{Key: "e"})
	assert.Equal(t, models.Rotate, ws.State().Mode)
	ws.HandleKey(ctx, KeyPress{Key: "r"})
	assert.Equal(t, models.Scale, ws.State().Mode)
	ws.HandleKey(ctx, KeyPress{Key: "w"})
	assert.Equal(t, models.Translate, ws.State().Mode)

	ws.Do(func(ed *editor.Editor) { ed.Select(cube.ID) })
	ws.HandleKey(ctx, KeyPress{Key: "Escape"})
	assert.Equal(t, "", ws.State().SelectedID)
}

func TestSaveShortcutPersistsAndNotifies(t *testing.T) {
	ctx := context.Background()
	ws, repo := newTestWorkspace(t)
	ws.Do(func(ed *editor.Editor) { ed.Add(models.Sphere) })

	act, err := ws.HandleKey(ctx, KeyPress{Key: "s", Ctrl: true})
	require.NoError(t, err)
	assert.Equal(t, ActionSave, act)

	st := ws.State()
	require.NotEmpty(t, st.SceneID)
	assert.False(t, st.Saving)

	rec, err := repo.GetByID(ctx, st.SceneID)
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.OwnerID)
	assert.Equal(t, st.Objects, rec.Objects)

	notes := ws.Notices()
	require.Len(t, notes, 1)
	assert.Equal(t, NoticeSuccess, notes[0].Kind)
	assert.Equal(t, "Scene created and saved", notes[0].Message)
	assert.Empty(t, ws.Notices())
}

func TestSaveSignedOutNotifiesError(t *testing.T) {
	ws := New(newTestStore(t), &fakeSession{}, nullLog())
	err := ws.Bridge().Save(context.Background())
	assert.ErrorIs(t, err, bridge.ErrNotSignedIn)

	notes := ws.Notices()
	require.Len(t, notes, 1)
	assert.Equal(t, NoticeError, notes[0].Kind)
	assert.Equal(t, "You must be logged in to save", notes[0].Message)
}

func TestWatchReceivesUpdates(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	updates, stop := ws.Watch(8)
	defer stop()

	ws.Do(func(ed *editor.Editor) { ed.Add(models.Torus) })
	u := <-updates
	assert.Contains(t, u.Types, editor.EventObjects)
	assert.Contains(t, u.Types, editor.EventHistory)

	require.NoError(t, ws.Bridge().Save(context.Background()))
	var notice *Notice
	for notice == nil {
		select {
		case u := <-updates:
			notice = u.Notice
		case <-time.After(time.Second):
			t.Fatal("no notice update")
		}
	}
	assert.Equal(t, NoticeSuccess, notice.Kind)

	stop()
	stop()
	_, open := <-updates
	assert.False(t, open)
}

func TestNoticesKeepMostRecent(t *testing.T) {
	n := newNotices(3)
	for _, msg := range []string{"a", "b", "c", "d"} {
		n.Success(msg)
	}
	got := n.drain()
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].Message)
	assert.Equal(t, "d", got[2].Message)
	assert.Equal(t, []Notice{}, n.drain())
}
