// Package workspace hosts one editing session per signed-in browser: an
// editor, its persistence bridge and the notices and updates the UI polls or
// streams.
package workspace

import (
	"context"
	"sync"
	"time"

	"scene-editor/internal/scene/bridge"
	"scene-editor/internal/scene/editor"
	"scene-editor/internal/scene/models"

	"github.com/sirupsen/logrus"
)

const maxNotices = 20

// Update is pushed to watchers after editor changes and notices.
type Update struct {
	Types  []editor.EventType `json:"types,omitempty"`
	Notice *Notice            `json:"notice,omitempty"`
}

// State is the full editor view served to the UI.
type State struct {
	SceneID      string               `json:"scene_id"`
	SceneName    string               `json:"scene_name"`
	Objects      []models.Object      `json:"objects"`
	SelectedID   string               `json:"selected_id"`
	Mode         models.TransformMode `json:"transform_mode"`
	CanUndo      bool                 `json:"can_undo"`
	CanRedo      bool                 `json:"can_redo"`
	HistoryIndex int                  `json:"history_index"`
	HistoryLen   int                  `json:"history_len"`
	bridge.Status
}

// ============================================================
// Workspace
// ============================================================

type Workspace struct {
	mu     sync.Mutex
	editor *editor.Editor
	bridge *bridge.Bridge
	notes  *notices
	log    logrus.FieldLogger

	watchMu  sync.Mutex
	watchers map[int]chan Update
	nextW    int

	usedMu   sync.Mutex
	lastUsed time.Time
	now      func() time.Time
}

// New builds a workspace around a fresh editor. All editor access, including
// the bridge's, is serialized on the workspace lock.
func New(store bridge.DocumentStore, sessions bridge.SessionSource, log logrus.FieldLogger, opts ...editor.Option) *Workspace {
	w := &Workspace{
		editor:   editor.New(opts...),
		notes:    newNotices(maxNotices),
		log:      log,
		watchers: make(map[int]chan Update),
		lastUsed: time.Now(),
		now:      time.Now,
	}
	w.bridge = bridge.New(w.editor, store, sessions,
		bridge.WithLocker(&w.mu),
		bridge.WithNotifier(w.notes),
		bridge.WithLogger(log),
	)
	w.editor.Subscribe(func(ev editor.Event) {
		w.broadcast(Update{Types: ev.Types})
	})
	w.notes.sink = func(n Notice) {
		w.broadcast(Update{Notice: &n})
	}
	return w
}

// Do runs fn with exclusive access to the editor. fn must not call the
// bridge or other Workspace methods.
func (w *Workspace) Do(fn func(ed *editor.Editor)) {
	w.touch()
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(w.editor)
}

// Bridge returns the persistence bridge. Its methods take the workspace
// lock themselves and must not be called from inside Do.
func (w *Workspace) Bridge() *bridge.Bridge {
	w.touch()
	return w.bridge
}

func (w *Workspace) State() State {
	var st State
	w.Do(func(ed *editor.Editor) {
		st = State{
			SceneID:      ed.SceneID(),
			SceneName:    ed.SceneName(),
			Objects:      ed.Objects(),
			SelectedID:   ed.Selected(),
			Mode:         ed.Mode(),
			CanUndo:      ed.CanUndo(),
			CanRedo:      ed.CanRedo(),
			HistoryIndex: ed.HistoryIndex(),
			HistoryLen:   ed.HistoryLen(),
		}
	})
	st.Status = w.bridge.Status()
	return st
}

// Notices returns and forgets the pending notices.
func (w *Workspace) Notices() []Notice {
	return w.notes.drain()
}

// ============================================================
// Keyboard
// ============================================================

// HandleKey runs the shortcut bound to k. Editing shortcuts that need a
// selection do nothing without one.
func (w *Workspace) HandleKey(ctx context.Context, k KeyPress) (Action, error) {
	action := Resolve(k)
	switch action {
	case ActionNone:
		return action, nil
	case ActionSave:
		return action, w.Bridge().Save(ctx)
	}

	w.Do(func(ed *editor.Editor) {
		switch action {
		case ActionDuplicate:
			if id := ed.Selected(); id != "" {
				ed.Duplicate(id)
			}
		case ActionUndo:
			ed.Undo()
		case ActionRedo:
			ed.Redo()
		case ActionTranslate:
			ed.SetTransformMode(models.Translate)
		case ActionRotate:
			ed.SetTransformMode(models.Rotate)
		case ActionScale:
			ed.SetTransformMode(models.Scale)
		case ActionDeselect:
			ed.Select("")
		case ActionDelete:
			if id := ed.Selected(); id != "" {
				ed.Remove(id)
			}
		}
	})
	return action, nil
}

// ============================================================
// Watchers
// ============================================================

// Watch returns a channel of updates and a func that stops it. Updates are
// dropped for a watcher whose buffer is full.
func (w *Workspace) Watch(buf int) (<-chan Update, func()) {
	ch := make(chan Update, buf)

	w.watchMu.Lock()
	id := w.nextW
	w.nextW++
	w.watchers[id] = ch
	w.watchMu.Unlock()

	return ch, func() {
		w.watchMu.Lock()
		defer w.watchMu.Unlock()
		if _, ok := w.watchers[id]; ok {
			delete(w.watchers, id)
			close(ch)
		}
	}
}

// close ends every watch stream.
func (w *Workspace) close() {
	w.watchMu.Lock()
	defer w.watchMu.Unlock()
	for id, ch := range w.watchers {
		delete(w.watchers, id)
		close(ch)
	}
}

func (w *Workspace) broadcast(u Update) {
	w.watchMu.Lock()
	defer w.watchMu.Unlock()
	for _, ch := range w.watchers {
		select {
		case ch <- u:
		default:
			w.log.Debug("watcher lagging, update dropped")
		}
	}
}

func (w *Workspace) touch() {
	w.usedMu.Lock()
	w.lastUsed = w.now()
	w.usedMu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.usedMu.Lock()
	defer w.usedMu.Unlock()
	return w.lastUsed
}
