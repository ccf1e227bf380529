// Package editor holds the in-memory scene model of one editing session:
// the ordered object list, selection, gizmo mode, per-kind name counters and
// the undo history layered over them.
//
// An Editor is not safe for concurrent use. Hosts serialize access.
package editor

import (
	"scene-editor/internal/scene/history"
	"scene-editor/internal/scene/models"
	"scene-editor/internal/scene/primitives"

	"github.com/google/uuid"
)

// ============================================================
// Editor State
// ============================================================

type Editor struct {
	objects  []models.Object
	selected string
	mode     models.TransformMode

	sceneID   string
	sceneName string

	names   counters
	history *history.History
	newID   func() string
	obs     observers
}

type Option func(*Editor)

// WithHistoryLimit caps the number of retained snapshots.
func WithHistoryLimit(n int) Option {
	return func(e *Editor) { e.history = history.New(n, nil) }
}

// WithIDGenerator replaces the uuid-based object id source.
func WithIDGenerator(fn func() string) Option {
	return func(e *Editor) { e.newID = fn }
}

// New returns an empty, untitled editor in translate mode.
func New(opts ...Option) *Editor {
	e := &Editor{
		objects:   []models.Object{},
		mode:      models.Translate,
		sceneName: models.DefaultSceneName,
		names:     counters{},
		history:   history.New(history.DefaultLimit, nil),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ============================================================
// Mutations
// ============================================================

// Add appends a new object of kind with its default pose and the next name.
func (e *Editor) Add(kind models.Kind) models.Object {
	obj := primitives.New(kind)
	obj.Name = e.names.next(kind)
	obj.ID = e.newID()
	e.objects = append(e.objects, obj)
	e.commit(EventObjects)
	return obj
}

// Remove drops the object with id. A snapshot is recorded even when id is
// absent.
func (e *Editor) Remove(id string) {
	kept := e.objects[:0:0]
	for _, o := range e.objects {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	e.objects = kept
	types := []EventType{EventObjects}
	if e.selected == id && id != "" {
		e.selected = ""
		types = append(types, EventSelection)
	}
	e.commit(types...)
}

// Select sets the selection. An empty id clears it. The id is not checked
// against the scene.
func (e *Editor) Select(id string) {
	e.selected = id
	e.emit(EventSelection)
}

// Update merges p into the object with id. Absent ids are ignored.
func (e *Editor) Update(id string, p models.Patch) {
	idx := e.indexOf(id)
	if idx < 0 {
		return
	}
	next := make([]models.Object, len(e.objects))
	copy(next, e.objects)
	next[idx] = p.Apply(next[idx])
	e.objects = next
	e.commit(EventObjects)
}

// Duplicate copies the object with id one unit along +X, gives the copy a
// fresh id and the next name of its kind, and selects it.
func (e *Editor) Duplicate(id string) (models.Object, bool) {
	idx := e.indexOf(id)
	if idx < 0 {
		return models.Object{}, false
	}
	dup := e.objects[idx]
	dup.ID = e.newID()
	dup.Name = e.names.next(dup.Kind)
	dup.Position[0]++
	e.objects = append(e.objects, dup)
	e.selected = dup.ID
	e.commit(EventObjects, EventSelection)
	return dup, true
}

// Clear empties the scene, resets the name counters and drops the saved
// scene association. The empty scene is recorded in history.
func (e *Editor) Clear() {
	e.objects = []models.Object{}
	e.selected = ""
	e.names.reset()
	e.sceneID = ""
	e.sceneName = models.DefaultSceneName
	e.commit(EventObjects, EventSelection, EventScene)
}

func (e *Editor) SetTransformMode(mode models.TransformMode) {
	if !mode.Valid() || mode == e.mode {
		return
	}
	e.mode = mode
	e.emit(EventMode)
}

func (e *Editor) SetSceneName(name string) {
	e.sceneName = name
	e.emit(EventScene)
}

// ============================================================
// History
// ============================================================

// Undo restores the previous snapshot and clears the selection.
func (e *Editor) Undo() bool {
	objects, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.restore(objects)
	return true
}

// Redo restores the next snapshot and clears the selection.
func (e *Editor) Redo() bool {
	objects, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.restore(objects)
	return true
}

func (e *Editor) CanUndo() bool { return e.history.CanUndo() }
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// HistoryLen and HistoryIndex expose the cursor for status displays.
func (e *Editor) HistoryLen() int   { return e.history.Len() }
func (e *Editor) HistoryIndex() int { return e.history.Index() }

func (e *Editor) restore(objects []models.Object) {
	e.objects = objects
	e.selected = ""
	e.emit(EventObjects, EventSelection, EventHistory)
}

// commit records the live object list and notifies subscribers.
func (e *Editor) commit(types ...EventType) {
	e.history.Record(e.objects)
	e.emit(append(types, EventHistory)...)
}

// ============================================================
// Scene Replacement
// ============================================================

// Replace swaps in a loaded object list and scene association. Name
// counters are reseeded from the loaded names and history restarts with a
// single snapshot.
func (e *Editor) Replace(objects []models.Object, sceneID, sceneName string) {
	e.objects = history.Snapshot(objects)
	e.selected = ""
	e.names.reseed(e.objects)
	e.sceneID = sceneID
	e.sceneName = sceneName
	e.history.Reset(e.objects)
	e.emit(EventObjects, EventSelection, EventHistory, EventScene)
}

// Associate links an unsaved scene to the stored record it was just
// written to. Objects and history are left alone.
func (e *Editor) Associate(sceneID string) {
	e.sceneID = sceneID
	e.emit(EventScene)
}

// ============================================================
// Accessors
// ============================================================

// Objects returns a copy of the live object list.
func (e *Editor) Objects() []models.Object {
	return history.Snapshot(e.objects)
}

func (e *Editor) Len() int { return len(e.objects) }

// Object looks up an object by id.
func (e *Editor) Object(id string) (models.Object, bool) {
	idx := e.indexOf(id)
	if idx < 0 {
		return models.Object{}, false
	}
	return e.objects[idx], true
}

func (e *Editor) Selected() string { return e.selected }

// SelectedObject returns the selected object if the selection resolves.
func (e *Editor) SelectedObject() (models.Object, bool) {
	if e.selected == "" {
		return models.Object{}, false
	}
	return e.Object(e.selected)
}

func (e *Editor) Mode() models.TransformMode { return e.mode }
func (e *Editor) SceneID() string            { return e.sceneID }
func (e *Editor) SceneName() string          { return e.sceneName }

func (e *Editor) indexOf(id string) int {
	for i, o := range e.objects {
		if o.ID == id {
			return i
		}
	}
	return -1
}
