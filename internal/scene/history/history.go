// Package history keeps a bounded, linear list of scene snapshots with a
// cursor marking the current state. Recording after an undo discards every
// snapshot past the cursor.
package history

import (
	"scene-editor/internal/scene/models"

	"github.com/jinzhu/copier"
)

// DefaultLimit is the number of snapshots retained when no limit is given.
const DefaultLimit = 50

type History struct {
	entries [][]models.Object
	index   int
	limit   int
}

// New returns a history seeded with one snapshot of initial.
func New(limit int, initial []models.Object) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	h := &History{limit: limit}
	h.Reset(initial)
	return h
}

// Record truncates entries after the cursor, appends a copy of objects and
// moves the cursor to it, dropping the oldest entries past the limit.
func (h *History) Record(objects []models.Object) {
	entries := h.entries[:h.index+1]
	entries = append(entries, Snapshot(objects))
	if over := len(entries) - h.limit; over > 0 {
		entries = append([][]models.Object(nil), entries[over:]...)
	}
	h.entries = entries
	h.index = len(entries) - 1
}

// Undo steps the cursor back and returns a copy of that snapshot.
// ok is false at the oldest entry.
func (h *History) Undo() (objects []models.Object, ok bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.index--
	return Snapshot(h.entries[h.index]), true
}

// Redo steps the cursor forward and returns a copy of that snapshot.
// ok is false at the newest entry.
func (h *History) Redo() (objects []models.Object, ok bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.index++
	return Snapshot(h.entries[h.index]), true
}

func (h *History) CanUndo() bool { return h.index > 0 }

func (h *History) CanRedo() bool { return h.index < len(h.entries)-1 }

// Reset discards every entry and reseeds with a single snapshot.
func (h *History) Reset(objects []models.Object) {
	h.entries = [][]models.Object{Snapshot(objects)}
	h.index = 0
}

func (h *History) Len() int   { return len(h.entries) }
func (h *History) Index() int { return h.index }
func (h *History) Limit() int { return h.limit }

// At returns a copy of the snapshot at i.
func (h *History) At(i int) []models.Object {
	return Snapshot(h.entries[i])
}

// Snapshot deep-copies an object list. The result never aliases objects.
func Snapshot(objects []models.Object) []models.Object {
	out := make([]models.Object, 0, len(objects))
	if len(objects) == 0 {
		return out
	}
	if err := copier.CopyWithOption(&out, &objects, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched kinds; fall back to a value copy
		out = append(out[:0], objects...)
	}
	return out
}
