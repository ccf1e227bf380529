package editor

// EventType names the part of editor state that changed.
type EventType string

const (
	EventObjects   EventType = "objects"
	EventSelection EventType = "selection"
	EventMode      EventType = "mode"
	EventHistory   EventType = "history"
	EventScene     EventType = "scene"
)

// Event is delivered to subscribers after a change has been applied.
type Event struct {
	Types []EventType `json:"types"`
}

func (e Event) Has(t EventType) bool {
	for _, et := range e.Types {
		if et == t {
			return true
		}
	}
	return false
}

// Listener receives editor events. It runs synchronously on the caller of
// the mutating operation and must not call back into the editor.
type Listener func(Event)

type observers struct {
	next      int
	listeners map[int]Listener
}

// Subscribe registers fn and returns a function that removes it.
func (e *Editor) Subscribe(fn Listener) (unsubscribe func()) {
	if e.obs.listeners == nil {
		e.obs.listeners = make(map[int]Listener)
	}
	id := e.obs.next
	e.obs.next++
	e.obs.listeners[id] = fn
	return func() { delete(e.obs.listeners, id) }
}

func (e *Editor) emit(types ...EventType) {
	if len(e.obs.listeners) == 0 {
		return
	}
	ev := Event{Types: types}
	for i := 0; i < e.obs.next; i++ {
		if fn, ok := e.obs.listeners[i]; ok {
			fn(ev)
		}
	}
}
