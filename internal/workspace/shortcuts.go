package workspace

import "strings"

// Action is what a key press resolved to.
type Action string

const (
	ActionNone      Action = ""
	ActionDuplicate Action = "duplicate"
	ActionUndo      Action = "undo"
	ActionRedo      Action = "redo"
	ActionSave      Action = "save"
	ActionTranslate Action = "translate"
	ActionRotate    Action = "rotate"
	ActionScale     Action = "scale"
	ActionDeselect  Action = "deselect"
	ActionDelete    Action = "delete"
)

// KeyPress is a keydown as reported by the browser.
type KeyPress struct {
	Key          string `json:"key"`
	Ctrl         bool   `json:"ctrl"`
	Meta         bool   `json:"meta"`
	InputFocused bool   `json:"input_focused"`
}

var modifierKeys = map[string]Action{
	"d": ActionDuplicate,
	"z": ActionUndo,
	"y": ActionRedo,
	"s": ActionSave,
}

var plainKeys = map[string]Action{
	"w":         ActionTranslate,
	"e":         ActionRotate,
	"r":         ActionScale,
	"escape":    ActionDeselect,
	"delete":    ActionDelete,
	"backspace": ActionDelete,
}

// Resolve maps a key press to an action. Presses typed into a text input
// resolve to nothing. With Ctrl or Meta held only the modifier table is
// consulted.
func Resolve(k KeyPress) Action {
	if k.InputFocused {
		return ActionNone
	}
	key := strings.ToLower(k.Key)
	if k.Ctrl || k.Meta {
		return modifierKeys[key]
	}
	return plainKeys[key]
}
