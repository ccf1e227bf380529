// Package fileio encodes scene object lists as the JSON documents users
// download and re-import.
package fileio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"scene-editor/internal/scene/models"

	"github.com/google/uuid"
)

// Ext is the extension of exported scene files.
const Ext = ".json"

// ErrMalformed is returned for documents that are not a valid object list.
var ErrMalformed = errors.New("malformed scene document")

// Encode writes objects as an indented JSON array.
func Encode(w io.Writer, objects []models.Object) error {
	if objects == nil {
		objects = []models.Object{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(objects); err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	return nil
}

// rawObject mirrors models.Object with every field optional so missing
// and wrongly sized values can be told apart from zeros.
type rawObject struct {
	ID       string    `json:"id"`
	Name     *string   `json:"name"`
	Kind     *string   `json:"type"`
	Position []float64 `json:"position"`
	Rotation []float64 `json:"rotation"`
	Scale    []float64 `json:"scale"`
	Color    *string   `json:"color"`
}

// Decode parses a scene document. Every object must carry a name, a known
// type, three-component position, rotation and scale, and a color. Missing
// or repeated ids are replaced with fresh ones so the result can be placed
// in a scene as-is. Anything after the array is rejected.
func Decode(r io.Reader) ([]models.Object, error) {
	var raw []rawObject
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: top-level value must be an array", ErrMalformed)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected content after the object list", ErrMalformed)
	}

	objects := make([]models.Object, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, ro := range raw {
		o, err := ro.object()
		if err != nil {
			return nil, fmt.Errorf("%w: object %d: %v", ErrMalformed, i, err)
		}
		if o.ID == "" || seen[o.ID] {
			o.ID = uuid.NewString()
		}
		seen[o.ID] = true
		objects[i] = o
	}
	return objects, nil
}

func (ro rawObject) object() (models.Object, error) {
	switch {
	case ro.Name == nil:
		return models.Object{}, errors.New("missing name")
	case ro.Kind == nil:
		return models.Object{}, errors.New("missing type")
	case ro.Color == nil:
		return models.Object{}, errors.New("missing color")
	}
	kind := models.Kind(*ro.Kind)
	if !kind.Valid() {
		return models.Object{}, fmt.Errorf("unknown type %q", *ro.Kind)
	}
	o := models.Object{ID: ro.ID, Name: *ro.Name, Kind: kind, Color: *ro.Color}
	for _, f := range []struct {
		name string
		in   []float64
		out  *models.Vec3
	}{
		{"position", ro.Position, &o.Position},
		{"rotation", ro.Rotation, &o.Rotation},
		{"scale", ro.Scale, &o.Scale},
	} {
		if len(f.in) != 3 {
			return models.Object{}, fmt.Errorf("%s must have 3 components, got %d", f.name, len(f.in))
		}
		copy(f.out[:], f.in)
	}
	return o, nil
}

// FileName returns the download name for a scene.
func FileName(sceneName string) string {
	name := strings.TrimSpace(sceneName)
	if name == "" {
		name = models.DefaultSceneName
	}
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	return name + Ext
}

// SceneName derives a scene name from an uploaded file name.
func SceneName(fileName string) string {
	base := filepath.Base(fileName)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." {
		return models.DefaultSceneName
	}
	return name
}
