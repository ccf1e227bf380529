package primitives

import (
	_ "embed"
	"fmt"

	"scene-editor/internal/scene/models"

	"gopkg.in/yaml.v3"
)

// Def is the default pose and color for one primitive kind.
type Def struct {
	Position models.Vec3 `yaml:"position"`
	Rotation models.Vec3 `yaml:"rotation"`
	Scale    models.Vec3 `yaml:"scale"`
	Color    string      `yaml:"color"`
}

//go:embed primitives.yaml
var defaultsYAML []byte

const fallbackKey = "default"

var table = mustParse(defaultsYAML)

func mustParse(data []byte) map[string]Def {
	t, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse reads a primitive defaults table. A "default" entry is required.
func Parse(data []byte) (map[string]Def, error) {
	var t map[string]Def
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse primitive defaults: %w", err)
	}
	if _, ok := t[fallbackKey]; !ok {
		return nil, fmt.Errorf("parse primitive defaults: missing %q entry", fallbackKey)
	}
	return t, nil
}

// For returns the defaults for kind.
func For(kind models.Kind) Def {
	if d, ok := table[string(kind)]; ok {
		return d
	}
	return table[fallbackKey]
}

// New builds an object of kind with its default pose. ID and name are left to the caller.
func New(kind models.Kind) models.Object {
	d := For(kind)
	return models.Object{
		Kind:     kind,
		Position: d.Position,
		Rotation: d.Rotation,
		Scale:    d.Scale,
		Color:    d.Color,
	}
}
