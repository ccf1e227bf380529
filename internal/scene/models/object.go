package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ============================================================
// Primitive Kinds
// ============================================================

type Kind string

const (
	Cube     Kind = "cube"
	Sphere   Kind = "sphere"
	Plane    Kind = "plane"
	Cylinder Kind = "cylinder"
	Cone     Kind = "cone"
	Torus    Kind = "torus"
	Capsule  Kind = "capsule"
)

// Kinds lists every primitive in toolbar order.
var Kinds = []Kind{Cube, Sphere, Plane, Cylinder, Cone, Torus, Capsule}

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Title returns the display form used in default names ("cube" -> "Cube").
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// ParseKind validates a raw type string.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown primitive type %q", s)
	}
	return k, nil
}

// ============================================================
// Transform Mode
// ============================================================

type TransformMode string

const (
	Translate TransformMode = "translate"
	Rotate    TransformMode = "rotate"
	Scale     TransformMode = "scale"
)

func (m TransformMode) Valid() bool {
	return m == Translate || m == Rotate || m == Scale
}

// ============================================================
// Scene Object
// ============================================================

// Vec3 is a position, rotation (radians) or scale triple.
type Vec3 [3]float64

type Object struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     Kind   `json:"type"`
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`
	Scale    Vec3   `json:"scale"`
	Color    string `json:"color"`
}

// Patch is the subset of fields a caller may change on an existing object.
// Each vector is replaced wholesale.
type Patch struct {
	Position *Vec3   `json:"position,omitempty"`
	Rotation *Vec3   `json:"rotation,omitempty"`
	Scale    *Vec3   `json:"scale,omitempty"`
	Color    *string `json:"color,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Position == nil && p.Rotation == nil && p.Scale == nil && p.Color == nil
}

// Apply returns o with the patch merged in.
func (p Patch) Apply(o Object) Object {
	if p.Position != nil {
		o.Position = *p.Position
	}
	if p.Rotation != nil {
		o.Rotation = *p.Rotation
	}
	if p.Scale != nil {
		o.Scale = *p.Scale
	}
	if p.Color != nil {
		o.Color = *p.Color
	}
	return o
}

// ============================================================
// Saved Scenes
// ============================================================

// SavedScene is the document-store record of one user's scene.
type SavedScene struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Objects   []Object  `json:"objects"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SceneSummary is what scene listings return.
type SceneSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSceneName is used for scenes with no saved association.
const DefaultSceneName = "Untitled Scene"

// ErrSceneNotFound is returned when a saved scene does not exist or is not
// visible to the caller.
var ErrSceneNotFound = errors.New("scene not found")
