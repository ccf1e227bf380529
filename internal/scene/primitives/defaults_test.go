package primitives

import (
	"testing"

	"scene-editor/internal/scene/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, k := range models.Kinds {
		o := New(k)
		assert.Equal(t, k, o.Kind)
		assert.Equal(t, "#808080", o.Color)
		assert.Equal(t, models.Vec3{0, 0, 0}, o.Rotation)
		if k == models.Plane {
			assert.Equal(t, models.Vec3{0, -0.5, 0}, o.Position)
			assert.Equal(t, models.Vec3{10, 10, 1}, o.Scale)
			continue
		}
		assert.Equal(t, models.Vec3{0, 0, 0}, o.Position, k)
		assert.Equal(t, models.Vec3{1, 1, 1}, o.Scale, k)
	}
}

func TestParseRequiresFallback(t *testing.T) {
	_, err := Parse([]byte("cube:\n  color: \"#ff0000\"\n"))
	require.Error(t, err)

	_, err = Parse([]byte("default: [1, 2"))
	require.Error(t, err)
}
