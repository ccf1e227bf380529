package editor

import (
	"fmt"
	"math/rand"
	"testing"

	"scene-editor/internal/scene/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("obj-%d", n)
	}
}

func newTestEditor() *Editor {
	return New(WithIDGenerator(seqIDs()))
}

func names(objs []models.Object) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.Name
	}
	return out
}

func TestAddNamesAndDefaults(t *testing.T) {
	e := newTestEditor()
	e.Add(models.Cube)
	e.Add(models.Sphere)
	e.Add(models.Cube)
	e.Add(models.Plane)
	e.Add(models.Cube)

	assert.Equal(t, []string{"Cube 1", "Sphere 1", "Cube 2", "Plane 1", "Cube 3"}, names(e.Objects()))

	plane := e.Objects()[3]
	assert.Equal(t, models.Vec3{0, -0.5, 0}, plane.Position)
	assert.Equal(t, models.Vec3{10, 10, 1}, plane.Scale)
	assert.Equal(t, "#808080", plane.Color)

	ids := map[string]bool{}
	for _, o := range e.Objects() {
		assert.False(t, ids[o.ID], "duplicate id %s", o.ID)
		ids[o.ID] = true
	}
	assert.Equal(t, 6, e.HistoryLen())
	assert.Equal(t, 5, e.HistoryIndex())
}

func TestUndoScenario(t *testing.T) {
	e := newTestEditor()
	first := e.Add(models.Cube)
	e.Add(models.Cube)
	twoCubes := e.Objects()

	red := "#ff0000"
	e.Update(first.ID, models.Patch{Color: &red})
	got, _ := e.Object(first.ID)
	assert.Equal(t, red, got.Color)

	require.True(t, e.Undo())
	assert.Equal(t, twoCubes, e.Objects())
	assert.Equal(t, 2, e.HistoryIndex())

	require.True(t, e.Undo())
	assert.Len(t, e.Objects(), 1)

	require.True(t, e.Undo())
	assert.Empty(t, e.Objects())
	assert.False(t, e.CanUndo())
	assert.False(t, e.Undo())
}

func TestUndoRedoRestoresExactList(t *testing.T) {
	e := newTestEditor()
	a := e.Add(models.Torus)
	pos := models.Vec3{1, 2, 3}
	e.Update(a.ID, models.Patch{Position: &pos})
	before := e.Objects()
	e.Select(a.ID)

	require.True(t, e.Undo())
	assert.Equal(t, "", e.Selected())
	e.Select(a.ID)
	require.True(t, e.Redo())
	assert.Equal(t, before, e.Objects())
	assert.Equal(t, "", e.Selected())
	assert.False(t, e.CanRedo())
}

func TestMutationAfterUndoDiscardsRedo(t *testing.T) {
	e := newTestEditor()
	e.Add(models.Cube)
	e.Add(models.Cone)
	e.Undo()
	assert.True(t, e.CanRedo())

	e.Add(models.Capsule)
	assert.False(t, e.CanRedo())
	assert.False(t, e.Redo())
	assert.Equal(t, []string{"Cube 1", "Capsule 1"}, names(e.Objects()))
}

func TestRemove(t *testing.T) {
	e := newTestEditor()
	a := e.Add(models.Cube)
	b := e.Add(models.Sphere)
	e.Select(a.ID)

	e.Remove(a.ID)
	assert.Equal(t, []string{"Sphere 1"}, names(e.Objects()))
	assert.Equal(t, "", e.Selected())

	e.Select(b.ID)
	lenBefore := e.HistoryLen()
	e.Remove("missing")
	assert.Equal(t, []string{"Sphere 1"}, names(e.Objects()))
	assert.Equal(t, b.ID, e.Selected())
	assert.Equal(t, lenBefore+1, e.HistoryLen(), "removing an absent id still records a snapshot")
}

func TestUpdateReplacesWholeVector(t *testing.T) {
	e := newTestEditor()
	a := e.Add(models.Cylinder)
	e.Add(models.Cube)
	other := e.Objects()[1]

	scale := models.Vec3{2, 1, 1}
	rot := models.Vec3{0, 1.5, 0}
	e.Update(a.ID, models.Patch{Scale: &scale, Rotation: &rot})
	got, _ := e.Object(a.ID)
	assert.Equal(t, scale, got.Scale)
	assert.Equal(t, rot, got.Rotation)
	assert.Equal(t, a.Position, got.Position)
	assert.Equal(t, a.Kind, got.Kind)
	assert.Equal(t, a.Name, got.Name)

	untouched, _ := e.Object(other.ID)
	assert.Equal(t, other, untouched)

	n := e.HistoryLen()
	e.Update("missing", models.Patch{Scale: &scale})
	assert.Equal(t, n, e.HistoryLen())
}

func TestDuplicate(t *testing.T) {
	e := newTestEditor()
	a := e.Add(models.Cube)
	pos := models.Vec3{1, 2, 3}
	green := "#00ff00"
	e.Update(a.ID, models.Patch{Position: &pos, Color: &green})
	e.Add(models.Sphere)
	orig, _ := e.Object(a.ID)

	dup, ok := e.Duplicate(a.ID)
	require.True(t, ok)
	assert.NotEqual(t, orig.ID, dup.ID)
	assert.Equal(t, "Cube 2", dup.Name)
	assert.Equal(t, orig.Position[0]+1, dup.Position[0])
	assert.Equal(t, orig.Position[1], dup.Position[1])
	assert.Equal(t, orig.Position[2], dup.Position[2])
	assert.Equal(t, orig.Rotation, dup.Rotation)
	assert.Equal(t, orig.Scale, dup.Scale)
	assert.Equal(t, orig.Color, dup.Color)
	assert.Equal(t, orig.Kind, dup.Kind)
	assert.Equal(t, dup.ID, e.Selected())

	n := e.HistoryLen()
	_, ok = e.Duplicate("missing")
	assert.False(t, ok)
	assert.Equal(t, n, e.HistoryLen())

	e.Add(models.Cube)
	assert.Equal(t, "Cube 3", e.Objects()[3].Name)
}

func TestClear(t *testing.T) {
	e := newTestEditor()
	e.Add(models.Cube)
	e.Add(models.Cube)
	e.Replace(e.Objects(), "scene-1", "My Scene")
	a := e.Add(models.Cube)
	e.Select(a.ID)

	e.Clear()
	assert.Empty(t, e.Objects())
	assert.Equal(t, "", e.Selected())
	assert.Equal(t, "", e.SceneID())
	assert.Equal(t, models.DefaultSceneName, e.SceneName())
	assert.True(t, e.CanUndo())

	e.Add(models.Cube)
	assert.Equal(t, "Cube 1", e.Objects()[0].Name)
}

func TestSelectAndModeSkipHistory(t *testing.T) {
	e := newTestEditor()
	e.Add(models.Cube)
	n := e.HistoryLen()

	e.Select("not-validated")
	assert.Equal(t, "not-validated", e.Selected())
	_, ok := e.SelectedObject()
	assert.False(t, ok)
	e.Select("")
	assert.Equal(t, "", e.Selected())

	assert.Equal(t, models.Translate, e.Mode())
	e.SetTransformMode(models.Rotate)
	assert.Equal(t, models.Rotate, e.Mode())
	e.SetTransformMode("bogus")
	assert.Equal(t, models.Rotate, e.Mode())
	assert.Equal(t, n, e.HistoryLen())
}

func TestReplaceReseedsCounters(t *testing.T) {
	e := newTestEditor()
	e.Add(models.Cube)
	loaded := []models.Object{
		{ID: "x1", Name: "Cube 7", Kind: models.Cube},
		{ID: "x2", Name: "Cube 3", Kind: models.Cube},
		{ID: "x3", Name: "Big Sphere", Kind: models.Sphere},
		{ID: "x4", Name: "Sphere 12", Kind: models.Sphere},
		{ID: "x5", Name: "Cone", Kind: models.Cone},
	}
	e.Replace(loaded, "remote-1", "Loaded")

	assert.Equal(t, loaded, e.Objects())
	assert.Equal(t, "remote-1", e.SceneID())
	assert.Equal(t, "Loaded", e.SceneName())
	assert.Equal(t, 1, e.HistoryLen())
	assert.False(t, e.CanUndo())

	assert.Equal(t, "Cube 8", e.Add(models.Cube).Name)
	assert.Equal(t, "Sphere 13", e.Add(models.Sphere).Name)
	assert.Equal(t, "Cone 1", e.Add(models.Cone).Name)

	loaded[0].Name = "mutated"
	assert.Equal(t, "Cube 7", e.Objects()[0].Name)
}

func TestObjectsReturnsCopy(t *testing.T) {
	e := newTestEditor()
	e.Add(models.Cube)
	objs := e.Objects()
	objs[0].Position[0] = 99
	assert.Equal(t, 0.0, e.Objects()[0].Position[0])
}

func TestSubscribe(t *testing.T) {
	e := newTestEditor()
	var events []Event
	unsubscribe := e.Subscribe(func(ev Event) { events = append(events, ev) })

	a := e.Add(models.Cube)
	require.Len(t, events, 1)
	assert.True(t, events[0].Has(EventObjects))
	assert.True(t, events[0].Has(EventHistory))

	e.Select(a.ID)
	assert.True(t, events[1].Has(EventSelection))
	assert.False(t, events[1].Has(EventHistory))

	e.SetTransformMode(models.Scale)
	assert.True(t, events[2].Has(EventMode))

	unsubscribe()
	e.Add(models.Cube)
	assert.Len(t, events, 3)
}

func TestHistoryInvariantsUnderRandomOps(t *testing.T) {
	e := newTestEditor()
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		objs := e.Objects()
		pick := func() string {
			if len(objs) == 0 || rng.Intn(10) == 0 {
				return "missing"
			}
			return objs[rng.Intn(len(objs))].ID
		}
		switch rng.Intn(6) {
		case 0, 1:
			e.Add(models.Kinds[rng.Intn(len(models.Kinds))])
		case 2:
			e.Remove(pick())
		case 3:
			p := models.Vec3{rng.Float64(), rng.Float64(), rng.Float64()}
			e.Update(pick(), models.Patch{Position: &p})
		case 4:
			e.Duplicate(pick())
		case 5:
			if rng.Intn(2) == 0 {
				e.Undo()
			} else {
				e.Redo()
			}
		}
		assert.LessOrEqual(t, e.HistoryLen(), 50)
		assert.GreaterOrEqual(t, e.HistoryIndex(), 0)
		assert.Less(t, e.HistoryIndex(), e.HistoryLen())
	}
}
