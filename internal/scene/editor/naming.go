package editor

import (
	"regexp"
	"strconv"

	"scene-editor/internal/scene/models"
)

var trailingNumber = regexp.MustCompile(`\d+$`)

// counters holds the per-kind name counters of one editor.
type counters map[models.Kind]int

// next increments the counter for kind and returns the resulting name.
func (c counters) next(kind models.Kind) string {
	c[kind]++
	return kind.Title() + " " + strconv.Itoa(c[kind])
}

func (c counters) reset() {
	for k := range c {
		delete(c, k)
	}
}

// reseed resets the counters and raises each to the highest trailing
// number found in the names of objects of that kind.
func (c counters) reseed(objects []models.Object) {
	c.reset()
	for _, o := range objects {
		m := trailingNumber.FindString(o.Name)
		if m == "" {
			continue
		}
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if n > c[o.Kind] {
			c[o.Kind] = n
		}
	}
}
