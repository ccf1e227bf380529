package workspace

import (
	"context"
	"testing"
	"time"

	"scene-editor/internal/scene/bridge"
	"scene-editor/internal/scene/editor"
	"scene-editor/internal/scene/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPerToken(t *testing.T) {
	sources := map[string]*fakeSession{}
	r := NewRegistry(newTestStore(t), func(token string) bridge.SessionSource {
		s := signedIn("user-" + token)
		sources[token] = s
		return s
	}, WithHistoryLimit(3), WithLogger(nullLog()))

	a := r.Get("token-a")
	assert.Same(t, a, r.Get("token-a"))
	b := r.Get("token-b")
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, r.Len())

	a.Do(func(ed *editor.Editor) {
		for i := 0; i < 5; i++ {
			ed.Add(models.Cube)
		}
	})
	assert.Equal(t, 3, a.State().HistoryLen)
	assert.Empty(t, b.State().Objects)

	updates, _ := a.Watch(1)
	sources["token-a"].signOut()
	assert.Equal(t, 1, r.Len())
	_, open := <-updates
	assert.False(t, open, "dropping a workspace ends its streams")
	assert.NotSame(t, a, r.Get("token-a"))

	assert.True(t, r.Drop("token-b"))
	assert.False(t, r.Drop("token-b"))
}

func TestRegistrySweep(t *testing.T) {
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := NewRegistry(newTestStore(t), func(string) bridge.SessionSource { return signedIn("u") },
		WithIdleTimeout(time.Hour), WithLogger(nullLog()))
	r.now = func() time.Time { return clock }

	stale := r.Get("stale")
	clock = clock.Add(50 * time.Minute)
	fresh := r.Get("fresh")
	clock = clock.Add(20 * time.Minute)

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
	assert.Same(t, fresh, r.Get("fresh"))
	assert.NotSame(t, stale, r.Get("stale"))
}

func TestRegistryRunStopsWithContext(t *testing.T) {
	r := NewRegistry(newTestStore(t), func(string) bridge.SessionSource { return signedIn("u") },
		WithIdleTimeout(time.Nanosecond), WithLogger(nullLog()))
	r.Get("t")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}
