package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnDeved/wallhub/internal/model"
)

// keys is a minimal KeySource keeping one handler list per key.
type keys struct {
	next     int
	handlers map[string]map[int]func()
	unbinds  int
}

func newKeys() *keys {
	return &keys{handlers: make(map[string]map[int]func())}
}

func (k *keys) Bind(key string, fn func()) func() {
	if k.handlers[key] == nil {
		k.handlers[key] = make(map[int]func())
	}
	k.next++
	id := k.next
	k.handlers[key][id] = fn
	return func() {
		k.unbinds++
		delete(k.handlers[key], id)
	}
}

func (k *keys) press(key string) {
	for _, fn := range k.handlers[key] {
		fn()
	}
}

var (
	peaks = model.Wallpaper{ID: "1", Name: "Peaks"}
	grid  = model.Wallpaper{ID: "2", Name: "Grid"}
)

func TestStartsClosed(t *testing.T) {
	c := New()
	_, ok := c.Current()
	assert.False(t, ok)
	assert.False(t, c.IsOpen())
}

func TestOpenReplaces(t *testing.T) {
	c := New()
	c.Open(peaks)
	c.Open(grid)

	w, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, grid, w)
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New()
	var transitions []bool
	c.OnChange(func(_ model.Wallpaper, open bool) { transitions = append(transitions, open) })

	c.Close()
	c.Open(peaks)
	c.Close()
	c.Close()

	assert.False(t, c.IsOpen())
	assert.Equal(t, []bool{true, false}, transitions)
}

func TestEscapeClosesWhileMounted(t *testing.T) {
	k := newKeys()
	c := New()
	release := c.Mount(k)

	c.Open(peaks)
	k.press("enter")
	assert.True(t, c.IsOpen())
	k.press(CloseKey)
	assert.False(t, c.IsOpen())

	// escape while closed stays closed
	k.press(CloseKey)
	assert.False(t, c.IsOpen())

	release()
	release()
	assert.Equal(t, 1, k.unbinds)

	c.Open(grid)
	k.press(CloseKey)
	assert.True(t, c.IsOpen(), "released binding must not close")
}
