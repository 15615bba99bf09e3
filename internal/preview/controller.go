// Package preview tracks the single wallpaper shown in the full-screen
// preview overlay.
package preview

import (
	"sync"

	"github.com/JohnDeved/wallhub/internal/model"
)

// CloseKey is the key that dismisses the preview from anywhere.
const CloseKey = "esc"

// KeySource delivers global key presses. Bind registers fn for key and
// returns a function removing that registration.
type KeySource interface {
	Bind(key string, fn func()) (unbind func())
}

// Controller is the Closed / Open(item) state machine behind the preview
// overlay. Opening fetches nothing; the item already carries its URLs.
type Controller struct {
	mu        sync.Mutex
	current   model.Wallpaper
	open      bool
	observers []func(model.Wallpaper, bool)
}

// New returns a closed controller.
func New() *Controller {
	return &Controller{}
}

// Open shows w, replacing whatever was shown.
func (c *Controller) Open(w model.Wallpaper) {
	c.mu.Lock()
	c.current = w
	c.open = true
	obs := c.observers
	c.mu.Unlock()
	for _, fn := range obs {
		fn(w, true)
	}
}

// Close hides the preview. Closing a closed preview does nothing.
func (c *Controller) Close() {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	c.open = false
	c.current = model.Wallpaper{}
	obs := c.observers
	c.mu.Unlock()
	for _, fn := range obs {
		fn(model.Wallpaper{}, false)
	}
}

// Current returns the shown wallpaper, if any.
func (c *Controller) Current() (model.Wallpaper, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.open
}

// IsOpen reports whether a wallpaper is shown.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// OnChange registers fn to run after every transition. Observers run
// outside the controller's lock.
func (c *Controller) OnChange(fn func(w model.Wallpaper, open bool)) {
	c.mu.Lock()
	c.observers = append(c.observers[:len(c.observers):len(c.observers)], fn)
	c.mu.Unlock()
}

// Mount binds CloseKey on src to Close. The returned release undoes the
// binding and may be called any number of times.
func (c *Controller) Mount(src KeySource) (release func()) {
	unbind := src.Bind(CloseKey, c.Close)
	var once sync.Once
	return func() { once.Do(unbind) }
}
