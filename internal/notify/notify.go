// Package notify carries user-facing outcome banners. Notifications are a
// UX affordance only; callers make control-flow decisions on returned
// errors, never on what was notified.
package notify

import (
	"fmt"
	"io"
	"sync"
)

// Level is the tone of a notification.
type Level int

const (
	Success Level = iota
	Failure
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Notification is one banner.
type Notification struct {
	Level   Level
	Message string
}

// Notifier receives notifications.
type Notifier interface {
	Notify(Notification)
}

// Func adapts a function to Notifier.
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// Writer prints banners line by line, e.g. to stderr.
type Writer struct {
	W  io.Writer
	mu sync.Mutex
}

func (w *Writer) Notify(n Notification) {
	w.mu.Lock()
	defer w.mu.Unlock()
	prefix := "ok"
	if n.Level == Failure {
		prefix = "error"
	}
	fmt.Fprintf(w.W, "[%s] %s\n", prefix, n.Message)
}

// Recorder keeps every notification in order.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.all = append(r.all, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.all))
	copy(out, r.all)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Notification{}, false
	}
	return r.all[len(r.all)-1], true
}
