package tui

import "fmt"

// listView is a cursor over n rows of which height are visible at once.
type listView struct {
	cursor int
	offset int // first visible row
	height int
	n      int
}

func (l *listView) setLen(n int) {
	l.n = n
	l.clamp()
}

func (l *listView) reset() {
	l.cursor, l.offset = 0, 0
}

// clamp keeps the cursor inside the rows and the viewport around the cursor.
func (l *listView) clamp() {
	if l.n <= 0 {
		l.reset()
		return
	}
	l.cursor = min(max(l.cursor, 0), l.n-1)
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.height > 0 && l.cursor >= l.offset+l.height {
		l.offset = l.cursor - l.height + 1
	}
	l.offset = min(l.offset, max(l.n-l.height, 0))
	l.offset = max(l.offset, 0)
}

func (l *listView) moveUp() {
	l.cursor--
	l.clamp()
}

func (l *listView) moveDown() {
	l.cursor++
	l.clamp()
}

func (l *listView) goHome() { l.reset() }

func (l *listView) goEnd() {
	l.cursor = l.n - 1
	l.clamp()
}

func (l *listView) pageUp() {
	l.cursor -= l.height
	l.offset -= l.height
	l.clamp()
}

func (l *listView) pageDown() {
	l.cursor += l.height
	l.offset += l.height
	l.clamp()
}

// window returns the visible row range [start, end).
func (l *listView) window() (int, int) {
	l.clamp()
	return l.offset, min(l.offset+l.height, l.n)
}

// position renders "3/40 noun (12%)" when the rows overflow the viewport.
func (l *listView) position(noun string) string {
	if l.n <= l.height {
		return ""
	}
	pct := float64(l.offset) / float64(l.n-l.height) * 100
	return fmt.Sprintf("  %d/%d %s (%.0f%%)", l.cursor+1, l.n, noun, pct)
}
