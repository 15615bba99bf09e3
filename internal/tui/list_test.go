package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListView(t *testing.T) {
	l := listView{height: 3}
	l.setLen(10)

	l.moveUp()
	assert.Equal(t, 0, l.cursor)

	l.pageDown()
	assert.Equal(t, 3, l.cursor)
	start, end := l.window()
	assert.Equal(t, 3, start)
	assert.Equal(t, 6, end)

	l.goEnd()
	assert.Equal(t, 9, l.cursor)
	assert.Equal(t, 7, l.offset)
	assert.Equal(t, "  10/10 rows (100%)", l.position("rows"))

	l.setLen(2)
	assert.Equal(t, 1, l.cursor)
	assert.Equal(t, 0, l.offset)
	assert.Empty(t, l.position("rows"))

	l.setLen(0)
	start, end = l.window()
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}
