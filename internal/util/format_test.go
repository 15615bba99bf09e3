package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", FormatBytes(0))
	assert.Equal(t, "0 B", FormatBytes(-5))
	assert.Equal(t, "1.0 KiB", FormatBytes(1024))
	assert.Equal(t, "1.5 MiB", FormatBytes(1536*1024))
}

func TestFormatSpeed(t *testing.T) {
	assert.Empty(t, FormatSpeed(0))
	assert.Equal(t, "2.0 KiB/s", FormatSpeed(2048))
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "never", FormatAge(time.Time{}))
	assert.Contains(t, FormatAge(time.Now().Add(-3*time.Hour)), "hours ago")
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "/a/b", TruncatePath("/a/b", 10))
	assert.Equal(t, "...ef.jpg", TruncatePath("/abc/def.jpg", 9))
	assert.Equal(t, "jpg", TruncatePath("/abc/def.jpg", 3))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "Mountain...", TruncateText("Mountain sunrise", 11))
	assert.Equal(t, "abcdef", TruncateText("abcdef", 3))
}
