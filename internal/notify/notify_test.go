package notify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &Writer{W: &buf}
	w.Notify(Notification{Level: Success, Message: "saved"})
	w.Notify(Notification{Level: Failure, Message: "boom"})
	assert.Equal(t, "[ok] saved\n[error] boom\n", buf.String())
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_, ok := r.Last()
	assert.False(t, ok)

	r.Notify(Notification{Level: Success, Message: "a"})
	r.Notify(Notification{Level: Failure, Message: "b"})
	last, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, "b", last.Message)
	assert.Len(t, r.All(), 2)
}
