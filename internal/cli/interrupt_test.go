package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterruptHandler_StopCancels(t *testing.T) {
	handler := NewInterruptHandler(&bytes.Buffer{})
	ctx, stop := handler.HandleInterrupts(context.Background())

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled initially")
	default:
	}

	stop()
	<-ctx.Done()
	assert.False(t, handler.WasInterrupted())
}

func TestInterruptHandler_MessageOnce(t *testing.T) {
	var out bytes.Buffer
	handler := NewInterruptHandler(&out)

	handler.interrupt()
	handler.interrupt()

	assert.True(t, handler.WasInterrupted())
	assert.Equal(t, 1, bytes.Count(out.Bytes(), []byte("Interrupted")))
}
