package logger

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, v bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(v)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	buf := capture(t, true)

	Debug("test message %s", "arg")

	assert.Equal(t, "[DEBUG] test message arg\n", buf.String())
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	buf := capture(t, false)

	Debug("test message")
	Info("info")
	Warn("warn")
	Section("section")

	assert.Zero(t, buf.Len())
}

func TestInfo(t *testing.T) {
	buf := capture(t, true)

	Info("info message %d", 42)

	assert.Equal(t, "[INFO] info message 42\n", buf.String())
}

func TestWarn(t *testing.T) {
	buf := capture(t, true)

	Warn("warning message")

	assert.Equal(t, "[WARN] warning message\n", buf.String())
}

func TestSection(t *testing.T) {
	buf := capture(t, true)

	Section("Ingest")

	assert.Equal(t, "\n=== Ingest ===\n", buf.String())
}

func TestTimed(t *testing.T) {
	buf := capture(t, true)

	done := Timed("embed")
	done()

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[DEBUG] embed took "), out)
}

type lockedWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func TestConcurrentAccess(t *testing.T) {
	w := &lockedWriter{}
	SetOutput(w)
	defer func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	}()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetVerbose(true)
			Debug("concurrent %d", i)
			IsVerbose()
		}()
	}
	wg.Wait()
}
