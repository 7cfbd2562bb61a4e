package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelNormal, &buf)

	l.Debug("hidden %d", 1)
	l.Info("shown %d", 2)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[INFO]")
	assert.Contains(t, buf.String(), "shown 2")

	buf.Reset()
	l.SetLevel(LevelVerbose)
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "[DEBUG]")

	buf.Reset()
	l.SetLevel(LevelOff)
	l.Error("silenced")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelOff, ParseLevel("off"))
	assert.Equal(t, LevelVerbose, ParseLevel(" DEBUG "))
	assert.Equal(t, LevelNormal, ParseLevel(""))
	assert.Equal(t, LevelNormal, ParseLevel("whatever"))
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Info("nothing") })
}
