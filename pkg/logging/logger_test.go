package logging

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNilLoggerIsNoOp(t *testing.T) {
	var l *Logger
	require.NotPanics(t, func() {
		l.Infof("hello %s", "world")
		l.Errorf("boom")
		_ = l.Writer()
	})
}

func TestSubloggerPrefixChaining(t *testing.T) {
	root := &Logger{level: LevelTrace}
	child := root.Sublogger("cloud").Sublogger("provider")
	require.Equal(t, "cloud.provider", child.prefix)
}

func TestWriterSplitsLines(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(nil)

	l := &Logger{level: LevelTrace}
	w := l.Writer()
	_, err := w.Write([]byte("line one\nline two\npartial"))
	require.NoError(t, err)
	require.Contains(t, buf.String(), "line one")
	require.Contains(t, buf.String(), "line two")
	require.NotContains(t, buf.String(), "partial")
}

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(nil)

	l := &Logger{level: LevelWarn}
	l.Infof("should not appear")
	l.Warnf("should appear")
	require.NotContains(t, buf.String(), "should not appear")
	require.Contains(t, buf.String(), "should appear")
}
