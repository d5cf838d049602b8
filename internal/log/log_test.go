package log

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLog_FormatsLevelCategoryAndFields(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)

	Debug(CatProjection, "recompute", "first", 3, "last", 17)

	line := buf.String()
	require.Contains(t, line, "[DEBUG] [projection] recompute first=3 last=17")
	require.True(t, line[len(line)-1] == '\n')
}

func TestLog_OddFieldCountMarksMissing(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)

	Info(CatCache, "set item", "key")

	require.Contains(t, buf.String(), "key=<missing>")
}

func TestLog_MinLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	SetMinLevel(LevelWarn)

	Debug(CatScroll, "dropped")
	Warn(CatScroll, "kept")

	require.NotContains(t, buf.String(), "dropped")
	require.Contains(t, buf.String(), "[WARN] [scroll] kept")
}

func TestLog_Disabled(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	SetEnabled(false)

	Error(CatStore, "nothing")
	require.Empty(t, buf.String())
}

func TestLog_ErrorErr(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)

	ErrorErr(CatStore, "save failed", errors.New("disk full"), "key", "k1")
	ErrorErr(CatStore, "nil error", nil)

	require.Contains(t, buf.String(), "save failed key=k1 error=disk full")
	require.Contains(t, buf.String(), "nil error error=<nil>")
}

func TestLog_ListenerReceivesEntries(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := NewListener(ctx)
	require.NotNil(t, listener)

	Info(CatList, "mounted", "id", "abc")

	msg := listener.Listen()()
	event, ok := msg.(LogEvent)
	require.True(t, ok)
	require.Contains(t, event.Payload, "mounted id=abc")
	require.WithinDuration(t, time.Now(), event.Timestamp, time.Second)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{" error ", LevelError},
		{"", LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestFormat(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 45, 0, 0, time.UTC)
	require.Equal(t,
		"2026-10-19T10:45:00 [WARN] [scroll] capped key=id-42 iterations=32\n",
		format(now, LevelWarn, CatScroll, "capped", []any{"key", "id-42", "iterations", 32}))
	require.Equal(t, "2026-10-19T10:45:00 [INFO] [ui] bare\n", format(now, LevelInfo, CatUI, "bare", nil))
}

func TestLevel_StringAndTag(t *testing.T) {
	require.Equal(t, "[ERROR]", LevelError.Tag())
	require.Equal(t, "UNKNOWN", Level(9).String())
	for l := LevelDebug; l <= LevelError; l++ {
		require.Equal(t, l, ParseLevel(l.String()))
	}
}
