// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestTerminalHandlerWithAttrs(t *testing.T) {
	out := new(bytes.Buffer)
	var level slog.LevelVar
	level.Set(LevelTrace)
	handler := NewTerminalHandlerWithLevel(out, &level, false).WithAttrs([]slog.Attr{slog.String("baz", "bat")})
	logger := NewLogger(handler)
	logger.Trace("a message", "foo", "bar")

	have := out.String()
	if !strings.Contains(have, "a message") {
		t.Errorf("missing message in %q", have)
	}
	if !strings.Contains(have, "baz=bat") || !strings.Contains(have, "foo=bar") {
		t.Errorf("missing attributes in %q", have)
	}
	if !strings.HasPrefix(have, "TRACE") {
		t.Errorf("missing level in %q", have)
	}
}

// Make sure the default json handler outputs debug log lines
func TestJSONHandler(t *testing.T) {
	out := new(bytes.Buffer)
	handler := JSONHandler(out)
	logger := slog.New(handler)
	logger.Debug("hi there")
	if len(out.String()) == 0 {
		t.Error("expected non-empty debug log output from default JSON Handler")
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if decoded["lvl"] != "debug" {
		t.Errorf("level not rewritten: %v", decoded)
	}

	out.Reset()

	var level slog.LevelVar
	level.Set(LevelInfo)

	handler = JSONHandlerWithLevel(out, &level)
	logger = slog.New(handler)
	logger.Debug("hi there")
	if len(out.String()) != 0 {
		t.Errorf("expected empty debug log output, but got: %v", out.String())
	}
}

func TestLogfmtLevelFiltering(t *testing.T) {
	out := new(bytes.Buffer)
	logger := NewLogger(LogfmtHandlerWithLevel(out, LevelWarn))

	logger.Info("not this one")
	logger.Warn("but this one", "k", "v")

	have := out.String()
	if strings.Contains(have, "not this one") {
		t.Errorf("info line leaked through warn filter: %q", have)
	}
	if !strings.Contains(have, "but this one") {
		t.Errorf("warn line missing: %q", have)
	}
}

func TestChildLogger(t *testing.T) {
	out := new(bytes.Buffer)
	logger := NewLogger(LogfmtHandler(out))

	child := logger.With("pkg", "test")
	child.Info("hello")

	if !strings.Contains(out.String(), "pkg=test") {
		t.Errorf("child attribute missing: %q", out.String())
	}
}

func TestSetDefault(t *testing.T) {
	old := Root()
	defer SetDefault(old)

	out := new(bytes.Buffer)
	SetDefault(NewLogger(LogfmtHandler(out)))
	Info("via the root logger", "k", "v")

	if !strings.Contains(out.String(), "via the root logger") {
		t.Errorf("root logger output missing: %q", out.String())
	}
}
