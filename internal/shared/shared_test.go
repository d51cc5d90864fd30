package shared

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		name string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"DEBUG", log.DebugLevel},
		{" warn ", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"info", log.InfoLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLogLevel(tt.name); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoggers(t *testing.T) {
	t.Run("Child Logger Carries Fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "session_id", "abc")

		logger.Info("hello")

		if out := buf.String(); !strings.Contains(out, "session_id=abc") || !strings.Contains(out, "hello") {
			t.Errorf("unexpected log output %q", out)
		}
	})

	t.Run("Level Filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.WarnLevel)

		logger.Info("quiet")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered, got %q", buf.String())
		}
	})

	t.Run("File Logger Creates Directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "app.log")

		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		logger.Info("written")

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log: %v", err)
		}
		if !strings.Contains(string(data), "written") {
			t.Errorf("expected log line in file, got %q", data)
		}
	})
}

func TestIdentifiers(t *testing.T) {
	t.Run("GenerateID", func(t *testing.T) {
		id := GenerateID()
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("expected a uuid, got %q: %v", id, err)
		}
		if id == GenerateID() {
			t.Error("expected distinct ids")
		}
	})

	t.Run("GenerateState", func(t *testing.T) {
		state, err := GenerateState()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(state) != 43 {
			t.Errorf("expected 43 characters, got %d", len(state))
		}
		if strings.ContainsAny(state, "+/=") {
			t.Errorf("state is not URL safe: %q", state)
		}
	})
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"k": 5}

	compact, err := MarshalJSON(v, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(compact) != `{"k":5}` {
		t.Errorf("unexpected compact output %s", compact)
	}

	pretty, err := MarshalJSON(v, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(pretty) != "{\n  \"k\": 5\n}" {
		t.Errorf("unexpected pretty output %s", pretty)
	}

	if _, err := MarshalJSON(make(chan int), false); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestOpenBrowser(t *testing.T) {
	orig := getRuntime
	t.Cleanup(func() { getRuntime = orig })
	getRuntime = func() string { return "plan9" }

	err := OpenBrowser("http://127.0.0.1")
	if err == nil || !strings.Contains(err.Error(), "unsupported platform: plan9") {
		t.Errorf("expected unsupported platform error, got %v", err)
	}

	t.Run("rejects non web urls before launching", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		for _, raw := range []string{"file:///etc/passwd", "javascript:alert(1)", "https://", "::"} {
			if err := OpenBrowser(raw); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("%q: expected ErrInvalidArgument, got %v", raw, err)
			}
		}
	})
}

func TestBrowserCommand(t *testing.T) {
	authURL := "https://accounts.spotify.com/authorize?client_id=abc&response_type=code&state=xyz"

	tc := []struct {
		goos string
		name string
		args []string
	}{
		{"darwin", "open", []string{authURL}},
		{"linux", "xdg-open", []string{authURL}},
		{"freebsd", "xdg-open", []string{authURL}},
		{"windows", "rundll32", []string{"url.dll,FileProtocolHandler", authURL}},
	}
	for _, c := range tc {
		t.Run(c.goos, func(t *testing.T) {
			name, args, err := browserCommand(c.goos, authURL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != c.name || !slices.Equal(args, c.args) {
				t.Errorf("expected %s %v, got %s %v", c.name, c.args, name, args)
			}
		})
	}

	t.Run("keeps the query string in one argument", func(t *testing.T) {
		_, args, _ := browserCommand("windows", authURL)
		if last := args[len(args)-1]; !strings.Contains(last, "&state=xyz") {
			t.Errorf("query string split: %v", args)
		}
	})
}
