package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{" warn ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitWritesLogFile(t *testing.T) {
	saved := log.Logger
	savedLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = saved
		zerolog.SetGlobalLevel(savedLevel)
	})

	t.Setenv(LevelEnv, "debug")
	path := filepath.Join(t.TempDir(), "stitchy.log")
	Init(path)

	log.Debug().Str("probe", "value").Msg("file sink check")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"probe":"value"`) {
		t.Errorf("log file = %q", data)
	}
}

func TestStartupLoggerEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	s := NewStartupLogger("stitchy").
		CommitHash("abc123").
		Formats("png", "jpeg").
		Feature("s3Upload", true).
		Config("optionsFile", "/tmp/options.yaml").
		InitDuration(15 * time.Millisecond)
	s.event(logger.Info()).Msg("Startup complete")

	var doc struct {
		Build struct {
			Name       string `json:"name"`
			CommitHash string `json:"commitHash"`
			GoVersion  string `json:"goVersion"`
		} `json:"build"`
		Formats  []string          `json:"formats"`
		Features map[string]bool   `json:"features"`
		Config   map[string]string `json:"config"`
		Message  string            `json:"message"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("event is not JSON: %v\n%s", err, buf.Bytes())
	}

	if doc.Build.Name != "stitchy" || doc.Build.CommitHash != "abc123" || doc.Build.GoVersion == "" {
		t.Errorf("build = %+v", doc.Build)
	}
	if len(doc.Formats) != 2 || !doc.Features["s3Upload"] || doc.Config["optionsFile"] != "/tmp/options.yaml" {
		t.Errorf("event = %+v", doc)
	}
	if doc.Message != "Startup complete" {
		t.Errorf("message = %q", doc.Message)
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("STITCHY_TEST_VALUE", "")
	if got := EnvOrDefault("STITCHY_TEST_VALUE", "fallback"); got != "fallback" {
		t.Errorf("EnvOrDefault(empty) = %q", got)
	}
	t.Setenv("STITCHY_TEST_VALUE", "set")
	if got := EnvOrDefault("STITCHY_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("EnvOrDefault(set) = %q", got)
	}
}
