package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leandrodaf/midisynth/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLoggerFrom(zap.New(core))

	log.Info("device selected",
		log.Field().Int("deviceID", 2),
		log.Field().String("deviceName", "Keystation"),
		log.Field().Error("error", errors.New("boom")),
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("want 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["deviceID"] != int64(2) {
		t.Fatalf("deviceID field = %v", ctx["deviceID"])
	}
	if ctx["deviceName"] != "Keystation" {
		t.Fatalf("deviceName field = %v", ctx["deviceName"])
	}
	if ctx["error"] != "boom" {
		t.Fatalf("error field = %v", ctx["error"])
	}
}

func TestZapLoggerSetLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLoggerFrom(zap.New(core))

	log.SetLevel(contracts.WarnLevel)
	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")
	log.Error("shown")

	if got := logs.Len(); got != 2 {
		t.Fatalf("want 2 entries at warn level, got %d", got)
	}

	log.SetLevel(contracts.DebugLevel)
	log.Debug("shown")
	if got := logs.FilterMessage("shown").Len(); got != 3 {
		t.Fatalf("want 3 shown entries, got %d", got)
	}
}

func TestZapLoggerFileDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "midisynth.log")
	log := NewZapLogger()
	log.SetDestination(contracts.FileLog, path)
	log.Info("written to file", log.Field().Uint8("program", 3))
	if err := log.(*ZapLogger).Sync(); err != nil {
		t.Logf("sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Fatalf("log file does not contain the message: %q", data)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]contracts.LogLevel{
		"debug": contracts.DebugLevel,
		"":      contracts.InfoLevel,
		"warn":  contracts.WarnLevel,
		"error": contracts.ErrorLevel,
	}
	for name, want := range cases {
		got, ok := contracts.ParseLogLevel(name)
		if !ok || got != want {
			t.Fatalf("ParseLogLevel(%q) = %v, %v", name, got, ok)
		}
	}
	if _, ok := contracts.ParseLogLevel("loud"); ok {
		t.Fatal("unknown level accepted")
	}
}
