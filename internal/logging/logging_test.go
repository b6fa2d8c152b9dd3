package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"debug": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
	}
	for in, want := range cases {
		logger, err := New(in)
		if err != nil {
			t.Fatalf("New(%q): %v", in, err)
		}
		if !logger.Core().Enabled(want) {
			t.Errorf("New(%q): level %s not enabled", in, want)
		}
		if want > zapcore.DebugLevel && logger.Core().Enabled(want-1) {
			t.Errorf("New(%q): level %s should be disabled", in, want-1)
		}
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
