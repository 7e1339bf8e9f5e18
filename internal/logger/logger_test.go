package logger

import (
	"testing"

	"run4recht/internal/config"
)

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	l, err := New(config.LogConfig{Level: "loud", Encoding: "json"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if l.Core().Enabled(-1) {
		t.Fatalf("debug enabled, want info")
	}
}

func TestComponent_NilIsNop(t *testing.T) {
	l := Component(nil, "sync")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Info("discarded")
}
