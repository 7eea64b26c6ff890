package subdiv

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestLoggerDefaultIsSilent(t *testing.T) {
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger is enabled")
	}
}

func TestSetLogger(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	SetLogger(l)
	if Logger() != l {
		t.Fatal("Logger() did not return the configured logger")
	}

	m := NewCubeMesh(1)
	s, err := NewFromMesh(DefaultSettings(), m)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := UpdateFromMesh(s, DefaultSettings(), m); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"subdivision descriptor created", "subdivision descriptor reused", "phase=topology_compare"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log output is missing %q:\n%s", want, buf.String())
		}
	}

	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) did not restore the silent logger")
	}
}

func TestSetLoggerConcurrent(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetLogger(l)
		}()
		go func() {
			defer wg.Done()
			if Logger() == nil {
				t.Error("Logger() returned nil")
			}
		}()
	}
	wg.Wait()
}
