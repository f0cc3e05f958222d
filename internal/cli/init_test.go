package cli

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"metas/internal/log"
)

func stubExit(t *testing.T) *int {
	t.Helper()
	code := -1
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = defaultExit })
	return &code
}

var defaultExit = exit

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	l := SetupLogger("debug", log.ComponentWorker)
	if l.Component() != log.ComponentWorker {
		t.Fatalf("component = %q", l.Component())
	}
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug level should be enabled")
	}
	if slog.Default().Handler() != l.Logger.Handler() {
		t.Fatal("logger should be the slog default")
	}
}

func TestLoadAndValidateConfigExitsOnInvalid(t *testing.T) {
	code := stubExit(t)
	t.Setenv("PORT", "not-a-port")

	LoadAndValidateConfig(log.New(log.Config{Output: io.Discard}))
	if *code != 1 {
		t.Fatalf("exit code = %d, want 1", *code)
	}
}

func TestOpenBackend(t *testing.T) {
	code := stubExit(t)
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "metas.db"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	logger := log.New(log.Config{Output: io.Discard})
	res := OpenBackend(context.Background(), logger, LoadAndValidateConfig(logger))
	if *code != -1 {
		t.Fatalf("unexpected exit %d", *code)
	}
	defer res.Close()
	if err := res.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestRunCleanupTimesOut(t *testing.T) {
	logger := log.New(log.Config{Output: io.Discard})
	start := time.Now()
	runCleanup(logger, 20*time.Millisecond, func(ctx context.Context) {
		<-ctx.Done()
		time.Sleep(time.Second)
	})
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("cleanup should be abandoned after the timeout")
	}

	called := false
	runCleanup(logger, time.Second, func(context.Context) { called = true })
	if !called {
		t.Fatal("cleanup not run")
	}
}
