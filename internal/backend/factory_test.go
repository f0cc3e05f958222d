package backend

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"metas/internal/config"
	"metas/internal/core"
	"metas/internal/log"
)

func quietFactory() Factory {
	return NewFactory(log.New(log.Config{Output: io.Discard}))
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", DataDir: "seed"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.DataDirectory != "seed" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	bad := []Config{
		{Type: "postgres"},
		{Type: SQLiteBackend},
		{Type: MemoryBackend, AMQPURL: "amqp://localhost"},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := quietFactory().CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: t.TempDir()})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Close()

	if res.Jobs != nil || res.AMQP != nil {
		t.Fatalf("memory backend should come without jobs or broker: %+v", res)
	}
	if res.Publisher() != nil || res.JobRecorder() != nil {
		t.Fatal("nil broker must surface as an untyped nil publisher")
	}
	if err := res.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "metas.db")
	res, err := quietFactory().CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	t.Cleanup(func() { _ = res.Close() })

	if res.Jobs == nil || res.JobRecorder() == nil {
		t.Fatal("sqlite backend should track export jobs")
	}
	if err := res.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	g := core.MonthlyGoal{ProducerID: "p1", ProducerName: "Ana", Year: 2025}
	g.Months[0] = core.FromUnits(10)
	if err := res.Backend.SaveGoal(ctx, g); err != nil {
		t.Fatalf("SaveGoal: %v", err)
	}
	got, err := res.Backend.GetGoal(ctx, "p1", 2025)
	if err != nil || got.Months[0] != g.Months[0] {
		t.Fatalf("GetGoal = %+v, %v", got, err)
	}
}
