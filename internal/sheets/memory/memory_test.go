package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"metas/internal/core"
	ports "metas/internal/sheets"
)

func TestMemoryStoreGoals(t *testing.T) {
	ctx := context.Background()
	s := New([]core.Producer{{ID: "p2", Name: "Bruno"}, {ID: "p1", Name: "Ana"}, {ID: "p1", Name: "dup"}})

	if _, err := s.GetGoal(ctx, "p1", 2025); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	for _, id := range []string{"p2", "p1"} {
		g := core.MonthlyGoal{ProducerID: id, Year: 2025}
		g.Months[0] = core.FromUnits(10)
		if err := s.SaveGoal(ctx, g); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	if err := s.SaveGoal(ctx, core.MonthlyGoal{ProducerID: "p3", Year: 2024}); err != nil {
		t.Fatalf("save p3: %v", err)
	}

	goals, err := s.ListGoals(ctx, 2025)
	if err != nil || len(goals) != 2 {
		t.Fatalf("unexpected list: %v err=%v", goals, err)
	}
	if goals[0].ProducerName != "Ana" || goals[1].ProducerName != "Bruno" {
		t.Fatalf("goals not ordered by name: %q, %q", goals[0].ProducerName, goals[1].ProducerName)
	}

	producers, _ := s.ListProducers(ctx)
	if len(producers) != 3 {
		t.Fatalf("expected p3 to be registered, got %v", producers)
	}

	bad := core.MonthlyGoal{ProducerID: "p1", Year: 2025}
	bad.Months[2] = core.Money{Cents: -5}
	if err := s.SaveGoal(ctx, bad); !errors.Is(err, core.ErrNegativeGoal) {
		t.Fatalf("expected ErrNegativeGoal, got %v", err)
	}
}

func TestMemoryStoreQuotes(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	q := core.Quote{CNPJ: "1", Premium: core.FromUnits(5), Status: core.QuoteClosed, Date: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)}
	ref, err := s.AddQuote(ctx, q)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected add: ref=%q err=%v", ref, err)
	}
	q.Date = q.Date.AddDate(1, 0, 0)
	if _, err := s.AddQuote(ctx, q); err != nil {
		t.Fatalf("add: %v", err)
	}
	quotes, _ := s.ListQuotes(ctx, 2025)
	if len(quotes) != 1 {
		t.Fatalf("expected 1 quote for 2025, got %d", len(quotes))
	}
	if _, err := s.AddQuote(ctx, core.Quote{}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestNewFromFilesSeedsProducers(t *testing.T) {
	dir := t.TempDir()
	if s := NewFromFiles(dir); len(s.producers) != 0 {
		t.Fatalf("expected no producers when file is missing")
	}
	content := "# id;name\np1;Ana Souza\np2;Bruno\np1;Again\n\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_producers.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	producers, _ := NewFromFiles(dir).ListProducers(context.Background())
	if len(producers) != 2 || producers[0].Name != "Ana Souza" || producers[1].ID != "p2" {
		t.Fatalf("unexpected producers: %v", producers)
	}
}
