package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"metas/internal/core"
	"metas/internal/storage"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootHelpAndUnknownCommand(t *testing.T) {
	out, err := execute(t)
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, want := range []string{"compute", "export", "sync"} {
		if !strings.Contains(out, want) {
			t.Errorf("help missing %q:\n%s", want, out)
		}
	}

	_, err = execute(t, "bogus")
	if err == nil || !strings.Contains(err.Error(), `unknown command "bogus"`) {
		t.Fatalf("err = %v", err)
	}
}

func TestComputeCommand(t *testing.T) {
	args := []string{"compute", "--thresholds", "10000"}
	for range core.MonthsInYear {
		args = append(args, "1000")
	}
	got, err := execute(t, args...)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for _, want := range []string{"Escadinha", "Total anual: R$ 78.000,00", "Maior salto: Nov -> Dez", "atingido em Abr"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestComputeRejectsWrongCount(t *testing.T) {
	_, err := execute(t, "compute", "1", "2")
	if err == nil || !strings.Contains(err.Error(), "expected 12 monthly values, got 2") {
		t.Fatalf("err = %v", err)
	}
}

func TestComputeRejectsAmountAboveCap(t *testing.T) {
	args := []string{"compute"}
	for range core.MonthsInYear {
		args = append(args, "90000000000000000")
	}
	if _, err := execute(t, args...); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "metas.db")

	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	g := core.MonthlyGoal{ProducerID: "p1", ProducerName: "Ana", Year: 2025}
	for i := range g.Months {
		g.Months[i] = core.FromUnits(100)
	}
	if err := repo.SaveGoal(context.Background(), g); err != nil {
		t.Fatalf("SaveGoal: %v", err)
	}
	repo.Close()

	out := filepath.Join(dir, "out", "metas.csv")
	stdout, err := execute(t, "export", "--year", "2025", "--format", "csv", "--db", dbPath, "--out", out)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "Ana") || !strings.Contains(string(data), "TOTAL") {
		t.Fatalf("unexpected csv:\n%s", data)
	}
	if !strings.Contains(stdout, "1 produtores exportados") {
		t.Fatalf("stdout = %s", stdout)
	}

	if _, err := execute(t, "export", "--year", "2024", "--db", dbPath, "--out", filepath.Join(dir, "empty.xlsx")); err == nil {
		t.Fatal("empty year should fail")
	}
}
