package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"metas/internal/amqp"
	"metas/internal/cache"
	"metas/internal/core"
	"metas/internal/export"
	ports "metas/internal/sheets"
	"metas/internal/sheets/memory"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.ExportRequest
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, msg *amqp.ExportRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

type fakeJobs struct {
	ids []string
}

func (f *fakeJobs) CreateExportJob(_ context.Context, id string, _ int, _ string) error {
	f.ids = append(f.ids, id)
	return nil
}

func goal(id, name string, year int, units ...int64) core.MonthlyGoal {
	g := core.MonthlyGoal{ProducerID: id, ProducerName: name, Year: year}
	for i, u := range units {
		g.Months[i] = core.FromUnits(u)
	}
	return g
}

func newStack(t *testing.T) (*memory.Store, *EscadinhaService, *cache.LRUCache[core.Escadinha]) {
	t.Helper()
	store := memory.New(nil)
	c := cache.NewLRUCache[core.Escadinha](50, time.Minute)
	return store, NewEscadinhaService(store, c, core.DefaultThresholds), c
}

func TestEscadinhaForProducerUsesFreshGoal(t *testing.T) {
	ctx := context.Background()
	store, svc, c := newStack(t)

	if _, err := svc.ForProducer(ctx, "p1", 2025); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.SaveGoal(ctx, goal("p1", "Ana", 2025, 10, 20, 30)); err != nil {
		t.Fatalf("SaveGoal: %v", err)
	}
	r, err := svc.ForProducer(ctx, "p1", 2025)
	if err != nil {
		t.Fatalf("ForProducer: %v", err)
	}
	want := [12]int64{1000, 4000, 10000, 16000, 22000, 28000, 34000, 40000, 46000, 52000, 58000, 64000}
	if diff := cmp.Diff(want, r.Staircase); diff != "" {
		t.Fatalf("staircase (-want +got):\n%s", diff)
	}
	if c.Size() != 1 {
		t.Fatalf("expected one cached report, got %d", c.Size())
	}

	// Bypassing the service must not serve a stale report.
	if err := store.SaveGoal(ctx, goal("p1", "Ana", 2025, 10)); err != nil {
		t.Fatalf("SaveGoal: %v", err)
	}
	r, _ = svc.ForProducer(ctx, "p1", 2025)
	if r.Staircase[11] != 12000 {
		t.Fatalf("stale report served: %v", r.Staircase)
	}
}

func TestEscadinhaBuildYearOrdersByName(t *testing.T) {
	ctx := context.Background()
	store, svc, _ := newStack(t)
	for _, g := range []core.MonthlyGoal{
		goal("p3", "Carla", 2025, 1),
		goal("p1", "", 2025, 1),
		goal("p2", "Ana", 2025, 1),
		goal("p9", "Zeca", 2024, 1),
	} {
		if err := store.SaveGoal(ctx, g); err != nil {
			t.Fatalf("SaveGoal: %v", err)
		}
	}
	reports, err := svc.BuildYear(ctx, 2025)
	if err != nil {
		t.Fatalf("BuildYear: %v", err)
	}
	var names []string
	for _, r := range reports {
		names = append(names, r.Goal.DisplayName())
	}
	if diff := cmp.Diff([]string{"Ana", "Carla", "p1"}, names); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}

	empty, err := svc.BuildYear(ctx, 2030)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no reports, got %v err=%v", empty, err)
	}
}

func TestEscadinhaCompute(t *testing.T) {
	_, svc, _ := newStack(t)
	var monthly [12]core.Money
	for i := range monthly {
		monthly[i] = core.FromUnits(100)
	}
	r, err := svc.Compute(monthly)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if r.Simple[11] != 120000 || r.Staircase[11] != 780000 {
		t.Fatalf("unexpected series simple=%d staircase=%d", r.Simple[11], r.Staircase[11])
	}
	if j := r.Insights.LargestJump; j == nil || j.From != "Nov" || j.To != "Dez" || j.Amount.Cents != 120000 {
		t.Fatalf("unexpected largest jump %+v", j)
	}

	monthly[4] = core.Money{Cents: -1}
	if _, err := svc.Compute(monthly); !errors.Is(err, core.ErrNegativeGoal) {
		t.Fatalf("expected ErrNegativeGoal, got %v", err)
	}

	monthly[4] = core.Money{Cents: core.MaxMonthlyCents + 1}
	if _, err := svc.Compute(monthly); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestGoalServiceSaveInvalidatesAndSyncs(t *testing.T) {
	ctx := context.Background()
	store, esc, c := newStack(t)
	pub := &fakePublisher{}
	jobs := &fakeJobs{}
	exp := NewExportService(esc, pub, jobs, ExportOptions{AutoSync: true})
	svc := NewGoalService(store, esc, exp)

	if err := svc.SaveGoal(ctx, goal(" p1 ", " Ana ", 2025, 5)); err != nil {
		t.Fatalf("SaveGoal: %v", err)
	}
	if _, err := esc.ForProducer(ctx, "p1", 2025); err != nil {
		t.Fatalf("ForProducer: %v", err)
	}
	if c.Size() != 1 {
		t.Fatalf("expected cached report")
	}
	if err := svc.SaveGoal(ctx, goal("p1", "Ana", 2025, 6)); err != nil {
		t.Fatalf("SaveGoal: %v", err)
	}
	if c.Size() != 0 {
		t.Fatalf("save should invalidate the year")
	}
	if len(pub.msgs) != 2 || len(jobs.ids) != 2 || pub.msgs[0].JobID != jobs.ids[0] {
		t.Fatalf("expected two recorded and published jobs, got %d/%d", len(pub.msgs), len(jobs.ids))
	}
	if pub.msgs[0].Target != amqp.TargetSheets || pub.msgs[0].Year != 2025 {
		t.Fatalf("unexpected message %+v", pub.msgs[0])
	}

	got, err := svc.GetGoal(ctx, "p1", 2025)
	if err != nil || got.ProducerName != "Ana" {
		t.Fatalf("GetGoal = %+v err=%v", got, err)
	}

	pub.err = errors.New("broker down")
	if err := svc.SaveGoal(ctx, goal("p2", "Bruno", 2025, 1)); err != nil {
		t.Fatalf("publish failure must not fail the save: %v", err)
	}
	if err := svc.SaveGoal(ctx, goal("p2", "Bruno", 1990, 1)); !errors.Is(err, core.ErrInvalidYear) {
		t.Fatalf("expected ErrInvalidYear, got %v", err)
	}
}

func TestExportServiceRequestSync(t *testing.T) {
	ctx := context.Background()
	_, esc, _ := newStack(t)

	if _, err := NewExportService(esc, nil, nil, ExportOptions{}).RequestSync(ctx, 2025); !errors.Is(err, ErrSyncUnavailable) {
		t.Fatalf("expected ErrSyncUnavailable, got %v", err)
	}

	pub := &fakePublisher{err: errors.New("broker down")}
	if _, err := NewExportService(esc, pub, nil, ExportOptions{}).RequestSync(ctx, 2025); err == nil {
		t.Fatal("publish failure without a job store should fail")
	}
	jobs := &fakeJobs{}
	id, err := NewExportService(esc, pub, jobs, ExportOptions{}).RequestSync(ctx, 2025)
	if err != nil || id == "" || jobs.ids[0] != id {
		t.Fatalf("recorded job should be returned, id=%q err=%v", id, err)
	}
}

func TestExportServiceWrite(t *testing.T) {
	ctx := context.Background()
	store, esc, _ := newStack(t)
	exp := NewExportService(esc, nil, nil, ExportOptions{})

	var buf bytes.Buffer
	if err := exp.Write(ctx, &buf, 2025, export.FormatCSV); !errors.Is(err, export.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if err := store.SaveGoal(ctx, goal("p1", "Ana", 2025, 10, 10)); err != nil {
		t.Fatalf("SaveGoal: %v", err)
	}
	if err := exp.Write(ctx, &buf, 2025, export.FormatCSV); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "Ana;2025;10,00;10,00;0,00") {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}

func TestQuoteService(t *testing.T) {
	ctx := context.Background()
	store := memory.New(nil)
	svc := NewQuoteService(store, store, store)
	day := func(m int) time.Time { return time.Date(2025, time.Month(m), 10, 0, 0, 0, 0, time.UTC) }

	quotes := []core.Quote{
		{CNPJ: "12.345.678/0001-90", ClientName: "Acme", Branch: "Auto", Insurer: "Porto", ProducerID: "p1", Premium: core.FromUnits(300), Status: core.QuoteClosed, Date: day(1)},
		{CNPJ: "12345678000190", ClientName: "Acme", Branch: "Auto", Insurer: "Porto", ProducerID: "p1", Premium: core.FromUnits(100), Status: core.QuoteOpen, Date: day(2)},
		{CNPJ: "98765432000110", ClientName: "Beta", Branch: "Vida", Insurer: "Allianz", ProducerID: "p2", Premium: core.FromUnits(600), Status: core.QuoteClosed, Date: day(2)},
	}
	for _, q := range quotes {
		if _, err := svc.AddQuote(ctx, q); err != nil {
			t.Fatalf("AddQuote: %v", err)
		}
	}
	if _, err := svc.AddQuote(ctx, core.Quote{CNPJ: "1", Status: "x", Date: day(1)}); !errors.Is(err, core.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	sum, err := svc.Summary(ctx, 2025)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Count != 3 || sum.Premium != core.FromUnits(1000) || len(sum.Groups) != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if sum.Realized[0] != core.FromUnits(300) || sum.Realized[1] != core.FromUnits(600) {
		t.Fatalf("unexpected realized %v", sum.Realized)
	}
	if sum.ByInsurer[0].Key != "Allianz" || sum.ByInsurer[0].Percent != 60 {
		t.Fatalf("unexpected insurer share %+v", sum.ByInsurer)
	}

	if _, err := svc.Attainment(ctx, "p1", 2025); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.SaveGoal(ctx, goal("p1", "Ana", 2025, 600)); err != nil {
		t.Fatalf("SaveGoal: %v", err)
	}
	att, err := svc.Attainment(ctx, "p1", 2025)
	if err != nil {
		t.Fatalf("Attainment: %v", err)
	}
	if att.Realized != core.FromUnits(300) || att.Percent != 50 {
		t.Fatalf("unexpected attainment %+v", att)
	}
}
