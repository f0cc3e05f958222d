package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"metas/internal/core"
	"metas/internal/export"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets records the calls the client makes against the Sheets REST API.
type fakeSheets struct {
	mu      sync.Mutex
	titles  []string
	added   []string
	cleared []string
	updates []gsheet.ValueRange
	ranges  []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sheet-id"):
		ss := gsheet.Spreadsheet{}
		for _, t := range f.titles {
			ss.Sheets = append(ss.Sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{Title: t}})
		}
		_ = json.NewEncoder(w).Encode(ss)
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			if rq.AddSheet != nil {
				f.added = append(f.added, rq.AddSheet.Properties.Title)
				f.titles = append(f.titles, rq.AddSheet.Properties.Title)
			}
		}
		_ = json.NewEncoder(w).Encode(gsheet.BatchUpdateSpreadsheetResponse{})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.cleared = append(f.cleared, strings.TrimSuffix(path[strings.Index(path, "/values/")+len("/values/"):], ":clear"))
		_ = json.NewEncoder(w).Encode(gsheet.ClearValuesResponse{})
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.updates = append(f.updates, vr)
		rng := path[strings.Index(path, "/values/")+len("/values/"):]
		f.ranges = append(f.ranges, rng+"|"+r.URL.Query().Get("valueInputOption"))
		_ = json.NewEncoder(w).Encode(gsheet.UpdateValuesResponse{UpdatedRange: rng + ":AC4"})
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc, "sheet-id", "")
}

func sampleTable(t *testing.T) export.Table {
	t.Helper()
	g := core.MonthlyGoal{ProducerID: "p1", ProducerName: "Ana", Year: 2025}
	for i := range g.Months {
		g.Months[i] = core.FromUnits(10)
	}
	tbl, err := export.BuildTable(2025, []core.Escadinha{core.BuildEscadinha(g, core.DefaultThresholds)})
	if err != nil {
		t.Fatalf("BuildTable: %v", err)
	}
	return tbl
}

func TestExportEscadinhaCreatesSheet(t *testing.T) {
	fake := &fakeSheets{titles: []string{"Escadinha 2024"}}
	c := newTestClient(t, fake)

	ref, err := c.ExportEscadinha(context.Background(), sampleTable(t))
	if err != nil {
		t.Fatalf("ExportEscadinha: %v", err)
	}
	if ref != "'Escadinha 2025'!A1:AC4" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if len(fake.added) != 1 || fake.added[0] != "Escadinha 2025" {
		t.Fatalf("expected sheet to be added, got %v", fake.added)
	}
	if len(fake.cleared) != 1 || fake.cleared[0] != "'Escadinha 2025'" {
		t.Fatalf("expected sheet to be cleared, got %v", fake.cleared)
	}
	if len(fake.ranges) != 1 || fake.ranges[0] != "'Escadinha 2025'!A1|USER_ENTERED" {
		t.Fatalf("unexpected update ranges %v", fake.ranges)
	}
	values := fake.updates[0].Values
	if len(values) != 3 {
		t.Fatalf("expected header, one row and footer, got %d rows", len(values))
	}
	if values[0][0] != "Produtor" || values[1][0] != "Ana" || values[2][0] != export.FooterLabel {
		t.Fatalf("unexpected first column: %v / %v / %v", values[0][0], values[1][0], values[2][0])
	}
}

func TestExportEscadinhaReusesExistingSheet(t *testing.T) {
	fake := &fakeSheets{titles: []string{"escadinha 2025"}}
	c := newTestClient(t, fake)
	if _, err := c.ExportEscadinha(context.Background(), sampleTable(t)); err != nil {
		t.Fatalf("ExportEscadinha: %v", err)
	}
	if len(fake.added) != 0 {
		t.Fatalf("sheet should not be re-added, got %v", fake.added)
	}
}

func TestExportEscadinhaErrors(t *testing.T) {
	c := &Client{spreadsheetID: "sheet-id", sheetBase: "Escadinha"}
	if _, err := c.ExportEscadinha(context.Background(), sampleTable(t)); err == nil {
		t.Fatal("expected error with nil service")
	}

	c = newTestClient(t, &fakeSheets{})
	if _, err := c.ExportEscadinha(context.Background(), export.Table{Year: 2025}); !errors.Is(err, export.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestNew_MissingConfiguration(t *testing.T) {
	if _, err := New(context.Background(), Options{}); err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := New(context.Background(), Options{SpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = New(context.Background(), Options{SpreadsheetID: "x", CredentialsFile: "/non/existent.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
}

func TestQuoteSheet(t *testing.T) {
	cases := map[string]string{
		"Escadinha 2025": "'Escadinha 2025'",
		"Ana's 2025":     "'Ana''s 2025'",
	}
	for in, want := range cases {
		if got := quoteSheet(in); got != want {
			t.Errorf("quoteSheet(%q) = %q, want %q", in, got, want)
		}
	}
}
