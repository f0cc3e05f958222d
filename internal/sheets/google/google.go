package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"metas/internal/export"
	ports "metas/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client writes escadinha tables into a Google spreadsheet, one tab per year.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

var _ ports.EscadinhaExporter = (*Client)(nil)

// Options configures a Client. Exactly one credentials source is used,
// CredentialsJSON taking precedence over CredentialsFile.
type Options struct {
	SpreadsheetID   string
	SheetBase       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentialsJSON(ctx, opts)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", opts.SpreadsheetID)
	return NewWithService(svc, opts.SpreadsheetID, opts.SheetBase), nil
}

// NewFromEnv reads GOOGLE_SPREADSHEET_ID, ESCADINHA_SHEET_NAME and the
// service account variables from the environment.
func NewFromEnv(ctx context.Context) (*Client, error) {
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return New(ctx, Options{
		SpreadsheetID:   strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")),
		SheetBase:       strings.TrimSpace(os.Getenv("ESCADINHA_SHEET_NAME")),
		CredentialsJSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		CredentialsFile: file,
	})
}

// NewWithService wraps an existing service. Used by tests to point the
// client at a local endpoint.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetBase string) *Client {
	if strings.TrimSpace(sheetBase) == "" {
		sheetBase = "Escadinha"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: strings.TrimSpace(sheetBase)}
}

func credentialsJSON(ctx context.Context, opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read credentials file", "path", opts.CredentialsFile, "size", len(b))
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportEscadinha replaces the content of the "<base> <year>" tab with the
// table, creating the tab when missing. It returns the updated range.
func (c *Client) ExportEscadinha(ctx context.Context, t export.Table) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if len(t.Rows) == 0 {
		return "", export.ErrNoData
	}
	name := export.SheetName(c.sheetBase, t.Year)
	if err := c.ensureSheet(ctx, name); err != nil {
		return "", err
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quoteSheet(name), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", name, err)
	}

	vr := &gsheet.ValueRange{Values: t.Matrix()}
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, quoteSheet(name)+"!A1", vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update sheet %s: %w", name, err)
	}
	ref := resp.UpdatedRange
	if ref == "" {
		ref = quoteSheet(name) + "!A1"
	}
	return ref, nil
}

// ensureSheet adds a tab named title unless one already exists.
func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	if hasSheet(ss, title) {
		return nil
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	slog.InfoContext(ctx, "Created escadinha sheet", "sheet", title)
	return nil
}

func hasSheet(ss *gsheet.Spreadsheet, title string) bool {
	if ss == nil {
		return false
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && strings.EqualFold(strings.TrimSpace(s.Properties.Title), title) {
			return true
		}
	}
	return false
}

// quoteSheet wraps a tab name in single quotes for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
