// Command escadinha computes staircase goals from the command line and
// exports stored years to xlsx or csv files.
//
//	escadinha compute 1000 1000 1000 1000 1000 1000 1000 1000 1000 1000 1000 1000
//	escadinha export --year 2025 --format csv --out metas.csv
//	escadinha sync --year 2025
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"metas/internal/backend"
	"metas/internal/cli"
	"metas/internal/config"
	"metas/internal/core"
	"metas/internal/export"
	"metas/internal/log"
	"metas/internal/services"
)

func main() {
	cli.LoadEnvFile()
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "escadinha: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "escadinha",
		Short:         "Staircase goal calculator and exporter",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newComputeCmd(), newExportCmd(), newSyncCmd())
	return root
}

func newComputeCmd() *cobra.Command {
	var thresholds string
	cmd := &cobra.Command{
		Use:   "compute <jan> <fev> ... <dez>",
		Short: "Print the simple and staircase accumulation of twelve monthly values",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompute(cmd.OutOrStdout(), args, thresholds)
		},
	}
	cmd.Flags().StringVar(&thresholds, "thresholds", "", "comma separated thresholds in reais")
	return cmd
}

func runCompute(stdout io.Writer, args []string, thresholds string) error {
	if len(args) != core.MonthsInYear {
		return fmt.Errorf("expected %d monthly values, got %d", core.MonthsInYear, len(args))
	}

	var monthly [core.MonthsInYear]core.Money
	for i, v := range args {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			return fmt.Errorf("%s: %w", core.MonthKeys[i], err)
		}
		monthly[i] = core.Money{Cents: cents}
	}

	limits, err := parseThresholds(thresholds)
	if err != nil {
		return err
	}
	e, err := services.NewEscadinhaService(nil, nil, limits).Compute(monthly)
	if err != nil {
		return err
	}
	printEscadinha(stdout, e)
	return nil
}

func parseThresholds(s string) ([]core.Money, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []core.Money
	for _, part := range strings.Split(s, ",") {
		cents, err := core.ParseDecimalToCents(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("threshold %q: %w", part, err)
		}
		if cents <= 0 {
			return nil, fmt.Errorf("threshold %q: must be positive", part)
		}
		out = append(out, core.Money{Cents: cents})
	}
	return out, nil
}

func printEscadinha(w io.Writer, e core.Escadinha) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Mês\tMensal\tAcumulado\tEscadinha\t")
	for i := range core.MonthsInYear {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			core.MonthLabels[i],
			core.FormatBRL(e.Monthly[i]),
			core.FormatBRL(e.Simple[i]),
			core.FormatBRL(e.Staircase[i]))
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nTotal anual: %s\n", e.Insights.TotalAnnual)
	if j := e.Insights.LargestJump; j != nil {
		fmt.Fprintf(w, "Maior salto: %s -> %s (%s)\n", j.From, j.To, j.Amount)
	}
	for _, c := range e.Insights.Crossings {
		fmt.Fprintf(w, "%s atingido em %s (%s)\n", c.Threshold, c.Month, c.Value)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	quiet := log.New(log.Config{Output: io.Discard})
	return backend.NewFactory(quiet).CreateBackend(ctx, bcfg)
}

func validYear(year int) error {
	if year < 2000 || year > 2100 {
		return fmt.Errorf("invalid --year %d", year)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cfg := config.Load()
	var (
		year   int
		format string
		out    string
		dbPath string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a stored year to an xlsx or csv file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.SQLiteDBPath = dbPath
			return runExport(cmd.Context(), cmd.OutOrStdout(), cfg, year, format, out)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "goal year")
	cmd.Flags().StringVar(&format, "format", "xlsx", "xlsx or csv")
	cmd.Flags().StringVar(&out, "out", "", "output file (default metas_escadinha_<year>.<ext>)")
	cmd.Flags().StringVar(&dbPath, "db", cfg.SQLiteDBPath, "SQLite database path")
	return cmd
}

func runExport(ctx context.Context, stdout io.Writer, cfg *config.Config, year int, format, out string) error {
	if err := validYear(year); err != nil {
		return err
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	if out == "" {
		out = export.Filename(year, f)
	}

	cfg.DataBackend = string(backend.SQLiteBackend)
	cfg.AMQPURL = ""
	res, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer res.Close()

	escadinha := services.NewEscadinhaService(res.Backend, nil, cfg.Thresholds)
	table, err := services.NewExportService(escadinha, nil, nil, services.ExportOptions{}).Table(ctx, year)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := export.WriteTo(file, table, f); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%d produtores exportados para %s\n", len(table.Rows), out)
	return nil
}

func newSyncCmd() *cobra.Command {
	cfg := config.Load()
	var (
		year   int
		target string
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Request an export of a year through the broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), cmd.OutOrStdout(), cfg, year, target)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "goal year")
	cmd.Flags().StringVar(&target, "target", cfg.ExportTarget, "sheets or file")
	return cmd
}

func runSync(ctx context.Context, stdout io.Writer, cfg *config.Config, year int, target string) error {
	if err := validYear(year); err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is not set")
	}

	res, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer res.Close()

	escadinha := services.NewEscadinhaService(res.Backend, nil, cfg.Thresholds)
	exports := services.NewExportService(escadinha, res.Publisher(), res.JobRecorder(), services.ExportOptions{Target: target})
	id, err := exports.RequestSync(ctx, year)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "export %s requested for %d (%s)\n", id, year, target)
	return nil
}
