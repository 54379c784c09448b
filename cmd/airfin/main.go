// airfin extracts normalized annual statements for US airlines from SEC
// filings, reconciles them and stores the result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"airline_financials/pkg/core/config"
	"airline_financials/pkg/core/logging"
	"airline_financials/pkg/core/pipeline"
	"airline_financials/pkg/core/report"
	"airline_financials/pkg/core/store"
	"airline_financials/pkg/core/validate"
	"airline_financials/pkg/core/xbrl"
	"airline_financials/pkg/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "airfin",
	Short:         "Airline SEC filing extraction and reconciliation",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Log.Level = level
		}
		logger, err = logging.New(cfg.Log)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		store.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (YAML)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	extractCmd.Flags().StringP("ticker", "t", "", "company ticker (required)")
	extractCmd.Flags().StringP("dir", "d", "", "filing directory (default: <data_dir>/<TICKER>)")
	extractCmd.Flags().Int("workers", 0, "parallel units (default from config)")
	extractCmd.Flags().Bool("skip-existing", false, "reuse finalized records already stored")
	extractCmd.Flags().String("report", "", "write the audit report to this file")
	extractCmd.Flags().String("format", "markdown", "report format (markdown, html)")
	_ = extractCmd.MarkFlagRequired("ticker")

	inspectCmd.Flags().StringP("filter", "f", "", "only concepts containing this text")

	showCmd.Flags().StringP("ticker", "t", "", "company ticker (required)")
	showCmd.Flags().IntP("year", "y", 0, "fiscal year (omit to list stored years)")
	_ = showCmd.MarkFlagRequired("ticker")

	rootCmd.AddCommand(versionCmd, extractCmd, inspectCmd, showCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("airfin %s (commit %s)\n", version, commit)
	},
}

// --- Extract Command ---

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract, reconcile and store statements from a directory of filings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ticker, _ := cmd.Flags().GetString("ticker")
		ticker = strings.ToUpper(ticker)
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = filepath.Join(cfg.Pipeline.DataDir, ticker)
		}

		repo, err := openRepository(ctx)
		if err != nil {
			return err
		}
		orch, err := newOrchestrator(repo)
		if err != nil {
			return err
		}
		if n, _ := cmd.Flags().GetInt("workers"); n > 0 {
			orch.SetWorkers(n)
		}
		skip, _ := cmd.Flags().GetBool("skip-existing")
		orch.SetSkipExisting(skip)

		docs, err := pipeline.LoadFilings(dir, ticker)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return fmt.Errorf("no filings found in %s", dir)
		}

		res, err := orch.Run(ctx, docs)
		if err != nil {
			return err
		}
		for _, f := range res.Failures {
			fmt.Fprintf(os.Stderr, "skipped: %v\n", f)
		}
		for _, key := range res.Unsaved {
			fmt.Fprintf(os.Stderr, "not saved: %s\n", key)
		}

		if path, _ := cmd.Flags().GetString("report"); path != "" {
			format, _ := cmd.Flags().GetString("format")
			if err := writeReport(path, res.Records, report.Format(format)); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Records)
	},
}

func newOrchestrator(repo store.RecordRepository) (*pipeline.Orchestrator, error) {
	concepts := xbrl.DefaultConcepts
	if cfg.Concepts.Overrides != "" {
		overrides, err := xbrl.LoadConceptOverrides(cfg.Concepts.Overrides)
		if err != nil {
			return nil, err
		}
		concepts = xbrl.ApplyOverrides(concepts, overrides)
	}
	engine := validate.NewEngine(cfg.Validation, logger)
	orch := pipeline.NewOrchestrator(concepts, engine, logger)
	orch.SetRepository(repo)
	orch.SetWorkers(cfg.Pipeline.Workers)
	return orch, nil
}

// openRepository prefers Postgres when a URL is configured and falls back to
// the file store. Either way reads go through the record cache.
func openRepository(ctx context.Context) (store.RecordRepository, error) {
	var repo store.RecordRepository
	if cfg.Database.URL != "" {
		if err := store.InitDB(ctx, cfg.Database.URL); err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx, store.GetPool()); err != nil {
			return nil, err
		}
		repo = store.NewPGRepository(store.GetPool())
	} else {
		fr, err := store.NewFileRepository(cfg.Pipeline.StoreDir)
		if err != nil {
			return nil, err
		}
		repo = fr
	}
	return store.NewRecordCache(repo, cfg.Cache.Size, cfg.Cache.TTL, logger), nil
}

func writeReport(path string, records []*models.StatementRecord, format report.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := report.Write(f, records, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// --- Inspect Command ---

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "List the facts of an XBRL or inline XBRL document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, _ := cmd.Flags().GetString("filter")
		content, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		doc, err := xbrl.ParseBytes(content)
		if err != nil {
			return &models.DocumentParseError{Path: args[0], Format: models.DetectFormat(args[0], content), Err: err}
		}

		fmt.Printf("fiscal year: %d  company prefix: %q  inline: %v\n",
			doc.FiscalYear(args[0]), doc.CompanyPrefix(), doc.IsInline())

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CONCEPT\tCONTEXT\tVALUE\tSCALE")
		facts := doc.Facts(filter)
		for _, f := range facts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Concept, f.ContextRef, f.Value, f.Scale)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("%d facts\n", len(facts))
		return nil
	},
}

// --- Show Command ---

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a stored record, or list stored years for a ticker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ticker, _ := cmd.Flags().GetString("ticker")
		year, _ := cmd.Flags().GetInt("year")

		repo, err := openRepository(ctx)
		if err != nil {
			return err
		}
		if year == 0 {
			years, err := repo.List(ctx, ticker)
			if err != nil {
				return err
			}
			for _, y := range years {
				fmt.Println(y)
			}
			return nil
		}

		rec, err := repo.Load(ctx, ticker, year)
		if errors.Is(err, store.ErrRecordNotFound) {
			return fmt.Errorf("nothing stored for %s %d", strings.ToUpper(ticker), year)
		}
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}
