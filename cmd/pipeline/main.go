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
	"sync"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"tdnet_xbrl/pkg/core/config"
	"tdnet_xbrl/pkg/core/extract"
	"tdnet_xbrl/pkg/core/fileio"
	"tdnet_xbrl/pkg/core/filename"
	"tdnet_xbrl/pkg/core/observability"
	"tdnet_xbrl/pkg/core/period"
	"tdnet_xbrl/pkg/core/pipeline"
	"tdnet_xbrl/pkg/core/report"
	"tdnet_xbrl/pkg/core/store"
)

var (
	cfgFile    string
	noColor    bool
	quiet      bool
	storageArg string
)

var rootCmd = &cobra.Command{
	Use:   "tdnet-pipeline",
	Short: "Extract financial facts from TDnet inline-XBRL disclosures",
	Long: `tdnet-pipeline reads TDnet summary disclosures laid out one folder per
company code, extracts balance-sheet and income-statement facts, checks them
and stores one record per document.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default config/tdnet.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print results and errors")
	rootCmd.PersistentFlags().StringVar(&storageArg, "storage", "", "override storage kind (none, file, sqlite, postgres, redis)")

	rootCmd.AddCommand(newRunCmd(), newFileCmd(), newClassifyCmd(), newReportCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setup loads the environment and configuration and builds the logger.
func setup() (*config.Config, *observability.Logger, *UI, error) {
	ui := NewUI(noColor, quiet)
	if err := config.LoadEnv(); err != nil {
		ui.Warning("%v", err)
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, ui, err
	}
	if err := cfg.OverrideStorage(storageArg); err != nil {
		return nil, nil, ui, fmt.Errorf("--storage %s: %w", storageArg, err)
	}
	return cfg, cfg.Logger("tdnet-pipeline"), ui, nil
}

// =============================================================================
// run
// =============================================================================

func newRunCmd() *cobra.Command {
	var (
		company    string
		reportPath string
		quarterly  bool
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "run <root>",
		Short: "Extract every company folder under root",
		Long: `Run plans the statement files of each company folder (balance sheet then
income statement; annual, quarterly, semiannual; consolidated before
standalone), extracts them in parallel, validates the records and saves them
to the configured store. --report writes a Markdown or HTML summary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, ui, err := setup()
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.Extraction.Workers = workers
			}

			sink, err := store.Open(ctx, cfg.Storage)
			if err != nil {
				ui.Error("failed to open %s storage: %v", cfg.Storage.Kind, err)
				return err
			}
			defer sink.Close()

			orch := extract.NewOrchestrator(cfg.OrchestratorOptions(logger))
			batch := extract.NewBatch(orch, cfg.Extraction.Workers, cfg.Extraction.DocumentTimeout, logger)

			var (
				mu  sync.Mutex
				bar *progressbar.ProgressBar
			)
			batch.OnProgress(func(done, total int) {
				mu.Lock()
				defer mu.Unlock()
				if bar == nil || bar.IsFinished() {
					bar = ui.ProgressBar(total, "extracting")
				}
				if bar != nil {
					_ = bar.Add(1)
				}
			})

			p := pipeline.NewPipelineOrchestrator(batch, sink, logger)

			root := args[0]
			var results []*pipeline.CompanyResult
			if company != "" {
				res, err := p.RunForCompany(ctx, filepath.Join(root, company))
				if err != nil {
					ui.Error("%s: %v", company, err)
					return err
				}
				results = append(results, res)
			} else {
				results, err = p.RunAll(ctx, root)
				if err != nil {
					ui.Error("run interrupted: %v", err)
					return err
				}
			}
			if len(results) == 0 {
				ui.Warning("no company folders with statement files under %s", root)
				return nil
			}

			var all []*extract.Record
			for _, res := range results {
				printCompany(ui, res)
				all = append(all, res.Records...)
			}

			if reportPath != "" {
				if quarterly {
					all = report.ToQuarterly(all)
				}
				report.SortChronologically(all)
				if err := report.WriteFile(reportPath, "TDnet financial facts", all); err != nil {
					ui.Error("%v", err)
					return err
				}
				ui.Success("report written to %s", reportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "process only this company folder (e.g. 1301)")
	cmd.Flags().StringVarP(&reportPath, "report", "o", "", "write a report (.md or .html)")
	cmd.Flags().BoolVar(&quarterly, "quarterly", false, "convert cumulative income statements to single quarters in the report")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel extractions (default from config)")
	return cmd
}

func printCompany(ui *UI, res *pipeline.CompanyResult) {
	code := filepath.Base(res.CompanyDir)
	ui.Section(code)
	ui.Success("%d records, %d failed in %s", len(res.Records), len(res.Failures), res.Elapsed.Round(time.Millisecond))
	for _, f := range res.Failures {
		ui.Warning("%s: %v", f.DocumentID, f.Err)
	}
	for _, rec := range res.Records {
		if missing := rec.Missing(); len(missing) > 0 {
			ui.Info("%s: missing %s", rec.DocumentID, strings.Join(missing, ", "))
		}
	}
	for _, l := range res.Linkages {
		if !l.AllPassed {
			ui.Warning("FY%d: %s", l.FiscalYear, strings.Join(l.FailedChecks, "; "))
		}
	}
	if res.Benford != nil && res.Benford.Flagged {
		ui.Warning("leading digits: %s (MAD %.4f over %d values)", res.Benford.Level, res.Benford.MAD, res.Benford.TotalCount)
	}
}

// =============================================================================
// file
// =============================================================================

func newFileCmd() *cobra.Command {
	var statement string

	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Extract one document and print the record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, ui, err := setup()
			if err != nil {
				return err
			}

			in, err := fileio.ReadInput(args[0])
			if err != nil {
				ui.Error("%v", err)
				return err
			}
			switch filename.StatementKind(strings.ToLower(statement)) {
			case filename.BalanceSheet:
				in.Statement = filename.BalanceSheet
			case filename.IncomeStatement:
				in.Statement = filename.IncomeStatement
			case filename.StatementUnknown:
			default:
				return fmt.Errorf("unknown statement %q (want bs or pl)", statement)
			}

			orch := extract.NewOrchestrator(cfg.OrchestratorOptions(logger))
			stop := ui.Spinner("extracting " + filepath.Base(args[0]))
			rec, err := orch.Extract(cmd.Context(), in)
			stop()
			if err != nil {
				if errors.Is(err, extract.ErrUnrecognizedDocument) {
					ui.Error("%s is neither a balance sheet nor an income statement", args[0])
				}
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(rec)
		},
	}
	cmd.Flags().StringVar(&statement, "statement", "", "force the statement kind (bs or pl)")
	return cmd
}

// =============================================================================
// classify
// =============================================================================

func newClassifyCmd() *cobra.Command {
	var companyCode, endDate string

	cmd := &cobra.Command{
		Use:   "classify <path>",
		Short: "Print the quarter (and fiscal year) of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, ui, err := setup()
			if err != nil {
				return err
			}
			in, err := fileio.ReadInput(args[0])
			if err != nil {
				ui.Error("%v", err)
				return err
			}

			if info, err := filename.Parse(in.Filename); err == nil {
				if companyCode == "" {
					companyCode = info.CompanyCode
				}
				if endDate == "" {
					endDate = info.PeriodEndDate()
				}
			}

			q := period.ClassifyQuarter(string(in.Content))
			line := string(q)
			if endDate != "" {
				fy := period.NewFiscalYearCalculator(cfg.Calendar()).Calculate(companyCode, endDate, q, nil)
				if fy != nil {
					line = fmt.Sprintf("%s FY%d", q, *fy)
				}
			}
			fmt.Println(line)
			return nil
		},
	}
	cmd.Flags().StringVar(&companyCode, "company", "", "company code for the fiscal calendar (default from file name)")
	cmd.Flags().StringVar(&endDate, "end", "", "period end date YYYY-MM-DD (default from file name)")
	return cmd
}

// =============================================================================
// report
// =============================================================================

func newReportCmd() *cobra.Command {
	var (
		out       string
		quarterly bool
	)

	cmd := &cobra.Command{
		Use:   "report <company-code>...",
		Short: "Write a report from stored records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, _, ui, err := setup()
			if err != nil {
				return err
			}
			if cfg.Storage.Kind == "" || cfg.Storage.Kind == config.StorageNone {
				return fmt.Errorf("report needs a storage backend (--storage or storage.kind)")
			}

			records, err := store.Open(ctx, cfg.Storage)
			if err != nil {
				ui.Error("failed to open %s storage: %v", cfg.Storage.Kind, err)
				return err
			}
			defer records.Close()

			var all []*extract.Record
			for _, code := range args {
				recs, err := records.ListByCompany(ctx, filename.CompanyCode(code))
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					ui.Warning("no stored records for %s", code)
				}
				all = append(all, recs...)
			}
			if quarterly {
				all = report.ToQuarterly(all)
			}
			report.SortChronologically(all)

			title := strings.Join(args, ", ") + " financial facts"
			if out == "" {
				fmt.Print(report.Markdown(title, all))
				return nil
			}
			if err := report.WriteFile(out, title, all); err != nil {
				return err
			}
			ui.Success("report written to %s", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (.md or .html); stdout when empty")
	cmd.Flags().BoolVar(&quarterly, "quarterly", false, "convert cumulative income statements to single quarters")
	return cmd
}
