// Package main provides the retitle CLI entry point.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/retitle/internal/batch"
	"github.com/matsen/retitle/internal/config"
	"github.com/matsen/retitle/internal/crossref"
	"github.com/matsen/retitle/internal/filename"
	"github.com/matsen/retitle/internal/identify"
	"github.com/matsen/retitle/internal/logging"
	"github.com/matsen/retitle/internal/pdf"
)

// Version is set at build time via ldflags
var Version = "dev"

// jsonOutput controls whether command output is machine readable.
var jsonOutput bool

var (
	flagDryRun     bool
	flagRecursive  bool
	flagNoCrossref bool
	flagPages      int
	flagMaxLen     int
	flagStyle      string
	flagUnmatched  string
	flagTimeout    int
	flagWorkers    int
	flagYes        bool
	flagVerbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "retitle <directory>",
	Short: "Rename PDF files after the papers inside them",
	Long: `retitle scans a folder of PDFs, works out each paper's title and year
from its metadata, body text, and DOI registry record, and renames the
files to a consistent pattern ("2017 - Title.pdf" or "Title (2017).pdf").

Every run previews before it touches anything:
  - files already carrying the right name are left alone
  - name collisions get " (2)", " (3)" markers instead of overwrites
  - files without a recognizable title move to an unmatched folder
  - nothing is renamed until you confirm (or pass --yes)

Settings live in an XDG config file (see 'retitle config'); flags
override them for a single run.

Environment variables:
  CROSSREF_MAILTO  contact address sent to the Crossref polite pool`,
	Args:          cobra.ExactArgs(1),
	RunE:          runRoot,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env if present (for CROSSREF_MAILTO)
	_ = godotenv.Load()

	def := config.Default()
	flags := rootCmd.Flags()
	flags.BoolVar(&flagDryRun, "dry-run", false, "Preview only, rename nothing")
	flags.BoolVar(&flagRecursive, "recursive", false, "Descend into subdirectories")
	flags.BoolVar(&flagNoCrossref, "no-crossref", false, "Skip DOI registry lookups")
	flags.IntVar(&flagPages, "pages", def.Pages, "Pages of body text to read per document")
	flags.IntVar(&flagMaxLen, "maxlen", def.MaxLen, "Longest allowed filename, extension included")
	flags.StringVar(&flagStyle, "style", def.Style, "Year placement: prefix or suffix")
	flags.StringVar(&flagUnmatched, "unmatched-dir", def.UnmatchedDir, "Folder for files without a usable title")
	flags.IntVar(&flagTimeout, "timeout", def.Crossref.Timeout, "Crossref request timeout in seconds")
	flags.IntVar(&flagWorkers, "workers", def.Workers, "Preview worker count")
	flags.BoolVar(&flagYes, "yes", false, "Commit without asking")
	flags.BoolVar(&flagVerbose, "verbose", false, "Debug logging")

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Machine-readable JSON output")
	rootCmd.Version = Version
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	applyOverrides(cmd, &cfg)

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	mgr := mustBuildManager(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := mgr.NewRun(config.ExpandPath(args[0]))
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if err := mgr.Scan(run); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if len(run.Files) == 0 {
		if jsonOutput {
			outputJSON(runResponse(run))
		} else {
			fmt.Printf("No PDF files under %s.\n", run.Root)
		}
		return nil
	}

	if err := mgr.Preview(ctx, run); err != nil {
		if errors.Is(err, batch.ErrCancelled) {
			exitWithError(ExitError, "cancelled during preview")
		}
		exitWithError(ExitError, "%v", err)
	}

	if !jsonOutput {
		fmt.Println(renderPlanTable(run.Root, run.Plans))
		fmt.Println(tallyPlans(run.Plans))
	}

	if flagDryRun {
		if jsonOutput {
			outputJSON(runResponse(run))
		} else {
			fmt.Println("Dry run; nothing renamed.")
		}
		return nil
	}
	if run.SelectedCount() == 0 {
		if jsonOutput {
			outputJSON(runResponse(run))
		} else {
			fmt.Println("Nothing to rename.")
		}
		return nil
	}

	if !flagYes {
		if jsonOutput {
			// Agent mode never prompts; the preview is the answer.
			outputJSON(runResponse(run))
			return nil
		}
		if !isTerminal(os.Stdin) {
			fmt.Println("stdin is not a terminal; pass --yes to commit")
			return nil
		}
		if !confirm(fmt.Sprintf("Rename %d files? [y/N] ", run.SelectedCount())) {
			fmt.Println("Aborted.")
			os.Exit(ExitError)
		}
	}

	if err := mgr.Commit(ctx, run); err != nil {
		if errors.Is(err, batch.ErrCancelled) {
			exitWithError(ExitError, "cancelled after %d renames", run.Succeeded)
		}
		exitWithError(ExitError, "%v", err)
	}

	if jsonOutput {
		outputJSON(runResponse(run))
		return nil
	}
	fmt.Printf("Renamed %d, failed %d, skipped %d.\n", run.Succeeded, run.Failed, run.Skipped)
	if run.Failed > 0 {
		fmt.Print(renderFailures(run.Root, run.Plans))
	}
	return nil
}

// mustLoadConfig loads the stored settings, exits on error.
func mustLoadConfig() config.Settings {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// applyOverrides layers changed flags over the stored settings.
func applyOverrides(cmd *cobra.Command, cfg *config.Settings) {
	flags := cmd.Flags()
	if flags.Changed("style") {
		cfg.Style = flagStyle
	}
	if flags.Changed("maxlen") {
		cfg.MaxLen = flagMaxLen
	}
	if flags.Changed("pages") {
		cfg.Pages = flagPages
	}
	if flags.Changed("workers") {
		cfg.Workers = flagWorkers
	}
	if flags.Changed("unmatched-dir") {
		cfg.UnmatchedDir = flagUnmatched
	}
	if flags.Changed("timeout") {
		cfg.Crossref.Timeout = flagTimeout
	}
	if flagNoCrossref {
		cfg.Crossref.Enabled = false
	}
	if flagVerbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
}

// mustBuildManager assembles the pipeline from settings, exits on error.
func mustBuildManager(cfg config.Settings, logger *slog.Logger) *batch.Manager {
	var lookup crossref.Lookup
	if cfg.Crossref.Enabled {
		lookup = crossref.NewClient(
			crossref.WithMailto(cfg.Crossref.Mailto),
			crossref.WithTimeout(time.Duration(cfg.Crossref.Timeout)*time.Second),
			crossref.WithRateLimit(cfg.Crossref.Rate),
		)
	}
	mgr, err := batch.NewManager(batch.Config{
		Loader:       pdf.NewLoader(cfg.Pages),
		Extractor:    identify.NewExtractor(),
		Lookup:       lookup,
		Style:        filename.Style(cfg.Style),
		MaxLen:       cfg.MaxLen,
		Workers:      cfg.Workers,
		UnmatchedDir: cfg.UnmatchedDir,
		Recursive:    flagRecursive,
		Logger:       logging.WithComponent(logger, "batch"),
		Progress:     progressLine(),
	})
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return mgr
}

// confirm prints a prompt and reads a y/N answer from stdin.
func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.ToLower(strings.TrimSpace(input)) == "y"
}

// progressLineWidth is the width needed to clear the entire progress
// line. Must cover the phase label, both counters, and the file name.
const progressLineWidth = 72

// progressLine writes an in-place status line to stderr while a phase
// runs. Off for JSON output or when stderr is not a terminal.
func progressLine() func(batch.Progress) {
	if jsonOutput || !isTerminal(os.Stderr) {
		return nil
	}
	return func(p batch.Progress) {
		line := fmt.Sprintf("%s %d/%d  %s",
			p.Phase, p.Processed, p.Total, truncateString(filepath.Base(p.Current), 44))
		fmt.Fprintf(os.Stderr, "\r%-*s", progressLineWidth, line)
		if p.Processed == p.Total {
			fmt.Fprintf(os.Stderr, "\r%*s\r", progressLineWidth, "")
		}
	}
}
