// fedlens: Federal Reserve economic data dashboard.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/seenimoa/fedlens/api"
	"github.com/seenimoa/fedlens/internal/config"
	"github.com/seenimoa/fedlens/internal/dashboard"
	"github.com/seenimoa/fedlens/internal/eras"
	"github.com/seenimoa/fedlens/internal/fetcher"
	"github.com/seenimoa/fedlens/internal/logging"
	"github.com/seenimoa/fedlens/internal/providers"
	"github.com/seenimoa/fedlens/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set by the root PersistentPreRunE.
var (
	cfg *config.Config
	log *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fedlens",
	Short: "fedlens: Federal Reserve economic data dashboard",
	Long: `fedlens fetches economic time series from FRED and derives inflation,
money supply, fiscal and purchasing-power metrics across the gold-standard
and fiat eras.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		log = logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(periodsCmd)
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
}

// requireConfig rejects a configuration nothing can be fetched with.
func requireConfig(cmd *cobra.Command, args []string) error {
	return cfg.Validate()
}

// newFetcher wires the FRED provider behind the series cache.
func newFetcher(onNotice func(models.Notice)) (*fetcher.Fetcher, error) {
	p, err := providers.NewFRED(cfg.FRED)
	if err != nil {
		return nil, fmt.Errorf("FRED provider setup failed: %w", err)
	}
	return fetcher.New(p, fetcher.Options{
		TTL:         cfg.Cache.TTL(),
		Concurrency: cfg.Fetch.Concurrency,
		Logger:      log,
		OnNotice:    onNotice,
	}), nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fedlens %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and API key status",
	RunE: func(cmd *cobra.Command, args []string) error {
		printStatus(cmd.OutOrStdout(), cfg, version, commit)
		return nil
	},
}

// --- Periods Command ---

var periodsCmd = &cobra.Command{
	Use:   "periods",
	Short: "List the selectable historical periods",
	RunE: func(cmd *cobra.Command, args []string) error {
		printPeriods(cmd.OutOrStdout(), time.Now())
		return nil
	},
}

// --- Series Command ---

var seriesCmd = &cobra.Command{
	Use:   "series [KEY]",
	Short: "Fetch one FRED series",
	Long: `Fetch one FRED series for a period or an explicit date range.

Examples:
  fedlens series CPIAUCSL
  fedlens series M2SL --period "Last 20 Years"
  fedlens series GDP --start 1971-08-15 --end 2000-12-31`,
	Args:    cobra.ExactArgs(1),
	PreRunE: requireConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		period, _ := cmd.Flags().GetString("period")
		tail, _ := cmd.Flags().GetInt("tail")

		rng := eras.ResolveRange(period, time.Now())
		if start != "" || end != "" {
			var err error
			if rng, err = eras.ParseRange(start, end); err != nil {
				return err
			}
		}

		f, err := newFetcher(nil)
		if err != nil {
			return err
		}
		key := normalizeKey(args[0])
		s, err := f.Fetch(cmd.Context(), key, rng)
		out := cmd.OutOrStdout()
		if err != nil {
			printNotices(out, []models.Notice{fetcher.FailureNotice(key, err)})
		}
		printSeries(out, s, rng, tail)
		return nil
	},
}

func init() {
	seriesCmd.Flags().String("start", "", "first observation date (YYYY-MM-DD)")
	seriesCmd.Flags().String("end", "", "last observation date (YYYY-MM-DD)")
	seriesCmd.Flags().String("period", eras.PeriodSinceNixonShock, "period label (see 'fedlens periods')")
	seriesCmd.Flags().Int("tail", 12, "number of most recent observations to print")
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [analysis]",
	Short: "Run a dashboard analysis",
	Long: `Run a dashboard analysis over a period.

Analyses: complete, fiscal, monetary, debasement, bretton-woods, fiat, two-eras`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: analysisNames(),
	PreRunE:   requireConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := dashboard.ParseAnalysis(args[0])
		if err != nil {
			return err
		}
		period, _ := cmd.Flags().GetString("period")
		asJSON, _ := cmd.Flags().GetBool("json")

		f, err := newFetcher(nil)
		if err != nil {
			return err
		}
		svc := dashboard.NewService(f, dashboard.Options{
			Concurrency: cfg.Fetch.Concurrency,
			Logger:      log,
		})
		rep, err := svc.Run(cmd.Context(), dashboard.Request{Analysis: name, Period: period})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		printReport(out, rep)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("period", eras.PeriodSinceNixonShock, "period label (see 'fedlens periods')")
	analyzeCmd.Flags().Bool("json", false, "print the full report as JSON")
}

func analysisNames() []string {
	infos := dashboard.Analyses()
	names := make([]string, 0, len(infos))
	for _, a := range infos {
		names = append(names, string(a.Name))
	}
	return names
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the HTTP API server",
	PreRunE: requireConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.API.Addr()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		hub := api.NewWSHub(log)
		f, err := newFetcher(hub.BroadcastNotice)
		if err != nil {
			return err
		}
		srv := api.NewServer(api.Options{
			Config: cfg,
			Source: f,
			Dashboard: dashboard.NewService(f, dashboard.Options{
				Concurrency: cfg.Fetch.Concurrency,
				Logger:      log,
			}),
			Hub:     hub,
			Logger:  log,
			Version: version,
		})

		fmt.Fprintf(cmd.OutOrStdout(), "Starting fedlens API server on %s\n", addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: api.host:api.port from config)")
}
