package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/mirror/internal/config"
	"github.com/bamsammich/mirror/internal/event"
	"github.com/bamsammich/mirror/internal/filter"
	"github.com/bamsammich/mirror/internal/logging"
	"github.com/bamsammich/mirror/internal/mirror"
	"github.com/bamsammich/mirror/internal/platform"
	"github.com/bamsammich/mirror/internal/sched"
	"github.com/bamsammich/mirror/internal/stats"
)

var version = "dev"

func main() {
	os.Exit(run())
}

// filterFlag is a custom pflag.Value that preserves CLI ordering of
// --exclude and --include rules by appending to a shared filter.Chain.
type filterFlag struct {
	chain   *filter.Chain
	include bool
}

func (*filterFlag) String() string { return "" }
func (*filterFlag) Type() string   { return "string" }

func (f *filterFlag) Set(val string) error {
	if f.include {
		return f.chain.AddInclude(val)
	}
	return f.chain.AddExclude(val)
}

//nolint:gocyclo // main CLI entry point orchestrates all flag parsing
func run() int {
	var (
		sourceDir   string
		replicaDir  string
		logFile     string
		periodSecs  int
		once        bool
		dryRun      bool
		verbose     bool
		quiet       bool
		noChecksum  bool
		useIOURing  bool
		showVersion bool
		filterFile  string
		minSizeStr  string
		maxSizeStr  string
	)

	chain := filter.NewChain()

	rootCmd := &cobra.Command{
		Use:           "mirror --source DIR --replica DIR --log FILE --period SECONDS",
		Short:         "Periodic one-way folder synchronization",
		Long:          "mirror keeps a replica folder identical to a source folder, reconciling on a fixed period.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "mirror %s\n", version)
				return nil
			}

			// Load optional config file.
			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}
			applyConfigDefaults(cmd, cfg.Defaults, &periodSecs, &noChecksum, &useIOURing)

			opts := config.Options{
				Source:   sourceDir,
				Replica:  replicaDir,
				LogFile:  logFile,
				Period:   periodSecs,
				Checksum: !noChecksum,
				DryRun:   dryRun,
				Once:     once,
				IOURing:  useIOURing,
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			// Load filter file if specified.
			if filterFile != "" {
				if err := chain.LoadFile(filterFile); err != nil {
					return fmt.Errorf("load filter file: %w", err)
				}
			}
			if minSizeStr != "" {
				n, err := filter.ParseSize(minSizeStr)
				if err != nil {
					return fmt.Errorf("invalid --min-size: %w", err)
				}
				chain.SetMinSize(n)
			}
			if maxSizeStr != "" {
				n, err := filter.ParseSize(maxSizeStr)
				if err != nil {
					return fmt.Errorf("invalid --max-size: %w", err)
				}
				chain.SetMaxSize(n)
			}

			// Configure logging: console on stderr, full feed in the log file.
			logLevel := slog.LevelWarn
			if verbose {
				logLevel = slog.LevelDebug
			} else if !quiet {
				logLevel = slog.LevelInfo
			}
			textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})

			lf, err := os.OpenFile(opts.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer lf.Close()
			fileHandler := slog.NewTextHandler(lf, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})

			logger := slog.New(logging.NewMultiHandler(textHandler, fileHandler))
			slog.SetDefault(logger)

			if dryRun {
				slog.Info("dry run mode")
			}

			var copier platform.Copier = platform.DefaultCopier{}
			if useIOURing {
				ring, ringErr := platform.NewIOURingCopier(32)
				switch {
				case ringErr != nil:
					slog.Warn("io_uring setup failed, using default copier", "error", ringErr)
				case ring == nil:
					slog.Warn("io_uring not supported on this kernel, using default copier")
				default:
					defer ring.Close()
					copier = ring
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			collector := stats.NewCollector()
			events := make(chan event.Event, 256)

			var feedWg sync.WaitGroup
			feedWg.Add(1)
			go func() {
				defer feedWg.Done()
				logging.Feed(logger, events)
			}()

			var cycle int64
			job := func(ctx context.Context) {
				cycle++
				res := mirror.Reconcile(ctx, mirror.Config{
					Source:   opts.Source,
					Replica:  opts.Replica,
					Filter:   activeChain(chain),
					Checksum: opts.Checksum,
					DryRun:   opts.DryRun,
					Copier:   copier,
					Events:   events,
					Stats:    collector,
					Cycle:    cycle,
				})
				slog.Info("cycle finished",
					"cycle", cycle,
					"actions", len(res.Applied),
					"errors", len(res.Errors),
				)
			}

			slog.Debug("starting mirror",
				"source", opts.Source,
				"replica", opts.Replica,
				"period", opts.Period,
				"checksum", opts.Checksum,
				"iouring", useIOURing,
			)

			if once {
				job(ctx)
			} else {
				err := (&sched.Scheduler{
					Period: time.Duration(opts.Period) * time.Second,
					Job:    job,
				}).Run(ctx)
				if err != nil {
					slog.Info("shutting down", "reason", err)
				}
			}

			close(events)
			feedWg.Wait()

			snap := collector.Snapshot()
			if !quiet {
				fmt.Fprintln(os.Stderr, snap.String())
			}
			if once && snap.Errors > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")

	rootCmd.Flags().StringVarP(&sourceDir, "source", "s", "", "source directory to mirror from")
	rootCmd.Flags().StringVarP(&replicaDir, "replica", "r", "", "replica directory to mirror into")
	rootCmd.Flags().StringVarP(&logFile, "log", "l", "", "append operation log to FILE")
	rootCmd.Flags().IntVarP(&periodSecs, "period", "p", 0, "seconds between reconciliation cycles")

	rootCmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report actions without writing to the replica")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose console output")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress console output except errors")
	rootCmd.Flags().
		BoolVar(&noChecksum, "no-checksum", false, "trust size and mtime only; skip content hashing")
	rootCmd.Flags().
		BoolVar(&useIOURing, "iouring", false, "use io_uring for file copy (Linux only)")

	// Filter flags use a custom pflag.Value to preserve CLI ordering.
	rootCmd.Flags().
		VarP(&filterFlag{chain: chain, include: false}, "exclude", "", "exclude files matching PATTERN (repeatable)")
	rootCmd.Flags().
		VarP(&filterFlag{chain: chain, include: true}, "include", "", "include files matching PATTERN (repeatable)")
	rootCmd.Flags().StringVar(&filterFile, "filter", "", "read filter rules from FILE")
	rootCmd.Flags().
		StringVar(&minSizeStr, "min-size", "", "skip files smaller than SIZE (e.g. 1M, 100K)")
	rootCmd.Flags().
		StringVar(&maxSizeStr, "max-size", "", "skip files larger than SIZE (e.g. 1G, 500M)")

	rootCmd.AddCommand(docsCmd)

	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "exclude" || f.Name == "include" {
			f.NoOptDefVal = ""
		}
	})

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

// applyConfigDefaults applies config file defaults for flags not explicitly
// set on the CLI.
func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	periodSecs *int,
	noChecksum *bool,
	useIOURing *bool,
) {
	if !cmd.Flags().Changed("period") && defaults.Period != nil {
		*periodSecs = *defaults.Period
	}
	if !cmd.Flags().Changed("no-checksum") && defaults.Checksum != nil {
		*noChecksum = !*defaults.Checksum
	}
	if !cmd.Flags().Changed("iouring") && defaults.IOURing != nil {
		*useIOURing = *defaults.IOURing
	}
}

// activeChain returns nil for an empty chain so the scanner skips matching.
func activeChain(chain *filter.Chain) *filter.Chain {
	if chain.Empty() {
		return nil
	}
	return chain
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
