package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"PriceTracker/internal/app"
	"PriceTracker/internal/config"
	"PriceTracker/internal/domain"
	"PriceTracker/internal/logging"
)

type cliState struct {
	cfgFile  string
	logLevel string
	cfg      config.Config
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	state := &cliState{}

	root := &cobra.Command{
		Use:   "pricetracker",
		Short: "Crawl, classify and summarize price news",
		Long: `pricetracker crawls udn.com search listings, keeps the headlines a language model
rates as highly relevant to consumer price changes, and stores each article with a
short impact/reason summary. Without a subcommand it runs the API server and the
recurring crawl.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if state.cfgFile != "" {
				state.cfg = config.LoadFile(state.cfgFile)
			} else {
				state.cfg = config.Load()
			}
			if state.logLevel != "" {
				state.cfg.Logging.Level = state.logLevel
			}
			state.logger = logging.New(state.cfg.Logging.Level)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), state)
		},
	}

	root.PersistentFlags().StringVar(&state.cfgFile, "config", "", "YAML config file (default $PRICETRACKER_CONFIG)")
	root.PersistentFlags().StringVar(&state.logLevel, "log-level", "", "override logging level (debug, info, warn, error)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the API server and the scheduled crawl",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), state)
			},
		},
		newRunCmd(state, domain.ModeBackfill, "Crawl the backfill page range once"),
		newRunCmd(state, domain.ModePoll, "Crawl the poll page once"),
		newSearchCmd(state),
		newMigrateCmd(state),
	)

	return root
}

func runServe(ctx context.Context, state *cliState) error {
	application, err := app.New(ctx, state.cfg, state.logger)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Serve(ctx)
}

func newRunCmd(state *cliState, mode domain.RunMode, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(mode),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			application, err := app.New(ctx, state.cfg, state.logger)
			if err != nil {
				return err
			}
			defer application.Close()

			run := application.Poll
			if mode == domain.ModeBackfill {
				run = application.Backfill
			}
			report, err := run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: persisted=%d duplicates=%d skipped=%d dropped=%d page_errors=%d\n",
				report.Mode, report.RunID,
				report.Count(domain.OutcomePersisted), report.Count(domain.OutcomeDuplicate),
				report.Count(domain.OutcomeSkipped), report.Count(domain.OutcomeDropped),
				report.PageErrors)
			return err
		},
	}
}

func newSearchCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "search <prompt>",
		Short: "Search udn.com for a free-text request and print the articles as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			application, err := app.New(ctx, state.cfg, state.logger)
			if err != nil {
				return err
			}
			defer application.Close()

			results, err := application.Search(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(results)
		},
	}
}

func newMigrateCmd(state *cliState) *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations, or roll back with --down",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if down < 0 {
				return fmt.Errorf("--down must be positive, got %d", down)
			}
			return app.Migrate(cmd.Context(), state.cfg, down, state.logger)
		},
	}
	cmd.Flags().IntVar(&down, "down", 0, "number of migrations to roll back")
	return cmd
}
