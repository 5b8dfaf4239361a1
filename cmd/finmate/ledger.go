package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/rahul/finmate/internal/finance"
	"github.com/rahul/finmate/internal/ledger"
	"github.com/spf13/cobra"
)

func ingestCMD(cfgPath *string) *cobra.Command {
	var categorize bool
	cmd := &cobra.Command{
		Use:   "ingest <file.csv>...",
		Short: "Load transaction CSV exports into the ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *cfgPath, categorize)
			if err != nil {
				return err
			}
			defer a.Close()
			l, err := a.requireLedger()
			if err != nil {
				return err
			}
			rules, err := loadRules(a)
			if err != nil {
				return err
			}

			ing := finance.NewIngester(l, rules, a.cfg.Ingest.BatchSize)
			ing.Events = a.events
			for _, path := range args {
				n, err := ing.IngestFile(ctx, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d transactions loaded\n", filepath.Base(path), n)
			}

			if categorize {
				n, err := finance.NewCategorizer(a.model, rules, a.opts...).CategorizePending(ctx, l, a.cfg.Ingest.BatchSize)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d transactions categorized\n", n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&categorize, "categorize", false, "categorize the loaded rows with the model")
	return cmd
}

func categorizeCMD(cfgPath *string) *cobra.Command {
	var batch int
	return &cobra.Command{
		Use:   "categorize",
		Short: "Assign categories to uncategorized transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *cfgPath, true)
			if err != nil {
				return err
			}
			defer a.Close()
			l, err := a.requireLedger()
			if err != nil {
				return err
			}
			rules, err := loadRules(a)
			if err != nil {
				return err
			}
			if batch <= 0 {
				batch = a.cfg.Ingest.BatchSize
			}
			n, err := finance.NewCategorizer(a.model, rules, a.opts...).CategorizePending(ctx, l, batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d transactions categorized\n", n)
			return nil
		},
	}
}

func forecastCMD(cfgPath *string) *cobra.Command {
	var days, lookback int
	var goal float64
	var advise bool
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast daily spending and suggest a savings plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *cfgPath, advise)
			if err != nil {
				return err
			}
			defer a.Close()
			l, err := a.requireLedger()
			if err != nil {
				return err
			}

			points, err := finance.ForecastFrom(ctx, l, time.Now(), lookback, days)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ds\tyhat\tyhat_lower\tyhat_upper")
			for _, p := range points {
				fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\n", p.DS.Format(time.DateOnly), p.YHat, p.YHatLower, p.YHatUpper)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			total := finance.Total(points)
			fmt.Fprintf(out, "\nForecast expenses over %d days: %.2f\n", days, total)

			if !advise {
				return nil
			}
			balance, err := l.Balance(ctx)
			if err != nil {
				return err
			}
			advice, err := finance.NewAdvisor(a.model, a.opts...).SuggestActions(ctx, balance, total, goal)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s\n", advice)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "days to forecast")
	cmd.Flags().IntVar(&lookback, "lookback", 90, "days of history to fit")
	cmd.Flags().Float64Var(&goal, "goal", 0, "savings goal for the advice")
	cmd.Flags().BoolVar(&advise, "advise", false, "ask the model for a savings plan")
	return cmd
}

func migrateCMD(cfgPath *string) *cobra.Command {
	var migDir, direction string
	var steps int
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run ledger database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			dsn, err := cfg.PostgresDSN()
			if err != nil {
				return err
			}
			if migDir == "" {
				migDir = cfg.Database.MigrationsDir
			}
			return ledger.Migrate(migDir, dsn, direction, steps)
		},
	}
	cmd.Flags().StringVar(&migDir, "dir", "", "migrations source (default database.migrations_dir)")
	cmd.Flags().StringVar(&direction, "direction", "up", "up or down")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return cmd
}
