package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/znicholasbrown/chorebot/internal/app"
	"github.com/znicholasbrown/chorebot/internal/config"
	"github.com/znicholasbrown/chorebot/internal/logging"
	"github.com/znicholasbrown/chorebot/internal/model"
	"github.com/znicholasbrown/chorebot/internal/roster"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chorectl",
		Short:         "Manage the chore rotation",
		SilenceUsage:  true,
	}
	root.AddCommand(newCycleCmd(), newRosterCmd(), newChoresCmd())
	return root
}

// withApp loads configuration from the environment and hands a wired app to fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, cfg config.Config) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a, cfg)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newCycleCmd() *cobra.Command {
	cycle := &cobra.Command{
		Use:   "cycle",
		Short: "Daily cycle commands",
	}

	var date string
	var claim bool
	run := &cobra.Command{
		Use:   "run",
		Short: "Run the daily cycle now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, cfg config.Config) error {
				today := a.Engine.Today()
				if date != "" {
					d, err := time.ParseInLocation(model.CycleDateFormat, date, cfg.Rotation.Location)
					if err != nil {
						return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
					}
					today = d
				}

				if claim {
					ok, err := a.Cycles.Claim(ctx, today.Format(model.CycleDateFormat))
					if err != nil {
						return err
					}
					if !ok {
						slog.Info("cycle already run", "date", today.Format(model.CycleDateFormat))
						return nil
					}
				}

				report, err := a.Engine.RunDailyCycle(ctx, today)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	run.Flags().StringVar(&date, "date", "", "cycle date (YYYY-MM-DD), defaults to today")
	run.Flags().BoolVar(&claim, "claim", false, "skip if the scheduler already ran this date")

	cycle.AddCommand(run)
	return cycle
}

func newRosterCmd() *cobra.Command {
	rosterCmd := &cobra.Command{
		Use:   "roster",
		Short: "Roster commands",
	}

	var file string
	sync := &cobra.Command{
		Use:   "sync",
		Short: "Upsert people and create missing chores from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := roster.LoadFile(file)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App, _ config.Config) error {
				res, err := roster.Sync(ctx, f, a.People, a.Chores)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	sync.Flags().StringVarP(&file, "file", "f", "roster.yaml", "roster file")

	rosterCmd.AddCommand(sync)
	return rosterCmd
}

func newChoresCmd() *cobra.Command {
	chores := &cobra.Command{
		Use:   "chores",
		Short: "Chore catalog commands",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List chores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, _ config.Config) error {
				items, err := a.Chores.List(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tDIFFICULTY\tRECURS")
				for _, c := range items {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.ID, c.Title, c.Difficulty, c.Recurrence.Describe())
				}
				return tw.Flush()
			})
		},
	}

	chores.AddCommand(list)
	return chores
}
