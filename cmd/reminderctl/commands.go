package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"allie-backend/internal/bootstrap"
	"allie-backend/internal/shared/util"
)

type appBuilder func() (*bootstrap.App, error)

func newRootCmd(build appBuilder) *cobra.Command {
	root := &cobra.Command{
		Use:           "reminderctl",
		Short:         "Medication reminder maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newDispatchCmd(build),
		newRefreshCmd(build),
		newRegenerateCmd(build),
		newAdherenceCmd(build),
	)
	return root
}

func newDispatchCmd(build appBuilder) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Hand due reminders to delivery",
		Long:  "Runs one dispatch pass, or loops every --interval until interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := build()
			if err != nil {
				return err
			}
			if interval > 0 {
				err := app.Dispatcher.Run(cmd.Context(), interval)
				if errors.Is(err, cmd.Context().Err()) {
					return nil
				}
				return err
			}
			res, err := app.Dispatcher.RunOnce(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "loop with this tick instead of a single pass")
	return cmd
}

func newRefreshCmd(build appBuilder) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Top up every active schedule's reminder window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := build()
			if err != nil {
				return err
			}
			n, err := app.Reminders.Refresh(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]int{"generated": n})
		},
	}
}

func newRegenerateCmd(build appBuilder) *cobra.Command {
	var familyID, scheduleID string
	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Clear and rebuild one schedule's reminders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := build()
			if err != nil {
				return err
			}
			n, err := app.Medications.RegenerateSchedule(cmd.Context(), familyID, scheduleID)
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]any{"scheduleId": scheduleID, "generated": n})
		},
	}
	cmd.Flags().StringVar(&familyID, "family", "", "family id")
	cmd.Flags().StringVar(&scheduleID, "schedule", "", "schedule id")
	_ = cmd.MarkFlagRequired("family")
	_ = cmd.MarkFlagRequired("schedule")
	return cmd
}

func newAdherenceCmd(build appBuilder) *cobra.Command {
	var familyID, memberID, start, end string
	cmd := &cobra.Command{
		Use:   "adherence",
		Short: "Print dose adherence for a family member",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := build()
			if err != nil {
				return err
			}
			loc := app.Config.Location
			if loc == nil {
				loc = time.UTC
			}
			to := time.Now()
			if end != "" {
				t, err := util.ParseDate(end, loc)
				if err != nil {
					return fmt.Errorf("--end: %w", err)
				}
				to = t
			}
			from := to.AddDate(0, 0, -30)
			if start != "" {
				t, err := util.ParseDate(start, loc)
				if err != nil {
					return fmt.Errorf("--start: %w", err)
				}
				from = t
			}
			stats, err := app.Medications.AdherenceStats(cmd.Context(), familyID, memberID, from, to)
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]any{
				"total":         stats.Total,
				"taken":         stats.Taken,
				"skipped":       stats.Skipped,
				"adherenceRate": stats.AdherenceRate,
				"start":         from.UTC(),
				"end":           to.UTC(),
			})
		},
	}
	cmd.Flags().StringVar(&familyID, "family", "", "family id")
	cmd.Flags().StringVar(&memberID, "member", "", "family member id")
	cmd.Flags().StringVar(&start, "start", "", "period start (YYYY-MM-DD, default 30 days before end)")
	cmd.Flags().StringVar(&end, "end", "", "period end (YYYY-MM-DD, default now)")
	_ = cmd.MarkFlagRequired("family")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
