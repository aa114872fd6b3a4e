package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"daily-tracker/internal/model"
	"daily-tracker/internal/service"
)

func runJobsCmd(configPath *string) *cobra.Command {
	var (
		date string
		job  string
	)
	cmd := &cobra.Command{
		Use:   "run-jobs",
		Short: "Run the daily batch once, for an external scheduler",
		Long: `Run the batch jobs once and exit.

A job that already finished for the given day is skipped, so the command is
safe to trigger repeatedly or from several hosts.

Examples:
  dailytracker run-jobs
  dailytracker run-jobs --job expire
  dailytracker run-jobs --date 2026-01-10 --job daily`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(*configPath)
			if err != nil {
				return err
			}
			defer app.close()

			day := app.cal.Today()
			if date != "" {
				if day, err = model.ParseDate(date); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			reports, err := app.runJobs(ctx, job, day)
			for _, r := range reports {
				printReport(cmd, r)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "calendar day to run for (YYYY-MM-DD), default today")
	cmd.Flags().StringVar(&job, "job", "all", "which jobs to run: daily, expire or all")
	return cmd
}

func (a *application) runJobs(ctx context.Context, job string, day model.Date) ([]service.JobReport, error) {
	var (
		reports []service.JobReport
		errs    []error
	)
	switch job {
	case "daily", "expire", "all":
	default:
		return nil, fmt.Errorf("unknown job %q, expected daily, expire or all", job)
	}
	if job == "daily" || job == "all" {
		r, err := a.jobs.RunDaily(ctx, day)
		reports = append(reports, r...)
		errs = append(errs, err)
	}
	if job == "expire" || job == "all" {
		r, err := a.jobs.RunExpire(ctx, day)
		if err == nil {
			reports = append(reports, r)
		}
		errs = append(errs, err)
	}
	return reports, errors.Join(errs...)
}

func printReport(cmd *cobra.Command, r service.JobReport) {
	if r.Skipped {
		fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s skipped (already ran)\n", r.Job, r.Day)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s processed=%d created=%d failed=%d\n", r.Job, r.Day, r.Processed, r.Created, r.Failed)
}
