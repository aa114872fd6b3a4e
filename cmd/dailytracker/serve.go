package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"daily-tracker/internal/api"
	"daily-tracker/internal/bot"
	"daily-tracker/internal/service"
)

const shutdownTimeout = 15 * time.Second

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, the daily jobs and the Telegram bot",
		Long: `Start the tracker.

The HTTP API always runs. The daily batch (carry-over, generation, streaks)
and template expiry are scheduled in the configured timezone. The Telegram
bot starts only when telegram_token is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(*configPath)
			if err != nil {
				return err
			}
			defer app.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.serve(ctx)
		},
	}
}

func (a *application) serve(ctx context.Context) error {
	if a.cfg.JWTSecret == "" {
		return errors.New("jwt_secret is required to serve the API")
	}

	var telegramBot *bot.Bot
	if a.cfg.TelegramToken != "" {
		var err error
		telegramBot, err = bot.New(a.cfg.TelegramToken, bot.Services{
			Users:    a.store.Users,
			Todos:    a.todos,
			Stats:    a.stats,
			Reminder: a.reminder,
			Calendar: a.cal,
		}, a.log)
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}

	scheduler, err := a.schedule(ctx, telegramBot)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := api.NewRouter(
		api.NewTodoHandler(a.todos, a.stats),
		api.NewAuthenticator(a.cfg.JWTSecret, a.store.Users),
		a.store.Ping,
		a.log,
	)
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		a.log.Info("http server listening", slog.String("addr", a.cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	if telegramBot != nil {
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("bot: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.log.Info("shutdown requested")
	case err = <-errCh:
		a.log.Error("component failed", slog.String("error", err.Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if shutErr := srv.Shutdown(shutdownCtx); shutErr != nil {
		a.log.Error("http shutdown", slog.String("error", shutErr.Error()))
	}
	a.log.Info("shutdown complete")
	return err
}

// schedule registers the daily batch, the expiry job and, with a bot, the
// summary push.
func (a *application) schedule(ctx context.Context, telegramBot *bot.Bot) (*service.SchedulerService, error) {
	scheduler := service.NewSchedulerService(a.cal.Location(), a.log)

	if _, err := scheduler.ScheduleDaily("daily", a.cfg.DailyJobTime, func() {
		if _, err := a.jobs.RunDaily(ctx, a.cal.Today()); err != nil {
			a.log.Error("daily jobs", slog.String("error", err.Error()))
		}
	}); err != nil {
		return nil, err
	}

	if _, err := scheduler.ScheduleDaily("expire", a.cfg.ExpireJobTime, func() {
		if _, err := a.jobs.RunExpire(ctx, a.cal.Today()); err != nil {
			a.log.Error("expire job", slog.String("error", err.Error()))
		}
	}); err != nil {
		return nil, err
	}

	if telegramBot != nil && a.cfg.ReportInterval() > 0 {
		if _, err := scheduler.ScheduleInterval("reports", a.cfg.ReportInterval(), func() {
			jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("reports", slog.String("error", err.Error()))
			}
		}); err != nil {
			return nil, err
		}
	}
	return scheduler, nil
}
