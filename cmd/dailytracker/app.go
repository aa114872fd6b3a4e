package main

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"daily-tracker/internal/config"
	"daily-tracker/internal/logger"
	"daily-tracker/internal/repository"
	"daily-tracker/internal/service"
)

// application holds the wired dependencies shared by every subcommand.
type application struct {
	cfg      *config.Config
	log      *slog.Logger
	db       *gorm.DB
	store    *repository.Store
	cal      service.Calendar
	todos    *service.TodoService
	stats    *service.StatsService
	reminder *service.ReminderService
	jobs     *service.Jobs
}

func newApplication(configPath string) (*application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logger.Setup(cfg.LogLevel)

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	store := repository.NewStore(db)
	cal := service.NewCalendar(cfg.Location(), nil)
	streak := service.NewStreakCalculator(store, cal, cfg.StreakLookbackDays)
	gen := service.NewGenerator(store, cal)
	carry := service.NewCarryOver(store, cfg.JobWorkers)

	return &application{
		cfg:      cfg,
		log:      log,
		db:       db,
		store:    store,
		cal:      cal,
		todos:    service.NewTodoService(store, cal, streak, cfg.LookaheadDays),
		stats:    service.NewStatsService(store, cal, cfg.GrassMonths),
		reminder: service.NewReminderService(store, cal),
		jobs: service.NewJobs(store, gen, carry, streak, cal, log, service.JobsConfig{
			Workers:       cfg.JobWorkers,
			LookaheadDays: cfg.LookaheadDays,
			ClaimTTL:      cfg.JobClaimTTL(),
		}),
	}, nil
}

func (a *application) close() {
	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		a.log.Warn("close db", slog.String("error", err.Error()))
	}
}
