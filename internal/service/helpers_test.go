package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"daily-tracker/internal/logger"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

// testEnv wires every service over an in-memory database and a clock the
// test can move.
type testEnv struct {
	db     *gorm.DB
	store  *repository.Store
	now    time.Time
	cal    Calendar
	gen    *Generator
	carry  *CarryOver
	streak *StreakCalculator
	todos  *TodoService
	stats  *StatsService
	jobs   *Jobs
}

func newTestEnv(t *testing.T, today string) *testEnv {
	t.Helper()
	db, err := repository.NewDB(":memory:", logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	env := &testEnv{db: db, store: repository.NewStore(db)}
	env.setToday(today)
	env.cal = NewCalendar(time.UTC, func() time.Time { return env.now })
	env.gen = NewGenerator(env.store, env.cal)
	env.carry = NewCarryOver(env.store, 2)
	env.streak = NewStreakCalculator(env.store, env.cal, 30)
	env.todos = NewTodoService(env.store, env.cal, env.streak, 7)
	env.stats = NewStatsService(env.store, env.cal, 6)
	env.jobs = NewJobs(env.store, env.gen, env.carry, env.streak, env.cal, logger.Discard(), JobsConfig{Workers: 2, LookaheadDays: 7})
	return env
}

// failInstanceCreates makes every insert of an instance matched by reject
// fail inside the store.
func (e *testEnv) failInstanceCreates(t *testing.T, reject func(*model.Instance) bool) {
	t.Helper()
	err := e.db.Callback().Create().Before("gorm:create").Register("test:reject_instances", func(tx *gorm.DB) {
		if inst, ok := tx.Statement.Dest.(*model.Instance); ok && reject(inst) {
			_ = tx.AddError(errors.New("instance rejected"))
		}
	})
	require.NoError(t, err)
}

// failFirstStreakWrite makes the first streak update reaching the store fail.
func (e *testEnv) failFirstStreakWrite(t *testing.T) {
	t.Helper()
	var tripped atomic.Bool
	err := e.db.Callback().Update().Before("gorm:update").Register("test:reject_streak", func(tx *gorm.DB) {
		cols, ok := tx.Statement.Dest.(map[string]interface{})
		if !ok {
			return
		}
		if _, ok := cols["current_streak"]; ok && tripped.CompareAndSwap(false, true) {
			_ = tx.AddError(errors.New("streak rejected"))
		}
	})
	require.NoError(t, err)
}

func (e *testEnv) setToday(s string) {
	e.now = date(s).Midnight(time.UTC).Add(9 * time.Hour)
}

func (e *testEnv) owner(t *testing.T) uuid.UUID {
	t.Helper()
	user, err := e.store.Users.Ensure(context.Background(), uuid.New())
	require.NoError(t, err)
	return user.ID
}

func (e *testEnv) user(t *testing.T, id uuid.UUID) *model.User {
	t.Helper()
	user, err := e.store.Users.FindByID(context.Background(), id)
	require.NoError(t, err)
	return user
}

func (e *testEnv) template(t *testing.T, owner uuid.UUID, kind model.RecurrenceType, days model.RecurrenceDays, start string, end *model.Date) *model.Template {
	t.Helper()
	tmpl := &model.Template{
		UserID:         owner,
		Title:          "Workout",
		RecurrenceType: kind,
		RecurrenceDays: days,
		StartDate:      date(start),
		EndDate:        end,
		IsActive:       true,
	}
	require.NoError(t, e.store.Templates.Create(context.Background(), tmpl))
	return tmpl
}

func (e *testEnv) instance(t *testing.T, owner uuid.UUID, day string, done bool) model.Instance {
	t.Helper()
	inst := model.Instance{UserID: owner, Title: "task " + day, Date: date(day), IsCompleted: done}
	err := e.store.Transaction(context.Background(), func(tx *repository.Store) error {
		if err := tx.Instances.Create(context.Background(), &inst); err != nil {
			return err
		}
		completed := 0
		if done {
			completed = 1
		}
		return tx.Users.AdjustCounters(context.Background(), owner, 1, completed)
	})
	require.NoError(t, err)
	return inst
}

func date(s string) model.Date {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dates(instances []model.Instance) []string {
	out := make([]string, 0, len(instances))
	for _, inst := range instances {
		out = append(out, inst.Date.String())
	}
	return out
}

func ptr[T any](v T) *T { return &v }
