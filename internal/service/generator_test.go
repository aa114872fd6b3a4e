package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-tracker/internal/model"
)

func TestGenerateWeeklyFromMonday(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "2026-01-05")
	owner := env.owner(t)
	tmpl := env.template(t, owner, model.RecurrenceWeekly, model.RecurrenceDays{1, 3, 5}, "2026-01-01", nil)

	created, err := env.gen.GenerateInstances(ctx, tmpl.ID, owner, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-05", "2026-01-07", "2026-01-09"}, dates(created))
	for _, inst := range created {
		require.NotNil(t, inst.TemplateID)
		assert.Equal(t, tmpl.ID, *inst.TemplateID)
		assert.Equal(t, "Workout", inst.Title)
		assert.Zero(t, inst.CarryOverCount)
	}
	assert.Equal(t, 3, env.user(t, owner).TotalTodos)
}

func TestGenerateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "2026-01-05")
	owner := env.owner(t)
	tmpl := env.template(t, owner, model.RecurrenceDaily, nil, "2026-01-01", nil)

	first, err := env.gen.GenerateInstances(ctx, tmpl.ID, owner, 7)
	require.NoError(t, err)
	assert.Len(t, first, 7)

	second, err := env.gen.GenerateInstances(ctx, tmpl.ID, owner, 7)
	require.NoError(t, err)
	assert.Empty(t, second)

	// An overlapping window only fills the new tail.
	env.setToday("2026-01-08")
	third, err := env.gen.GenerateInstances(ctx, tmpl.ID, owner, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-12", "2026-01-13", "2026-01-14"}, dates(third))

	all, err := env.store.Instances.ListRange(ctx, owner, date("2026-01-01"), date("2026-01-31"))
	require.NoError(t, err)
	assert.Len(t, all, 10)
	assert.Equal(t, 10, env.user(t, owner).TotalTodos)
}

func TestGenerateRespectsEndDate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "2026-01-05")
	owner := env.owner(t)
	end := date("2026-01-10")
	tmpl := env.template(t, owner, model.RecurrenceDaily, nil, "2026-01-01", &end)

	created, err := env.gen.GenerateInstances(ctx, tmpl.ID, owner, 60)
	require.NoError(t, err)
	require.Len(t, created, 6)
	for _, inst := range created {
		assert.False(t, inst.Date.After(end), inst.Date.String())
	}
}

func TestGenerateSkipsBeforeStart(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "2026-01-05")
	owner := env.owner(t)
	tmpl := env.template(t, owner, model.RecurrenceDaily, nil, "2026-01-09", nil)

	created, err := env.gen.GenerateInstances(ctx, tmpl.ID, owner, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-09", "2026-01-10", "2026-01-11"}, dates(created))
}

func TestGenerateMissingOrInactiveTemplate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "2026-01-05")
	owner := env.owner(t)

	created, err := env.gen.GenerateInstances(ctx, uuid.New(), owner, 7)
	require.NoError(t, err)
	assert.Empty(t, created)

	tmpl := env.template(t, owner, model.RecurrenceDaily, nil, "2026-01-01", nil)
	created, err = env.gen.GenerateInstances(ctx, tmpl.ID, uuid.New(), 7)
	require.NoError(t, err)
	assert.Empty(t, created, "foreign owner")

	tmpl.IsActive = false
	require.NoError(t, env.store.Templates.Save(ctx, tmpl))
	created, err = env.gen.GenerateInstances(ctx, tmpl.ID, owner, 7)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Zero(t, env.user(t, owner).TotalTodos)
}
