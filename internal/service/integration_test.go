//go:build integration

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"drink-ledger/internal/config"
	"drink-ledger/internal/database"
	"drink-ledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newPostgresFixture runs the services against a real PostgreSQL so that
// row locks and unique violations behave as in production.
func newPostgresFixture(t *testing.T, maxPerDate int) *fixture {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("drink"),
		postgres.WithUsername("drink"),
		postgres.WithPassword("drink"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Init(config.DatabaseConfig{Driver: "postgres", DSN: dsn, MaxOpenConns: 20})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	dates := NewDateService(db)
	return &fixture{
		db:        db,
		dates:     dates,
		records:   NewRecordService(db, dates),
		attendees: NewAttendeeService(db, dates, maxPerDate),
	}
}

func TestPostgres_Scenario(t *testing.T) {
	ctx := context.Background()
	f := newPostgresFixture(t, 3)
	kim := f.user(t, "kim")
	lee := f.user(t, "lee")

	t.Run("concurrent record creation", func(t *testing.T) {
		const n = 10
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.records.Create(ctx, models.RecordTypeSoju, 3.5, "2024-01-01", kim)
			}(i)
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, ErrRecordAlreadyExists)
		}
		assert.Equal(t, 1, ok)
		assert.EqualValues(t, 1, f.count(t, &models.Date{}))
	})

	t.Run("concurrent attendee cap", func(t *testing.T) {
		const n = 10
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.attendees.Create(ctx, "2024-01-01", fmt.Sprintf("guest%d", i), kim)
			}(i)
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, ErrAttendeeExceedsMax)
		}
		assert.Equal(t, 3, ok)
		assert.EqualValues(t, 3, f.count(t, &models.Attendee{}))
	})

	t.Run("aggregates", func(t *testing.T) {
		f.record(t, "2024-01-20", models.RecordTypeSoju, 1, kim)
		f.record(t, "2024-01-20", models.RecordTypeBeer, 2, lee)

		byMonth, err := f.records.GroupedByMonth(ctx, 2024, kim)
		require.NoError(t, err)
		assert.Equal(t, []RecordSummary{{RecordType: models.RecordTypeSoju, Amount: 4.5}}, byMonth["2024-01"])

		ranking, err := f.attendees.NameWithCount(ctx, models.RecordTypeSoju, kim, 0)
		require.NoError(t, err)
		assert.Len(t, ranking, 3)
	})

	t.Run("delete keeps shared date", func(t *testing.T) {
		require.NoError(t, f.records.Delete(ctx, "2024-01-20", models.RecordTypeSoju, kim))
		_, err := f.dates.GetID(ctx, "2024-01-20")
		assert.NoError(t, err)

		require.NoError(t, f.records.Delete(ctx, "2024-01-20", models.RecordTypeBeer, lee))
		_, err = f.dates.GetID(ctx, "2024-01-20")
		assert.ErrorIs(t, err, ErrDateNotFound)
	})

	t.Run("delete last record cascades", func(t *testing.T) {
		require.NoError(t, f.records.Delete(ctx, "2024-01-01", models.RecordTypeSoju, kim))
		assert.Zero(t, f.count(t, &models.Date{}))
		assert.Zero(t, f.count(t, &models.DateAttendee{}))
	})
}
