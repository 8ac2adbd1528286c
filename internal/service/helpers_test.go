package service

import (
	"context"
	"testing"

	"drink-ledger/internal/database/databasetest"
	"drink-ledger/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	dates     *DateService
	records   *RecordService
	attendees *AttendeeService
}

func newFixture(t *testing.T, maxPerDate int) *fixture {
	t.Helper()
	db := databasetest.New(t)
	dates := NewDateService(db)
	return &fixture{
		db:        db,
		dates:     dates,
		records:   NewRecordService(db, dates),
		attendees: NewAttendeeService(db, dates, maxPerDate),
	}
}

func (f *fixture) user(t *testing.T, name string) uint {
	t.Helper()
	u := models.User{Username: name, PasswordHash: "x"}
	require.NoError(t, f.db.Create(&u).Error)
	return u.ID
}

func (f *fixture) record(t *testing.T, day string, typ models.RecordType, amount float64, userID uint) {
	t.Helper()
	_, err := f.records.Create(context.Background(), typ, amount, day, userID)
	require.NoError(t, err)
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}
