package service

import (
	"context"
	"errors"
	"fmt"

	"drink-ledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DateService owns the shared calendar-day rows that records and
// attendee links hang off.
type DateService struct {
	DB *gorm.DB
}

func NewDateService(db *gorm.DB) *DateService {
	return &DateService{DB: db}
}

// WithTx returns a DateService bound to an open transaction.
func (s *DateService) WithTx(tx *gorm.DB) *DateService {
	return &DateService{DB: tx}
}

// GetOrCreate returns the id of the Date row for day, inserting it if needed.
// Concurrent callers for the same day converge on one row through the
// unique index on date.
func (s *DateService) GetOrCreate(ctx context.Context, day string) (uint, error) {
	d := models.Date{Date: day}
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "date"}}, DoNothing: true}).
		Omit(clause.Associations).
		Create(&d)
	if res.Error != nil {
		return 0, fmt.Errorf("create date: %w", res.Error)
	}
	if res.RowsAffected > 0 && d.ID != 0 {
		return d.ID, nil
	}
	return s.GetID(ctx, day)
}

// GetID returns the id of the Date row for day.
func (s *DateService) GetID(ctx context.Context, day string) (uint, error) {
	d, err := s.find(s.DB.WithContext(ctx), day)
	if err != nil {
		return 0, err
	}
	return d.ID, nil
}

// Lock loads the Date row for day with a row lock held until the
// surrounding transaction ends. Only meaningful inside WithTx.
func (s *DateService) Lock(ctx context.Context, day string) (*models.Date, error) {
	return s.find(s.DB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), day)
}

// GetWithRecords returns the Date for day together with userID's records on it.
func (s *DateService) GetWithRecords(ctx context.Context, day string, userID uint) (*models.Date, error) {
	db := s.DB.WithContext(ctx).
		Preload("Records", func(db *gorm.DB) *gorm.DB {
			return db.Where("user_id = ?", userID).Order("id")
		})
	return s.find(db, day)
}

// GetWithAttendees returns the Date for day together with the links to
// attendees owned by userID.
func (s *DateService) GetWithAttendees(ctx context.Context, day string, userID uint) (*models.Date, error) {
	d, err := s.find(s.DB.WithContext(ctx), day)
	if err != nil {
		return nil, err
	}

	var links []models.DateAttendee
	if err := s.DB.WithContext(ctx).
		Joins("JOIN attendee ON attendee.id = date_attendee.attendee_id").
		Where("date_attendee.date_id = ? AND attendee.partner_user_id = ?", d.ID, userID).
		Preload("Attendee").
		Order("date_attendee.attendee_id").
		Find(&links).Error; err != nil {
		return nil, fmt.Errorf("query date attendees: %w", err)
	}
	d.DateAttendees = links
	return d, nil
}

// Delete hard-deletes a Date. Its records and attendee links go with it
// through ON DELETE CASCADE.
func (s *DateService) Delete(ctx context.Context, dateID uint) error {
	if err := s.DB.WithContext(ctx).Delete(&models.Date{}, dateID).Error; err != nil {
		return fmt.Errorf("delete date: %w", err)
	}
	return nil
}

func (s *DateService) find(db *gorm.DB, day string) (*models.Date, error) {
	var d models.Date
	if err := db.Where("date = ?", day).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDateNotFound
		}
		return nil, fmt.Errorf("query date: %w", err)
	}
	return &d, nil
}
