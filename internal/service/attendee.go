package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"drink-ledger/internal/models"
	"drink-ledger/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultMaxAttendeesPerDate = 10
	DefaultRankingLimit        = 10
)

// AttendeeCount is one row of the attendee ranking.
type AttendeeCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count" gorm:"column:cnt"`
}

// AttendeeService manages an owner's roster of guests and which dates they
// attended.
type AttendeeService struct {
	DB         *gorm.DB
	Dates      *DateService
	MaxPerDate int
}

func NewAttendeeService(db *gorm.DB, dates *DateService, maxPerDate int) *AttendeeService {
	if maxPerDate <= 0 {
		maxPerDate = DefaultMaxAttendeesPerDate
	}
	return &AttendeeService{DB: db, Dates: dates, MaxPerDate: maxPerDate}
}

// Create adds the attendee called name to the owner's date, creating the
// attendee on the owner's roster if needed. The owner must already have a
// record on day.
func (s *AttendeeService) Create(ctx context.Context, day, name string, ownerID uint) (*models.Attendee, error) {
	name = strings.TrimSpace(name)
	if err := util.ValidateDate(day); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	if err := util.ValidateAttendeeName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidName, err)
	}

	var attendee *models.Attendee
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dates := s.Dates.WithTx(tx)

		// 锁住 date 行，并发添加时容量检查串行执行
		locked, err := dates.Lock(ctx, day)
		if err != nil {
			return err
		}
		var owned int64
		if err := tx.Model(&models.Record{}).
			Where("date_id = ? AND user_id = ?", locked.ID, ownerID).
			Count(&owned).Error; err != nil {
			return fmt.Errorf("count records: %w", err)
		}
		if owned == 0 {
			return ErrDateNotFound
		}

		attendee, err = getOrCreateAttendee(tx, name, ownerID)
		if err != nil {
			return err
		}

		date, err := dates.GetWithAttendees(ctx, day, ownerID)
		if err != nil {
			return err
		}
		if len(date.DateAttendees) >= s.MaxPerDate {
			return ErrAttendeeExceedsMax
		}
		for _, link := range date.DateAttendees {
			if link.AttendeeID == attendee.ID {
				return ErrAttendeeAlreadyExists
			}
		}

		link := models.DateAttendee{DateID: date.ID, AttendeeID: attendee.ID}
		if err := tx.Omit(clause.Associations).Create(&link).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrAttendeeAlreadyExists
			}
			return fmt.Errorf("create date attendee: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attendee, nil
}

// Friends returns every attendee the owner has ever added.
func (s *AttendeeService) Friends(ctx context.Context, ownerID uint) ([]models.Attendee, error) {
	attendees := []models.Attendee{}
	if err := s.DB.WithContext(ctx).
		Where("partner_user_id = ?", ownerID).
		Order("id").
		Find(&attendees).Error; err != nil {
		return nil, fmt.Errorf("query attendees: %w", err)
	}
	return attendees, nil
}

// ByDate returns the owner's attendees on day. A missing date has none.
func (s *AttendeeService) ByDate(ctx context.Context, day string, ownerID uint) ([]models.Attendee, error) {
	attendees := []models.Attendee{}

	dateID, err := s.Dates.GetID(ctx, day)
	if errors.Is(err, ErrDateNotFound) {
		return attendees, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).
		Joins("JOIN date_attendee ON date_attendee.attendee_id = attendee.id").
		Where("date_attendee.date_id = ? AND attendee.partner_user_id = ?", dateID, ownerID).
		Order("attendee.id").
		Find(&attendees).Error; err != nil {
		return nil, fmt.Errorf("query attendees: %w", err)
	}
	return attendees, nil
}

// Delete removes the attendee from day. An attendee left without any date
// is dropped from the roster.
func (s *AttendeeService) Delete(ctx context.Context, day, name string, ownerID uint) error {
	name = strings.TrimSpace(name)
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attendee, err := findAttendee(tx, name, ownerID)
		if err != nil {
			return err
		}

		dateID, err := s.Dates.WithTx(tx).GetID(ctx, day)
		if err != nil {
			return err
		}

		var linked int64
		if err := tx.Model(&models.DateAttendee{}).
			Where("date_id = ? AND attendee_id = ?", dateID, attendee.ID).
			Count(&linked).Error; err != nil {
			return fmt.Errorf("query date attendee: %w", err)
		}
		if linked == 0 {
			return ErrAttendeeNotAttended
		}

		var total int64
		if err := tx.Model(&models.DateAttendee{}).
			Where("attendee_id = ?", attendee.ID).
			Count(&total).Error; err != nil {
			return fmt.Errorf("count date attendees: %w", err)
		}

		if total <= 1 {
			if err := tx.Delete(&models.Attendee{}, attendee.ID).Error; err != nil {
				return fmt.Errorf("delete attendee: %w", err)
			}
			return nil
		}
		if err := tx.Where("date_id = ? AND attendee_id = ?", dateID, attendee.ID).
			Delete(&models.DateAttendee{}).Error; err != nil {
			return fmt.Errorf("delete date attendee: %w", err)
		}
		return nil
	})
}

// NameWithCount ranks the owner's attendees by the number of dates they
// shared with one of the owner's records of recordType. Ties keep the
// older attendee first.
func (s *AttendeeService) NameWithCount(ctx context.Context, recordType models.RecordType, ownerID uint, limit int) ([]AttendeeCount, error) {
	if !recordType.Valid() {
		return nil, ErrInvalidRecordType
	}
	if limit <= 0 {
		limit = DefaultRankingLimit
	}

	counts := []AttendeeCount{}
	if err := s.DB.WithContext(ctx).
		Table("attendee AS a").
		Select("a.name AS name, COUNT(DISTINCT da.date_id) AS cnt").
		Joins("JOIN date_attendee da ON da.attendee_id = a.id").
		Joins("JOIN record r ON r.date_id = da.date_id AND r.user_id = ? AND r.record_type = ?", ownerID, recordType).
		Where("a.partner_user_id = ?", ownerID).
		Group("a.id, a.name").
		Order("cnt DESC, a.id ASC").
		Limit(limit).
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("query attendee ranking: %w", err)
	}
	return counts, nil
}

func findAttendee(db *gorm.DB, name string, ownerID uint) (*models.Attendee, error) {
	var a models.Attendee
	if err := db.Where("partner_user_id = ? AND name = ?", ownerID, name).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttendeeNotFound
		}
		return nil, fmt.Errorf("query attendee: %w", err)
	}
	return &a, nil
}

func getOrCreateAttendee(tx *gorm.DB, name string, ownerID uint) (*models.Attendee, error) {
	a, err := findAttendee(tx, name, ownerID)
	if !errors.Is(err, ErrAttendeeNotFound) {
		return a, err
	}

	created := models.Attendee{Name: name, PartnerUserID: ownerID}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "partner_user_id"}, {Name: "name"}},
		DoNothing: true,
	}).Omit(clause.Associations).Create(&created)
	if res.Error != nil {
		return nil, fmt.Errorf("create attendee: %w", res.Error)
	}
	if res.RowsAffected > 0 && created.ID != 0 {
		return &created, nil
	}

	// lost an insert race to a concurrent request
	return findAttendee(tx, name, ownerID)
}
