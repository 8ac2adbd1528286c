package service

import (
	"context"
	"fmt"
	"time"

	"drink-ledger/internal/models"
	"drink-ledger/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dateLayout = "2006-01-02"

// RecordSummary is one record as shown in the grouped views.
type RecordSummary struct {
	RecordType models.RecordType `json:"recordType"`
	Amount     float64           `json:"amount"`
}

// RecordRow is a flat record with its calendar day.
type RecordRow struct {
	Date       string            `json:"date"`
	RecordType models.RecordType `json:"recordType"`
	Amount     float64           `json:"amount"`
}

// RecordService keeps at most one record per (user, date, type) and removes
// dates nobody records on anymore.
type RecordService struct {
	DB    *gorm.DB
	Dates *DateService
}

func NewRecordService(db *gorm.DB, dates *DateService) *RecordService {
	return &RecordService{DB: db, Dates: dates}
}

// Create stores a record, creating its Date in the same transaction.
func (s *RecordService) Create(ctx context.Context, recordType models.RecordType, amount float64, day string, userID uint) (*models.Record, error) {
	if !recordType.Valid() {
		return nil, ErrInvalidRecordType
	}
	if err := util.ValidateAmount(amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if err := util.ValidateDate(day); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}

	var rec models.Record
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findActiveUser(tx, userID); err != nil {
			return err
		}

		dateID, err := s.Dates.WithTx(tx).GetOrCreate(ctx, day)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Record{}).
			Where("date_id = ? AND record_type = ? AND user_id = ?", dateID, recordType, userID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("query record: %w", err)
		}
		if count > 0 {
			return ErrRecordAlreadyExists
		}

		rec = models.Record{DateID: dateID, RecordType: recordType, Amount: amount, UserID: userID}
		if err := tx.Omit(clause.Associations).Create(&rec).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrRecordAlreadyExists
			}
			return fmt.Errorf("create record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes the user's record of recordType on day. When no record of
// any user is left on the Date, the Date itself is deleted.
func (s *RecordService) Delete(ctx context.Context, day string, recordType models.RecordType, userID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dates := s.Dates.WithTx(tx)

		date, err := dates.GetWithRecords(ctx, day, userID)
		if err != nil {
			return err
		}

		var target *models.Record
		for i := range date.Records {
			if date.Records[i].RecordType == recordType {
				target = &date.Records[i]
				break
			}
		}
		if target == nil {
			return ErrRecordNotFound
		}

		var total int64
		if err := tx.Model(&models.Record{}).Where("date_id = ?", date.ID).Count(&total).Error; err != nil {
			return fmt.Errorf("count records: %w", err)
		}
		if total <= 1 {
			return dates.Delete(ctx, date.ID)
		}

		if err := tx.Delete(&models.Record{}, target.ID).Error; err != nil {
			return fmt.Errorf("delete record: %w", err)
		}

		// the date stays for other users, but this user's guests no longer
		// have a drinking day to belong to
		if len(date.Records) == 1 {
			owned := tx.Model(&models.Attendee{}).Select("id").Where("partner_user_id = ?", userID)
			if err := tx.Where("date_id = ? AND attendee_id IN (?)", date.ID, owned).
				Delete(&models.DateAttendee{}).Error; err != nil {
				return fmt.Errorf("delete date attendees: %w", err)
			}
		}
		return nil
	})
}

// GroupedByDay returns the user's records in the given month keyed by
// YYYY-MM-DD.
func (s *RecordService) GroupedByDay(ctx context.Context, year, month int, userID uint) (map[string][]RecordSummary, error) {
	if err := util.ValidateYearMonth(year, month); err != nil || month == 0 {
		return nil, fmt.Errorf("%w: year %d month %d", ErrInvalidDate, year, month)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)

	rows, err := s.rowsBetween(ctx, userID, start, start.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]RecordSummary)
	for _, r := range rows {
		grouped[r.Date] = append(grouped[r.Date], RecordSummary{RecordType: r.RecordType, Amount: r.Amount})
	}
	return grouped, nil
}

// OtherUserGroupedByDay is GroupedByDay for another, existing user.
func (s *RecordService) OtherUserGroupedByDay(ctx context.Context, year, month int, otherUserID uint) (map[string][]RecordSummary, error) {
	if _, err := findActiveUser(s.DB.WithContext(ctx), otherUserID); err != nil {
		return nil, err
	}
	return s.GroupedByDay(ctx, year, month, otherUserID)
}

// GroupedByMonth returns the user's amounts for the year summed per month
// and record type, keyed by YYYY-MM.
func (s *RecordService) GroupedByMonth(ctx context.Context, year int, userID uint) (map[string][]RecordSummary, error) {
	if err := util.ValidateYearMonth(year, 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	month := monthExpr(s.DB)

	var rows []struct {
		Month      string
		RecordType models.RecordType
		Amount     float64
	}
	if err := s.DB.WithContext(ctx).
		Table("record AS r").
		Select(month+" AS month, r.record_type AS record_type, SUM(r.amount) AS amount").
		Joins(`JOIN "date" d ON d.id = r.date_id`).
		Where("r.user_id = ? AND d.date >= ? AND d.date < ?",
			userID, start.Format(dateLayout), start.AddDate(1, 0, 0).Format(dateLayout)).
		Group(month + ", r.record_type").
		Order("month, record_type").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query monthly records: %w", err)
	}

	grouped := make(map[string][]RecordSummary)
	for _, r := range rows {
		grouped[r.Month] = append(grouped[r.Month], RecordSummary{RecordType: r.RecordType, Amount: r.Amount})
	}
	return grouped, nil
}

// ListByYear returns every record of the user in year, oldest first.
func (s *RecordService) ListByYear(ctx context.Context, year int, userID uint) ([]RecordRow, error) {
	if err := util.ValidateYearMonth(year, 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return s.rowsBetween(ctx, userID, start, start.AddDate(1, 0, 0))
}

func (s *RecordService) rowsBetween(ctx context.Context, userID uint, from, to time.Time) ([]RecordRow, error) {
	var rows []RecordRow
	if err := s.DB.WithContext(ctx).
		Table("record AS r").
		Select("d.date AS date, r.record_type AS record_type, r.amount AS amount").
		Joins(`JOIN "date" d ON d.id = r.date_id`).
		Where("r.user_id = ? AND d.date >= ? AND d.date < ?", userID, from.Format(dateLayout), to.Format(dateLayout)).
		Order("d.date, r.record_type").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return rows, nil
}

// monthExpr truncates the stored date to YYYY-MM in SQL.
func monthExpr(db *gorm.DB) string {
	if db.Dialector.Name() == "postgres" {
		return "to_char(d.date::date, 'YYYY-MM')"
	}
	return "strftime('%Y-%m', d.date)"
}
