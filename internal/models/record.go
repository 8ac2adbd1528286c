package models

import "time"

type RecordType string

const (
	RecordTypeSoju RecordType = "soju"
	RecordTypeBeer RecordType = "beer"
)

// Valid reports whether t is one of the known drink types.
func (t RecordType) Valid() bool {
	return t == RecordTypeSoju || t == RecordTypeBeer
}

// Record 一条饮酒记录：同一用户同一天同一类型只允许一条
type Record struct {
	ID         uint       `gorm:"primaryKey"`
	DateID     uint       `gorm:"not null;uniqueIndex:idx_record_date_type_user,priority:1"`
	RecordType RecordType `gorm:"size:16;not null;uniqueIndex:idx_record_date_type_user,priority:2"`
	Amount     float64    `gorm:"type:numeric(3,1);not null"` // 0.5 ~ 5.0, step 0.5
	UserID     uint       `gorm:"not null;index;uniqueIndex:idx_record_date_type_user,priority:3"`
	CreatedAt  time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}

func (Record) TableName() string { return "record" }
