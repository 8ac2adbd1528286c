package models

import "time"

// Attendee is a named guest on a user's roster. Names are unique per owner.
type Attendee struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"size:50;not null;uniqueIndex:idx_attendee_owner_name,priority:2"`
	PartnerUserID uint   `gorm:"not null;uniqueIndex:idx_attendee_owner_name,priority:1"`
	CreatedAt     time.Time

	PartnerUser User `gorm:"foreignKey:PartnerUserID;constraint:OnDelete:CASCADE"`
}

func (Attendee) TableName() string { return "attendee" }

// DateAttendee links an attendee to a date it was present on.
type DateAttendee struct {
	DateID     uint `gorm:"primaryKey;autoIncrement:false"`
	AttendeeID uint `gorm:"primaryKey;autoIncrement:false;index"`

	Attendee Attendee `gorm:"constraint:OnDelete:CASCADE"`
}

func (DateAttendee) TableName() string { return "date_attendee" }
