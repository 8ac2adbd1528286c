package models

import "time"

// User represents application user.
// Users are never removed, IsDeleted marks an account as closed so that
// their records and attendees stay attributable.
type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"size:64;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	IsDeleted    bool      `gorm:"index;not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string { return "user" }
