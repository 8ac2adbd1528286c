package models

import "time"

// BlacklistedToken is a revoked JWT, kept until the token itself expires.
// Only used when the revocation store runs on the relational database.
type BlacklistedToken struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"size:1024;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

func (BlacklistedToken) TableName() string { return "blacklisted_token" }
