package models

import (
	"time"
)

// DateLayout is the calendar-date format stored in LastResetDate (UTC).
const DateLayout = "2006-01-02"

type User struct {
	ID            uint   `gorm:"primaryKey"`
	TelegramID    int64  `gorm:"uniqueIndex;not null"`
	FirstName     string `gorm:"size:255"`
	Username      string `gorm:"size:255"`
	DailyLimit    int    `gorm:"not null"`
	UsedToday     int    `gorm:"not null;default:0"`
	LastResetDate string `gorm:"size:10;not null"`
	ReferralCount int    `gorm:"not null;default:0"`
	ReferredBy    *int64 `gorm:"index"` // Telegram ID of the referrer, set once at creation
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Remaining reports how many videos the user may still receive today.
func (u *User) Remaining() int {
	if r := u.DailyLimit - u.UsedToday; r > 0 {
		return r
	}
	return 0
}
