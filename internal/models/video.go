package models

import (
	"time"
)

type Video struct {
	ID        uint   `gorm:"primaryKey"`
	FileID    string `gorm:"size:255;uniqueIndex;not null"`
	AddedBy   int64  `gorm:"not null"`
	CreatedAt time.Time
}
