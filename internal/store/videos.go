package store

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vidref-bot/internal/models"
)

// VideoStore owns the pool of ingested video file IDs.
type VideoStore struct {
	db *gorm.DB
}

func NewVideoStore(db *gorm.DB) *VideoStore {
	return &VideoStore{db: db}
}

// Add stores a video file ID. Idempotent: a second insert of the same ID is a
// no-op reporting false.
func (s *VideoStore) Add(fileID string, addedBy int64) (bool, error) {
	video := models.Video{FileID: fileID, AddedBy: addedBy}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "file_id"}},
		DoNothing: true,
	}).Create(&video)
	if res.Error != nil {
		return false, fmt.Errorf("failed to add video: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	log.Printf("Video added by %d", addedBy)
	return true, nil
}

// SampleOne returns one uniformly random video, or ErrNotFound when the pool
// is empty.
func (s *VideoStore) SampleOne() (*models.Video, error) {
	var video models.Video
	err := s.db.Order("RANDOM()").First(&video).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to sample video: %w", err)
	}
	return &video, nil
}

func (s *VideoStore) Count() (int64, error) {
	var n int64
	err := s.db.Model(&models.Video{}).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count videos: %w", err)
	}
	return n, nil
}
