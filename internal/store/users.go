package store

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"vidref-bot/internal/models"
)

// ErrNotFound is returned when an operation targets a record that does not
// exist in the store.
var ErrNotFound = errors.New("record not found")

// Today returns the current UTC calendar date in the stored format.
func Today() string {
	return time.Now().UTC().Format(models.DateLayout)
}

// UserStore owns all persistence for registered users and their quota and
// referral state.
type UserStore struct {
	db           *gorm.DB
	defaultLimit int
}

func NewUserStore(db *gorm.DB, defaultLimit int) *UserStore {
	return &UserStore{db: db, defaultLimit: defaultLimit}
}

// UpsertSighting registers a user on first contact or refreshes the profile
// fields of an existing one. referredBy is honored only at creation time and
// ignored when it equals the user's own ID; an existing referred_by is never
// overwritten. Reports whether the user was newly created.
func (s *UserStore) UpsertSighting(id int64, firstName, username string, referredBy *int64) (bool, error) {
	var existing models.User
	err := s.db.Where("telegram_id = ?", id).First(&existing).Error
	if err == nil {
		// Names may have changed since the last sighting.
		err = s.db.Model(&models.User{}).
			Where("telegram_id = ?", id).
			Updates(map[string]any{"first_name": firstName, "username": username}).Error
		if err != nil {
			return false, fmt.Errorf("failed to refresh user %d: %w", id, err)
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to look up user %d: %w", id, err)
	}

	if referredBy != nil && *referredBy == id {
		referredBy = nil
	}

	user := models.User{
		TelegramID:    id,
		FirstName:     firstName,
		Username:      username,
		DailyLimit:    s.defaultLimit,
		UsedToday:     0,
		LastResetDate: Today(),
		ReferredBy:    referredBy,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return false, fmt.Errorf("failed to create user %d: %w", id, err)
	}

	log.Printf("New user added: %d (%s)", id, firstName)
	return true, nil
}

func (s *UserStore) Get(id int64) (*models.User, error) {
	var user models.User
	err := s.db.Where("telegram_id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return &user, nil
}

// ApplyDelta atomically increments the named numeric columns in a single
// update. Returns ErrNotFound when the user does not exist.
func (s *UserStore) ApplyDelta(id int64, deltas map[string]int) error {
	updates := make(map[string]any, len(deltas))
	for column, n := range deltas {
		updates[column] = gorm.Expr(column+" + ?", n)
	}

	res := s.db.Model(&models.User{}).Where("telegram_id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to apply delta for user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFields atomically overwrites the named columns.
func (s *UserStore) SetFields(id int64, fields map[string]any) error {
	res := s.db.Model(&models.User{}).Where("telegram_id = ?", id).UpdateColumns(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to set fields for user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetIfStale zeroes the user's daily counter when the stored window date is
// not today. A no-op for users already on today's window.
func (s *UserStore) ResetIfStale(id int64, today string) error {
	err := s.db.Model(&models.User{}).
		Where("telegram_id = ? AND last_reset_date <> ?", id, today).
		UpdateColumns(map[string]any{"used_today": 0, "last_reset_date": today}).Error
	if err != nil {
		return fmt.Errorf("failed to reset window for user %d: %w", id, err)
	}
	return nil
}

// ConsumeOne takes one unit of today's quota. The increment and the limit
// check happen in one conditional update, so concurrent callers cannot push
// used_today past daily_limit. The window-date condition keeps a consume from
// landing on a stale window that a sweep is about to zero. Reports whether a
// unit was actually consumed.
func (s *UserStore) ConsumeOne(id int64, today string) (bool, error) {
	res := s.db.Model(&models.User{}).
		Where("telegram_id = ? AND used_today < daily_limit AND last_reset_date = ?", id, today).
		UpdateColumn("used_today", gorm.Expr("used_today + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("failed to consume quota for user %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SweepStale bulk-normalizes every user whose quota window is not today.
// Returns the number of users modified; a second run on the same day
// modifies zero.
func (s *UserStore) SweepStale(today string) (int64, error) {
	res := s.db.Model(&models.User{}).
		Where("last_reset_date <> ?", today).
		UpdateColumns(map[string]any{"used_today": 0, "last_reset_date": today})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to sweep stale windows: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// AllIDs returns every registered user's Telegram ID, for broadcast fan-out.
func (s *UserStore) AllIDs() ([]int64, error) {
	var ids []int64
	err := s.db.Model(&models.User{}).Pluck("telegram_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user IDs: %w", err)
	}
	return ids, nil
}

func (s *UserStore) Count() (int64, error) {
	var n int64
	err := s.db.Model(&models.User{}).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// CountJoinedBetween counts users created in [from, to).
func (s *UserStore) CountJoinedBetween(from, to time.Time) (int64, error) {
	var n int64
	err := s.db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count joined users: %w", err)
	}
	return n, nil
}
