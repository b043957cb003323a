package store

import (
	"testing"
	"time"
)

const testDefaultLimit = 10

func TestUpsertSightingNewUser(t *testing.T) {
	users := NewUserStore(setupTestDB(t), testDefaultLimit)

	isNew, err := users.UpsertSighting(100, "Alice", "alice", nil)
	if err != nil {
		t.Fatalf("UpsertSighting failed: %v", err)
	}
	if !isNew {
		t.Error("expected first sighting to report a new user")
	}

	user, err := users.Get(100)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if user.UsedToday != 0 {
		t.Errorf("expected used_today 0, got %d", user.UsedToday)
	}
	if user.DailyLimit != testDefaultLimit {
		t.Errorf("expected daily_limit %d, got %d", testDefaultLimit, user.DailyLimit)
	}
	if user.ReferralCount != 0 {
		t.Errorf("expected referral_count 0, got %d", user.ReferralCount)
	}
	if user.LastResetDate != Today() {
		t.Errorf("expected last_reset_date %s, got %s", Today(), user.LastResetDate)
	}
	if user.ReferredBy != nil {
		t.Errorf("expected no referrer, got %d", *user.ReferredBy)
	}
}

func TestUpsertSightingRefreshesProfile(t *testing.T) {
	users := NewUserStore(setupTestDB(t), testDefaultLimit)

	if _, err := users.UpsertSighting(100, "Alice", "alice", nil); err != nil {
		t.Fatalf("UpsertSighting failed: %v", err)
	}

	isNew, err := users.UpsertSighting(100, "Alicia", "alicia", nil)
	if err != nil {
		t.Fatalf("second UpsertSighting failed: %v", err)
	}
	if isNew {
		t.Error("expected second sighting to report an existing user")
	}

	user, _ := users.Get(100)
	if user.FirstName != "Alicia" || user.Username != "alicia" {
		t.Errorf("expected refreshed profile, got %q/%q", user.FirstName, user.Username)
	}
}

func TestUpsertSightingNeverOverwritesReferrer(t *testing.T) {
	users := NewUserStore(setupTestDB(t), testDefaultLimit)

	ref := int64(7)
	if _, err := users.UpsertSighting(100, "Alice", "alice", &ref); err != nil {
		t.Fatalf("UpsertSighting failed: %v", err)
	}

	other := int64(8)
	if _, err := users.UpsertSighting(100, "Alice", "alice", &other); err != nil {
		t.Fatalf("second UpsertSighting failed: %v", err)
	}

	user, _ := users.Get(100)
	if user.ReferredBy == nil || *user.ReferredBy != 7 {
		t.Errorf("expected referred_by to stay 7, got %v", user.ReferredBy)
	}
}

func TestUpsertSightingIgnoresSelfReferral(t *testing.T) {
	users := NewUserStore(setupTestDB(t), testDefaultLimit)

	self := int64(100)
	if _, err := users.UpsertSighting(100, "Alice", "alice", &self); err != nil {
		t.Fatalf("UpsertSighting failed: %v", err)
	}

	user, _ := users.Get(100)
	if user.ReferredBy != nil {
		t.Errorf("expected self-referral to be dropped, got %d", *user.ReferredBy)
	}
}

func TestGetNotFound(t *testing.T) {
	users := NewUserStore(setupTestDB(t), testDefaultLimit)

	if _, err := users.Get(999); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyDelta(t *testing.T) {
	users := NewUserStore(setupTestDB(t), testDefaultLimit)
	users.UpsertSighting(100, "Alice", "alice", nil)

	err := users.ApplyDelta(100, map[string]int{"referral_count": 1, "daily_limit": 5})
	if err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}

	user, _ := users.Get(100)
	if user.ReferralCount != 1 {
		t.Errorf("expected referral_count 1, got %d", user.ReferralCount)
	}
	if user.DailyLimit != testDefaultLimit+5 {
		t.Errorf("expected daily_limit %d, got %d", testDefaultLimit+5, user.DailyLimit)
	}

	if err := users.ApplyDelta(999, map[string]int{"referral_count": 1}); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestSetFields(t *testing.T) {
	users := NewUserStore(setupTestDB(t), testDefaultLimit)
	users.UpsertSighting(100, "Alice", "alice", nil)

	err := users.SetFields(100, map[string]any{"used_today": 4, "last_reset_date": "2020-01-01"})
	if err != nil {
		t.Fatalf("SetFields failed: %v", err)
	}

	user, _ := users.Get(100)
	if user.UsedToday != 4 || user.LastResetDate != "2020-01-01" {
		t.Errorf("unexpected state after SetFields: used=%d date=%s", user.UsedToday, user.LastResetDate)
	}

	if err := users.SetFields(999, map[string]any{"used_today": 0}); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestConsumeOneRespectsLimit(t *testing.T) {
	users := NewUserStore(setupTestDB(t), 2)
	users.UpsertSighting(100, "Alice", "alice", nil)
	today := Today()

	for i := 0; i < 2; i++ {
		ok, err := users.ConsumeOne(100, today)
		if err != nil {
			t.Fatalf("ConsumeOne failed: %v", err)
		}
		if !ok {
			t.Fatalf("consume %d should have succeeded", i+1)
		}
	}

	ok, err := users.ConsumeOne(100, today)
	if err != nil {
		t.Fatalf("ConsumeOne failed: %v", err)
	}
	if ok {
		t.Error("consume past the limit should have been refused")
	}

	user, _ := users.Get(100)
	if user.UsedToday != 2 {
		t.Errorf("expected used_today pinned at 2, got %d", user.UsedToday)
	}
}

func TestConsumeOneRefusesStaleWindow(t *testing.T) {
	users := NewUserStore(setupTestDB(t), testDefaultLimit)
	users.UpsertSighting(100, "Alice", "alice", nil)
	users.SetFields(100, map[string]any{"last_reset_date": "2020-01-01"})

	ok, err := users.ConsumeOne(100, Today())
	if err != nil {
		t.Fatalf("ConsumeOne failed: %v", err)
	}
	if ok {
		t.Error("consume on a stale window should have been refused")
	}
}

func TestResetIfStale(t *testing.T) {
	users := NewUserStore(setupTestDB(t), testDefaultLimit)
	users.UpsertSighting(100, "Alice", "alice", nil)
	users.SetFields(100, map[string]any{"used_today": 5, "last_reset_date": "2020-01-01"})

	if err := users.ResetIfStale(100, Today()); err != nil {
		t.Fatalf("ResetIfStale failed: %v", err)
	}

	user, _ := users.Get(100)
	if user.UsedToday != 0 || user.LastResetDate != Today() {
		t.Errorf("expected fresh window, got used=%d date=%s", user.UsedToday, user.LastResetDate)
	}

	// A current window is left alone.
	users.SetFields(100, map[string]any{"used_today": 3})
	if err := users.ResetIfStale(100, Today()); err != nil {
		t.Fatalf("ResetIfStale failed: %v", err)
	}
	user, _ = users.Get(100)
	if user.UsedToday != 3 {
		t.Errorf("expected current window untouched, got used=%d", user.UsedToday)
	}
}

func TestSweepStaleIsIdempotent(t *testing.T) {
	users := NewUserStore(setupTestDB(t), testDefaultLimit)
	users.UpsertSighting(100, "Alice", "alice", nil)
	users.UpsertSighting(200, "Bob", "bob", nil)
	users.SetFields(100, map[string]any{"used_today": 5, "last_reset_date": "2020-01-01"})
	users.SetFields(200, map[string]any{"used_today": 2, "last_reset_date": "2020-01-02"})

	modified, err := users.SweepStale(Today())
	if err != nil {
		t.Fatalf("SweepStale failed: %v", err)
	}
	if modified != 2 {
		t.Errorf("expected 2 modified, got %d", modified)
	}

	modified, err = users.SweepStale(Today())
	if err != nil {
		t.Fatalf("second SweepStale failed: %v", err)
	}
	if modified != 0 {
		t.Errorf("expected 0 modified on second sweep, got %d", modified)
	}

	for _, id := range []int64{100, 200} {
		user, _ := users.Get(id)
		if user.UsedToday != 0 || user.LastResetDate != Today() {
			t.Errorf("user %d not normalized: used=%d date=%s", id, user.UsedToday, user.LastResetDate)
		}
	}
}

func TestAllIDsAndCounts(t *testing.T) {
	users := NewUserStore(setupTestDB(t), testDefaultLimit)
	users.UpsertSighting(100, "Alice", "alice", nil)
	users.UpsertSighting(200, "Bob", "bob", nil)

	ids, err := users.AllIDs()
	if err != nil {
		t.Fatalf("AllIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 IDs, got %d", len(ids))
	}

	n, err := users.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected count 2, got %d", n)
	}

	now := time.Now().UTC()
	joined, err := users.CountJoinedBetween(now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("CountJoinedBetween failed: %v", err)
	}
	if joined != 2 {
		t.Errorf("expected 2 joined in window, got %d", joined)
	}

	joined, err = users.CountJoinedBetween(now.Add(-2*time.Hour), now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountJoinedBetween failed: %v", err)
	}
	if joined != 0 {
		t.Errorf("expected 0 joined in past window, got %d", joined)
	}
}
