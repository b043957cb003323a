package referral

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"vidref-bot/internal/store"
)

// Outcome classifies a referral credit attempt.
type Outcome int

const (
	Credited Outcome = iota
	SelfReferral
	ReferrerNotFound
	AlreadyCredited
)

func (o Outcome) String() string {
	switch o {
	case Credited:
		return "credited"
	case SelfReferral:
		return "self referral"
	case ReferrerNotFound:
		return "referrer not found"
	case AlreadyCredited:
		return "already credited"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Notifier receives the best-effort "you got a referral" message. Failures
// are the notifier's problem; the credit never rolls back.
type Notifier interface {
	ReferralCredited(ctx context.Context, referrerID int64, bonus, totalReferrals, newLimit int)
}

// Engine validates and credits referral relationships.
type Engine struct {
	users    *store.UserStore
	rdb      *redis.Client // optional once-guard backend, may be nil
	bonus    int
	notifier Notifier
}

func NewEngine(users *store.UserStore, rdb *redis.Client, bonus int, notifier Notifier) *Engine {
	return &Engine{users: users, rdb: rdb, bonus: bonus, notifier: notifier}
}

// Credit awards the referrer +1 referral and +bonus daily limit for bringing
// in newUserID. The caller must only invoke this when newUserID genuinely
// registered for the first time; when Redis is available a SETNX guard
// additionally rejects repeat invocations for the same new user.
func (e *Engine) Credit(ctx context.Context, newUserID, referrerID int64) (Outcome, error) {
	if newUserID == referrerID {
		log.Printf("Self-referral blocked: %d", newUserID)
		return SelfReferral, nil
	}

	referrer, err := e.users.Get(referrerID)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("Referrer %d not found", referrerID)
		return ReferrerNotFound, nil
	}
	if err != nil {
		return 0, err
	}

	if !e.markCredited(ctx, newUserID) {
		log.Printf("Referral for new user %d already credited", newUserID)
		return AlreadyCredited, nil
	}

	err = e.users.ApplyDelta(referrerID, map[string]int{
		"referral_count": 1,
		"daily_limit":    e.bonus,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to credit referrer %d: %w", referrerID, err)
	}

	newCount := referrer.ReferralCount + 1
	newLimit := referrer.DailyLimit + e.bonus
	log.Printf("Referral credited: %d -> referrer %d (now %d refs, limit %d)",
		newUserID, referrerID, newCount, newLimit)

	if e.notifier != nil {
		e.notifier.ReferralCredited(ctx, referrerID, e.bonus, newCount, newLimit)
	}
	return Credited, nil
}

// markCredited claims the one credit slot for this new user. Best effort: a
// Redis failure (or no Redis at all) falls back to the caller's
// once-per-registration contract.
func (e *Engine) markCredited(ctx context.Context, newUserID int64) bool {
	if e.rdb == nil {
		return true
	}
	key := fmt.Sprintf("ref_credited_%d", newUserID)
	ok, err := e.rdb.SetNX(ctx, key, "1", 0).Result()
	if err != nil {
		log.Printf("Referral once-guard unavailable: %v", err)
		return true
	}
	return ok
}
