package quota

import (
	"errors"
	"fmt"

	"vidref-bot/internal/models"
	"vidref-bot/internal/store"
)

// Outcome classifies the result of a consumption attempt.
type Outcome int

const (
	// Granted: a unit was consumed and Result.Video holds the content.
	Granted Outcome = iota
	// Denied: the user has exhausted today's quota.
	Denied
	// NoContent: the video pool is empty; the user's counter is untouched.
	NoContent
	// NotRegistered: no record exists for this user.
	NotRegistered
)

// Result describes one TryConsume decision. Used and Limit reflect the state
// after a grant (Used includes the consumed unit).
type Result struct {
	Outcome Outcome
	Video   *models.Video
	Used    int
	Limit   int
}

// Engine gates video consumption against each user's daily quota.
type Engine struct {
	users  *store.UserStore
	videos *store.VideoStore
}

func NewEngine(users *store.UserStore, videos *store.VideoStore) *Engine {
	return &Engine{users: users, videos: videos}
}

// TryConsume decides whether the user may receive one video today and, if so,
// consumes the unit and picks the video. Stale quota windows are reset lazily
// here, so the gating decision is correct even if the bulk sweeper has not
// run yet.
func (e *Engine) TryConsume(userID int64) (Result, error) {
	user, err := e.users.Get(userID)
	if errors.Is(err, store.ErrNotFound) {
		return Result{Outcome: NotRegistered}, nil
	}
	if err != nil {
		return Result{}, err
	}

	today := store.Today()
	if user.LastResetDate != today {
		if err := e.users.ResetIfStale(userID, today); err != nil {
			return Result{}, err
		}
		user.UsedToday = 0
		user.LastResetDate = today
	}

	if user.UsedToday >= user.DailyLimit {
		return Result{Outcome: Denied, Used: user.UsedToday, Limit: user.DailyLimit}, nil
	}

	video, err := e.videos.SampleOne()
	if errors.Is(err, store.ErrNotFound) {
		return Result{Outcome: NoContent, Used: user.UsedToday, Limit: user.DailyLimit}, nil
	}
	if err != nil {
		return Result{}, err
	}

	// The consume is a single conditional update bounded by the limit, so a
	// concurrent winner shows up here as a denied consume, never as an
	// over-count.
	consumed, err := e.users.ConsumeOne(userID, today)
	if err != nil {
		return Result{}, err
	}
	if !consumed {
		return Result{Outcome: Denied, Used: user.DailyLimit, Limit: user.DailyLimit}, nil
	}

	return Result{Outcome: Granted, Video: video, Used: user.UsedToday + 1, Limit: user.DailyLimit}, nil
}

func (o Outcome) String() string {
	switch o {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	case NoContent:
		return "no content"
	case NotRegistered:
		return "not registered"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}
