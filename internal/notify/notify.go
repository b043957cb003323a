package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Notifier sends best-effort outbound messages: every failure is logged and
// swallowed, never propagated to the caller. All of the bot's fire-and-forget
// traffic (referral pings, audit lines, warning cleanup) goes through here.
type Notifier struct {
	bot        *telego.Bot
	logGroupID int64
}

func New(bot *telego.Bot, logGroupID int64) *Notifier {
	return &Notifier{bot: bot, logGroupID: logGroupID}
}

// Send delivers a plain HTML message, logging any failure.
func (n *Notifier) Send(ctx context.Context, chatID int64, text string) {
	_, err := n.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text).
		WithParseMode(telego.ModeHTML))
	if err != nil {
		log.Printf("Best-effort send to %d failed: %v", chatID, err)
	}
}

// SendMarkup delivers an HTML message with an inline keyboard, logging any
// failure. A nil markup degrades to a plain send.
func (n *Notifier) SendMarkup(ctx context.Context, chatID int64, text string, markup *telego.InlineKeyboardMarkup) {
	if markup == nil {
		n.Send(ctx, chatID, text)
		return
	}
	_, err := n.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text).
		WithParseMode(telego.ModeHTML).
		WithReplyMarkup(markup))
	if err != nil {
		log.Printf("Best-effort send to %d failed: %v", chatID, err)
	}
}

// Audit posts a line to the configured audit group. No-op when the group is
// not configured.
func (n *Notifier) Audit(ctx context.Context, text string) {
	if n.logGroupID == 0 {
		return
	}
	_, err := n.bot.SendMessage(ctx, tu.Message(tu.ID(n.logGroupID), text).
		WithParseMode(telego.ModeHTML))
	if err != nil {
		log.Printf("Audit send failed: %v", err)
	}
}

// AutoDelete removes a sent message after the delay. Runs in its own
// goroutine; a failed delete (user already cleaned up, message too old) is
// logged and ignored.
func (n *Notifier) AutoDelete(chatID int64, messageID int, delay time.Duration) {
	go func() {
		time.Sleep(delay)
		err := n.bot.DeleteMessage(context.Background(), &telego.DeleteMessageParams{
			ChatID:    tu.ID(chatID),
			MessageID: messageID,
		})
		if err != nil {
			log.Printf("Auto-delete of message %d in %d failed: %v", messageID, chatID, err)
		}
	}()
}

// ReferralCredited tells a referrer their link brought in a new user.
// Satisfies referral.Notifier.
func (n *Notifier) ReferralCredited(ctx context.Context, referrerID int64, bonus, totalReferrals, newLimit int) {
	n.Send(ctx, referrerID, fmt.Sprintf(
		"<b>🎉 New Referral!</b>\n\n"+
			"A new user joined using your link.\n"+
			"<b>+%d</b> videos added to your daily limit!\n\n"+
			"<b>👥 Total Referrals:</b> %d\n"+
			"<b>📹 New Daily Limit:</b> %d",
		bonus, totalReferrals, newLimit))
}
