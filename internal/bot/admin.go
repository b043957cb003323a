package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"vidref-bot/internal/models"
)

// broadcastDelay spaces out fan-out sends to stay under Telegram's rate
// limits.
const broadcastDelay = 100 * time.Millisecond

func (b *Bot) registerAdminHandlers(handler *th.BotHandler) {
	handler.Handle(b.handleStats, th.CommandEqual("stats"))
	handler.Handle(b.handleBroadcast, th.CommandEqual("broadcast"))

	// Video ingestion: any video posted to the configured channel joins the pool.
	handler.Handle(b.handleIngest, func(ctx context.Context, update telego.Update) bool {
		return update.ChannelPost != nil &&
			update.ChannelPost.Video != nil &&
			b.Cfg.IngestChannelID != 0 &&
			update.ChannelPost.Chat.ID == b.Cfg.IngestChannelID
	})
}

func (b *Bot) handleStats(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if !b.isAdmin(message.From.ID) {
		return nil
	}

	totalUsers, err := b.Users.Count()
	if err != nil {
		log.Printf("Stats query failed: %v", err)
		b.Notify.Send(ctx.Context(), message.Chat.ID, "<b>❌ Failed to load stats.</b>")
		return nil
	}
	totalVideos, err := b.Videos.Count()
	if err != nil {
		log.Printf("Stats query failed: %v", err)
		b.Notify.Send(ctx.Context(), message.Chat.ID, "<b>❌ Failed to load stats.</b>")
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>📊 Bot Statistics</b>\n\n")
	fmt.Fprintf(&sb, "<b>👥 Total Users:</b> %d\n", totalUsers)
	fmt.Fprintf(&sb, "<b>📹 Total Videos:</b> %d\n\n", totalVideos)
	fmt.Fprintf(&sb, "<b>🗓 New users, last 7 days:</b>\n")

	now := time.Now().UTC()
	for i := 0; i < 7; i++ {
		day := now.AddDate(0, 0, -i)
		from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 0, 1)
		n, err := b.Users.CountJoinedBetween(from, to)
		if err != nil {
			log.Printf("Stats query failed for %s: %v", from.Format(models.DateLayout), err)
			continue
		}
		fmt.Fprintf(&sb, "  %s — %d\n", from.Format(models.DateLayout), n)
	}

	b.Notify.Send(ctx.Context(), message.Chat.ID, sb.String())
	return nil
}

// handleBroadcast fans the text after the command out to every registered
// user. Best effort: per-recipient failures are counted and skipped.
func (b *Bot) handleBroadcast(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if !b.isAdmin(message.From.ID) {
		return nil
	}

	text := strings.TrimSpace(strings.TrimPrefix(message.Text, "/broadcast"))
	if text == "" {
		b.Notify.Send(ctx.Context(), message.Chat.ID,
			"<b>Usage:</b> <code>/broadcast your message</code>")
		return nil
	}

	ids, err := b.Users.AllIDs()
	if err != nil {
		log.Printf("Broadcast listing failed: %v", err)
		b.Notify.Send(ctx.Context(), message.Chat.ID, "<b>❌ Failed to load recipients.</b>")
		return nil
	}

	sent := 0
	for _, id := range ids {
		_, err := ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(id), text).
			WithParseMode(telego.ModeHTML))
		if err != nil {
			log.Printf("Broadcast to %d failed: %v", id, err)
		} else {
			sent++
		}
		time.Sleep(broadcastDelay)
	}

	log.Printf("Broadcast finished: %d/%d delivered", sent, len(ids))
	b.Notify.Send(ctx.Context(), message.Chat.ID,
		fmt.Sprintf("<b>📣 Broadcast complete:</b> %d/%d delivered.", sent, len(ids)))
	return nil
}

func (b *Bot) handleIngest(ctx *th.Context, update telego.Update) error {
	post := update.ChannelPost

	addedBy := post.Chat.ID
	if post.From != nil {
		addedBy = post.From.ID
	}

	wasNew, err := b.Videos.Add(post.Video.FileID, addedBy)
	if err != nil {
		log.Printf("Video ingestion failed: %v", err)
		return nil
	}
	if !wasNew {
		log.Printf("Duplicate video ignored in channel %d", post.Chat.ID)
		return nil
	}

	total, err := b.Videos.Count()
	if err != nil {
		log.Printf("Video count failed: %v", err)
		return nil
	}
	b.Notify.Audit(ctx.Context(), fmt.Sprintf(
		"<b>📥 Video Ingested</b>\nPool size: %d", total))
	return nil
}
