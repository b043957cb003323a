package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"vidref-bot/internal/config"
	"vidref-bot/internal/notify"
	"vidref-bot/internal/quota"
	"vidref-bot/internal/referral"
	"vidref-bot/internal/store"
)

type Bot struct {
	Instance *telego.Bot
	Users    *store.UserStore
	Videos   *store.VideoStore
	Quota    *quota.Engine
	Referral *referral.Engine
	Notify   *notify.Notifier
	Cfg      *config.Config

	username string
}

func New(instance *telego.Bot, users *store.UserStore, videos *store.VideoStore,
	quotaEngine *quota.Engine, referralEngine *referral.Engine,
	notifier *notify.Notifier, cfg *config.Config) *Bot {
	return &Bot{
		Instance: instance,
		Users:    users,
		Videos:   videos,
		Quota:    quotaEngine,
		Referral: referralEngine,
		Notify:   notifier,
		Cfg:      cfg,
	}
}

// Start begins long polling and blocks until the updates channel closes.
func (b *Bot) Start(ctx context.Context) error {
	me, err := b.Instance.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot identity: %w", err)
	}
	b.username = me.Username
	log.Printf("Bot started: @%s (ID: %d)", me.Username, me.ID)

	updates, err := b.Instance.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	handler, err := th.NewBotHandler(b.Instance, updates)
	if err != nil {
		return fmt.Errorf("failed to create handler: %w", err)
	}

	b.registerUserHandlers(handler)
	b.registerAdminHandlers(handler)
	b.registerSecurityHandlers(handler)

	return handler.Start()
}

func (b *Bot) refLink(userID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%d", b.username, userID)
}

func (b *Bot) isAdmin(userID int64) bool {
	for _, id := range b.Cfg.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) registerUserHandlers(handler *th.BotHandler) {
	handler.Handle(b.handleStart, th.CommandEqual("start"))
	handler.Handle(b.handleVideo, th.CommandEqual("video"))
	handler.Handle(b.handleProfile, th.Or(th.CommandEqual("me"), th.CommandEqual("status")))

	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		cq := update.CallbackQuery
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(cq.ID).WithText("⏳ Fetching video…"))
		b.sendVideo(ctx, cq.From.ID, cq.From.ID)
		return nil
	}, th.CallbackDataEqual("get_video"))

	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		cq := update.CallbackQuery
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(cq.ID))
		b.sendProfile(ctx, cq.From.ID, cq.From.ID)
		return nil
	}, th.CallbackDataEqual("my_profile"))

	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		cq := update.CallbackQuery
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(cq.ID))

		text := fmt.Sprintf(
			"<b>🔗 Your Referral Link</b>\n\n"+
				"<code>%s</code>\n\n"+
				"<i>Share this link — you earn <b>+%d</b> daily videos per new referral!</i>",
			b.refLink(cq.From.ID), b.Cfg.ReferralBonus)
		b.Notify.SendMarkup(ctx.Context(), cq.From.ID, text, b.vipKeyboard())
		return nil
	}, th.CallbackDataEqual("referral_link"))

	handler.Handle(b.handleJoinRequest, func(ctx context.Context, update telego.Update) bool {
		return update.ChatJoinRequest != nil
	})
}

func (b *Bot) handleStart(ctx *th.Context, update telego.Update) error {
	message := update.Message
	userID := message.From.ID
	firstName := message.From.FirstName
	if firstName == "" {
		firstName = "User"
	}
	username := message.From.Username

	// Referral parameter: /start <referrerID>
	var referredBy *int64
	if parts := strings.Split(message.Text, " "); len(parts) > 1 {
		if refID, err := strconv.ParseInt(parts[1], 10, 64); err == nil && refID != userID {
			referredBy = &refID
		}
	}

	isNew, err := b.Users.UpsertSighting(userID, firstName, username, referredBy)
	if err != nil {
		log.Printf("Failed to register user %d: %v", userID, err)
		b.Notify.Send(ctx.Context(), message.Chat.ID, "<b>❌ Something went wrong. Please try again.</b>")
		return nil
	}

	// Credit only for genuinely new users; repeats of /start never double-credit.
	if isNew && referredBy != nil {
		outcome, err := b.Referral.Credit(ctx.Context(), userID, *referredBy)
		if err != nil {
			log.Printf("Referral credit failed for %d: %v", userID, err)
		} else if outcome != referral.Credited {
			log.Printf("Referral for %d not credited: %v", userID, outcome)
		}
	}

	welcome := fmt.Sprintf(
		"<b>👋 Welcome, %s!</b>\n\n"+
			"I'm your <b>Video &amp; Referral Bot</b>.\n\n"+
			"📹  /video  — Get a random video\n"+
			"👤  /me     — View your profile\n"+
			"🔗  Share your referral link to unlock more daily videos!\n\n"+
			"<b>Your Referral Link:</b>\n<code>%s</code>",
		firstName, b.refLink(userID))
	if b.Cfg.AdminUsername != "" {
		welcome += fmt.Sprintf("\n\n📩 Contact: @%s", b.Cfg.AdminUsername)
	}

	b.Notify.SendMarkup(ctx.Context(), message.Chat.ID, welcome, b.mainKeyboard())

	if isNew {
		referredByLabel := "Direct"
		if referredBy != nil {
			referredByLabel = strconv.FormatInt(*referredBy, 10)
		}
		b.Notify.Audit(ctx.Context(), fmt.Sprintf(
			"<b>🆕 New User</b>\n\n"+
				"<b>Name:</b> %s\n"+
				"<b>Username:</b> @%s\n"+
				"<b>ID:</b> <code>%d</code>\n"+
				"<b>Referred by:</b> <code>%s</code>",
			firstName, orNA(username), userID, referredByLabel))
	}
	return nil
}

func (b *Bot) handleVideo(ctx *th.Context, update telego.Update) error {
	b.sendVideo(ctx, update.Message.From.ID, update.Message.Chat.ID)
	return nil
}

func (b *Bot) handleProfile(ctx *th.Context, update telego.Update) error {
	b.sendProfile(ctx, update.Message.From.ID, update.Message.Chat.ID)
	return nil
}

func (b *Bot) sendVideo(ctx *th.Context, userID, chatID int64) {
	result, err := b.Quota.TryConsume(userID)
	if err != nil {
		log.Printf("Video request failed for %d: %v", userID, err)
		b.Notify.Send(ctx.Context(), chatID, "<b>❌ Failed to send video. Please try again.</b>")
		return
	}

	switch result.Outcome {
	case quota.NotRegistered:
		b.Notify.Send(ctx.Context(), chatID, "<b>❌ Not registered. Send /start first.</b>")
		return

	case quota.Denied:
		text := fmt.Sprintf(
			"<b>⚠️ Daily Limit Reached!</b>\n\n"+
				"You've used all <b>%d</b> videos for today.\n\n"+
				"💡 Refer friends to get <b>+%d</b> extra daily videos!\n\n"+
				"<b>🔗 Your Referral Link:</b>\n<code>%s</code>",
			result.Limit, b.Cfg.ReferralBonus, b.refLink(userID))
		b.Notify.SendMarkup(ctx.Context(), chatID, text, b.limitKeyboard())
		return

	case quota.NoContent:
		text := "<b>❌ No videos in the database yet.</b>"
		if b.Cfg.AdminUsername != "" {
			text += fmt.Sprintf("\n\n📩 Contact @%s to report this issue.", b.Cfg.AdminUsername)
		}
		b.Notify.Send(ctx.Context(), chatID, text)
		return
	}

	autoDelete := time.Duration(b.Cfg.VideoAutoDeleteSeconds) * time.Second
	caption := fmt.Sprintf(
		"<b>📹 Random Video</b>\n\n"+
			"<b>📊 Usage:</b> %d/%d\n"+
			"<i>⏱ Auto-deletes in %d minutes</i>",
		result.Used, result.Limit, int(autoDelete.Minutes()))

	sent, err := ctx.Bot().SendVideo(ctx.Context(), tu.Video(
		tu.ID(chatID),
		tu.FileFromID(result.Video.FileID),
	).WithCaption(caption).WithParseMode(telego.ModeHTML).WithReplyMarkup(b.videoKeyboard()))
	if err != nil {
		log.Printf("Video send error for %d: %v", userID, err)
		b.Notify.Send(ctx.Context(), chatID, "<b>❌ Failed to send video. Please try again.</b>")
		return
	}

	b.Notify.AutoDelete(chatID, sent.MessageID, autoDelete)
	b.Notify.Audit(ctx.Context(), fmt.Sprintf(
		"<b>📹 Video Sent</b>\nUser: <code>%d</code>\nUsage: %d/%d",
		userID, result.Used, result.Limit))
}

func (b *Bot) sendProfile(ctx *th.Context, userID, chatID int64) {
	user, err := b.Users.Get(userID)
	if err == store.ErrNotFound {
		b.Notify.Send(ctx.Context(), chatID, "<b>❌ Not registered. Send /start first.</b>")
		return
	}
	if err != nil {
		log.Printf("Profile load failed for %d: %v", userID, err)
		b.Notify.Send(ctx.Context(), chatID, "<b>❌ Something went wrong. Please try again.</b>")
		return
	}

	// Show today's numbers even if neither the sweeper nor a consume has
	// touched this user yet.
	if user.LastResetDate != store.Today() {
		if err := b.Users.ResetIfStale(userID, store.Today()); err != nil {
			log.Printf("Lazy reset failed for %d: %v", userID, err)
		} else {
			user.UsedToday = 0
		}
	}

	text := fmt.Sprintf(
		"<b>👤 Your Profile</b>\n"+
			"────────────────────\n\n"+
			"<b>🆔 User ID:</b> <code>%d</code>\n"+
			"<b>📛 Name:</b> %s\n"+
			"<b>📅 Joined:</b> %s\n\n"+
			"<b>📹 Daily Limit:</b> %d\n"+
			"<b>📊 Used Today:</b> %d\n"+
			"<b>📈 Remaining:</b> %d\n\n"+
			"<b>👥 Referrals:</b> %d\n\n"+
			"<b>🔗 Referral Link:</b>\n<code>%s</code>",
		user.TelegramID, user.FirstName,
		user.CreatedAt.UTC().Format("2006-01-02 15:04 UTC"),
		user.DailyLimit, user.UsedToday, user.Remaining(),
		user.ReferralCount, b.refLink(userID))

	b.Notify.SendMarkup(ctx.Context(), chatID, text, b.profileKeyboard())
}

func (b *Bot) handleJoinRequest(ctx *th.Context, update telego.Update) error {
	req := update.ChatJoinRequest
	user := req.From

	err := ctx.Bot().ApproveChatJoinRequest(ctx.Context(), &telego.ApproveChatJoinRequestParams{
		ChatID: tu.ID(req.Chat.ID),
		UserID: user.ID,
	})
	if err != nil {
		log.Printf("Auto-approve error for %d: %v", user.ID, err)
		return nil
	}

	firstName := user.FirstName
	if firstName == "" {
		firstName = "User"
	}
	if _, err := b.Users.UpsertSighting(user.ID, firstName, user.Username, nil); err != nil {
		log.Printf("Failed to register joined user %d: %v", user.ID, err)
	}

	keyboard := tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🚀 Start Bot").WithURL(fmt.Sprintf("https://t.me/%s?start=approved", b.username)),
		),
	)
	b.Notify.SendMarkup(ctx.Context(), user.ID,
		"<b>✅ Your join request has been approved!</b>\n\nSend /start to begin using the bot.",
		keyboard)

	b.Notify.Audit(ctx.Context(), fmt.Sprintf(
		"<b>✅ Join Request Approved</b>\nUser: %s (<code>%d</code>)", firstName, user.ID))
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
