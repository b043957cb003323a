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
)

// Keywords that mark a group message as containing a link.
var linkKeywords = []string{"http://", "https://", "t.me/"}

func (b *Bot) registerSecurityHandlers(handler *th.BotHandler) {
	handler.Handle(b.handleForwarded, func(ctx context.Context, update telego.Update) bool {
		m := update.Message
		return m != nil && isGroupChat(m.Chat) && m.From != nil && m.ForwardOrigin != nil
	})

	handler.Handle(b.handleLinks, func(ctx context.Context, update telego.Update) bool {
		m := update.Message
		if m == nil || !isGroupChat(m.Chat) || m.From == nil || m.ForwardOrigin != nil {
			return false
		}
		text := strings.ToLower(m.Text + m.Caption)
		for _, kw := range linkKeywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
		return false
	})
}

func isGroupChat(chat telego.Chat) bool {
	return chat.Type == telego.ChatTypeGroup || chat.Type == telego.ChatTypeSupergroup
}

func (b *Bot) handleLinks(ctx *th.Context, update telego.Update) error {
	b.deleteAndWarn(ctx, update.Message, "links are <b>not allowed</b> in this group.")
	return nil
}

func (b *Bot) handleForwarded(ctx *th.Context, update telego.Update) error {
	b.deleteAndWarn(ctx, update.Message, "forwarded messages are <b>not allowed</b> in this group.")
	return nil
}

func (b *Bot) deleteAndWarn(ctx *th.Context, message *telego.Message, reason string) {
	if b.isGroupAdmin(ctx, message.Chat.ID, message.From.ID) {
		return
	}

	err := ctx.Bot().DeleteMessage(ctx.Context(), &telego.DeleteMessageParams{
		ChatID:    tu.ID(message.Chat.ID),
		MessageID: message.MessageID,
	})
	if err != nil {
		log.Printf("Failed to delete message from %d in %d: %v", message.From.ID, message.Chat.ID, err)
		return
	}
	log.Printf("Message deleted from %d in %d", message.From.ID, message.Chat.ID)

	warnDelay := time.Duration(b.Cfg.WarningAutoDeleteSeconds) * time.Second
	text := fmt.Sprintf(
		"<b>⚠️ Warning</b>\n\n<b>%s</b>, %s\n\n"+
			"<i>This warning will disappear in %ds.</i>",
		message.From.FirstName, reason, b.Cfg.WarningAutoDeleteSeconds)

	warning, err := ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(message.Chat.ID), text).
		WithParseMode(telego.ModeHTML))
	if err != nil {
		log.Printf("Failed to send warning in %d: %v", message.Chat.ID, err)
		return
	}
	b.Notify.AutoDelete(message.Chat.ID, warning.MessageID, warnDelay)
}

// isGroupAdmin reports whether the user administrates the chat. Lookup
// failures err on the side of not filtering.
func (b *Bot) isGroupAdmin(ctx *th.Context, chatID, userID int64) bool {
	member, err := ctx.Bot().GetChatMember(ctx.Context(), &telego.GetChatMemberParams{
		ChatID: tu.ID(chatID),
		UserID: userID,
	})
	if err != nil {
		log.Printf("Failed to check member status for %d in %d: %v", userID, chatID, err)
		return true
	}
	status := member.MemberStatus()
	return status == telego.MemberStatusAdministrator || status == telego.MemberStatusCreator
}
