package bot

import (
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Keyboard builders. VIP and admin-contact buttons carry URLs, so they are
// only rendered when the corresponding config value is set.

func (b *Bot) mainKeyboard() *telego.InlineKeyboardMarkup {
	first := []telego.InlineKeyboardButton{
		tu.InlineKeyboardButton("📹 Get Video").WithCallbackData("get_video"),
		tu.InlineKeyboardButton("👤 My Profile").WithCallbackData("my_profile"),
	}

	second := []telego.InlineKeyboardButton{
		tu.InlineKeyboardButton("🔗 Referral Link").WithCallbackData("referral_link"),
	}
	if b.Cfg.VIPLink != "" {
		second = append(second, tu.InlineKeyboardButton("💎 VIP Access").WithURL(b.Cfg.VIPLink))
	}

	keyboardRows := [][]telego.InlineKeyboardButton{
		tu.InlineKeyboardRow(first...),
		tu.InlineKeyboardRow(second...),
	}
	if b.Cfg.AdminUsername != "" {
		keyboardRows = append(keyboardRows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("📩 Contact Admin").WithURL(fmt.Sprintf("https://t.me/%s", b.Cfg.AdminUsername)),
		))
	}
	return tu.InlineKeyboard(keyboardRows...)
}

func (b *Bot) profileKeyboard() *telego.InlineKeyboardMarkup {
	rows := [][]telego.InlineKeyboardButton{
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("📹 Get Video").WithCallbackData("get_video"),
			tu.InlineKeyboardButton("🔗 Refer Friends").WithCallbackData("referral_link"),
		),
	}
	if b.Cfg.VIPLink != "" {
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("💎 VIP Access").WithURL(b.Cfg.VIPLink),
		))
	}
	return tu.InlineKeyboard(rows...)
}

func (b *Bot) limitKeyboard() *telego.InlineKeyboardMarkup {
	first := []telego.InlineKeyboardButton{
		tu.InlineKeyboardButton("🔗 Share Referral").WithCallbackData("referral_link"),
	}
	if b.Cfg.VIPLink != "" {
		first = append(first, tu.InlineKeyboardButton("💎 Get VIP").WithURL(b.Cfg.VIPLink))
	}

	rows := [][]telego.InlineKeyboardButton{tu.InlineKeyboardRow(first...)}
	if b.Cfg.AdminUsername != "" {
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("📩 Contact Admin").WithURL(fmt.Sprintf("https://t.me/%s", b.Cfg.AdminUsername)),
		))
	}
	return tu.InlineKeyboard(rows...)
}

func (b *Bot) videoKeyboard() *telego.InlineKeyboardMarkup {
	row := []telego.InlineKeyboardButton{
		tu.InlineKeyboardButton("📹 Next Video").WithCallbackData("get_video"),
	}
	if b.Cfg.VIPLink != "" {
		row = append(row, tu.InlineKeyboardButton("💎 VIP Access").WithURL(b.Cfg.VIPLink))
	}
	return tu.InlineKeyboard(tu.InlineKeyboardRow(row...))
}

func (b *Bot) vipKeyboard() *telego.InlineKeyboardMarkup {
	if b.Cfg.VIPLink == "" {
		return nil
	}
	return tu.InlineKeyboard(tu.InlineKeyboardRow(
		tu.InlineKeyboardButton("💎 VIP Access").WithURL(b.Cfg.VIPLink),
	))
}
