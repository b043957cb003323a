package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mymmrac/telego"

	"vidref-bot/internal/bot"
	"vidref-bot/internal/config"
	"vidref-bot/internal/database"
	"vidref-bot/internal/notify"
	"vidref-bot/internal/quota"
	"vidref-bot/internal/referral"
	"vidref-bot/internal/store"
	"vidref-bot/internal/worker"
)

const sweepInterval = 1 * time.Hour

func main() {
	cfg := config.LoadConfig()
	if missing := cfg.Validate(); len(missing) > 0 {
		log.Fatalf("Missing required configuration: %s", strings.Join(missing, ", "))
	}

	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	// Redis only backs the referral once-guard; the bot runs without it.
	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Printf("Redis unavailable, referral once-guard disabled: %v", err)
		rdb = nil
	}

	tg, err := telego.NewBot(cfg.BotToken)
	if err != nil {
		log.Fatalf("Could not create bot: %v", err)
	}

	users := store.NewUserStore(db, cfg.DefaultDailyLimit)
	videos := store.NewVideoStore(db)
	notifier := notify.New(tg, cfg.LogGroupID)
	quotaEngine := quota.NewEngine(users, videos)
	referralEngine := referral.NewEngine(users, rdb, cfg.ReferralBonus, notifier)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := worker.NewSweeper(users, sweepInterval)
	go sweeper.Run(ctx)

	b := bot.New(tg, users, videos, quotaEngine, referralEngine, notifier, cfg)
	if err := b.Start(ctx); err != nil {
		log.Fatalf("Bot stopped with error: %v", err)
	}
}
