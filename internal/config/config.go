package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken      string
	DBUser        string
	DBPassword    string
	DBName        string
	DBHost        string
	DBPort        string
	RedisHost     string
	RedisPort     string
	RedisPassword string

	AdminIDs        []int64
	LogGroupID      int64
	IngestChannelID int64
	VIPLink         string
	AdminUsername   string

	DefaultDailyLimit        int
	ReferralBonus            int
	VideoAutoDeleteSeconds   int
	WarningAutoDeleteSeconds int
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		BotToken:      getEnv("BOT_TOKEN", ""),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "vidref_bot"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		AdminIDs:        parseIDList(getEnv("ADMIN_IDS", "")),
		LogGroupID:      getEnvInt64("LOG_GROUP_ID", 0),
		IngestChannelID: getEnvInt64("INGEST_CHANNEL_ID", 0),
		VIPLink:         getEnv("VIP_LINK", ""),
		AdminUsername:   getEnv("ADMIN_USERNAME", ""),

		DefaultDailyLimit:        getEnvInt("DEFAULT_DAILY_LIMIT", 10),
		ReferralBonus:            getEnvInt("REFERRAL_BONUS", 5),
		VideoAutoDeleteSeconds:   getEnvInt("VIDEO_AUTO_DELETE_SECONDS", 600),
		WarningAutoDeleteSeconds: getEnvInt("WARNING_AUTO_DELETE_SECONDS", 20),
	}
}

// Validate returns every missing required setting. A non-empty result is a
// fatal startup condition for the caller. Optional settings only warn.
func (c *Config) Validate() []string {
	var missing []string
	if c.BotToken == "" {
		missing = append(missing, "BOT_TOKEN")
	}
	if c.DBHost == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.DBName == "" {
		missing = append(missing, "DB_NAME")
	}

	if len(c.AdminIDs) == 0 {
		log.Println("No ADMIN_IDS configured, admin commands disabled")
	}
	if c.LogGroupID == 0 {
		log.Println("LOG_GROUP_ID not set, audit logging disabled")
	}
	if c.IngestChannelID == 0 {
		log.Println("INGEST_CHANNEL_ID not set, video ingestion disabled")
	}
	if c.VIPLink == "" {
		log.Println("VIP_LINK not set, VIP buttons will be hidden")
	}

	return missing
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid integer for %s: %q, using default %d", key, value, fallback)
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		log.Printf("Invalid integer for %s: %q, using default %d", key, value, fallback)
	}
	return fallback
}

// parseIDList parses a comma-separated list of Telegram IDs, skipping
// anything that is not a number.
func parseIDList(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("Skipping invalid admin ID %q", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
