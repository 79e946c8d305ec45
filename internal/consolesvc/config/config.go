package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

type Config struct {
	PlatformURL    string // base url of the platform admin API
	Port           string
	JWTSecret      string
	SessionTTL     time.Duration
	RequestTimeout time.Duration
	DashboardPoll  time.Duration
	LivePoll       time.Duration
	RateLimit      int // requests per minute per ip
	MongoURI       string
	PostgresURL    string
	NATSURL        string // empty keeps console events in process
	NATSToken      string

	// risk and segment thresholds
	RiskWagerNoDeposit float64
	RiskWagerWinRate   float64
	RiskWinRate        float64
	VIPWagerThreshold  float64

	// riskwatch
	WatchInterval time.Duration
	WatchUsername string
	WatchPassword string

	// telegram alerts for critical flags, disabled without a token
	TelegramToken   string
	TelegramChatIDs []int64
}

func Load() Config {
	return Config{
		PlatformURL:    getEnv("PLATFORM_API_URL", "http://127.0.0.1:8080"),
		Port:           getEnv("CONSOLE_PORT", "8090"),
		JWTSecret:      os.Getenv("JWT_SECRET_KEY"),
		SessionTTL:     getDuration("SESSION_TTL", 12*time.Hour),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 15*time.Second),
		DashboardPoll:  getDuration("DASHBOARD_POLL", 30*time.Second),
		LivePoll:       getDuration("LIVE_POLL", 5*time.Second),
		RateLimit:      getInt("RATE_LIMIT", 300),
		MongoURI:       os.Getenv("MONGODB_URI"),
		PostgresURL:    os.Getenv("POSTGRES_URL"),
		NATSURL:        os.Getenv("NATS_URL"),
		NATSToken:      os.Getenv("NATS_TOKEN"),

		RiskWagerNoDeposit: getFloat("RISK_WAGER_NO_DEPOSIT", 1000),
		RiskWagerWinRate:   getFloat("RISK_WAGER_WIN_RATE", 500),
		RiskWinRate:        getFloat("RISK_WIN_RATE", 0.90),
		VIPWagerThreshold:  getFloat("VIP_WAGER_THRESHOLD", 5000),

		WatchInterval: getDuration("RISKWATCH_INTERVAL", 10*time.Minute),
		WatchUsername: os.Getenv("RISKWATCH_USERNAME"),
		WatchPassword: os.Getenv("RISKWATCH_PASSWORD"),

		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatIDs: chatIDs(),
	}
}

// chatIDs reads TELEGRAM_CHAT_ID_1 .. TELEGRAM_CHAT_ID_5.
func chatIDs() []int64 {
	var ids []int64
	for i := 1; i <= 5; i++ {
		key := fmt.Sprintf("TELEGRAM_CHAT_ID_%d", i)
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Errorf("Invalid %s format: %v", key, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warnf("invalid %s value %q, using %s", key, v, def)
		return def
	}
	return d
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warnf("invalid %s value %q, using %d", key, v, def)
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		log.Warnf("invalid %s value %q, using %v", key, v, def)
		return def
	}
	return f
}
