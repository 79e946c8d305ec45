package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_TTL", "")
	t.Setenv("RATE_LIMIT", "")
	t.Setenv("RISK_WIN_RATE", "")

	cfg := Load()
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 300, cfg.RateLimit)
	assert.Equal(t, 0.90, cfg.RiskWinRate)
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("RATE_LIMIT", "-3")
	t.Setenv("RISK_WIN_RATE", "abc")
	t.Setenv("DASHBOARD_POLL", "45s")

	cfg := Load()
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 300, cfg.RateLimit)
	assert.Equal(t, 0.90, cfg.RiskWinRate)
	assert.Equal(t, 45*time.Second, cfg.DashboardPoll)
}

func TestTelegramChatIDs(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID_1", "1001")
	t.Setenv("TELEGRAM_CHAT_ID_2", "not-a-number")
	t.Setenv("TELEGRAM_CHAT_ID_3", "")
	t.Setenv("TELEGRAM_CHAT_ID_4", "-42")
	t.Setenv("TELEGRAM_CHAT_ID_5", "")

	assert.Equal(t, []int64{1001, -42}, Load().TelegramChatIDs)
}

func TestNATSSettings(t *testing.T) {
	t.Setenv("NATS_URL", "nats://events:4222")
	t.Setenv("NATS_TOKEN", "s3cret")

	cfg := Load()
	assert.Equal(t, "nats://events:4222", cfg.NATSURL)
	assert.Equal(t, "s3cret", cfg.NATSToken)
}
