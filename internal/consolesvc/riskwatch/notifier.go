package riskwatch

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/store"
)

// Notifier is told about every new flag at or above its severity.
type Notifier interface {
	Notify(rec store.FlagRecord)
}

// TelegramNotifier sends critical risk flags to a fixed set of chats.
type TelegramNotifier struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
}

func NewTelegramNotifier(botToken string, chatIDs []int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatIDs: chatIDs}, nil
}

// newTelegramNotifierWithEndpoint points the bot at another API host.
func newTelegramNotifierWithEndpoint(botToken, endpoint string, chatIDs []int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(botToken, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatIDs: chatIDs}, nil
}

// Notify only forwards critical flags. Sends run in the background.
func (tn *TelegramNotifier) Notify(rec store.FlagRecord) {
	if tn == nil || tn.bot == nil || rec.Severity != rules.SeverityCritical {
		return
	}

	text := alertText(rec)
	for _, chatID := range tn.chatIDs {
		go func(cid int64) {
			if _, err := tn.bot.Send(tgbotapi.NewMessage(cid, text)); err != nil {
				log.Errorf("Failed to send telegram message to chat %d: %v", cid, err)
			}
		}(chatID)
	}
}

func alertText(rec store.FlagRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s risk flag: %s\n", strings.ToUpper(string(rec.Severity)), rec.Flag)
	fmt.Fprintf(&b, "Player: %s (#%d)\n", rec.Username, rec.UserID)
	fmt.Fprintf(&b, "Wagered: %.2f  Won: %.2f  Deposited: %s\n", rec.Wagered, rec.Won, rec.Deposited.StringFixed(2))
	fmt.Fprintf(&b, "Win rate: %.1f%%", rec.WinRate*100)
	return b.String()
}
