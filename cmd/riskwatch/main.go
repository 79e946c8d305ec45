package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/console-services/configs"
	"github.com/avvvet/console-services/internal/consolesvc/api"
	"github.com/avvvet/console-services/internal/consolesvc/broker"
	svcconfig "github.com/avvvet/console-services/internal/consolesvc/config"
	"github.com/avvvet/console-services/internal/consolesvc/db"
	"github.com/avvvet/console-services/internal/consolesvc/riskwatch"
	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/service"
	"github.com/avvvet/console-services/internal/consolesvc/session"
	"github.com/avvvet/console-services/internal/consolesvc/store"
	natscli "github.com/avvvet/console-services/internal/nats"
)

const SERVICE_NAME = "riskwatch"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)

	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	cfg := svcconfig.Load()
	if cfg.WatchUsername == "" || cfg.WatchPassword == "" {
		log.Fatal("RISKWATCH_USERNAME and RISKWATCH_PASSWORD are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// pg connection
	var flags riskwatch.FlagRecorder
	if cfg.PostgresURL != "" {
		dbpool, err := db.Connect(cfg.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		defer dbpool.Close()
		log.Printf("pg connection established successfully")
		flags = store.NewRiskFlagStore(dbpool)
	} else {
		log.Warn("POSTGRES_URL not set, new flags are tracked in memory only")
	}

	// Connect to NATS
	var events service.EventPublisher
	if cfg.NATSURL != "" {
		n, err := natscli.Connect(SERVICE_NAME+"_service_"+instanceId, cfg.NATSURL, cfg.NATSToken)
		if err != nil {
			log.Errorf("Error: unable to connect to NATS server %v", err)
			os.Exit(1)
		}
		defer n.Conn.Close()
		log.Printf("NATS connection established successfully %s", n.Url)
		events = broker.NewBroker(n.Conn)
	}

	risk := rules.DefaultRiskRules()
	risk.NoDepositWager = cfg.RiskWagerNoDeposit
	risk.WinRateWager = cfg.RiskWagerWinRate
	risk.WinRate = cfg.RiskWinRate

	connect := service.ClientConnector(api.NewClient(cfg.PlatformURL, cfg.RequestTimeout))
	sessions := session.NewManager(session.NewMemoryStore(), cfg.SessionTTL)
	w := riskwatch.NewWatcher(SERVICE_NAME, cfg.WatchUsername, cfg.WatchPassword, risk, connect, sessions, flags, events)

	switch {
	case cfg.TelegramToken == "":
		log.Warn("TELEGRAM_BOT_TOKEN not set, notifications disabled")
	case len(cfg.TelegramChatIDs) == 0:
		log.Warn("No valid telegram chat IDs found, notifications disabled")
	default:
		notifier, err := riskwatch.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatIDs)
		if err != nil {
			log.Errorf("Failed to initialize Telegram notifier: %v", err)
		} else {
			log.Infof("Telegram notifier initialized with %d chat IDs", len(cfg.TelegramChatIDs))
			w.SetNotifier(notifier)
		}
	}

	log.Infof("%s running every %s against %s", SERVICE_NAME, cfg.WatchInterval, cfg.PlatformURL)
	w.Run(ctx, cfg.WatchInterval)
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
