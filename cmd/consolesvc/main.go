package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	"github.com/shopspring/decimal"

	config "github.com/avvvet/console-services/configs"
	"github.com/avvvet/console-services/internal/consolesvc/api"
	"github.com/avvvet/console-services/internal/consolesvc/broker"
	svcconfig "github.com/avvvet/console-services/internal/consolesvc/config"
	"github.com/avvvet/console-services/internal/consolesvc/db"
	"github.com/avvvet/console-services/internal/consolesvc/handlers"
	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/service"
	"github.com/avvvet/console-services/internal/consolesvc/session"
	"github.com/avvvet/console-services/internal/consolesvc/store"
	"github.com/avvvet/console-services/internal/consolesvc/ws"
	mongodb "github.com/avvvet/console-services/internal/db"
	nats "github.com/avvvet/console-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "console"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)

	// amounts go to the dashboard as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	cfg := svcconfig.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// session store: mongo when configured, process memory otherwise
	var sessionStore session.Store = session.NewMemoryStore()
	if cfg.MongoURI != "" {
		database, closeMongo, err := mongodb.ConnectToDB(cfg.MongoURI)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer closeMongo()

		ms, err := session.NewMongoStore(ctx, database)
		if err != nil {
			log.Fatalf("Failed to prepare session store: %v", err)
		}
		sessionStore = ms
		log.Info("mongo session store ready")
	} else {
		log.Warn("MONGODB_URI not set, sessions will not survive a restart")
	}

	// audit log and flag history: postgres when configured
	var auditStore service.AuditRecorder
	var flagHistory service.FlagHistory
	if cfg.PostgresURL != "" {
		dbpool, err := db.Connect(cfg.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		defer dbpool.Close()
		log.Printf("pg connection established successfully")

		auditStore = store.NewAuditStore(dbpool)
		flagHistory = store.NewRiskFlagStore(dbpool)
	} else {
		log.Warn("POSTGRES_URL not set, audit log and risk history disabled")
	}

	client := api.NewClient(cfg.PlatformURL, cfg.RequestTimeout)
	connect := service.ClientConnector(client)
	reports := service.NewReportService(connect)

	// feeds pushed over /v1/ws per connection
	hub := ws.NewWs(
		ws.Feed{
			Name:     "dashboard",
			Section:  rules.SectionDashboard,
			Interval: cfg.DashboardPoll,
			Fetch: func(ctx context.Context, sess *session.Session) (any, error) {
				return reports.Dashboard(ctx, sess)
			},
		},
		ws.Feed{
			Name:     "live",
			Section:  rules.SectionLiveMonitor,
			Interval: cfg.LivePoll,
			Fetch: func(ctx context.Context, sess *session.Session) (any, error) {
				return reports.Live(ctx, sess)
			},
		},
	)

	// console events: NATS fans out across instances and riskwatch
	var events service.EventPublisher = hub
	if cfg.NATSURL != "" {
		n, err := nats.Connect(SERVICE_NAME+"_service_"+instanceId, cfg.NATSURL, cfg.NATSToken)
		if err != nil {
			log.Errorf("Error: unable to connect to NATS server %v", err)
			os.Exit(1)
		}
		defer n.Conn.Close()
		log.Printf("NATS connection established successfully %s", n.Url)

		b := broker.NewBroker(n.Conn)
		sub, err := b.Subscribe(hub.Broadcast)
		if err != nil {
			log.Errorf("Error: unable to subscribe to console events %v", err)
			os.Exit(1)
		}
		defer sub.Unsubscribe()
		events = b
	}

	sessions := session.NewManager(sessionStore, cfg.SessionTTL)
	guard := service.NewSubmitGuard()
	auditor := service.NewAuditor(auditStore, events)

	segments := rules.DefaultSegmentRules()
	segments.VIPWagerThreshold = cfg.VIPWagerThreshold
	risk := rules.DefaultRiskRules()
	risk.NoDepositWager = cfg.RiskWagerNoDeposit
	risk.WinRateWager = cfg.RiskWagerWinRate
	risk.WinRate = cfg.RiskWinRate

	auth := service.NewAuthService(connect, sessions)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the console api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(handlers.Services{
		Auth:    auth,
		Reports: reports,
		Players: service.NewPlayerService(connect, segments, guard, auditor),
		Risk:    service.NewRiskService(connect, risk, flagHistory),
		Bonus:   service.NewBonusService(connect, guard, auditor),
		Team:    service.NewTeamService(connect, auth, guard, auditor),
		Hub:     hub,
	}, cfg.JWTSecret, nil)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 60 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s, platform api %s", SERVICE_NAME, server.Addr, cfg.PlatformURL)

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
