package main

import (
	"context"
	"net/http"
	"time"

	"github.com/minerva-salon/salonbook/libs/auth"
	"github.com/minerva-salon/salonbook/libs/config"
	"github.com/minerva-salon/salonbook/libs/db"
	"github.com/minerva-salon/salonbook/libs/httpx"
	"github.com/minerva-salon/salonbook/libs/kafkax"
	"github.com/minerva-salon/salonbook/libs/mailer"
	otelx "github.com/minerva-salon/salonbook/libs/otel"
	"github.com/minerva-salon/salonbook/libs/outbox"
	"github.com/minerva-salon/salonbook/libs/runtime"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/availability"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/booking"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/handlers"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/ledger"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/metrics"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/notify"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/schedule"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = config.LoadDotenv()
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	loc, err := time.LoadLocation(config.String("BUSINESS_TIMEZONE", "America/New_York"))
	if err != nil {
		logger.Error("invalid BUSINESS_TIMEZONE", "err", err)
		panic(err)
	}

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var (
		store   schedule.Store
		book    ledger.Ledger
		handler notify.Handler
		checks  []runtime.ReadyCheck
	)

	// Without DATABASE_URL the service runs on in-memory state and mails directly.
	if dbURL := config.String("DATABASE_URL", ""); dbURL != "" {
		pool, err := db.Open(ctx, dbURL)
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()

		store = storage.NewScheduleRepository(pool)
		book = storage.NewBookingRepository(pool)
		outboxRepo := outbox.NewRepository()
		handler = notify.NewOutboxHandler(pool, outboxRepo)

		brokers := config.String("KAFKA_BROKERS", "")
		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   brokers,
			PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
			BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
		})
		go publisher.Run(ctx)

		checks = append(checks,
			runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
			runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
		)
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory schedule and ledger")
		store = schedule.NewDefaultMemoryStore()
		book = ledger.NewMemory()

		sender, err := mailer.New(ctx, mailer.ConfigFromEnv(), logger)
		if err != nil {
			logger.Error("mail sender init failed", "err", err)
			panic(err)
		}
		handler = notify.NewMailHandler(sender, mailer.Branding{
			SalonName:  config.String("SALON_NAME", "MINERVA"),
			SalonPhone: config.String("SALON_PHONE", ""),
		}, config.String("SALON_EMAIL", ""), logger)
	}

	queue := notify.NewQueue(handler, logger, m, notify.QueueConfig{
		Size:           config.Int("NOTIFY_QUEUE_SIZE", 256),
		Workers:        config.Int("NOTIFY_WORKERS", 2),
		HandlerTimeout: config.Duration("NOTIFY_TIMEOUT", 15*time.Second),
	})

	manager := booking.NewManager(store, book, queue, logger, loc, booking.WithMetrics(m))
	api := handlers.NewAPI(handlers.Config{
		Calculator: availability.NewCalculator(store, book, loc),
		Manager:    manager,
		Store:      store,
		Dispatcher: queue,
		Metrics:    m,
		Logger:     logger,
	})

	var admin func(http.Handler) http.Handler
	switch secret := config.String("JWT_SECRET", ""); {
	case secret != "":
		admin = func(h http.Handler) http.Handler {
			return auth.RequireAuth(auth.RequireRole(h, "admin", "owner"), secret)
		}
	case config.Bool("ADMIN_AUTH_DISABLED", false):
		admin = func(h http.Handler) http.Handler { return h }
		logger.Warn("ADMIN_AUTH_DISABLED set; admin routes are unauthenticated")
	default:
		logger.Warn("JWT_SECRET not set; admin routes disabled")
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	api.Register(mux, admin)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("MAX_BODY_BYTES", 64<<10))),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization", "Idempotency-Key", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id", "Idempotent-Replayed"},
			MaxAge:         10 * time.Minute,
		}),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	runtime.Serve(ctx, srv, logger, 10*time.Second)

	drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := queue.Close(drainCtx); err != nil {
		logger.Error("notification queue drain incomplete", "err", err)
	}
}
