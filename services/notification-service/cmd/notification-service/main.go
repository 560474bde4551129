package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/minerva-salon/salonbook/libs/config"
	"github.com/minerva-salon/salonbook/libs/db"
	"github.com/minerva-salon/salonbook/libs/events"
	"github.com/minerva-salon/salonbook/libs/httpx"
	"github.com/minerva-salon/salonbook/libs/kafkax"
	"github.com/minerva-salon/salonbook/libs/mailer"
	otelx "github.com/minerva-salon/salonbook/libs/otel"
	"github.com/minerva-salon/salonbook/libs/outbox"
	"github.com/minerva-salon/salonbook/libs/runtime"
	"github.com/minerva-salon/salonbook/services/notification-service/internal/consumer"
	"github.com/minerva-salon/salonbook/services/notification-service/internal/inbox"
	"github.com/minerva-salon/salonbook/services/notification-service/internal/metrics"
	"github.com/minerva-salon/salonbook/services/notification-service/internal/processor"
	"github.com/minerva-salon/salonbook/services/notification-service/internal/sms"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = config.LoadDotenv()
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

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

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	brokers := config.String("KAFKA_BROKERS", "")
	publisher := outbox.NewPublisher(pool, outbox.NewRepository(), logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go publisher.Run(ctx)

	mailCfg := mailer.ConfigFromEnv()
	emailSender, err := mailer.New(ctx, mailCfg, logger)
	if err != nil {
		logger.Error("mail sender init failed", "err", err)
		panic(err)
	}

	var smsSender sms.Sender
	if config.Bool("SMS_CONFIRMATIONS", false) {
		smsSender = sms.New(
			config.String("SMS_PROVIDER", "noop"),
			config.String("SMS_WEBHOOK_URL", ""),
			config.String("SMS_WEBHOOK_TOKEN", ""),
		)
	}

	proc := processor.New(pool, emailSender, smsSender, logger, m, processor.Config{
		Brand: mailer.Branding{
			SalonName:  config.String("SALON_NAME", "MINERVA"),
			SalonPhone: config.String("SALON_PHONE", ""),
		},
		SalonEmail:     config.String("SALON_EMAIL", ""),
		EmailProvider:  mailCfg.Provider,
		SendsPerSecond: float64(config.Int("EMAIL_SENDS_PER_SECOND", 10)),
		Burst:          config.Int("EMAIL_SEND_BURST", 5),
		FailSuffix:     config.String("NOTIFICATION_FAIL_SUFFIX", ""),
	})

	topics := config.List("KAFKA_CONSUME_TOPICS", strings.Join([]string{
		events.AppointmentConfirmed,
		events.AppointmentCancelled,
		events.ContactSubmitted,
	}, ","))
	if len(kafkax.SplitBrokers(brokers)) > 0 {
		groupID := config.String("KAFKA_GROUP_ID", "notification-service")
		eventConsumer := consumer.New(logger, inbox.NewRepository(pool, groupID), m, consumer.Config{
			Brokers: brokers,
			GroupID: groupID,
			Topics:  topics,
		}, proc.Handle)
		go eventConsumer.Run(ctx)
	} else {
		logger.Warn("kafka consumer disabled (no brokers configured)")
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.Serve(ctx, srv, logger, 10*time.Second)
}
