package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BEASTY2K3/marathon-registration/config"
	"github.com/BEASTY2K3/marathon-registration/internal/api"
	"github.com/BEASTY2K3/marathon-registration/internal/broker"
	"github.com/BEASTY2K3/marathon-registration/internal/mailer"
	"github.com/BEASTY2K3/marathon-registration/internal/notification"
	"github.com/BEASTY2K3/marathon-registration/internal/payments"
	"github.com/BEASTY2K3/marathon-registration/internal/redisclient"
	"github.com/BEASTY2K3/marathon-registration/internal/service"
	"github.com/BEASTY2K3/marathon-registration/internal/sheets"
	"github.com/BEASTY2K3/marathon-registration/internal/store"
	"github.com/BEASTY2K3/marathon-registration/internal/util"
	"github.com/BEASTY2K3/marathon-registration/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting registration service", zap.String("event", cfg.Event.Name))

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	db, err := store.Open(startCtx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open store", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close()
	logger.Info("Store connected", zap.String("driver", cfg.Database.Driver))

	var sequence service.SequenceAllocator = service.NewStoreSequence(db)
	if cfg.Redis.Enabled {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		sequence = service.NewRedisSequence(db, redisClient)
		logger.Info("Redis connected, chest numbers come from the shared counter")
	}

	var publisher broker.Publisher = broker.NopPublisher{}
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.Topic))
	}

	provider, err := payments.NewProvider(cfg.Payment)
	if err != nil {
		logger.Fatal("Failed to configure payment provider", zap.Error(err))
	}
	verifier := payments.NewSignatureVerifier(cfg.Payment.KeySecret)

	notifyTimeout := time.Duration(cfg.Notify.TimeoutSeconds) * time.Second
	notifier := buildNotifier(context.Background(), cfg, notifyTimeout, logger)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	inlineNotifier := notification.Notifier(notifier)
	var notificationWorker *worker.NotificationWorker
	switch {
	case cfg.Notify.Via == "kafka" && cfg.Kafka.Enabled:
		inlineNotifier = nil
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ConsumerGroup)
		notificationWorker = worker.NewNotificationWorker(consumer, notifier, notifyTimeout)
		go func() {
			if err := notificationWorker.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Notification worker error", zap.Error(err))
			}
		}()
	case cfg.Notify.Via == "kafka":
		logger.Warn("NOTIFY_VIA=kafka needs KAFKA_ENABLED=true, sending notifications directly")
	}

	var registrationOpts service.RegistrationOptions
	registrationOpts.NotifyTimeout = notifyTimeout
	if cfg.Payment.ReverifySignatureOnSignup {
		registrationOpts.Verifier = verifier
	}

	paymentService := service.NewPaymentService(db, verifier, provider, publisher, cfg.Payment.FeePaise, cfg.Payment.Currency)
	registrationService := service.NewRegistrationService(db, sequence, inlineNotifier, publisher, registrationOpts)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(paymentService, registrationService, db)
	handler.SetupRoutes(router, api.RouteOptions{
		StaticDir:      cfg.Server.StaticDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port), zap.String("provider", provider.Name()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	if err := registrationService.Wait(shutdownCtx); err != nil {
		logger.Warn("Pending notifications abandoned", zap.Error(err))
	}

	workerCancel()
	if notificationWorker != nil {
		_ = notificationWorker.Stop()
	}

	logger.Info("Server exited")
}

// buildNotifier wires email plus whichever organizer channels are configured
func buildNotifier(ctx context.Context, cfg *config.Config, channelTimeout time.Duration, logger *zap.Logger) *notification.Fanout {
	notifiers := []notification.Notifier{
		notification.NewEmailSender(mailer.NewSMTPMailer(cfg.Mail), cfg.Mail.From, cfg.Mail.FromName, cfg.Event.Name),
	}

	if cfg.Notify.TelegramToken != "" {
		alerter, err := notification.NewTelegramAlerter(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatIDs, cfg.Event.Name)
		if err != nil {
			logger.Warn("Telegram alerts disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, alerter)
		}
	}

	if cfg.Notify.SpreadsheetID != "" {
		roster, err := sheets.New(ctx, cfg.Notify.SheetsCredentialsFile, cfg.Notify.SpreadsheetID)
		if err != nil {
			logger.Warn("Roster export disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, notification.NewRosterRecorder(roster))
		}
	}

	fanout := notification.NewFanout(channelTimeout, notifiers...)
	logger.Info("Notifications configured",
		zap.Strings("channels", fanout.Channels()),
		zap.String("via", cfg.Notify.Via))
	return fanout
}
