package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consultly/internal/bot"
	"consultly/internal/config"
	"consultly/internal/domain"
	"consultly/internal/events"
	"consultly/internal/google"
	"consultly/internal/lifecycle"
	"consultly/internal/logging"
	"consultly/internal/metrics"
	"consultly/internal/models"
	"consultly/internal/platform"
	"consultly/internal/repository"
	"consultly/internal/service"
	"consultly/internal/session"
	"consultly/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, stateRepo := initStateRepository(ctx, cfg, logger)
	stateService := service.NewStateService(stateRepo, logger)

	apiClient := platform.NewClient(
		cfg.Backend.BaseURL,
		cfg.Backend.Timeout,
		cfg.Backend.RateLimitRPS,
		cfg.Backend.RateLimitBurst,
		logger,
	)
	if redisClient != nil {
		apiClient.UseRedisCache(redisClient, cfg.Backend.CacheTTL)
	}

	sessions := session.NewStore(apiClient, stateRepo, logger)
	eventBus := events.NewEventBus()
	subscribeAuditLog(eventBus, logger)

	syncWorker, queueCloser, err := initCalendarSync(ctx, cfg, redisClient, logger)
	if err != nil {
		return err
	}
	if queueCloser != nil {
		defer (func(c io.Closer) { _ = c.Close() })(queueCloser)
	}

	appointments := service.NewAppointmentService(apiClient, eventBus, syncWorker, logger)
	directory := service.NewDirectoryService(apiClient, logger)
	access := service.NewAccessService(cfg, logger)

	formatter := lifecycle.NewFormatter()
	if cfg.Labels.Path != "" {
		if err := formatter.LoadLabels(cfg.Labels.Path); err != nil {
			logger.Warn().Err(err).Str("path", cfg.Labels.Path).Msg("Failed to load label overrides, using built-ins")
		}
	}

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
	}

	return startBot(ctx, cfg, stateService, sessions, appointments, directory, access, formatter, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	return cfg, &logger, closer, nil
}

func initStateRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.StateRepository) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if err := repository.Ping(ctx, redisClient); err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory state")
		}
	}

	ttl := time.Duration(models.DefaultRedisTTL) * time.Second
	primary := repository.NewRedisStateRepository(redisClient, ttl)
	fallback := repository.NewMemoryStateRepository(ttl)
	return redisClient, repository.NewFailoverStateRepository(primary, fallback, logger)
}

// initCalendarSync wires the durable Google Calendar mirror. Returns a
// nil worker when disabled; appointment flows still work without it.
func initCalendarSync(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) (domain.SyncWorker, io.Closer, error) {
	if !cfg.Worker.Enabled {
		logger.Info().Msg("Calendar sync worker disabled")
		return nil, nil, nil
	}
	if cfg.Google.CredentialsFile == "" || cfg.Google.CalendarID == "" {
		logger.Warn().Msg("Google Calendar credentials missing, calendar sync disabled")
		return nil, nil, nil
	}

	calendarService, err := google.NewCalendarService(cfg.Google.CredentialsFile, cfg.Google.CalendarID)
	if err != nil {
		return nil, nil, fmt.Errorf("init calendar service: %w", err)
	}
	if err := calendarService.TestConnection(ctx); err != nil {
		logger.Error().Err(err).Msg("Google Calendar connection test failed")
		return nil, nil, err
	}

	queue, err := worker.NewTaskQueue(cfg.Worker.QueuePath)
	if err != nil {
		return nil, nil, fmt.Errorf("init task queue: %w", err)
	}

	retry := worker.RetryPolicy{
		MaxRetries:    cfg.Worker.MaxRetries,
		InitialDelay:  cfg.Worker.InitialDelay,
		MaxDelay:      cfg.Worker.MaxDelay,
		BackoffFactor: cfg.Worker.BackoffFactor,
	}
	calendarWorker := worker.NewCalendarWorker(queue, calendarService, redisClient, retry, logger)
	go calendarWorker.Start(ctx)

	logger.Info().Str("calendar_id", cfg.Google.CalendarID).Msg("Calendar sync worker started")
	return calendarWorker, queue, nil
}

// subscribeAuditLog writes every appointment lifecycle event to the
// structured log so state changes are traceable without the backend.
func subscribeAuditLog(bus *events.EventBus, logger *zerolog.Logger) {
	handler := func(ev *events.Event) error {
		var payload events.AppointmentEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("Audit: decode payload")
			return nil
		}
		logger.Info().
			Str("event", ev.Type).
			Str("appointment_id", payload.AppointmentID).
			Str("status", payload.Status).
			Str("changed_by", payload.ChangedBy).
			Int64("changed_by_chat", payload.ChangedByChat).
			Msg("Appointment event")
		return nil
	}

	for _, eventType := range []string{
		events.EventAppointmentBooked,
		events.EventAppointmentConfirmed,
		events.EventAppointmentRejected,
		events.EventAppointmentCancelled,
		events.EventAppointmentRescheduled,
		events.EventAppointmentCompleted,
	} {
		bus.Subscribe(eventType, handler)
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Int("port", port).Msg("Metrics server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("Metrics server error")
	}
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	stateService *service.StateService,
	sessions *session.Store,
	appointments *service.AppointmentService,
	directory *service.DirectoryService,
	access *service.AccessService,
	formatter *lifecycle.Formatter,
	logger *zerolog.Logger,
) error {
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	botWrapper := bot.NewBotWrapper(botAPI)
	tgService := service.NewTelegramService(botWrapper)
	botMetrics := bot.NewMetrics()

	telegramBot, err := bot.NewBot(
		tgService, cfg, stateService, sessions,
		appointments, directory, access,
		formatter, botMetrics, logger,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create bot")
		return err
	}

	logger.Info().Msg("Bot started")
	telegramBot.StartReminders(ctx)
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}
