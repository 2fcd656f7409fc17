package bot

import (
	"context"
	"os"
	"time"

	"consultly/internal/config"
	"consultly/internal/domain"
	"consultly/internal/lifecycle"
	"consultly/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AccessChecker answers bot-side access questions per Telegram account.
type AccessChecker interface {
	IsAdmin(telegramID int64) bool
	IsBlacklisted(telegramID int64) bool
}

type Bot struct {
	tgService    domain.TelegramService
	config       *config.Config
	stateService domain.StateManager
	sessions     domain.SessionManager
	appointments domain.AppointmentService
	directory    domain.DirectoryService
	access       AccessChecker
	formatter    *lifecycle.Formatter
	metrics      *Metrics
	logger       *zerolog.Logger
}

func NewBot(
	tgService domain.TelegramService,
	cfg *config.Config,
	stateService domain.StateManager,
	sessions domain.SessionManager,
	appointments domain.AppointmentService,
	directory domain.DirectoryService,
	access AccessChecker,
	formatter *lifecycle.Formatter,
	metrics *Metrics,
	logger *zerolog.Logger,
) (*Bot, error) {
	if formatter == nil {
		formatter = lifecycle.NewFormatter()
	}

	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	return &Bot{
		tgService:    tgService,
		config:       cfg,
		stateService: stateService,
		sessions:     sessions,
		appointments: appointments,
		directory:    directory,
		access:       access,
		formatter:    formatter,
		metrics:      metrics,
		logger:       logger,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
		}
	}()

	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		var userID int64
		if update.Message != nil {
			userID = update.Message.From.ID
		} else if update.CallbackQuery != nil {
			userID = update.CallbackQuery.From.ID
		}

		if userID == 0 {
			return
		}

		if b.access != nil && b.access.IsBlacklisted(userID) {
			return
		}

		if b.access == nil || !b.access.IsAdmin(userID) {
			allowed, err := b.stateService.CheckRateLimit(updateCtx, userID, b.config.Bot.RateLimitMessages, time.Duration(b.config.Bot.RateLimitWindow)*time.Second)
			if err != nil {
				b.logger.Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
			} else if !allowed {
				b.logger.Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
				if update.Message != nil {
					b.sendMessage(update.Message.Chat.ID, "⚠️ Bạn đang thao tác quá nhanh. Vui lòng chờ một chút.")
				}
				return
			}
		}

		if update.CallbackQuery != nil {
			metrics.IncUpdate("callback")
			b.handleCallbackQuery(updateCtx, update)
			return
		}

		if update.Message == nil {
			return
		}

		metrics.IncUpdate("message")
		b.handleMessage(updateCtx, update)
	})
}
