package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"pathtech-academy/internal/config"
	"pathtech-academy/internal/domain/ports/adapter"
	"pathtech-academy/internal/domain/ports/repository"
	tele "pathtech-academy/internal/infra/adapters/telegram"
	pg "pathtech-academy/internal/infra/db/postgres"
	"pathtech-academy/internal/infra/i18n"
	"pathtech-academy/internal/infra/logging"
	"pathtech-academy/internal/infra/notify"
	red "pathtech-academy/internal/infra/redis"
	"pathtech-academy/internal/infra/sched"
	"pathtech-academy/internal/infra/storage"
	"pathtech-academy/internal/infra/worker"
	"pathtech-academy/internal/usecase"
)

// container holds the wired application graph.
type container struct {
	cfg   *config.Config
	log   *zerolog.Logger
	pool  *pgxpool.Pool
	redis red.RedisClient // nil when redis.url is empty
	jobs  *worker.Pool

	gateway   usecase.AccessGateway
	payments  usecase.PaymentWorkflow
	receipts  usecase.ReceiptService
	sweeper   usecase.ExpirationSweeper
	reminders usecase.ReminderService

	expiryWorker   *sched.ExpiryWorker
	reminderWorker *sched.ReminderWorker
}

func build(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*container, error) {
	c := &container{cfg: cfg, log: logger}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	c.pool = pool

	// ---- Redis (optional) ----
	var (
		locker  adapter.Locker
		limiter adapter.RateLimiter
	)
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			c.close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		c.redis = rc
		locker = red.NewLocker(rc)
		limiter = red.NewRateLimiter(rc)
	} else {
		logger.Warn().Msg("redis.url not set: catalog cache, rate limit and sweeper lock disabled")
	}

	// ---- Translator ----
	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Access.DefaultLocale)
	if err != nil {
		c.close()
		return nil, fmt.Errorf("i18n: %w", err)
	}

	// ---- Repositories ----
	payRepo := pg.NewPaymentRepo(pool)
	recordRepo := pg.NewAccessRecordRepo(pool)
	summaryRepo := pg.NewUserSummaryRepo(pool)
	logRepo := pg.NewNotificationLogRepo(pool)
	var itemRepo repository.ItemRepository = pg.NewItemRepo(pool)
	if c.redis != nil {
		itemRepo = pg.NewItemRepoCacheDecorator(itemRepo, c.redis, cfg.Redis.TTL)
	}
	tm := pg.NewTxManager(pool)

	// ---- Notifications ----
	var sender adapter.TelegramSender
	if cfg.Telegram.Token != "" {
		s, err := tele.NewRealBotSender(cfg.Telegram.Token)
		if err != nil {
			c.close()
			return nil, fmt.Errorf("telegram: %w", err)
		}
		sender = s
	} else if cfg.Runtime.Dev {
		sender = tele.NewNoopBotSender(logger)
	}
	var notifier adapter.Notifier = notify.NewLogNotifier(tr, logger)
	if sender != nil && len(cfg.Telegram.AdminChatIDs) > 0 {
		notifier = tele.NewAdminNotifier(sender, cfg.Telegram.AdminChatIDs, tr, logger)
	}
	c.jobs = worker.NewPool(cfg.Telegram.Workers, logger)
	notifier = notify.NewAsyncNotifier(notifier, c.jobs, 0, logger)

	// ---- Blob storage ----
	blobs, err := storage.NewFileStore(cfg.Storage.Dir, cfg.Storage.PublicBaseURL)
	if err != nil {
		c.close()
		return nil, fmt.Errorf("storage: %w", err)
	}

	// ---- Use cases ----
	clock := adapter.SystemClock()
	eval := usecase.NewAccessEvaluator(recordRepo, itemRepo, clock, cfg.Access.EvaluateTimeout, logger)
	c.gateway = usecase.NewAccessGateway(eval, tr, cfg.Access.ExpiringSoonDays, cfg.Access.BulkConcurrency, logger)
	c.payments = usecase.NewPaymentWorkflow(payRepo, recordRepo, summaryRepo, itemRepo, tm, notifier, limiter, clock,
		usecase.PaymentPolicy{
			RejectDuplicatePending: cfg.Payment.RejectDuplicatePending,
			CreateLimitPerHour:     cfg.Payment.CreateLimitPerHour,
			PendingPageSize:        cfg.Payment.PendingPageSize,
		}, logger)
	c.receipts = usecase.NewReceiptService(blobs, c.payments, cfg.Storage.MaxBytes, logger)
	c.sweeper = usecase.NewExpirationSweeper(recordRepo, summaryRepo, tm, locker, notifier, clock,
		cfg.Sweeper.LockTTL, cfg.Access.ExpiringSoonDays, logger)
	c.reminders = usecase.NewReminderService(c.sweeper, logRepo, notifier, clock, cfg.Reminders.ThresholdsDays, logger)

	// ---- Workers ----
	c.expiryWorker = sched.NewExpiryWorker(cfg.Sweeper.Interval, cfg.Sweeper.SkipStartupRun, c.sweeper, logger)
	c.reminderWorker = sched.NewReminderWorker(cfg.Reminders.Interval, c.reminders, logger)
	return c, nil
}

// health pings the stores the service cannot work without.
func (c *container) health(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return err
	}
	if c.redis != nil {
		if err := c.redis.Ping(ctx); err != nil {
			l := logging.With(ctx, c.log)
			l.Warn().Err(err).Msg("redis ping failed")
		}
	}
	return nil
}

func (c *container) close() {
	if c.jobs != nil {
		c.jobs.Stop()
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
	if c.pool != nil {
		c.pool.Close()
	}
}
