package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"staybook/internal/app/commands"
	bookingapp "staybook/internal/app/handlers/booking"
	paymentsapp "staybook/internal/app/handlers/payments"
	quoteapp "staybook/internal/app/handlers/quote"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainproperty "staybook/internal/domain/property"
	"staybook/internal/infra/broker/kafka"
	"staybook/internal/infra/config"
	mongodb "staybook/internal/infra/db/mongo"
	ginserver "staybook/internal/infra/http/gin"
	redislock "staybook/internal/infra/locks/redis"
	"staybook/internal/infra/obs"
	infraoutbox "staybook/internal/infra/outbox"
	stripeprovider "staybook/internal/infra/payments/stripe"
	"staybook/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: app.checks}, app.handlers)

	if err := app.loadPropertyFixtures(ctx, cfg.PropertiesFile, logger); err != nil {
		logger.Warn("property fixtures load failed", "error", err, "path", cfg.PropertiesFile)
	}

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		app.close()
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", storageMode(cfg))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

func storageMode(cfg config.Config) string {
	if cfg.MemoryMode() {
		return "memory"
	}
	return "mongo"
}

type application struct {
	handlers ginserver.Handlers
	checks   map[string]obs.ReadinessCheck
	worker   *infraoutbox.Worker
	props    domainproperty.Repository
	closers  []func()
}

func (a *application) close() {
	for _, fn := range a.closers {
		fn()
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{checks: map[string]obs.ReadinessCheck{}}

	var (
		uowFactory  uow.UoWFactory
		outboxStore outbox.Outbox
	)

	if cfg.MemoryMode() {
		propertyRepo := memory.NewPropertyRepository()
		bookingRepo := memory.NewBookingRepository()
		paymentRepo := memory.NewPaymentRepository()
		scheduleRepo := memory.NewScheduleRepository()
		uowFactory = memory.Factory{
			PropertyRepo: propertyRepo,
			BookingRepo:  bookingRepo,
			PaymentRepo:  paymentRepo,
			ScheduleRepo: scheduleRepo,
		}
		outboxStore = memory.NewOutbox()
		app.props = propertyRepo
	} else {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		app.checks["mongo"] = client.Ping

		propertyRepo := mongodb.NewPropertyRepository(client.DB)
		uowFactory = mongodb.Factory{
			DB:           client.DB,
			PropertyRepo: propertyRepo,
			BookingRepo:  mongodb.NewBookingRepository(client.DB),
			PaymentRepo:  mongodb.NewPaymentRepository(client.DB),
			ScheduleRepo: mongodb.NewScheduleRepository(client.DB),
		}
		store := infraoutbox.NewStore(client.DB)
		outboxStore = store
		app.props = propertyRepo

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return nil, fmt.Errorf("kafka producer: %w", err)
			}
			app.closers = append(app.closers, func() { _ = producer.Close() })
			app.worker = &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
		} else {
			logger.Warn("KAFKA_BROKERS not set, staged events stay in the outbox")
		}
	}

	var locker policies.PropertyLocker
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
		app.checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		locker = redislock.NewPropertyLocker(redisClient)
	} else {
		locker = memory.NewPropertyLocker()
	}

	var provider policies.PaymentProvider
	if cfg.StripeSecretKey != "" {
		provider = stripeprovider.New(cfg.StripeSecretKey)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, using the simulated payment provider")
		provider = memory.NewPaymentProvider()
	}

	orchestrator := &paymentsapp.Orchestrator{Provider: provider, Logger: logger}
	encoder := outbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateDraftCommand{}.Key(), &bookingapp.CreateDraftHandler{
		Outbox:  outboxStore,
		Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.SubmitRequestCommand{}.Key(), &bookingapp.SubmitRequestHandler{
		Locker:  locker,
		LockTTL: cfg.SubmitLockTTL,
		Orch:    orchestrator,
		Outbox:  outboxStore,
		Encoder: encoder,
		Logger:  logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.ApproveRequestCommand{}.Key(), &bookingapp.ApproveRequestHandler{
		Orch:    orchestrator,
		Outbox:  outboxStore,
		Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.DeclineRequestCommand{}.Key(), &bookingapp.DeclineRequestHandler{
		Orch:    orchestrator,
		Outbox:  outboxStore,
		Encoder: encoder,
		Logger:  logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		Orch:    orchestrator,
		Outbox:  outboxStore,
		Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, paymentsapp.CapturePaymentCommand{}.Key(), &paymentsapp.CapturePaymentHandler{
		Orchestrator: orchestrator,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, quoteapp.ComputeQuoteQuery{}.Key(), &quoteapp.ComputeQuoteHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, quoteapp.CheckAvailabilityQuery{}.Key(), &quoteapp.CheckAvailabilityHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.ListGuestBookingsQuery{}.Key(), &bookingapp.ListGuestBookingsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.ListHostBookingsQuery{}.Key(), &bookingapp.ListHostBookingsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, paymentsapp.PaymentSessionQuery{}.Key(), &paymentsapp.PaymentSessionHandler{
		UoWFactory:   uowFactory,
		Orchestrator: orchestrator,
	})

	idStore := memory.NewIdempotencyStore()
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	app.handlers = ginserver.Handlers{
		Quote: ginserver.QuoteHandler{
			Queries: queryBusWithMiddleware,
		},
		Booking: ginserver.BookingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Payment: ginserver.PaymentHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		AuthMiddleware: ginserver.AuthMiddleware{
			Resolver: ginserver.StaticResolver{},
			Logger:   logger,
		}.Handle,
	}
	return app, nil
}

func (a *application) loadPropertyFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	if a.props == nil || path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("property fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}

	var fixtures []propertyFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now().UTC()
	for _, fx := range fixtures {
		addons := make([]domainproperty.Addon, 0, len(fx.Addons))
		for _, a := range fx.Addons {
			addons = append(addons, domainproperty.Addon{ID: a.ID, Name: a.Name, PriceCents: a.PriceCents})
		}
		prop, err := domainproperty.New(domainproperty.CreateParams{
			ID:               domainproperty.PropertyID(fx.ID),
			OwnerID:          fx.OwnerID,
			CreatedBy:        fx.OwnerID,
			Title:            fx.Title,
			Currency:         fx.Currency,
			NightlyRateCents: fx.NightlyRateCents,
			HourlyRateCents:  fx.HourlyRateCents,
			DayRateCents:     fx.DayRateCents,
			DayRateHours:     fx.DayRateHours,
			MinHours:         fx.MinHours,
			CleaningFeeCents: fx.CleaningFeeCents,
			DepositCents:     fx.DepositCents,
			MaxGuests:        fx.MaxGuests,
			ParkingCapacity:  fx.ParkingCapacity,
			CurfewHour:       fx.CurfewHour,
			AllowInstantBook: fx.AllowInstantBook,
			Addons:           addons,
			Now:              now,
		})
		if err != nil {
			logger.Error("fixture invalid", "property_id", fx.ID, "error", err)
			continue
		}
		if err := a.props.Save(ctx, prop); err != nil {
			logger.Error("cannot store fixture property", "property_id", fx.ID, "error", err)
			continue
		}
		logger.Info("property fixture imported", "property_id", prop.ID)
	}
	return nil
}

type propertyFixture struct {
	ID               string         `json:"id"`
	OwnerID          string         `json:"owner_id"`
	Title            string         `json:"title"`
	Currency         string         `json:"currency"`
	NightlyRateCents int64          `json:"nightly_rate_cents"`
	HourlyRateCents  int64          `json:"hourly_rate_cents"`
	DayRateCents     int64          `json:"day_rate_cents"`
	DayRateHours     int            `json:"day_rate_hours"`
	MinHours         int            `json:"min_hours"`
	CleaningFeeCents int64          `json:"cleaning_fee_cents"`
	DepositCents     int64          `json:"deposit_cents"`
	MaxGuests        int            `json:"max_guests"`
	ParkingCapacity  int            `json:"parking_capacity"`
	CurfewHour       int            `json:"curfew_hour"`
	AllowInstantBook bool           `json:"allow_instant_book"`
	Addons           []addonFixture `json:"addons"`
}

type addonFixture struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}
