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
	"path/filepath"
	"syscall"
	"time"

	"partylodge/internal/app/commands"
	bungalowapp "partylodge/internal/app/handlers/bungalows"
	occupancyapp "partylodge/internal/app/handlers/occupancy"
	offersapp "partylodge/internal/app/handlers/offers"
	"partylodge/internal/app/middleware"
	"partylodge/internal/app/outbox"
	"partylodge/internal/app/policies"
	"partylodge/internal/app/queries"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/infra/broker/kafka"
	"partylodge/internal/infra/config"
	mongodb "partylodge/internal/infra/db/mongo"
	ginserver "partylodge/internal/infra/http/gin"
	"partylodge/internal/infra/inbox"
	"partylodge/internal/infra/obs"
	infraoutbox "partylodge/internal/infra/outbox"
	"partylodge/internal/infra/storage/memory"
	"partylodge/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	for _, run := range app.background {
		go func(run func(context.Context) error) {
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background worker stopped", "error", err)
			}
		}(run)
	}

	if cfg.StorageMode == "memory" {
		fixturesPath := getenv("BUNGALOW_FIXTURES", filepath.Join("data", "bungalows.json"))
		if err := app.loadFixtures(ctx, fixturesPath, logger); err != nil {
			logger.Warn("bungalow fixtures load failed", "error", err, "path", fixturesPath)
		}
		ticketsPath := getenv("TICKETING_FIXTURES", filepath.Join("data", "ticket_bundles.json"))
		if err := app.loadTicketFixtures(ticketsPath, logger); err != nil {
			logger.Warn("ticketing fixtures load failed", "error", err, "path", ticketsPath)
		}
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers     ginserver.Handlers
	background   []func(context.Context) error
	ready        func() error
	uowFactory   uow.UoWFactory
	commandBus   commands.Bus
	memTicketing *memory.TicketingService
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		uowFactory   uow.UoWFactory
		outboxPort   outbox.Outbox
		idStore      middleware.IdempotencyStore
		avatars      policies.AvatarPort
		ticketing    policies.TicketingPort
		memTicketing *memory.TicketingService
		background   []func(context.Context) error
		mongoClient  *mongodb.Client
		ready        = func() error { return nil }
	)

	switch cfg.StorageMode {
	case "memory":
		factory := memory.NewFactory()
		uowFactory = factory
		outboxPort = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
		avatars = memory.NewAvatarStore()
		memTicketing = memory.NewTicketingService()
		ticketing = memTicketing

	default:
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, fmt.Errorf("mongo connect: %w", err)
		}
		mongoClient = client
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		uowFactory = mongodb.Factory{
			DB:              client.DB,
			BungalowRepo:    mongodb.NewBungalowRepository(client.DB),
			CategoryRepo:    mongodb.NewCategoryRepository(client.DB),
			ReservationRepo: mongodb.NewReservationRepository(client.DB),
			OccupancyRepo:   mongodb.NewOccupancyRepository(client.DB),
			AuditLogRepo:    mongodb.NewAuditLogRepository(client.DB),
		}
		idStore = mongodb.NewIdempotencyStore(client.DB)
		ticketing = mongodb.NewTicketingRepository(client.DB)

		store := infraoutbox.NewStore(client.DB)
		outboxPort = store
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return application{}, fmt.Errorf("kafka producer: %w", err)
		}
		worker := &infraoutbox.Worker{
			Store:       store,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
		background = append(background, worker.Run)

		uploader, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
		if err != nil {
			return application{}, fmt.Errorf("s3 client: %w", err)
		}
		avatars = &s3.AvatarStore{Uploader: uploader}
	}

	dispatcher := outbox.NewDispatcher(logger)
	dispatcher.Subscribe("", func(_ context.Context, record outbox.EventRecord) {
		logger.Info("occupancy event committed", "event", record.Name, "aggregate", record.Aggregate)
	})
	outboxPort = outbox.Staged(outboxPort)

	encoder := outbox.JSONEventEncoder{}
	commandBus := commands.NewInMemoryBus()

	commands.RegisterHandler(commandBus, occupancyapp.ReserveCommand{}.Key(), &occupancyapp.ReserveHandler{
		UoWFactory: uowFactory, Outbox: outboxPort, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, occupancyapp.AttachOrderCommand{}.Key(), &occupancyapp.AttachOrderHandler{
		UoWFactory: uowFactory, Outbox: outboxPort, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, occupancyapp.OccupyFromReservationCommand{}.Key(), &occupancyapp.OccupyFromReservationHandler{
		UoWFactory: uowFactory, Ticketing: ticketing, Outbox: outboxPort, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, occupancyapp.OccupyWithoutReservationCommand{}.Key(), &occupancyapp.OccupyWithoutReservationHandler{
		UoWFactory: uowFactory, Ticketing: ticketing, Outbox: outboxPort, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, occupancyapp.ReleaseCommand{}.Key(), &occupancyapp.ReleaseHandler{
		UoWFactory: uowFactory, Outbox: outboxPort, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, occupancyapp.MoveCommand{}.Key(), &occupancyapp.MoveHandler{
		UoWFactory: uowFactory, Outbox: outboxPort, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, occupancyapp.AppointManagerCommand{}.Key(), &occupancyapp.AppointManagerHandler{
		UoWFactory: uowFactory,
	})
	commands.RegisterHandler(commandBus, occupancyapp.SetInternalRemarkCommand{}.Key(), &occupancyapp.SetInternalRemarkHandler{
		UoWFactory: uowFactory,
	})
	commands.RegisterHandler(commandBus, occupancyapp.SetPinnedCommand{}.Key(), &occupancyapp.SetPinnedHandler{
		UoWFactory: uowFactory,
	})
	commands.RegisterHandler(commandBus, occupancyapp.UpdateDescriptionCommand{}.Key(), &occupancyapp.UpdateDescriptionHandler{
		UoWFactory: uowFactory, Outbox: outboxPort, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, occupancyapp.UpdateAvatarCommand{}.Key(), &occupancyapp.UpdateAvatarHandler{
		UoWFactory: uowFactory, Avatars: avatars, Outbox: outboxPort, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, occupancyapp.RemoveAvatarCommand{}.Key(), &occupancyapp.RemoveAvatarHandler{
		UoWFactory: uowFactory, Outbox: outboxPort, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, occupancyapp.AddOccupantCommand{}.Key(), &occupancyapp.AddOccupantHandler{
		UoWFactory: uowFactory, Ticketing: ticketing, Outbox: outboxPort, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, occupancyapp.RemoveOccupantCommand{}.Key(), &occupancyapp.RemoveOccupantHandler{
		UoWFactory: uowFactory, Ticketing: ticketing, Outbox: outboxPort, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, offersapp.OfferBungalowCommand{}.Key(), &offersapp.OfferBungalowHandler{
		UoWFactory: uowFactory,
	})
	commands.RegisterHandler(commandBus, offersapp.OfferBungalowsCommand{}.Key(), &offersapp.OfferBungalowsHandler{
		UoWFactory: uowFactory,
	})
	commands.RegisterHandler(commandBus, offersapp.WithdrawBungalowCommand{}.Key(), &offersapp.WithdrawBungalowHandler{
		UoWFactory: uowFactory,
	})
	commands.RegisterHandler(commandBus, offersapp.SetDistributesNetworkCommand{}.Key(), &offersapp.SetDistributesNetworkHandler{
		UoWFactory: uowFactory,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bungalowapp.ListForPartyQuery{}.Key(), &bungalowapp.ListForPartyHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bungalowapp.ViewByNumberQuery{}.Key(), &bungalowapp.ViewByNumberHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bungalowapp.AuditLogQuery{}.Key(), &bungalowapp.AuditLogHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bungalowapp.OccupationStatsQuery{}.Key(), &bungalowapp.OccupationStatsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bungalowapp.OccupancyManagedByQuery{}.Key(), &bungalowapp.OccupancyManagedByHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bungalowapp.OccupancyForTicketBundleQuery{}.Key(), &bungalowapp.OccupancyForTicketBundleHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bungalowapp.HasUserOccupiedQuery{}.Key(), &bungalowapp.HasUserOccupiedHandler{UoWFactory: uowFactory})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.LocalDispatch(dispatcher),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxPort),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	if mongoClient != nil {
		run, consumerErr := buildOrderConsumer(cfg, mongoClient, commandBusWithMiddleware, uowFactory, logger)
		if consumerErr != nil {
			return application{}, consumerErr
		}
		background = append(background, run)
	}

	return application{
		handlers: ginserver.Handlers{
			Occupancy: ginserver.OccupancyHandler{
				Commands:  commandBusWithMiddleware,
				Ticketing: ticketing,
				Logger:    logger,
			},
			Bungalow: ginserver.BungalowHandler{
				Queries:    queryBusWithMiddleware,
				UoWFactory: uowFactory,
				Ticketing:  ticketing,
			},
			Offers: ginserver.OffersHandler{
				Commands: commandBusWithMiddleware,
			},
		},
		background:   background,
		ready:        ready,
		uowFactory:   uowFactory,
		commandBus:   commandBusWithMiddleware,
		memTicketing: memTicketing,
	}, nil
}

func buildOrderConsumer(cfg config.Config, client *mongodb.Client, bus commands.Bus, factory uow.UoWFactory, logger *slog.Logger) (func(context.Context) error, error) {
	handler := &kafka.OrderEventHandler{
		Bus:        bus,
		UoWFactory: factory,
		Inbox:      inbox.NewStore(client.DB, cfg.OrderConsumerGroup),
		Logger:     logger,
	}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.OrderConsumerGroup, nil, handler)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	topic := cfg.OrderEventsTopic
	if cfg.KafkaTopicPrefix != "" {
		topic = cfg.KafkaTopicPrefix + topic
	}
	return func(ctx context.Context) error {
		defer consumer.Close()
		return consumer.Run(ctx, []string{topic})
	}, nil
}

type bungalowFixture struct {
	PartyID            string          `json:"party_id"`
	Category           categoryFixture `json:"category"`
	Numbers            []int           `json:"numbers"`
	DistributesNetwork bool            `json:"distributes_network"`
}

type categoryFixture struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Capacity         int    `json:"capacity"`
	TicketCategoryID string `json:"ticket_category_id"`
	ProductID        string `json:"product_id"`
}

// loadFixtures seeds demo-mode storage with categories and offered bungalows.
func (a application) loadFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("bungalow fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []bungalowFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	for _, fx := range fixtures {
		err := uow.Run(ctx, a.uowFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
			return unit.Categories().Save(ctx, &bungalow.Category{
				ID:               bungalow.CategoryID(fx.Category.ID),
				PartyID:          fx.PartyID,
				Title:            fx.Category.Title,
				Capacity:         fx.Category.Capacity,
				TicketCategoryID: fx.Category.TicketCategoryID,
				ProductID:        fx.Category.ProductID,
			})
		})
		if err != nil {
			logger.Error("fixture category store failed", "category_id", fx.Category.ID, "error", err)
			continue
		}
		cmd := offersapp.OfferBungalowsCommand{
			PartyID:            fx.PartyID,
			Numbers:            fx.Numbers,
			CategoryID:         fx.Category.ID,
			DistributesNetwork: fx.DistributesNetwork,
		}
		if _, err := commands.Dispatch[offersapp.OfferBungalowsCommand, *offersapp.OfferBungalowsResult](ctx, a.commandBus, cmd); err != nil {
			logger.Error("fixture offer failed", "party_id", fx.PartyID, "error", err)
			continue
		}
		logger.Info("bungalow fixtures imported", "party_id", fx.PartyID, "count", len(fx.Numbers))
	}
	return nil
}

type ticketBundleFixture struct {
	PartyID          string          `json:"party_id"`
	ID               string          `json:"id"`
	TicketCategoryID string          `json:"ticket_category_id"`
	OwnerID          string          `json:"owner_id"`
	OrderNumber      string          `json:"order_number"`
	Tickets          []ticketFixture `json:"tickets"`
}

type ticketFixture struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UsedByID  string    `json:"used_by_id"`
	Revoked   bool      `json:"revoked"`
}

// loadTicketFixtures seeds the demo-mode ticketing collaborator with bundles.
func (a application) loadTicketFixtures(path string, logger *slog.Logger) error {
	if a.memTicketing == nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("ticketing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read ticket fixtures: %w", err)
	}
	var fixtures []ticketBundleFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode ticket fixtures: %w", err)
	}
	for _, fx := range fixtures {
		bundle := policies.TicketBundle{
			ID:               fx.ID,
			TicketCategoryID: fx.TicketCategoryID,
			OwnerID:          fx.OwnerID,
			OrderNumber:      fx.OrderNumber,
		}
		for _, t := range fx.Tickets {
			bundle.Tickets = append(bundle.Tickets, policies.Ticket{
				ID:        t.ID,
				CreatedAt: t.CreatedAt,
				UsedByID:  t.UsedByID,
				Revoked:   t.Revoked,
			})
		}
		a.memTicketing.PutBundle(fx.PartyID, bundle)
	}
	logger.Info("ticket bundle fixtures imported", "count", len(fixtures))
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
