package main

import (
	"context"
	"log/slog"
	"time"

	"spacio/internal/app/commands"
	"spacio/internal/app/dto"
	bookingapp "spacio/internal/app/handlers/booking"
	listingapp "spacio/internal/app/handlers/listings"
	pricingapp "spacio/internal/app/handlers/pricing"
	quoteapp "spacio/internal/app/handlers/quotes"
	"spacio/internal/app/handlers/support"
	"spacio/internal/app/middleware"
	"spacio/internal/app/outbox"
	"spacio/internal/app/queries"
	"spacio/internal/app/schedule"
	"spacio/internal/app/services/auth"
	domainpricing "spacio/internal/domain/pricing"
	"spacio/internal/infra/config"
	ginserver "spacio/internal/infra/http/gin"
	infraoutbox "spacio/internal/infra/outbox"
	infrapricing "spacio/internal/infra/pricing"
	"spacio/internal/infra/scheduler"
	"spacio/internal/infra/validation"
)

const (
	devJWTSecret       = "spacio-dev-secret"
	maxConflictRetries = 5
	expireHoldsBatch   = 100
)

type application struct {
	handlers  ginserver.Handlers
	commands  commands.Bus
	queries   queries.Bus
	tokens    *auth.Service
	policies  *domainpricing.PolicyBook
	worker    *infraoutbox.Worker
	scheduler schedule.Scheduler
}

func buildApplication(cfg config.Config, logger *slog.Logger, be *backends) (*application, error) {
	policies, err := cfg.PolicyBook()
	if err != nil {
		return nil, err
	}
	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}
	tokens, err := auth.NewService(secret)
	if err != nil {
		return nil, err
	}

	worker := infraoutbox.NewWorker(be.outbox, be.producer)
	worker.Interval = cfg.OutboxPollInterval
	worker.TopicPrefix = cfg.KafkaTopicPrefix
	worker.Backoff = cfg.RetryBackoff
	worker.Logger = logger

	calculator := domainpricing.NewCalculator(policies)
	encoder := outbox.JSONEventEncoder{}
	validator := validation.New()
	authorizer := auth.Authorizer{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, commands.Handler[listingapp.CreateListingCommand, *dto.ListingView](&listingapp.CreateListingHandler{
		Policies: policies,
		Currency: cfg.Currency,
		Encoder:  encoder,
		Logger:   logger,
	}))
	commands.RegisterHandler(commandBus, commands.Handler[bookingapp.RequestBookingCommand, *dto.ReservationView](&bookingapp.RequestBookingHandler{
		Calculator: calculator,
		HoldTTL:    cfg.HoldTTL,
		Encoder:    encoder,
		Logger:     logger,
	}))
	decisions := &bookingapp.DecisionHandler{Encoder: encoder, Logger: logger}
	approve, decline, cancel := decisions.Handlers()
	commands.RegisterHandler(commandBus, approve)
	commands.RegisterHandler(commandBus, decline)
	commands.RegisterHandler(commandBus, cancel)
	commands.RegisterHandler(commandBus, commands.Handler[bookingapp.ExpireHoldsCommand, bookingapp.ExpireHoldsResult](&bookingapp.ExpireHoldsHandler{
		Encoder: encoder,
		Logger:  logger,
	}))

	suggester := infrapricing.NewSuggestionClient(cfg.PricingSuggestURL, cfg.PricingSuggestTimeout,
		infrapricing.WithLogger(logger),
		infrapricing.WithClamps(infrapricing.LoadClampConfig(cfg.PricingSuggestClamps, logger)),
	)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, queries.Handler[listingapp.SearchListingsQuery, dto.ListingCollection](&listingapp.SearchListingsHandler{UoWFactory: be.uow}))
	queries.RegisterHandler(queryBus, queries.Handler[listingapp.ListHostListingsQuery, dto.ListingCollection](&listingapp.ListHostListingsHandler{UoWFactory: be.uow}))
	queries.RegisterHandler(queryBus, queries.Handler[listingapp.GetListingQuery, dto.ListingView](&listingapp.GetListingHandler{UoWFactory: be.uow}))
	queries.RegisterHandler(queryBus, queries.Handler[quoteapp.GetQuoteQuery, dto.QuoteResponse](&quoteapp.GetQuoteHandler{UoWFactory: be.uow, Calculator: calculator}))
	queries.RegisterHandler(queryBus, queries.Handler[bookingapp.ListMyBookingsQuery, dto.ReservationCollection](&bookingapp.ListMyBookingsHandler{UoWFactory: be.uow}))
	queries.RegisterHandler(queryBus, queries.Handler[pricingapp.SuggestPriceQuery, dto.PriceSuggestionView](&pricingapp.SuggestPriceHandler{Suggester: suggester}))

	commandPipeline := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Authorization(authorizer),
		middleware.Validation(validator),
		middleware.Idempotency(be.idempotency, nil),
		middleware.OutboxFlush(worker, logger),
		middleware.RetryOnConflict(maxConflictRetries, support.IsConcurrencyConflict, 10*time.Millisecond),
		middleware.Transaction(be.uow, nil),
	)
	queryPipeline := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryAuthorization(authorizer),
		middleware.QueryValidation(validator),
	)

	sched, err := scheduler.New(logger)
	if err != nil {
		return nil, err
	}

	return &application{
		handlers: ginserver.Handlers{
			Booking:        ginserver.BookingHandler{Commands: commandPipeline, Queries: queryPipeline, Logger: logger},
			Listing:        ginserver.ListingHandler{Queries: queryPipeline, Logger: logger},
			HostListing:    ginserver.HostListingHandler{Commands: commandPipeline, Queries: queryPipeline, Logger: logger},
			AuthMiddleware: ginserver.AuthMiddleware{Verifier: tokens, Logger: logger}.Handle,
		},
		commands:  commandPipeline,
		queries:   queryPipeline,
		tokens:    tokens,
		policies:  policies,
		worker:    worker,
		scheduler: sched,
	}, nil
}

// scheduleJobs registers periodic maintenance and starts the scheduler.
func (a *application) scheduleJobs(ctx context.Context, cfg config.Config) error {
	if err := a.scheduler.Every(ctx, schedule.ExpireHoldsJob, cfg.HoldSweepInterval, schedule.ExpireHolds(a.commands, expireHoldsBatch)); err != nil {
		return err
	}
	a.scheduler.Start()
	return nil
}
