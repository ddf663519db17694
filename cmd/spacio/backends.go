package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"spacio/internal/app/middleware"
	"spacio/internal/app/uow"
	domainlistings "spacio/internal/domain/listings"
	"spacio/internal/infra/broker/kafka"
	redisstore "spacio/internal/infra/cache/redis"
	"spacio/internal/infra/config"
	mongostore "spacio/internal/infra/db/mongo"
	"spacio/internal/infra/obs"
	infraoutbox "spacio/internal/infra/outbox"
	"spacio/internal/infra/storage/memory"
)

// backends are the storage and messaging adapters chosen from configuration.
type backends struct {
	kind        string
	uow         uow.UoWFactory
	listings    domainlistings.ListingRepository
	idempotency middleware.IdempotencyStore
	outbox      infraoutbox.Source
	producer    infraoutbox.Producer
	checks      map[string]obs.Check
	closers     []func(context.Context) error
}

func openBackends(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backends, error) {
	be := &backends{checks: map[string]obs.Check{}}
	if cfg.MongoURI != "" {
		if err := be.openMongo(ctx, cfg); err != nil {
			be.close(logger)
			return nil, err
		}
	} else {
		store := memory.NewFactory()
		be.kind = "memory"
		be.uow = store
		be.listings = store.ListingsRepo
		be.outbox = store.OutboxStore
		be.idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	}

	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			be.close(logger)
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		be.idempotency = redisstore.NewIdempotencyStore(client, cfg.IdempotencyTTL)
		be.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		be.closers = append(be.closers, func(context.Context) error { return client.Close() })
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.NewConfig("spacio"))
		if err != nil {
			be.close(logger)
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		be.producer = producer
		be.closers = append(be.closers, func(context.Context) error { return producer.Close() })
	} else {
		be.producer = infraoutbox.LogProducer{Logger: logger}
	}
	return be, nil
}

func (be *backends) openMongo(ctx context.Context, cfg config.Config) error {
	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	be.closers = append(be.closers, client.Close)
	be.checks["mongo"] = client.Ping

	listingsRepo, err := mongostore.NewListingRepository(ctx, client.DB)
	if err != nil {
		return err
	}
	bookingRepo, err := mongostore.NewBookingRepository(ctx, client.DB)
	if err != nil {
		return err
	}
	outboxStore, err := infraoutbox.NewStore(ctx, client.DB)
	if err != nil {
		return err
	}
	idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return err
	}
	be.kind = "mongo"
	be.uow = mongostore.Factory{
		DB:           client.DB,
		ListingsRepo: listingsRepo,
		BookingRepo:  bookingRepo,
		OutboxStore:  outboxStore,
	}
	be.listings = listingsRepo
	be.outbox = outboxStore
	be.idempotency = idem
	return nil
}

// close releases adapters in reverse order of opening.
func (be *backends) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(be.closers) - 1; i >= 0; i-- {
		if err := be.closers[i](ctx); err != nil && logger != nil {
			logger.Warn("backend close failed", "error", err)
		}
	}
	be.closers = nil
}
