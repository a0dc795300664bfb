package main

import (
	"context"
	"fmt"

	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/job-insights/internal/config"
	"github.com/maxaizer/job-insights/internal/extractor"
	"github.com/maxaizer/job-insights/internal/interceptor"
	"github.com/maxaizer/job-insights/internal/messaging"
	"github.com/maxaizer/job-insights/internal/repositories"
	"github.com/maxaizer/job-insights/internal/services"
	"github.com/maxaizer/job-insights/internal/store"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// background is the long lived side of the pipeline plus the client used to talk to it.
// When only client is set the background runs in another process and is reached over NATS.
type background struct {
	client   *messaging.Client
	registry *interceptor.Registry
	storage  *repositories.Storage
	bus      EventBus.Bus
	closers  []func()
}

func (b *background) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// startBackground opens storage, restores the cache and serves the message channel.
func startBackground(ctx context.Context, cfg *config.Config) (*background, error) {
	b := &background{bus: EventBus.New()}

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("can't create db context: %w", err)
	}
	b.closers = append(b.closers, func() { _ = dbContext.Close() })

	if err = dbContext.Migrate(); err != nil {
		b.Close()
		return nil, fmt.Errorf("can't migrate db context: %w", err)
	}
	b.storage = repositories.NewStorageRepository(dbContext.DB)

	cacheStore := store.New(cfg.Cache, b.storage)
	if err = cacheStore.Restore(ctx); err != nil {
		log.Errorf("can't restore cache: %v", err)
	}

	fieldExtractor := extractor.New(cfg.Extractor.AppliesAliases, cfg.Extractor.ViewsAliases, cfg.Extractor.MaxDepth)
	b.registry = interceptor.NewRegistry(fieldExtractor, interceptor.NewBusEmitter(b.bus))

	handler := services.NewBackground(cacheStore, b.registry)

	switch cfg.Channel.Transport {
	case config.TransportNATS:
		conn, err := nats.Connect(cfg.Channel.NatsURL, nats.Name("job-insights"))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("can't connect to nats: %w", err)
		}
		b.closers = append(b.closers, conn.Close)

		channel := messaging.NewNATSChannel(conn, cfg.Channel.Subject)
		if err = channel.Serve(handler); err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = channel.Close() })
		b.client = messaging.NewClient(channel)
	default:
		channel := messaging.NewLocalChannel(handler)
		b.closers = append(b.closers, channel.Close)
		b.client = messaging.NewClient(channel)
	}

	log.Infof("background started, transport: %s", cfg.Channel.Transport)
	return b, nil
}

// connectBackground reaches a running background over NATS, or starts a local one.
func connectBackground(ctx context.Context, cfg *config.Config) (*background, error) {
	if cfg.Channel.Transport != config.TransportNATS {
		return startBackground(ctx, cfg)
	}

	conn, err := nats.Connect(cfg.Channel.NatsURL, nats.Name("job-insights-cli"))
	if err != nil {
		return nil, fmt.Errorf("can't connect to nats: %w", err)
	}
	return &background{
		client:  messaging.NewClient(messaging.NewNATSChannel(conn, cfg.Channel.Subject)),
		closers: []func(){conn.Close},
	}, nil
}
