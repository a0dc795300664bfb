package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/maxaizer/job-insights/internal/bot"
	"github.com/maxaizer/job-insights/internal/bridge"
	"github.com/maxaizer/job-insights/internal/config"
	"github.com/maxaizer/job-insights/internal/logger"
	"github.com/maxaizer/job-insights/internal/metrics"
	"github.com/maxaizer/job-insights/internal/page"
	"github.com/maxaizer/job-insights/internal/services"
	log "github.com/sirupsen/logrus"
)

func run(ctx context.Context, cfg *config.Config) error {

	metrics.StartMetricsServer(cfg.Metrics.Port)

	b, err := startBackground(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	cleaner, err := services.NewStorageCleaner(b.storage, cfg.Cache.StorageCleanupCron)
	if err != nil {
		return fmt.Errorf("can't create storage cleaner: %w", err)
	}
	defer cleaner.Stop()

	session, err := page.New(cfg.Session)
	if err != nil {
		return fmt.Errorf("can't create page session: %w", err)
	}
	b.registry.Register(session.Realm())
	defer b.registry.Unregister(session.ID())

	renderer := bridge.MultiRenderer{bridge.LogRenderer{}}
	if cfg.Bot.Enabled() {
		tgbot, err := bot.NewBot(cfg.Bot, b.client)
		if err != nil {
			return fmt.Errorf("can't create bot: %w", err)
		}
		renderer = append(renderer, tgbot)
		go tgbot.Run(ctx)
	}

	relay, err := bridge.NewRelay(cfg.Bridge, b.bus, b.client, renderer, session.History(), session.ID())
	if err != nil {
		return fmt.Errorf("can't create relay: %w", err)
	}
	defer relay.Close()

	session.History().OnMutation(relay.Tracker().HistoryMutated)
	session.History().OnTraversal(relay.Tracker().Traversed)
	go relay.Run(ctx)

	if err = session.Browse(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeUpstream).Errorf("browsing stopped: %v", err)
	}
	log.Info("browsing finished, waiting for shutdown")

	<-ctx.Done()
	log.Info("Shutting down services...")
	return nil
}
