package di

import (
	"time"

	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/discovery"
	feedService "github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/service"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/relay"
	subRepo "github.com/reshetovitsme/nostr-feed-reader/internal/modules/subscription/repository"
	subService "github.com/reshetovitsme/nostr-feed-reader/internal/modules/subscription/service"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/video"
	"github.com/reshetovitsme/nostr-feed-reader/internal/shared/config"
	httpServer "github.com/reshetovitsme/nostr-feed-reader/internal/transport/http"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Relay Pool
	do.Provide(injector, func(i do.Injector) (*relay.Pool, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return relay.NewPool(
			relay.WithQueryWindow(time.Duration(cfg.QueryWindow) * time.Second),
		), nil
	})

	// Register Feed Locator
	do.Provide(injector, func(i do.Injector) (*discovery.Locator, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return discovery.NewLocator(
			discovery.WithFetchTimeout(time.Duration(cfg.FetchTimeout) * time.Second),
		), nil
	})

	// Register Channel Resolver
	do.Provide(injector, func(i do.Injector) (*video.ChannelResolver, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return video.NewChannelResolver(
			video.WithScrapeTimeout(time.Duration(cfg.ScrapeTimeout) * time.Second),
		), nil
	})

	// Register Feed Fetcher
	do.Provide(injector, func(i do.Injector) (*feedService.Fetcher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return feedService.NewFetcher(
			feedService.WithTimeout(time.Duration(cfg.FetchTimeout) * time.Second),
		), nil
	})

	// Register Feed Service
	do.Provide(injector, func(i do.Injector) (*feedService.Service, error) {
		locator := do.MustInvoke[*discovery.Locator](i)
		fetcher := do.MustInvoke[*feedService.Fetcher](i)
		channels := do.MustInvoke[*video.ChannelResolver](i)
		return feedService.New(locator, fetcher, channels), nil
	})

	// Register Subscription Repository
	do.Provide(injector, func(i do.Injector) (subRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := subRepo.NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to initialize subscription repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Subscription Service
	do.Provide(injector, func(i do.Injector) (*subService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		pool := do.MustInvoke[*relay.Pool](i)
		return subService.New(pool, cfg.Relays), nil
	})

	// Register Subscription Monitor
	do.Provide(injector, func(i do.Injector) (*subService.Monitor, error) {
		cfg := do.MustInvoke[*config.Config](i)
		service := do.MustInvoke[*subService.Service](i)
		repo := do.MustInvoke[subRepo.Repository](i)
		interval := time.Duration(cfg.SyncInterval) * time.Second
		return subService.NewMonitor(service, repo, cfg.PublicKey, interval), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		service := do.MustInvoke[*feedService.Service](i)
		return httpServer.New(cfg, service), nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services
func Shutdown(injector do.Injector) error {
	// Stop the sync monitor if it was started
	if monitor, err := do.Invoke[*subService.Monitor](injector); err == nil && monitor != nil {
		monitor.Stop()
	}

	// Release relay connections
	if pool, err := do.Invoke[*relay.Pool](injector); err == nil && pool != nil {
		pool.Close()
	}

	return nil
}
