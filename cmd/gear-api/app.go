package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/GearCheck/config"
	"github.com/BearBump/GearCheck/internal/broker/kafka"
	"github.com/BearBump/GearCheck/internal/cache"
	"github.com/BearBump/GearCheck/internal/cache/memcache"
	"github.com/BearBump/GearCheck/internal/cache/rediscache"
	"github.com/BearBump/GearCheck/internal/integrations/enrichment"
	"github.com/BearBump/GearCheck/internal/integrations/enrichment/fake"
	"github.com/BearBump/GearCheck/internal/integrations/enrichment/genaiclient"
	"github.com/BearBump/GearCheck/internal/integrations/enrichment/proxyhttp"
	"github.com/BearBump/GearCheck/internal/services/enricher"
	"github.com/BearBump/GearCheck/internal/services/gear"
	"github.com/BearBump/GearCheck/internal/services/preferences"
	"github.com/BearBump/GearCheck/internal/storage/inventory"
)

// kvBackend собирает то, что даёт Redis или его замена в памяти.
type kvBackend struct {
	kv      cache.BytesCache
	rl      cache.RateLimiter
	ping    func(ctx context.Context) error
	closeFn func()
}

type apiFactories struct {
	newKV        func(ctx context.Context, cfg *config.Config) kvBackend
	newPublisher func(cfg *config.Config) (pub gear.Publisher, closeFn func())
	newAIClient  func(ctx context.Context, cfg *config.Config, rl cache.RateLimiter) (enrichment.Client, error)
}

func defaultAPIFactories() apiFactories {
	return apiFactories{
		newKV: func(ctx context.Context, cfg *config.Config) kvBackend {
			if cfg.Redis.Host == "" {
				return kvBackend{kv: memcache.New()}
			}
			rc := rediscache.New(cfg.Redis.Addr())
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := rc.Ping(pingCtx); err != nil {
				// без Redis сервис работает, но тема не переживёт рестарт
				slog.Warn("redis unavailable, using in-memory kv", "addr", cfg.Redis.Addr(), "error", err.Error())
				_ = rc.Close()
				return kvBackend{kv: memcache.New()}
			}
			return kvBackend{
				kv:      rc,
				rl:      rediscache.NewRateLimiter(rc.Client()),
				ping:    rc.Ping,
				closeFn: func() { _ = rc.Close() },
			}
		},
		newPublisher: func(cfg *config.Config) (gear.Publisher, func()) {
			if cfg.Kafka.Host == "" {
				return nil, nil
			}
			p := kafka.NewProducer(cfg.Kafka.Brokers())
			return p, func() { _ = p.Close() }
		},
		newAIClient: func(ctx context.Context, cfg *config.Config, rl cache.RateLimiter) (enrichment.Client, error) {
			gc := cfg.GearCheck
			switch gc.AIMode {
			case "genai":
				c, err := genaiclient.New(ctx, gc.AIAPIKey, gc.AIModel)
				if err != nil {
					return nil, err
				}
				if rl != nil {
					c.WithRateLimit(rl, int64(gc.AIRateLimitPerMinute))
				}
				return c, nil
			case "proxy":
				if gc.AIBaseURL != "" {
					return proxyhttp.New(gc.AIBaseURL, gc.AIAPIKey), nil
				}
				slog.Warn("ai_mode proxy without ai_base_url, using fake client")
				return fake.New(), nil
			default:
				return fake.New(), nil
			}
		},
	}
}

type gearAPIOpts struct {
	httpAddr    string
	swaggerPath string
	onListen    func(httpAddr string)
}

func RunGearAPI(ctx context.Context, cfg *config.Config, opts gearAPIOpts, f apiFactories) error {
	topic := cfg.Kafka.GearCheckedTopicName
	if topic == "" {
		topic = "gear.checked"
	}
	concurrency := cfg.GearCheck.EnrichConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	sidebarTTL := time.Duration(cfg.GearCheck.SidebarCacheTTLSeconds) * time.Second
	if sidebarTTL <= 0 {
		sidebarTTL = 30 * time.Minute
	}
	if opts.httpAddr == "" {
		opts.httpAddr = cfg.GearCheck.HTTPAddr
	}

	backend := f.newKV(ctx, cfg)
	if backend.closeFn != nil {
		defer backend.closeFn()
	}

	aiClient, err := f.newAIClient(ctx, cfg, backend.rl)
	if err != nil {
		return err
	}

	store := inventory.New()
	if cfg.GearCheck.SeedPath != "" {
		n, err := store.LoadSeed(cfg.GearCheck.SeedPath)
		if err != nil {
			return err
		}
		slog.Info("seed loaded", "path", cfg.GearCheck.SeedPath, "items", n)
	}

	enr := enricher.New(aiClient).WithConcurrency(concurrency)
	svc := gear.New(store, enr).WithSidebarCache(backend.kv, sidebarTTL)

	pub, closePub := f.newPublisher(cfg)
	if closePub != nil {
		defer closePub()
	}
	if pub != nil {
		svc.WithPublisher(pub, topic)
	}

	prefs := preferences.New(ctx, backend.kv, cfg.GearCheck.DefaultTheme)

	slog.Info("gear-api starting", "ai_mode", cfg.GearCheck.AIMode, "concurrency", concurrency, "events", pub != nil)
	return runHTTPServer(ctx, httpOpts{
		httpAddr:    opts.httpAddr,
		swaggerPath: opts.swaggerPath,
		onListen:    opts.onListen,
		svc:         svc,
		prefs:       prefs,
		enricher:    enr,
		ready:       backend.ping,
	})
}
