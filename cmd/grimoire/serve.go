package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/grimoire/modules/admin"
	"github.com/dmitrymomot/grimoire/pkg/config"
	"github.com/dmitrymomot/grimoire/pkg/eventbus"
	"github.com/dmitrymomot/grimoire/pkg/httpserver"
	"github.com/dmitrymomot/grimoire/pkg/kv"
	"github.com/dmitrymomot/grimoire/pkg/logger"
	"github.com/dmitrymomot/grimoire/pkg/pg"
	"github.com/dmitrymomot/grimoire/pkg/ratelimit"
	"github.com/dmitrymomot/grimoire/pkg/requestid"
	"github.com/dmitrymomot/grimoire/svc/likes"
	"github.com/dmitrymomot/grimoire/svc/notifications"
	"github.com/dmitrymomot/grimoire/svc/usercount"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "run the notification pipeline and the HTTP API",
		Action: serve,
	}
}

func serve(cctx *cli.Context) error {
	cfg, err := config.Load[serveConfig]()
	if err != nil {
		return err
	}
	log := newLogger(cctx, cfg.Env)

	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := pg.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
			return err
		}
	}

	store, err := openStore(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer store.Close()

	bus, closeBus, err := openBus(cfg, log)
	if err != nil {
		return err
	}
	defer closeBus()

	admins := notifications.NewPgAdminResolver(pool)
	notificationLog := notifications.NewLog(store,
		notifications.WithLogKey(cfg.Notifications.LogKey),
		notifications.WithCapacity(cfg.Notifications.Capacity),
		notifications.WithLogLogger(log),
	)
	pipeline := notifications.NewPipeline(bus, admins,
		notifications.NewSequence(store, cfg.Notifications.SequenceKey),
		notificationLog,
		notifications.WithPipelineLogger(log),
		notifications.WithHandleTimeout(cfg.Notifications.HandleTimeout),
		notifications.WithRetryInterval(cfg.Notifications.RetryInterval),
	)
	if err := pipeline.Start(ctx); err != nil {
		return err
	}

	likeLimiter, err := ratelimit.New(store, cfg.LikeRate, ratelimit.WithLogger(log))
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Get("/healthz", httpserver.Liveness())
	r.Get("/readyz", httpserver.Readiness(log, cfg.HTTP.ReadinessTimeout, map[string]httpserver.Check{
		"redis":    kv.Healthcheck(store),
		"postgres": pg.Healthcheck(pool),
	}))
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", admin.Router(admin.Options{
		Notifications: notifications.NewManager(notificationLog, notifications.WithManagerLogger(log)),
		Likes:         likes.NewService(likes.NewPgStorage(pool), likes.WithLogger(log)),
		UserCount: usercount.NewCache(store, usercount.NewPgSource(pool),
			usercount.WithKey(cfg.UserCount.Key),
			usercount.WithTTL(cfg.UserCount.TTL),
			usercount.WithLogger(log),
		),
		Identity:    proxyIdentity(cfg.UserHeader, admins),
		LikeLimiter: likeLimiter,
		Logger:      log,
	}))

	srv := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, r) })
	g.Go(func() error {
		<-gctx.Done()
		return pipeline.Close()
	})

	err = g.Wait()
	log.InfoContext(context.WithoutCancel(ctx), "shutdown complete")
	return err
}

// openStore pings Redis at startup but does not require it: when the ping
// fails the store connects lazily and operations degrade until Redis is back.
func openStore(ctx context.Context, cfg kv.Config, log *slog.Logger) (*kv.Store, error) {
	client, err := kv.Connect(ctx, cfg)
	if err == nil {
		return kv.NewFromClient(client, kv.WithLogger(log), kv.WithOpTimeout(cfg.OpTimeout)), nil
	}
	if errors.Is(err, kv.ErrFailedToParseConnString) {
		return nil, err
	}
	log.WarnContext(ctx, "redis not reachable at startup, continuing in degraded mode",
		logger.Component("kv"),
		logger.Error(err),
	)
	return kv.New(cfg, kv.WithLogger(log))
}

// openBus returns the event bus selected by EVENT_BUS. The redis bus uses
// separate publisher and subscriber clients.
func openBus(cfg serveConfig, log *slog.Logger) (eventbus.Bus, func(), error) {
	switch cfg.Bus {
	case "memory":
		bus := eventbus.NewMemoryBus(eventbus.WithLogger(log))
		return bus, func() { _ = bus.Close() }, nil
	case "redis", "":
	default:
		return nil, nil, errors.New("EVENT_BUS must be redis or memory")
	}

	opts, err := redis.ParseURL(cfg.Redis.ConnectionURL)
	if err != nil {
		return nil, nil, errors.Join(kv.ErrFailedToParseConnString, err)
	}
	subOpts := *opts
	pub := redis.NewClient(opts)
	sub := redis.NewClient(&subOpts)
	bus := eventbus.NewRedisBus(pub, sub, eventbus.WithLogger(log))
	return bus, func() {
		_ = bus.Close()
		_ = pub.Close()
		_ = sub.Close()
	}, nil
}
