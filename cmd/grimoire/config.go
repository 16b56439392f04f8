package main

import (
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/grimoire/pkg/httpserver"
	"github.com/dmitrymomot/grimoire/pkg/kv"
	"github.com/dmitrymomot/grimoire/pkg/logger"
	"github.com/dmitrymomot/grimoire/pkg/pg"
	"github.com/dmitrymomot/grimoire/pkg/ratelimit"
	"github.com/dmitrymomot/grimoire/pkg/requestid"
	"github.com/dmitrymomot/grimoire/svc/notifications"
	"github.com/dmitrymomot/grimoire/svc/usercount"
)

type appConfig struct {
	Env string `env:"APP_ENV" envDefault:"development"`
}

type serveConfig struct {
	appConfig
	Bus            string `env:"EVENT_BUS" envDefault:"redis"` // redis or memory
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"false"`
	UserHeader     string `env:"AUTH_USER_HEADER" envDefault:"X-User-ID"`

	HTTP          httpserver.Config
	Redis         kv.Config
	Postgres      pg.Config
	Notifications notifications.Config
	UserCount     usercount.Config
	LikeRate      ratelimit.Config
}

type migrateConfig struct {
	appConfig
	Postgres pg.Config
}

type emitConfig struct {
	appConfig
	Redis kv.Config
}

func newLogger(cctx *cli.Context, env string) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(env, serviceName),
		logger.WithContextExtractors(requestid.LogExtractor()),
	}
	if cctx.Bool("debug") {
		opts = append(opts, logger.WithLevel(slog.LevelDebug))
	}
	l := logger.New(opts...)
	logger.SetAsDefault(l)
	return l
}
