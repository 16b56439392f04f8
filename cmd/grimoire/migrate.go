package main

import (
	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/grimoire/pkg/config"
	"github.com/dmitrymomot/grimoire/pkg/pg"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply pending database migrations",
		Action: func(cctx *cli.Context) error {
			cfg, err := config.Load[migrateConfig]()
			if err != nil {
				return err
			}
			log := newLogger(cctx, cfg.Env)

			pool, err := pg.Connect(cctx.Context, cfg.Postgres)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pg.Migrate(cctx.Context, pool, cfg.Postgres, log); err != nil {
				return err
			}
			log.InfoContext(cctx.Context, "migrations applied")
			return nil
		},
	}
}
