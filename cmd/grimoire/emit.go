package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/grimoire/pkg/config"
	"github.com/dmitrymomot/grimoire/pkg/eventbus"
	"github.com/dmitrymomot/grimoire/pkg/kv"
	"github.com/dmitrymomot/grimoire/pkg/logger"
	"github.com/dmitrymomot/grimoire/svc/notifications"
)

// emitCommand publishes one lifecycle event, for smoke-testing a deployment.
func emitCommand() *cli.Command {
	return &cli.Command{
		Name:  "emit",
		Usage: "publish an item lifecycle event",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Usage: "created, updated or deleted", Required: true},
			&cli.Int64Flag{Name: "item-id", Required: true},
			&cli.StringFlag{Name: "name", Usage: "item name"},
			&cli.Int64Flag{Name: "user-id", Usage: "acting user", Required: true},
			&cli.StringFlag{Name: "changes", Usage: `JSON object of {"field": {"from": ..., "to": ...}}`},
		},
		Action: func(cctx *cli.Context) error {
			cfg, err := config.Load[emitConfig]()
			if err != nil {
				return err
			}
			log := newLogger(cctx, cfg.Env)

			ev := notifications.Event{
				Kind:        notifications.Kind(cctx.String("kind")),
				ItemID:      cctx.Int64("item-id"),
				ItemName:    cctx.String("name"),
				ActorUserID: cctx.Int64("user-id"),
			}
			if raw := cctx.String("changes"); raw != "" {
				if err := json.Unmarshal([]byte(raw), &ev.Changes); err != nil {
					return fmt.Errorf("parse --changes: %w", err)
				}
			}

			client, err := kv.Connect(cctx.Context, cfg.Redis)
			if err != nil {
				return err
			}
			defer client.Close()

			bus := eventbus.NewRedisPublisher(client, eventbus.WithLogger(log))
			defer bus.Close()

			if err := notifications.NewPublisher(bus).Publish(cctx.Context, ev); err != nil {
				return err
			}
			log.InfoContext(cctx.Context, "event published",
				logger.Channel(ev.Kind.Channel()),
				logger.ItemID(ev.ItemID),
			)
			return nil
		},
	}
}
