// Package config loads typed configuration structs from environment variables.
//
// Struct fields are described with caarlos0/env tags. A .env file in the
// working directory is read once, before the first parse, when present.
//
//	type Config struct {
//	    Redis kv.Config
//	    PG    pg.Config
//	}
//
//	cfg, err := config.Load[Config]()
package config
