package kv

import "time"

type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"` // redis://:password@host:6379/0
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`           // Startup ping attempts used by Connect.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`          // Delay between startup ping attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"15s"`        // Overall budget for Connect.
	OpTimeout      time.Duration `env:"REDIS_OP_TIMEOUT" envDefault:"2s"`              // Per-operation timeout.
}
