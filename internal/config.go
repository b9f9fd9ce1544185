package internal

import (
	"time"
)

type Config struct {
	Host     string `env:"HOST,default=localhost"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LimitMessages  *int   `env:"LIMIT_MESSAGES"`

	ConnectionBufferSize int   `env:"CONNECTION_BUFFER_SIZE,default=128"`
	ReadLimitBytes       int64 `env:"READ_LIMIT_BYTES,default=1048576"`

	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL,default=30s"`
	StoreGCInterval   time.Duration `env:"STORE_GC_INTERVAL,default=5m"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`

	// When set, serves a read-only HTML view of the message store.
	InspectPort *int `env:"INSPECT_PORT"`
}
