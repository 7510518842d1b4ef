package main

import "time"

type Config struct {
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8000"`
	GrpcPort                  int           `env:"GRPC_PORT,default=8001"`
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel                  string        `env:"LOG_LEVEL,required=true"`
	ConnectionBufferSize      int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	WriteTimeout              time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	PongWait                  time.Duration `env:"PONG_WAIT,default=60s"`
	MaxMessageSize            int64         `env:"MAX_MESSAGE_SIZE,default=65536"`
	ModerationEnabled         bool          `env:"MODERATION_ENABLED,default=false"`
	ModerationCharReplacement string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	ModerationWordsDir        string        `env:"MODERATION_WORDS_DIR"`
	JwtSecret                 string        `env:"JWT_SECRET"`
	RedisAddr                 string        `env:"REDIS_ADDR"`
	RedisPassword             string        `env:"REDIS_PASSWORD"`
	AllowedOrigin             string        `env:"ALLOWED_ORIGIN,default=*"`
	MetricInterval            time.Duration `env:"METRIC_INTERVAL,default=30s"`
	HealthInterval            time.Duration `env:"HEALTH_INTERVAL,default=5s"`
	RestartInterval           time.Duration `env:"RESTART_INTERVAL,default=1s"`
	ShutdownTimeout           time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}
