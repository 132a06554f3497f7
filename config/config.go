package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	ServerPort  string `env:"SERVER_PORT" envDefault:"8090"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"hrms"`

	// MySQL
	DSN            string `env:"DSN" envDefault:"root:development@tcp(localhost:3306)/hrms?parseTime=true"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`

	// Redis (sync lock)
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"hrms"`

	// JWT (base64-encoded HS256 secret, same key the identity service signs with)
	JWTSecret string `env:"HRMS_SIGNING_SECRET"`

	// Attendance sync
	DeviceTimeoutSeconds int  `env:"DEVICE_TIMEOUT_SECONDS" envDefault:"5"`
	RetainUnlinked       bool `env:"ATTENDANCE_RETAIN_UNLINKED" envDefault:"true"`

	// Punch sheet archive
	ArchiveBucket string `env:"PUNCH_ARCHIVE_BUCKET"`

	// Slack ops notifications
	SlackBotToken     string `env:"SLACK_BOT_TOKEN"`
	SlackInfoChannel  string `env:"SLACK_INFO_CHANNEL"`
	SlackErrorChannel string `env:"SLACK_ERROR_CHANNEL"`

	// Logging
	LoggerLevel  string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat string `env:"LOGGER_FORMAT" envDefault:"text"`
}

func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads .env (if present) and parses the environment into Cfg.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
}
