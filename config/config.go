package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverMongo  = "mongo"
	DriverBadger = "badger"
	DriverMemory = "memory"
)

// Config is the process configuration. It is read once at startup.
type Config struct {
	Port            string `envconfig:"PORT" default:"3000" validate:"required,numeric"`
	StoreDriver     string `envconfig:"STORE_DRIVER" default:"mongo" validate:"oneof=mongo badger memory"`
	MongoURI        string `envconfig:"MONGODB_URI"`
	MongoDatabase   string `envconfig:"MONGO_DATABASE" default:"secretbox" validate:"required"`
	MongoCollection string `envconfig:"MONGO_COLLECTION" default:"messages" validate:"required"`
	BadgerPath      string `envconfig:"BADGER_PATH"`

	ArchivePath      string `envconfig:"ARCHIVE_PATH" default:"/ghost123" validate:"required,startswith=/"`
	ArchiveLimit     int    `envconfig:"ARCHIVE_LIMIT" default:"200" validate:"min=1"`
	MessageMaxLength int    `envconfig:"MESSAGE_MAX_LENGTH" default:"5000" validate:"min=1"`

	KafkaBroker   string `envconfig:"KAFKA_BROKER"`
	KafkaDLQTopic string `envconfig:"KAFKA_DLQ_TOPIC" default:"secrets-dlq" validate:"required"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json console"`
}

var validate = validator.New()

// Default returns the configuration used when nothing is set in the environment.
func Default() Config {
	return Config{
		Port:             "3000",
		StoreDriver:      DriverMongo,
		MongoDatabase:    "secretbox",
		MongoCollection:  "messages",
		ArchivePath:      "/ghost123",
		ArchiveLimit:     200,
		MessageMaxLength: 5000,
		KafkaDLQTopic:    "secrets-dlq",
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

// Load reads .env (if present) and the environment. On error the returned Config is
// still usable: every field that failed to parse or validate keeps its default.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg, parseErr := process()
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if err := cfg.Validate(); err != nil {
		return cfg.withDefaultsFor(err), errors.Join(parseErr, err)
	}
	return cfg, parseErr
}

// process runs envconfig. A variable that fails to parse is hidden for the next pass so
// its field takes the default while every other variable still applies. The environment
// is restored before returning.
func process() (Config, error) {
	var errs []error
	var hidden []func()
	defer func() {
		for _, restore := range hidden {
			restore()
		}
	}()

	for attempt := 0; attempt <= maxParseFailures; attempt++ {
		var cfg Config
		err := envconfig.Process("", &cfg)
		if err == nil {
			return cfg, errors.Join(errs...)
		}
		errs = append(errs, fmt.Errorf("parse env: %w", err))
		var perr *envconfig.ParseError
		if !errors.As(err, &perr) {
			break
		}
		hidden = append(hidden, hideEnv(perr.KeyName))
	}
	return Default(), errors.Join(errs...)
}

// maxParseFailures is the number of Config fields; each pass hides one bad variable.
const maxParseFailures = 13

func hideEnv(key string) func() {
	val, ok := os.LookupEnv(key)
	_ = os.Unsetenv(key)
	return func() {
		if ok {
			_ = os.Setenv(key, val)
		}
	}
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Warnings lists settings that are valid but leave the service degraded.
func (c Config) Warnings() []string {
	var out []string
	if c.StoreDriver == DriverMongo && c.MongoURI == "" {
		out = append(out, "MONGODB_URI is not set; secrets will not be persisted")
	}
	if c.StoreDriver == DriverBadger && c.BadgerPath == "" {
		out = append(out, "BADGER_PATH is not set; using an in-memory badger store")
	}
	if c.StoreDriver == DriverMemory {
		out = append(out, "memory store selected; secrets are lost on restart")
	}
	return out
}

func (c Config) withDefaultsFor(err error) Config {
	def := Default()
	verrs, ok := asValidationErrors(err)
	if !ok {
		return def
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Port":
			c.Port = def.Port
		case "StoreDriver":
			c.StoreDriver = def.StoreDriver
		case "MongoDatabase":
			c.MongoDatabase = def.MongoDatabase
		case "MongoCollection":
			c.MongoCollection = def.MongoCollection
		case "ArchivePath":
			c.ArchivePath = def.ArchivePath
		case "ArchiveLimit":
			c.ArchiveLimit = def.ArchiveLimit
		case "MessageMaxLength":
			c.MessageMaxLength = def.MessageMaxLength
		case "KafkaDLQTopic":
			c.KafkaDLQTopic = def.KafkaDLQTopic
		case "LogFormat":
			c.LogFormat = def.LogFormat
		}
	}
	return c
}

func asValidationErrors(err error) (validator.ValidationErrors, bool) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
