// Package config assembles the application configuration from, in
// ascending priority, built-in defaults, a JSON config file, environment
// variables and command line flags.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings of the gateway.
type Config struct {
	// RunAddr is the address and port the HTTP server listens on.
	RunAddr string `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`

	// LogLevel is the minimum level of the global logger.
	LogLevel string `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`

	// RAGServerURL is the base URL of the external answering (RAG) service.
	RAGServerURL string `env:"RAG_SERVER_URL" json:"rag_server_url" validate:"url"`

	// AuthCookieName is the name of the cookie carrying the session token.
	AuthCookieName string `env:"AUTH_COOKIE_NAME" json:"auth_cookie_name" validate:"required"`

	// AuthCookieSigningSecretKey is the base64 (URL alphabet) encoded key
	// used to sign session tokens.
	AuthCookieSigningSecretKey string `env:"AUTH_COOKIE_SIGNING_SECRET_KEY" json:"auth_cookie_signing_secret_key" validate:"required,base64url"`

	// AuthTokenTTL limits the lifetime of issued session tokens.
	AuthTokenTTL time.Duration `env:"AUTH_TOKEN_TTL" json:"-"`

	// AnswerTimeout bounds one call to the answering service's /answer endpoint.
	AnswerTimeout time.Duration `env:"ANSWER_TIMEOUT" json:"-"`

	// IndexTimeout bounds one call to the answering service's /upload
	// pre-indexing endpoint.
	IndexTimeout time.Duration `env:"INDEX_TIMEOUT" json:"-"`

	// IndexChunkSize is the chunk size passed along with pre-indexing requests.
	IndexChunkSize int `env:"INDEX_CHUNK_SIZE" json:"index_chunk_size"`

	// IndexingEnabled turns the background pre-indexing of uploaded
	// documents on. Queries do not depend on it; context always travels
	// with the query itself.
	IndexingEnabled bool `env:"INDEXING_ENABLED" json:"indexing_enabled"`

	// ChannelCapacity is the buffer size of the pre-indexing job queue.
	ChannelCapacity int `env:"CHANNEL_CAPACITY" json:"-"`

	// DelayBetweenQueueFetches is the tick interval of the pre-indexing worker.
	DelayBetweenQueueFetches time.Duration `env:"DELAY_BETWEEN_QUEUE_FETCHES" json:"-"`

	// TrustedSubnet is the CIDR of clients allowed to read internal stats.
	// An empty value disables the stats endpoint.
	TrustedSubnet string `env:"TRUSTED_SUBNET" json:"trusted_subnet" validate:"omitempty,cidr"`
}

var defaultConfig = Config{
	RunAddr:                    ":8000",
	LogLevel:                   "info",
	RAGServerURL:               "http://localhost:8001",
	AuthCookieName:             "username",
	AuthCookieSigningSecretKey: "ZG9jcWEtYXV0aC1jb29raWUtc2lnbmluZy1rZXk=",
	AuthTokenTTL:               24 * time.Hour,
	AnswerTimeout:              60 * time.Second,
	IndexTimeout:               10 * time.Second,
	IndexChunkSize:             1024,
	IndexingEnabled:            false,
	ChannelCapacity:            1024,
	DelayBetweenQueueFetches:   5 * time.Second,
	TrustedSubnet:              "",
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug":   true,
		"info":    true,
		"warning": true,
		"error":   true,
		"fatal":   true,
	}

	return allowedLogLevels[value]
}

func (values *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	return validate.Struct(values)
}

func loadConfigFile(fileName string, values *Config) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/loadConfigFile(): error while `os.ReadFile()` calling: %w", err)
	}
	if err := json.Unmarshal(data, values); err != nil {
		return fmt.Errorf("in internal/config/config.go/loadConfigFile(): error while `json.Unmarshal()` calling: %w", err)
	}

	return nil
}

func applyDefaults(values *Config, defaults Config) {
	if values.RunAddr == "" {
		values.RunAddr = defaults.RunAddr
	}
	if values.LogLevel == "" {
		values.LogLevel = defaults.LogLevel
	}
	if values.RAGServerURL == "" {
		values.RAGServerURL = defaults.RAGServerURL
	}
	if values.AuthCookieName == "" {
		values.AuthCookieName = defaults.AuthCookieName
	}
	if values.AuthCookieSigningSecretKey == "" {
		values.AuthCookieSigningSecretKey = defaults.AuthCookieSigningSecretKey
	}
	if values.AuthTokenTTL == 0 {
		values.AuthTokenTTL = defaults.AuthTokenTTL
	}
	if values.AnswerTimeout == 0 {
		values.AnswerTimeout = defaults.AnswerTimeout
	}
	if values.IndexTimeout == 0 {
		values.IndexTimeout = defaults.IndexTimeout
	}
	if values.IndexChunkSize == 0 {
		values.IndexChunkSize = defaults.IndexChunkSize
	}
	if values.ChannelCapacity == 0 {
		values.ChannelCapacity = defaults.ChannelCapacity
	}
	if values.DelayBetweenQueueFetches == 0 {
		values.DelayBetweenQueueFetches = defaults.DelayBetweenQueueFetches
	}
}

func applyOverrides(values *Config, overrides Config) {
	if overrides.RunAddr != "" {
		values.RunAddr = overrides.RunAddr
	}
	if overrides.LogLevel != "" {
		values.LogLevel = overrides.LogLevel
	}
	if overrides.RAGServerURL != "" {
		values.RAGServerURL = overrides.RAGServerURL
	}
	if overrides.AuthCookieName != "" {
		values.AuthCookieName = overrides.AuthCookieName
	}
	if overrides.AuthCookieSigningSecretKey != "" {
		values.AuthCookieSigningSecretKey = overrides.AuthCookieSigningSecretKey
	}
	if overrides.AuthTokenTTL != 0 {
		values.AuthTokenTTL = overrides.AuthTokenTTL
	}
	if overrides.AnswerTimeout != 0 {
		values.AnswerTimeout = overrides.AnswerTimeout
	}
	if overrides.IndexTimeout != 0 {
		values.IndexTimeout = overrides.IndexTimeout
	}
	if overrides.IndexChunkSize != 0 {
		values.IndexChunkSize = overrides.IndexChunkSize
	}
	if overrides.IndexingEnabled {
		values.IndexingEnabled = true
	}
	if overrides.ChannelCapacity != 0 {
		values.ChannelCapacity = overrides.ChannelCapacity
	}
	if overrides.DelayBetweenQueueFetches != 0 {
		values.DelayBetweenQueueFetches = overrides.DelayBetweenQueueFetches
	}
	if overrides.TrustedSubnet != "" {
		values.TrustedSubnet = overrides.TrustedSubnet
	}
}

// InitOption customizes the behavior of New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing disables command line parsing.
// It is used by tests that call New repeatedly with unrelated os.Args.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds the configuration. Values from the JSON config file (path
// taken from the -c/-config flag or the CONFIG environment variable)
// are overridden by environment variables, which are overridden by
// command line flags.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	var flagValues Config
	var configFileName string
	setFlags := map[string]bool{}
	if !options.disableFlagsParsing {
		flags := flag.NewFlagSet("docqa", flag.ContinueOnError)
		flags.StringVar(&flagValues.RunAddr, "a", "", "address and port to run server")
		flags.StringVar(&flagValues.LogLevel, "l", "", "logger level")
		flags.StringVar(&flagValues.RAGServerURL, "r", "", "base URL of the answering (RAG) service")
		flags.StringVar(&flagValues.TrustedSubnet, "t", "", "trusted subnet in CIDR notation for the internal stats endpoint")
		flags.StringVar(&configFileName, "c", "", "path to a JSON config file")
		flags.StringVar(&configFileName, "config", "", "path to a JSON config file")
		if err := flags.Parse(os.Args[1:]); err != nil {
			return nil, err
		}
		flags.Visit(func(f *flag.Flag) {
			setFlags[f.Name] = true
		})
	}

	if configFileName == "" {
		configFileName = os.Getenv("CONFIG")
	}

	values := Config{}
	if configFileName != "" {
		if err := loadConfigFile(configFileName, &values); err != nil {
			return nil, err
		}
	}

	applyDefaults(&values, defaultConfig)

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, err
	}
	applyOverrides(&values, valuesFromEnv)

	if setFlags["a"] {
		values.RunAddr = flagValues.RunAddr
	}
	if setFlags["l"] {
		values.LogLevel = flagValues.LogLevel
	}
	if setFlags["r"] {
		values.RAGServerURL = flagValues.RAGServerURL
	}
	if setFlags["t"] {
		values.TrustedSubnet = flagValues.TrustedSubnet
	}

	if err := values.validate(); err != nil {
		return nil, err
	}

	return &values, nil
}
