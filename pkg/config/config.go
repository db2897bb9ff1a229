package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for both the chat service and the stock bot
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Stooq    StooqConfig    `mapstructure:"stooq"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Bot      BotConfig      `mapstructure:"bot"`
}

type AppConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"` // e.g., "local", "prod"
}

type LoggerConfig struct {
	Level string `mapstructure:"level"` // "debug", "info", "warn", "error"
}

type RabbitMQConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	CommandQueue  string `mapstructure:"command_queue"`
	ResponseQueue string `mapstructure:"response_queue"`
}

// URL builds the AMQP connection string from the individual fields
func (r RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", r.User, r.Password, r.Host, r.Port)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type StooqConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type ChatConfig struct {
	HistoryLimit int `mapstructure:"history_limit"`
}

type BotConfig struct {
	MaxRetries int `mapstructure:"max_retries"`
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Load .env file into System Environment (if it exists)
	// This ensures variables like APP_PORT are available as real env vars
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	// 2. Set Defaults (12-Factor App: Dev/Prod Parity)
	v.SetDefault("app.port", ":8080")
	v.SetDefault("app.env", "local")

	v.SetDefault("logger.level", "info")

	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.command_queue", "stock_commands")
	v.SetDefault("rabbitmq.response_queue", "stock_responses")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("stooq.base_url", "https://stooq.com")
	v.SetDefault("stooq.timeout_seconds", 10)

	v.SetDefault("chat.history_limit", 50)

	v.SetDefault("bot.max_retries", 5)

	// 3. Configure Viper to read Environment Variables
	// This maps dot-notation to underscores (e.g., "rabbitmq.host" -> "RABBITMQ_HOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Explicitly Bind Env Vars to Keys
	// This is crucial for Viper to map flat Env Vars (RABBITMQ_HOST) to nested structs
	bindEnv(v, "app.port", "app.env")
	bindEnv(v, "logger.level")
	bindEnv(v, "rabbitmq.host", "rabbitmq.port", "rabbitmq.user", "rabbitmq.password")
	bindEnv(v, "rabbitmq.command_queue", "rabbitmq.response_queue")
	bindEnv(v, "redis.addr", "redis.password", "redis.db")
	bindEnv(v, "stooq.base_url", "stooq.timeout_seconds")
	bindEnv(v, "chat.history_limit")
	bindEnv(v, "bot.max_retries")

	// 5. Unmarshal into Struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %v", err)
	}

	// 6. Basic Validation
	if cfg.RabbitMQ.CommandQueue == "" || cfg.RabbitMQ.ResponseQueue == "" {
		return nil, fmt.Errorf("rabbitmq queue names cannot be empty")
	}
	if cfg.RabbitMQ.CommandQueue == cfg.RabbitMQ.ResponseQueue {
		return nil, fmt.Errorf("command and response queues must be distinct")
	}
	if cfg.Bot.MaxRetries < 0 {
		return nil, fmt.Errorf("bot max_retries cannot be negative")
	}

	return &cfg, nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
