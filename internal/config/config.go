package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Dias221467/yumix/pkg/email"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds every setting the service reads from the environment.
type Config struct {
	Port        string        `env:"PORT" env-default:"8080"`
	Debug       bool          `env:"DEBUG" env-default:"false"`
	LogLevel    string        `env:"LOG_LEVEL" env-default:"info"`
	JWTSecret   string        `env:"JWT_SECRET"`
	CORSOrigins []string      `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
	ShutdownTTL time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`

	MongoURI          string        `env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	MongoDatabase     string        `env:"MONGO_DB" env-default:"yumix"`
	MongoTimeout      time.Duration `env:"MONGO_TIMEOUT" env-default:"10s"`
	MongoTransactions bool          `env:"MONGO_TRANSACTIONS" env-default:"false"`

	Jobs JobsConfig
	SMTP email.Config
}

// JobsConfig holds cron specs for the scheduled jobs. An empty spec disables the job.
type JobsConfig struct {
	NotificationRetention string        `env:"JOB_NOTIFICATION_RETENTION" env-default:"0 2 * * *"`
	RecipeRetention       string        `env:"JOB_RECIPE_RETENTION" env-default:"0 3 * * *"`
	SubscriptionExpiry    string        `env:"JOB_SUBSCRIPTION_EXPIRY" env-default:"0 9 * * *"`
	RunTimeout            time.Duration `env:"JOB_RUN_TIMEOUT" env-default:"5m"`
	AdminInlineSweep      bool          `env:"ADMIN_INLINE_SWEEP" env-default:"true"`
	UserInlineSweep       bool          `env:"USER_INLINE_SWEEP" env-default:"false"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load %s: %w", envFile, err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.JWTSecret) == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if strings.TrimSpace(c.MongoURI) == "" {
		problems = append(problems, "MONGO_URI is required")
	}
	if strings.TrimSpace(c.MongoDatabase) == "" {
		problems = append(problems, "MONGO_DB is required")
	}
	if c.Jobs.RunTimeout <= 0 {
		problems = append(problems, "JOB_RUN_TIMEOUT must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
