package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration.
// Proof events are only published when URL is set.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// RedisConfig holds Redis connection configuration.
// The submission lock and the distributed rate limiter are disabled when Addr is empty.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ExplorerConfig holds the block explorer (Etherscan v2 compatible) configuration
type ExplorerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	ChainID int64         `mapstructure:"chain_id"`
	Timeout time.Duration `mapstructure:"timeout"`
	// CacheTTL bounds how long confirmed transactions and receipts are cached
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// TokenIssuerConfig holds the SWAG token issuer configuration
type TokenIssuerConfig struct {
	URL     string        `mapstructure:"url"`
	Secret  string        `mapstructure:"secret"` // hex encoded HMAC secret
	Timeout time.Duration `mapstructure:"timeout"`
}

// ReferralConfig holds referral link validation configuration
type ReferralConfig struct {
	// AllowedHosts restricts referral links to these hosts (and their subdomains).
	// An empty list accepts any host unless the activity config narrows it.
	AllowedHosts []string `mapstructure:"allowed_hosts"`
}

// LockConfig holds the per-submission lock configuration
type LockConfig struct {
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// RateLimitConfig holds the outbound rate limit for a single provider
type RateLimitConfig struct {
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxQueueTime      time.Duration `mapstructure:"max_queue_time"`
}

// RateLimiterConfig holds the outbound rate limiter configuration
type RateLimiterConfig struct {
	RedisKeyPrefix          string                     `mapstructure:"redis_key_prefix"`
	EnableLocalFallback     bool                       `mapstructure:"enable_local_fallback"`
	LocalFallbackMultiplier float64                    `mapstructure:"local_fallback_multiplier"`
	Providers               map[string]RateLimitConfig `mapstructure:"providers"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
	// AllowedOrigins restricts CORS; empty allows any origin
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// WorkerConfig holds worker configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// APIConfig holds configuration for API server
type APIConfig struct {
	BaseConfig    `mapstructure:",squash"`
	Server        ServerConfig      `mapstructure:"server"`
	Database      DatabaseConfig    `mapstructure:"database"`
	Auth          AuthConfig        `mapstructure:"auth"`
	NATS          NATSConfig        `mapstructure:"nats"`
	Redis         RedisConfig       `mapstructure:"redis"`
	Explorer      ExplorerConfig    `mapstructure:"explorer"`
	TokenIssuer   TokenIssuerConfig `mapstructure:"token_issuer"`
	Referral      ReferralConfig    `mapstructure:"referral"`
	Lock          LockConfig        `mapstructure:"lock"`
	RateLimiter   RateLimiterConfig `mapstructure:"rate_limiter"`
	TokenDecimals int               `mapstructure:"token_decimals"`
}

// RewardSweeperConfig holds configuration for the reward reconciliation sweeper
type RewardSweeperConfig struct {
	BatchSize   int           `mapstructure:"batch_size"`
	GracePeriod time.Duration `mapstructure:"grace_period"` // approved proofs younger than this are left to the API
	Interval    time.Duration `mapstructure:"interval"`
	MaxElapsed  time.Duration `mapstructure:"max_elapsed"` // retry budget for a single issuance
	Worker      WorkerConfig  `mapstructure:"worker"`
}

// SweeperConfig holds configuration for the sweeper program
type SweeperConfig struct {
	BaseConfig    `mapstructure:",squash"`
	Database      DatabaseConfig      `mapstructure:"database"`
	NATS          NATSConfig          `mapstructure:"nats"`
	TokenIssuer   TokenIssuerConfig   `mapstructure:"token_issuer"`
	RewardSweeper RewardSweeperConfig `mapstructure:"reward_sweeper"`
}

// LoadAPIConfig loads configuration for API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60) // a submission may wait on explorer and issuer calls
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.stream_name", "PROOF_EVENTS")
	v.SetDefault("nats.subject_prefix", "proofs")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", "proof-validator-api")
	v.SetDefault("explorer.base_url", "https://api.etherscan.io/v2/api")
	v.SetDefault("explorer.chain_id", 534352) // Scroll mainnet
	v.SetDefault("explorer.timeout", "20s")
	v.SetDefault("explorer.cache_ttl", "24h")
	v.SetDefault("token_issuer.timeout", "30s")
	v.SetDefault("token_decimals", 6)
	v.SetDefault("lock.ttl", "60s")
	v.SetDefault("lock.key_prefix", "swagly:proof:lock:")
	v.SetDefault("rate_limiter.redis_key_prefix", "swagly:proof:limiter:")
	v.SetDefault("rate_limiter.enable_local_fallback", true)
	v.SetDefault("rate_limiter.local_fallback_multiplier", 0.5)
	v.SetDefault("rate_limiter.providers.explorer.requests_per_second", 4)
	v.SetDefault("rate_limiter.providers.explorer.burst", 4)
	v.SetDefault("rate_limiter.providers.explorer.max_queue_time", "15s")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// LoadSweeperConfig loads configuration for the sweeper program
func LoadSweeperConfig(configFile string, envPath string) (*SweeperConfig, error) {
	v := configureViper("sweeper", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("nats.stream_name", "PROOF_EVENTS")
	v.SetDefault("nats.subject_prefix", "proofs")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", "proof-validator-sweeper")
	v.SetDefault("token_issuer.timeout", "30s")
	v.SetDefault("reward_sweeper.batch_size", 50)
	v.SetDefault("reward_sweeper.grace_period", "2m")
	v.SetDefault("reward_sweeper.interval", "1m")
	v.SetDefault("reward_sweeper.max_elapsed", "2m")
	v.SetDefault("reward_sweeper.worker.pool_size", 5)
	v.SetDefault("reward_sweeper.worker.queue_size", 100)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg SweeperConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if cfg.Database.DBName == "" {
		return nil, errors.New("database.dbname is required")
	}
	if cfg.TokenIssuer.URL == "" {
		return nil, errors.New("token_issuer.url is required")
	}

	return &cfg, nil
}

// readConfig reads the config file, falling back to environment variables when it does not exist
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			// Config file not found, use environment variables
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/sweeper/, cmd/api/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("SWAGLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	commonKeys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.subject_prefix",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Redis
		"redis.addr",
		"redis.password",
		"redis.db",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.allowed_origins",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Explorer
		"explorer.base_url",
		"explorer.api_key",
		"explorer.chain_id",
		"explorer.timeout",
		"explorer.cache_ttl",
		// Token issuer
		"token_issuer.url",
		"token_issuer.secret",
		"token_issuer.timeout",
		"token_decimals",
		// Referral
		"referral.allowed_hosts",
		// Lock
		"lock.ttl",
		"lock.key_prefix",
		// Rate limiter
		"rate_limiter.redis_key_prefix",
		"rate_limiter.enable_local_fallback",
		"rate_limiter.local_fallback_multiplier",
		"rate_limiter.providers.explorer.requests_per_second",
		"rate_limiter.providers.explorer.burst",
		"rate_limiter.providers.explorer.max_queue_time",
		// Reward sweeper
		"reward_sweeper.batch_size",
		"reward_sweeper.grace_period",
		"reward_sweeper.interval",
		"reward_sweeper.max_elapsed",
		"reward_sweeper.worker.pool_size",
		"reward_sweeper.worker.queue_size",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
