package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"credit-scoring-service/internal/pkg/logger"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-level config
type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	LogLevel string `yaml:"level"`
}

// NetworkConfig binds the service to one deployed contract on one chain.
// Durations are declared as plain seconds/minutes in YAML and converted to
// time.Duration once defaults are applied.
type NetworkConfig struct {
	ChainID           int64  `yaml:"chain_id"`
	RPCURL            string `yaml:"rpc_url"`
	ContractAddress   string `yaml:"contract_address"`
	GasLimit          uint64 `yaml:"gas_limit"`
	GasPriceWei       int64  `yaml:"gas_price_wei"`
	MaxRetryAttempts  int    `yaml:"max_retry_attempts"`
	RetryDelaySeconds int    `yaml:"retry_delay_seconds"`
	TxTimeoutMinutes  int    `yaml:"tx_timeout_minutes"`

	RetryDelay time.Duration `yaml:"-"`
	TxTimeout  time.Duration `yaml:"-"`
}

type MonitorConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	GracePeriodSeconds  int `yaml:"grace_period_seconds"`

	PollInterval time.Duration `yaml:"-"`
	GracePeriod  time.Duration `yaml:"-"`
}

type ScoringConfig struct {
	BaseInterestRate  float64 `yaml:"base_interest_rate"`
	DefaultTermMonths uint64  `yaml:"default_term_months"`
}

type StartupConfig struct {
	EnableFallback        bool   `yaml:"enable_fallback"`
	BootstrapAttempts     int    `yaml:"bootstrap_attempts"`
	BootstrapDelaySeconds int    `yaml:"bootstrap_delay_seconds"`
	DemoBorrowerNID       string `yaml:"demo_borrower_nid"`

	BootstrapDelay time.Duration `yaml:"-"`
}

type EventSyncConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	WorkerCount         int `yaml:"worker_count"`

	PollInterval time.Duration `yaml:"-"`
}

// MongoDB connection config
type MongoConfig struct {
	Username              string `yaml:"username"`
	Password              string `yaml:"password"`
	URI                   string `yaml:"uri"`
	DBName                string `yaml:"db_name"`
	MaxPoolSize           uint64 `yaml:"max_pool_size"`
	MinPoolSize           uint64 `yaml:"min_pool_size"`
	MaxConnIdleMinutes    int    `yaml:"max_conn_idle_minutes"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`

	MaxConnIdleTime time.Duration `yaml:"-"`
	ConnectTimeout  time.Duration `yaml:"-"`
}

// Redis connection config
type RedisConfig struct {
	Addr                  string `yaml:"addr"`
	Password              string `yaml:"password"`
	DB                    int    `yaml:"db"`
	EnableTLS             bool   `yaml:"enable_tls"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`

	ConnectTimeout time.Duration `yaml:"-"`
}

// Kafka connection config
type KafkaConfig struct {
	Server           string `yaml:"server"`
	LoanTopic        string `yaml:"loan_topic"`
	SecurityProtocol string `yaml:"security_protocol"`
	SASLMechanism    string `yaml:"sasl_mechanism"`
	SASLUsername     string `yaml:"sasl_username"`
	SASLPassword     string `yaml:"sasl_password"`
	ClientID         string `yaml:"client_id"`
}

type PubSubConfig struct {
	ProjectID         string `yaml:"project_id"`
	NotificationTopic string `yaml:"notification_topic"`
}

// AppConfig is the main config struct that holds all configs
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LogConfig       `yaml:"logging"`
	Network   NetworkConfig   `yaml:"network"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Startup   StartupConfig   `yaml:"startup"`
	EventSync EventSyncConfig `yaml:"event_sync"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	PubSub    PubSubConfig    `yaml:"pubsub"`
}

// intOrDefault keeps a value the file already set; zero means unset.
func intOrDefault(value, defaultValue int) int {
	if value == 0 {
		return defaultValue
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// assignDefaultConfigValues overlays env vars on top of the parsed file and
// fills whatever neither the file nor the environment set. File values are
// always the env lookup's default so they survive when the env var is absent.
// nolint: funlen
func assignDefaultConfigValues(cfg *AppConfig) *AppConfig {

	// server config defaults
	cfg.Server.Port = GetEnvOrDefaultAsInt("SERVER_PORT", intOrDefault(cfg.Server.Port, 8080))

	// log config defaults
	cfg.Logging.LogLevel = GetEnvOrDefaultAsString("LOGGING_LEVEL", cfg.Logging.LogLevel)

	// network config defaults
	cfg.Network.ChainID = GetEnvOrDefaultAsInt64("CHAIN_ID", cfg.Network.ChainID)
	cfg.Network.RPCURL = GetEnvOrDefaultAsString("CHAIN_RPC_URL", cfg.Network.RPCURL)
	cfg.Network.ContractAddress = GetEnvOrDefaultAsString("CONTRACT_ADDRESS", cfg.Network.ContractAddress)
	cfg.Network.GasLimit = GetEnvOrDefaultAsUint64("CHAIN_GAS_LIMIT", cfg.Network.GasLimit)
	cfg.Network.GasPriceWei = GetEnvOrDefaultAsInt64("CHAIN_GAS_PRICE_WEI", cfg.Network.GasPriceWei)
	cfg.Network.MaxRetryAttempts = GetEnvOrDefaultAsInt("CHAIN_MAX_RETRY_ATTEMPTS",
		intOrDefault(cfg.Network.MaxRetryAttempts, 3))
	cfg.Network.RetryDelaySeconds = GetEnvOrDefaultAsInt("CHAIN_RETRY_DELAY_SECONDS",
		intOrDefault(cfg.Network.RetryDelaySeconds, 2))
	cfg.Network.TxTimeoutMinutes = GetEnvOrDefaultAsInt("CHAIN_TX_TIMEOUT_MINUTES",
		intOrDefault(cfg.Network.TxTimeoutMinutes, 10))
	cfg.Network.RetryDelay = time.Duration(cfg.Network.RetryDelaySeconds) * time.Second
	cfg.Network.TxTimeout = time.Duration(cfg.Network.TxTimeoutMinutes) * time.Minute

	// monitor config defaults
	cfg.Monitor.PollIntervalSeconds = GetEnvOrDefaultAsInt("MONITOR_POLL_INTERVAL_SECONDS",
		intOrDefault(cfg.Monitor.PollIntervalSeconds, 10))
	cfg.Monitor.GracePeriodSeconds = GetEnvOrDefaultAsInt("MONITOR_GRACE_PERIOD_SECONDS",
		intOrDefault(cfg.Monitor.GracePeriodSeconds, 5))
	cfg.Monitor.PollInterval = time.Duration(cfg.Monitor.PollIntervalSeconds) * time.Second
	cfg.Monitor.GracePeriod = time.Duration(cfg.Monitor.GracePeriodSeconds) * time.Second

	// scoring config defaults
	if cfg.Scoring.BaseInterestRate == 0 {
		cfg.Scoring.BaseInterestRate = 13.5
	}
	if cfg.Scoring.DefaultTermMonths == 0 {
		cfg.Scoring.DefaultTermMonths = 12
	}

	// startup config defaults
	cfg.Startup.BootstrapAttempts = GetEnvOrDefaultAsInt("STARTUP_BOOTSTRAP_ATTEMPTS",
		intOrDefault(cfg.Startup.BootstrapAttempts, 3))
	cfg.Startup.BootstrapDelaySeconds = GetEnvOrDefaultAsInt("STARTUP_BOOTSTRAP_DELAY_SECONDS",
		intOrDefault(cfg.Startup.BootstrapDelaySeconds, 2))
	cfg.Startup.BootstrapDelay = time.Duration(cfg.Startup.BootstrapDelaySeconds) * time.Second
	cfg.Startup.DemoBorrowerNID = GetEnvOrDefaultAsString("STARTUP_DEMO_BORROWER_NID", cfg.Startup.DemoBorrowerNID)

	// event sync defaults
	cfg.EventSync.PollIntervalSeconds = GetEnvOrDefaultAsInt("EVENT_SYNC_POLL_INTERVAL_SECONDS",
		intOrDefault(cfg.EventSync.PollIntervalSeconds, 10))
	cfg.EventSync.PollInterval = time.Duration(cfg.EventSync.PollIntervalSeconds) * time.Second
	if cfg.EventSync.WorkerCount == 0 {
		cfg.EventSync.WorkerCount = 4
	}

	// MongoDB config defaults
	cfg.Mongo.URI = GetEnvOrDefaultAsString("MONGO_URI", cfg.Mongo.URI)
	cfg.Mongo.DBName = GetEnvOrDefaultAsString("MONGO_DB_NAME", cfg.Mongo.DBName)
	cfg.Mongo.Username = GetEnvOrDefaultAsString("MONGO_USERNAME", cfg.Mongo.Username)
	cfg.Mongo.Password = GetEnvOrDefaultAsString("MONGO_PASSWORD", cfg.Mongo.Password)
	cfg.Mongo.MaxPoolSize = GetEnvOrDefaultAsUint64("MONGO_MAX_POOL_SIZE", cfg.Mongo.MaxPoolSize)
	cfg.Mongo.MinPoolSize = GetEnvOrDefaultAsUint64("MONGO_MIN_POOL_SIZE", cfg.Mongo.MinPoolSize)
	cfg.Mongo.MaxConnIdleMinutes = GetEnvOrDefaultAsInt("MONGO_MAX_CONN_IDLE_MINUTES",
		intOrDefault(cfg.Mongo.MaxConnIdleMinutes, 30))
	cfg.Mongo.ConnectTimeoutSeconds = GetEnvOrDefaultAsInt("MONGO_CONNECT_TIMEOUT_SECONDS",
		intOrDefault(cfg.Mongo.ConnectTimeoutSeconds, 10))
	cfg.Mongo.MaxConnIdleTime = time.Duration(cfg.Mongo.MaxConnIdleMinutes) * time.Minute
	cfg.Mongo.ConnectTimeout = time.Duration(cfg.Mongo.ConnectTimeoutSeconds) * time.Second

	// Redis config defaults
	cfg.Redis.Addr = GetEnvOrDefaultAsString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = GetEnvOrDefaultAsString("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = GetEnvOrDefaultAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.EnableTLS = GetEnvOrDefaultAsInt("REDIS_ENABLE_TLS", boolToInt(cfg.Redis.EnableTLS)) == 1
	cfg.Redis.ConnectTimeoutSeconds = GetEnvOrDefaultAsInt("REDIS_CONNECT_TIMEOUT_SECONDS",
		intOrDefault(cfg.Redis.ConnectTimeoutSeconds, 10))
	cfg.Redis.ConnectTimeout = time.Duration(cfg.Redis.ConnectTimeoutSeconds) * time.Second

	// Kafka config defaults
	cfg.Kafka.Server = GetEnvOrDefaultAsString("KAFKA_SERVER", cfg.Kafka.Server)
	cfg.Kafka.LoanTopic = GetEnvOrDefaultAsString("KAFKA_LOAN_TOPIC", cfg.Kafka.LoanTopic)
	cfg.Kafka.SecurityProtocol = GetEnvOrDefaultAsString("KAFKA_SECURITY_PROTOCOL", cfg.Kafka.SecurityProtocol)
	cfg.Kafka.SASLMechanism = GetEnvOrDefaultAsString("KAFKA_SASL_MECHANISM", cfg.Kafka.SASLMechanism)
	cfg.Kafka.SASLUsername = GetEnvOrDefaultAsString("KAFKA_SASL_USERNAME", cfg.Kafka.SASLUsername)
	cfg.Kafka.SASLPassword = GetEnvOrDefaultAsString("KAFKA_SASL_PASSWORD", cfg.Kafka.SASLPassword)
	cfg.Kafka.ClientID = GetEnvOrDefaultAsString("KAFKA_CLIENT_ID", cfg.Kafka.ClientID)

	// PubSub config defaults
	cfg.PubSub.ProjectID = GetEnvOrDefaultAsString("PROJECT_ID", cfg.PubSub.ProjectID)
	cfg.PubSub.NotificationTopic = GetEnvOrDefaultAsString("PUBSUB_NOTIFICATION_TOPIC", cfg.PubSub.NotificationTopic)

	return cfg
}

// LoadFromConfigFilePath loads and parses the config file into AppConfig.
func LoadFromConfigFilePath(configPath string) (*AppConfig, error) {

	// #nosec G304: configPath comes from deployment env, not request input
	data, err := os.ReadFile(configPath)
	if err != nil {
		logger.Error("Failed to read config file", err, slog.String("path", configPath))
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("Failed to unmarshal config", err)
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	defaultCfg := assignDefaultConfigValues(&cfg)

	if err := validateConfig(defaultCfg); err != nil {
		logger.Error("Config validation failed", err)
		return nil, err
	}

	logger.Info("Configuration loaded successfully", slog.String("path", configPath))

	return defaultCfg, nil
}

func validateConfig(cfg *AppConfig) error {
	if err := ValidateNetworkConfig(cfg.Network); err != nil {
		return err
	}
	if err := validateMonitorConfig(cfg.Monitor); err != nil {
		return err
	}
	if err := validateScoringConfig(cfg.Scoring); err != nil {
		return err
	}
	return nil
}

// zeroAddress is never a deployed contract.
const zeroAddress = "0x0000000000000000000000000000000000000000"

// ValidateNetworkConfig rejects unusable or placeholder chain settings before
// the service attempts a connection. Exported so the startup orchestrator can
// run it as its first phase.
func ValidateNetworkConfig(network NetworkConfig) error {
	if network.ChainID <= 0 {
		return fmt.Errorf("network.chain_id must be positive, got %d", network.ChainID)
	}

	if network.RPCURL == "" {
		return fmt.Errorf("network.rpc_url must be set")
	}
	if !strings.HasPrefix(network.RPCURL, "http://") &&
		!strings.HasPrefix(network.RPCURL, "https://") &&
		!strings.HasPrefix(network.RPCURL, "ws://") &&
		!strings.HasPrefix(network.RPCURL, "wss://") {
		return fmt.Errorf("network.rpc_url must be an http(s) or ws(s) URL, got %q", network.RPCURL)
	}
	if isPlaceholder(network.RPCURL) {
		return fmt.Errorf("network.rpc_url is a placeholder value: %q", network.RPCURL)
	}

	if !isHexAddress(network.ContractAddress) {
		return fmt.Errorf("network.contract_address must be a 0x-prefixed 40-hex-char address, got %q",
			network.ContractAddress)
	}
	if network.ContractAddress == zeroAddress || isPlaceholder(network.ContractAddress) {
		return fmt.Errorf("network.contract_address is a placeholder value: %q", network.ContractAddress)
	}

	if network.GasLimit == 0 {
		return fmt.Errorf("network.gas_limit must be positive")
	}
	if network.MaxRetryAttempts < 1 || network.MaxRetryAttempts > 10 {
		return fmt.Errorf("network.max_retry_attempts must be between 1 and 10, got %d", network.MaxRetryAttempts)
	}
	if network.RetryDelay < time.Second || network.RetryDelay > 30*time.Second {
		return fmt.Errorf("network.retry_delay_seconds must be between 1 and 30 seconds, got %v", network.RetryDelay)
	}
	if network.TxTimeout < time.Minute || network.TxTimeout > time.Hour {
		return fmt.Errorf("network.tx_timeout_minutes must be between 1 and 60 minutes, got %v", network.TxTimeout)
	}

	return nil
}

func validateMonitorConfig(monitor MonitorConfig) error {
	if monitor.PollInterval < time.Second || monitor.PollInterval > time.Minute {
		return fmt.Errorf("monitor.poll_interval_seconds must be between 1 and 60 seconds, got %v", monitor.PollInterval)
	}
	if monitor.GracePeriod < time.Second || monitor.GracePeriod > time.Minute {
		return fmt.Errorf("monitor.grace_period_seconds must be between 1 and 60 seconds, got %v", monitor.GracePeriod)
	}
	return nil
}

func validateScoringConfig(scoring ScoringConfig) error {
	if scoring.BaseInterestRate <= 0 || scoring.BaseInterestRate > 100 {
		return fmt.Errorf("scoring.base_interest_rate must be between 0 and 100, got %v", scoring.BaseInterestRate)
	}
	return nil
}

func isPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	return strings.Contains(upper, "YOUR_") ||
		strings.Contains(upper, "CHANGEME") ||
		strings.Contains(upper, "EXAMPLE.COM") ||
		strings.Contains(upper, "<") // templated but never filled
}

func isHexAddress(value string) bool {
	if len(value) != 42 || !strings.HasPrefix(value, "0x") {
		return false
	}
	for _, c := range value[2:] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// GetEnvOrDefaultAsInt returns the value of the given env variable
// as an int or the default value if not set or invalid.
func GetEnvOrDefaultAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return int(value)
}

// GetEnvOrDefaultAsString returns the value of the given env variable or the default value if not set.
func GetEnvOrDefaultAsString(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		if val != "" {
			return val
		}
	}
	return defaultVal
}

// LoadFromConfig resolves the config file path from the environment and loads it.
func LoadFromConfig() (*AppConfig, error) {
	configPath := GetEnvOrDefaultAsString("CONFIG_PATH", "configs/config.yaml")

	cfg, err := LoadFromConfigFilePath(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	return cfg, nil
}

func GetEnvOrDefaultAsUint64(key string, defaultValue uint64) uint64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func GetEnvOrDefaultAsInt64(key string, defaultValue int64) int64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
