package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validNetwork() NetworkConfig {
	return NetworkConfig{
		ChainID:          1337,
		RPCURL:           "http://localhost:8545",
		ContractAddress:  "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		GasLimit:         3000000,
		MaxRetryAttempts: 3,
		RetryDelay:       2 * time.Second,
		TxTimeout:        10 * time.Minute,
	}
}

func TestValidateNetworkConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(n *NetworkConfig)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(n *NetworkConfig) {},
		},
		{
			name:    "zero chain id",
			mutate:  func(n *NetworkConfig) { n.ChainID = 0 },
			wantErr: "chain_id",
		},
		{
			name:    "missing rpc url",
			mutate:  func(n *NetworkConfig) { n.RPCURL = "" },
			wantErr: "rpc_url",
		},
		{
			name:    "rpc url without scheme",
			mutate:  func(n *NetworkConfig) { n.RPCURL = "localhost:8545" },
			wantErr: "rpc_url",
		},
		{
			name:    "placeholder rpc url",
			mutate:  func(n *NetworkConfig) { n.RPCURL = "https://YOUR_RPC_ENDPOINT" },
			wantErr: "placeholder",
		},
		{
			name:    "example domain rpc url",
			mutate:  func(n *NetworkConfig) { n.RPCURL = "https://rpc.example.com" },
			wantErr: "placeholder",
		},
		{
			name:    "malformed contract address",
			mutate:  func(n *NetworkConfig) { n.ContractAddress = "0x123" },
			wantErr: "contract_address",
		},
		{
			name: "zero contract address",
			mutate: func(n *NetworkConfig) {
				n.ContractAddress = "0x0000000000000000000000000000000000000000"
			},
			wantErr: "placeholder",
		},
		{
			name:    "zero gas limit",
			mutate:  func(n *NetworkConfig) { n.GasLimit = 0 },
			wantErr: "gas_limit",
		},
		{
			name:    "retry attempts out of range",
			mutate:  func(n *NetworkConfig) { n.MaxRetryAttempts = 11 },
			wantErr: "max_retry_attempts",
		},
		{
			name:    "retry delay too long",
			mutate:  func(n *NetworkConfig) { n.RetryDelay = time.Minute },
			wantErr: "retry_delay",
		},
		{
			name:    "tx timeout too short",
			mutate:  func(n *NetworkConfig) { n.TxTimeout = 30 * time.Second },
			wantErr: "tx_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			network := validNetwork()
			tt.mutate(&network)

			err := ValidateNetworkConfig(network)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromConfigFilePath(t *testing.T) {
	content := `
server:
  port: 9090
logging:
  level: debug
network:
  chain_id: 1337
  rpc_url: http://localhost:8545
  contract_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
  gas_limit: 3000000
scoring:
  base_interest_rate: 12.0
  default_term_months: 24
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFromConfigFilePath(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
	assert.Equal(t, int64(1337), cfg.Network.ChainID)
	assert.Equal(t, 12.0, cfg.Scoring.BaseInterestRate)
	assert.Equal(t, uint64(24), cfg.Scoring.DefaultTermMonths)

	// env-driven defaults fill in what the file omits
	assert.Equal(t, 3, cfg.Network.MaxRetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.Network.RetryDelay)
	assert.Equal(t, 10*time.Minute, cfg.Network.TxTimeout)
	assert.Equal(t, 10*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.Monitor.GracePeriod)
}

func TestLoadFromConfigFilePath_FileValuesSurviveDefaults(t *testing.T) {
	content := `
server:
  port: 9999
network:
  chain_id: 1337
  rpc_url: http://localhost:8545
  contract_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
  gas_limit: 3000000
  max_retry_attempts: 7
  retry_delay_seconds: 5
  tx_timeout_minutes: 20
monitor:
  poll_interval_seconds: 15
  grace_period_seconds: 8
startup:
  bootstrap_attempts: 5
  bootstrap_delay_seconds: 4
event_sync:
  poll_interval_seconds: 30
mongo:
  max_conn_idle_minutes: 12
  connect_timeout_seconds: 6
redis:
  connect_timeout_seconds: 3
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFromConfigFilePath(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Network.MaxRetryAttempts)
	assert.Equal(t, 5*time.Second, cfg.Network.RetryDelay)
	assert.Equal(t, 20*time.Minute, cfg.Network.TxTimeout)
	assert.Equal(t, 15*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, 8*time.Second, cfg.Monitor.GracePeriod)
	assert.Equal(t, 5, cfg.Startup.BootstrapAttempts)
	assert.Equal(t, 4*time.Second, cfg.Startup.BootstrapDelay)
	assert.Equal(t, 30*time.Second, cfg.EventSync.PollInterval)
	assert.Equal(t, 12*time.Minute, cfg.Mongo.MaxConnIdleTime)
	assert.Equal(t, 6*time.Second, cfg.Mongo.ConnectTimeout)
	assert.Equal(t, 3*time.Second, cfg.Redis.ConnectTimeout)
}

func TestLoadFromConfigFilePath_EnvOverridesFile(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("CHAIN_MAX_RETRY_ATTEMPTS", "4")
	t.Setenv("CHAIN_RETRY_DELAY_SECONDS", "9")

	content := `
server:
  port: 9999
network:
  chain_id: 1337
  rpc_url: http://localhost:8545
  contract_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
  gas_limit: 3000000
  max_retry_attempts: 7
  retry_delay_seconds: 5
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFromConfigFilePath(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Network.MaxRetryAttempts)
	assert.Equal(t, 9*time.Second, cfg.Network.RetryDelay)
}

func TestLoadFromConfigFilePath_RejectsPlaceholderConfig(t *testing.T) {
	content := `
network:
  chain_id: 1337
  rpc_url: https://YOUR_RPC_ENDPOINT
  contract_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
  gas_limit: 3000000
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := LoadFromConfigFilePath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placeholder")
}

func TestLoadFromConfigFilePath_MissingFile(t *testing.T) {
	_, err := LoadFromConfigFilePath(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("CONFIG_TEST_INT", "42")
	t.Setenv("CONFIG_TEST_BAD_INT", "not-a-number")
	t.Setenv("CONFIG_TEST_STRING", "value")
	t.Setenv("CONFIG_TEST_EMPTY", "")

	assert.Equal(t, 42, GetEnvOrDefaultAsInt("CONFIG_TEST_INT", 7))
	assert.Equal(t, 7, GetEnvOrDefaultAsInt("CONFIG_TEST_BAD_INT", 7))
	assert.Equal(t, 7, GetEnvOrDefaultAsInt("CONFIG_TEST_ABSENT", 7))
	assert.Equal(t, "value", GetEnvOrDefaultAsString("CONFIG_TEST_STRING", "fallback"))
	assert.Equal(t, "fallback", GetEnvOrDefaultAsString("CONFIG_TEST_EMPTY", "fallback"))
	assert.Equal(t, uint64(42), GetEnvOrDefaultAsUint64("CONFIG_TEST_INT", 7))
	assert.Equal(t, int64(42), GetEnvOrDefaultAsInt64("CONFIG_TEST_INT", 7))
}
