package config

import (
	"fmt"
	"os"

	ouroboros "github.com/blinklabs-io/gouroboros"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Debug    DebugConfig    `yaml:"debug"`
	Submit   SubmitConfig   `yaml:"submit"`
	Storage  StorageConfig  `yaml:"storage"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Build    BuildConfig    `yaml:"build"`

	Network       string `yaml:"network" envconfig:"NETWORK"`
	ListenAddress string `yaml:"listenAddress" envconfig:"LISTEN_ADDRESS"`
	ListenPort    uint   `yaml:"port" envconfig:"PORT"`
	NetworkMagic  uint32
}

type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LOGGING_LEVEL"`
}

type DebugConfig struct {
	ListenAddress string `yaml:"address" envconfig:"DEBUG_ADDRESS"`
	ListenPort    uint   `yaml:"port" envconfig:"DEBUG_PORT"`
}

// SubmitConfig carries the submission fan-out's endpoint list, per
// §4.7/§6. Up to three endpoints are read from individual env vars
// rather than a list, matching the source's fixed TX_SUBMIT_ENDPOINT1..3
// naming.
type SubmitConfig struct {
	Endpoint1 string `yaml:"endpoint1" envconfig:"TX_SUBMIT_ENDPOINT1"`
	Endpoint2 string `yaml:"endpoint2" envconfig:"TX_SUBMIT_ENDPOINT2"`
	Endpoint3 string `yaml:"endpoint3" envconfig:"TX_SUBMIT_ENDPOINT3"`
	TimeoutMs uint   `yaml:"timeoutMs" envconfig:"TX_SUBMIT_TIMEOUT_MS"`
}

// Endpoints returns the configured, non-empty submission endpoint URLs.
func (s SubmitConfig) Endpoints() []string {
	var out []string
	for _, e := range []string{s.Endpoint1, s.Endpoint2, s.Endpoint3} {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

type StorageConfig struct {
	Directory string `yaml:"dir" envconfig:"STORAGE_DIR"`
}

// ProtocolConfig locates the protocol-parameter JSON file, per §6 and
// §9's cached-with-mtime-reload design note.
type ProtocolConfig struct {
	ParameterPath string `yaml:"parameterPath" envconfig:"CARDANO_PROTOCOL_PARAMETER_PATH"`
}

// LedgerConfig carries the Consumed-UTxO Ledger's Redis connection, per
// §4.6/§6.
type LedgerConfig struct {
	RedisURL string `yaml:"redisUrl" envconfig:"REDIS_DB_URL_UTXOMIND"`
	Cluster  bool   `yaml:"cluster" envconfig:"REDIS_CLUSTER"`
	TtlHours uint   `yaml:"ttlHours" envconfig:"LEDGER_TTL_HOURS"`
}

// BuildConfig carries build-time policy knobs, per §9's "overhead_pct
// should be tunable per deployment" open question.
type BuildConfig struct {
	OverheadPct  int `yaml:"overheadPct" envconfig:"BUILD_OVERHEAD_PCT"`
	BudgetSecs   int `yaml:"budgetSecs" envconfig:"BUILD_BUDGET_SECS"`
	ChainTimeout int `yaml:"chainTimeoutSecs" envconfig:"CHAIN_QUERY_TIMEOUT_SECS"`
}

// Singleton config instance with default values
var globalConfig = &Config{
	Network:    "mainnet",
	ListenPort: 3000,
	Logging: LoggingConfig{
		Level: "info",
	},
	Debug: DebugConfig{
		ListenAddress: "localhost",
		ListenPort:    0,
	},
	Storage: StorageConfig{
		Directory: "./.txbuildd",
	},
	Submit: SubmitConfig{
		TimeoutMs: 5_000,
	},
	Ledger: LedgerConfig{
		TtlHours: 24,
	},
	Build: BuildConfig{
		OverheadPct:  50,
		BudgetSecs:   30,
		ChainTimeout: 10,
	},
}

func Load(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %s", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %s", err)
		}
	}
	// Load config values from environment variables
	// We use "dummy" as the app name here to (mostly) prevent picking up env
	// vars that we hadn't explicitly specified in annotations above
	err := envconfig.Process("dummy", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %s", err)
	}
	// Populate network magic from network name
	network := ouroboros.NetworkByName(globalConfig.Network)
	if network == ouroboros.NetworkInvalid {
		return nil, fmt.Errorf("unknown network name: %s", globalConfig.Network)
	}
	globalConfig.NetworkMagic = network.NetworkMagic
	return globalConfig, nil
}

// Return global config instance
func GetConfig() *Config {
	return globalConfig
}
