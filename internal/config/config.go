// Package config loads the engine's configuration with
// github.com/spf13/viper (spec.md §6.3): a YAML file merged with
// VOYAGER_-prefixed environment overrides, the config-merge library the
// pack's cobra-based CLIs standardize on alongside spf13/cobra itself.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/cosmos/voyager-eureka/internal/message"
)

// Config is the top-level shape loaded from YAML/env.
type Config struct {
	LogLevel string                            `mapstructure:"log_level"`
	LogDev   bool                              `mapstructure:"log_dev"`
	Queue    QueueConfig                       `mapstructure:"queue"`
	Hasura   *HasuraConfig                     `mapstructure:"hasura"`
	Chains   map[string]ChainConfig            `mapstructure:"chain"`
	Commands CommandStreamConfig               `mapstructure:"commands"`
	Metrics  MetricsConfig                     `mapstructure:"metrics"`
}

// MetricsConfig configures the Prometheus /metrics endpoint (spec.md
// §6.5); ListenAddr defaults to ":9000" if left empty and Enabled is
// true.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// QueueConfig selects and configures the queue backing.
type QueueConfig struct {
	Kind        string `mapstructure:"kind"` // "in-memory" | "pg-queue"
	DatabaseURL string `mapstructure:"database_url"`
}

// HasuraConfig is nil (no archiving) unless the "hasura" section is
// present in config.
type HasuraConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	AdminToken string `mapstructure:"admin_token"`
}

// CommandStreamConfig configures the optional operator command surface
// (spec.md §6.1); left empty, the engine runs with chain ingress only.
type CommandStreamConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// ChainConfig carries the union of the EVM and Union/Cosmos fields
// (spec.md §6.3), disambiguated by Type.
type ChainConfig struct {
	Type                    string                  `mapstructure:"type"` // "evm" | "union"
	ChainID                 string                  `mapstructure:"chain_id"`
	CounterpartyLightClient message.LightClientKind `mapstructure:"-"`
	CounterpartyKind        string                  `mapstructure:"counterparty_light_client"`
	CounterpartyChainID     string                  `mapstructure:"counterparty_chain_id"`
	// ClientID is the client this chain already runs tracking its
	// counterparty (spec.md's two-chain topology creates exactly one
	// client pair per chain); CounterpartyClientID is the matching
	// client the counterparty chain runs tracking this one.
	ClientID string `mapstructure:"client_id"`

	// EVM fields.
	EthRPCURL         string `mapstructure:"eth_rpc_url"`
	BeaconRPCURL      string `mapstructure:"beacon_rpc_url"`
	IBCHandlerAddress string `mapstructure:"ibc_handler_address"`
	SignerKey         string `mapstructure:"signer_key"`

	// Union/Cosmos fields.
	RPCURL               string `mapstructure:"rpc_url"`
	GRPCURL               string `mapstructure:"grpc_url"`
	SignerMnemonic        string `mapstructure:"signer_mnemonic"`
	CounterpartyClientID  string `mapstructure:"counterparty_client_id"`
}

// lightClientKinds maps the config file's string names onto the closed
// LightClientKind enum; anything else is a config error.
var lightClientKinds = map[string]message.LightClientKind{
	"ethereum-mainnet": message.EthereumMainnet,
	"ethereum-minimal":  message.EthereumMinimal,
	"cometbls-mainnet":  message.CometblsMainnet,
	"cometbls-minimal":  message.CometblsMinimal,
}

// Load reads path (if non-empty) plus VOYAGER_-prefixed env overrides
// into a Config, and resolves each chain's counterparty_light_client
// string into the closed LightClientKind enum.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VOYAGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("queue.kind", "in-memory")
	v.SetDefault("metrics.listen_addr", ":9000")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	for name, chainCfg := range cfg.Chains {
		kind, ok := lightClientKinds[chainCfg.CounterpartyKind]
		if !ok {
			return nil, fmt.Errorf("config: chain %q: unknown counterparty_light_client %q", name, chainCfg.CounterpartyKind)
		}
		chainCfg.CounterpartyLightClient = kind
		cfg.Chains[name] = chainCfg
	}

	return &cfg, nil
}
