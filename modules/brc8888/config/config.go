package config

import (
	"time"

	"github.com/gaze-network/brc8888-indexer/internal/postgres"
)

type Config struct {
	Database    string          `mapstructure:"database"`     // Database to store events and checkpoints. (e.g. `postgres`, `badger`)
	APIHandlers []string        `mapstructure:"api_handlers"` // List of API handlers to enable. (e.g. `http`)
	Postgres    postgres.Config `mapstructure:"postgres"`
	Badger      BadgerConfig    `mapstructure:"badger"`

	OperationLog       OperationLogConfig `mapstructure:"operation_log"`
	CheckpointInterval uint64             `mapstructure:"checkpoint_interval"` // Number of operations between ledger checkpoints.

	// Protocol constants. Empty values fall back to the protocol defaults.
	GenesisTick             string `mapstructure:"genesis_tick"`
	DisableGenesis          bool   `mapstructure:"disable_genesis"`
	ProtocolTreasuryAddress string `mapstructure:"protocol_treasury_address"`
	ReducedPayload          bool   `mapstructure:"reduced_payload"`

	AddressResolver AddressResolverConfig `mapstructure:"address_resolver"`
	ReplayWorkers   int                   `mapstructure:"replay_workers"`
}

type BadgerConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

type OperationLogConfig struct {
	Path         string        `mapstructure:"path"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
}

type AddressResolverConfig struct {
	Type       string `mapstructure:"type"` // `bitcoin-node`, `mempool` or `none`
	CacheSize  int    `mapstructure:"cache_size"`
	MempoolURL string `mapstructure:"mempool_url"`
}
