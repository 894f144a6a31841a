//lint:file-ignore SA5008 duplicated struct tags are ok for config

package config

import (
	"os"
	"path/filepath"

	"code.futarchyprotocol.io/futarchy/core/broker"
	"code.futarchyprotocol.io/futarchy/core/capabilities"
	"code.futarchyprotocol.io/futarchy/core/collateral"
	"code.futarchyprotocol.io/futarchy/core/conditions"
	"code.futarchyprotocol.io/futarchy/core/governor"
	"code.futarchyprotocol.io/futarchy/core/markets"
	"code.futarchyprotocol.io/futarchy/core/metrics"
	"code.futarchyprotocol.io/futarchy/core/nullification"
	"code.futarchyprotocol.io/futarchy/core/prototime"
	"code.futarchyprotocol.io/futarchy/core/resolution"
	"code.futarchyprotocol.io/futarchy/core/treasury"
	"code.futarchyprotocol.io/futarchy/logging"

	"github.com/BurntSushi/toml"
)

// Config ties together all other application configuration types.
type Config struct {
	Broker        broker.Config        `group:"Broker" namespace:"broker"`
	Capabilities  capabilities.Config  `group:"Capabilities" namespace:"capabilities"`
	Collateral    collateral.Config    `group:"Collateral" namespace:"collateral"`
	Conditions    conditions.Config    `group:"Conditions" namespace:"conditions"`
	Governor      governor.Config      `group:"Governor" namespace:"governor"`
	Logging       logging.Config       `group:"Logging" namespace:"logging"`
	Markets       markets.Config       `group:"Markets" namespace:"markets"`
	Metrics       metrics.Config       `group:"Metrics" namespace:"metrics"`
	Nullification nullification.Config `group:"Nullification" namespace:"nullification"`
	Resolution    resolution.Config    `group:"Resolution" namespace:"resolution"`
	Time          prototime.Config     `group:"Time" namespace:"time"`
	Treasury      treasury.Config      `group:"Treasury" namespace:"treasury"`
}

// NewDefaultConfig returns a set of default configs for all protocol
// packages, as specified at the per package config level.
func NewDefaultConfig() Config {
	return Config{
		Broker:        broker.NewDefaultConfig(),
		Capabilities:  capabilities.NewDefaultConfig(),
		Collateral:    collateral.NewDefaultConfig(),
		Conditions:    conditions.NewDefaultConfig(),
		Governor:      governor.NewDefaultConfig(),
		Logging:       *logging.NewDefaultConfig(),
		Markets:       markets.NewDefaultConfig(),
		Metrics:       metrics.NewDefaultConfig(),
		Nullification: nullification.NewDefaultConfig(),
		Resolution:    resolution.NewDefaultConfig(),
		Time:          prototime.NewDefaultConfig(),
		Treasury:      treasury.NewDefaultConfig(),
	}
}

// Read loads the configuration file from a root path, layering it over
// the defaults.
func Read(rootPath string) (*Config, error) {
	path := filepath.Join(rootPath, configFileName)
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := NewDefaultConfig()
	if _, err := toml.Decode(string(buf), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
