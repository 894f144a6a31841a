// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package markets

import (
	"time"

	"code.futarchyprotocol.io/futarchy/config/encoding"
	"code.futarchyprotocol.io/futarchy/logging"
)

const namedLogger = "markets"

// Config represents the configuration of the markets engine.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// MinTradingPeriod and MaxTradingPeriod bound how long a deployed
	// market pair can stay open for trading.
	MinTradingPeriod encoding.Duration `long:"min-trading-period"`
	MaxTradingPeriod encoding.Duration `long:"max-trading-period"`

	// EnforceNullification rejects trades on markets or from parties the
	// nullification registry flags. Off by default, hosts without a
	// registry simply never flag anything.
	EnforceNullification encoding.Bool `long:"enforce-nullification"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:                encoding.LogLevel{Level: logging.InfoLevel},
		MinTradingPeriod:     encoding.Duration{Duration: 48 * time.Hour},
		MaxTradingPeriod:     encoding.Duration{Duration: 21 * 24 * time.Hour},
		EnforceNullification: false,
	}
}
