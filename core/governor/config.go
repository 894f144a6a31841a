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

package governor

import (
	"time"

	"code.futarchyprotocol.io/futarchy/config/encoding"
	"code.futarchyprotocol.io/futarchy/logging"
)

const namedLogger = "governor"

// Config represents the configuration of the governor engine.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// ReviewDelay is how long a submitted proposal rests before it
	// becomes reviewable.
	ReviewDelay encoding.Duration `long:"review-delay"`

	// TimelockDelay is how long an adopted proposal's treasury transfer
	// stays locked after resolution.
	TimelockDelay encoding.Duration `long:"timelock-delay"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:         encoding.LogLevel{Level: logging.InfoLevel},
		ReviewDelay:   encoding.Duration{Duration: 24 * time.Hour},
		TimelockDelay: encoding.Duration{Duration: 48 * time.Hour},
	}
}
