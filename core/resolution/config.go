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

package resolution

import (
	"time"

	"code.futarchyprotocol.io/futarchy/config/encoding"
	"code.futarchyprotocol.io/futarchy/libs/num"
	"code.futarchyprotocol.io/futarchy/logging"
)

const namedLogger = "resolution"

// Config represents the configuration of the resolution engine.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// ReportBond and ChallengeBond are the exact amounts a report or
	// challenge has to post, over- and underpayment are both rejected.
	ReportBond    encoding.Uint `long:"report-bond"`
	ChallengeBond encoding.Uint `long:"challenge-bond"`

	// ChallengeWindow is how long after a report a challenge is
	// accepted. At the boundary the window counts as closed.
	ChallengeWindow encoding.Duration `long:"challenge-window"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:           encoding.LogLevel{Level: logging.InfoLevel},
		ReportBond:      encoding.NewUint(num.NewUint(100)),
		ChallengeBond:   encoding.NewUint(num.NewUint(150)),
		ChallengeWindow: encoding.Duration{Duration: 48 * time.Hour},
	}
}
