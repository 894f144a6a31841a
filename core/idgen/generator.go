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

package idgen

import (
	"encoding/hex"

	"code.futarchyprotocol.io/futarchy/libs/crypto"
)

// Generator no mutex required, the protocol runs operations
// deterministically and sequentially.
type Generator struct {
	nextIDBytes []byte
}

// New returns a deterministic id generator seeded with the given root
// id. The same root always yields the same id sequence.
func New(rootID string) *Generator {
	nextIDBytes, err := hex.DecodeString(rootID)
	if err != nil {
		panic("failed to create new deterministic id generator: " + err.Error())
	}

	return &Generator{
		nextIDBytes: nextIDBytes,
	}
}

func (g *Generator) NextID() string {
	if g == nil {
		panic("id generator instance is not initialised")
	}

	nextID := hex.EncodeToString(g.nextIDBytes)
	g.nextIDBytes = crypto.Hash(g.nextIDBytes)
	return nextID
}
