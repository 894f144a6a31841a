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

package crypto

import (
	"encoding/hex"

	vgrand "code.futarchyprotocol.io/futarchy/libs/rand"

	"golang.org/x/crypto/sha3"
)

// Hash returns the sha3-256 digest of the given key.
func Hash(key []byte) []byte {
	hasher := sha3.New256()
	hasher.Write(key)
	return hasher.Sum(nil)
}

// HashStrToHex hashes a string and returns the result as a hex encoded
// string.
func HashStrToHex(s string) string {
	return hex.EncodeToString(Hash([]byte(s)))
}

// HashToHex hashes bytes and returns the result as a hex encoded string.
func HashToHex(data []byte) string {
	return hex.EncodeToString(Hash(data))
}

// RandomHash returns a new hash with random data, useful for tests that
// need realistic looking IDs.
func RandomHash() string {
	data := vgrand.RandomBytes(10)
	return hex.EncodeToString(Hash(data))
}
