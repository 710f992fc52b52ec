// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rate

import (
	"encoding/binary"
	"fmt"
)

// Size is the encoded size of a Rate.
const Size = 8

// Full is the 100% rate.
var Full = Rate{Numerator: 10000, Denominator: 10000}

// Rate is a fraction in (0, 1].
type Rate struct {
	Numerator   uint32 `json:"numerator"`
	Denominator uint32 `json:"denominator"`
}

func New(numerator, denominator uint32) Rate {
	return Rate{Numerator: numerator, Denominator: denominator}
}

func (r Rate) IsValid() bool {
	return r.Numerator > 0 && r.Denominator > 0 && r.Numerator <= r.Denominator
}

func (r Rate) String() string {
	return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
}

// Append appends the little-endian encoding of r to b.
func (r Rate) Append(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, r.Numerator)
	return binary.LittleEndian.AppendUint32(b, r.Denominator)
}

// Decode reads a rate from the first Size bytes of b.
func Decode(b []byte) Rate {
	return Rate{
		Numerator:   binary.LittleEndian.Uint32(b[0:4]),
		Denominator: binary.LittleEndian.Uint32(b[4:8]),
	}
}
