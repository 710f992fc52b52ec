// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"

	"github.com/scalemarket/staking/scale"
)

func RandAddress() (addr scale.Address) {
	rand.Read(addr[:])
	return
}

func RandBytes32() (b scale.Bytes32) {
	rand.Read(b[:])
	return
}
