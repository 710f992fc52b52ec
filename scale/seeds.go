// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package scale

import (
	"encoding/binary"
	"io"
)

var (
	StakingSeed = []byte("staking")
	PoolSeed    = []byte("pool")
	ReceiptSeed = []byte("receipt")

	addressDomain = []byte("scale-staking-address")
)

// DeriveAddress returns the deterministic record address for the given seeds.
// Seeds are length prefixed so that different splits never collide.
func DeriveAddress(seeds ...[]byte) Address {
	return Address(Blake2bFn(func(w io.Writer) {
		var l [4]byte
		for _, seed := range seeds {
			binary.LittleEndian.PutUint32(l[:], uint32(len(seed)))
			w.Write(l[:])
			w.Write(seed)
		}
		w.Write(addressDomain)
	}))
}

// StakeAccountAddress returns the address of the stake account owned by market.
func StakeAccountAddress(market Address) Address {
	return DeriveAddress(market.Bytes(), StakingSeed)
}

// StakingPoolAddress returns the address of the id-th pool of a stake account.
func StakingPoolAddress(stakeAccount Address, id uint32) Address {
	var idBytes [4]byte
	binary.LittleEndian.PutUint32(idBytes[:], id)
	return DeriveAddress(stakeAccount.Bytes(), idBytes[:], PoolSeed)
}

// StakingReceiptAddress returns the address of the receipt of depositor in pool.
func StakingReceiptAddress(pool Address, depositor Address) Address {
	return DeriveAddress(pool.Bytes(), depositor.Bytes(), ReceiptSeed)
}
