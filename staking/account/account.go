// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package account

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/scalemarket/staking/scale"
	"github.com/scalemarket/staking/staking/layout"
)

// Size is the persisted size of an account record.
const Size = 1 + 32 + 4 + 8 + 8

type Status uint8

const (
	StatusUninitialized Status = iota
	StatusAvailable
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusAvailable:
		return "available"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Account is the per-market aggregate ledger.
type Account struct {
	Status   Status
	Owner    scale.Address
	Stakings uint32 // number of pools ever opened, next pool id
	Amount   uint64 // funds at risk across active pools
	Redeem   uint64 // funds pending redeem confirmation
}

func (a *Account) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, Size)
	b = append(b, byte(a.Status))
	b = append(b, a.Owner[:]...)
	b = binary.LittleEndian.AppendUint32(b, a.Stakings)
	b = binary.LittleEndian.AppendUint64(b, a.Amount)
	b = binary.LittleEndian.AppendUint64(b, a.Redeem)
	return b, nil
}

func (a *Account) UnmarshalBinary(data []byte) error {
	if err := layout.CheckSize(data, Size, "stake account"); err != nil {
		return err
	}
	r := layout.NewReader(data)
	status := Status(r.Byte())
	if status > StatusAvailable {
		return errors.Errorf("unknown stake account status %d", status)
	}
	a.Status = status
	a.Owner = scale.BytesToAddress(r.Next(32))
	a.Stakings = r.Uint32()
	a.Amount = r.Uint64()
	a.Redeem = r.Uint64()
	return nil
}
