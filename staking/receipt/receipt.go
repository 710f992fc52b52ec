// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package receipt

import (
	"github.com/pkg/errors"

	"github.com/scalemarket/staking/scale"
	"github.com/scalemarket/staking/staking/layout"
)

// Size is the persisted size of a receipt record, the trailing option holds Redeemable.
const Size = 32 + 32 + 8 + layout.OptionSize + layout.OptionSize

// Receipt records what one depositor committed to one pool.
type Receipt struct {
	Owner        scale.Address
	StakingPool  scale.Address
	Amount       uint64
	RedeemableAt *int64  // nil until redeem is requested
	Redeemable   *uint64 // never written
}

// IsRedeemable reports whether the redeem cooldown has passed at now.
func (r *Receipt) IsRedeemable(now int64) bool {
	return r.RedeemableAt != nil && now >= *r.RedeemableAt
}

func (r *Receipt) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, Size)
	b = append(b, r.Owner[:]...)
	b = append(b, r.StakingPool[:]...)
	b = layout.AppendUint64(b, r.Amount)
	b = layout.AppendOptionInt64(b, r.RedeemableAt)
	b = layout.AppendOptionUint64(b, r.Redeemable)
	return b, nil
}

func (r *Receipt) UnmarshalBinary(data []byte) error {
	if err := layout.CheckSize(data, Size, "staking receipt"); err != nil {
		return err
	}
	rd := layout.NewReader(data)
	owner := scale.BytesToAddress(rd.Next(32))
	pool := scale.BytesToAddress(rd.Next(32))
	amount := rd.Uint64()
	redeemableAt, err := rd.OptionInt64()
	if err != nil {
		return errors.Wrap(err, "redeemable at")
	}
	redeemable, err := rd.OptionUint64()
	if err != nil {
		return errors.Wrap(err, "redeemable")
	}
	*r = Receipt{
		Owner:        owner,
		StakingPool:  pool,
		Amount:       amount,
		RedeemableAt: redeemableAt,
		Redeemable:   redeemable,
	}
	return nil
}
