// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/scalemarket/staking/runtime"
	"github.com/scalemarket/staking/scale"
	"github.com/scalemarket/staking/staking/account"
	"github.com/scalemarket/staking/staking/duration"
	"github.com/scalemarket/staking/staking/pool"
	"github.com/scalemarket/staking/staking/rate"
	"github.com/scalemarket/staking/staking/receipt"
)

type CreateAccount struct {
	Owner scale.Address `json:"owner"`
}

type AddStakingPool struct {
	Duration       duration.Duration    `json:"duration"`
	RedeemDuration duration.Duration    `json:"redeemDuration"`
	ProfitRate     rate.Rate            `json:"profitRate"`
	StakeRate      rate.Rate            `json:"stakeRate"`
	RedeemRate     rate.Rate            `json:"redeemRate"`
	Start          int64                `json:"start"`
	Funding        *math.HexOrDecimal64 `json:"funding,omitempty"`
}

func (a *AddStakingPool) params() pool.Params {
	p := pool.Params{
		Duration:       a.Duration,
		RedeemDuration: a.RedeemDuration,
		ProfitRate:     a.ProfitRate,
		StakeRate:      a.StakeRate,
		RedeemRate:     a.RedeemRate,
		Start:          a.Start,
	}
	if a.Funding != nil {
		f := uint64(*a.Funding)
		p.Funding = &f
	}
	return p
}

type InitReceipt struct {
	Depositor scale.Address `json:"depositor"`
}

type Stake struct {
	Amount *math.HexOrDecimal64 `json:"amount"`
}

type Account struct {
	Address  scale.Address        `json:"address"`
	Owner    scale.Address        `json:"owner"`
	Status   string               `json:"status"`
	Stakings uint32               `json:"stakings"`
	Amount   *math.HexOrDecimal64 `json:"amount"`
	Redeem   *math.HexOrDecimal64 `json:"redeem"`
}

func convertAccount(addr scale.Address, acc *account.Account) *Account {
	return &Account{
		Address:  addr,
		Owner:    acc.Owner,
		Status:   acc.Status.String(),
		Stakings: acc.Stakings,
		Amount:   hexOrDecimal(acc.Amount),
		Redeem:   hexOrDecimal(acc.Redeem),
	}
}

type Pool struct {
	Address        scale.Address        `json:"address"`
	ID             uint32               `json:"id"`
	Status         string               `json:"status"`
	Amount         *math.HexOrDecimal64 `json:"amount"`
	Funding        *math.HexOrDecimal64 `json:"funding"`
	CreatedAt      int64                `json:"createdAt"`
	Start          int64                `json:"start"`
	StopAt         int64                `json:"stopAt"`
	Duration       duration.Duration    `json:"duration"`
	RedeemDuration duration.Duration    `json:"redeemDuration"`
	ProfitRate     rate.Rate            `json:"profitRate"`
	StakeRate      rate.Rate            `json:"stakeRate"`
	RedeemRate     rate.Rate            `json:"redeemRate"`
}

func convertPool(addr scale.Address, p *pool.Pool) *Pool {
	out := &Pool{
		Address:        addr,
		ID:             p.ID,
		Status:         p.Status.String(),
		Amount:         hexOrDecimal(p.Amount),
		CreatedAt:      p.CreatedAt,
		Start:          p.Start,
		StopAt:         p.StopAt(),
		Duration:       p.Duration,
		RedeemDuration: p.RedeemDuration,
		ProfitRate:     p.ProfitRate,
		StakeRate:      p.StakeRate,
		RedeemRate:     p.RedeemRate,
	}
	if p.Funding != nil {
		out.Funding = hexOrDecimal(*p.Funding)
	}
	return out
}

type Receipt struct {
	Address      scale.Address        `json:"address"`
	Owner        scale.Address        `json:"owner"`
	StakingPool  scale.Address        `json:"stakingPool"`
	Amount       *math.HexOrDecimal64 `json:"amount"`
	RedeemableAt *int64               `json:"redeemableAt"`
	Redeemable   bool                 `json:"redeemable"`
}

func convertReceipt(addr scale.Address, r *receipt.Receipt, now int64) *Receipt {
	return &Receipt{
		Address:      addr,
		Owner:        r.Owner,
		StakingPool:  r.StakingPool,
		Amount:       hexOrDecimal(r.Amount),
		RedeemableAt: r.RedeemableAt,
		Redeemable:   r.IsRedeemable(now),
	}
}

// Output is the result of an executed operation.
type Output struct {
	Op           string               `json:"op"`
	Time         int64                `json:"time"`
	Address      scale.Address        `json:"address"`
	PoolID       uint32               `json:"poolId"`
	Amount       *math.HexOrDecimal64 `json:"amount,omitempty"`
	RedeemableAt *int64               `json:"redeemableAt,omitempty"`
	RentDeposit  *math.HexOrDecimal64 `json:"rentDeposit"`
	RentRefund   *math.HexOrDecimal64 `json:"rentRefund"`
}

func convertOutput(out *runtime.Output) *Output {
	o := &Output{
		Op:           out.Op,
		Time:         out.Time,
		Address:      out.Address,
		PoolID:       out.PoolID,
		RedeemableAt: out.RedeemableAt,
		RentDeposit:  hexOrDecimal(out.RentDeposit),
		RentRefund:   hexOrDecimal(out.RentRefund),
	}
	if out.Op == (runtime.ConfirmRedeemOp{}).Name() {
		o.Amount = hexOrDecimal(out.Amount)
	}
	return o
}

// Record is a raw stored record.
type Record struct {
	Address scale.Address `json:"address"`
	Kind    string        `json:"kind"`
	Data    string        `json:"data"`
}

func hexOrDecimal(v uint64) *math.HexOrDecimal64 {
	h := math.HexOrDecimal64(v)
	return &h
}
