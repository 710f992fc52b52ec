// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/scalemarket/staking/staking/duration"
	"github.com/scalemarket/staking/staking/layout"
	"github.com/scalemarket/staking/staking/rate"
)

// Size is the persisted size of a pool record.
const Size = 1 + 4 + 8 + layout.OptionSize + 8 + 8 + 1 + 1 + rate.Size*3

type Status uint8

const (
	StatusFunding Status = iota
	StatusStaking
	StatusRedeeming
	StatusFrozen
)

func (s Status) String() string {
	switch s {
	case StatusFunding:
		return "funding"
	case StatusStaking:
		return "staking"
	case StatusRedeeming:
		return "redeeming"
	case StatusFrozen:
		return "frozen"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Pool is one funding and staking round of a stake account.
type Pool struct {
	Status         Status
	ID             uint32
	Amount         uint64
	Funding        *uint64 // activation target, nil when the pool starts staking immediately
	CreatedAt      int64
	Start          int64
	Duration       duration.Duration
	RedeemDuration duration.Duration
	ProfitRate     rate.Rate
	StakeRate      rate.Rate
	RedeemRate     rate.Rate
}

// Params are the caller supplied pool parameters.
type Params struct {
	Duration       duration.Duration
	RedeemDuration duration.Duration
	ProfitRate     rate.Rate
	StakeRate      rate.Rate
	RedeemRate     rate.Rate
	Start          int64
	Funding        *uint64
}

// FromParams builds a pool from params. The redeem rate is always Full.
func FromParams(id uint32, params *Params, now int64) *Pool {
	status := StatusStaking
	var funding *uint64
	if params.Funding != nil {
		status = StatusFunding
		f := *params.Funding
		funding = &f
	}
	return &Pool{
		Status:         status,
		ID:             id,
		Funding:        funding,
		CreatedAt:      now,
		Start:          params.Start,
		Duration:       params.Duration,
		RedeemDuration: params.RedeemDuration,
		ProfitRate:     params.ProfitRate,
		StakeRate:      params.StakeRate,
		RedeemRate:     rate.Full,
	}
}

// StopAt returns the end of the staking period. Pools are only added with a
// start that keeps it in range.
func (p *Pool) StopAt() int64 {
	return p.Start + int64(p.Duration.Seconds())
}

// IsStakable reports whether a depositor holding origin may add in without
// their share exceeding the stake rate of the pool total.
func (p *Pool) IsStakable(origin, in uint64) bool {
	lhs := saturatingMul(saturatingAdd(in, origin, math.MaxUint64), uint64(p.StakeRate.Denominator), math.MaxUint64)
	rhs := saturatingMul(saturatingAdd(p.Amount, in, 0), uint64(p.StakeRate.Numerator), 0)
	return lhs <= rhs
}

// saturatingAdd returns a+b, or sat on overflow.
func saturatingAdd(a, b, sat uint64) uint64 {
	sum := a + b
	if sum < a {
		return sat
	}
	return sum
}

// saturatingMul returns a*b, or sat on overflow.
func saturatingMul(a, b, sat uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	prod := a * b
	if prod/b != a {
		return sat
	}
	return prod
}

func (p *Pool) MarshalBinary() ([]byte, error) {
	if !p.Duration.IsValid() || !p.RedeemDuration.IsValid() {
		return nil, errors.New("unknown duration variant")
	}
	b := make([]byte, 0, Size)
	b = append(b, byte(p.Status))
	b = layout.AppendUint32(b, p.ID)
	b = layout.AppendUint64(b, p.Amount)
	b = layout.AppendOptionUint64(b, p.Funding)
	b = layout.AppendUint64(b, uint64(p.CreatedAt))
	b = layout.AppendUint64(b, uint64(p.Start))
	b = append(b, byte(p.Duration), byte(p.RedeemDuration))
	b = p.ProfitRate.Append(b)
	b = p.StakeRate.Append(b)
	b = p.RedeemRate.Append(b)
	return b, nil
}

func (p *Pool) UnmarshalBinary(data []byte) error {
	if err := layout.CheckSize(data, Size, "staking pool"); err != nil {
		return err
	}
	r := layout.NewReader(data)
	status := Status(r.Byte())
	if status > StatusFrozen {
		return errors.Errorf("unknown staking pool status %d", status)
	}
	id := r.Uint32()
	amount := r.Uint64()
	funding, err := r.OptionUint64()
	if err != nil {
		return errors.Wrap(err, "funding")
	}
	createdAt := r.Int64()
	start := r.Int64()
	dur, err := duration.FromByte(r.Byte())
	if err != nil {
		return err
	}
	redeemDur, err := duration.FromByte(r.Byte())
	if err != nil {
		return err
	}

	*p = Pool{
		Status:         status,
		ID:             id,
		Amount:         amount,
		Funding:        funding,
		CreatedAt:      createdAt,
		Start:          start,
		Duration:       dur,
		RedeemDuration: redeemDur,
		ProfitRate:     rate.Decode(r.Next(rate.Size)),
		StakeRate:      rate.Decode(r.Next(rate.Size)),
		RedeemRate:     rate.Decode(r.Next(rate.Size)),
	}
	return nil
}
