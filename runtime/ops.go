// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"github.com/pkg/errors"

	"github.com/scalemarket/staking/scale"
	"github.com/scalemarket/staking/staking"
	"github.com/scalemarket/staking/staking/account"
	"github.com/scalemarket/staking/staking/pool"
	"github.com/scalemarket/staking/staking/receipt"
)

// Op is a ledger operation. The owner fields name the market, the
// depositor fields name the receipt holder. Callers are authenticated
// outside the executor.
type Op interface {
	Name() string
	check(s *staking.Staker) error
	apply(s *staking.Staker, now int64) (*Output, error)
}

type CreateOp struct {
	Owner scale.Address
}

type AddStakingPoolOp struct {
	Owner  scale.Address
	Params pool.Params
}

type FreezeOp struct {
	Owner scale.Address
	ID    uint32
}

type ThawOp struct {
	Owner scale.Address
	ID    uint32
}

type InitReceiptOp struct {
	Owner     scale.Address
	ID        uint32
	Depositor scale.Address
}

type StakeOp struct {
	Owner     scale.Address
	ID        uint32
	Depositor scale.Address
	Amount    uint64
}

type RedeemOp struct {
	Owner     scale.Address
	ID        uint32
	Depositor scale.Address
}

type ConfirmRedeemOp struct {
	Owner     scale.Address
	ID        uint32
	Depositor scale.Address
}

func (CreateOp) Name() string         { return "create" }
func (AddStakingPoolOp) Name() string { return "add_staking_pool" }
func (FreezeOp) Name() string         { return "freeze" }
func (ThawOp) Name() string           { return "thaw" }
func (InitReceiptOp) Name() string    { return "init_receipt" }
func (StakeOp) Name() string          { return "stake" }
func (RedeemOp) Name() string         { return "redeem" }
func (ConfirmRedeemOp) Name() string  { return "confirm_redeem" }

func violation(format string, args ...any) error {
	return errors.Wrapf(ErrConstraint, format, args...)
}

//
// constraints
//

func requireAccount(s *staking.Staker, owner scale.Address) (*account.Account, error) {
	acc, err := s.GetAccount(owner)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, violation("stake account of %v does not exist", owner)
	}
	if acc.Owner != owner {
		return nil, violation("stake account is not owned by %v", owner)
	}
	if acc.Status != account.StatusAvailable {
		return nil, violation("stake account is %v", acc.Status)
	}
	return acc, nil
}

func requirePool(s *staking.Staker, owner scale.Address, id uint32) (*pool.Pool, error) {
	p, err := s.GetPool(owner, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, violation("staking pool %d of %v does not exist", id, owner)
	}
	return p, nil
}

func requireReceipt(s *staking.Staker, owner scale.Address, id uint32, depositor scale.Address) (*receipt.Receipt, error) {
	r, err := s.GetReceipt(owner, id, depositor)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, violation("staking receipt of %v does not exist", depositor)
	}
	if r.Owner != depositor {
		return nil, violation("staking receipt is not owned by %v", depositor)
	}
	if r.StakingPool != scale.StakingPoolAddress(scale.StakeAccountAddress(owner), id) {
		return nil, violation("staking receipt does not belong to pool %d", id)
	}
	return r, nil
}

func (op CreateOp) check(s *staking.Staker) error {
	acc, err := s.GetAccount(op.Owner)
	if err != nil {
		return err
	}
	if acc != nil {
		return violation("stake account of %v already in use", op.Owner)
	}
	return nil
}

func (op AddStakingPoolOp) check(s *staking.Staker) error {
	acc, err := requireAccount(s, op.Owner)
	if err != nil {
		return err
	}
	p, err := s.GetPool(op.Owner, acc.Stakings)
	if err != nil {
		return err
	}
	if p != nil {
		return violation("staking pool %d already in use", acc.Stakings)
	}
	return nil
}

func (op FreezeOp) check(s *staking.Staker) error {
	if _, err := requireAccount(s, op.Owner); err != nil {
		return err
	}
	p, err := requirePool(s, op.Owner, op.ID)
	if err != nil {
		return err
	}
	if p.Status != pool.StatusStaking {
		return violation("staking pool %d is %v, not staking", op.ID, p.Status)
	}
	return nil
}

func (op ThawOp) check(s *staking.Staker) error {
	if _, err := requireAccount(s, op.Owner); err != nil {
		return err
	}
	p, err := requirePool(s, op.Owner, op.ID)
	if err != nil {
		return err
	}
	if p.Status != pool.StatusFrozen {
		return violation("staking pool %d is %v, not frozen", op.ID, p.Status)
	}
	return nil
}

func (op InitReceiptOp) check(s *staking.Staker) error {
	if _, err := requireAccount(s, op.Owner); err != nil {
		return err
	}
	if _, err := requirePool(s, op.Owner, op.ID); err != nil {
		return err
	}
	r, err := s.GetReceipt(op.Owner, op.ID, op.Depositor)
	if err != nil {
		return err
	}
	if r != nil {
		return violation("staking receipt of %v already in use", op.Depositor)
	}
	return nil
}

func (op StakeOp) check(s *staking.Staker) error {
	if _, err := requireAccount(s, op.Owner); err != nil {
		return err
	}
	if _, err := requirePool(s, op.Owner, op.ID); err != nil {
		return err
	}
	_, err := requireReceipt(s, op.Owner, op.ID, op.Depositor)
	return err
}

func (op RedeemOp) check(s *staking.Staker) error {
	p, err := requirePool(s, op.Owner, op.ID)
	if err != nil {
		return err
	}
	if p.Status != pool.StatusStaking && p.Status != pool.StatusRedeeming {
		return violation("staking pool %d is %v", op.ID, p.Status)
	}
	r, err := requireReceipt(s, op.Owner, op.ID, op.Depositor)
	if err != nil {
		return err
	}
	// Redeemable is never written, so this never rejects.
	if r.Redeemable != nil {
		return violation("redeem already requested")
	}
	return nil
}

func (op ConfirmRedeemOp) check(s *staking.Staker) error {
	if _, err := requirePool(s, op.Owner, op.ID); err != nil {
		return err
	}
	_, err := requireReceipt(s, op.Owner, op.ID, op.Depositor)
	return err
}

//
// apply
//

func (op CreateOp) apply(s *staking.Staker, _ int64) (*Output, error) {
	addr, err := s.Create(op.Owner)
	if err != nil {
		return nil, err
	}
	return &Output{Address: addr}, nil
}

func (op AddStakingPoolOp) apply(s *staking.Staker, now int64) (*Output, error) {
	params := op.Params
	addr, id, err := s.AddStakingPool(op.Owner, &params, now)
	if err != nil {
		return nil, err
	}
	return &Output{Address: addr, PoolID: id}, nil
}

func (op FreezeOp) apply(s *staking.Staker, _ int64) (*Output, error) {
	if err := s.Freeze(op.Owner, op.ID); err != nil {
		return nil, err
	}
	return poolOutput(op.Owner, op.ID), nil
}

func (op ThawOp) apply(s *staking.Staker, _ int64) (*Output, error) {
	if err := s.Thaw(op.Owner, op.ID); err != nil {
		return nil, err
	}
	return poolOutput(op.Owner, op.ID), nil
}

func (op InitReceiptOp) apply(s *staking.Staker, _ int64) (*Output, error) {
	addr, err := s.InitReceipt(op.Owner, op.ID, op.Depositor)
	if err != nil {
		return nil, err
	}
	return &Output{Address: addr, PoolID: op.ID}, nil
}

func (op StakeOp) apply(s *staking.Staker, now int64) (*Output, error) {
	if err := s.Stake(op.Owner, op.ID, op.Depositor, op.Amount, now); err != nil {
		return nil, err
	}
	return receiptOutput(op.Owner, op.ID, op.Depositor), nil
}

func (op RedeemOp) apply(s *staking.Staker, now int64) (*Output, error) {
	if err := s.Redeem(op.Owner, op.ID, op.Depositor, now); err != nil {
		return nil, err
	}
	r, err := s.GetReceipt(op.Owner, op.ID, op.Depositor)
	if err != nil {
		return nil, err
	}
	out := receiptOutput(op.Owner, op.ID, op.Depositor)
	out.RedeemableAt = r.RedeemableAt
	return out, nil
}

func (op ConfirmRedeemOp) apply(s *staking.Staker, now int64) (*Output, error) {
	amount, err := s.ConfirmRedeem(op.Owner, op.ID, op.Depositor, now)
	if err != nil {
		return nil, err
	}
	out := receiptOutput(op.Owner, op.ID, op.Depositor)
	out.Amount = amount
	return out, nil
}

func poolOutput(owner scale.Address, id uint32) *Output {
	return &Output{
		Address: scale.StakingPoolAddress(scale.StakeAccountAddress(owner), id),
		PoolID:  id,
	}
}

func receiptOutput(owner scale.Address, id uint32, depositor scale.Address) *Output {
	return &Output{
		Address: scale.StakingReceiptAddress(scale.StakingPoolAddress(scale.StakeAccountAddress(owner), id), depositor),
		PoolID:  id,
	}
}
