// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/pkg/errors"

	"github.com/scalemarket/staking/log"
	"github.com/scalemarket/staking/metrics"
	"github.com/scalemarket/staking/record"
	"github.com/scalemarket/staking/scale"
	"github.com/scalemarket/staking/staking/account"
	"github.com/scalemarket/staking/staking/pool"
	"github.com/scalemarket/staking/staking/receipt"
	"github.com/scalemarket/staking/staking/reverts"
)

var (
	logger = log.WithContext("pkg", "staker")

	metricOperations   = metrics.LazyLoadCounterVec("staking_operations_count", []string{"op", "result"})
	metricStakedAmount = metrics.LazyLoadCounter("staking_staked_amount")
	metricStakeAmount  = metrics.LazyLoadHistogram("staking_stake_amount", bucketStakeAmount)

	bucketStakeAmount = []int64{1, 10, 100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000, 100_000_000}
)

func SetLogger(l log.Logger) {
	logger = l
}

// Staker is the staking ledger engine. It is the only mutator of stake
// accounts, staking pools and staking receipts.
//
// Record identity, ownership and pool status preconditions are checked by the
// caller. Ledger overflow or underflow panics with a *Fault.
type Staker struct {
	accountService *account.Service
	poolService    *pool.Service
	receiptService *receipt.Service
}

// New create a new instance over the record context.
func New(rctx *record.Context) *Staker {
	return &Staker{
		accountService: account.New(rctx),
		poolService:    pool.New(rctx),
		receiptService: receipt.New(rctx),
	}
}

//
// Getters - no state change
//

// GetAccount returns the stake account of owner, or nil.
func (s *Staker) GetAccount(owner scale.Address) (*account.Account, error) {
	return s.accountService.Get(scale.StakeAccountAddress(owner))
}

// GetPool returns pool id of owner's stake account, or nil.
func (s *Staker) GetPool(owner scale.Address, id uint32) (*pool.Pool, error) {
	return s.poolService.Get(poolAddress(owner, id))
}

// GetReceipt returns the receipt of depositor in pool id of owner, or nil.
func (s *Staker) GetReceipt(owner scale.Address, id uint32, depositor scale.Address) (*receipt.Receipt, error) {
	return s.receiptService.Get(receiptAddress(owner, id, depositor))
}

// AccountAt returns the stake account stored at addr, or nil.
func (s *Staker) AccountAt(addr scale.Address) (*account.Account, error) {
	return s.accountService.Get(addr)
}

// PoolAt returns the staking pool stored at addr, or nil.
func (s *Staker) PoolAt(addr scale.Address) (*pool.Pool, error) {
	return s.poolService.Get(addr)
}

// ReceiptAt returns the staking receipt stored at addr, or nil.
func (s *Staker) ReceiptAt(addr scale.Address) (*receipt.Receipt, error) {
	return s.receiptService.Get(addr)
}

//
// Setters - state change
//

// Create opens the stake account of a market.
func (s *Staker) Create(owner scale.Address) (scale.Address, error) {
	logger.Debug("creating stake account", "owner", owner)

	addr := scale.StakeAccountAddress(owner)
	if _, err := s.accountService.Create(addr, owner); err != nil {
		logger.Info("create stake account failed", "owner", owner, "error", err)
		observe("create", err)
		return scale.Address{}, err
	}

	logger.Info("created stake account", "owner", owner, "address", addr)
	observe("create", nil)
	return addr, nil
}

// AddStakingPool opens the next staking pool of owner's stake account.
// The pool id is the account's pool count before the call.
func (s *Staker) AddStakingPool(owner scale.Address, params *pool.Params, now int64) (scale.Address, uint32, error) {
	logger.Debug("adding staking pool", "owner", owner,
		"duration", params.Duration,
		"redeemDuration", params.RedeemDuration,
		"profitRate", params.ProfitRate,
		"stakeRate", params.StakeRate,
		"start", params.Start,
	)

	addr, id, err := s.addStakingPool(owner, params, now)
	observe("add_staking_pool", err)
	if err != nil {
		logger.Info("add staking pool failed", "owner", owner, "error", err)
		return scale.Address{}, 0, err
	}

	logger.Info("created staking pool", "owner", owner, "id", id, "address", addr)
	return addr, id, nil
}

func (s *Staker) addStakingPool(owner scale.Address, params *pool.Params, now int64) (scale.Address, uint32, error) {
	if !params.ProfitRate.IsValid() || !params.RedeemRate.IsValid() {
		return scale.Address{}, 0, reverts.ErrInvalidRate
	}
	if !params.Duration.IsValid() || !params.RedeemDuration.IsValid() {
		return scale.Address{}, 0, errors.New("unknown duration variant")
	}

	// StopAt and later time arithmetic rely on this
	checkedAddInt64("add_staking_pool", "stop time", params.Start, int64(params.Duration.Seconds()))

	accAddr := scale.StakeAccountAddress(owner)
	acc, err := s.loadAccount(accAddr)
	if err != nil {
		return scale.Address{}, 0, err
	}

	id := acc.Stakings
	addr := scale.StakingPoolAddress(accAddr, id)
	if err := s.poolService.Add(addr, pool.FromParams(id, params, now)); err != nil {
		return scale.Address{}, 0, err
	}

	acc.Stakings = checkedAdd32("add_staking_pool", "stakings", acc.Stakings, 1)
	if err := s.accountService.Update(accAddr, acc); err != nil {
		return scale.Address{}, 0, err
	}
	return addr, id, nil
}

// Freeze moves pool id from staking to frozen.
func (s *Staker) Freeze(owner scale.Address, id uint32) error {
	logger.Debug("freezing staking pool", "owner", owner, "id", id)

	if err := s.setPoolStatus(owner, id, pool.StatusFrozen); err != nil {
		logger.Info("freeze staking pool failed", "owner", owner, "id", id, "error", err)
		observe("freeze", err)
		return err
	}

	logger.Info("frozen staking pool", "owner", owner, "id", id)
	observe("freeze", nil)
	return nil
}

// Thaw moves pool id from frozen back to staking.
func (s *Staker) Thaw(owner scale.Address, id uint32) error {
	logger.Debug("thawing staking pool", "owner", owner, "id", id)

	if err := s.setPoolStatus(owner, id, pool.StatusStaking); err != nil {
		logger.Info("thaw staking pool failed", "owner", owner, "id", id, "error", err)
		observe("thaw", err)
		return err
	}

	logger.Info("thawed staking pool", "owner", owner, "id", id)
	observe("thaw", nil)
	return nil
}

func (s *Staker) setPoolStatus(owner scale.Address, id uint32, status pool.Status) error {
	addr := poolAddress(owner, id)
	p, err := s.loadPool(addr)
	if err != nil {
		return err
	}
	p.Status = status
	return s.poolService.Update(addr, p)
}

// InitReceipt opens an empty receipt of depositor in pool id.
func (s *Staker) InitReceipt(owner scale.Address, id uint32, depositor scale.Address) (scale.Address, error) {
	logger.Debug("initializing staking receipt", "owner", owner, "id", id, "depositor", depositor)

	poolAddr := poolAddress(owner, id)
	addr := scale.StakingReceiptAddress(poolAddr, depositor)
	if _, err := s.receiptService.Init(addr, depositor, poolAddr); err != nil {
		logger.Info("init staking receipt failed", "depositor", depositor, "error", err)
		observe("init_receipt", err)
		return scale.Address{}, err
	}

	logger.Info("initialized staking receipt", "depositor", depositor, "pool", poolAddr, "address", addr)
	observe("init_receipt", nil)
	return addr, nil
}

// Stake deposits amount of depositor into pool id.
// A funding pool starts staking once its amount exceeds the funding target.
func (s *Staker) Stake(owner scale.Address, id uint32, depositor scale.Address, amount uint64, now int64) error {
	logger.Debug("staking", "owner", owner, "id", id, "depositor", depositor, "amount", amount)

	if err := s.stake(owner, id, depositor, amount, now); err != nil {
		logger.Info("stake failed", "owner", owner, "id", id, "depositor", depositor, "error", err)
		observe("stake", err)
		return err
	}

	logger.Info("staked", "owner", owner, "id", id, "depositor", depositor, "amount", amount)
	observe("stake", nil)
	capped := int64(min(amount, uint64(1<<63-1)))
	metricStakedAmount().Add(capped)
	metricStakeAmount().Observe(capped)
	return nil
}

func (s *Staker) stake(owner scale.Address, id uint32, depositor scale.Address, amount uint64, now int64) error {
	accAddr, poolAddr, receiptAddr := addresses(owner, id, depositor)
	acc, p, r, err := s.load(accAddr, poolAddr, receiptAddr)
	if err != nil {
		return err
	}

	if now > p.StopAt() {
		return reverts.ErrNotInStakingRange
	}
	if !p.IsStakable(r.Amount, amount) {
		return reverts.ErrStakingLimit
	}

	r.Amount = checkedAdd("stake", "receipt amount", r.Amount, amount)
	p.Amount = checkedAdd("stake", "pool amount", p.Amount, amount)

	if p.Funding != nil && p.Status == pool.StatusFunding && p.Amount > *p.Funding {
		p.Status = pool.StatusStaking
		acc.Amount = checkedAdd("stake", "account amount", acc.Amount, p.Amount)
		logger.Info("staking pool funded", "owner", owner, "id", id, "amount", p.Amount)
	}
	// the activating deposit is already part of p.Amount above and is counted again here
	if p.Status == pool.StatusStaking {
		acc.Amount = checkedAdd("stake", "account amount", acc.Amount, amount)
	}

	return s.save(accAddr, acc, poolAddr, p, receiptAddr, r)
}

// Redeem requests the redemption of depositor's whole amount in pool id.
// The cooldown is waived once the staking period is over.
func (s *Staker) Redeem(owner scale.Address, id uint32, depositor scale.Address, now int64) error {
	logger.Debug("redeeming", "owner", owner, "id", id, "depositor", depositor)

	redeemableAt, err := s.redeem(owner, id, depositor, now)
	if err != nil {
		logger.Info("redeem failed", "owner", owner, "id", id, "depositor", depositor, "error", err)
		observe("redeem", err)
		return err
	}

	logger.Info("redeem requested", "owner", owner, "id", id, "depositor", depositor, "redeemableAt", redeemableAt)
	observe("redeem", nil)
	return nil
}

func (s *Staker) redeem(owner scale.Address, id uint32, depositor scale.Address, now int64) (int64, error) {
	accAddr, poolAddr, receiptAddr := addresses(owner, id, depositor)
	acc, p, r, err := s.load(accAddr, poolAddr, receiptAddr)
	if err != nil {
		return 0, err
	}

	acc.Amount = checkedSub("redeem", "account amount", acc.Amount, r.Amount)
	acc.Redeem = checkedAdd("redeem", "account redeem", acc.Redeem, r.Amount)
	p.Amount = checkedSub("redeem", "pool amount", p.Amount, r.Amount)

	if p.Status == pool.StatusStaking && now >= p.StopAt() {
		p.Status = pool.StatusRedeeming
		logger.Info("staking pool redeeming", "owner", owner, "id", id)
	}

	var redeemableAt int64
	switch p.Status {
	case pool.StatusStaking:
		redeemableAt = checkedAddInt64("redeem", "redeemable time", now, int64(p.RedeemDuration.Seconds()))
	case pool.StatusRedeeming:
		redeemableAt = now
	default:
		panic(&Fault{Op: "redeem", Reason: "redeem on " + p.Status.String() + " pool"})
	}
	r.RedeemableAt = &redeemableAt

	return redeemableAt, s.save(accAddr, acc, poolAddr, p, receiptAddr, r)
}

// ConfirmRedeem settles a redemption after its cooldown and closes the
// receipt. It returns the confirmed amount.
func (s *Staker) ConfirmRedeem(owner scale.Address, id uint32, depositor scale.Address, now int64) (uint64, error) {
	logger.Debug("confirming redeem", "owner", owner, "id", id, "depositor", depositor)

	amount, err := s.confirmRedeem(owner, id, depositor, now)
	if err != nil {
		logger.Info("confirm redeem failed", "owner", owner, "id", id, "depositor", depositor, "error", err)
		observe("confirm_redeem", err)
		return 0, err
	}

	logger.Info("redeem confirmed", "owner", owner, "id", id, "depositor", depositor, "amount", amount)
	observe("confirm_redeem", nil)
	return amount, nil
}

func (s *Staker) confirmRedeem(owner scale.Address, id uint32, depositor scale.Address, now int64) (uint64, error) {
	accAddr, poolAddr, receiptAddr := addresses(owner, id, depositor)
	acc, err := s.loadAccount(accAddr)
	if err != nil {
		return 0, err
	}
	r, err := s.loadReceipt(receiptAddr)
	if err != nil {
		return 0, err
	}
	if r.StakingPool != poolAddr {
		return 0, errors.New("receipt does not belong to the staking pool")
	}

	if !r.IsRedeemable(now) {
		return 0, reverts.ErrRedeemNotCoolDown
	}

	amount := r.Amount
	acc.Redeem = checkedSub("confirm_redeem", "account redeem", acc.Redeem, amount)
	r.Amount = 0

	if err := s.accountService.Update(accAddr, acc); err != nil {
		return 0, err
	}
	if _, err := s.receiptService.Close(receiptAddr); err != nil {
		return 0, err
	}
	return amount, nil
}

//
// helpers
//

func poolAddress(owner scale.Address, id uint32) scale.Address {
	return scale.StakingPoolAddress(scale.StakeAccountAddress(owner), id)
}

func receiptAddress(owner scale.Address, id uint32, depositor scale.Address) scale.Address {
	return scale.StakingReceiptAddress(poolAddress(owner, id), depositor)
}

func addresses(owner scale.Address, id uint32, depositor scale.Address) (acc, p, r scale.Address) {
	acc = scale.StakeAccountAddress(owner)
	p = scale.StakingPoolAddress(acc, id)
	r = scale.StakingReceiptAddress(p, depositor)
	return
}

func (s *Staker) loadAccount(addr scale.Address) (*account.Account, error) {
	acc, err := s.accountService.Get(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, errors.Wrap(record.ErrNotFound, "stake account")
	}
	return acc, nil
}

func (s *Staker) loadPool(addr scale.Address) (*pool.Pool, error) {
	p, err := s.poolService.Get(addr)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.Wrap(record.ErrNotFound, "staking pool")
	}
	return p, nil
}

func (s *Staker) loadReceipt(addr scale.Address) (*receipt.Receipt, error) {
	r, err := s.receiptService.Get(addr)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errors.Wrap(record.ErrNotFound, "staking receipt")
	}
	return r, nil
}

func (s *Staker) load(accAddr, poolAddr, receiptAddr scale.Address) (*account.Account, *pool.Pool, *receipt.Receipt, error) {
	acc, err := s.loadAccount(accAddr)
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := s.loadPool(poolAddr)
	if err != nil {
		return nil, nil, nil, err
	}
	r, err := s.loadReceipt(receiptAddr)
	if err != nil {
		return nil, nil, nil, err
	}
	if r.StakingPool != poolAddr {
		return nil, nil, nil, errors.New("receipt does not belong to the staking pool")
	}
	return acc, p, r, nil
}

func (s *Staker) save(
	accAddr scale.Address, acc *account.Account,
	poolAddr scale.Address, p *pool.Pool,
	receiptAddr scale.Address, r *receipt.Receipt,
) error {
	if err := s.accountService.Update(accAddr, acc); err != nil {
		return err
	}
	if err := s.poolService.Update(poolAddr, p); err != nil {
		return err
	}
	return s.receiptService.Update(receiptAddr, r)
}

func observe(op string, err error) {
	result := "success"
	switch {
	case err == nil:
	case reverts.IsRevertErr(err):
		result = "revert"
	default:
		result = "error"
	}
	metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": result})
}
