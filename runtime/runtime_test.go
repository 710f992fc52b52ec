// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalemarket/staking/clock"
	"github.com/scalemarket/staking/lvldb"
	"github.com/scalemarket/staking/record"
	"github.com/scalemarket/staking/scale"
	"github.com/scalemarket/staking/staking"
	"github.com/scalemarket/staking/staking/account"
	"github.com/scalemarket/staking/staking/duration"
	"github.com/scalemarket/staking/staking/pool"
	"github.com/scalemarket/staking/staking/rate"
	"github.com/scalemarket/staking/staking/receipt"
	"github.com/scalemarket/staking/staking/reverts"
	"github.com/scalemarket/staking/test/datagen"
)

const (
	start       = int64(1_700_000_000)
	rentPerByte = 10
)

func newTestExecutor(t *testing.T) (*Executor, *clock.Manual, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rctx, err := record.NewContext(db, 0)
	require.NoError(t, err)

	clk := clock.NewManual(start)
	return New(rctx, clk, rentPerByte), clk, db
}

func params(funding *uint64) pool.Params {
	return pool.Params{
		Duration:       duration.OneHour,
		RedeemDuration: duration.OneDay,
		ProfitRate:     rate.New(1, 10),
		StakeRate:      rate.New(1, 1),
		RedeemRate:     rate.Full,
		Start:          start,
		Funding:        funding,
	}
}

func mustExecute(t *testing.T, e *Executor, op Op) *Output {
	out, err := e.Execute(op)
	require.NoError(t, err, op.Name())
	return out
}

func getAccount(t *testing.T, e *Executor, owner scale.Address) (acc *account.Account) {
	require.NoError(t, e.View(func(s *staking.Staker) (err error) {
		acc, err = s.GetAccount(owner)
		return
	}))
	return
}

func getReceipt(t *testing.T, e *Executor, owner scale.Address, id uint32, depositor scale.Address) (r *receipt.Receipt) {
	require.NoError(t, e.View(func(s *staking.Staker) (err error) {
		r, err = s.GetReceipt(owner, id, depositor)
		return
	}))
	return
}

func TestLifecycle(t *testing.T) {
	e, clk, _ := newTestExecutor(t)
	owner, depositor := datagen.RandAddress(), datagen.RandAddress()

	out := mustExecute(t, e, CreateOp{Owner: owner})
	assert.Equal(t, "create", out.Op)
	assert.Equal(t, start, out.Time)
	assert.Equal(t, scale.StakeAccountAddress(owner), out.Address)
	assert.Equal(t, uint64(account.Size*rentPerByte), out.RentDeposit)

	out = mustExecute(t, e, AddStakingPoolOp{Owner: owner, Params: params(nil)})
	assert.Equal(t, uint32(0), out.PoolID)
	assert.Equal(t, uint64(pool.Size*rentPerByte), out.RentDeposit)

	out = mustExecute(t, e, InitReceiptOp{Owner: owner, ID: 0, Depositor: depositor})
	assert.Equal(t, uint64(receipt.Size*rentPerByte), out.RentDeposit)
	receiptAddr := out.Address

	out = mustExecute(t, e, StakeOp{Owner: owner, ID: 0, Depositor: depositor, Amount: 250})
	assert.Equal(t, receiptAddr, out.Address)
	assert.Zero(t, out.RentDeposit)

	clk.Advance(600)
	out = mustExecute(t, e, RedeemOp{Owner: owner, ID: 0, Depositor: depositor})
	require.NotNil(t, out.RedeemableAt)
	assert.Equal(t, start+600+86400, *out.RedeemableAt)

	_, err := e.Execute(ConfirmRedeemOp{Owner: owner, ID: 0, Depositor: depositor})
	assert.ErrorIs(t, err, reverts.ErrRedeemNotCoolDown)

	clk.Advance(86400)
	out = mustExecute(t, e, ConfirmRedeemOp{Owner: owner, ID: 0, Depositor: depositor})
	assert.Equal(t, uint64(250), out.Amount)
	assert.Equal(t, uint64(receipt.Size*rentPerByte), out.RentRefund)

	assert.Nil(t, getReceipt(t, e, owner, 0, depositor))
	acc := getAccount(t, e, owner)
	assert.Zero(t, acc.Amount)
	assert.Zero(t, acc.Redeem)
	assert.Equal(t, uint32(1), acc.Stakings)
}

func TestConstraints(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	owner, depositor, stranger := datagen.RandAddress(), datagen.RandAddress(), datagen.RandAddress()
	target := uint64(100)

	mustExecute(t, e, CreateOp{Owner: owner})
	mustExecute(t, e, AddStakingPoolOp{Owner: owner, Params: params(nil)})
	mustExecute(t, e, AddStakingPoolOp{Owner: owner, Params: params(&target)})
	mustExecute(t, e, InitReceiptOp{Owner: owner, ID: 0, Depositor: depositor})
	mustExecute(t, e, InitReceiptOp{Owner: owner, ID: 1, Depositor: depositor})

	tests := []struct {
		name string
		op   Op
	}{
		{"create twice", CreateOp{Owner: owner}},
		{"pool without account", AddStakingPoolOp{Owner: stranger, Params: params(nil)}},
		{"freeze missing pool", FreezeOp{Owner: owner, ID: 9}},
		{"freeze funding pool", FreezeOp{Owner: owner, ID: 1}},
		{"thaw staking pool", ThawOp{Owner: owner, ID: 0}},
		{"receipt twice", InitReceiptOp{Owner: owner, ID: 0, Depositor: depositor}},
		{"receipt for missing pool", InitReceiptOp{Owner: owner, ID: 9, Depositor: depositor}},
		{"stake without receipt", StakeOp{Owner: owner, ID: 0, Depositor: stranger, Amount: 1}},
		{"redeem funding pool", RedeemOp{Owner: owner, ID: 1, Depositor: depositor}},
		{"redeem without receipt", RedeemOp{Owner: owner, ID: 0, Depositor: stranger}},
		{"confirm without receipt", ConfirmRedeemOp{Owner: owner, ID: 0, Depositor: stranger}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(tt.op)
			assert.ErrorIs(t, err, ErrConstraint)
		})
	}

	mustExecute(t, e, FreezeOp{Owner: owner, ID: 0})
	_, err := e.Execute(FreezeOp{Owner: owner, ID: 0})
	assert.ErrorIs(t, err, ErrConstraint)
	_, err = e.Execute(RedeemOp{Owner: owner, ID: 0, Depositor: depositor})
	assert.ErrorIs(t, err, ErrConstraint)
	mustExecute(t, e, ThawOp{Owner: owner, ID: 0})
}

func TestRevertLeavesNoTrace(t *testing.T) {
	e, clk, _ := newTestExecutor(t)
	owner, depositor := datagen.RandAddress(), datagen.RandAddress()

	mustExecute(t, e, CreateOp{Owner: owner})
	bad := params(nil)
	bad.ProfitRate = rate.New(0, 1)
	_, err := e.Execute(AddStakingPoolOp{Owner: owner, Params: bad})
	assert.ErrorIs(t, err, reverts.ErrInvalidRate)
	assert.Equal(t, uint32(0), getAccount(t, e, owner).Stakings)

	mustExecute(t, e, AddStakingPoolOp{Owner: owner, Params: params(nil)})
	mustExecute(t, e, InitReceiptOp{Owner: owner, ID: 0, Depositor: depositor})

	clk.Set(start + 3601)
	_, err = e.Execute(StakeOp{Owner: owner, ID: 0, Depositor: depositor, Amount: 1})
	assert.ErrorIs(t, err, reverts.ErrNotInStakingRange)
	assert.Zero(t, getReceipt(t, e, owner, 0, depositor).Amount)
}

func TestFaultRollsBack(t *testing.T) {
	e, _, db := newTestExecutor(t)
	owner, depositor := datagen.RandAddress(), datagen.RandAddress()

	mustExecute(t, e, CreateOp{Owner: owner})
	mustExecute(t, e, AddStakingPoolOp{Owner: owner, Params: params(nil)})
	mustExecute(t, e, InitReceiptOp{Owner: owner, ID: 0, Depositor: depositor})
	mustExecute(t, e, StakeOp{Owner: owner, ID: 0, Depositor: depositor, Amount: 100})
	mustExecute(t, e, RedeemOp{Owner: owner, ID: 0, Depositor: depositor})

	_, err := e.Execute(RedeemOp{Owner: owner, ID: 0, Depositor: depositor})
	assert.ErrorIs(t, err, ErrFault)
	assert.Contains(t, err.Error(), "underflow")

	acc := getAccount(t, e, owner)
	assert.Zero(t, acc.Amount)
	assert.Equal(t, uint64(100), acc.Redeem)

	// the executor stays usable and sees the committed state
	fresh, err := record.NewContext(db, 0)
	require.NoError(t, err)
	stored, err := staking.New(fresh).GetAccount(owner)
	require.NoError(t, err)
	assert.Equal(t, acc, stored)
	mustExecute(t, e, InitReceiptOp{Owner: owner, ID: 0, Depositor: datagen.RandAddress()})
}

func TestStopTimeOverflowRollsBack(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	owner := datagen.RandAddress()

	mustExecute(t, e, CreateOp{Owner: owner})
	bad := params(nil)
	bad.Start = math.MaxInt64 - 100
	_, err := e.Execute(AddStakingPoolOp{Owner: owner, Params: bad})
	assert.ErrorIs(t, err, ErrFault)
	assert.Contains(t, err.Error(), "stop time overflow")
	assert.Equal(t, uint32(0), getAccount(t, e, owner).Stakings)

	out := mustExecute(t, e, AddStakingPoolOp{Owner: owner, Params: params(nil)})
	assert.Equal(t, uint32(0), out.PoolID)
}

func TestFundingScenario(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	owner, depositor := datagen.RandAddress(), datagen.RandAddress()
	target := uint64(1000)

	mustExecute(t, e, CreateOp{Owner: owner})
	mustExecute(t, e, AddStakingPoolOp{Owner: owner, Params: params(&target)})
	mustExecute(t, e, InitReceiptOp{Owner: owner, ID: 0, Depositor: depositor})
	mustExecute(t, e, StakeOp{Owner: owner, ID: 0, Depositor: depositor, Amount: 600})
	assert.Zero(t, getAccount(t, e, owner).Amount)

	mustExecute(t, e, StakeOp{Owner: owner, ID: 0, Depositor: depositor, Amount: 500})
	assert.Equal(t, uint64(1600), getAccount(t, e, owner).Amount)
}
