// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/scalemarket/staking/clock"
	"github.com/scalemarket/staking/log"
	"github.com/scalemarket/staking/metrics"
	"github.com/scalemarket/staking/record"
	"github.com/scalemarket/staking/scale"
	"github.com/scalemarket/staking/staking"
)

var (
	// ErrConstraint marks an operation rejected before it ran.
	ErrConstraint = errors.New("constraint violated")
	// ErrFault marks an operation aborted by a ledger fault.
	ErrFault = errors.New("ledger fault")

	logger = log.WithContext("pkg", "runtime")

	metricFaults     = metrics.LazyLoadCounter("runtime_faults_count")
	metricOpDuration = metrics.LazyLoadHistogramVec("runtime_op_duration_ms", []string{"op"}, metrics.BucketOps)
)

// Output is the result of an executed operation.
type Output struct {
	Op           string
	Time         int64
	Address      scale.Address // record created or acted on
	PoolID       uint32
	Amount       uint64 // confirmed amount of confirm_redeem
	RedeemableAt *int64
	RentDeposit  uint64
	RentRefund   uint64
}

// Executor runs operations one at a time. Each operation is committed to
// the store in full or not at all.
type Executor struct {
	lock        sync.Mutex
	rctx        *record.Context
	staker      *staking.Staker
	clock       clock.Clock
	rentPerByte uint64
}

// New create an executor over the record context.
func New(rctx *record.Context, clk clock.Clock, rentPerByte uint64) *Executor {
	return &Executor{
		rctx:        rctx,
		staker:      staking.New(rctx),
		clock:       clk,
		rentPerByte: rentPerByte,
	}
}

func (e *Executor) Now() int64 { return e.clock.Now() }

// Execute checks the constraints of op and runs it.
func (e *Executor) Execute(op Op) (out *Output, err error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	startTime := time.Now()
	now := e.clock.Now()
	checkpoint := e.rctx.Checkpoint()

	defer func() {
		if r := recover(); r != nil {
			fault, ok := r.(*staking.Fault)
			e.rctx.Discard()
			if !ok {
				panic(r)
			}
			logger.Warn("operation aborted by fault", "op", op.Name(), "error", fault)
			metricFaults().Add(1)
			out, err = nil, errors.Wrap(ErrFault, fault.Error())
		}
		metricOpDuration().ObserveWithLabels(time.Since(startTime).Milliseconds(), map[string]string{"op": op.Name()})
	}()

	if err := op.check(e.staker); err != nil {
		e.rctx.RevertTo(checkpoint)
		return nil, err
	}

	out, err = op.apply(e.staker, now)
	if err != nil {
		e.rctx.RevertTo(checkpoint)
		return nil, err
	}

	usage := e.rctx.Usage()
	out.Op = op.Name()
	out.Time = now
	out.RentDeposit = usage.Allocated * e.rentPerByte
	out.RentRefund = usage.Released * e.rentPerByte

	if err := e.rctx.Commit(); err != nil {
		e.rctx.Discard()
		return nil, errors.Wrap(err, "commit operation")
	}
	return out, nil
}

// View runs fn against the committed ledger.
func (e *Executor) View(fn func(s *staking.Staker) error) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	return fn(e.staker)
}
