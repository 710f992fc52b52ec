// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"fmt"
	"math"

	gmath "github.com/ethereum/go-ethereum/common/math"
)

// Fault is the panic value of an unrecoverable ledger error.
// The whole operation must be discarded.
type Fault struct {
	Op     string
	Reason string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("staking fault in %s: %s", f.Op, f.Reason)
}

func checkedAdd(op, field string, a, b uint64) uint64 {
	sum, overflow := gmath.SafeAdd(a, b)
	if overflow {
		panic(&Fault{Op: op, Reason: field + " overflow"})
	}
	return sum
}

func checkedSub(op, field string, a, b uint64) uint64 {
	diff, underflow := gmath.SafeSub(a, b)
	if underflow {
		panic(&Fault{Op: op, Reason: field + " underflow"})
	}
	return diff
}

func checkedAdd32(op, field string, a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		panic(&Fault{Op: op, Reason: field + " overflow"})
	}
	return a + b
}

func checkedAddInt64(op, field string, a, b int64) int64 {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		panic(&Fault{Op: op, Reason: field + " overflow"})
	}
	return a + b
}
