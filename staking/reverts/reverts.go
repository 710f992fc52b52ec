// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// codeOffset is the first business error code.
const codeOffset = 6000

var (
	ErrInvalidRate         = New(codeOffset+0, "Invalid rate.")
	ErrNotInStakingRange   = New(codeOffset+1, "Not in staking range.")
	ErrRedeemNotCoolDown   = New(codeOffset+2, "Redeem not cool down.")
	ErrInvalidRedeemAmount = New(codeOffset+3, "Invalid redeem amount.")
	ErrStakeAccountFrozen  = New(codeOffset+4, "Stake account was frozen.")
	ErrStakingLimit        = New(codeOffset+5, "Reach the staking limit.")
)

type ErrRevert struct {
	code    uint32
	message string
}

func New(code uint32, message string) *ErrRevert {
	return &ErrRevert{
		code:    code,
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Code() uint32 {
	return e.code
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// CodeOf returns the code of the revert wrapped by err, if any.
func CodeOf(err error) (uint32, bool) {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.code, true
	}
	return 0, false
}
