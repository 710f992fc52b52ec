// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package account

import (
	"github.com/pkg/errors"

	"github.com/scalemarket/staking/record"
	"github.com/scalemarket/staking/scale"
)

var slotAccounts = record.NameToSlot("stake-accounts")

type Service struct {
	accounts *record.Mapping[scale.Address, Account, *Account]
}

func New(rctx *record.Context) *Service {
	return &Service{
		accounts: record.NewMapping[scale.Address, Account](rctx, slotAccounts),
	}
}

// Get returns the account stored at addr, or nil.
func (s *Service) Get(addr scale.Address) (*Account, error) {
	acc, err := s.accounts.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stake account")
	}
	return acc, nil
}

// Create stores a fresh available account for owner at addr.
func (s *Service) Create(addr scale.Address, owner scale.Address) (*Account, error) {
	acc := &Account{
		Status: StatusAvailable,
		Owner:  owner,
	}
	if err := s.accounts.Insert(addr, acc); err != nil {
		return nil, errors.Wrap(err, "failed to create stake account")
	}
	return acc, nil
}

func (s *Service) Update(addr scale.Address, acc *Account) error {
	if err := s.accounts.Update(addr, acc); err != nil {
		return errors.Wrap(err, "failed to update stake account")
	}
	return nil
}
