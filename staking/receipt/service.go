// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package receipt

import (
	"github.com/pkg/errors"

	"github.com/scalemarket/staking/record"
	"github.com/scalemarket/staking/scale"
)

var slotReceipts = record.NameToSlot("staking-receipts")

type Service struct {
	receipts *record.Mapping[scale.Address, Receipt, *Receipt]
}

func New(rctx *record.Context) *Service {
	return &Service{
		receipts: record.NewMapping[scale.Address, Receipt](rctx, slotReceipts),
	}
}

// Get returns the receipt stored at addr, or nil.
func (s *Service) Get(addr scale.Address) (*Receipt, error) {
	r, err := s.receipts.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get staking receipt")
	}
	return r, nil
}

// Init stores an empty receipt of owner for pool at addr.
func (s *Service) Init(addr, owner, pool scale.Address) (*Receipt, error) {
	r := &Receipt{
		Owner:       owner,
		StakingPool: pool,
	}
	if err := s.receipts.Insert(addr, r); err != nil {
		return nil, errors.Wrap(err, "failed to init staking receipt")
	}
	return r, nil
}

func (s *Service) Update(addr scale.Address, r *Receipt) error {
	if err := s.receipts.Update(addr, r); err != nil {
		return errors.Wrap(err, "failed to update staking receipt")
	}
	return nil
}

// Close destroys the receipt and returns the number of bytes released.
func (s *Service) Close(addr scale.Address) (int, error) {
	n, err := s.receipts.Delete(addr)
	if err != nil {
		return 0, errors.Wrap(err, "failed to close staking receipt")
	}
	return n, nil
}
