// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/pkg/errors"

	"github.com/scalemarket/staking/record"
	"github.com/scalemarket/staking/scale"
)

var slotPools = record.NameToSlot("staking-pools")

type Service struct {
	pools *record.Mapping[scale.Address, Pool, *Pool]
}

func New(rctx *record.Context) *Service {
	return &Service{
		pools: record.NewMapping[scale.Address, Pool](rctx, slotPools),
	}
}

// Get returns the pool stored at addr, or nil.
func (s *Service) Get(addr scale.Address) (*Pool, error) {
	p, err := s.pools.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get staking pool")
	}
	return p, nil
}

func (s *Service) Add(addr scale.Address, p *Pool) error {
	if err := s.pools.Insert(addr, p); err != nil {
		return errors.Wrap(err, "failed to add staking pool")
	}
	return nil
}

func (s *Service) Update(addr scale.Address, p *Pool) error {
	if err := s.pools.Update(addr, p); err != nil {
		return errors.Wrap(err, "failed to update staking pool")
	}
	return nil
}
