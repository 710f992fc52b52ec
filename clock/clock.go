// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package clock

import (
	"context"
	"sync"
	"time"

	"github.com/beevik/ntp"
	"github.com/ethereum/go-ethereum/common"

	"github.com/scalemarket/staking/log"
)

var logger = log.WithContext("pkg", "clock")

// Clock provides the unix timestamp operations run at.
type Clock interface {
	Now() int64
}

// System is the wall clock. It never goes backwards, a clock step back
// holds the last returned value until the wall clock catches up.
type System struct {
	lock sync.Mutex
	last int64
	now  func() time.Time
}

func NewSystem() *System {
	return &System{now: time.Now}
}

func (s *System) Now() int64 {
	t := s.now().Unix()

	s.lock.Lock()
	defer s.lock.Unlock()
	if t < s.last {
		return s.last
	}
	s.last = t
	return t
}

// Manual is a clock moved by hand.
type Manual struct {
	lock sync.Mutex
	now  int64
}

func NewManual(now int64) *Manual {
	return &Manual{now: now}
}

func (m *Manual) Now() int64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.now
}

func (m *Manual) Set(now int64) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.now = now
}

func (m *Manual) Advance(seconds int64) int64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.now += seconds
	return m.now
}

type queryFunc func(server string) (time.Duration, error)

func queryNTP(server string) (time.Duration, error) {
	resp, err := ntp.Query(server)
	if err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}

// CheckOffset asks server for the local clock offset and warns when it
// exceeds tolerance.
func CheckOffset(server string, tolerance time.Duration) (time.Duration, error) {
	return checkOffset(queryNTP, server, tolerance)
}

func checkOffset(query queryFunc, server string, tolerance time.Duration) (time.Duration, error) {
	offset, err := query(server)
	if err != nil {
		logger.Debug("failed to access NTP", "server", server, "err", err)
		return 0, err
	}
	if offset.Abs() > tolerance {
		logger.Warn("clock offset detected", "offset", common.PrettyDuration(offset))
	}
	return offset, nil
}

// WatchOffset checks the clock offset every interval until ctx is done.
func WatchOffset(ctx context.Context, server string, interval, tolerance time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_, _ = CheckOffset(server, tolerance)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
