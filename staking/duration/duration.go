// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package duration

import (
	"fmt"

	"github.com/pkg/errors"
)

// Duration is a fixed time span used for pool length and redeem cooldown.
type Duration uint8

const (
	OneHour Duration = iota
	OneDay
	OneWeek
	OneMonth
	OneYear
)

var (
	seconds = [...]uint64{
		OneHour:  3600,
		OneDay:   86400,
		OneWeek:  604800,
		OneMonth: 2592000,
		OneYear:  31536000,
	}
	names = [...]string{
		OneHour:  "one-hour",
		OneDay:   "one-day",
		OneWeek:  "one-week",
		OneMonth: "one-month",
		OneYear:  "one-year",
	}
)

func (d Duration) IsValid() bool {
	return int(d) < len(seconds)
}

// Seconds returns the length of d. It panics on an unknown variant, which
// decoding never produces.
func (d Duration) Seconds() uint64 {
	if !d.IsValid() {
		panic(fmt.Sprintf("unknown duration variant %d", d))
	}
	return seconds[d]
}

func (d Duration) String() string {
	if !d.IsValid() {
		return fmt.Sprintf("duration(%d)", uint8(d))
	}
	return names[d]
}

func (d Duration) MarshalText() ([]byte, error) {
	if !d.IsValid() {
		return nil, errors.Errorf("unknown duration variant %d", d)
	}
	return []byte(names[d]), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Parse accepts a duration name such as "one-day".
func Parse(s string) (Duration, error) {
	for i, name := range names {
		if name == s {
			return Duration(i), nil
		}
	}
	return 0, errors.Errorf("unknown duration %q", s)
}

// FromByte decodes a stored duration tag.
func FromByte(b byte) (Duration, error) {
	d := Duration(b)
	if !d.IsValid() {
		return 0, errors.Errorf("unknown duration variant %d", b)
	}
	return d, nil
}
