// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package layout holds the fixed little-endian encoding shared by staking records.
// Optional values always take OptionSize bytes: a tag (0 none, 1 some) and the payload.
package layout

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const OptionSize = 9

func AppendUint32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

func AppendUint64(b []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(b, v)
}

func AppendOptionUint64(b []byte, v *uint64) []byte {
	if v == nil {
		return append(b, make([]byte, OptionSize)...)
	}
	b = append(b, 1)
	return binary.LittleEndian.AppendUint64(b, *v)
}

func AppendOptionInt64(b []byte, v *int64) []byte {
	if v == nil {
		return AppendOptionUint64(b, nil)
	}
	u := uint64(*v)
	return AppendOptionUint64(b, &u)
}

func ReadOptionUint64(b []byte) (*uint64, error) {
	switch b[0] {
	case 0:
		return nil, nil
	case 1:
		v := binary.LittleEndian.Uint64(b[1:OptionSize])
		return &v, nil
	default:
		return nil, errors.Errorf("invalid option tag %d", b[0])
	}
}

func ReadOptionInt64(b []byte) (*int64, error) {
	u, err := ReadOptionUint64(b)
	if err != nil || u == nil {
		return nil, err
	}
	v := int64(*u)
	return &v, nil
}

// Reader consumes a fixed layout front to back.
type Reader struct {
	buf []byte
	off int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) Next(n int) []byte {
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) Byte() byte {
	return r.Next(1)[0]
}

func (r *Reader) Uint32() uint32 {
	return binary.LittleEndian.Uint32(r.Next(4))
}

func (r *Reader) Uint64() uint64 {
	return binary.LittleEndian.Uint64(r.Next(8))
}

func (r *Reader) Int64() int64 {
	return int64(r.Uint64())
}

func (r *Reader) OptionUint64() (*uint64, error) {
	return ReadOptionUint64(r.Next(OptionSize))
}

func (r *Reader) OptionInt64() (*int64, error) {
	return ReadOptionInt64(r.Next(OptionSize))
}

// CheckSize fails unless data is exactly size bytes long.
func CheckSize(data []byte, size int, what string) error {
	if len(data) != size {
		return errors.Errorf("invalid %s length %d, want %d", what, len(data), size)
	}
	return nil
}
