// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package record

import (
	"github.com/pkg/errors"

	"github.com/scalemarket/staking/scale"
)

var (
	ErrExists   = errors.New("record already exists")
	ErrNotFound = errors.New("record not found")
)

type Key interface {
	Bytes() []byte
}

// Value is a pointer to a record type with a fixed binary layout.
type Value[T any] interface {
	*T
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(data []byte) error
}

// NameToSlot returns the base position for a named mapping.
func NameToSlot(name string) scale.Bytes32 {
	return scale.BytesToBytes32([]byte(name))
}

// Mapping is a keyed record storage, each key lives at blake2b(key, basePos).
type Mapping[K Key, T any, P Value[T]] struct {
	context *Context
	basePos scale.Bytes32
}

func NewMapping[K Key, T any, P Value[T]](context *Context, pos scale.Bytes32) *Mapping[K, T, P] {
	return &Mapping[K, T, P]{context: context, basePos: pos}
}

func (m *Mapping[K, T, P]) position(key K) scale.Bytes32 {
	return scale.Blake2b(key.Bytes(), m.basePos.Bytes())
}

// Get returns the record for key, or nil if it does not exist.
func (m *Mapping[K, T, P]) Get(key K) (*T, error) {
	raw, err := m.context.Get(m.position(key))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	value := P(new(T))
	if err := value.UnmarshalBinary(raw); err != nil {
		return nil, errors.Wrap(err, "decode record")
	}
	return (*T)(value), nil
}

// Exists returns whether a record is stored for key.
func (m *Mapping[K, T, P]) Exists(key K) (bool, error) {
	raw, err := m.context.Get(m.position(key))
	if err != nil {
		return false, err
	}
	return raw != nil, nil
}

// Insert allocates a new record. It fails with ErrExists if the key is taken.
func (m *Mapping[K, T, P]) Insert(key K, value *T) error {
	exists, err := m.Exists(key)
	if err != nil {
		return err
	}
	if exists {
		return ErrExists
	}
	raw, err := P(value).MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encode record")
	}
	m.context.Put(m.position(key), raw)
	m.context.allocate(len(raw))
	return nil
}

// Update overwrites an existing record. It fails with ErrNotFound if there is none.
func (m *Mapping[K, T, P]) Update(key K, value *T) error {
	exists, err := m.Exists(key)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	raw, err := P(value).MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encode record")
	}
	m.context.Put(m.position(key), raw)
	return nil
}

// Delete removes a record and returns the number of bytes released.
func (m *Mapping[K, T, P]) Delete(key K) (int, error) {
	pos := m.position(key)
	raw, err := m.context.Get(pos)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, ErrNotFound
	}
	m.context.Put(pos, nil)
	m.context.release(len(raw))
	return len(raw), nil
}
