// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalemarket/staking/lvldb"
	"github.com/scalemarket/staking/record"
	"github.com/scalemarket/staking/test/datagen"
)

func TestLayout(t *testing.T) {
	acc := &Account{
		Status:   StatusAvailable,
		Owner:    datagen.RandAddress(),
		Stakings: 7,
		Amount:   1000,
		Redeem:   20,
	}
	raw, err := acc.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, raw, 53)
	assert.Equal(t, byte(1), raw[0])
	assert.Equal(t, acc.Owner[:], raw[1:33])

	var decoded Account
	require.NoError(t, decoded.UnmarshalBinary(raw))
	assert.Equal(t, *acc, decoded)

	assert.Error(t, decoded.UnmarshalBinary(raw[:52]))
	raw[0] = 2
	assert.ErrorContains(t, decoded.UnmarshalBinary(raw), "unknown stake account status")
}

func TestService(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	rctx, err := record.NewContext(db, 0)
	require.NoError(t, err)

	svc := New(rctx)
	addr, owner := datagen.RandAddress(), datagen.RandAddress()

	acc, err := svc.Get(addr)
	require.NoError(t, err)
	assert.Nil(t, acc)

	assert.Error(t, svc.Update(addr, &Account{}))

	acc, err = svc.Create(addr, owner)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, acc.Status)
	assert.Equal(t, uint64(Size), rctx.Usage().Allocated)

	_, err = svc.Create(addr, owner)
	assert.ErrorIs(t, err, record.ErrExists)

	acc.Amount = 10
	require.NoError(t, svc.Update(addr, acc))
	got, err := svc.Get(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), got.Amount)
	assert.Equal(t, owner, got.Owner)
}
