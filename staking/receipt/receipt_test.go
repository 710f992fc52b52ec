// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalemarket/staking/lvldb"
	"github.com/scalemarket/staking/record"
	"github.com/scalemarket/staking/test/datagen"
)

func TestIsRedeemable(t *testing.T) {
	r := &Receipt{}
	assert.False(t, r.IsRedeemable(1<<40))

	at := int64(100)
	r.RedeemableAt = &at
	assert.False(t, r.IsRedeemable(99))
	assert.True(t, r.IsRedeemable(100))
	assert.True(t, r.IsRedeemable(101))
}

func TestLayout(t *testing.T) {
	at := int64(1_700_003_600)
	r := &Receipt{
		Owner:        datagen.RandAddress(),
		StakingPool:  datagen.RandAddress(),
		Amount:       500,
		RedeemableAt: &at,
	}
	raw, err := r.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, raw, 90)
	assert.Equal(t, byte(1), raw[72])
	assert.Equal(t, byte(0), raw[81])

	var decoded Receipt
	require.NoError(t, decoded.UnmarshalBinary(raw))
	assert.Equal(t, *r, decoded)

	raw[81] = 3
	assert.ErrorContains(t, decoded.UnmarshalBinary(raw), "redeemable")
	assert.Error(t, decoded.UnmarshalBinary(raw[:81]))
}

func TestService(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	rctx, err := record.NewContext(db, 0)
	require.NoError(t, err)

	svc := New(rctx)
	addr, owner, pool := datagen.RandAddress(), datagen.RandAddress(), datagen.RandAddress()

	r, err := svc.Init(addr, owner, pool)
	require.NoError(t, err)
	assert.Zero(t, r.Amount)
	assert.Nil(t, r.RedeemableAt)
	assert.Nil(t, r.Redeemable)

	_, err = svc.Init(addr, owner, pool)
	assert.ErrorIs(t, err, record.ErrExists)

	r.Amount = 5
	require.NoError(t, svc.Update(addr, r))
	got, err := svc.Get(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.Amount)
	assert.Equal(t, pool, got.StakingPool)

	n, err := svc.Close(addr)
	require.NoError(t, err)
	assert.Equal(t, Size, n)

	got, err = svc.Get(addr)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = svc.Close(addr)
	assert.ErrorIs(t, err, record.ErrNotFound)
}
