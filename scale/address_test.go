// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package scale

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress(t *testing.T) {
	addr := BytesToAddress([]byte("market"))
	assert.False(t, addr.IsZero())
	assert.True(t, Address{}.IsZero())

	parsed, err := ParseAddress(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	hexForm := "0x" + "00000000000000000000000000000000000000000000000000006d61726b6574"
	parsed, err = ParseAddress(hexForm)
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	_, err = ParseAddress("0OIl")
	assert.Error(t, err)

	_, err = ParseAddress("3mJr7AoUXx2Wqd")
	assert.EqualError(t, err, "invalid length")
}

func TestAddressJSON(t *testing.T) {
	addr := BytesToAddress([]byte{1, 2, 3})

	data, err := json.Marshal(&addr)
	require.NoError(t, err)
	assert.Equal(t, `"`+addr.String()+`"`, string(data))

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)

	assert.Error(t, json.Unmarshal([]byte(`1`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`"xyz"`), &decoded))
}

func TestBytesToAddress(t *testing.T) {
	long := make([]byte, 40)
	long[39] = 9
	addr := BytesToAddress(long)
	assert.Equal(t, byte(9), addr[31])

	short := BytesToAddress([]byte{7})
	assert.Equal(t, byte(7), short[31])
	assert.Equal(t, byte(0), short[0])
}
