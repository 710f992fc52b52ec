// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDB(t *testing.T) {
	var (
		key        = []byte("123")
		value      = []byte("456")
		inValidKey = []byte("abc")
	)

	disk, err := New(filepath.Join(t.TempDir(), "lvldb"), Options{16, 16})
	require.NoError(t, err)
	defer disk.Close()

	mem, err := NewMem()
	require.NoError(t, err)
	defer mem.Close()

	for _, db := range []*LevelDB{disk, mem} {
		require.NoError(t, db.Put(key, value))

		v, err := db.Get(key)
		require.NoError(t, err)
		assert.Equal(t, value, v)

		has, err := db.Has(key)
		require.NoError(t, err)
		assert.True(t, has)

		_, err = db.Get(inValidKey)
		assert.True(t, db.IsNotFound(err))

		require.NoError(t, db.Delete(key))
		has, err = db.Has(key)
		require.NoError(t, err)
		assert.False(t, has)
	}
}

func TestBulk(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put([]byte("gone"), []byte("x")))

	b := db.Bulk()
	require.NoError(t, b.Put([]byte("a"), []byte("1")))
	require.NoError(t, b.Put([]byte("b"), []byte("2")))
	require.NoError(t, b.Delete([]byte("gone")))
	assert.Equal(t, 3, b.Len())

	// nothing visible before Write
	has, err := db.Has([]byte("a"))
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, b.Write())
	assert.Equal(t, 0, b.Len())

	v, err := db.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	_, err = db.Get([]byte("gone"))
	assert.True(t, db.IsNotFound(err))
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lvldb")

	db, err := New(path, Options{})
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	db, err = New(path, Options{})
	require.NoError(t, err)
	defer db.Close()

	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}
