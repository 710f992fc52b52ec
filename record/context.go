// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package record

import (
	"github.com/pkg/errors"

	"github.com/scalemarket/staking/cache"
	"github.com/scalemarket/staking/kv"
	"github.com/scalemarket/staking/log"
	"github.com/scalemarket/staking/metrics"
	"github.com/scalemarket/staking/scale"
	"github.com/scalemarket/staking/stackedmap"
)

const keyPrefix = 'r'

var (
	logger = log.WithContext("pkg", "record")

	metricCacheHitRate = metrics.LazyLoadGauge("record_cache_hit_rate_permille")
)

// Usage counts record bytes allocated and released since the last commit.
type Usage struct {
	Allocated uint64
	Released  uint64
}

// Context is a journaled view over the kv store.
// Writes stay in the journal until Commit, and can be reverted to any checkpoint.
type Context struct {
	store   kv.Store
	cache   *cache.LRU
	journal *stackedmap.StackedMap[scale.Bytes32, []byte]
	usages  []Usage
}

// NewContext creates a context over store, caching up to cacheSize committed records.
func NewContext(store kv.Store, cacheSize int) (*Context, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	lru, err := cache.NewLRU(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create record cache")
	}
	c := &Context{store: store, cache: lru}
	c.reset()
	return c, nil
}

func (c *Context) reset() {
	c.journal = stackedmap.New(c.load)
	c.usages = []Usage{{}}
}

func storeKey(pos scale.Bytes32) []byte {
	return append([]byte{keyPrefix}, pos[:]...)
}

// load reads a committed value. An empty slice is cached for missing keys.
func (c *Context) load(pos scale.Bytes32) ([]byte, bool, error) {
	v, err := c.cache.GetOrLoad(pos, func(any) (any, error) {
		val, err := c.store.Get(storeKey(pos))
		if err != nil {
			if c.store.IsNotFound(err) {
				return []byte{}, nil
			}
			return nil, err
		}
		return val, nil
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "load record")
	}
	val := v.([]byte)
	return val, len(val) > 0, nil
}

// Get returns the value at pos, or nil if there is none.
func (c *Context) Get(pos scale.Bytes32) ([]byte, error) {
	v, ok, err := c.journal.Get(pos)
	if err != nil {
		return nil, err
	}
	if !ok || len(v) == 0 {
		return nil, nil
	}
	return v, nil
}

// Put sets the value at pos. A nil value deletes it.
func (c *Context) Put(pos scale.Bytes32, val []byte) {
	c.journal.Put(pos, val)
}

func (c *Context) usage() *Usage {
	return &c.usages[len(c.usages)-1]
}

// Checkpoint returns a revision that RevertTo accepts.
func (c *Context) Checkpoint() int {
	c.usages = append(c.usages, *c.usage())
	return c.journal.Push()
}

// RevertTo drops every write made after the given checkpoint.
func (c *Context) RevertTo(checkpoint int) {
	if checkpoint < 1 {
		checkpoint = 1
	}
	c.journal.PopTo(checkpoint)
	c.usages = c.usages[:checkpoint]
}

// Usage returns the usage recorded since the last commit.
func (c *Context) Usage() Usage {
	return *c.usage()
}

// Commit writes the journal to the store in one bulk and clears it.
func (c *Context) Commit() error {
	latest := make(map[scale.Bytes32][]byte)
	var order []scale.Bytes32
	for _, entry := range c.journal.Journal() {
		if _, ok := latest[entry.Key]; !ok {
			order = append(order, entry.Key)
		}
		latest[entry.Key] = entry.Value
	}

	bulk := c.store.Bulk()
	for _, pos := range order {
		var err error
		if val := latest[pos]; len(val) == 0 {
			err = bulk.Delete(storeKey(pos))
		} else {
			err = bulk.Put(storeKey(pos), val)
		}
		if err != nil {
			return errors.Wrap(err, "commit records")
		}
	}
	if err := bulk.Write(); err != nil {
		return errors.Wrap(err, "commit records")
	}

	for _, pos := range order {
		val := latest[pos]
		if val == nil {
			val = []byte{}
		}
		c.cache.Add(pos, val)
	}
	c.reset()

	if changed, hit, miss := c.cache.Stats(); changed && hit+miss > 0 {
		metricCacheHitRate().Set(hit * 1000 / (hit + miss))
		logger.Debug("record cache stats", "hit", hit, "miss", miss)
	}
	return nil
}

// Discard drops all uncommitted writes.
func (c *Context) Discard() {
	c.reset()
}

func (c *Context) allocate(n int) {
	c.usage().Allocated += uint64(n)
}

func (c *Context) release(n int) {
	c.usage().Released += uint64(n)
}
