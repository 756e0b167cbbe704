// Copyright © 2024 OpenIM. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openimsdk/tools/errs"
	"golang.org/x/exp/constraints"
	"golang.org/x/sync/errgroup"
)

// ringShardConcurrentLimit 限制 GetMany 分片扇出时同时在跑的协程数，
// 与 redis 分片管理器里 defaultConcurrentLimit 的角色相同：避免一次
// 批量调用把所有分片同时打满。
const ringShardConcurrentLimit = 8

// shardIndex 是两种 Ring 拓扑共用的路由函数：shard(k) = ⌊k/S⌋ mod N，
// 直接对应 original_source 里 MultiRingCache::operator() 的
// (k / _single_capacity) % omp_get_max_threads()。
func shardIndex[K constraints.Integer](k K, shardCapacity, workers int) int {
	idx := int(k) / shardCapacity % workers
	if idx < 0 {
		idx += workers
	}
	return idx
}

// RingShared 把键空间按 shard(k) = ⌊k/S⌋ mod N 路由到 N 个分片，每个
// 分片各自一把 sync.Mutex，在分发出去的 UnlockedSingle.Get 调用期间
// 持有。需要跨调用方去重、且能接受倾斜键分布下竞争的场景使用这个
// 拓扑。
type RingShared[K constraints.Integer, V any] struct {
	shards        []*UnlockedSingle[K, V]
	locks         []sync.Mutex
	shardCapacity int
	workers       int
}

// NewRingShared 构造一个 workers 个分片、总容量 capacity 的共享环形
// 缓存。capacity < workers 是构造故障。
func NewRingShared[K constraints.Integer, V any](capacity, workers int, producer Producer[K, V]) (*RingShared[K, V], error) {
	shards, shardCapacity, err := newRingShards[K, V](capacity, workers, producer)
	if err != nil {
		return nil, err
	}
	return &RingShared[K, V]{
		shards:        shards,
		locks:         make([]sync.Mutex, workers),
		shardCapacity: shardCapacity,
		workers:       workers,
	}, nil
}

func newRingShards[K constraints.Integer, V any](capacity, workers int, producer Producer[K, V]) ([]*UnlockedSingle[K, V], int, error) {
	if workers <= 0 {
		return nil, 0, errs.ErrArgs.WrapMsg(fmt.Sprintf("cache: workers must be positive, got %d", workers))
	}
	if capacity < workers {
		return nil, 0, errs.ErrArgs.WrapMsg(fmt.Sprintf("cache: capacity %d smaller than worker count %d", capacity, workers))
	}
	shardCapacity := capacity / workers
	shards := make([]*UnlockedSingle[K, V], workers)
	for i := range shards {
		shard, err := NewUnlockedSingle[K, V](shardCapacity, producer)
		if err != nil {
			return nil, 0, errs.WrapMsg(err, "cache: failed to construct ring shard", "shard", i)
		}
		shards[i] = shard
	}
	return shards, shardCapacity, nil
}

func (c *RingShared[K, V]) shardFor(k K) int {
	return shardIndex(k, c.shardCapacity, c.workers)
}

// Get 锁定 k 所属的分片，委托给该分片的 UnlockedSingle.Get，再解锁。
func (c *RingShared[K, V]) Get(k K) (V, error) {
	i := c.shardFor(k)
	c.locks[i].Lock()
	defer c.locks[i].Unlock()
	return c.shards[i].Get(k)
}

// GetMany 按分片对 ks 分组，用 errgroup 并发扇出各分片的批处理，再把
// 结果按原始下标写回预分配好的切片，保持输入的顺序与重复次数不受
// 并发调度影响。这与 RedisShardManager.ProcessKeysBySlot 的
// 分组-扇出结构相同，只是把 Redis 槽位换成了 LRU 分片。
func (c *RingShared[K, V]) GetMany(ks []K) ([]V, error) {
	return ringGetMany(c, ks)
}

// ringGetMany 是 RingShared 和 RingOpportunistic 共用的批处理扇出
// 实现：每个分片各自的 Get 已经携带了该拓扑自己的加锁纪律，扇出本身
// 不关心是共享锁还是机会性 try-lock。
func ringGetMany[K constraints.Integer, V any](c interface {
	shardFor(K) int
	numShards() int
	Get(K) (V, error)
}, ks []K) ([]V, error) {
	groups := make(map[int][]int, c.numShards())
	for i, k := range ks {
		s := c.shardFor(k)
		groups[s] = append(groups[s], i)
	}

	vs := make([]V, len(ks))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(ringShardConcurrentLimit)

	for _, indices := range groups {
		indices := indices
		g.Go(func() error {
			for _, idx := range indices {
				v, err := c.Get(ks[idx])
				if err != nil {
					return err
				}
				vs[idx] = v
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var zero []V
		return zero, err
	}
	return vs, nil
}

func (c *RingShared[K, V]) numShards() int { return c.workers }

func (c *RingShared[K, V]) aggregate() *Aggregate {
	stores := make([]*Stats, len(c.shards))
	var capacity uint64
	for i, shard := range c.shards {
		stores[i] = shard.stats
		capacity += shard.stats.Capacity()
	}
	return newAggregate(capacity, stores...)
}

func (c *RingShared[K, V]) Hits() uint64                   { return c.aggregate().Hits() }
func (c *RingShared[K, V]) Misses() uint64                 { return c.aggregate().Misses() }
func (c *RingShared[K, V]) Lookups() uint64                { return c.aggregate().Lookups() }
func (c *RingShared[K, V]) Capacity() uint64               { return c.aggregate().Capacity() }
func (c *RingShared[K, V]) TotalLookupTime() time.Duration { return c.aggregate().TotalLookupTime() }
func (c *RingShared[K, V]) String() string                 { return c.aggregate().String() }
