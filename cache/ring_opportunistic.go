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
	"sync"
	"time"

	"golang.org/x/exp/constraints"
)

// RingOpportunistic 路由方式与 RingShared 完全相同，区别只在 Get 的
// 加锁纪律：从归属分片 i0 开始按 (i0+d) mod N，d = 0..N-1 依次
// TryLock，拿到哪个分片就在哪个分片处理；只有全部分片都被占用时才
// 退回去阻塞在归属分片 i0 上。
// 直接对应 cache.hpp 里 MultiRingPriorityCache::operator() 的
// omp_test_lock 循环加 omp_set_lock 兜底，适合高竞争、键值热点集中
// 的场景。
type RingOpportunistic[K constraints.Integer, V any] struct {
	shards        []*UnlockedSingle[K, V]
	locks         []sync.Mutex
	shardCapacity int
	workers       int
}

// NewRingOpportunistic 构造一个 workers 个分片、总容量 capacity 的
// 机会性环形缓存。capacity < workers 是构造故障。
func NewRingOpportunistic[K constraints.Integer, V any](capacity, workers int, producer Producer[K, V]) (*RingOpportunistic[K, V], error) {
	shards, shardCapacity, err := newRingShards[K, V](capacity, workers, producer)
	if err != nil {
		return nil, err
	}
	return &RingOpportunistic[K, V]{
		shards:        shards,
		locks:         make([]sync.Mutex, workers),
		shardCapacity: shardCapacity,
		workers:       workers,
	}, nil
}

func (c *RingOpportunistic[K, V]) shardFor(k K) int {
	return shardIndex(k, c.shardCapacity, c.workers)
}

func (c *RingOpportunistic[K, V]) numShards() int { return c.workers }

// Get 从归属分片 i0 开始依次对每个分片尝试 TryLock，拿到哪个就地处理，
// 归属分片忙时就落到空闲的邻居分片上；如果一圈下来全部分片都在忙，
// 退回去阻塞在 i0 上等待。这样在高竞争、
// 键值热点集中的场景下，请求可以"绕开"暂时被占用的归属分片。
func (c *RingOpportunistic[K, V]) Get(k K) (V, error) {
	i0 := c.shardFor(k)
	n := c.workers

	for d := 0; d < n; d++ {
		i := (i0 + d) % n
		if c.locks[i].TryLock() {
			v, err := c.dispatch(i, k)
			c.locks[i].Unlock()
			return v, err
		}
	}

	c.locks[i0].Lock()
	defer c.locks[i0].Unlock()
	return c.dispatch(i0, k)
}

// dispatch 把 k 交给 shard i 处理。i 不一定是 k 的归属分片：机会性
// 路径可能落在一个恰好空闲的邻居分片上，所以同一个 k 可能在多个分片里
// 各自调用一次 Producer、各存一份。
func (c *RingOpportunistic[K, V]) dispatch(i int, k K) (V, error) {
	return c.shards[i].Get(k)
}

// GetMany 复用 RingShared 用的分组扇出结构：每个分发出去的 Get 已经
// 自带机会性加锁行为，批处理层不需要关心具体是共享锁还是 try-lock。
func (c *RingOpportunistic[K, V]) GetMany(ks []K) ([]V, error) {
	return ringGetMany(c, ks)
}

func (c *RingOpportunistic[K, V]) aggregate() *Aggregate {
	stores := make([]*Stats, len(c.shards))
	var capacity uint64
	for i, shard := range c.shards {
		stores[i] = shard.stats
		capacity += shard.stats.Capacity()
	}
	return newAggregate(capacity, stores...)
}

func (c *RingOpportunistic[K, V]) Hits() uint64    { return c.aggregate().Hits() }
func (c *RingOpportunistic[K, V]) Misses() uint64  { return c.aggregate().Misses() }
func (c *RingOpportunistic[K, V]) Lookups() uint64 { return c.aggregate().Lookups() }
func (c *RingOpportunistic[K, V]) Capacity() uint64 { return c.aggregate().Capacity() }
func (c *RingOpportunistic[K, V]) TotalLookupTime() time.Duration {
	return c.aggregate().TotalLookupTime()
}
func (c *RingOpportunistic[K, V]) String() string { return c.aggregate().String() }
