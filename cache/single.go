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
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/openimsdk/tools/errs"
)

// UnlockedSingle 是不加任何锁的核心算法：一个 simplelru.LRU 存储
// 一个 Producer，两者都不做并发保护。它既可以独立用作 goroutine 私有
// 缓存，也是 PerWorker 与两种 Ring 拓扑内部的分片原语。
//
// 在 Producer 内部对同一个 UnlockedSingle 递归调用 Get 不会自死锁，
// 因为它不持有任何锁；加了锁的 Single 和两种 Ring 拓扑在 Producer 里
// 递归 Get 则可能卡在调用方自己持有的锁上。
type UnlockedSingle[K comparable, V any] struct {
	store    *simplelru.LRU[K, V]
	producer Producer[K, V]
	stats    *Stats
}

// NewUnlockedSingle 构造一个容量为 capacity、生产函数为 producer 的
// 未加锁缓存。capacity<=0 或 producer==nil 都是构造故障，返回
// errs.ErrArgs 包装过的错误，不会 panic。
func NewUnlockedSingle[K comparable, V any](capacity int, producer Producer[K, V]) (*UnlockedSingle[K, V], error) {
	if capacity <= 0 {
		return nil, errs.ErrArgs.WrapMsg(fmt.Sprintf("cache: capacity must be positive, got %d", capacity))
	}
	if producer == nil {
		return nil, errs.ErrArgs.WrapMsg("cache: producer must not be nil")
	}
	store, err := simplelru.NewLRU[K, V](capacity, nil)
	if err != nil {
		return nil, errs.WrapMsg(err, "cache: failed to construct underlying LRU store")
	}
	return &UnlockedSingle[K, V]{
		store:    store,
		producer: producer,
		stats:    newStats(uint64(capacity)),
	}, nil
}

// Get 是不加锁的核心算法：命中直接返回，未命中调用 Producer，写入
// 存储后返回。计时覆盖命中、未命中与生产函数故障三条路径，故障路径
// 不更新 hits/misses，只累加耗时。
func (c *UnlockedSingle[K, V]) Get(k K) (V, error) {
	start := time.Now()
	if v, ok := c.store.Get(k); ok {
		c.stats.recordHit(time.Since(start))
		return v, nil
	}

	v, err := c.producer(k)
	if err != nil {
		c.stats.recordFault(time.Since(start))
		var zero V
		return zero, err
	}

	c.store.Add(k, v)
	if c.store.Len() > int(c.stats.Capacity()) {
		panic(fmt.Sprintf("cache: invariant violated, %d entries exceed capacity %d", c.store.Len(), c.stats.Capacity()))
	}
	c.stats.recordMiss(time.Since(start))
	return v, nil
}

// GetMany 顺序对每个 key 调用 Get，保留输入的顺序与重复次数。
// UnlockedSingle 没有并发保护，批处理没有并行化的余地。
func (c *UnlockedSingle[K, V]) GetMany(ks []K) ([]V, error) {
	vs := make([]V, len(ks))
	for i, k := range ks {
		v, err := c.Get(k)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}

func (c *UnlockedSingle[K, V]) Hits() uint64                   { return c.stats.Hits() }
func (c *UnlockedSingle[K, V]) Misses() uint64                 { return c.stats.Misses() }
func (c *UnlockedSingle[K, V]) Lookups() uint64                { return c.stats.Lookups() }
func (c *UnlockedSingle[K, V]) Capacity() uint64               { return c.stats.Capacity() }
func (c *UnlockedSingle[K, V]) TotalLookupTime() time.Duration { return c.stats.TotalLookupTime() }
func (c *UnlockedSingle[K, V]) String() string                 { return c.stats.String() }

// Single 是粗粒度锁版本：一把 sync.Mutex 在整个 Get/GetMany 调用期间
// 持有，串行化整个算法，对应 cache.hpp 里的 #pragma omp critical 块。
// 线程数较少、或者需要一个正确性基线来对比其他拓扑时用这个实现。
type Single[K comparable, V any] struct {
	mu   sync.Mutex
	core *UnlockedSingle[K, V]
}

// NewSingle 构造一个粗粒度锁定的 Single 缓存。
func NewSingle[K comparable, V any](capacity int, producer Producer[K, V]) (*Single[K, V], error) {
	core, err := NewUnlockedSingle[K, V](capacity, producer)
	if err != nil {
		return nil, err
	}
	return &Single[K, V]{core: core}, nil
}

// Get 在持有互斥锁期间委托给 UnlockedSingle.Get，包括调用 Producer
// 的过程——这正是"粗粒度"的含义：Producer 本身也在临界区内执行。
func (c *Single[K, V]) Get(k K) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.core.Get(k)
}

// GetMany 在同一把锁下顺序处理整批 key，保证批内可见的是一次性快照。
func (c *Single[K, V]) GetMany(ks []K) ([]V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.core.GetMany(ks)
}

func (c *Single[K, V]) Hits() uint64                   { return c.core.Hits() }
func (c *Single[K, V]) Misses() uint64                 { return c.core.Misses() }
func (c *Single[K, V]) Lookups() uint64                { return c.core.Lookups() }
func (c *Single[K, V]) Capacity() uint64               { return c.core.Capacity() }
func (c *Single[K, V]) TotalLookupTime() time.Duration { return c.core.TotalLookupTime() }
func (c *Single[K, V]) String() string                 { return c.core.String() }
