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
	"sync/atomic"
	"time"

	"github.com/openimsdk/tools/errs"
)

// PerWorker 给每个工作线程一个独立的 UnlockedSingle 分片，容量各为
// ⌊C/N⌋，分片之间完全不共享状态。适合 Producer 是确定性函数、且允许
// 不同工作线程各自重复计算同一个 key 的场景。
type PerWorker[K comparable, V any] struct {
	shards   []*UnlockedSingle[K, V]
	workerID func() int
}

// NewPerWorker 构造一个 workers 个分片、总容量 capacity 的 PerWorker
// 缓存。capacity < workers 是构造故障（拒绝退化成每个分片容量 1，
// 迫使配置错误在启动时就暴露出来，而不是悄悄退化）。
//
// workerID 是调用者提供的工作线程身份解析函数；传 nil 则使用内置的
// 原子轮询解析器，让没有自己工作池的调用方也能满足统一的 Cache[K,V]
// 契约。
func NewPerWorker[K comparable, V any](capacity, workers int, producer Producer[K, V], workerID func() int) (*PerWorker[K, V], error) {
	if workers <= 0 {
		return nil, errs.ErrArgs.WrapMsg(fmt.Sprintf("cache: workers must be positive, got %d", workers))
	}
	if capacity < workers {
		return nil, errs.ErrArgs.WrapMsg(fmt.Sprintf("cache: capacity %d smaller than worker count %d", capacity, workers))
	}
	shardCapacity := capacity / workers

	shards := make([]*UnlockedSingle[K, V], workers)
	for i := range shards {
		shard, err := NewUnlockedSingle[K, V](shardCapacity, producer)
		if err != nil {
			return nil, errs.WrapMsg(err, "cache: failed to construct PerWorker shard", "shard", i)
		}
		shards[i] = shard
	}

	if workerID == nil {
		workerID = roundRobinResolver(workers)
	}

	return &PerWorker[K, V]{shards: shards, workerID: workerID}, nil
}

// roundRobinResolver 返回一个 atomic.Uint64 驱动的轮询解析器，供没有
// 自己工作池的调用方使用，避免从 goroutine 局部状态推断身份。
func roundRobinResolver(workers int) func() int {
	var next atomic.Uint64
	return func() int {
		return int(next.Add(1)-1) % workers
	}
}

// Get 用注入的 workerID() 解析出当前调用者所属的分片，再委托给该
// 分片的 UnlockedSingle.Get。满足统一的 Cache[K,V] 契约。
func (c *PerWorker[K, V]) Get(k K) (V, error) {
	return c.GetForWorker(c.workerID(), k)
}

// GetMany 用同一个 workerID() 解析出的分片处理整批 key。
func (c *PerWorker[K, V]) GetMany(ks []K) ([]V, error) {
	return c.GetManyForWorker(c.workerID(), ks)
}

// GetForWorker 是 Design Notes 里偏好的显式参数形式：调用者自己声明
// 工作线程编号，绕开 workerID 解析器，便于测试和确定性复现。
func (c *PerWorker[K, V]) GetForWorker(workerID int, k K) (V, error) {
	return c.shards[c.normalize(workerID)].Get(k)
}

// GetManyForWorker 是 GetForWorker 的批量版本。
func (c *PerWorker[K, V]) GetManyForWorker(workerID int, ks []K) ([]V, error) {
	return c.shards[c.normalize(workerID)].GetMany(ks)
}

func (c *PerWorker[K, V]) normalize(workerID int) int {
	n := len(c.shards)
	m := workerID % n
	if m < 0 {
		m += n
	}
	return m
}

func (c *PerWorker[K, V]) aggregate() *Aggregate {
	stores := make([]*Stats, len(c.shards))
	var capacity uint64
	for i, shard := range c.shards {
		stores[i] = shard.stats
		capacity += shard.stats.Capacity()
	}
	return newAggregate(capacity, stores...)
}

func (c *PerWorker[K, V]) Hits() uint64                   { return c.aggregate().Hits() }
func (c *PerWorker[K, V]) Misses() uint64                 { return c.aggregate().Misses() }
func (c *PerWorker[K, V]) Lookups() uint64                { return c.aggregate().Lookups() }
func (c *PerWorker[K, V]) Capacity() uint64               { return c.aggregate().Capacity() }
func (c *PerWorker[K, V]) TotalLookupTime() time.Duration { return c.aggregate().TotalLookupTime() }
func (c *PerWorker[K, V]) String() string                 { return c.aggregate().String() }
