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
)

// Stats 是单个存储（一个 UnlockedSingle 分片）的统计计数器集合。
//
// hits/misses/lookupNanos 都用 atomic.Uint64 承载，读操作不加锁：
// 单个计数器的读取永远是某个真实发生过的值，不会读到半个字长的
// 撕裂状态，但 (hits, misses, lookups) 这一组读数之间不保证互相
// 一致。Lookups() 永远由 Hits()+Misses() 现算，从结构上保证计数器
// 定律 lookups == hits + misses 恒成立。
type Stats struct {
	capacity    uint64
	hits        atomic.Uint64
	misses      atomic.Uint64
	lookupNanos atomic.Uint64
}

func newStats(capacity uint64) *Stats {
	return &Stats{capacity: capacity}
}

// Hits 返回累计命中次数。
func (s *Stats) Hits() uint64 { return s.hits.Load() }

// Misses 返回累计未命中次数。
func (s *Stats) Misses() uint64 { return s.misses.Load() }

// Lookups 恒等于 Hits()+Misses()，不单独存储。
func (s *Stats) Lookups() uint64 { return s.Hits() + s.Misses() }

// Capacity 返回构造时确定的存储容量，构造后不再变化。
func (s *Stats) Capacity() uint64 { return s.capacity }

// TotalLookupTime 返回所有 Get 调用（包括生产函数故障路径）累计耗时。
func (s *Stats) TotalLookupTime() time.Duration {
	return time.Duration(s.lookupNanos.Load())
}

// HitRate 用浮点除法给出 hits/(hits+misses)。当两者都为零时，结果是
// IEEE 754 的 NaN —— spec 明确接受这个结果，不做特殊到 0 的改写。
func (s *Stats) HitRate() float64 {
	h, m := float64(s.Hits()), float64(s.Misses())
	return h / (h + m)
}

// String 渲染统一格式的缓存摘要，四种拓扑共用同一实现。
func (s *Stats) String() string {
	return fmt.Sprintf("Cache [ capacity: %d, hits: %d, misses: %d, hit rate: %v ]",
		s.Capacity(), s.Hits(), s.Misses(), s.HitRate())
}

// recordHit 记录一次命中，并无条件累加本次查询耗时。
func (s *Stats) recordHit(elapsed time.Duration) {
	s.hits.Add(1)
	s.lookupNanos.Add(uint64(elapsed))
}

// recordMiss 记录一次未命中（生产函数成功返回并写入了条目）。
func (s *Stats) recordMiss(elapsed time.Duration) {
	s.misses.Add(1)
	s.lookupNanos.Add(uint64(elapsed))
}

// recordFault 处理生产函数故障路径：不动 hits/misses，只累加耗时。
//
// 这是对 spec 里 total_lookup_time 那处未完工代码（在计时语句之前就
// return 了）的显式修复：无条件累加，而不是复现那条死代码。
func (s *Stats) recordFault(elapsed time.Duration) {
	s.lookupNanos.Add(uint64(elapsed))
}

// Aggregate 把多个分片的 Stats 汇总成一个 Reporter，供 PerWorker 和
// Ring 系列的组合缓存对外暴露聚合口径的统计信息。
type Aggregate struct {
	capacity uint64
	stores   []*Stats
}

func newAggregate(capacity uint64, stores ...*Stats) *Aggregate {
	return &Aggregate{capacity: capacity, stores: stores}
}

// Hits 是所有分片 Hits() 之和。
func (a *Aggregate) Hits() uint64 {
	var total uint64
	for _, s := range a.stores {
		total += s.Hits()
	}
	return total
}

// Misses 是所有分片 Misses() 之和。
func (a *Aggregate) Misses() uint64 {
	var total uint64
	for _, s := range a.stores {
		total += s.Misses()
	}
	return total
}

// Lookups 恒等于 Hits()+Misses()。
func (a *Aggregate) Lookups() uint64 { return a.Hits() + a.Misses() }

// Capacity 返回 aggregate_capacity = N * floor(C/N)，构造时截断后的总容量。
func (a *Aggregate) Capacity() uint64 { return a.capacity }

// TotalLookupTime 是所有分片耗时之和。
func (a *Aggregate) TotalLookupTime() time.Duration {
	var total time.Duration
	for _, s := range a.stores {
		total += s.TotalLookupTime()
	}
	return total
}

// HitRate 用聚合后的 hits/misses 计算命中率。
func (a *Aggregate) HitRate() float64 {
	h, m := float64(a.Hits()), float64(a.Misses())
	return h / (h + m)
}

// String 渲染与单个 Stats 相同格式的摘要，只是数字是跨分片求和后的值。
func (a *Aggregate) String() string {
	return fmt.Sprintf("Cache [ capacity: %d, hits: %d, misses: %d, hit rate: %v ]",
		a.Capacity(), a.Hits(), a.Misses(), a.HitRate())
}
