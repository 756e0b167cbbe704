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

import "time"

// Producer 是被记忆化的昂贵函数，签名为 K -> (V, error)。
//
// 缓存把 Producer 当作纯函数看待：对同一个 k，Producer 可能被调用一次，
// 也可能因为分片布局或 PerWorker 复制而被调用多次，缓存只保证返回
// Producer 本次调用产生的值。Producer 返回的 error 会原样传给调用者，
// 缓存既不重试也不记忆化失败结果。
type Producer[K comparable, V any] func(k K) (V, error)

// Reporter 是所有拓扑共享的只读统计视图。
//
// 统计查询本身不接触底层存储：读取 Hits/Misses 等计数器不会影响
// LRU 的淘汰顺序，也不会改变命中率。
type Reporter interface {
	// Hits 返回累计命中次数。
	Hits() uint64
	// Misses 返回累计未命中次数（生产函数被成功调用并写入的次数）。
	Misses() uint64
	// Lookups 返回累计查询次数，恒等于 Hits()+Misses()。
	Lookups() uint64
	// Capacity 返回该缓存对象观察到的总容量。
	Capacity() uint64
	// TotalLookupTime 返回所有 Get 调用累计花费的时间，含命中、未命中与生产函数故障路径。
	TotalLookupTime() time.Duration
	// String 返回形如 "Cache [ capacity: C, hits: H, misses: M, hit rate: R ]" 的摘要。
	String() string
}

// Cache 是记忆化缓存的公共契约，四种拓扑（Single、PerWorker、
// RingShared、RingOpportunistic）都实现它，调用方可以在不改动业务
// 代码的前提下切换底层拓扑。
type Cache[K comparable, V any] interface {
	Reporter

	// Get 返回满足 v == P(k) 的 v。除该拓扑自身的加锁纪律外不做任何阻塞。
	// 生产函数故障会原样向上传播，不更新任何统计计数，也不写入条目。
	Get(k K) (V, error)

	// GetMany 等价于对 ks 逐个调用 Get，但保留输入的顺序与重复次数。
	// 具体实现可以对内部做批处理优化。
	GetMany(ks []K) ([]V, error)
}
