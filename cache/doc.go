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

// Package cache 实现了图像检索流水线特征计算阶段之下的并发记忆化缓存层。
//
// 这一层记忆化一个昂贵的 K -> V 生产函数（典型场景是
// image_id -> 稀疏词袋向量 或 image_id -> 稠密特征向量），
// 在固定的内存预算下按 LRU 策略淘汰旧条目，并在大量工作线程并发访问下保持正确。
//
// 包内提供一个公共契约 Cache[K, V] 和四种可互换的拓扑实现，其中
// Single 拓扑有粗粒度锁与不加锁两种形式，共五个类型：
//
//  1. Single（粗粒度锁）：所有调用者共享一个存储，单把互斥锁串行化整个算法。
//     小线程数或作为正确性基线时使用。
//  2. UnlockedSingle：不加任何锁的核心算法，既可独立用作
//     goroutine 私有缓存，也是下面三种拓扑内部的分片原语。
//  3. PerWorker：每个工作线程一个独立的 UnlockedSingle，容量互不影响，
//     生产函数确定且允许跨工作线程重复计算时使用。
//  4. RingShared：N 个分片按 ⌊k/S⌋ mod N 路由，每个分片一把互斥锁，
//     需要去重且能接受倾斜键分布下的竞争时使用。
//  5. RingOpportunistic：路由方式与 RingShared 相同，但从归属分片开始依次 TryLock
//     各分片，归属分片忙时落到空闲的邻居分片上，只有全部分片都被占用时才阻塞在
//     归属分片上；适合高竞争、键值热点集中的场景。
//
// 四种实现共享同一组统计口径（Hits/Misses/Lookups/Capacity/TotalLookupTime），
// 由 Stats 以原子计数器实现，组合缓存通过 Aggregate 按分片求和。
//
// 本包不做的事情（与上层图像检索流水线的边界）：不做跨进程持久化，
// 不做跨主机的分布式缓存，不做自适应容量调整，不做 TTL 过期，
// 不做弱引用/软引用，也不缓存生产函数的失败结果。
package cache // import "github.com/gophercv/bowcache/cache"
