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

// Package cacheconfig 提供从 YAML 配置文件加载 cache 包拓扑参数的
// 能力，收窄到本模块实际用到的字段：主题、拓扑、容量、工作线程数。
// 不带 TTL 相关字段，因为这一层缓存本身就不做过期淘汰。
package cacheconfig

import "fmt"

// Topology 枚举 cache 包提供的四种可互换拓扑，其中 Single 拓扑分
// 不加锁（single）与粗粒度锁（single_coarse）两个取值，共五个取值。
type Topology string

const (
	TopologySingle            Topology = "single"
	TopologySingleCoarse      Topology = "single_coarse"
	TopologyPerWorker         Topology = "per_worker"
	TopologyRingShared        Topology = "ring_shared"
	TopologyRingOpportunistic Topology = "ring_opportunistic"
)

// Config 是一个缓存实例的调优配置。
//
// - Topic: 缓存主题名称，用于区分不同的缓存实例（比如 "bow_vectors"
//   与 "dense_features"），仅用于日志与指标标签。
// - Topology: 使用哪一种拓扑实现。
// - Capacity: 缓存的总条目容量。
// - Workers: PerWorker/RingShared/RingOpportunistic 的分片（工作
//   线程）数量；Single/UnlockedSingle 会忽略这个字段。
type Config struct {
	Topic    string   `mapstructure:"topic"`    // 缓存主题名称
	Topology Topology `mapstructure:"topology"` // 拓扑类型
	Capacity int      `mapstructure:"capacity"` // 总容量
	Workers  int      `mapstructure:"workers"`  // 分片/工作线程数量
}

// Enable 报告这份配置是否描述了一个应当被构造的缓存实例。
// 一个空 Topic 意味着这个位置在配置文件里没有被启用。
func (c *Config) Enable() bool {
	return c != nil && c.Topic != ""
}

// Default 返回一份保守的默认配置：粗粒度锁的 Single 拓扑，容量 1024。
// 用作没有显式配置时的兜底，或者测试里的起点。
func Default() *Config {
	return &Config{
		Topic:    "default",
		Topology: TopologySingleCoarse,
		Capacity: 1024,
		Workers:  1,
	}
}

// Validate 检查配置在交给 cache 包的构造函数之前是否自洽：容量必须
// 为正，分片类拓扑的工作线程数不能超过容量，且拓扑名必须是已知值。
func (c *Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("cacheconfig: capacity must be positive, got %d", c.Capacity)
	}
	switch c.Topology {
	case TopologySingle, TopologySingleCoarse:
		return nil
	case TopologyPerWorker, TopologyRingShared, TopologyRingOpportunistic:
		if c.Workers <= 0 {
			return fmt.Errorf("cacheconfig: topology %q requires a positive worker count", c.Topology)
		}
		if c.Capacity < c.Workers {
			return fmt.Errorf("cacheconfig: capacity %d smaller than worker count %d", c.Capacity, c.Workers)
		}
		return nil
	default:
		return fmt.Errorf("cacheconfig: unknown topology %q", c.Topology)
	}
}
