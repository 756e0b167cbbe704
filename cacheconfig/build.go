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

package cacheconfig

import (
	"context"
	"fmt"

	"github.com/gophercv/bowcache/cache"
	"github.com/openimsdk/tools/log"
	"golang.org/x/exp/constraints"
)

// Build 把一份验证过的 Config 变成具体的 cache.Cache[K,V] 实例。
//
// K 被要求满足 constraints.Integer 而不是单纯的 comparable，因为
// Ring 系列拓扑的路由函数需要对键做除法和取模；Single 与 PerWorker
// 并不用到这个能力，但同一个 Build 入口对五种拓扑一视同仁更符合
// 配置驱动构造的直觉——调用方不需要在编译期就知道最终选中的是哪种
// 拓扑。
func Build[K constraints.Integer, V any](cfg *Config, producer cache.Producer[K, V]) (cache.Cache[K, V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.ZDebug(context.Background(), "cacheconfig: building cache", "topic", cfg.Topic,
		"topology", cfg.Topology, "capacity", cfg.Capacity, "workers", cfg.Workers)

	switch cfg.Topology {
	case TopologySingle:
		return cache.NewUnlockedSingle[K, V](cfg.Capacity, producer)
	case TopologySingleCoarse:
		return cache.NewSingle[K, V](cfg.Capacity, producer)
	case TopologyPerWorker:
		return cache.NewPerWorker[K, V](cfg.Capacity, cfg.Workers, producer, nil)
	case TopologyRingShared:
		return cache.NewRingShared[K, V](cfg.Capacity, cfg.Workers, producer)
	case TopologyRingOpportunistic:
		return cache.NewRingOpportunistic[K, V](cfg.Capacity, cfg.Workers, producer)
	default:
		return nil, fmt.Errorf("cacheconfig: unknown topology %q", cfg.Topology)
	}
}
