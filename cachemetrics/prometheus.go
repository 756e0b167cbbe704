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

// Package cachemetrics 把 cache.Reporter 的统计口径接到
// prometheus/client_golang，供进程内已有的 /metrics 端点采集，与
// msgtransfer 里各服务自建 Prometheus 端口的角色相同，只是这里导出的
// 是缓存命中率而不是消息处理吞吐。
package cachemetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gophercv/bowcache/cache"
)

// Collector 是一个 prometheus.Collector，按 Collect 调用时的实时值
// 轮询一个 cache.Reporter，导出命中数、未命中数、查询数、容量、
// 命中率与累计查询耗时。它本身不持有任何状态，也不会给 Get 热路径
// 带来任何开销。
type Collector struct {
	reporter cache.Reporter
	topic    string

	hits            *prometheus.Desc
	misses          *prometheus.Desc
	lookups         *prometheus.Desc
	capacity        *prometheus.Desc
	hitRate         *prometheus.Desc
	lookupTimeNanos *prometheus.Desc
}

// NewCollector 构造一个采集 reporter 的 Collector，topic 会作为
// "topic" 标签附在每个导出的指标上，便于同一进程里区分多个缓存实例。
func NewCollector(topic string, reporter cache.Reporter) *Collector {
	labels := []string{"topic"}
	fq := func(name string) string { return "bowcache_" + name }
	return &Collector{
		reporter: reporter,
		topic:    topic,
		hits: prometheus.NewDesc(fq("hits_total"),
			"Cumulative number of cache hits.", labels, nil),
		misses: prometheus.NewDesc(fq("misses_total"),
			"Cumulative number of cache misses (successful producer calls).", labels, nil),
		lookups: prometheus.NewDesc(fq("lookups_total"),
			"Cumulative number of Get calls, always equal to hits plus misses.", labels, nil),
		capacity: prometheus.NewDesc(fq("capacity"),
			"Configured entry capacity of the cache.", labels, nil),
		hitRate: prometheus.NewDesc(fq("hit_rate"),
			"hits / (hits + misses), NaN before the first lookup.", labels, nil),
		lookupTimeNanos: prometheus.NewDesc(fq("lookup_time_nanoseconds_total"),
			"Cumulative time spent inside Get, including producer-fault calls.", labels, nil),
	}
}

// Describe 把所有指标描述发到 ch，满足 prometheus.Collector。
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.lookups
	ch <- c.capacity
	ch <- c.hitRate
	ch <- c.lookupTimeNanos
}

// Collect 在每次抓取时读取 reporter 的当前值。Hits/Misses/Lookups
// 是单调递增的计数器，Capacity/HitRate 是瞬时值用 Gauge 语义导出。
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(c.reporter.Hits()), c.topic)
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(c.reporter.Misses()), c.topic)
	ch <- prometheus.MustNewConstMetric(c.lookups, prometheus.CounterValue, float64(c.reporter.Lookups()), c.topic)
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(c.reporter.Capacity()), c.topic)
	ch <- prometheus.MustNewConstMetric(c.lookupTimeNanos, prometheus.CounterValue, float64(c.reporter.TotalLookupTime().Nanoseconds()), c.topic)

	hits, misses := float64(c.reporter.Hits()), float64(c.reporter.Misses())
	ch <- prometheus.MustNewConstMetric(c.hitRate, prometheus.GaugeValue, hits/(hits+misses), c.topic)
}
