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

package cachemetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gophercv/bowcache/cache"
)

func TestCollectorRegistersAndCollects(t *testing.T) {
	c, err := cache.NewSingle[int, int](4, func(k int) (int, error) { return k * k, nil })
	require.NoError(t, err)

	_, err = c.Get(2)
	require.NoError(t, err)
	_, err = c.Get(2)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	collector := NewCollector("bow_vectors", c)
	require.NoError(t, reg.Register(collector))

	families, err := reg.Gather()
	require.NoError(t, err)

	metrics := map[string]*dto.MetricFamily{}
	for _, f := range families {
		metrics[f.GetName()] = f
	}

	require.Contains(t, metrics, "bowcache_hits_total")
	require.Contains(t, metrics, "bowcache_misses_total")
	require.Contains(t, metrics, "bowcache_hit_rate")

	hits := metrics["bowcache_hits_total"].GetMetric()[0]
	assert.Equal(t, float64(1), hits.GetCounter().GetValue())

	misses := metrics["bowcache_misses_total"].GetMetric()[0]
	assert.Equal(t, float64(1), misses.GetCounter().GetValue())

	rate := metrics["bowcache_hit_rate"].GetMetric()[0]
	assert.InDelta(t, 0.5, rate.GetGauge().GetValue(), 0.0001)
}
