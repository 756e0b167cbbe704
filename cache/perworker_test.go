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
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 两个不同 worker 请求同一个 key 各自落到自己的分片，允许重复计算——
// 这正是与 Ring 拓扑的区别。
func TestPerWorkerDuplicatesComputationAcrossWorkers(t *testing.T) {
	var calls atomic.Int64
	pw, err := NewPerWorker[int, int](4, 2, squareProducer(&calls), nil)
	require.NoError(t, err)

	v0, err := pw.GetForWorker(0, 7)
	require.NoError(t, err)
	assert.Equal(t, 49, v0)

	v1, err := pw.GetForWorker(1, 7)
	require.NoError(t, err)
	assert.Equal(t, 49, v1)

	assert.EqualValues(t, 2, calls.Load(), "same key on two different workers should compute twice")
	assert.EqualValues(t, 2, pw.Misses())
	assert.EqualValues(t, 0, pw.Hits())

	v0again, err := pw.GetForWorker(0, 7)
	require.NoError(t, err)
	assert.Equal(t, 49, v0again)
	assert.EqualValues(t, 1, pw.Hits())
	assert.EqualValues(t, pw.Hits()+pw.Misses(), pw.Lookups())
}

func TestPerWorkerRejectsCapacityBelowWorkers(t *testing.T) {
	_, err := NewPerWorker[int, int](1, 2, func(k int) (int, error) { return k, nil }, nil)
	require.Error(t, err)
}

func TestPerWorkerDefaultResolverRoundRobins(t *testing.T) {
	var calls atomic.Int64
	pw, err := NewPerWorker[int, int](6, 3, squareProducer(&calls), nil)
	require.NoError(t, err)

	// 没有自带工作池的调用方通过默认解析器依次落到 0,1,2,0,1,2 分片。
	for i := 0; i < 6; i++ {
		_, err := pw.Get(1)
		require.NoError(t, err)
	}
	// 每个分片各被访问了两次同一个 key：各自第一次未命中，第二次命中。
	assert.EqualValues(t, 3, pw.Misses())
	assert.EqualValues(t, 3, pw.Hits())
}

func TestPerWorkerGetManyForWorker(t *testing.T) {
	var calls atomic.Int64
	pw, err := NewPerWorker[int, int](8, 2, squareProducer(&calls), nil)
	require.NoError(t, err)

	vs, err := pw.GetManyForWorker(0, []int{2, 3, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 9, 4}, vs)
	assert.EqualValues(t, 2, calls.Load())
}

// 每个 worker 在自己的分片上狂轰滥炸一个随机 key 宇宙，分片之间互不
// 干扰，所以这里不像 RingShared 那样断言 miss 数不超过 key 宇宙大小——
// 同一个 key 在不同 worker 上各自未命中一次是这个拓扑允许的行为。总容量
// 取 workers*keyUniverse，每个分片都装得下整个 key 宇宙、不发生淘汰，
// 所以每个 key 在每个 worker 上最多未命中一次，miss 数的上界是
// workers*keyUniverse；此外计数器定律必须始终成立，每次返回值都必须正确。
func TestPerWorkerConcurrentFloodMaintainsCounterLaw(t *testing.T) {
	const (
		workers      = 8
		opsPerWorker = 2000
		keyUniverse  = 500
	)
	var calls atomic.Int64
	pw, err := NewPerWorker[int, int](workers*keyUniverse, workers, squareProducer(&calls), nil)
	require.NoError(t, err)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(int64(worker)))
			for i := 0; i < opsPerWorker; i++ {
				k := r.Intn(keyUniverse)
				v, err := pw.GetForWorker(worker, k)
				assert.NoError(t, err)
				assert.Equal(t, k*k, v)
			}
		}(w)
	}
	wg.Wait()
	t.Logf("flooded PerWorker with %d workers x %d ops in %s", workers, opsPerWorker, time.Since(start))

	assert.EqualValues(t, pw.Hits()+pw.Misses(), pw.Lookups(), "counter law must hold under contention")
	assert.LessOrEqual(t, pw.Misses(), uint64(workers*keyUniverse), "misses cannot exceed worker-local key universe")
}
