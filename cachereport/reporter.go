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

// Package cachereport 周期性地把一个 cache.Reporter 的 String()
// 快照写到一个文本 io.Writer 汇聚点，用 robfig/cron/v3 驱动调度，
// 而不是自己拼一个 time.Ticker 循环。
package cachereport

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/openimsdk/tools/log"

	"github.com/gophercv/bowcache/cache"
)

// Reporter 定期把 reporter 的统计摘要写到 sink，每次写入都带上 topic
// 前缀，便于同一个 sink 汇聚多个缓存实例的报告。
type Reporter struct {
	topic    string
	reporter cache.Reporter
	sink     io.Writer

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
}

// NewReporter 构造一个尚未启动调度的 Reporter。topic 仅用于给写入
// sink 的每一行加前缀，不影响 reporter 本身的统计口径。
func NewReporter(topic string, reporter cache.Reporter, sink io.Writer) *Reporter {
	return &Reporter{
		topic:    topic,
		reporter: reporter,
		sink:     sink,
		cron:     cron.New(),
	}
}

// Start 按标准 cron 五段表达式 spec 注册周期任务并启动调度器。
// 重复调用 Start 会先停止旧的调度再注册新的。
func (r *Reporter) Start(spec string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entryID != 0 {
		r.cron.Remove(r.entryID)
	}

	id, err := r.cron.AddFunc(spec, r.report)
	if err != nil {
		return fmt.Errorf("cachereport: failed to schedule %q: %w", spec, err)
	}
	r.entryID = id
	r.cron.Start()
	return nil
}

// Stop 停止调度器，等待正在执行的任务结束后返回。
func (r *Reporter) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// ReportNow 立即写一次快照，绕开调度，供测试或手动触发使用。
func (r *Reporter) ReportNow() {
	r.report()
}

func (r *Reporter) report() {
	line := fmt.Sprintf("[%s] %s\n", r.topic, r.reporter.String())
	if _, err := r.sink.Write([]byte(line)); err != nil {
		log.ZWarn(context.Background(), "cachereport: failed to write snapshot", err, "topic", r.topic)
	}
}
