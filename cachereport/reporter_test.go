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

package cachereport

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gophercv/bowcache/cache"
)

func TestReportNowWritesSnapshot(t *testing.T) {
	c, err := cache.NewSingle[int, int](4, func(k int) (int, error) { return k * k, nil })
	require.NoError(t, err)
	_, err = c.Get(5)
	require.NoError(t, err)

	var buf bytes.Buffer
	r := NewReporter("bow_vectors", c, &buf)
	r.ReportNow()

	out := buf.String()
	if !strings.Contains(out, "bow_vectors") {
		t.Fatalf("output %q should contain the topic prefix", out)
	}
	if !strings.Contains(out, "capacity: 4") {
		t.Fatalf("output %q should contain the reporter's String() summary", out)
	}
}

func TestStartRejectsInvalidCronSpec(t *testing.T) {
	c, err := cache.NewSingle[int, int](2, func(k int) (int, error) { return k, nil })
	require.NoError(t, err)

	var buf bytes.Buffer
	r := NewReporter("t", c, &buf)
	err = r.Start("not a cron spec")
	assert.Error(t, err)
}

func TestStartAndStop(t *testing.T) {
	c, err := cache.NewSingle[int, int](2, func(k int) (int, error) { return k, nil })
	require.NoError(t, err)

	var buf bytes.Buffer
	r := NewReporter("t", c, &buf)
	require.NoError(t, r.Start("@every 1h"))
	r.Stop()
}
