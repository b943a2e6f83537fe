// Copyright 2026 shelfwise Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpan(t *testing.T) {
	ctx, span := Start(context.Background(), "test", 10)
	assert.NotNil(t, ctx)
	assert.Equal(t, "test", span.Name())
	assert.Zero(t, span.Count())
	span.Add(3)
	span.Add(4)
	assert.Equal(t, 7, span.Count())
	span.End()
	assert.Equal(t, 10, span.Count())
}

func TestSpan_Child(t *testing.T) {
	ctx, parent := Start(context.Background(), "parent", 1)
	_, child := Start(ctx, "child", 5)
	assert.NotSame(t, parent, child)
	assert.Equal(t, "child", child.Name())
	child.Add(2)
	assert.Equal(t, 2, child.Count())
	assert.Zero(t, parent.Count())
}

func TestSpan_NilContext(t *testing.T) {
	ctx, span := Start(nil, "detached", 1)
	assert.Nil(t, ctx)
	assert.Equal(t, "detached", span.Name())
}
