/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package reflect

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/rulego/aop/test/assert"
)

type point struct {
	X, Y int
}

type tags struct {
	Values []string
}

type equaler struct {
	id int
}

func (e equaler) Equals(other interface{}) bool {
	o, ok := other.(equaler)
	return ok && o.id%10 == e.id%10
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, 1))
	assert.True(t, Equal(point{1, 2}, point{1, 2}))
	assert.False(t, Equal(point{1, 2}, point{2, 1}))
	assert.False(t, Equal(1, int64(1)))
	//不可比较类型不会panic
	assert.True(t, Equal(tags{Values: []string{"a"}}, tags{Values: []string{"a"}}))
	assert.False(t, Equal(tags{Values: []string{"a"}}, tags{Values: []string{"b"}}))
	assert.True(t, Equal(equaler{1}, equaler{11}))

	f := func() {}
	assert.True(t, Equal(f, f))
	assert.False(t, Equal(f, func() {}))
}

func TestSame(t *testing.T) {
	p := &point{1, 2}
	assert.True(t, Same(p, p))
	assert.False(t, Same(p, &point{1, 2}))
	assert.False(t, Same(nil, nil))
	assert.False(t, Same(p, point{1, 2}))
	s := []int{1, 2}
	assert.True(t, Same(s, s))
	assert.False(t, Same(s, s[:1]))
	assert.False(t, Same(tags{}, tags{}))
	assert.False(t, Same(1, 1))
}

func TestImplements(t *testing.T) {
	stringer := reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	assert.False(t, Implements(reflect.TypeOf(point{}), stringer))
	assert.True(t, Implements(reflect.TypeOf(p{}), stringer))
	assert.True(t, Implements(reflect.TypeOf(1), reflect.TypeOf(1)))
	assert.False(t, Implements(nil, stringer))
	assert.Equal(t, "<nil>", TypeName(nil))
	assert.Equal(t, "reflect.point", TypeName(point{}))
}

type p struct{}

func (p) String() string { return "p" }
