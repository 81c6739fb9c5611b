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
// Package runtime formats goroutine stacks for panic logging.
package runtime

import (
	"fmt"
	"runtime"
	"strings"
)

// Stack returns the call stack of the caller, one "file:line function" per line.
// Stack 获取调用者的堆栈信息
func Stack() string {
	return stack(3)
}

// Recovered formats a recovered panic value together with the stack of the
// function that recovered it.
func Recovered(r interface{}) string {
	return fmt.Sprintf("%v\n%s", r, stack(3))
}

// stack skips runtime.Callers, stack and the exported wrapper, so frames start
// at the wrapper's caller.
func stack(skip int) string {
	pc := make([]uintptr, 32)
	n := runtime.Callers(skip, pc)
	frames := runtime.CallersFrames(pc[:n])
	var b strings.Builder
	for {
		f, more := frames.Next()
		fmt.Fprintf(&b, " %s:%d %s\n", f.File, f.Line, f.Function)
		if !more {
			break
		}
	}
	return b.String()
}
