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

// Package json encodes without HTML escaping, so that invocation arguments
// such as "<b>" stay readable in events and console responses.
package json

import (
	"bytes"
	"encoding/json"
)

// Marshal encodes v without escaping &, < and >.
func Marshal(v interface{}) ([]byte, error) {
	return Marshal2(v, false)
}

func Marshal2(v interface{}, escapeHTML bool) ([]byte, error) {
	var byteBuf bytes.Buffer
	encoder := json.NewEncoder(&byteBuf)
	encoder.SetEscapeHTML(escapeHTML)
	err := encoder.Encode(v)
	if err == nil && byteBuf.Len() > 0 {
		//去掉 Encode 追加的换行
		return byteBuf.Bytes()[:byteBuf.Len()-1], err
	}
	return byteBuf.Bytes(), err
}

func Unmarshal(b []byte, m interface{}) error {
	return json.Unmarshal(b, m)
}
