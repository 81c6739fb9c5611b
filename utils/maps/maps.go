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
// Package maps decodes configuration maps into structs.
package maps

import (
	"github.com/mitchellh/mapstructure"
)

// Map2Struct decodes input into output, a pointer to a struct or map.
// Strings are converted to time.Duration ("10s") and slices ("a,b"), and
// weakly typed input is accepted, e.g. "3" for an int field.
// Map2Struct 把配置 map 解析到结构体
func Map2Struct(input interface{}, output interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// Struct2Map encodes a struct into a map keyed by field name (or mapstructure tag).
func Struct2Map(input interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	err := mapstructure.Decode(input, &out)
	return out, err
}
