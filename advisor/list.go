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
package advisor

import (
	"sort"

	"github.com/rulego/aop/api/types"
)

// List is a list of advisors sortable by Order. Sorting is stable, so
// unordered advisors keep their relative positions.
type List []types.Advisor

func (l List) Len() int           { return len(l) }
func (l List) Less(i, j int) bool { return l[i].Order() < l[j].Order() }
func (l List) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }

// Sort sorts advisors by order, in place, and returns them.
func Sort(advisors []types.Advisor) []types.Advisor {
	sort.Stable(List(advisors))
	return advisors
}

// Merge merges advisors from two sources into one list: shared advisors
// applying to every proxy and the advisors specific to one target. The caller
// decides which source goes first for equal orders; explicit orders are then
// honoured across both. The inputs are not modified.
//
// Order only matters here: once a proxy is built its chain follows the
// configured advisor order exactly.
// Merge 合并公共顾问和特定顾问，commonFirst 决定相同顺序时哪一方在前
func Merge(common, specific []types.Advisor, commonFirst bool) []types.Advisor {
	merged := make([]types.Advisor, 0, len(common)+len(specific))
	if commonFirst {
		merged = append(append(merged, common...), specific...)
	} else {
		merged = append(append(merged, specific...), common...)
	}
	return Sort(merged)
}
