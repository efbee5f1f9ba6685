// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package callers

import (
	"sort"

	"github.com/awslabs/ar-fixpoint-tools/analysis/fixpoint"
	"github.com/awslabs/ar-fixpoint-tools/internal/funcutil"
	"github.com/awslabs/ar-fixpoint-tools/internal/graphutil"
	"golang.org/x/tools/go/ssa"
)

// RecursiveGroups returns the groups of mutually recursive functions among
// the entities, computed as the strongly connected components of the static
// call graph recorded in the caller sets. A singleton group is reported only
// when the function calls itself. Groups and their members are in a
// deterministic order.
func RecursiveGroups(store *fixpoint.Store, entities []*ssa.Function) [][]*ssa.Function {
	// SCCs are insensitive to edge direction reversal, so the caller relation
	// serves directly as the successor function.
	sccs := graphutil.StronglyConnectedComponents(entities, func(f *ssa.Function) []*ssa.Function {
		return CallersOf(store, f)
	})

	var groups [][]*ssa.Function
	for _, scc := range sccs {
		if len(scc) == 1 && !callsSelf(store, scc[0]) {
			continue
		}
		group := make([]*ssa.Function, len(scc))
		copy(group, scc)
		sort.Slice(group, func(i, j int) bool { return group[i].String() < group[j].String() })
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0].String() < groups[j][0].String() })
	return groups
}

func callsSelf(store *fixpoint.Store, f *ssa.Function) bool {
	return funcutil.Exists(CallersOf(store, f), func(c *ssa.Function) bool { return c == f })
}
