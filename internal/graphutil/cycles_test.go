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

package graphutil_test

import (
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/awslabs/ar-fixpoint-tools/analysis/properties"
	"github.com/awslabs/ar-fixpoint-tools/internal/funcutil"
	"github.com/awslabs/ar-fixpoint-tools/internal/graphutil"
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
)

func epk(e, k int32) properties.EPK {
	return properties.EPK{Entity: e, Kind: k}
}

func TestFindAllElementaryCycles(t *testing.T) {
	// Dependency graph of a run with two residual cycles: 0 <-> 1 and
	// 2 -> 3 -> 4 -> 2, plus an acyclic tail 5 -> 0.
	deps := map[properties.EPK][]properties.EPK{
		epk(0, 0): {epk(1, 0)},
		epk(1, 0): {epk(0, 0)},
		epk(2, 0): {epk(3, 0)},
		epk(3, 0): {epk(4, 0)},
		epk(4, 0): {epk(2, 0)},
		epk(5, 0): {epk(0, 0)},
	}
	dg := graphutil.NewDependencyGraph(deps)

	stats := graph.Check(dg)
	t.Logf("Stats:\n\tsize: %d\n\tmulti: %d\n\tloops: %d\n\tisolated: %d",
		stats.Size, stats.Multi, stats.Loops, stats.Isolated)
	if stats.Size != 6 {
		t.Fatalf("Expected 6 edges, found %d", stats.Size)
	}

	cycles := graphutil.FindAllElementaryCycles(dg)
	if len(cycles) != 2 {
		t.Fatalf("Expected 2 elementary cycles, found %d", len(cycles))
	}
	results := make([]string, len(cycles))
	for i, cycle := range cycles {
		results[i] = strings.Join(
			funcutil.Map(cycle, func(x int64) string { return strconv.Itoa(int(x)) }),
			"")
	}
	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	// Node ids follow the sorted entity order, so entity n is node n.
	expected := []string{"010", "2342"}
	if !slices.Equal(results, expected) {
		for i, s := range results {
			t.Logf("Cycle %d: %s", i, s)
		}
		t.Fatalf("Cycles not as expected")
	}
}

func TestNoCyclesInDag(t *testing.T) {
	deps := map[properties.EPK][]properties.EPK{
		epk(0, 0): {epk(1, 0), epk(2, 0)},
		epk(1, 0): {epk(2, 0)},
	}
	dg := graphutil.NewDependencyGraph(deps)
	if cycles := graphutil.FindAllElementaryCycles(dg); len(cycles) != 0 {
		t.Fatalf("Expected no cycles in a DAG, found %d", len(cycles))
	}
}

func TestSubgraphKeepsIds(t *testing.T) {
	deps := map[properties.EPK][]properties.EPK{
		epk(0, 0): {epk(1, 0)},
		epk(1, 0): {epk(2, 1)},
	}
	dg := graphutil.NewDependencyGraph(deps)
	sub := graphutil.Subgraph(dg, dg.Keys[1:])
	if sub.Order() != dg.Order() {
		t.Errorf("subgraph order must stay consistent with the original")
	}
	if sub.Edges[dg.Keys[1]] == nil {
		t.Errorf("subgraph should keep edges between included nodes")
	}
	for id := range sub.Edges[dg.Keys[0]] {
		t.Errorf("subgraph should not keep edge to excluded node %d", id)
	}
}
