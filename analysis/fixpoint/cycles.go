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

package fixpoint

import (
	"strings"

	"github.com/awslabs/ar-fixpoint-tools/analysis/properties"
	"github.com/awslabs/ar-fixpoint-tools/internal/graphutil"
)

// recordResidualCycles captures the elementary dependency cycles between
// non-final keys at quiescence, before fallback resolution breaks them. The
// cycles are the mutually recursive analysis groups the run could not resolve
// by computation alone. Cycles accumulate across resolution rounds: a later
// round with no residual edges does not erase what an earlier round found.
func (s *Store) recordResidualCycles() {
	edges := s.table.residualEdges()
	if len(edges) == 0 {
		return
	}
	dg := graphutil.NewDependencyGraph(edges)
	idCycles := graphutil.FindAllElementaryCycles(dg)
	cycles := make([][]properties.Value, 0, len(idCycles))
	for _, idCycle := range idCycles {
		// The cycle repeats its start node at the end.
		cycle := make([]properties.Value, 0, len(idCycle)-1)
		for _, id := range idCycle[:len(idCycle)-1] {
			if v, ok := s.table.lookup(dg.IDMap[id].EPK); ok {
				cycle = append(cycle, v)
			}
		}
		cycles = append(cycles, cycle)
		s.logger.Debugf("residual dependency cycle: %s", formatCycle(cycle))
	}
	s.cycleMu.Lock()
	s.cycles = append(s.cycles, cycles...)
	s.cycleMu.Unlock()
}

// ResidualCycles returns the dependency cycles found at quiescence passes of
// the run, with the values the cycle members held before fallback resolution.
func (s *Store) ResidualCycles() [][]properties.Value {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	return s.cycles
}

func formatCycle(cycle []properties.Value) string {
	parts := make([]string, 0, len(cycle)+1)
	for _, v := range cycle {
		parts = append(parts, v.String())
	}
	if len(cycle) > 0 {
		parts = append(parts, cycle[0].String())
	}
	return strings.Join(parts, " -> ")
}
