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

// Package callers collects, per function, the set of functions that call it
// through a static call site. The caller set is a collaboratively derived
// property: every analyzed function contributes the edges of its own call
// sites, and the store merges the contributions by set union.
package callers

import (
	"fmt"
	"sort"

	"github.com/awslabs/ar-fixpoint-tools/analysis/config"
	"github.com/awslabs/ar-fixpoint-tools/analysis/fixpoint"
	"github.com/awslabs/ar-fixpoint-tools/analysis/properties"
	"golang.org/x/tools/go/ssa"
)

// Kind is the caller-set property kind. Functions nobody calls keep the empty
// fallback set.
var Kind = properties.NewKind("Callers", properties.EmptySet(),
	properties.WithRefinement(properties.RefinesBySuperset))

// Register registers the eager caller-collection computation on the store. It
// runs up front for every entity of the store's universe.
func Register(store *fixpoint.Store, logger *config.LogGroup) error {
	spec := fixpoint.Spec{Name: "callers", Derives: Kind, Collaborative: true}
	return store.RegisterEager(spec, func(entity any) (fixpoint.Result, error) {
		f, ok := entity.(*ssa.Function)
		if !ok {
			return fixpoint.Result{}, fmt.Errorf("callers entity is %T, not an ssa function", entity)
		}
		callees := staticCallees(f)
		logger.Tracef("%s has %d static callees", f, len(callees))
		if len(callees) == 0 {
			return fixpoint.NoResult(), nil
		}
		// One contribution per distinct callee; the last one travels back as
		// the computation's result, the others are handed in directly.
		for _, callee := range callees[:len(callees)-1] {
			if err := store.HandleResult(contribution(f, callee)); err != nil {
				return fixpoint.Result{}, err
			}
		}
		return contribution(f, callees[len(callees)-1]), nil
	})
}

func contribution(caller, callee *ssa.Function) fixpoint.Result {
	return fixpoint.Partial(callee, Kind, func(current properties.Property) (properties.Property, bool) {
		return current.(properties.SetProperty).Add(caller), false
	})
}

func staticCallees(f *ssa.Function) []*ssa.Function {
	seen := map[*ssa.Function]bool{}
	var callees []*ssa.Function
	for _, b := range f.Blocks {
		for _, instr := range b.Instrs {
			call, ok := instr.(ssa.CallInstruction)
			if !ok {
				continue
			}
			callee := call.Common().StaticCallee()
			if callee == nil || seen[callee] {
				continue
			}
			seen[callee] = true
			callees = append(callees, callee)
		}
	}
	sort.Slice(callees, func(i, j int) bool { return callees[i].String() < callees[j].String() })
	return callees
}

// CallersOf returns the recorded callers of f after the run, in a
// deterministic order.
func CallersOf(store *fixpoint.Store, f *ssa.Function) []*ssa.Function {
	v := store.Query(f, Kind)
	if !v.HasProperty() {
		return nil
	}
	set, ok := v.Upper().(properties.SetProperty)
	if !ok {
		return nil
	}
	out := make([]*ssa.Function, 0, set.Size())
	for _, e := range set.Elements() {
		out = append(out, e.(*ssa.Function))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
