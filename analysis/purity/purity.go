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

// Package purity derives a purity property for the functions of an SSA
// program. A function is pure if it has no observable side effect: it does not
// write memory reachable from outside its frame, does not communicate, and
// only calls functions that are themselves pure.
//
// The computation is optimistic. A function whose own body is effect-free
// suspends on the purity of its callees, one at a time; mutually recursive
// functions with effect-free bodies reach quiescence with a refinable "pure"
// upper bound, which the store commits.
package purity

import (
	"fmt"
	"sort"

	"github.com/awslabs/ar-fixpoint-tools/analysis/config"
	"github.com/awslabs/ar-fixpoint-tools/analysis/fixpoint"
	"github.com/awslabs/ar-fixpoint-tools/analysis/properties"
	"golang.org/x/tools/go/ssa"
)

// Pure and Impure are the two points of the purity lattice; the upper bound
// of a function's purity only ever moves from impure down to pure.
var (
	Pure   = properties.LevelProperty{Level: 0, Name: "pure"}
	Impure = properties.LevelProperty{Level: 1, Name: "impure"}
)

// Kind is the purity property kind. Functions never proven pure fall back to
// impure.
var Kind = properties.NewKind("Purity", Impure,
	properties.WithRefinement(properties.RefinesDownward))

type analysis struct {
	store  *fixpoint.Store
	logger *config.LogGroup
}

// Register registers the lazy purity computation on the store. The
// computation runs the first time a function's purity is queried.
func Register(store *fixpoint.Store, logger *config.LogGroup) error {
	a := &analysis{store: store, logger: logger}
	return store.RegisterLazy(fixpoint.Spec{Name: "purity", Derives: Kind}, a.compute)
}

func (a *analysis) compute(entity any) (fixpoint.Result, error) {
	f, ok := entity.(*ssa.Function)
	if !ok {
		return fixpoint.Result{}, fmt.Errorf("purity entity is %T, not an ssa function", entity)
	}
	callees, impure := scanBody(f)
	if impure {
		a.logger.Tracef("%s has an effectful body", f)
		return fixpoint.Final(f, Kind, Impure), nil
	}
	return a.checkCallees(f, callees)
}

// checkCallees resolves the purity of f's callees one at a time, suspending on
// the first callee whose purity is not final yet. The continuation picks the
// list back up where it stopped.
func (a *analysis) checkCallees(f *ssa.Function, callees []*ssa.Function) (fixpoint.Result, error) {
	for len(callees) > 0 {
		dep := a.store.Query(callees[0], Kind)
		if !dep.IsFinal() {
			rest := callees[1:]
			return fixpoint.InterimFinalOnly(f, Kind, Pure, nil, dep,
				func(dep properties.Value) (fixpoint.Result, error) {
					if !dep.Upper().Equal(Pure) {
						return fixpoint.Final(f, Kind, Impure), nil
					}
					return a.checkCallees(f, rest)
				}), nil
		}
		if !dep.Upper().Equal(Pure) {
			return fixpoint.Final(f, Kind, Impure), nil
		}
		callees = callees[1:]
	}
	return fixpoint.Final(f, Kind, Pure), nil
}

// scanBody scans f's instructions. It reports whether the body itself has an
// observable effect and, if not, the distinct functions f calls statically.
// Dynamic calls and calls to functions without a body count as effects, since
// nothing is known about the callee. Self calls are dropped: a function's
// purity does not depend on itself.
func scanBody(f *ssa.Function) (callees []*ssa.Function, impure bool) {
	if len(f.Blocks) == 0 {
		return nil, true
	}
	seen := map[*ssa.Function]bool{}
	for _, b := range f.Blocks {
		for _, instr := range b.Instrs {
			switch v := instr.(type) {
			case *ssa.Store:
				if !frameLocal(v.Addr) {
					return nil, true
				}
			case *ssa.MapUpdate:
				if !frameLocal(v.Map) {
					return nil, true
				}
			case *ssa.Send, *ssa.Go:
				return nil, true
			case ssa.CallInstruction:
				callee := v.Common().StaticCallee()
				if callee == nil || len(callee.Blocks) == 0 {
					return nil, true
				}
				if callee != f && !seen[callee] {
					seen[callee] = true
					callees = append(callees, callee)
				}
			}
		}
	}
	sort.Slice(callees, func(i, j int) bool { return callees[i].String() < callees[j].String() })
	return callees, false
}

// frameLocal reports whether the address is rooted in an allocation of the
// enclosing function. Writes anywhere else (globals, parameters, free
// variables, values of unknown provenance) are observable effects. An
// allocation that escapes through a return value is still treated as local;
// the effect is then charged to the caller that stores through it.
func frameLocal(addr ssa.Value) bool {
	for {
		switch x := addr.(type) {
		case *ssa.Alloc, *ssa.MakeSlice, *ssa.MakeMap:
			return true
		case *ssa.FieldAddr:
			addr = x.X
		case *ssa.IndexAddr:
			addr = x.X
		default:
			return false
		}
	}
}

// PureFunctions returns the functions the finished run proved pure, in a
// deterministic order.
func PureFunctions(store *fixpoint.Store) []*ssa.Function {
	var out []*ssa.Function
	for _, e := range store.Entities(Kind, func(v properties.Value) bool {
		return v.IsFinal() && v.Upper().Equal(Pure)
	}) {
		out = append(out, e.(*ssa.Function))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
