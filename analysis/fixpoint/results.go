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
	"fmt"

	"github.com/awslabs/ar-fixpoint-tools/analysis/properties"
)

// A Computation computes a property of one kind for one entity. It must not
// mutate shared analysis state; all its knowledge flows in through
// [Store.Query] and all its conclusions flow out through the returned Result.
type Computation func(entity any) (Result, error)

// A ContinuationFunc resumes a suspended computation. It receives the current
// value of the dependee the computation was suspended on, which may be further
// advanced than the update that woke it: the store re-reads the dependee at
// execution time so redundant intermediate steps are skipped.
type ContinuationFunc func(dependee properties.Value) (Result, error)

// A MergeFunc folds a collaborative contribution into the current property of
// a collaboratively derived kind. It receives the current property (the
// kind's fallback if nothing was recorded yet) and returns the merged
// property, plus true if the merge completes the property (making it final).
type MergeFunc func(current properties.Property) (properties.Property, bool)

type resultKind uint8

const (
	resNone resultKind = iota
	resFinal
	resInterim
	resPartial
)

// A Result is what a computation or continuation reports back to the store.
// It is one of four shapes, built with [Final], [Interim], [Partial] and
// [NoResult]; results are immutable value records and [Store.HandleResult] is
// their single ingestion point.
type Result struct {
	kind   resultKind
	entity any
	prop   *properties.Kind

	// final / interim payload
	ub properties.Property
	lb properties.Property

	// interim payload: the dependee observed at suspension time and the
	// continuation to resume when it changes.
	observed  properties.Value
	resume    ContinuationFunc
	finalOnly bool

	// partial payload
	merge MergeFunc
}

// Final reports a terminal property value for entity. Once ingested, the
// entity-property key never changes again.
func Final(entity any, kind *properties.Kind, p properties.Property) Result {
	return Result{kind: resFinal, entity: entity, prop: kind, ub: p, lb: p}
}

// Interim reports a refinable upper bound (and optional lower bound, nil if
// unused) for entity, and suspends the computation on the dependee value it
// was derived from. The continuation is invoked when the dependee's state
// changes; the suspended computation is registered on exactly this dependee,
// replacing any earlier suspension of the same computation.
func Interim(entity any, kind *properties.Kind, ub, lb properties.Property,
	dependee properties.Value, resume ContinuationFunc) Result {
	return Result{
		kind:     resInterim,
		entity:   entity,
		prop:     kind,
		ub:       ub,
		lb:       lb,
		observed: dependee,
		resume:   resume,
	}
}

// InterimFinalOnly is [Interim] for computations that can only make use of a
// final dependee value: intermediate updates of the dependee do not wake the
// continuation.
func InterimFinalOnly(entity any, kind *properties.Kind, ub, lb properties.Property,
	dependee properties.Value, resume ContinuationFunc) Result {
	r := Interim(entity, kind, ub, lb, dependee, resume)
	r.finalOnly = true
	return r
}

// Partial reports a collaborative contribution to a kind several analyses
// build together (typically a monotonically growing set). The store reads the
// current property, applies merge, and records the merged property as an
// intermediate or final update depending on whether merge declares
// completion. Submitting a contribution that changes nothing is a no-op.
func Partial(entity any, kind *properties.Kind, merge MergeFunc) Result {
	return Result{kind: resPartial, entity: entity, prop: kind, merge: merge}
}

// NoResult reports that the computation has nothing to contribute, e.g. when
// an entity structurally cannot have the property in question. No state
// changes; the key is resolved by fallback at quiescence if nothing else
// determines it.
func NoResult() Result {
	return Result{kind: resNone}
}

// IsNoResult reports whether r carries no contribution.
func (r Result) IsNoResult() bool { return r.kind == resNone }

func (r Result) String() string {
	switch r.kind {
	case resNone:
		return "NoResult"
	case resFinal:
		return fmt.Sprintf("Final(%v, %s, %s)", r.entity, r.prop.Name(), r.ub)
	case resInterim:
		return fmt.Sprintf("Interim(%v, %s, ub=%s, dependee=%s)", r.entity, r.prop.Name(), r.ub, r.observed)
	case resPartial:
		return fmt.Sprintf("Partial(%v, %s)", r.entity, r.prop.Name())
	default:
		return fmt.Sprintf("Result(%d)", r.kind)
	}
}
