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

package properties

import "fmt"

// An EPK identifies an (entity, property kind) pair, the unit of scheduling
// and dependency in the store. Entities are interned to dense int32 ids by the
// owning store, so an EPK is two flat indices: stable identity, cheap
// equality, no reference cycles between suspended computations.
type EPK struct {
	Entity int32
	Kind   int32
}

func (k EPK) String() string {
	return fmt.Sprintf("EPK(e%d,k%d)", k.Entity, k.Kind)
}

// Phase is the lifecycle phase of the store's knowledge about an EPK.
type Phase uint8

const (
	// PhaseNone means nothing is known yet.
	PhaseNone Phase = iota
	// PhaseRefinable means a bound has been computed but may still change.
	PhaseRefinable
	// PhaseFinal means the property is terminal and will never change again.
	PhaseFinal
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "NoProperty"
	case PhaseRefinable:
		return "Refinable"
	case PhaseFinal:
		return "Final"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

// A Value is the store's current knowledge about an entity's property of some
// kind: nothing, an upper (and optionally lower) bound still being refined, or
// a final property.
type Value struct {
	// Entity is the opaque entity handle the value belongs to.
	Entity any

	// Kind is the property kind.
	Kind *Kind

	phase Phase
	ub    Property
	lb    Property
}

// NoValue returns the knowledge state of an EPK nothing is known about.
func NoValue(entity any, kind *Kind) Value {
	return Value{Entity: entity, Kind: kind, phase: PhaseNone}
}

// RefinableValue returns an intermediate knowledge state with the given upper
// bound and an optional lower bound (nil if the kind does not support bounded
// refinement from below).
func RefinableValue(entity any, kind *Kind, ub, lb Property) Value {
	return Value{Entity: entity, Kind: kind, phase: PhaseRefinable, ub: ub, lb: lb}
}

// FinalValue returns a terminal knowledge state.
func FinalValue(entity any, kind *Kind, p Property) Value {
	return Value{Entity: entity, Kind: kind, phase: PhaseFinal, ub: p, lb: p}
}

// Phase returns the lifecycle phase of the value.
func (v Value) Phase() Phase { return v.phase }

// HasProperty reports whether any bound has been computed.
func (v Value) HasProperty() bool { return v.phase != PhaseNone }

// IsFinal reports whether the value is terminal.
func (v Value) IsFinal() bool { return v.phase == PhaseFinal }

// Upper returns the current upper bound, or nil when nothing is known. For a
// final value, Upper and Lower both return the final property.
func (v Value) Upper() Property { return v.ub }

// Lower returns the current lower bound, which may be nil even for refinable
// values when the kind only refines from above.
func (v Value) Lower() Property { return v.lb }

// Same reports whether two values represent identical knowledge: same phase
// and pairwise-equal bounds. It is the equality the store uses for duplicate
// and non-progress detection.
func (v Value) Same(o Value) bool {
	if v.phase != o.phase || v.Kind != o.Kind {
		return false
	}
	return propEqual(v.ub, o.ub) && propEqual(v.lb, o.lb)
}

func propEqual(a, b Property) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

func (v Value) String() string {
	switch v.phase {
	case PhaseNone:
		return fmt.Sprintf("%s[%v]=NoProperty", v.Kind.Name(), v.Entity)
	case PhaseFinal:
		return fmt.Sprintf("%s[%v]=Final(%s)", v.Kind.Name(), v.Entity, v.ub)
	default:
		if v.lb != nil {
			return fmt.Sprintf("%s[%v]=Refinable(ub=%s,lb=%s)", v.Kind.Name(), v.Entity, v.ub, v.lb)
		}
		return fmt.Sprintf("%s[%v]=Refinable(ub=%s)", v.Kind.Name(), v.Entity, v.ub)
	}
}
