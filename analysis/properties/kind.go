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

import (
	"fmt"
	"sync"
)

// A Property is a concrete lattice value of some Kind. Implementations must be
// immutable value types: the store detects duplicate results by exact equality,
// so Equal must be an equivalence relation and must return false for properties
// of a different dynamic type.
type Property interface {
	Equal(other Property) bool
	String() string
}

// RefinesFunc reports whether next is at least as precise as prev in the
// lattice order of a kind. It is consulted only when strict checks are enabled.
type RefinesFunc func(prev, next Property) bool

// A Kind identifies a category of fact derived by analyses (for example
// "Purity" or "Callers"). Kinds carry a small integer id used for fast
// dispatch, and declare the fallback value assigned when no computation ever
// determines the property or a dependency cycle leaves it unresolved.
//
// Kinds are registered once, at package-init time of the analysis that derives
// them, and live for the whole process.
type Kind struct {
	id       int
	name     string
	fallback Property
	refines  RefinesFunc
}

// KindOption configures optional behavior of a registered kind.
type KindOption func(*Kind)

// WithRefinement attaches a lattice-ordering check to the kind. The store uses
// it under strict checks to assert that intermediate updates never regress.
func WithRefinement(f RefinesFunc) KindOption {
	return func(k *Kind) { k.refines = f }
}

var (
	registryMu sync.Mutex
	registry   []*Kind
)

// NewKind registers a new property kind with the given name and fallback
// value. Ids are assigned in registration order and are dense, so they can be
// used as indices into flat per-kind tables.
func NewKind(name string, fallback Property, opts ...KindOption) *Kind {
	registryMu.Lock()
	defer registryMu.Unlock()
	k := &Kind{id: len(registry), name: name, fallback: fallback}
	for _, opt := range opts {
		opt(k)
	}
	registry = append(registry, k)
	return k
}

// KindByID returns the kind registered with the given id, or nil if no such
// kind exists.
func KindByID(id int) *Kind {
	registryMu.Lock()
	defer registryMu.Unlock()
	if id < 0 || id >= len(registry) {
		return nil
	}
	return registry[id]
}

// NumKinds returns the number of registered kinds.
func NumKinds() int {
	registryMu.Lock()
	defer registryMu.Unlock()
	return len(registry)
}

// ID returns the dense integer id of the kind.
func (k *Kind) ID() int { return k.id }

// Name returns the kind's registration name.
func (k *Kind) Name() string { return k.name }

// Fallback returns the value assigned to entities for which no analysis ever
// determined this kind of property.
func (k *Kind) Fallback() Property { return k.fallback }

// Refines reports whether next is an admissible refinement of prev. When the
// kind declared no ordering, every update is admissible.
func (k *Kind) Refines(prev, next Property) bool {
	if k.refines == nil {
		return true
	}
	return k.refines(prev, next)
}

func (k *Kind) String() string {
	return fmt.Sprintf("%s(#%d)", k.name, k.id)
}
