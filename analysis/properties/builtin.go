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
	"sort"
	"strings"
)

// BoolProperty is a two-point lattice value.
type BoolProperty bool

// Equal implements Property.
func (b BoolProperty) Equal(other Property) bool {
	o, ok := other.(BoolProperty)
	return ok && b == o
}

func (b BoolProperty) String() string {
	return fmt.Sprintf("%t", bool(b))
}

// LevelProperty is a value in a small totally ordered lattice. Higher levels
// are less precise; refining an upper bound means moving to a lower level.
type LevelProperty struct {
	Level int
	Name  string
}

// Equal implements Property. Only levels are compared; names are labels.
func (l LevelProperty) Equal(other Property) bool {
	o, ok := other.(LevelProperty)
	return ok && l.Level == o.Level
}

func (l LevelProperty) String() string {
	if l.Name != "" {
		return l.Name
	}
	return fmt.Sprintf("level(%d)", l.Level)
}

// RefinesDownward is the RefinesFunc for level-lattice kinds whose upper
// bound only ever moves down: next must not be above prev.
func RefinesDownward(prev, next Property) bool {
	p, okP := prev.(LevelProperty)
	n, okN := next.(LevelProperty)
	if !okP || !okN {
		return false
	}
	return n.Level <= p.Level
}

// SetProperty is an immutable set-valued property ordered by inclusion. It is
// the value shape used by collaboratively derived kinds: several analyses
// contribute elements and the store folds the contributions with Union.
type SetProperty struct {
	elems map[any]struct{}
}

// NewSetProperty returns a set property holding the given elements.
func NewSetProperty(elems ...any) SetProperty {
	s := SetProperty{elems: make(map[any]struct{}, len(elems))}
	for _, e := range elems {
		s.elems[e] = struct{}{}
	}
	return s
}

// EmptySet returns the empty set property, the usual fallback of
// collaboratively derived kinds.
func EmptySet() SetProperty { return SetProperty{} }

// Union returns a new set holding the elements of s and o. Neither receiver
// nor argument is mutated.
func (s SetProperty) Union(o SetProperty) SetProperty {
	if len(o.elems) == 0 {
		return s
	}
	if len(s.elems) == 0 {
		return o
	}
	r := SetProperty{elems: make(map[any]struct{}, len(s.elems)+len(o.elems))}
	for e := range s.elems {
		r.elems[e] = struct{}{}
	}
	for e := range o.elems {
		r.elems[e] = struct{}{}
	}
	return r
}

// Add returns a new set with x added.
func (s SetProperty) Add(x any) SetProperty {
	if s.Contains(x) {
		return s
	}
	r := SetProperty{elems: make(map[any]struct{}, len(s.elems)+1)}
	for e := range s.elems {
		r.elems[e] = struct{}{}
	}
	r.elems[x] = struct{}{}
	return r
}

// Contains reports whether x is in the set.
func (s SetProperty) Contains(x any) bool {
	_, ok := s.elems[x]
	return ok
}

// Size returns the number of elements.
func (s SetProperty) Size() int { return len(s.elems) }

// Elements returns the elements in unspecified order.
func (s SetProperty) Elements() []any {
	r := make([]any, 0, len(s.elems))
	for e := range s.elems {
		r = append(r, e)
	}
	return r
}

// Equal implements Property by element-wise comparison.
func (s SetProperty) Equal(other Property) bool {
	o, ok := other.(SetProperty)
	if !ok || len(s.elems) != len(o.elems) {
		return false
	}
	for e := range s.elems {
		if _, in := o.elems[e]; !in {
			return false
		}
	}
	return true
}

// RefinesBySuperset is the RefinesFunc for monotonically growing set kinds:
// next must contain every element of prev.
func RefinesBySuperset(prev, next Property) bool {
	p, okP := prev.(SetProperty)
	n, okN := next.(SetProperty)
	if !okP || !okN {
		return false
	}
	for e := range p.elems {
		if _, in := n.elems[e]; !in {
			return false
		}
	}
	return true
}

func (s SetProperty) String() string {
	strs := make([]string, 0, len(s.elems))
	for e := range s.elems {
		strs = append(strs, fmt.Sprintf("%v", e))
	}
	sort.Strings(strs)
	return "{" + strings.Join(strs, ", ") + "}"
}
