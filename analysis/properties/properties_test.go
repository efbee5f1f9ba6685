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

import "testing"

func TestKindRegistration(t *testing.T) {
	k1 := NewKind("testprops-a", BoolProperty(false))
	k2 := NewKind("testprops-b", BoolProperty(true))
	if k1.ID() == k2.ID() {
		t.Fatalf("expected distinct kind ids, got %d twice", k1.ID())
	}
	if KindByID(k1.ID()) != k1 {
		t.Errorf("KindByID(%d) did not return the registered kind", k1.ID())
	}
	if !k1.Fallback().Equal(BoolProperty(false)) {
		t.Errorf("wrong fallback for %s", k1)
	}
	if KindByID(-1) != nil || KindByID(NumKinds()) != nil {
		t.Errorf("out-of-range KindByID should return nil")
	}
}

func TestValuePhases(t *testing.T) {
	k := NewKind("testprops-phases", BoolProperty(false))
	v := NoValue("x", k)
	if v.HasProperty() || v.IsFinal() {
		t.Errorf("NoValue should have no property: %s", v)
	}
	r := RefinableValue("x", k, BoolProperty(true), nil)
	if !r.HasProperty() || r.IsFinal() {
		t.Errorf("RefinableValue should be non-final with a property: %s", r)
	}
	f := FinalValue("x", k, BoolProperty(true))
	if !f.IsFinal() {
		t.Errorf("FinalValue should be final: %s", f)
	}
	if !f.Upper().Equal(f.Lower()) {
		t.Errorf("final value must have equal bounds")
	}
	if r.Same(f) {
		t.Errorf("refinable and final values with equal bounds must differ by phase")
	}
	if !r.Same(RefinableValue("x", k, BoolProperty(true), nil)) {
		t.Errorf("identical refinable values should compare Same")
	}
}

func TestLevelRefinement(t *testing.T) {
	pure := LevelProperty{Level: 0, Name: "pure"}
	impure := LevelProperty{Level: 1, Name: "impure"}
	if !RefinesDownward(impure, pure) {
		t.Errorf("moving down the lattice must be an admissible refinement")
	}
	if RefinesDownward(pure, impure) {
		t.Errorf("moving up the lattice must be rejected")
	}
	if !RefinesDownward(pure, pure) {
		t.Errorf("a repeated bound is admissible")
	}
}

func TestSetProperty(t *testing.T) {
	a := NewSetProperty("m1")
	b := NewSetProperty("m2")
	u := a.Union(b)
	if u.Size() != 2 || !u.Contains("m1") || !u.Contains("m2") {
		t.Fatalf("unexpected union: %s", u)
	}
	if !u.Equal(NewSetProperty("m2", "m1")) {
		t.Errorf("set equality must be order-insensitive")
	}
	if !RefinesBySuperset(a, u) {
		t.Errorf("union must be a superset refinement of its operands")
	}
	if RefinesBySuperset(u, a) {
		t.Errorf("dropping elements must be rejected")
	}
	if a.Size() != 1 || b.Size() != 1 {
		t.Errorf("Union must not mutate its operands")
	}
	if got := u.String(); got != "{m1, m2}" {
		t.Errorf("unexpected string form: %s", got)
	}
}
