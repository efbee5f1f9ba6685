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
	"sync"
	"sync/atomic"

	"github.com/awslabs/ar-fixpoint-tools/analysis/properties"
)

// tableShards is the number of lock shards of the dependency table. Updates to
// a single key are linearized by its shard lock.
const tableShards = 64

// A suspension is the stored form of a suspended computation: the explicit
// {depender, dependee, observed state, resume function} record registered in
// the dependency table while the computation waits for its dependee to change.
// A computation instance has at most one suspension at a time.
type suspension struct {
	depender  properties.EPK
	dependee  properties.EPK
	observed  properties.Value
	finalOnly bool
	resume    ContinuationFunc

	// scheduled is set while the suspension sits in the task queue, so that a
	// dependee advancing several times before the worker runs does not
	// enqueue the continuation twice; the continuation re-reads the latest
	// state anyway.
	scheduled atomic.Bool
}

// A record is the dependency table's knowledge about one entity-property key:
// its current value, the suspensions waiting on it (keyed by depender, since a
// computation instance holds at most one), and the scheduling flags that
// enforce at-most-one active computation per key.
type record struct {
	value properties.Value

	// dependers maps a suspended depender key to its registered suspension.
	dependers map[properties.EPK]*suspension

	// lastDependee and lastObserved remember the dependee of the most recent
	// interim update and the dependee state the computation observed, for the
	// strict-checks non-progress fault: re-suspending with an unchanged value
	// on an unchanged dependee state is a stuck computation, while
	// re-suspending after the dependee advanced is legitimate.
	lastDependee    properties.EPK
	lastObserved    properties.Value
	hasLastDependee bool
}

type tableShard struct {
	mu      sync.Mutex
	records map[properties.EPK]*record
}

// depTable is the sharded dependency table. All per-key state transitions
// happen under the key's shard lock; the depender-to-dependee back pointers
// are guarded by a dedicated mutex that is always acquired before shard locks.
type depTable struct {
	shards [tableShards]tableShard

	// depMu guards dependees. Lock order: depMu before any shard lock.
	depMu     sync.Mutex
	dependees map[properties.EPK]properties.EPK
}

func newDepTable() *depTable {
	t := &depTable{dependees: map[properties.EPK]properties.EPK{}}
	for i := range t.shards {
		t.shards[i].records = map[properties.EPK]*record{}
	}
	return t
}

func (t *depTable) shard(epk properties.EPK) *tableShard {
	h := uint32(epk.Entity)*31 + uint32(epk.Kind)
	return &t.shards[h%tableShards]
}

// ensure returns the record for epk, creating it in the no-property state on
// first reference.
func (t *depTable) ensure(epk properties.EPK, entity any, kind *properties.Kind) *record {
	s := t.shard(epk)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(epk, entity, kind)
}

func (s *tableShard) ensureLocked(epk properties.EPK, entity any, kind *properties.Kind) *record {
	r, ok := s.records[epk]
	if !ok {
		r = &record{
			value:     properties.NoValue(entity, kind),
			dependers: map[properties.EPK]*suspension{},
		}
		s.records[epk] = r
	}
	return r
}

// lookup returns the current value of epk without creating a record.
func (t *depTable) lookup(epk properties.EPK) (properties.Value, bool) {
	s := t.shard(epk)
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[epk]; ok {
		return r.value, true
	}
	return properties.Value{}, false
}

// recordIntermediate stores a refinable value for epk and detaches the
// suspensions that must be woken by a non-final update (suspensions waiting
// for a final value stay registered). The boolean reports whether the key can
// still move: it is false when the key is already final, and the caller must
// then drop the update without re-suspending the computation. The returned
// error is a fault per errors.go; when strict is false the caller is expected
// to have dropped the update already, so faults are only produced under strict
// checks.
func (t *depTable) recordIntermediate(epk properties.EPK, entity any, kind *properties.Kind,
	newValue properties.Value, dependee properties.EPK, observed properties.Value,
	hasDependee bool, strict bool) ([]*suspension, bool, error) {
	s := t.shard(epk)
	s.mu.Lock()
	r := s.ensureLocked(epk, entity, kind)
	if r.value.IsFinal() {
		// A continuation can race with fallback resolution; once final, the
		// key must not move again, and the caller must not re-suspend it.
		s.mu.Unlock()
		return nil, false, nil
	}
	if strict && r.value.HasProperty() {
		if newValue.Same(r.value) && hasDependee && r.hasLastDependee &&
			dependee == r.lastDependee && observed.Same(r.lastObserved) {
			s.mu.Unlock()
			return nil, false, fmt.Errorf("%w: %s", ErrNoProgress, newValue)
		}
		if !kind.Refines(r.value.Upper(), newValue.Upper()) {
			s.mu.Unlock()
			return nil, false, fmt.Errorf("%w: %s after %s", ErrLatticeRegression, newValue, r.value)
		}
	}
	changed := !newValue.Same(r.value)
	r.value = newValue
	r.lastDependee, r.lastObserved, r.hasLastDependee = dependee, observed, hasDependee
	if !changed {
		s.mu.Unlock()
		return nil, true, nil
	}
	var woken []*suspension
	for d, susp := range r.dependers {
		if susp.finalOnly {
			continue
		}
		delete(r.dependers, d)
		woken = append(woken, susp)
	}
	s.mu.Unlock()
	t.forgetDependees(epk, woken)
	return woken, true, nil
}

// recordFinal stores a terminal value for epk, marks the key immutable and
// atomically detaches and returns every suspension waiting on it; the caller
// must re-enqueue each exactly once. Reporting an equal final value twice is
// a no-op; a differing value is a fault.
func (t *depTable) recordFinal(epk properties.EPK, entity any, kind *properties.Kind,
	p properties.Property, strict bool) ([]*suspension, error) {
	s := t.shard(epk)
	s.mu.Lock()
	r := s.ensureLocked(epk, entity, kind)
	if r.value.IsFinal() {
		prev := r.value.Upper()
		s.mu.Unlock()
		if !prev.Equal(p) {
			return nil, fmt.Errorf("%w: %s then %s for %s", ErrConflictingFinal, prev, p, epk)
		}
		return nil, nil
	}
	if strict && r.value.HasProperty() && !kind.Refines(r.value.Upper(), p) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: final %s after %s", ErrLatticeRegression, p, r.value)
	}
	r.value = properties.FinalValue(entity, kind, p)
	r.hasLastDependee = false
	woken := make([]*suspension, 0, len(r.dependers))
	for d, susp := range r.dependers {
		delete(r.dependers, d)
		woken = append(woken, susp)
	}
	s.mu.Unlock()
	t.forgetSuspensionOf(epk)
	t.forgetDependees(epk, woken)
	return woken, nil
}

// forgetSuspensionOf deregisters the outstanding suspension of a finalized
// key. A final key never resumes, so a registration it left on a dependee
// must not survive: the dependee's own later finalization would otherwise
// wake a continuation whose report can no longer be accepted.
func (t *depTable) forgetSuspensionOf(depender properties.EPK) {
	t.depMu.Lock()
	defer t.depMu.Unlock()
	dependee, ok := t.dependees[depender]
	if !ok {
		return
	}
	delete(t.dependees, depender)
	s := t.shard(dependee)
	s.mu.Lock()
	if r, exists := s.records[dependee]; exists {
		delete(r.dependers, depender)
	}
	s.mu.Unlock()
}

// forgetDependees drops the back pointers of detached suspensions. The
// dependers were already removed from the record, so their computations are
// inert until the task queue resumes them; no re-registration can interleave.
func (t *depTable) forgetDependees(epk properties.EPK, woken []*suspension) {
	if len(woken) == 0 {
		return
	}
	t.depMu.Lock()
	defer t.depMu.Unlock()
	for _, susp := range woken {
		if cur, ok := t.dependees[susp.depender]; ok && cur == epk {
			delete(t.dependees, susp.depender)
		}
	}
}

// recordPartial folds a collaborative contribution into epk under the shard
// lock, so concurrent contributions linearize. The merge function receives the
// current property, or the kind's fallback when nothing is recorded yet. A
// merge that changes nothing and does not complete the property is a no-op.
// When the merge declares completion the key becomes final and all waiting
// suspensions are detached; otherwise non-final-only suspensions are woken.
func (t *depTable) recordPartial(epk properties.EPK, entity any, kind *properties.Kind,
	merge MergeFunc, strict bool) ([]*suspension, bool, error) {
	s := t.shard(epk)
	s.mu.Lock()
	r := s.ensureLocked(epk, entity, kind)
	if r.value.IsFinal() {
		prev := r.value.Upper()
		s.mu.Unlock()
		merged, done := merge(prev)
		if done && !merged.Equal(prev) {
			return nil, false, fmt.Errorf("%w: partial completion %s after final %s for %s",
				ErrConflictingFinal, merged, prev, epk)
		}
		return nil, false, nil
	}
	current := r.value.Upper()
	if current == nil {
		current = kind.Fallback()
	}
	merged, done := merge(current)
	if !done && merged.Equal(current) && r.value.HasProperty() {
		s.mu.Unlock()
		return nil, false, nil
	}
	if strict && !kind.Refines(current, merged) {
		s.mu.Unlock()
		return nil, false, fmt.Errorf("%w: merge produced %s from %s", ErrLatticeRegression, merged, current)
	}
	var woken []*suspension
	if done {
		r.value = properties.FinalValue(entity, kind, merged)
		r.hasLastDependee = false
		for d, susp := range r.dependers {
			delete(r.dependers, d)
			woken = append(woken, susp)
		}
	} else {
		r.value = properties.RefinableValue(entity, kind, merged, r.value.Lower())
		for d, susp := range r.dependers {
			if susp.finalOnly {
				continue
			}
			delete(r.dependers, d)
			woken = append(woken, susp)
		}
	}
	s.mu.Unlock()
	if done {
		t.forgetSuspensionOf(epk)
	}
	t.forgetDependees(epk, woken)
	return woken, true, nil
}

// register registers susp on its dependee. A computation instance may wait on
// at most one key, so an earlier registration of the same depender on a
// different dependee is removed first. If the dependee already advanced past
// the state the suspension observed (or became final, for final-only
// suspensions), the suspension is not registered and must be re-enqueued
// immediately; register then returns true.
func (t *depTable) register(susp *suspension) (wakeNow bool) {
	t.depMu.Lock()
	defer t.depMu.Unlock()
	if old, ok := t.dependees[susp.depender]; ok && old != susp.dependee {
		os := t.shard(old)
		os.mu.Lock()
		if r, exists := os.records[old]; exists {
			delete(r.dependers, susp.depender)
		}
		os.mu.Unlock()
	}
	s := t.shard(susp.dependee)
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.ensureLocked(susp.dependee, susp.observed.Entity, susp.observed.Kind)
	advanced := !r.value.Same(susp.observed)
	if susp.finalOnly {
		advanced = r.value.IsFinal()
	}
	if advanced {
		delete(t.dependees, susp.depender)
		return true
	}
	r.dependers[susp.depender] = susp
	t.dependees[susp.depender] = susp.dependee
	return false
}

// dependersOf returns a snapshot of the suspensions currently waiting on epk.
func (t *depTable) dependersOf(epk properties.EPK) []*suspension {
	s := t.shard(epk)
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[epk]
	if !ok {
		return nil
	}
	out := make([]*suspension, 0, len(r.dependers))
	for _, susp := range r.dependers {
		out = append(out, susp)
	}
	return out
}

// snapshot returns the current value of every key in the table.
func (t *depTable) snapshot() []properties.Value {
	var out []properties.Value
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		for _, r := range s.records {
			out = append(out, r.value)
		}
		s.mu.Unlock()
	}
	return out
}

// residualEdges returns the dependency edges between non-final keys, used for
// cycle reporting at quiescence.
func (t *depTable) residualEdges() map[properties.EPK][]properties.EPK {
	edges := map[properties.EPK][]properties.EPK{}
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		for epk, r := range s.records {
			if r.value.IsFinal() {
				continue
			}
			for depender := range r.dependers {
				edges[depender] = append(edges[depender], epk)
			}
		}
		s.mu.Unlock()
	}
	return edges
}
