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

	"github.com/awslabs/ar-fixpoint-tools/analysis/config"
	"github.com/awslabs/ar-fixpoint-tools/analysis/properties"
)

// A Spec declares what a registered computation reads and writes, so the
// store can validate the analysis schedule: no property kind may be derived
// (non-collaboratively) by more than one registered analysis, and partial
// results are only accepted for kinds some analysis derives collaboratively.
type Spec struct {
	// Name identifies the analysis in logs and error messages.
	Name string

	// Derives is the property kind the computation writes.
	Derives *properties.Kind

	// Uses lists the property kinds the computation may query. It is
	// informational and surfaced in debug logs; the store does not restrict
	// queries at run time.
	Uses []*properties.Kind

	// Collaborative marks a kind that is jointly constructed by several
	// analyses through partial results.
	Collaborative bool
}

type regMode uint8

const (
	modeEager regMode = iota
	modeLazy
	modeTriggered
)

// A registration is a validated analysis registration. started tracks, per
// entity id, whether the computation was already scheduled, which both
// deduplicates triggered firings and enforces that no two workers ever run
// the computation for the same entity concurrently.
type registration struct {
	spec    Spec
	mode    regMode
	trigger *properties.Kind
	comp    Computation

	mu      sync.Mutex
	started map[int32]bool
}

// start marks the registration as scheduled for entity id eid; it returns
// false if it already was.
func (reg *registration) start(eid int32) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.started[eid] {
		return false
	}
	reg.started[eid] = true
	return true
}

// Store is the parallel property store: the façade over the dependency table
// and the task scheduler, and the sole mutator of shared analysis state.
//
// A store is constructed once per analysis run over a fixed entity universe
// (entities may still be observed lazily through queries), analyses are
// registered, and WaitForCompletion drains the schedule to quiescence. After
// that, Query answers are stable.
type Store struct {
	logger *config.LogGroup
	cfg    *config.Config
	table  *depTable
	queue  *taskQueue
	strict bool

	mu        sync.Mutex
	entityIDs map[any]int32
	entities  []any

	regMu         sync.Mutex
	derived       map[int]*registration   // non-collaborative derivations, by kind id
	lazy          map[int]*registration   // lazy registrations, by derived kind id
	triggered     map[int][]*registration // triggered registrations, by trigger kind id
	collaborative map[int]bool            // kind ids some analysis derives collaboratively

	errMu  sync.Mutex
	errors []error

	cycleMu sync.Mutex
	cycles  [][]properties.Value
}

// NewStore returns a store over the given entity universe. Entities are
// opaque to the store: they are only used as identity-comparable map keys, so
// every entity must be a valid Go map key with stable equality.
func NewStore(logger *config.LogGroup, cfg *config.Config, entities []any) *Store {
	s := &Store{
		logger:        logger,
		cfg:           cfg,
		table:         newDepTable(),
		queue:         newTaskQueue(),
		strict:        cfg.StrictChecks,
		entityIDs:     make(map[any]int32, len(entities)),
		derived:       map[int]*registration{},
		lazy:          map[int]*registration{},
		triggered:     map[int][]*registration{},
		collaborative: map[int]bool{},
	}
	for _, e := range entities {
		s.intern(e)
	}
	return s
}

// NumEntities returns the number of entities observed so far.
func (s *Store) NumEntities() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities)
}

func (s *Store) intern(e any) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entityIDs[e]; ok {
		return id
	}
	id := int32(len(s.entities))
	s.entityIDs[e] = id
	s.entities = append(s.entities, e)
	return id
}

func (s *Store) universe() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]any, len(s.entities))
	copy(out, s.entities)
	return out
}

func (s *Store) epkOf(e any, kind *properties.Kind) properties.EPK {
	return properties.EPK{Entity: s.intern(e), Kind: int32(kind.ID())}
}

func newRegistration(spec Spec, mode regMode, trigger *properties.Kind, comp Computation) *registration {
	return &registration{
		spec:    spec,
		mode:    mode,
		trigger: trigger,
		comp:    comp,
		started: map[int32]bool{},
	}
}

// validate registers the derivation declared by spec, enforcing that a
// non-collaborative kind has a single deriving analysis.
func (s *Store) validate(spec Spec, reg *registration) error {
	if spec.Derives == nil {
		return fmt.Errorf("analysis %q declares no derived property kind", spec.Name)
	}
	s.regMu.Lock()
	defer s.regMu.Unlock()
	id := spec.Derives.ID()
	if spec.Collaborative {
		s.collaborative[id] = true
		return nil
	}
	if prev, ok := s.derived[id]; ok {
		return fmt.Errorf("%w: %s by %q and %q", ErrDuplicateDerivation,
			spec.Derives, prev.spec.Name, spec.Name)
	}
	if s.collaborative[id] {
		return fmt.Errorf("%w: %s is collaborative but %q derives it exclusively",
			ErrDuplicateDerivation, spec.Derives, spec.Name)
	}
	s.derived[id] = reg
	return nil
}

// RegisterEager registers a computation that runs up front for every entity
// of the universe known at registration time.
func (s *Store) RegisterEager(spec Spec, comp Computation) error {
	reg := newRegistration(spec, modeEager, nil, comp)
	if err := s.validate(spec, reg); err != nil {
		return err
	}
	s.logger.Debugf("registered eager analysis %q deriving %s", spec.Name, spec.Derives)
	for _, e := range s.universe() {
		s.scheduleComputation(reg, e, taskInitial)
	}
	return nil
}

// RegisterLazy registers a computation that runs the first time its derived
// kind is queried for an entity (directly or as a dependee of another
// computation).
func (s *Store) RegisterLazy(spec Spec, comp Computation) error {
	reg := newRegistration(spec, modeLazy, nil, comp)
	if err := s.validate(spec, reg); err != nil {
		return err
	}
	s.regMu.Lock()
	defer s.regMu.Unlock()
	id := spec.Derives.ID()
	if prev, ok := s.lazy[id]; ok {
		return fmt.Errorf("%w: lazy %s by %q and %q", ErrDuplicateDerivation,
			spec.Derives, prev.spec.Name, spec.Name)
	}
	s.lazy[id] = reg
	s.logger.Debugf("registered lazy analysis %q deriving %s", spec.Name, spec.Derives)
	return nil
}

// RegisterTriggered registers a computation that runs once per entity, the
// first time the trigger kind reaches any computed state for that entity.
// Entities whose trigger property is already known fire immediately.
func (s *Store) RegisterTriggered(trigger *properties.Kind, spec Spec, comp Computation) error {
	reg := newRegistration(spec, modeTriggered, trigger, comp)
	if err := s.validate(spec, reg); err != nil {
		return err
	}
	s.regMu.Lock()
	s.triggered[trigger.ID()] = append(s.triggered[trigger.ID()], reg)
	s.regMu.Unlock()
	s.logger.Debugf("registered triggered analysis %q on %s deriving %s",
		spec.Name, trigger, spec.Derives)
	for _, v := range s.table.snapshot() {
		if v.Kind == trigger && v.HasProperty() {
			s.scheduleComputation(reg, v.Entity, taskTriggered)
		}
	}
	return nil
}

// scheduleComputation enqueues the first run of reg for entity e unless it
// already ran or the derived property is already final.
func (s *Store) scheduleComputation(reg *registration, e any, kind taskKind) {
	eid := s.intern(e)
	epk := properties.EPK{Entity: eid, Kind: int32(reg.spec.Derives.ID())}
	if v, ok := s.table.lookup(epk); ok && v.IsFinal() {
		return
	}
	if !reg.start(eid) {
		return
	}
	s.queue.push(task{
		kind:   kind,
		epk:    epk,
		entity: e,
		prop:   reg.spec.Derives,
		comp:   reg.comp,
		reg:    reg,
	})
}

// Query returns the current knowledge about entity's property of the given
// kind without blocking. If nothing is known and a lazy computation is
// registered for the kind, the computation is scheduled first; the caller
// observes its outcome through a dependency or a later query.
func (s *Store) Query(e any, kind *properties.Kind) properties.Value {
	epk := s.epkOf(e, kind)
	v, ok := s.table.lookup(epk)
	if !ok || !v.HasProperty() {
		s.maybeScheduleLazy(e, kind)
	}
	if !ok {
		return properties.NoValue(e, kind)
	}
	return v
}

func (s *Store) maybeScheduleLazy(e any, kind *properties.Kind) {
	s.regMu.Lock()
	reg := s.lazy[kind.ID()]
	s.regMu.Unlock()
	if reg != nil {
		s.scheduleComputation(reg, e, taskInitial)
	}
}

// HandleResult is the single ingestion point for computation results and the
// only mutator of the dependency table. It is safe for concurrent use by the
// worker pool. The returned error is non-nil only for programming-error
// faults under strict checks; without strict checks the offending update is
// dropped with a warning.
func (s *Store) HandleResult(r Result) error {
	if r.IsNoResult() {
		return nil
	}
	switch r.kind {
	case resFinal:
		return s.ingestFinal(r.entity, r.prop, r.ub)
	case resInterim:
		return s.ingestInterim(r)
	case resPartial:
		return s.ingestPartial(r)
	default:
		return fmt.Errorf("unknown result shape: %s", r)
	}
}

func (s *Store) ingestFinal(e any, kind *properties.Kind, p properties.Property) error {
	epk := s.epkOf(e, kind)
	woken, err := s.table.recordFinal(epk, e, kind, p, s.strict)
	if err != nil {
		return s.fault(err)
	}
	s.logger.Tracef("final %s[%v]=%s, waking %d dependers", kind.Name(), e, p, len(woken))
	s.wakeAll(woken)
	s.fireTriggers(e, kind)
	return nil
}

func (s *Store) ingestInterim(r Result) error {
	epk := s.epkOf(r.entity, r.prop)
	dependee := s.epkOf(r.observed.Entity, r.observed.Kind)
	newValue := properties.RefinableValue(r.entity, r.prop, r.ub, r.lb)
	woken, live, err := s.table.recordIntermediate(epk, r.entity, r.prop, newValue, dependee, r.observed, true, s.strict)
	if err != nil {
		return s.fault(err)
	}
	if !live {
		// The key was finalized while the computation ran (fallback resolution
		// can race with a continuation). The stale report is dropped and the
		// computation must not re-suspend, or the dependee's later finalization
		// would wake a continuation for a key that can no longer move.
		s.logger.Tracef("dropping interim %s[%v]: already final", r.prop.Name(), r.entity)
		return nil
	}
	susp := &suspension{
		depender:  epk,
		dependee:  dependee,
		observed:  r.observed,
		finalOnly: r.finalOnly,
		resume:    r.resume,
	}
	// A dependee nobody computes yet may have a lazy provider.
	if !r.observed.HasProperty() {
		s.maybeScheduleLazy(r.observed.Entity, r.observed.Kind)
	}
	if s.table.register(susp) {
		// The dependee advanced between suspension and registration; the
		// continuation must not miss that update.
		s.wake(susp)
	}
	s.wakeAll(woken)
	s.fireTriggers(r.entity, r.prop)
	return nil
}

func (s *Store) ingestPartial(r Result) error {
	s.regMu.Lock()
	collaborative := s.collaborative[r.prop.ID()]
	s.regMu.Unlock()
	if !collaborative {
		return s.fault(fmt.Errorf("%w: %s", ErrNotCollaborative, r.prop))
	}
	epk := s.epkOf(r.entity, r.prop)
	woken, changed, err := s.table.recordPartial(epk, r.entity, r.prop, r.merge, s.strict)
	if err != nil {
		return s.fault(err)
	}
	if changed {
		s.wakeAll(woken)
		s.fireTriggers(r.entity, r.prop)
	}
	return nil
}

// fault handles a programming-error fault: fatal under strict checks,
// otherwise logged, with the offending update already dropped by the table.
func (s *Store) fault(err error) error {
	if s.strict {
		s.addError(err)
		return err
	}
	s.logger.Warnf("dropped inadmissible update: %s", err)
	return nil
}

func (s *Store) wake(susp *suspension) {
	if susp.scheduled.CompareAndSwap(false, true) {
		s.queue.push(task{kind: taskContinuation, susp: susp})
	}
}

func (s *Store) wakeAll(susps []*suspension) {
	for _, susp := range susps {
		s.wake(susp)
	}
}

// fireTriggers schedules triggered computations for e's newly computed kind.
// Scheduling is idempotent per (registration, entity), so racing updates of
// the same key fire each triggered analysis at most once.
func (s *Store) fireTriggers(e any, kind *properties.Kind) {
	s.regMu.Lock()
	regs := s.triggered[kind.ID()]
	s.regMu.Unlock()
	for _, reg := range regs {
		s.scheduleComputation(reg, e, taskTriggered)
	}
}

// Entities returns every entity whose current property of the given kind
// satisfies the predicate.
func (s *Store) Entities(kind *properties.Kind, pred func(properties.Value) bool) []any {
	var out []any
	for _, v := range s.table.snapshot() {
		if v.Kind == kind && pred(v) {
			out = append(out, v.Entity)
		}
	}
	return out
}

// addError records an error. The first error aborts the run: workers drop
// queued tasks, since a partially-updated dependency table cannot be trusted
// to continue.
func (s *Store) addError(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	s.errors = append(s.errors, err)
}

// CheckError returns the first error recorded during the run, if any.
func (s *Store) CheckError() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if len(s.errors) == 0 {
		return nil
	}
	return s.errors[0]
}

// runTask executes one scheduled task on a worker.
func (s *Store) runTask(t task) {
	if s.CheckError() != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.addError(fmt.Errorf("analysis panicked on task %s: %v", t, r))
		}
	}()
	switch t.kind {
	case taskInitial, taskTriggered:
		if v, ok := s.table.lookup(t.epk); ok && v.IsFinal() {
			return
		}
		res, err := t.comp(t.entity)
		if err != nil {
			s.addError(fmt.Errorf("analysis %q failed for %v: %w", t.reg.spec.Name, t.entity, err))
			return
		}
		if err := s.HandleResult(res); err != nil {
			s.addError(err)
		}
	case taskContinuation:
		susp := t.susp
		susp.scheduled.Store(false)
		if v, ok := s.table.lookup(susp.depender); ok && v.IsFinal() {
			// A final key never resumes. The suspension may have been woken
			// before quiescence resolution committed the depender.
			return
		}
		cur, ok := s.table.lookup(susp.dependee)
		if !ok {
			return
		}
		// Re-read the dependee: it may have advanced past the update that
		// woke the continuation, or the wake-up may be spurious after an
		// immediate re-registration.
		if cur.Same(susp.observed) || (susp.finalOnly && !cur.IsFinal()) {
			if s.table.register(susp) {
				s.wake(susp)
			}
			return
		}
		res, err := susp.resume(cur)
		if err != nil {
			s.addError(fmt.Errorf("continuation of %s failed: %w", susp.depender, err))
			return
		}
		if err := s.HandleResult(res); err != nil {
			s.addError(err)
		}
	}
}

// WaitForCompletion drains the task queue with the configured worker pool
// until global quiescence, then resolves every key that still lacks a final
// value: never-computed keys get their kind's fallback, refinable keys are
// committed at their current upper bound. Resolution wakes dependers like any
// other final update, so draining repeats until a pass changes nothing.
func (s *Store) WaitForCompletion() error {
	round := 0
	for {
		s.queue.drain(s.cfg.Workers, s.runTask)
		if err := s.CheckError(); err != nil {
			return err
		}
		round++
		if max := s.cfg.MaxQuiescenceRounds; max > 0 && round > max {
			return fmt.Errorf("no quiescence after %d resolution rounds", max)
		}
		if !s.resolveResidual() {
			break
		}
	}
	s.logger.Debugf("property store quiescent after %d round(s), %d entities", round, s.NumEntities())
	return s.CheckError()
}

// resolveResidual finalizes every key without a final value and reports
// whether anything changed. Residual dependency cycles are recorded for
// inspection before being broken.
func (s *Store) resolveResidual() bool {
	s.recordResidualCycles()
	changed := false
	// Eagerly derived kinds must end final for the whole universe, even for
	// entities whose computation reported NoResult.
	s.regMu.Lock()
	var eagerRegs []*registration
	for _, reg := range s.derived {
		if reg.mode == modeEager {
			eagerRegs = append(eagerRegs, reg)
		}
	}
	s.regMu.Unlock()
	for _, reg := range eagerRegs {
		kind := reg.spec.Derives
		for _, e := range s.universe() {
			epk := s.epkOf(e, kind)
			if v, ok := s.table.lookup(epk); !ok || !v.HasProperty() {
				s.resolve(e, kind, kind.Fallback())
				changed = true
			}
		}
	}
	for _, v := range s.table.snapshot() {
		if v.IsFinal() {
			continue
		}
		if v.HasProperty() {
			s.resolve(v.Entity, v.Kind, v.Upper())
		} else {
			s.resolve(v.Entity, v.Kind, v.Kind.Fallback())
		}
		changed = true
	}
	return changed || s.queue.pending() > 0
}

func (s *Store) resolve(e any, kind *properties.Kind, p properties.Property) {
	s.logger.Tracef("resolving %s[%v] to %s at quiescence", kind.Name(), e, p)
	if err := s.ingestFinal(e, kind, p); err != nil {
		s.addError(err)
	}
}
