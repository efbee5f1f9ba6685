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

package purity

import (
	"fmt"
	"sort"
	"sync"

	"github.com/awslabs/ar-fixpoint-tools/analysis/config"
	"github.com/awslabs/ar-fixpoint-tools/analysis/fixpoint"
	"github.com/awslabs/ar-fixpoint-tools/analysis/properties"
	"golang.org/x/tools/go/ssa"
)

// ReportedKind marks functions the reporter has picked up. It exists so the
// reporter is an ordinary derivation the store can validate and deduplicate.
var ReportedKind = properties.NewKind("PurityReported", properties.BoolProperty(false))

// A Report accumulates the functions whose purity was computed during a run.
// It is populated concurrently by the triggered reporter and read after
// WaitForCompletion.
type Report struct {
	mu    sync.Mutex
	funcs []*ssa.Function
}

func (r *Report) add(f *ssa.Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs = append(r.funcs, f)
}

// Functions returns the recorded functions in a deterministic order.
func (r *Report) Functions() []*ssa.Function {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ssa.Function, len(r.funcs))
	copy(out, r.funcs)
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// RegisterReporter registers a triggered computation that fires once per
// function the first time its purity reaches any computed state, and records
// the function in the report.
func RegisterReporter(store *fixpoint.Store, logger *config.LogGroup, report *Report) error {
	return store.RegisterTriggered(Kind,
		fixpoint.Spec{Name: "purity-reporter", Derives: ReportedKind, Uses: []*properties.Kind{Kind}},
		func(entity any) (fixpoint.Result, error) {
			f, ok := entity.(*ssa.Function)
			if !ok {
				return fixpoint.Result{}, fmt.Errorf("purity reporter entity is %T, not an ssa function", entity)
			}
			report.add(f)
			logger.Tracef("purity computed for %s", f)
			return fixpoint.Final(entity, ReportedKind, properties.BoolProperty(true)), nil
		})
}
