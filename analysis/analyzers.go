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

// Package analysis contains helper functions for running analysis passes.
package analysis

import (
	"fmt"
	"time"

	"github.com/awslabs/ar-fixpoint-tools/analysis/callers"
	"github.com/awslabs/ar-fixpoint-tools/analysis/config"
	"github.com/awslabs/ar-fixpoint-tools/analysis/fixpoint"
	"github.com/awslabs/ar-fixpoint-tools/analysis/purity"
	"golang.org/x/tools/go/ssa"
)

// RunParams represents the arguments for RunFixpoint.
type RunParams struct {
	// Logger is the log group of the run.
	Logger *config.LogGroup

	// Config holds the options and the problem specifications. The analyses
	// registered on the store are the ones the config names a problem for.
	Config *config.Config

	// Program is the SSA program whose functions are the entities.
	Program *ssa.Program
}

// RunResult is the outcome of a fixpoint run: the quiescent store and the
// entity universe, ready for the reporting layer to query.
type RunResult struct {
	Store    *fixpoint.Store
	Entities []*ssa.Function

	// PurityReport is non-nil when a purity problem was configured.
	PurityReport *purity.Report
}

// RunFixpoint builds a property store over the program's functions, registers
// the analyses the config asks for, and drains the store to quiescence.
func RunFixpoint(params RunParams) (RunResult, error) {
	logger := params.Logger
	cfg := params.Config

	entities := FunctionEntities(params.Program, cfg)
	if len(entities) == 0 {
		return RunResult{}, fmt.Errorf("no function matches the package filter %q", cfg.PkgFilter)
	}
	universe := make([]any, len(entities))
	for i, f := range entities {
		universe[i] = f
	}
	store := fixpoint.NewStore(logger, cfg, universe)
	result := RunResult{Store: store, Entities: entities}

	if len(cfg.PurityProblems) > 0 {
		if err := purity.Register(store, logger); err != nil {
			return RunResult{}, err
		}
		result.PurityReport = &purity.Report{}
		if err := purity.RegisterReporter(store, logger, result.PurityReport); err != nil {
			return RunResult{}, err
		}
		// The purity computation is lazy; querying every entity seeds it for
		// the whole universe.
		for _, f := range entities {
			store.Query(f, purity.Kind)
		}
	}
	if len(cfg.CallersProblems) > 0 {
		if err := callers.Register(store, logger); err != nil {
			return RunResult{}, err
		}
	}

	logger.Infof("Starting fixpoint computation over %d functions...", len(entities))
	start := time.Now()
	if err := store.WaitForCompletion(); err != nil {
		return RunResult{}, fmt.Errorf("fixpoint computation failed: %w", err)
	}
	logger.Infof("Fixpoint reached (%.2f s).", time.Since(start).Seconds())
	if cycles := store.ResidualCycles(); len(cycles) > 0 {
		logger.Debugf("%d dependency cycle(s) resolved at quiescence", len(cycles))
	}
	return result, nil
}
