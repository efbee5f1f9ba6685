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

package purity_test

import (
	"path"
	"runtime"
	"testing"

	"github.com/awslabs/ar-fixpoint-tools/analysis"
	"github.com/awslabs/ar-fixpoint-tools/analysis/config"
	"github.com/awslabs/ar-fixpoint-tools/analysis/purity"
	"github.com/awslabs/ar-fixpoint-tools/internal/analysistest"
	"github.com/awslabs/ar-fixpoint-tools/internal/funcutil"
)

func TestPurity(t *testing.T) {
	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "testdata/purity")
	program, cfg := analysistest.LoadTest(t, dir, nil)
	logger := config.NewLogGroup(cfg)

	result, err := analysis.RunFixpoint(analysis.RunParams{
		Logger:  logger,
		Config:  cfg,
		Program: program,
	})
	if err != nil {
		t.Fatalf("fixpoint run failed: %s", err)
	}

	expected, err := analysistest.GetExpectedPurity(dir)
	if err != nil {
		t.Fatalf("could not parse expectations: %s", err)
	}
	if len(expected) == 0 {
		t.Fatal("no purity expectations in testdata")
	}

	pureSet := map[string]bool{}
	for _, f := range purity.PureFunctions(result.Store) {
		pureSet[f.Name()] = true
	}
	for name, wantPure := range expected {
		if pureSet[name] != wantPure {
			if wantPure {
				t.Errorf("%s should be proven pure, pure set is %v",
					name, funcutil.SetToOrderedSlice(pureSet))
			} else {
				t.Errorf("%s should not be proven pure", name)
			}
		}
	}

	// The triggered reporter fires once for every analyzed function: every
	// entity's purity reaches a computed state by quiescence.
	if result.PurityReport == nil {
		t.Fatal("expected a purity report")
	}
	if got, want := len(result.PurityReport.Functions()), len(result.Entities); got != want {
		t.Errorf("reporter saw %d functions, universe has %d", got, want)
	}
}
