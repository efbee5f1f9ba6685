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

package callers_test

import (
	"path"
	"runtime"
	"testing"

	"github.com/awslabs/ar-fixpoint-tools/analysis"
	"github.com/awslabs/ar-fixpoint-tools/analysis/callers"
	"github.com/awslabs/ar-fixpoint-tools/analysis/config"
	"github.com/awslabs/ar-fixpoint-tools/internal/analysistest"
	"golang.org/x/tools/go/ssa"
)

func TestCallers(t *testing.T) {
	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "testdata/callers")
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

	byName := map[string]*ssa.Function{}
	for _, f := range result.Entities {
		byName[f.Name()] = f
	}
	for _, name := range []string{"helper", "fromA", "fromB", "lonely", "main"} {
		if byName[name] == nil {
			t.Fatalf("function %s not in the entity universe", name)
		}
	}

	expected := map[string][]string{
		"helper": {"fromA", "fromB"},
		"fromA":  {"main"},
		"fromB":  {"main"},
		"lonely": {"main"},
		"main":   {},
	}
	for name, want := range expected {
		got := callers.CallersOf(result.Store, byName[name])
		if len(got) != len(want) {
			t.Errorf("%s: expected %d callers %v, got %d", name, len(want), want, len(got))
			continue
		}
		for i, caller := range got {
			if caller.Name() != want[i] {
				t.Errorf("%s: expected caller %s at %d, got %s", name, want[i], i, caller.Name())
			}
		}
	}

	if groups := callers.RecursiveGroups(result.Store, result.Entities); len(groups) != 0 {
		t.Errorf("expected no recursive group in an acyclic program, got %v", groups)
	}
}

func TestRecursiveGroups(t *testing.T) {
	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "testdata/recursive")
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

	groups := callers.RecursiveGroups(result.Store, result.Entities)
	// count is self-recursive, even and odd are mutually recursive; top and
	// main are not in any cycle.
	expected := [][]string{{"count"}, {"even", "odd"}}
	if len(groups) != len(expected) {
		t.Fatalf("expected %d recursive groups, got %d: %v", len(expected), len(groups), groups)
	}
	for i, want := range expected {
		if len(groups[i]) != len(want) {
			t.Fatalf("group %d: expected %v, got %v", i, want, groups[i])
		}
		for j, name := range want {
			if groups[i][j].Name() != name {
				t.Errorf("group %d: expected %s at %d, got %s", i, name, j, groups[i][j].Name())
			}
		}
	}
}
