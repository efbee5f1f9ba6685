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

package annotate_test

import (
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/awslabs/ar-fixpoint-tools/analysis"
	"github.com/awslabs/ar-fixpoint-tools/analysis/annotate"
	"github.com/awslabs/ar-fixpoint-tools/analysis/config"
	"golang.org/x/tools/go/ssa"
)

func TestMarkPure(t *testing.T) {
	_, filename, _, _ := runtime.Caller(0)
	src := path.Join(path.Dir(filename), "testdata/annotate/main.go")
	b, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("could not read testdata: %s", err)
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "main.go")
	if err := os.WriteFile(target, b, 0644); err != nil {
		t.Fatalf("could not copy testdata: %s", err)
	}

	program, err := analysis.LoadProgram(nil, "", ssa.BuilderMode(0), []string{target})
	if err != nil {
		t.Fatalf("error loading program: %s", err)
	}
	var add *ssa.Function
	for _, f := range analysis.FunctionEntities(program.Program, config.NewDefault()) {
		if f.Name() == "add" {
			add = f
		}
	}
	if add == nil {
		t.Fatal("function add not found")
	}

	pure := map[string]bool{annotate.KeyOf(add): true}
	logger := config.TestLogGroup()
	if err := annotate.MarkPure([]string{target}, pure, analysis.PkgLoadMode, logger); err != nil {
		t.Fatalf("MarkPure: %s", err)
	}

	out, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("could not read annotated file: %s", err)
	}
	content := string(out)
	if got := strings.Count(content, annotate.Directive); got != 1 {
		t.Fatalf("expected exactly one directive, found %d in:\n%s", got, content)
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "func add") {
			if i == 0 || !strings.Contains(lines[i-1], annotate.Directive) {
				t.Errorf("directive not directly above func add:\n%s", content)
			}
		}
		if strings.HasPrefix(strings.TrimSpace(line), "func bump") {
			if i > 0 && strings.Contains(lines[i-1], annotate.Directive) {
				t.Errorf("bump must not be annotated:\n%s", content)
			}
		}
	}

	// A second pass is a no-op: the directive is already present.
	if err := annotate.MarkPure([]string{target}, pure, analysis.PkgLoadMode, logger); err != nil {
		t.Fatalf("second MarkPure: %s", err)
	}
	out2, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("could not re-read annotated file: %s", err)
	}
	if got := strings.Count(string(out2), annotate.Directive); got != 1 {
		t.Errorf("annotation must be idempotent, found %d directives", got)
	}
}
