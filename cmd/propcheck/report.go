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

package main

import (
	"flag"
	"fmt"
	"go/types"
	"os"
	"strings"

	"github.com/awslabs/ar-fixpoint-tools/analysis"
	"github.com/awslabs/ar-fixpoint-tools/analysis/annotate"
	"github.com/awslabs/ar-fixpoint-tools/analysis/callers"
	"github.com/awslabs/ar-fixpoint-tools/analysis/config"
	"github.com/awslabs/ar-fixpoint-tools/analysis/purity"
	"github.com/awslabs/ar-fixpoint-tools/internal/formatutil"
	"golang.org/x/tools/go/ssa"
)

// reporter prints the analysis results through the log group and, when
// report-results is set, mirrors them into a file under the reports
// directory.
type reporter struct {
	logger  *config.LogGroup
	cfg     *config.Config
	program *ssa.Program
	result  analysis.RunResult
	file    *os.File
}

func newReporter(logger *config.LogGroup, cfg *config.Config, program *ssa.Program,
	result analysis.RunResult) *reporter {
	rep := &reporter{logger: logger, cfg: cfg, program: program, result: result}
	if cfg.ReportResults {
		tmp, err := os.CreateTemp(cfg.ReportsDir, "propcheck-*.out")
		if err != nil {
			logger.Errorf("Could not create report file in %s: %v", cfg.ReportsDir, err)
		} else {
			rep.file = tmp
		}
	}
	return rep
}

func (rep *reporter) writef(format string, args ...any) {
	if rep.file != nil {
		fmt.Fprintf(rep.file, format+"\n", args...)
	}
}

func (rep *reporter) close() error {
	if rep.file == nil {
		return nil
	}
	name := rep.file.Name()
	if err := rep.file.Close(); err != nil {
		return fmt.Errorf("could not close report file %s: %v", name, err)
	}
	rep.logger.Infof("Report written to %s", name)
	return nil
}

// reportPurity prints, for each configured purity problem, the functions
// proven pure, and rewrites their sources with a directive comment when the
// problem asks for annotations.
func (rep *reporter) reportPurity() {
	if len(rep.cfg.PurityProblems) == 0 {
		return
	}
	pure := purity.PureFunctions(rep.result.Store)
	for i, spec := range rep.cfg.PurityProblems {
		selected := selectFuncs(pure, spec.Filters)
		rep.logger.Infof("")
		rep.logger.Infof("PURITY (problem %d): %s out of %d functions",
			i, formatutil.Green(fmt.Sprintf("%d pure", len(selected))), len(rep.result.Entities))
		rep.writef("purity problem %d: %d pure functions", i, len(selected))
		for _, f := range selected {
			pos := rep.program.Fset.Position(f.Pos())
			rep.logger.Infof("  %s %s\n\t%s", formatutil.Green("pure"),
				formatutil.Sanitize(f.String()), pos.String())
			rep.writef("pure %s at %s", f.String(), pos.String())
		}
		if spec.AnnotateSources {
			rep.annotatePure(selected)
		}
	}
}

func (rep *reporter) annotatePure(pure []*ssa.Function) {
	keys := make(map[string]bool, len(pure))
	for _, f := range pure {
		keys[annotate.KeyOf(f)] = true
	}
	rep.logger.Infof("Annotating sources with %s directives...", annotate.Directive)
	if err := annotate.MarkPure(flag.Args(), keys, analysis.PkgLoadMode, rep.logger); err != nil {
		rep.logger.Errorf("Could not annotate sources: %v", err)
	}
}

// reportCallers prints the caller set of every function matching a target of
// a configured callers problem.
func (rep *reporter) reportCallers() {
	for i, spec := range rep.cfg.CallersProblems {
		targets := selectFuncs(rep.result.Entities, spec.Targets)
		rep.logger.Infof("")
		rep.logger.Infof("CALLERS (problem %d): %d target functions", i, len(targets))
		rep.writef("callers problem %d: %d targets", i, len(targets))
		for _, f := range targets {
			callerFuncs := callers.CallersOf(rep.result.Store, f)
			// Without explicit targets, uncalled functions are noise.
			if len(spec.Targets) == 0 && len(callerFuncs) == 0 {
				continue
			}
			names := make([]string, len(callerFuncs))
			for j, c := range callerFuncs {
				names[j] = c.String()
			}
			rep.logger.Infof("  %s is called by [%s]",
				formatutil.Cyan(formatutil.Sanitize(f.String())),
				formatutil.Sanitize(strings.Join(names, ", ")))
			rep.writef("callers of %s: [%s]", f.String(), strings.Join(names, ", "))
		}
	}
	if len(rep.cfg.CallersProblems) > 0 {
		rep.reportRecursiveGroups()
	}
}

func (rep *reporter) reportRecursiveGroups() {
	groups := callers.RecursiveGroups(rep.result.Store, rep.result.Entities)
	if len(groups) == 0 {
		return
	}
	rep.logger.Infof("%d group(s) of mutually recursive functions:", len(groups))
	for _, group := range groups {
		names := make([]string, len(group))
		for i, f := range group {
			names[i] = f.String()
		}
		rep.logger.Infof("  [%s]", formatutil.Sanitize(strings.Join(names, ", ")))
		rep.writef("recursive group: [%s]", strings.Join(names, ", "))
	}
}

// reportCycles surfaces the dependency cycles that had to be resolved at
// quiescence. Cycles are expected for mutually recursive functions; they are
// only worth a warning when strict checking is on.
func (rep *reporter) reportCycles() {
	cycles := rep.result.Store.ResidualCycles()
	if len(cycles) == 0 {
		return
	}
	rep.logger.Infof("")
	rep.logger.Infof("%d dependency cycle(s) were resolved at quiescence.", len(cycles))
	for _, cycle := range cycles {
		members := make([]string, 0, len(cycle))
		for _, v := range cycle {
			members = append(members, v.String())
		}
		rep.logger.Debugf("  cycle: %s", formatutil.Sanitize(strings.Join(members, " -> ")))
		rep.writef("cycle: %s", strings.Join(members, " -> "))
	}
}

// selectFuncs returns the functions matching at least one identifier. An
// empty identifier list selects everything.
func selectFuncs(funcs []*ssa.Function, cids []config.CodeIdentifier) []*ssa.Function {
	if len(cids) == 0 {
		return funcs
	}
	var selected []*ssa.Function
	for _, f := range funcs {
		pkg, method, recv := funcIdentifiers(f)
		if config.ExistsCid(cids, func(cid config.CodeIdentifier) bool {
			return cid.Matches(pkg, method, recv)
		}) {
			selected = append(selected, f)
		}
	}
	return selected
}

func funcIdentifiers(f *ssa.Function) (pkg, method, recv string) {
	if f.Package() != nil {
		pkg = f.Package().Pkg.Path()
	}
	method = f.Name()
	if r := f.Signature.Recv(); r != nil {
		t := r.Type()
		if ptr, ok := t.(*types.Pointer); ok {
			t = ptr.Elem()
		}
		if named, ok := t.(*types.Named); ok {
			recv = named.Obj().Name()
		}
	}
	return pkg, method, recv
}
