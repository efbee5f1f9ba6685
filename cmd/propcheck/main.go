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

// propcheck: a tool that runs fixpoint property analyses (purity,
// caller collection) over the functions of a Go program and reports
// the computed properties.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/awslabs/ar-fixpoint-tools/analysis"
	"github.com/awslabs/ar-fixpoint-tools/analysis/config"
	"github.com/awslabs/ar-fixpoint-tools/internal/formatutil"
	"golang.org/x/tools/go/ssa"
)

var (
	configPath = flag.String("config", "", "Config file path for the property analyses")
	buildmode  = ssa.BuilderMode(0)
)

func init() {
	flag.Var(&buildmode, "build", ssa.BuilderModeDoc)
}

const usage = ` Compute function properties of your packages by parallel fixpoint iteration.
Usage:
    propcheck [options] <package path(s)>
Examples:
% propcheck -config config.yaml package...
The config file selects the problems to solve (purity-problems, callers-problems).
`

func main() {
	flag.Parse()

	if flag.NArg() == 0 || *configPath == "" {
		_, _ = fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
		os.Exit(2)
	}

	config.SetGlobalConfig(*configPath)
	cfg, err := config.LoadGlobal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config %s: %v\n", *configPath, err)
		os.Exit(1)
	}
	logger := config.NewLogGroup(cfg)

	if len(cfg.PurityProblems) == 0 && len(cfg.CallersProblems) == 0 {
		fmt.Fprintf(os.Stderr, "config %s specifies no problem to solve\n", *configPath)
		os.Exit(1)
	}

	logger.Infof(formatutil.Faint("Reading sources") + "\n")
	program, err := analysis.LoadProgram(nil, "", buildmode, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load program: %v\n", err)
		os.Exit(1)
	}

	result, err := analysis.RunFixpoint(analysis.RunParams{
		Logger:  logger,
		Config:  cfg,
		Program: program.Program,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	rep := newReporter(logger, cfg, program.Program, result)
	rep.reportPurity()
	rep.reportCallers()
	rep.reportCycles()
	if err := rep.close(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
