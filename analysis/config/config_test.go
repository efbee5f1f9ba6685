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

package config

import (
	"path/filepath"
	"testing"
)

func checkMatches(t *testing.T, cid CodeIdentifier, pkg, method, receiver string) {
	c := CompileRegexes(cid)
	if !c.Matches(pkg, method, receiver) {
		t.Errorf("%v should match (%q, %q, %q)", cid, pkg, method, receiver)
	}
}

func checkNotMatches(t *testing.T, cid CodeIdentifier, pkg, method, receiver string) {
	c := CompileRegexes(cid)
	if c.Matches(pkg, method, receiver) {
		t.Errorf("%v should not match (%q, %q, %q)", cid, pkg, method, receiver)
	}
}

func TestCodeIdentifier_emptyMatchesAny(t *testing.T) {
	checkMatches(t, CodeIdentifier{}, "any/pkg", "AnyFunc", "")
	checkMatches(t, CodeIdentifier{}, "", "", "")
}

func TestCodeIdentifier_plainFields(t *testing.T) {
	cid := CodeIdentifier{Package: "example.com/sample", Method: "Run"}
	checkMatches(t, cid, "example.com/sample", "Run", "")
	checkNotMatches(t, cid, "example.com/sample", "Walk", "")
}

func TestCodeIdentifier_regexes(t *testing.T) {
	cid := CodeIdentifier{Method: "(main)|(command-line-arguments)$"}
	checkMatches(t, cid, "whatever", "main", "")
	checkMatches(t, cid, "whatever", "command-line-arguments", "")
	checkNotMatches(t, cid, "whatever", "other", "")
}

func TestCodeIdentifier_receiver(t *testing.T) {
	cid := CodeIdentifier{Receiver: "Server", Method: "Handle.*"}
	checkMatches(t, cid, "p", "HandleRequest", "Server")
	checkNotMatches(t, cid, "p", "HandleRequest", "Client")
}

func TestLoadConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("could not load config: %s", err)
	}
	if cfg.LogLevel != int(DebugLevel) {
		t.Errorf("expected log level %d, got %d", DebugLevel, cfg.LogLevel)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Workers)
	}
	if !cfg.StrictChecks {
		t.Errorf("expected strict checks to be enabled")
	}
	if !cfg.MatchPkgFilter("example.com/sample/sub") {
		t.Errorf("pkg-filter should match subpackages of example.com/sample")
	}
	if cfg.MatchPkgFilter("other.org/lib") {
		t.Errorf("pkg-filter should not match other.org/lib")
	}
	if len(cfg.PurityProblems) != 1 || len(cfg.PurityProblems[0].Filters) != 1 {
		t.Fatalf("expected one purity problem with one filter, got %+v", cfg.PurityProblems)
	}
	if !cfg.PurityProblems[0].Filters[0].Matches("example.com/sample", "ComputeSum", "") {
		t.Errorf("purity filter should match ComputeSum")
	}
	if len(cfg.CallersProblems) != 1 {
		t.Fatalf("expected one callers problem, got %+v", cfg.CallersProblems)
	}
	if !cfg.CallersProblems[0].Targets[0].Matches("p", "HandleRequest", "") {
		t.Errorf("callers target should match HandleRequest")
	}
}

func TestLoadGlobalConfig(t *testing.T) {
	SetGlobalConfig(filepath.Join("testdata", "config.yaml"))
	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("could not load global config: %s", err)
	}
	if cfg.PkgFilter == "" {
		t.Errorf("expected a pkg-filter in the global config")
	}
}

func TestDefaultLogLevel(t *testing.T) {
	cfg := NewDefault()
	if cfg.LogLevel != int(InfoLevel) {
		t.Errorf("default log level should be info")
	}
	l := NewLogGroup(cfg)
	if l == nil {
		t.Fatalf("NewLogGroup returned nil")
	}
}
