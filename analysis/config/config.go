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
	"fmt"
	"os"
	"path"
	"regexp"

	"github.com/awslabs/ar-fixpoint-tools/internal/funcutil"
	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config holds the options of an analysis run and the problem specifications
// of the individual analyses. To add elements to a config file, add fields to
// this struct. If some field is not defined in the config file, it will be
// empty/zero in the struct. Private fields are not populated from a yaml
// file, but computed after initialization.
type Config struct {
	Options `yaml:",inline"`

	sourceFile string

	// if the PkgFilter is specified
	pkgFilterRegex *regexp.Regexp

	// PurityProblems lists the purity analysis specifications
	PurityProblems []PuritySpec `yaml:"purity-problems"`

	// CallersProblems lists the caller-collection specifications
	CallersProblems []CallersSpec `yaml:"callers-problems"`
}

// PuritySpec configures one purity analysis problem: which functions to
// report and whether the analyzed sources should be annotated in place.
type PuritySpec struct {
	// Filters restricts the reported functions to those matching one of the
	// identifiers. An empty list reports every analyzed function.
	Filters []CodeIdentifier

	// AnnotateSources rewrites the analyzed source files, marking functions
	// proven pure with a comment directive.
	AnnotateSources bool `yaml:"annotate-sources"`
}

// CallersSpec configures one caller-collection problem: the functions whose
// caller sets should be reported.
type CallersSpec struct {
	// Targets is the list of identifiers whose callers are reported. An
	// empty list reports all functions with at least one caller.
	Targets []CodeIdentifier
}

// Options holds the global options of an analysis run.
type Options struct {
	// ReportsDir is the directory where all the reports will be stored. If the yaml config file this config struct
	// has been loaded from does not specify a ReportsDir but sets ReportResults to true, then ReportsDir will be
	// created in the folder the binary is called.
	ReportsDir string `yaml:"reports-dir"`

	// PkgFilter restricts the entities enumerated for analysis to the functions whose package matches the filter.
	PkgFilter string `yaml:"pkg-filter"`

	// Workers is the size of the property store's worker pool. If it is <= 0, one worker per available CPU is used.
	Workers int `yaml:"workers"`

	// StrictChecks enables the store's debug-mode assertions: lattice regressions, conflicting final values and
	// non-progressing continuations abort the run instead of being dropped with a warning.
	StrictChecks bool `yaml:"strict-checks"`

	// MaxQuiescenceRounds bounds the number of fallback-resolution rounds at quiescence. If it is <= 0, the number
	// of rounds is unbounded; runs terminate anyway because resolved keys never reopen.
	MaxQuiescenceRounds int `yaml:"max-quiescence-rounds"`

	// ReportResults can be set to true, in which case the analysis results are written to a file in ReportsDir
	// instead of standard output.
	ReportResults bool `yaml:"report-results"`

	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:      "",
		PurityProblems:  nil,
		CallersProblems: nil,
		Options: Options{
			ReportsDir:          "",
			PkgFilter:           "",
			Workers:             0,
			StrictChecks:        false,
			MaxQuiescenceRounds: 0,
			ReportResults:       false,
			LogLevel:            int(InfoLevel),
			SilenceWarn:         false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}

	cfg.sourceFile = filename

	if cfg.ReportResults {
		if err := setReportsDir(cfg, filename); err != nil {
			return nil, err
		}
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	if cfg.PkgFilter != "" {
		r, err := regexp.Compile(cfg.PkgFilter)
		if err == nil {
			cfg.pkgFilterRegex = r
		}
	}

	for i, pSpec := range cfg.PurityProblems {
		cfg.PurityProblems[i].Filters = funcutil.Map(pSpec.Filters, CompileRegexes)
	}
	for i, cSpec := range cfg.CallersProblems {
		cfg.CallersProblems[i].Targets = funcutil.Map(cSpec.Targets, CompileRegexes)
	}

	return cfg, nil
}

func setReportsDir(c *Config, filename string) error {
	if c.ReportsDir == "" {
		tmpdir, err := os.MkdirTemp(path.Dir(filename), "*-report")
		if err != nil {
			return fmt.Errorf("could not create temp dir for reports")
		}
		c.ReportsDir = tmpdir
		return nil
	}
	err := os.Mkdir(c.ReportsDir, 0750)
	if err != nil && !os.IsExist(err) {
		return fmt.Errorf("could not create directory %s", c.ReportsDir)
	}
	return nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// MatchPkgFilter matches a package name against the package filter of the config file. Returns true if the package
// name matches the filter, or if no filter is set.
func (c Config) MatchPkgFilter(pkgname string) bool {
	if c.pkgFilterRegex != nil {
		return c.pkgFilterRegex.MatchString(pkgname)
	}
	return c.PkgFilter == "" || pkgname == c.PkgFilter
}
