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

/*
Package config provides the configuration of an analysis run.

Use [Load](filename) to load a configuration from a specific filename.

Use [SetGlobalConfig](filename) to set filename as the global config, and then [LoadGlobal]() to load the global config.

A config file is in yaml format. The top-level fields can be any of the fields defined in the [Config]
struct type; the nested fields are defined by the types of those fields. For example, a valid config file
is as follows:

	log-level: 4
	workers: 8
	strict-checks: true
	pkg-filter: "^example.com/app"

	purity-problems:
	  - filters:
	      - package: "^example.com/app$"
	    annotate-sources: false

	callers-problems:
	  - targets:
	      - method: "^HandleRequest$"

# Identifying code elements

The config uses [CodeIdentifier] to identify specific code entities in problem specifications. The string
fields of an identifier are interpreted as regexes if they can be compiled to regexes, otherwise as plain
strings, and empty fields match anything.

The package also provides the [LogGroup] leveled logging used by every analysis.
*/
package config
