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

import "regexp"

// A CodeIdentifier identifies a code entity in the analyzed program, in
// config-file problem specifications. The string fields are interpreted as
// regexes when they compile, and as plain strings otherwise. An empty field
// matches anything.
type CodeIdentifier struct {
	// Package is the (full) package name of the entity.
	Package string
	// Method is the function or method name of the entity.
	Method string
	// Receiver is the receiver type name for methods.
	Receiver string

	// This will not be part of the yaml config
	computedRegexs *codeIdentifierRegex
}

type codeIdentifierRegex struct {
	packageRegex  *regexp.Regexp
	methodRegex   *regexp.Regexp
	receiverRegex *regexp.Regexp
}

// CompileRegexes compiles the strings in the code identifier into regexes.
// It compiles all identifiers into regexes or none.
func CompileRegexes(cid CodeIdentifier) CodeIdentifier {
	packageRegex, err := regexp.Compile(cid.Package)
	if err != nil {
		return cid
	}
	methodRegex, err := regexp.Compile(cid.Method)
	if err != nil {
		return cid
	}
	receiverRegex, err := regexp.Compile(cid.Receiver)
	if err != nil {
		return cid
	}
	cid.computedRegexs = &codeIdentifierRegex{packageRegex, methodRegex, receiverRegex}
	return cid
}

// Matches returns true if the identifier matches the given package, method
// and receiver names on all its non-empty fields.
func (cid *CodeIdentifier) Matches(pkg, method, receiver string) bool {
	if cid.computedRegexs != nil {
		return (cid.Package == "" || cid.computedRegexs.packageRegex.MatchString(pkg)) &&
			(cid.Method == "" || cid.computedRegexs.methodRegex.MatchString(method)) &&
			(cid.Receiver == "" || cid.computedRegexs.receiverRegex.MatchString(receiver))
	}
	return (cid.Package == "" || cid.Package == pkg) &&
		(cid.Method == "" || cid.Method == method) &&
		(cid.Receiver == "" || cid.Receiver == receiver)
}

// ExistsCid is true if there is some x in a such that f(x) is true.
// O(len(a))
func ExistsCid(a []CodeIdentifier, f func(identifier CodeIdentifier) bool) bool {
	for _, x := range a {
		if f(x) {
			return true
		}
	}
	return false
}
