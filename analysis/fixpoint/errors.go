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

package fixpoint

import "errors"

// The faults below indicate programming errors in registered analyses, not
// conditions the store can recover from. With strict checks enabled (see
// config.Options.StrictChecks) they abort the run; otherwise the offending
// update is dropped after a warning so the dependency table stays consistent.
var (
	// ErrConflictingFinal is the fault raised when a final value is reported
	// for an entity-property key that already holds a different final value.
	ErrConflictingFinal = errors.New("conflicting final property values")

	// ErrLatticeRegression is the fault raised when an intermediate update is
	// less precise than the bound previously recorded for the same key.
	ErrLatticeRegression = errors.New("intermediate update regresses lattice order")

	// ErrNoProgress is the fault raised when a resumed continuation reports
	// exactly the knowledge the store already had, including the same
	// dependee: the computation made no progress and would spin forever.
	ErrNoProgress = errors.New("continuation made no progress")

	// ErrNotCollaborative is the fault raised when a partial result targets a
	// property kind that no registered analysis derives collaboratively.
	ErrNotCollaborative = errors.New("partial result for non-collaborative property kind")

	// ErrDuplicateDerivation is returned by registration when a property kind
	// is already derived eagerly by another registered analysis.
	ErrDuplicateDerivation = errors.New("property kind already derived eagerly")
)
