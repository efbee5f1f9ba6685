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

import (
	"fmt"

	"github.com/awslabs/ar-fixpoint-tools/analysis/properties"
)

type taskKind uint8

const (
	// taskInitial is the first run of a computation for a freshly observed
	// entity, from an eager registration or a lazy registration's first query.
	taskInitial taskKind = iota
	// taskTriggered is a computation run because another property of the same
	// entity reached a qualifying state.
	taskTriggered
	// taskContinuation resumes a suspended computation whose dependee changed.
	taskContinuation
)

// A task is an immutable unit of schedulable work. The scheduler only executes
// tasks; it never mutates them.
type task struct {
	kind   taskKind
	epk    properties.EPK
	entity any
	prop   *properties.Kind
	comp   Computation
	reg    *registration
	susp   *suspension
}

func (t task) String() string {
	switch t.kind {
	case taskInitial:
		return fmt.Sprintf("initial(%s)", t.epk)
	case taskTriggered:
		return fmt.Sprintf("triggered(%s)", t.epk)
	case taskContinuation:
		return fmt.Sprintf("continuation(%s<-%s)", t.susp.depender, t.susp.dependee)
	default:
		return fmt.Sprintf("task(%d)", t.kind)
	}
}
