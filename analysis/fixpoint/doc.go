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

// Package fixpoint implements the parallel property store at the heart of the
// analysis framework: a fixpoint engine over entity-property keys.
//
// Analyses register property computations (eagerly, lazily, or triggered by
// another property) and return results instead of blocking: a computation that
// needs a property another analysis has not finished yet returns an interim
// result carrying a continuation, and the store resumes the continuation when
// the dependee changes. A fixed worker pool drains the task queue; when no
// task is runnable and no worker is executing, the run is quiescent and any
// entity-property key still without a final value is resolved, which may wake
// further continuations. Dependency cycles between analyses therefore never
// block a worker; they survive to quiescence and are resolved there.
//
// All shared state lives in the store's sharded dependency table and is
// mutated exclusively by result ingestion; computations themselves are plain
// functions from an entity to a result.
package fixpoint
