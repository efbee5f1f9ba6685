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

// Package properties defines the property lattice model shared by all fixpoint
// analyses: properties (lattice values), property kinds (categories of facts
// with a declared fallback), entity-property keys and the three-phase
// knowledge states the property store tracks for each key.
//
// The model is purely value-based. All mutation of analysis state happens in
// the fixpoint package; nothing in this package has side effects beyond kind
// registration.
package properties
