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

// Package graphutil analyzes the dependency graphs the property store builds
// between entity-property keys: suspended computations are edges from a
// depender key to the key it waits on. The package adapts such graphs to
// existing graph libraries to find the strongly connected components and
// elementary cycles that survive to quiescence.
package graphutil

import (
	"sort"

	"github.com/awslabs/ar-fixpoint-tools/analysis/properties"
	"gonum.org/v1/gonum/graph"
)

// DepGraph is an abstraction over an entity-property dependency graph to work
// with existing graph libraries. It implements the methods to satisfy the
// yourbasic graph.Iterator and Gonum's graph.Graph interfaces.
type DepGraph struct {
	// The order of the graph
	order int

	// IDMap maps from node IDs to DNodes
	IDMap map[int64]DNode

	// Keys are all the node IDs
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed edge between IDMap[x] and IDMap[y]
	Edges map[int64]map[int64]bool
}

// A DNode wraps an entity-property key with the dense id it was assigned in a
// DepGraph; it implements the graph.Node interface.
type DNode struct {
	id  int64
	EPK properties.EPK
}

// ID returns the id of the node
func (n DNode) ID() int64 {
	return n.id
}

func (n DNode) String() string {
	return n.EPK.String()
}

// NewDependencyGraph returns a dependency graph over the given adjacency
// lists, where deps[x] lists the keys x depends on. Node ids are assigned in
// a deterministic order, so cycle reports are stable across runs.
func NewDependencyGraph(deps map[properties.EPK][]properties.EPK) DepGraph {
	all := map[properties.EPK]bool{}
	for from, tos := range deps {
		all[from] = true
		for _, to := range tos {
			all[to] = true
		}
	}
	epks := make([]properties.EPK, 0, len(all))
	for epk := range all {
		epks = append(epks, epk)
	}
	sort.Slice(epks, func(i, j int) bool {
		if epks[i].Entity != epks[j].Entity {
			return epks[i].Entity < epks[j].Entity
		}
		return epks[i].Kind < epks[j].Kind
	})

	idOf := make(map[properties.EPK]int64, len(epks))
	idmap := make(map[int64]DNode, len(epks))
	keys := make([]int64, len(epks))
	for i, epk := range epks {
		id := int64(i)
		idOf[epk] = id
		idmap[id] = DNode{id: id, EPK: epk}
		keys[i] = id
	}

	edges := make(map[int64]map[int64]bool, len(epks))
	for _, id := range keys {
		edges[id] = map[int64]bool{}
	}
	for from, tos := range deps {
		for _, to := range tos {
			edges[idOf[from]][idOf[to]] = true
		}
	}

	return DepGraph{
		order: len(epks),
		IDMap: idmap,
		Keys:  keys,
		Edges: edges,
	}
}

// Subgraph returns a new graph that is the original graph with only the nodes in include. Only the edges that have
// both the origin and destination nodes in the include nodes are kept in the resulting graph.
// The subgraph's order and IDMap are the same as in the original, meaning that node indices stay consistent
// across subgraphs.
func Subgraph(original DepGraph, include []int64) DepGraph {
	idmap := make(map[int64]DNode, len(include))
	edges := make(map[int64]map[int64]bool, len(include))
	keys := make([]int64, len(include))

	for j, i := range include {
		keys[j] = i
		idmap[i] = original.IDMap[i]
	}

	for _, i := range include {
		edges[i] = map[int64]bool{}
		for e := range original.Edges[i] {
			if _, ok := idmap[e]; ok {
				edges[i][e] = true
			}
		}
	}

	return DepGraph{
		order: original.Order(),
		IDMap: original.IDMap,
		Edges: edges,
		Keys:  keys,
	}
}

// Order implements the order of the graph.Iterator interface for the DepGraph
func (g DepGraph) Order() int {
	return g.order
}

// Visit implements the graph.Iterator interface for the DepGraph
func (g DepGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if _, ok := g.IDMap[int64(v)]; !ok {
		return false
	}
	for w := range g.Edges[int64(v)] {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface
func (g DepGraph) Node(v int) graph.Node {
	return g.IDMap[int64(v)]
}

// Nodes returns the set of nodes in the graph
func (g DepGraph) Nodes() graph.Nodes {
	keys := make([]int64, len(g.IDMap))

	i := 0
	for k := range g.IDMap {
		keys[i] = k
		i++
	}
	return &NodeSet{
		nodes: g.IDMap,
		ids:   keys,
		cur:   0,
	}
}

// From returns the set of nodes reachable from the id
func (g DepGraph) From(id int64) graph.Nodes {
	var keys []int64

	for out := range g.Edges[id] {
		keys = append(keys, out)
	}
	return &NodeSet{
		nodes: g.IDMap,
		ids:   keys,
		cur:   0,
	}
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers
func (g DepGraph) HasEdgeBetween(xid, yid int64) bool {
	xe := g.Edges[xid]
	ye := g.Edges[yid]
	return xe[yid] || ye[xid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (g DepGraph) Edge(uid, vid int64) graph.Edge {
	ue := g.Edges[uid]
	if ue != nil {
		if ue[vid] {
			return DEdge{from: g.IDMap[uid], to: g.IDMap[vid]}
		}
	}
	return nil
}

// *************** Nodes implementation **********************

// NodeSet implements the graph.Nodes interface, an iterator over a set of nodes
type NodeSet struct {
	// nodes is the set of nodes in the iterator
	nodes map[int64]DNode

	// ids is the set of node ids in the iterator
	// invariant: len(ids) = len(nodes)
	ids []int64

	// cur is the current index of the iterator. The current node is nodes[ids[cur]]
	// invariant: 0 <= cur < len(nodes)
	cur int
}

// Next moves the current node to the next, and returns true if such a node exists. Otherwise, returns false
// and the current node has not changed.
func (ns *NodeSet) Next() bool {
	if ns.cur < len(ns.ids)-1 {
		ns.cur++
		return true
	}
	return false
}

// Len returns the length of the node set
func (ns *NodeSet) Len() int {
	return len(ns.ids)
}

// Reset resets the id of the current node in the set
func (ns *NodeSet) Reset() {
	ns.cur = 0
}

// Node returns the current node in the set
func (ns *NodeSet) Node() graph.Node {
	return ns.nodes[ns.ids[ns.cur]]
}

// *************** Edge implementation **********************

// DEdge implements the graph.Edge interface
type DEdge struct {
	from DNode
	to   DNode
}

// From returns the origin of the edge
func (e DEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e DEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e DEdge) ReversedEdge() graph.Edge {
	return DEdge{from: e.to, to: e.from}
}
