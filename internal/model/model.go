// Package model implements the mutable program IR: an ordered list of
// nodes in topological order plus per-node decision state, with
// reversible mutation (undo log) and random-access snapshotting.
package model

import (
	"encoding/json"
	"fmt"

	"asmtune/internal/errs"
)

// Model holds the set of Nodes, a topological order (a permutation of
// Nodes consistent with dependencies), a map of named snapshots, and an
// undo log sufficient to reverse the most recent single mutation.
type Model struct {
	nodes    map[NodeID]*Node
	order    []NodeID
	position map[NodeID]int

	snapshots map[string]snapshot
	undo      undoEntry
	hasUndo   bool
}

type snapshot struct {
	order []NodeID
	nodes map[NodeID]*Node
}

// New builds a Model from nodes and an initial topological order. The
// order is validated against the dependency DAG; an invalid order is a
// BadState (a caller-supplied baseline is assumed already valid).
func New(nodes []*Node, order []NodeID) (*Model, error) {
	m := &Model{
		nodes:     make(map[NodeID]*Node, len(nodes)),
		order:     append([]NodeID{}, order...),
		position:  make(map[NodeID]int, len(nodes)),
		snapshots: make(map[string]snapshot),
	}
	for _, n := range nodes {
		m.nodes[n.ID] = n.clone()
	}
	for i, id := range m.order {
		m.position[id] = i
	}
	if !m.isValidTopoOrder(m.order) {
		return nil, errs.New(errs.BadState, "model: initial order is not a valid topological sort")
	}
	return m, nil
}

// Nodes returns the set of node ids, unordered.
func (m *Model) Nodes() []NodeID {
	out := make([]NodeID, 0, len(m.nodes))
	for id := range m.nodes {
		out = append(out, id)
	}
	return out
}

// Node looks up a node by id.
func (m *Model) Node(id NodeID) (*Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// Order returns the current topological order, in position order.
// NodesInTopologicalOrder is the spec's name for this, exposed for the
// tested_incorrect.json dump.
func (m *Model) Order() []NodeID {
	out := make([]NodeID, len(m.order))
	copy(out, m.order)
	return out
}

// NodesInTopologicalOrder returns the Node values in current order,
// matching the name spec.md §6 uses for the diagnostic JSON dump.
func (m *Model) NodesInTopologicalOrder() []*Node {
	out := make([]*Node, len(m.order))
	for i, id := range m.order {
		out[i] = m.nodes[id]
	}
	return out
}

// Len is the number of nodes in the model.
func (m *Model) Len() int { return len(m.order) }

func (m *Model) isValidTopoOrder(order []NodeID) bool {
	pos := make(map[NodeID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	if len(pos) != len(m.nodes) {
		return false
	}
	for _, id := range order {
		n, ok := m.nodes[id]
		if !ok {
			return false
		}
		for _, dep := range n.Deps {
			depPos, ok := pos[dep]
			if !ok || depPos >= pos[id] {
				return false
			}
		}
	}
	return true
}

// cloneNodes deep-copies the node map.
func cloneNodes(in map[NodeID]*Node) map[NodeID]*Node {
	out := make(map[NodeID]*Node, len(in))
	for id, n := range in {
		out[id] = n.clone()
	}
	return out
}

// ExportedState is the JSON wire shape for Model.Export/Import, and for
// the tested_incorrect.json / seed<digits>.dat state dumps.
type ExportedState struct {
	Nodes []*Node  `json:"nodes"`
	Order []NodeID `json:"order"`
}

// Export renders the current state losslessly; Import(Export()) is the
// identity.
func (m *Model) Export() *ExportedState {
	nodes := make([]*Node, 0, len(m.order))
	for _, id := range m.order {
		nodes = append(nodes, m.nodes[id].clone())
	}
	return &ExportedState{Nodes: nodes, Order: m.Order()}
}

// Import rebuilds a Model from an ExportedState produced by Export (or
// an externally generated baseline witness with the same shape).
func Import(state *ExportedState) (*Model, error) {
	if state == nil {
		return nil, errs.New(errs.BadConfig, "model: import of nil state")
	}
	return New(state.Nodes, state.Order)
}

// ExportJSON/ImportJSON are the JSON-text convenience wrappers used by
// internal/bridge and the orchestrator's readState/startFromBestJson.
func (m *Model) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(m.Export(), "", "  ")
}

// ImportJSON parses JSON text produced by ExportJSON (or an external
// bridge) into a new Model.
func ImportJSON(data []byte) (*Model, error) {
	var state ExportedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errs.Wrap(errs.BadConfig, "model: malformed JSON state", err)
	}
	return Import(&state)
}

func (m *Model) String() string {
	return fmt.Sprintf("Model{nodes=%d}", len(m.nodes))
}
