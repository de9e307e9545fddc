package model

import (
	"math"

	"asmtune/internal/errs"
	"asmtune/internal/rng"
)

// MutationKind discriminates the two kinds of mutation a Model supports.
type MutationKind int

const (
	// Permutation reorders a node within its dependency-legal interval.
	Permutation MutationKind = iota
	// DecisionFlip changes a hot decision to a different choice.
	DecisionFlip
)

func (k MutationKind) String() string {
	if k == DecisionFlip {
		return "decision"
	}
	return "permutation"
}

// MutationRecord describes the most recently applied mutation, in
// enough detail to drive the mutation-log CSV.
type MutationRecord struct {
	Kind MutationKind

	// Permutation fields.
	NodeID  NodeID
	FromPos int
	ToPos   int
	Walked  int

	// DecisionFlip fields.
	DecisionNode  NodeID
	DecisionName  string
	OldValue      string
	NewValue      string
}

type undoEntry struct {
	kind MutationKind

	nodeID  NodeID
	fromPos int
	toPos   int

	decisionNode  NodeID
	decisionIndex int
	oldChoice     int
}

// geometricStep draws a geometric(p=0.5) variate via inverse-CDF over
// Rng.UniformReal, biasing toward small local reorderings while still
// allowing an occasional long-range move.
func geometricStep(r *rng.Rng) int {
	const p = 0.5
	u := r.UniformReal()
	if u >= 1 {
		u = 0.999999999
	}
	k := math.Floor(math.Log(1-u) / math.Log(1-p))
	if k < 0 {
		k = 0
	}
	return int(k)
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// legalInterval returns the [lo, hi] positions node id may occupy
// without violating any dependency, in the current order's indexing.
func (m *Model) legalInterval(id NodeID) (lo, hi int) {
	n := m.nodes[id]
	lo = 0
	for _, dep := range n.Deps {
		if p, ok := m.position[dep]; ok && p+1 > lo {
			lo = p + 1
		}
	}
	hi = len(m.order) - 1
	for _, other := range m.nodes {
		for _, dep := range other.Deps {
			if dep == id {
				if p, ok := m.position[other.ID]; ok && p-1 < hi {
					hi = p - 1
				}
				break
			}
		}
	}
	return lo, hi
}

// relocate removes the element at position from and reinserts it at
// position to, both measured in the current (pre-removal) order's
// indexing; to is also the index the element occupies in the resulting
// order.
func relocate(order []NodeID, from, to int) []NodeID {
	id := order[from]
	rest := make([]NodeID, 0, len(order)-1)
	rest = append(rest, order[:from]...)
	rest = append(rest, order[from+1:]...)
	out := make([]NodeID, 0, len(order))
	out = append(out, rest[:to]...)
	out = append(out, id)
	out = append(out, rest[to:]...)
	return out
}

func (m *Model) reindex() {
	for i, id := range m.order {
		m.position[id] = i
	}
}

// MutatePermutation always succeeds: it picks a node and a direction at
// random, slides it to a new position within the interval its
// dependencies allow via a bounded geometric random walk, and records
// an undo entry. If the node has no legal room to move (lo == hi), this
// is a no-op with Walked == 0, which still counts as "succeeded" and
// still pushes a (trivial) undo entry.
func (m *Model) MutatePermutation(r *rng.Rng) (MutationRecord, error) {
	if len(m.order) == 0 {
		return MutationRecord{}, errs.New(errs.BadState, "model: cannot mutate an empty model")
	}
	p := r.UniformIndex(len(m.order))
	id := m.order[p]
	lo, hi := m.legalInterval(id)

	rec := MutationRecord{Kind: Permutation, NodeID: id, FromPos: p, ToPos: p, Walked: 0}
	if lo >= hi {
		m.pushUndo(undoEntry{kind: Permutation, nodeID: id, fromPos: p, toPos: p})
		return rec, nil
	}

	toward := hi
	maxStep := hi - p
	if !r.Bool() {
		toward = lo
		maxStep = p - lo
	}
	step := geometricStep(r)
	if step > maxStep {
		step = maxStep
	}
	var target int
	if toward == hi {
		target = p + step
	} else {
		target = p - step
	}
	target = clampInt(target, lo, hi)

	rec.Walked = step
	rec.ToPos = target

	if target != p {
		m.order = relocate(m.order, p, target)
		m.reindex()
	}
	m.pushUndo(undoEntry{kind: Permutation, nodeID: id, fromPos: p, toPos: target})
	return rec, nil
}

// MutateDecision flips a uniformly chosen hot decision (one with at
// least two choices) to a uniformly chosen other value in its choice
// set. Returns false, without error and without pushing an undo entry,
// iff no hot decision exists.
func (m *Model) MutateDecision(r *rng.Rng) (MutationRecord, bool, error) {
	type ref struct {
		node NodeID
		idx  int
	}
	var hot []ref
	for _, id := range m.order {
		n := m.nodes[id]
		for i, d := range n.Decisions {
			if d.Hot && len(d.Choices) >= 2 {
				hot = append(hot, ref{node: id, idx: i})
			}
		}
	}
	if len(hot) == 0 {
		return MutationRecord{}, false, nil
	}
	chosen := hot[r.UniformIndex(len(hot))]
	node := m.nodes[chosen.node]
	dec := &node.Decisions[chosen.idx]

	oldIdx := dec.Current
	newIdx := oldIdx
	for newIdx == oldIdx {
		newIdx = r.UniformIndex(len(dec.Choices))
	}

	rec := MutationRecord{
		Kind:         DecisionFlip,
		DecisionNode: chosen.node,
		DecisionName: dec.Name,
		OldValue:     dec.Choices[oldIdx],
		NewValue:     dec.Choices[newIdx],
	}
	dec.Current = newIdx
	m.pushUndo(undoEntry{kind: DecisionFlip, decisionNode: chosen.node, decisionIndex: chosen.idx, oldChoice: oldIdx})
	return rec, true, nil
}

func (m *Model) pushUndo(e undoEntry) {
	m.undo = e
	m.hasUndo = true
}

// RevertLastMutation undoes exactly the most recent mutation. Calling
// it with no pending mutation (none applied yet, or already reverted)
// is a BadState.
func (m *Model) RevertLastMutation() error {
	if !m.hasUndo {
		return errs.New(errs.BadState, "model: no pending mutation to revert")
	}
	e := m.undo
	m.hasUndo = false

	switch e.kind {
	case Permutation:
		if e.fromPos != e.toPos {
			m.order = relocate(m.order, e.toPos, e.fromPos)
			m.reindex()
		}
	case DecisionFlip:
		m.nodes[e.decisionNode].Decisions[e.decisionIndex].Current = e.oldChoice
	}
	return nil
}

// SaveSnapshot stores a named, random-access copy of the current state.
// Snapshots are independent of the undo log; multiple snapshots may
// coexist.
func (m *Model) SaveSnapshot(id string) {
	m.snapshots[id] = snapshot{
		order: append([]NodeID{}, m.order...),
		nodes: cloneNodes(m.nodes),
	}
}

// RestoreSnapshot restores a previously saved snapshot. Missing id is a
// BadState.
func (m *Model) RestoreSnapshot(id string) error {
	snap, ok := m.snapshots[id]
	if !ok {
		return errs.New(errs.BadState, "model: no such snapshot: "+id)
	}
	m.order = append([]NodeID{}, snap.order...)
	m.nodes = cloneNodes(snap.nodes)
	m.reindex()
	m.hasUndo = false
	return nil
}

// HasSnapshot reports whether a snapshot with the given id exists.
func (m *Model) HasSnapshot(id string) bool {
	_, ok := m.snapshots[id]
	return ok
}
