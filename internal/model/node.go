package model

// NodeID is a stable node identity, unique within a Model.
type NodeID string

// Decision is a per-node code-generation choice with a finite domain
// and a hotness flag. Hotness marks whether the decision currently has
// measurable impact on the rendered assembly; only hot decisions are
// eligible for mutateDecision.
type Decision struct {
	Name    string   `json:"name"`
	Choices []string `json:"choices"`
	Current int      `json:"current"`
	Hot     bool     `json:"hot"`
}

// Value returns the decision's currently selected choice.
func (d *Decision) Value() string {
	if d.Current < 0 || d.Current >= len(d.Choices) {
		return ""
	}
	return d.Choices[d.Current]
}

func (d Decision) clone() Decision {
	choices := make([]string, len(d.Choices))
	copy(choices, d.Choices)
	d.Choices = choices
	return d
}

// Node is a unit of the IR representing one high-level operation
// (add-with-carry, multiply, load, spill, ...).
type Node struct {
	ID       NodeID     `json:"id"`
	Kind     string     `json:"kind"`
	Deps     []NodeID   `json:"deps"`
	Decisions []Decision `json:"decisions"`
}

func (n *Node) clone() *Node {
	out := &Node{ID: n.ID, Kind: n.Kind}
	out.Deps = make([]NodeID, len(n.Deps))
	copy(out.Deps, n.Deps)
	out.Decisions = make([]Decision, len(n.Decisions))
	for i, d := range n.Decisions {
		out.Decisions[i] = d.clone()
	}
	return out
}

// HotDecisionIndices returns the indices into n.Decisions that are
// currently hot.
func (n *Node) HotDecisionIndices() []int {
	var out []int
	for i, d := range n.Decisions {
		if d.Hot {
			out = append(out, i)
		}
	}
	return out
}
