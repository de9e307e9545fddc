// Package bridge sources the baseline Model a run starts optimizing
// from, per spec.md §1's "curve/method JSON bridges" external
// collaborator and SPEC_FULL.md §4.7's baseline-sourcing detail. The
// real fiat-crypto / bitcoin-core / jasmin generators are out of scope;
// FiatBridge and BitcoinCoreBridge here are reference/test-double
// synthesizers standing in for them (see DESIGN.md).
package bridge

import (
	"fmt"
	"os"

	"asmtune/internal/config"
	"asmtune/internal/errs"
	"asmtune/internal/model"
)

// Bridge produces a baseline ExportedState for a validated Config.
type Bridge interface {
	Baseline(cfg *config.Config) (*model.ExportedState, error)
}

// limbCounts approximates each curve's field-element limb count, used
// only to size the synthesized dependency chain FiatBridge and
// BitcoinCoreBridge emit; it has no bearing on correctness of a real
// baseline, which this module never sees.
var limbCounts = map[string]int{
	"curve25519": 5,
	"p256":       4,
	"secp256k1":  4,
}

// FiatBridge synthesizes a small deterministic dependency DAG standing
// in for a fiat-crypto-generated witness, for curve/method pairs in
// config.FiatCurves/config.FiatMethods.
type FiatBridge struct{}

func (FiatBridge) Baseline(cfg *config.Config) (*model.ExportedState, error) {
	limbs := limbCounts[cfg.Curve]
	if limbs == 0 {
		limbs = 4
	}
	return synthesize(cfg.Method, limbs), nil
}

// BitcoinCoreBridge synthesizes the same shape of DAG as FiatBridge,
// restricted to config.BitcoinCoreMethods; secp256k1 is bitcoin-core's
// only field.
type BitcoinCoreBridge struct{}

func (BitcoinCoreBridge) Baseline(cfg *config.Config) (*model.ExportedState, error) {
	return synthesize(cfg.Method, limbCounts["secp256k1"]), nil
}

// ManualBridge reads a model.ExportedState from --jsonFile. --cFile is
// carried alongside as provenance metadata by the orchestrator; this
// bridge does not parse it.
type ManualBridge struct{}

func (ManualBridge) Baseline(cfg *config.Config) (*model.ExportedState, error) {
	return readState(cfg.JSONFile)
}

// JasminBridge reads a model.ExportedState produced by an external
// Jasmin extraction step, the same wire shape ManualBridge reads.
type JasminBridge struct{}

func (JasminBridge) Baseline(cfg *config.Config) (*model.ExportedState, error) {
	return readState(cfg.JSONFile)
}

// For selects the concrete Bridge implementation named by bridgeName
// (a validated Config's Bridge field); an unknown name is a BadConfig.
func For(bridgeName string) (Bridge, error) {
	switch bridgeName {
	case config.BridgeFiat:
		return FiatBridge{}, nil
	case config.BridgeManual:
		return ManualBridge{}, nil
	case config.BridgeBitcoinCore:
		return BitcoinCoreBridge{}, nil
	case config.BridgeJasmin:
		return JasminBridge{}, nil
	default:
		return nil, errs.New(errs.BadConfig, "bridge: unknown bridge "+bridgeName)
	}
}

func readState(path string) (*model.ExportedState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.BadConfig, "bridge: failed to read "+path, err)
	}
	m, err := model.ImportJSON(data)
	if err != nil {
		return nil, err
	}
	return m.Export(), nil
}

// synthesize builds limbs*2 load nodes, then per limb one op node (mulx,
// or adcx for add/sub) fed by two loads and the previous carry, plus an
// adox carry node, and finally a trailing spill and store — enough shape for the optimizer to have both permutation and decision
// mutations to exercise, without claiming to be a real field-arithmetic
// baseline.
func synthesize(method string, limbs int) *model.ExportedState {
	var nodes []*model.Node
	var order []model.NodeID

	loads := make([]model.NodeID, 0, limbs*2)
	for i := 0; i < limbs*2; i++ {
		id := model.NodeID(fmt.Sprintf("load%d", i))
		nodes = append(nodes, &model.Node{ID: id, Kind: "load"})
		order = append(order, id)
		loads = append(loads, id)
	}

	mulKind := "mulx"
	if method == "add" || method == "sub" {
		mulKind = "adcx"
	}

	prev := model.NodeID("")
	for i := 0; i < limbs; i++ {
		mulID := model.NodeID(fmt.Sprintf("op%d", i))
		deps := []model.NodeID{loads[2*i], loads[2*i+1]}
		if prev != "" {
			deps = append(deps, prev)
		}
		nodes = append(nodes, &model.Node{
			ID:   mulID,
			Kind: mulKind,
			Deps: deps,
			Decisions: []model.Decision{
				{Name: "lane", Choices: []string{"gpr", "xmm"}, Current: 0, Hot: true},
			},
		})
		order = append(order, mulID)

		carryID := model.NodeID(fmt.Sprintf("carry%d", i))
		nodes = append(nodes, &model.Node{ID: carryID, Kind: "adox", Deps: []model.NodeID{mulID}})
		order = append(order, carryID)

		prev = carryID
	}

	spillID := model.NodeID("spill_out")
	nodes = append(nodes, &model.Node{
		ID:   spillID,
		Kind: "spill",
		Deps: []model.NodeID{prev},
		Decisions: []model.Decision{
			{Name: "target", Choices: []string{"stack0", "stack1"}, Current: 0, Hot: true},
		},
	})
	order = append(order, spillID)

	storeID := model.NodeID("store_out")
	nodes = append(nodes, &model.Node{ID: storeID, Kind: "store", Deps: []model.NodeID{spillID}})
	order = append(order, storeID)

	return &model.ExportedState{Nodes: nodes, Order: order}
}
