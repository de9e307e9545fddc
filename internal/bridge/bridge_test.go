package bridge

import (
	"os"
	"path/filepath"
	"testing"

	"asmtune/internal/config"
	"asmtune/internal/model"
)

func TestForUnknownBridgeIsBadConfig(t *testing.T) {
	if _, err := For("bogus"); err == nil {
		t.Fatalf("For() with an unknown bridge should error")
	}
}

func TestFiatBridgeProducesValidModel(t *testing.T) {
	cfg := &config.Config{Curve: "curve25519", Method: "mul"}
	state, err := FiatBridge{}.Baseline(cfg)
	if err != nil {
		t.Fatalf("Baseline() error: %v", err)
	}
	m, err := model.Import(state)
	if err != nil {
		t.Fatalf("model.Import(synthesized state) error: %v", err)
	}
	if m.Len() == 0 {
		t.Fatalf("synthesized model has no nodes")
	}
}

func TestBitcoinCoreBridgeProducesValidModel(t *testing.T) {
	cfg := &config.Config{Curve: "secp256k1", Method: "square"}
	state, err := BitcoinCoreBridge{}.Baseline(cfg)
	if err != nil {
		t.Fatalf("Baseline() error: %v", err)
	}
	if _, err := model.Import(state); err != nil {
		t.Fatalf("model.Import(synthesized state) error: %v", err)
	}
}

func TestManualBridgeReadsJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	original, err := FiatBridge{}.Baseline(&config.Config{Curve: "curve25519", Method: "mul"})
	if err != nil {
		t.Fatalf("Baseline() error: %v", err)
	}
	m, err := model.Import(original)
	if err != nil {
		t.Fatalf("model.Import() error: %v", err)
	}
	data, err := m.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON() error: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	state, err := ManualBridge{}.Baseline(&config.Config{JSONFile: path})
	if err != nil {
		t.Fatalf("ManualBridge.Baseline() error: %v", err)
	}
	if len(state.Nodes) != len(original.Nodes) {
		t.Fatalf("ManualBridge round trip lost nodes: got %d, want %d", len(state.Nodes), len(original.Nodes))
	}
}

func TestManualBridgeMissingFileIsBadConfig(t *testing.T) {
	if _, err := (ManualBridge{}).Baseline(&config.Config{JSONFile: "/nonexistent/path.json"}); err == nil {
		t.Fatalf("ManualBridge.Baseline() with a missing file should error")
	}
}
