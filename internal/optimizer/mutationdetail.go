package optimizer

import (
	"fmt"

	"asmtune/internal/model"
)

// choiceLabel and detail strings feeding the mutation-log CSV columns
// spec.md §3 names: choice, permutation-details, decision-details.
func choiceLabel(mutated bool, rec model.MutationRecord) string {
	if !mutated {
		return "none"
	}
	return rec.Kind.String()
}

func permutationDetails(mutated bool, rec model.MutationRecord) string {
	if !mutated || rec.Kind != model.Permutation {
		return ""
	}
	return fmt.Sprintf("node=%s from=%d to=%d walked=%d", rec.NodeID, rec.FromPos, rec.ToPos, rec.Walked)
}

func decisionDetails(mutated bool, rec model.MutationRecord) string {
	if !mutated || rec.Kind != model.DecisionFlip {
		return ""
	}
	return fmt.Sprintf("node=%s name=%s old=%s new=%s", rec.DecisionNode, rec.DecisionName, rec.OldValue, rec.NewValue)
}
