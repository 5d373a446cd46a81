package risk

// Rule-based scoring thresholds. A batch flags when component A runs
// hot and pH runs acidic at the same time.
const (
	RuleComponentALimit = 0.70
	RulePHLimit         = 6.9

	ruleComponentASpan = 0.1
	rulePHSpan         = 0.2
)

// RuleScore is the outcome of the rule-based strategy for one batch.
type RuleScore struct {
	PFailure float64
	RiskFlag bool
}

// ScoreRule computes the rule-based risk score: an equally weighted
// linear combination of component A excess and pH deficit, clipped to
// [0,1]. The flag requires both conditions simultaneously, so a
// flagged batch can carry a sub-threshold probability and vice versa.
func ScoreRule(componentA, avgPH float64) RuleScore {
	p := 0.5*(componentA-RuleComponentALimit)/ruleComponentASpan +
		0.5*(RulePHLimit-avgPH)/rulePHSpan
	return RuleScore{
		PFailure: clip01(p),
		RiskFlag: componentA > RuleComponentALimit && avgPH < RulePHLimit,
	}
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
