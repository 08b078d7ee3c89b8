package mtf

import (
	"fmt"
	"math"
	"strings"
)

type compensation struct {
	Boost      float64
	Confidence float64
	Confirmed  bool
	Reason     string
}

// secondaryBoost maps the secondary trend strength onto a bounded boost.
// The per-tier absolute caps are deliberate and not re-derived from the
// configured cap; they keep the contribution from this source under 0.28
// even with a raised MaxHybridBoost.
func secondaryBoost(strength, cap float64) (float64, string) {
	switch {
	case strength >= 0.9:
		return math.Min(0.8*cap, 0.28), "secondary strong"
	case strength >= 0.8:
		return math.Min(0.6*cap, 0.21), "secondary trend"
	case strength >= 0.7:
		return math.Min(0.4*cap, 0.14), "secondary moderate"
	case strength >= 0.6:
		return math.Min(0.2*cap, 0.07), "secondary weak"
	}
	return 0, ""
}

func marketBoost(momentum, cap float64) (float64, string) {
	switch {
	case momentum >= 0.8:
		return math.Min(0.5*cap, 0.175), "market strong"
	case momentum >= 0.7:
		return math.Min(0.3*cap, 0.105), "market"
	case momentum >= 0.6:
		return math.Min(0.15*cap, 0.052), "market moderate"
	}
	return 0, ""
}

// guard replaces non-finite scores so a NaN can never reach the final
// decision. Upstream validation should make this unreachable.
func guard(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// compensate blends the three scores into the final decision.
func (e *Evaluator) compensate(prim primaryOutcome, secondaryStrength, marketMomentum float64) compensation {
	cap := e.cfg.MaxHybridBoost
	primaryConfidence := guard(prim.Confidence, 0)
	strength := guard(secondaryStrength, 0.5)
	momentum := guard(marketMomentum, 0.5)

	sb, sLabel := secondaryBoost(strength, cap)
	mb, mLabel := marketBoost(momentum, cap)
	total := math.Min(sb+mb, cap)
	boosted := math.Min(1.0, primaryConfidence+total)
	confirmed := boosted >= e.cfg.MinPrimaryConfidence

	var parts []string
	if sb > 0 {
		parts = append(parts, fmt.Sprintf("%s +%.2f", sLabel, sb))
	}
	if mb > 0 {
		parts = append(parts, fmt.Sprintf("%s +%.2f", mLabel, mb))
	}

	var reason string
	switch {
	case confirmed && !prim.Confirmed:
		reason = fmt.Sprintf("hybrid compensation applied: %.2f -> %.2f (%s)",
			primaryConfidence, boosted, strings.Join(parts, ", "))
	case confirmed:
		reason = prim.Details.Reason
		if total > 0 {
			reason += fmt.Sprintf(" + reinforcement +%.2f (%s)", total, strings.Join(parts, ", "))
		}
	default:
		reason = fmt.Sprintf("not confirmed: %.2f < %.2f", boosted, e.cfg.MinPrimaryConfidence)
		if total > 0 {
			reason += fmt.Sprintf(" (compensation +%.2f insufficient)", total)
		}
	}

	return compensation{
		Boost:      total,
		Confidence: boosted,
		Confirmed:  confirmed,
		Reason:     reason,
	}
}
