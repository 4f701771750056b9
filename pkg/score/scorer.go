// Package score holds the tenant match and landlord risk heuristics.
//
// Both scorers are pure functions over their inputs and are safe to call
// from any number of goroutines. Callers must not pass negative prices,
// rents, or incomes; those are rejected at the API boundary instead.
package score

import "github.com/elonfeng/roomivo/pkg/rental"

// Scorer is the scoring capability consumed by the ranking layer.
type Scorer interface {
	Match(t *rental.TenantProfile, p rental.Property) int
	Risk(income float64, profession string, rent float64) int
}

// Heuristic is the built-in rule-based Scorer.
type Heuristic struct{}

// Default is the Scorer used unless a caller swaps in its own.
var Default Scorer = Heuristic{}

func (Heuristic) Match(t *rental.TenantProfile, p rental.Property) int {
	return TenantMatch(t, p)
}

func (Heuristic) Risk(income float64, profession string, rent float64) int {
	return LandlordRisk(income, profession, rent)
}

// Explainer is implemented by scorers that can show how a score was reached.
type Explainer interface {
	ExplainMatch(t *rental.TenantProfile, p rental.Property) MatchBreakdown
	ExplainRisk(income float64, profession string, rent float64) RiskBreakdown
}

func (Heuristic) ExplainMatch(t *rental.TenantProfile, p rental.Property) MatchBreakdown {
	return ExplainTenantMatch(t, p)
}

func (Heuristic) ExplainRisk(income float64, profession string, rent float64) RiskBreakdown {
	return ExplainLandlordRisk(income, profession, rent)
}
