package score

import "github.com/elonfeng/roomivo/pkg/rental"

// Tenant match bounds. The floor keeps every listing at a non-discouraging
// score even when nothing is known about the tenant.
const (
	MatchFloor = 40
	MatchCap   = 99
)

// Financial fit.
const (
	FinancialWithinBudget  = 40
	FinancialIncomeThird   = 40
	FinancialNearBudget    = 20
	FinancialIncomeStretch = 15

	IncomeShareComfortable = 0.33
	IncomeShareStretch     = 0.40
	BudgetTolerance        = 1.15
)

// Location fit.
const (
	LocationMatch   = 35
	LocationPartial = 5
)

// Age brackets for the lifestyle rules.
const (
	StudentAgeBelow = 25
	SeniorAgeFrom   = 60
)

// Bio cross-check points.
const (
	BioFamilyPoints = 10
	BioPetPoints    = 10
	BioQuietPoints  = 5
)

type financialInput struct {
	price     float64
	budgetMax float64
	income    float64
}

var financialTiers = []tier[financialInput]{
	{"within_budget", FinancialWithinBudget, func(in financialInput) bool {
		return in.budgetMax > 0 && in.price <= in.budgetMax
	}},
	{"income_third", FinancialIncomeThird, func(in financialInput) bool {
		return in.income > 0 && in.price <= in.income*IncomeShareComfortable
	}},
	{"near_budget", FinancialNearBudget, func(in financialInput) bool {
		return in.budgetMax > 0 && in.price <= in.budgetMax*BudgetTolerance
	}},
	{"income_stretch", FinancialIncomeStretch, func(in financialInput) bool {
		return in.income > 0 && in.price <= in.income*IncomeShareStretch
	}},
}

var (
	studentRules = []keywordRule{
		{"student", 10, []string{"student", "university", "campus"}},
		{"shared", 5, []string{"shared", "colocation"}},
		{"furnished", 5, []string{"furnished"}},
	}
	professionalRules = []keywordRule{
		{"modern", 5, []string{"modern", "renovated"}},
		{"transport", 5, []string{"transport", "metro", "parking"}},
		{"internet", 5, []string{"fiber", "internet"}},
	}
	seniorRules = []keywordRule{
		{"elevator", 10, []string{"elevator", "ascenseur"}},
		{"ground_floor", 10, []string{"ground floor", "rez-de-chaussée"}},
		{"quiet", 5, []string{"quiet", "calm"}},
	}
)

// bioRule fires when the tenant's bio mentions a word and the listing
// offers one of the matching features.
type bioRule struct {
	tag    string
	points int
	bio    string
	any    []string
}

var bioRules = []bioRule{
	{"family", BioFamilyPoints, "family", []string{"school", "garden"}},
	{"pet", BioPetPoints, "pet", []string{"pet", "garden"}},
	{"quiet", BioQuietPoints, "quiet", []string{"quiet"}},
}

// MatchBreakdown explains how a tenant match score was reached.
type MatchBreakdown struct {
	Financial     int      `json:"financial"`
	FinancialTier string   `json:"financial_tier,omitempty"`
	Location      int      `json:"location"`
	Lifestyle     int      `json:"lifestyle"`
	Bracket       string   `json:"bracket,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Raw           int      `json:"raw"`
	Score         int      `json:"score"`
}

// TenantMatch scores how well p suits t, in [MatchFloor, MatchCap].
// A nil tenant is an anonymous caller and always gets MatchFloor.
func TenantMatch(t *rental.TenantProfile, p rental.Property) int {
	return ExplainTenantMatch(t, p).Score
}

// ExplainTenantMatch is TenantMatch with the per-bucket detail.
func ExplainTenantMatch(t *rental.TenantProfile, p rental.Property) MatchBreakdown {
	var b MatchBreakdown
	if t != nil {
		b.Financial, b.FinancialTier = financialFit(t, p)
		b.Location = locationFit(t.PreferredLocation, p.Location)
		b.Lifestyle, b.Bracket, b.Tags = lifestyleFit(t, p)
	}
	b.Raw = b.Financial + b.Location + b.Lifestyle
	b.Score = clamp(b.Raw, MatchFloor, MatchCap)
	return b
}

func financialFit(t *rental.TenantProfile, p rental.Property) (int, string) {
	in := financialInput{price: p.Price, budgetMax: t.BudgetMax, income: t.Income}
	if hit, ok := firstTier(financialTiers, in); ok {
		return hit.points, hit.name
	}
	return 0, ""
}

func locationFit(preferred, location string) int {
	// A whitespace-only preference counts as no preference.
	pref := normalize(preferred)
	if pref == "" {
		return 0
	}
	if overlaps(pref, normalize(location)) {
		return LocationMatch
	}
	return LocationPartial
}

func lifestyleFit(t *rental.TenantProfile, p rental.Property) (int, string, []string) {
	hay := Haystack(p.Description, p.Amenities)

	var (
		total   int
		tags    []string
		bracket string
	)
	if rules, name := bracketRules(t.Age); rules != nil {
		bracket = name
		total, tags = applyRules(hay, rules)
	}

	bio := normalize(t.Bio)
	if bio == "" {
		return total, bracket, tags
	}
	for _, r := range bioRules {
		if containsAny(bio, r.bio) && containsAny(hay, r.any...) {
			total += r.points
			tags = append(tags, "bio_"+r.tag)
		}
	}
	return total, bracket, tags
}

// bracketRules picks exactly one rule set for age; nil when age is unknown.
func bracketRules(age int) ([]keywordRule, string) {
	switch {
	case age <= 0:
		return nil, ""
	case age < StudentAgeBelow:
		return studentRules, "student"
	case age < SeniorAgeFrom:
		return professionalRules, "professional"
	default:
		return seniorRules, "senior"
	}
}
