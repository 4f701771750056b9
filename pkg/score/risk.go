package score

// Landlord risk bounds. A score never reads as 0% or 100%.
const (
	RiskBase  = 50
	RiskFloor = 10
	RiskCap   = 99
)

// Rent-to-income tiers.
const (
	RatioExcellent = 0.30
	RatioGood      = 0.35
	RatioFair      = 0.40
	RatioStretched = 0.50

	RatioExcellentPoints = 45
	RatioGoodPoints      = 35
	RatioFairPoints      = 20
	RatioStretchedPoints = 5
	RatioOverPenalty     = -20
)

// Profession stability bonuses.
const (
	StableProfessionPoints = 10
	StudentPoints          = 5
)

var stableProfessions = []string{"engineer", "doctor", "manager", "developer"}

var ratioTiers = []tier[float64]{
	{"excellent", RatioExcellentPoints, func(r float64) bool { return r <= RatioExcellent }},
	{"good", RatioGoodPoints, func(r float64) bool { return r <= RatioGood }},
	{"fair", RatioFairPoints, func(r float64) bool { return r <= RatioFair }},
	{"stretched", RatioStretchedPoints, func(r float64) bool { return r <= RatioStretched }},
	{"over", RatioOverPenalty, func(float64) bool { return true }},
}

var professionTiers = []tier[string]{
	{"stable", StableProfessionPoints, func(p string) bool { return containsAny(p, stableProfessions...) }},
	{"student", StudentPoints, func(p string) bool { return containsAny(p, "student") }},
}

// RiskBreakdown explains how a landlord risk score was reached.
type RiskBreakdown struct {
	Ratio           float64 `json:"ratio"`
	RatioTier       string  `json:"ratio_tier,omitempty"`
	RatioPoints     int     `json:"ratio_points"`
	ProfessionTier  string  `json:"profession_tier,omitempty"`
	ProfessionBonus int     `json:"profession_bonus"`
	Raw             int     `json:"raw"`
	Score           int     `json:"score"`
}

// LandlordRisk scores an applicant for a property, in [RiskFloor, RiskCap].
// Higher is a safer applicant.
func LandlordRisk(income float64, profession string, rent float64) int {
	return ExplainLandlordRisk(income, profession, rent).Score
}

// ExplainLandlordRisk is LandlordRisk with the per-adjustment detail.
func ExplainLandlordRisk(income float64, profession string, rent float64) RiskBreakdown {
	var b RiskBreakdown
	if income > 0 && rent > 0 {
		b.Ratio = rent / income
		hit, _ := firstTier(ratioTiers, b.Ratio)
		b.RatioTier, b.RatioPoints = hit.name, hit.points
	}
	if hit, ok := firstTier(professionTiers, normalize(profession)); ok {
		b.ProfessionTier, b.ProfessionBonus = hit.name, hit.points
	}
	b.Raw = RiskBase + b.RatioPoints + b.ProfessionBonus
	b.Score = clamp(b.Raw, RiskFloor, RiskCap)
	return b
}
