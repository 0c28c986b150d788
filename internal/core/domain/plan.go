package domain

// businessLimits is the business-count table enforced on the sync path.
// The PRO key predates the LITE/ENTREPRENEUR split and is kept because older
// clients still report it; unknown tiers fall back to the FREE limit.
var businessLimits = map[PlanTier]int{
	PlanFree:        2,
	PlanTier("PRO"): 10,
	PlanUnlimited:   999,
}

// managerLimits bounds the number of non-owner collaborators per business.
var managerLimits = map[PlanTier]int{
	PlanFree:         0,
	PlanLite:         1,
	PlanEntrepreneur: 5,
	PlanUnlimited:    9999,
}

// BusinessLimit returns how many businesses an account on the given plan may own.
func BusinessLimit(plan PlanTier) int {
	if limit, ok := businessLimits[plan]; ok {
		return limit
	}
	return businessLimits[PlanFree]
}

// ManagerLimit returns how many non-owner collaborators a business on the
// given plan may have.
func ManagerLimit(plan PlanTier) int {
	if limit, ok := managerLimits[plan]; ok {
		return limit
	}
	return managerLimits[PlanFree]
}

// planRank orders tiers for picking the effective plan of an account that
// carries businesses on mixed tiers.
var planRank = map[PlanTier]int{
	PlanFree:         0,
	PlanLite:         1,
	PlanTier("PRO"):  2,
	PlanEntrepreneur: 2,
	PlanUnlimited:    3,
}

// HigherPlan returns the higher ranked of two tiers.
func HigherPlan(a, b PlanTier) PlanTier {
	if planRank[b] > planRank[a] {
		return b
	}
	return a
}
