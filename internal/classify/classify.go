package classify

import "strings"

// Category names
const (
	Equity    = "Equity"
	Debt      = "Debt"
	Hybrid    = "Hybrid"
	IndexFund = "Index Fund"
	Liquid    = "Liquid"
	Other     = "Other"
)

type rule struct {
	category string
	keywords []string
}

// rules are checked in order; the first matching group wins
var rules = []rule{
	{Equity, []string{"equity", "bluechip", "small cap", "midcap"}},
	{Debt, []string{"debt", "bond", "gilt"}},
	{Hybrid, []string{"hybrid", "balanced"}},
	{IndexFund, []string{"index", "nifty", "sensex"}},
	{Liquid, []string{"liquid", "overnight"}},
}

// Classify maps a scheme display name to one of the fixed categories
// ⭐ SSOT: 카테고리 분류 규칙은 여기서만
func Classify(name string) string {
	lower := strings.ToLower(name)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category
			}
		}
	}
	return Other
}

// Categories returns every category name in precedence order, Other last
func Categories() []string {
	return []string{Equity, Debt, Hybrid, IndexFund, Liquid, Other}
}
