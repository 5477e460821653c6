package services

import (
	"math"

	"github.com/SAP-F-2025/gradebook-service/internal/models"
)

// weightEpsilon absorbs float accumulation noise when comparing a scope's
// total against 100.
const weightEpsilon = 1e-9

// WeightedChild is the per-scope view the normalizer works over; category
// and item siblings are indistinguishable for weighting purposes.
type WeightedChild struct {
	Weight      *float64
	ExtraCredit bool
}

func childWeight(w *float64) float64 {
	if w == nil {
		return 0
	}
	return *w
}

// ScopeNormalization holds the denominator used to rescale a scope's
// non-extra-credit weights. Valid is false when the scope has
// non-extra-credit children but their weights sum to zero, which makes
// normalization impossible.
type ScopeNormalization struct {
	Denominator float64
	Valid       bool
}

// NormalizeScope computes the normalization denominator for a sibling set.
// Extra-credit children are excluded from the denominator entirely.
func NormalizeScope(children []WeightedChild) ScopeNormalization {
	var denom float64
	hasRegular := false
	for _, c := range children {
		if c.ExtraCredit {
			continue
		}
		hasRegular = true
		denom += childWeight(c.Weight)
	}
	return ScopeNormalization{
		Denominator: denom,
		Valid:       !hasRegular || denom > 0,
	}
}

// Share returns the child's normalized share of its scope: extra-credit
// children keep their raw weight as additive bonus points; regular children
// are rescaled so the scope's non-extra-credit weights total 100.
func (n ScopeNormalization) Share(c WeightedChild) float64 {
	w := childWeight(c.Weight)
	if c.ExtraCredit {
		return w
	}
	if n.Denominator <= 0 {
		return 0
	}
	return w / n.Denominator * 100
}

// ScopeWeightIssue flags one scope whose declared weights cannot be
// normalized or do not total 100. Advisory only: drafts in progress are
// allowed to persist in this state.
type ScopeWeightIssue struct {
	CategoryID *uint   `json:"category_id"` // nil means the gradebook root
	Total      float64 `json:"total"`
	Reason     string  `json:"reason"`
}

const (
	weightIssueTotalNot100  = "weights_do_not_total_100"
	weightIssueZeroWeighted = "no_weighted_children"
)

// WeightReport is the advisory validation surface consumers use to render
// "total exceeds 100%" style banners. CalculatedTotal covers the root scope
// only; TotalMaxGrade counts every reachable leaf item, extra credit
// included, since bonus items still add to the possible point total.
type WeightReport struct {
	CalculatedTotal float64            `json:"calculated_total"`
	TotalMaxGrade   float64            `json:"total_max_grade"`
	HasExtraCredit  bool               `json:"has_extra_credit"`
	InvalidScopes   []ScopeWeightIssue `json:"invalid_scopes,omitempty"`
}

// BuildWeightReport inspects every scope reachable from the gradebook root
// and reports weighting inconsistencies without blocking anything.
func BuildWeightReport(categories []*models.GradebookCategory, items []*models.GradebookItem) (*WeightReport, error) {
	idx := newStructureIndex(categories, items)
	report := &WeightReport{}

	visited := make(map[uint]bool)
	if err := inspectScope(rootScope, nil, idx, visited, report); err != nil {
		return nil, err
	}
	return report, nil
}

func inspectScope(scope uint, categoryID *uint, idx *structureIndex, visited map[uint]bool, report *WeightReport) error {
	if visited[scope] {
		return ErrStructureCycle
	}
	visited[scope] = true

	children := make([]WeightedChild, 0, len(idx.categories[scope])+len(idx.items[scope]))
	for _, c := range idx.categories[scope] {
		children = append(children, WeightedChild{Weight: c.Weight, ExtraCredit: c.ExtraCredit})
		if c.ExtraCredit {
			report.HasExtraCredit = true
		}
	}
	for _, i := range idx.items[scope] {
		children = append(children, WeightedChild{Weight: i.Weight, ExtraCredit: i.ExtraCredit})
		report.TotalMaxGrade += i.MaxGrade
		if i.ExtraCredit {
			report.HasExtraCredit = true
		}
	}

	norm := NormalizeScope(children)
	if scope == rootScope {
		report.CalculatedTotal = norm.Denominator
	}

	if len(children) > 0 {
		switch {
		case !norm.Valid:
			report.InvalidScopes = append(report.InvalidScopes, ScopeWeightIssue{
				CategoryID: categoryID,
				Total:      norm.Denominator,
				Reason:     weightIssueZeroWeighted,
			})
		case hasRegularChild(children) && math.Abs(norm.Denominator-100) > weightEpsilon:
			report.InvalidScopes = append(report.InvalidScopes, ScopeWeightIssue{
				CategoryID: categoryID,
				Total:      norm.Denominator,
				Reason:     weightIssueTotalNot100,
			})
		}
	}

	for _, c := range idx.categories[scope] {
		id := c.ID
		if err := inspectScope(c.ID, &id, idx, visited, report); err != nil {
			return err
		}
	}
	return nil
}

func hasRegularChild(children []WeightedChild) bool {
	for _, c := range children {
		if !c.ExtraCredit {
			return true
		}
	}
	return false
}
