package services

import (
	"github.com/SAP-F-2025/gradebook-service/internal/models"
)

// GradeResult is one enrollment's aggregate for a scope. Percentage is nil
// while nothing under the scope has been graded; "not yet gradable" is a
// normal result, not an error, and is distinct from 0%.
type GradeResult struct {
	Percentage     *float64 `json:"percentage"`
	EarnedPoints   float64  `json:"earned_points"`
	PossiblePoints float64  `json:"possible_points"`
}

// ComputeGrade computes the weighted percentage for one scope of the
// gradebook (nil scopeID = the student's final grade) from the flat
// category/item records and the enrollment's raw scores.
//
// The recursion is post-order and pure: identical inputs always produce
// identical output, and concurrent calls for different enrollments share no
// state. Ungraded leaves and fully-ungraded subtrees are excluded from both
// the numerator and the weight denominator at every level, so missing work
// never counts as zero. Extra credit is added as bonus percentage points on
// top of the 100%-normalized base and never joins the denominator.
func ComputeGrade(scopeID *uint, categories []*models.GradebookCategory, items []*models.GradebookItem, scores models.ScoreSet) (*GradeResult, error) {
	idx := newStructureIndex(categories, items)
	visited := make(map[uint]bool)
	return aggregateScope(scopeKey(scopeID), idx, scores, visited)
}

// gradedChild pairs a child's computed percentage with its weighting inputs.
type gradedChild struct {
	percentage  float64 // 0..100
	weight      *float64
	extraCredit bool
	earned      float64
	possible    float64
}

func aggregateScope(scope uint, idx *structureIndex, scores models.ScoreSet, visited map[uint]bool) (*GradeResult, error) {
	if visited[scope] {
		return nil, ErrStructureCycle
	}
	visited[scope] = true

	var graded []gradedChild

	for _, c := range idx.categories[scope] {
		sub, err := aggregateScope(c.ID, idx, scores, visited)
		if err != nil {
			return nil, err
		}
		if sub.Percentage == nil {
			// Nothing graded anywhere under this category; it neither helps
			// nor hurts its siblings.
			continue
		}
		graded = append(graded, gradedChild{
			percentage:  *sub.Percentage,
			weight:      c.Weight,
			extraCredit: c.ExtraCredit,
			earned:      sub.EarnedPoints,
			possible:    sub.PossiblePoints,
		})
	}

	for _, i := range idx.items[scope] {
		raw, ok := scores[i.ID]
		if !ok {
			continue
		}
		graded = append(graded, gradedChild{
			percentage:  itemPercentage(i, raw),
			weight:      i.Weight,
			extraCredit: i.ExtraCredit,
			earned:      raw,
			possible:    i.MaxGrade,
		})
	}

	result := &GradeResult{}
	if len(graded) == 0 {
		return result, nil
	}

	// Re-normalize among what has actually been graded, not the declared
	// sibling set.
	children := make([]WeightedChild, len(graded))
	for i, g := range graded {
		children[i] = WeightedChild{Weight: g.weight, ExtraCredit: g.extraCredit}
	}
	norm := NormalizeScope(children)

	var base, bonus float64
	regularGraded := 0
	for i, g := range graded {
		if g.extraCredit {
			// Bonus percentage points on top of the normalized base; earned
			// points count, possible points do not.
			bonus += g.percentage / 100 * norm.Share(children[i])
			result.EarnedPoints += g.earned
			continue
		}
		regularGraded++
		result.EarnedPoints += g.earned
		result.PossiblePoints += g.possible
		if norm.Valid {
			base += g.percentage * norm.Share(children[i]) / 100
		}
	}

	if !norm.Valid && regularGraded > 0 {
		// All graded regular children carry zero or undefined weight. The
		// weight report flags this scope; here the grade falls back to an
		// equal share per graded child so existing scores still surface.
		for _, g := range graded {
			if !g.extraCredit {
				base += g.percentage / float64(regularGraded)
			}
		}
	}

	pct := base + bonus
	result.Percentage = &pct
	return result, nil
}

func itemPercentage(item *models.GradebookItem, raw float64) float64 {
	pct := raw / item.MaxGrade * 100
	if item.MinGrade > 0 {
		if floor := item.MinGrade / item.MaxGrade * 100; pct < floor {
			pct = floor
		}
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}
