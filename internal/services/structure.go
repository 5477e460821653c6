package services

import (
	"sort"

	"github.com/SAP-F-2025/gradebook-service/internal/models"
)

// rootScope is the index key for the gradebook root. Persisted ids start at
// 1, so 0 is free to stand in for a nil parent reference.
const rootScope uint = 0

func scopeKey(id *uint) uint {
	if id == nil {
		return rootScope
	}
	return *id
}

// structureIndex is an arena-style lookup from scope id to that scope's
// direct children, built once per call so the recursive walk never chases
// object references and cycle detection stays a plain visited-set check.
type structureIndex struct {
	categories map[uint][]*models.GradebookCategory
	items      map[uint][]*models.GradebookItem
}

func newStructureIndex(categories []*models.GradebookCategory, items []*models.GradebookItem) *structureIndex {
	idx := &structureIndex{
		categories: make(map[uint][]*models.GradebookCategory),
		items:      make(map[uint][]*models.GradebookItem),
	}

	for _, c := range categories {
		key := scopeKey(c.ParentID)
		idx.categories[key] = append(idx.categories[key], c)
	}
	for _, i := range items {
		key := scopeKey(i.CategoryID)
		idx.items[key] = append(idx.items[key], i)
	}

	// Children of a scope are always presented in ascending sort order.
	for _, siblings := range idx.categories {
		sort.Slice(siblings, func(a, b int) bool {
			return siblings[a].SortOrder < siblings[b].SortOrder
		})
	}
	for _, siblings := range idx.items {
		sort.Slice(siblings, func(a, b int) bool {
			return siblings[a].SortOrder < siblings[b].SortOrder
		})
	}

	return idx
}

// BuildCategoryStructure assembles the ordered display tree for one scope:
// the direct children of scopeID, with each category node recursively
// carrying its own scope's entries.
//
// The root call (nil scopeID) returns category nodes only; root-level items
// are rendered by RootItemNodes in a separate pass. Keeping root items out
// of the category walk is what guarantees they appear exactly once when the
// root scope is processed alongside nested scopes. A category-scoped call
// does include that scope's items, interleaved with subcategories by sort
// order.
//
// Entities belonging to other scopes never appear in the result. A cyclic
// parent chain in the stored data is reported as ErrStructureCycle rather
// than walked forever.
func BuildCategoryStructure(scopeID *uint, categories []*models.GradebookCategory, items []*models.GradebookItem) ([]models.StructureNode, error) {
	idx := newStructureIndex(categories, items)
	visited := make(map[uint]bool)
	return buildScope(scopeKey(scopeID), idx, visited, scopeID != nil)
}

// RootItemNodes renders the items that live directly at the gradebook root,
// in ascending sort order. Together with the root BuildCategoryStructure
// call this covers the whole tree with no overlap.
func RootItemNodes(items []*models.GradebookItem) []models.StructureNode {
	idx := newStructureIndex(nil, items)
	roots := idx.items[rootScope]
	nodes := make([]models.StructureNode, len(roots))
	for i, it := range roots {
		nodes[i] = itemNode(it)
	}
	return nodes
}

type orderedNode struct {
	order int
	node  models.StructureNode
}

func buildScope(scope uint, idx *structureIndex, visited map[uint]bool, includeItems bool) ([]models.StructureNode, error) {
	if visited[scope] {
		return nil, ErrStructureCycle
	}
	visited[scope] = true

	childCategories := idx.categories[scope]
	childItems := idx.items[scope]

	ordered := make([]orderedNode, 0, len(childCategories)+len(childItems))

	for _, c := range childCategories {
		entries, err := buildScope(c.ID, idx, visited, true)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []models.StructureNode{}
		}
		ordered = append(ordered, orderedNode{c.SortOrder, models.StructureNode{
			ID:          c.ID,
			Type:        models.NodeCategory,
			Name:        c.Name,
			Weight:      c.Weight,
			ExtraCredit: c.ExtraCredit,
			Entries:     entries,
		}})
	}

	if includeItems {
		for _, i := range childItems {
			ordered = append(ordered, orderedNode{i.SortOrder, itemNode(i)})
		}
	}

	// Categories and items interleave by sort order within the scope.
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].order < ordered[b].order
	})

	nodes := make([]models.StructureNode, len(ordered))
	for i, on := range ordered {
		nodes[i] = on.node
	}
	return nodes, nil
}

func itemNode(i *models.GradebookItem) models.StructureNode {
	kind := models.NodeManualItem
	if !i.IsManual() {
		kind = models.NodeActivityItem
	}
	maxGrade := i.MaxGrade
	return models.StructureNode{
		ID:          i.ID,
		Type:        kind,
		Name:        i.Name,
		Weight:      i.Weight,
		ExtraCredit: i.ExtraCredit,
		MaxGrade:    &maxGrade,
	}
}

// NextSortOrder returns the ordinal for a new node given the sort orders of
// the siblings already in the target scope: 1 + max, or 1 for an empty
// scope. Pure; callers must fetch the sibling set inside the same
// transaction as the insert or two concurrent creates can collide.
func NextSortOrder(siblingOrders []int) int {
	next := 1
	for _, o := range siblingOrders {
		if o+1 > next {
			next = o + 1
		}
	}
	return next
}

// NextScopeSortOrder allocates the ordinal for a node inserted into a scope.
// Categories and items in one scope are a single sibling set sharing one
// ordinal space, so the maximum is taken over both kinds together; otherwise
// a category and an item could hold the same ordinal and their relative
// display order would no longer follow from the stored data.
func NextScopeSortOrder(categories []*models.GradebookCategory, items []*models.GradebookItem) int {
	orders := make([]int, 0, len(categories)+len(items))
	for _, c := range categories {
		orders = append(orders, c.SortOrder)
	}
	for _, i := range items {
		orders = append(orders, i.SortOrder)
	}
	return NextSortOrder(orders)
}
