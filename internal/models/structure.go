package models

import "encoding/json"

// NodeKind discriminates the entries of a built gradebook structure.
type NodeKind string

const (
	NodeCategory     NodeKind = "category"
	NodeManualItem   NodeKind = "manual_item"
	NodeActivityItem NodeKind = "activity_item"
)

// StructureNode is one entry of the display tree built from the flat
// category/item records. The JSON shape is a compatibility contract with
// existing consumers and must not change:
//
//	{ id, type, name, weight, extraCredit, maxGrade?, entries? }
//
// Category nodes carry Entries (possibly empty, always present for
// categories); item nodes carry MaxGrade and no Entries.
type StructureNode struct {
	ID          uint            `json:"id"`
	Type        NodeKind        `json:"type"`
	Name        string          `json:"name"`
	Weight      *float64        `json:"weight"`
	ExtraCredit bool            `json:"extraCredit"`
	MaxGrade    *float64        `json:"maxGrade,omitempty"`
	Entries     []StructureNode `json:"entries,omitempty"`
}

// IsCategory reports whether the node nests further entries.
func (n *StructureNode) IsCategory() bool {
	return n.Type == NodeCategory
}

// MarshalJSON keeps the wire contract exact: category nodes always carry an
// "entries" array (empty included), item nodes never do.
func (n StructureNode) MarshalJSON() ([]byte, error) {
	if n.Type == NodeCategory {
		entries := n.Entries
		if entries == nil {
			entries = []StructureNode{}
		}
		return json.Marshal(struct {
			ID          uint            `json:"id"`
			Type        NodeKind        `json:"type"`
			Name        string          `json:"name"`
			Weight      *float64        `json:"weight"`
			ExtraCredit bool            `json:"extraCredit"`
			Entries     []StructureNode `json:"entries"`
		}{n.ID, n.Type, n.Name, n.Weight, n.ExtraCredit, entries})
	}
	return json.Marshal(struct {
		ID          uint     `json:"id"`
		Type        NodeKind `json:"type"`
		Name        string   `json:"name"`
		Weight      *float64 `json:"weight"`
		ExtraCredit bool     `json:"extraCredit"`
		MaxGrade    *float64 `json:"maxGrade,omitempty"`
	}{n.ID, n.Type, n.Name, n.Weight, n.ExtraCredit, n.MaxGrade})
}
