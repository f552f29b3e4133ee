package model

import "fmt"

// NodeGroup is the display/semantic category of a node, derived from the
// entity's declared type in the linked-data source.
type NodeGroup string

const (
	GroupPerson       NodeGroup = "person"
	GroupSchool       NodeGroup = "school"
	GroupLocation     NodeGroup = "location"
	GroupCountry      NodeGroup = "country"
	GroupCity         NodeGroup = "city"
	GroupOrganization NodeGroup = "organization"
	GroupCompany      NodeGroup = "company"
	GroupConcept      NodeGroup = "concept"
)

// EdgeCategory is the semantic classification of a relationship label.
type EdgeCategory string

const (
	CategoryFamily     EdgeCategory = "family"
	CategoryEducation  EdgeCategory = "education"
	CategoryCareer     EdgeCategory = "career"
	CategoryGeographic EdgeCategory = "geographic"
	CategoryMembership EdgeCategory = "membership"
	CategoryOther      EdgeCategory = "other"
)

type Node struct {
	ID     string    `json:"id"`
	Label  string    `json:"label"`
	Group  NodeGroup `json:"group"`
	Size   int       `json:"size"`
	Image  string    `json:"image,omitempty"`
	IsSeed bool      `json:"is_seed"`
}

type Edge struct {
	ID       string       `json:"id"`
	From     string       `json:"from"`
	To       string       `json:"to"`
	Label    string       `json:"label"`
	Category EdgeCategory `json:"category"`
}

// Connection is the raw unit returned by the fetch layer before it is
// turned into Node/Edge pairs. Group is filled in by the fetcher from
// the target's declared type.
type Connection struct {
	SourceID    string    `json:"source_id"`
	TargetID    string    `json:"target_id"`
	TargetLabel string    `json:"target_label"`
	Label       string    `json:"label"`
	Image       string    `json:"image,omitempty"`
	TypeID      string    `json:"type_id,omitempty"`
	TypeLabel   string    `json:"type_label,omitempty"`
	IsHuman     bool      `json:"is_human,omitempty"`
	Group       NodeGroup `json:"group,omitempty"`
}

type GraphRequest struct {
	Names []string `json:"names,omitempty"`
	IDs   []string `json:"ids,omitempty"`
	Depth int      `json:"depth"`
}

type GraphResult struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// EdgeID derives the deterministic edge identity from the (source,
// target, label) triple. Two discoveries of the same triple collapse to
// one edge. A label containing a hyphen can in principle collide with a
// different triple; that ambiguity is inherited from the id scheme and
// left as-is.
func EdgeID(from, to, label string) string {
	return fmt.Sprintf("%s-%s-%s", from, to, label)
}

// NodeSize maps a group to its display size.
func NodeSize(g NodeGroup) int {
	switch g {
	case GroupPerson:
		return 30
	case GroupCountry:
		return 22
	case GroupCity:
		return 18
	default:
		return 15
	}
}
