// Package familytree holds the pure family-tree algorithms: building a
// forest from the flat member list, collecting a member's subtree, and
// planning the edge changes of a canvas save.
package familytree

import (
	"time"

	"github.com/Kerhoff/familyalbum/internal/models"
)

// SpouseSummary is the subset of a spouse member attached to its partner.
type SpouseSummary struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Relation   models.Relation  `json:"relation"`
	Gender     string           `json:"gender"`
	Photo      *models.PhotoRef `json:"photo,omitempty"`
	DOB        *time.Time       `json:"dob,omitempty"`
	Occupation string           `json:"occupation,omitempty"`
	Address    models.Address   `json:"address"`
}

// TreeNode is a member with its nested children and optional spouse.
type TreeNode struct {
	models.Member
	Children []*TreeNode    `json:"children"`
	Spouse   *SpouseSummary `json:"spouse"`
}

func summarize(m *models.Member) *SpouseSummary {
	return &SpouseSummary{
		ID:         m.ID,
		Name:       m.Name,
		Relation:   m.Relation,
		Gender:     m.Gender,
		Photo:      m.Photo,
		DOB:        m.DOB,
		Occupation: m.Occupation,
		Address:    m.Address,
	}
}

// Build turns a flat member list into a forest.
//
// A spouse (wife/husband) with a resolvable parent is attached to that
// partner as a summary and does not appear anywhere else. A child
// (son/daughter) with a resolvable parent is appended to the parent's
// children in input order. Everything else is a root: members without a
// parent, children whose parent does not resolve, and any other relation
// even when it carries a parent reference.
//
// Build does two flat passes and never recurses, so parent cycles cannot
// hang it. Members on a parent cycle are not reachable from any root.
func Build(members []models.Member) []*TreeNode {
	byID := make(map[string]*TreeNode, len(members))
	order := make([]string, 0, len(members))
	for i := range members {
		m := members[i]
		if _, seen := byID[m.ID]; !seen {
			order = append(order, m.ID)
		}
		byID[m.ID] = &TreeNode{Member: m, Children: []*TreeNode{}}
	}

	consumed := make(map[string]bool)
	for _, id := range order {
		n := byID[id]
		if !n.Relation.IsSpouse() || !n.HasParent() {
			continue
		}
		partner, ok := byID[*n.ParentID]
		if !ok {
			continue
		}
		// one-directional: the spouse member itself never gets a back link
		partner.Spouse = summarize(&n.Member)
		consumed[id] = true
	}

	roots := make([]*TreeNode, 0)
	for _, id := range order {
		if consumed[id] {
			continue
		}
		n := byID[id]
		if n.Relation.IsChild() && n.HasParent() {
			if parent, ok := byID[*n.ParentID]; ok {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	return roots
}

// Walk visits every node reachable from roots depth-first, each at most
// once. It stops early when fn returns false.
func Walk(roots []*TreeNode, fn func(n *TreeNode, depth int) bool) {
	visited := make(map[*TreeNode]bool)
	var visit func(n *TreeNode, depth int) bool
	visit = func(n *TreeNode, depth int) bool {
		if visited[n] {
			return true
		}
		visited[n] = true
		if !fn(n, depth) {
			return false
		}
		for _, c := range n.Children {
			if !visit(c, depth+1) {
				return false
			}
		}
		return true
	}
	for _, r := range roots {
		if !visit(r, 0) {
			return
		}
	}
}
