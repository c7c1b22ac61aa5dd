// Package tree assembles flat comment lists into nested reply forests.
package tree

import (
	"inkwell/internal/models"
)

// Node is a comment with its ordered replies.
type Node struct {
	models.Comment
	Children []*Node `json:"children,omitempty"`
}

// Build turns a flat comment list, ordered by (created_at, id), into a forest
// with the same ordering at every level. Two passes over the input: index
// every comment by id, then attach each one to its parent's child list.
// Parents always precede their children in creation order, so no repair pass
// is needed.
//
// A comment whose declared parent is missing from the input (a stray child
// left by a delete racing a reply) is promoted to a root instead of being
// dropped; its id is reported in orphans so the caller can flag the
// inconsistency.
func Build(comments []models.Comment) (roots []*Node, orphans []uint) {
	index := make(map[uint]*Node, len(comments))
	nodes := make([]Node, len(comments))
	for i, c := range comments {
		nodes[i] = Node{Comment: c}
		index[c.ID] = &nodes[i]
	}

	for i := range nodes {
		n := &nodes[i]
		if n.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		parent, ok := index[*n.ParentID]
		if !ok {
			orphans = append(orphans, n.ID)
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}
	return roots, orphans
}
