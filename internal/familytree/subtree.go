package familytree

import "github.com/Kerhoff/familyalbum/internal/models"

// Subtree returns rootID followed by every member that descends from it by
// parent pointer, regardless of relation label. Cycles are tolerated. The
// result is empty when rootID is not among members.
func Subtree(members []models.Member, rootID string) []models.Member {
	childrenOf := make(map[string][]int, len(members))
	rootIdx := -1
	for i := range members {
		if members[i].ID == rootID && rootIdx < 0 {
			rootIdx = i
		}
		if members[i].HasParent() {
			p := *members[i].ParentID
			childrenOf[p] = append(childrenOf[p], i)
		}
	}
	if rootIdx < 0 {
		return nil
	}

	visited := map[string]bool{rootID: true}
	out := []models.Member{members[rootIdx]}
	stack := []string{rootID}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, i := range childrenOf[cur] {
			m := members[i]
			if visited[m.ID] {
				continue
			}
			visited[m.ID] = true
			out = append(out, m)
			stack = append(stack, m.ID)
		}
	}
	return out
}

// IDs returns the ids of members in order.
func IDs(members []models.Member) []string {
	ids := make([]string, len(members))
	for i := range members {
		ids[i] = members[i].ID
	}
	return ids
}
