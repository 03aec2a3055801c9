package searcher

import (
	"pmcts/dynamics"
	"pmcts/utils"
)

const noParent = -1

// node is one decision point. Nodes live in the tree arena and refer to each
// other by index; a parent owns its children, the parent index is a back link.
type node struct {
	pose      dynamics.Pose
	unvisited []int // Untried action indices in insertion order
	reward    []float64
	visits    int
	action    []dynamics.Pose // World-frame poses from the parent, nil for the root
	parent    int
	children  []int
}

type tree struct {
	nodes      []node
	numActions int
	dim        int
}

func newTree(root dynamics.Pose, numActions, dim int) *tree {
	t := &tree{numActions: numActions, dim: dim}
	t.add(noParent, root, nil, make([]float64, dim))
	return t
}

const rootID = 0

func (t *tree) add(parent int, pose dynamics.Pose, action []dynamics.Pose, reward []float64) int {
	unvisited := make([]int, t.numActions)
	for a := range unvisited {
		unvisited[a] = a
	}
	id := len(t.nodes)
	t.nodes = append(t.nodes, node{
		pose:      pose,
		unvisited: unvisited,
		reward:    reward,
		action:    action,
		parent:    parent,
	})
	if parent != noParent {
		t.nodes[parent].children = append(t.nodes[parent].children, id)
	}
	return id
}

// addChild attaches a node reached through action, ending at its last pose.
// The child starts with the reward collected along the action.
func (t *tree) addChild(parent int, action []dynamics.Pose, reward []float64) int {
	return t.add(parent, action[len(action)-1], action, reward)
}

// nextAction removes and returns the first untried action of a node.
func (t *tree) nextAction(id int) int {
	n := &t.nodes[id]
	a := n.unvisited[0]
	n.unvisited = n.unvisited[1:]
	return a
}

func (t *tree) backup(id int, reward []float64) {
	for id != noParent {
		n := &t.nodes[id]
		for k, r := range reward {
			n.reward[k] += r
		}
		n.visits++
		id = n.parent
	}
}

func (t *tree) childStats(id int) []Stats {
	children := t.nodes[id].children
	stats := make([]Stats, len(children))
	for i, c := range children {
		stats[i] = Stats{Reward: t.nodes[c].reward, Visits: t.nodes[c].visits}
	}
	return stats
}

// mostVisited returns the child with the most visits, the first one on ties.
func (t *tree) mostVisited(id int) (int, bool) {
	children := t.nodes[id].children
	best := utils.ArgMaxFunc(children, func(c int) int { return t.nodes[c].visits })
	if best == -1 {
		return noParent, false
	}
	return children[best], true
}

// actions lists the action of every non-root node in depth-first pre-order.
func (t *tree) actions() [][]dynamics.Pose {
	var out [][]dynamics.Pose
	var visit func(id int)
	visit = func(id int) {
		for _, c := range t.nodes[id].children {
			out = append(out, copyPoses(t.nodes[c].action))
			visit(c)
		}
	}
	visit(rootID)
	return out
}

func copyPoses(poses []dynamics.Pose) []dynamics.Pose {
	return append([]dynamics.Pose(nil), poses...)
}
