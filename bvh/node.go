package bvh

// node is a binary tree node. It has either two children or none; only leaves carry faces.
type node struct {
	box   *Box
	left  *node
	right *node
}

func (n *node) isLeaf() bool {
	return n.left == nil && n.right == nil
}

// walk visits n and its descendants depth first, left before right.
func (n *node) walk(fn func(n *node, depth int)) {
	n.walkDepth(fn, 0)
}

func (n *node) walkDepth(fn func(n *node, depth int), depth int) {
	fn(n, depth)
	if n.isLeaf() {
		return
	}
	n.left.walkDepth(fn, depth+1)
	n.right.walkDepth(fn, depth+1)
}
