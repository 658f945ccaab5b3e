// Package trie implements an immutable, structurally-shared key→value map.
// Put and Remove return new Trie versions; unmodified subtrees are shared by
// reference with the receiver. Get is polymorphic over value type: it
// returns (zero value, false) when the terminal node carries a value of a
// different type, never panics.
//
// Go methods cannot themselves carry extra type parameters, so Get/Put are
// free functions parameterized over the value type, mirroring the explicit
// template instantiations at the bottom of the original C++ source.
package trie

// node is the immutable tagged-variant node: a plain node has hasValue ==
// false; a value node has hasValue == true and carries the value that was
// Put, of whatever concrete type. children is nil or empty for a leaf with
// no descendants.
type node struct {
	children map[byte]*node
	value    any
	hasValue bool
}

func (n *node) clone() *node {
	if n == nil {
		return &node{}
	}
	cp := &node{value: n.value, hasValue: n.hasValue}
	if len(n.children) > 0 {
		cp.children = make(map[byte]*node, len(n.children))
		for ch, child := range n.children {
			cp.children[ch] = child
		}
	}
	return cp
}

func (n *node) childless() bool { return len(n.children) == 0 }

// Trie is an immutable key→value map over byte-string keys. The zero value
// is a valid, empty trie.
type Trie struct {
	root *node
}

// Get walks the trie byte by byte from the root and returns the value bound
// to key if the terminal node is a value node carrying a T, and
// (zero, false) if the path is absent, the terminal node has no value, or
// the value is of a different concrete type.
func Get[T any](t Trie, key string) (T, bool) {
	var zero T
	cur := t.root
	if cur == nil {
		return zero, false
	}
	for i := 0; i < len(key); i++ {
		child, ok := cur.children[key[i]]
		if !ok {
			return zero, false
		}
		cur = child
	}
	if !cur.hasValue {
		return zero, false
	}
	v, ok := cur.value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Put returns a new Trie in which key maps to value. Nodes off the
// root-to-key path are shared by reference with t; nodes on the path are
// cloned. An existing key's node is reconstructed as a value node,
// preserving its children; Put never accumulates — a second Put on the same
// key replaces the value.
func Put[T any](t Trie, key string, value T) Trie {
	newRoot := t.root.clone()
	cur := t.root
	newCur := newRoot

	for i := 0; i < len(key); i++ {
		ch := key[i]
		last := i == len(key)-1

		var child *node
		if cur != nil {
			child = cur.children[ch]
		}

		var newChild *node
		if last {
			newChild = child.clone()
			newChild.value = value
			newChild.hasValue = true
		} else {
			newChild = child.clone()
		}

		if newCur.children == nil {
			newCur.children = make(map[byte]*node)
		}
		newCur.children[ch] = newChild

		newCur = newChild
		cur = child
	}

	if len(key) == 0 {
		newRoot.value = value
		newRoot.hasValue = true
	}

	return Trie{root: newRoot}
}

// Remove returns a new Trie without key. Value-less, child-less nodes are
// elided from their parent as the path unwinds; the root becomes "empty"
// (nil) if it ends up with no children and no value.
func Remove(t Trie, key string) Trie {
	if t.root == nil {
		return Trie{}
	}

	// Collect the path of existing nodes from root to the terminal node, so
	// we know which clones to drop once the value is gone.
	path := make([]*node, 0, len(key)+1)
	path = append(path, t.root)
	cur := t.root
	for i := 0; i < len(key); i++ {
		child, ok := cur.children[key[i]]
		if !ok {
			// Key not present: nothing to remove, but still hand back an
			// equivalent (shared) trie rather than mutating t.
			return t
		}
		path = append(path, child)
		cur = child
	}
	if !cur.hasValue {
		return t
	}

	// Clone every node on the path; the terminal clone loses its value.
	clones := make([]*node, len(path))
	for i, n := range path {
		clones[i] = n.clone()
	}
	clones[len(clones)-1].hasValue = false
	clones[len(clones)-1].value = nil

	// Re-link the cloned path, eliding any clone that ended up value-less
	// and child-less.
	for i := len(clones) - 1; i > 0; i-- {
		child := clones[i]
		parent := clones[i-1]
		ch := key[i-1]
		if child.childless() && !child.hasValue {
			delete(parent.children, ch)
		} else {
			if parent.children == nil {
				parent.children = make(map[byte]*node)
			}
			parent.children[ch] = child
		}
	}

	newRoot := clones[0]
	if newRoot.childless() && !newRoot.hasValue {
		return Trie{}
	}
	return Trie{root: newRoot}
}
