// This is free and unencumbered software released into the public domain.
//
// Anyone is free to copy, modify, publish, use, compile, sell, or
// distribute this software, either in source code form or as a compiled
// binary, for any purpose, commercial or non-commercial, and by any
// means.
//
// In jurisdictions that recognize copyright laws, the author or authors
// of this software dedicate any and all copyright interest in the
// software to the public domain. We make this dedication for the benefit
// of the public at large and to the detriment of our heirs and
// successors. We intend this dedication to be an overt act of
// relinquishment in perpetuity of all present and future rights to this
// software under copyright law.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
// IN NO EVENT SHALL THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR
// OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE,
// ARISING FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.
//
// For more information, please refer to <https://unlicense.org>

package smt

import (
	"context"
	"sort"
)

// commitRoot applies a sorted batch of (keyHash, valueHash) updates to the
// subtree rooted at root, rewriting subtrees top-down along the update
// frontier, and returns the new root. An empty updates slice is a no-op
// that returns root unchanged without touching the store.
func commitRoot(ctx context.Context, store Store, cfg *Config, root Hash, updates []Update) (Hash, error) {
	if len(updates) == 0 {
		return root, nil
	}
	sorted := sortUpdates(updates)
	current, err := getSubtree(ctx, store, root, cfg)
	if err != nil {
		return Hash{}, err
	}
	newRoot, err := updateSubtree(ctx, store, cfg, current, 0, sorted)
	if err != nil {
		return Hash{}, err
	}
	return newRoot.Root, nil
}

// sortUpdates returns updates sorted ascending by KeyHash, stable so
// later-wins semantics between equal keys is preserved from the caller's
// order (Batch.Entries already dedups; commitRoot re-sorts defensively for
// callers that build []Update by hand).
func sortUpdates(updates []Update) []Update {
	out := make([]Update, len(updates))
	copy(out, updates)
	sort.SliceStable(out, func(i, j int) bool {
		return string(out[i].KeyHash) < string(out[j].KeyHash)
	})
	// Keep only the last update of each run of equal keys.
	n := 0
	for i := range out {
		if i+1 < len(out) && string(out[i].KeyHash) == string(out[i+1].KeyHash) {
			continue
		}
		out[n] = out[i]
		n++
	}
	return out[:n]
}

// binIndexAt extracts the H-bit bin index of keyHash at absolute bit
// position height, for a subtree of height H ∈ {4, 8}. height is always a
// multiple of H, so the byte offset height/8 is exact for both cases.
func binIndexAt(keyHash []byte, height, H int) int {
	b := height / 8
	if H == 8 {
		return int(keyHash[b])
	}
	if height%8 == 0 {
		return int(keyHash[b] >> 4)
	}
	return int(keyHash[b] & 0x0f)
}

// isBitSet reports whether bit pos (0 = MSB of byte 0, big-endian) of key
// is set.
func isBitSet(key []byte, pos int) bool {
	byteIdx := pos / 8
	mask := byte(0x80) >> uint(pos%8)
	return key[byteIdx]&mask != 0
}

// binSlice returns the contiguous sub-slice of updates whose bin index (at
// absolute depth height, subtree height H) falls in [lo, hi). updates must
// already be sorted by KeyHash and must all share the subtree's common
// prefix, which makes the bin index a monotonic function of position —
// binary search finds the boundaries in O(log n) instead of re-bucketing.
func binSlice(updates []Update, height, H, lo, hi int) []Update {
	start := sort.Search(len(updates), func(i int) bool {
		return binIndexAt(updates[i].KeyHash, height, H) >= lo
	})
	end := sort.Search(len(updates), func(i int) bool {
		return binIndexAt(updates[i].KeyHash, height, H) >= hi
	})
	return updates[start:end]
}

// updateSubtree rewrites one subtree fragment: it distributes updates into
// the 2^H bins owned by S's nodes, recurses per node via updateNode,
// concatenates the resulting fragments, folds them back to height ≤ H via
// calculateSubtree, and persists the result.
func updateSubtree(ctx context.Context, store Store, cfg *Config, s *SubTree, height int, updates []Update) (*SubTree, error) {
	if len(updates) == 0 {
		return s, nil
	}
	H := cfg.SubtreeHeight
	maxBins := 1 << uint(H)

	newNodes := make([]Node, 0, len(s.Nodes)*2)
	newStruct := make([]byte, 0, len(s.Nodes)*2)

	binOffset := 0
	for i, d := range s.Structure {
		h := int(d)
		span := 1 << uint(H-h)
		slice := binSlice(updates, height, H, binOffset, binOffset+span)

		nodesFrag, structFrag, err := updateNode(ctx, store, cfg, slice, s.Nodes[i], height, h)
		if err != nil {
			return nil, err
		}
		newNodes = append(newNodes, nodesFrag...)
		newStruct = append(newStruct, structFrag...)
		binOffset += span
	}
	if binOffset != maxBins {
		return nil, newErr(Unknown, "updateSubtree: bin walk did not cover all bins")
	}

	maxDepth := 0
	for _, d := range newStruct {
		if int(d) > maxDepth {
			maxDepth = int(d)
		}
	}
	var deque []tempFragment
	newSubtree, err := calculateSubtree(newNodes, newStruct, maxDepth, &deque)
	if err != nil {
		return nil, err
	}
	if err := putSubtree(ctx, store, newSubtree, cfg); err != nil {
		return nil, err
	}
	return newSubtree, nil
}

// updateNode applies the updates landing under one node at in-subtree
// depth h (absolute depth height+h) and returns the (nodes, structure)
// fragment that replaces it in the parent's concatenated node list.
func updateNode(ctx context.Context, store Store, cfg *Config, updates []Update, node Node, height, h int) ([]Node, []byte, error) {
	H := cfg.SubtreeHeight

	if len(updates) == 0 {
		return []Node{node}, []byte{byte(h)}, nil
	}

	if len(updates) == 1 {
		u := updates[0]
		switch node.Kind {
		case KindEmpty:
			if len(u.ValueHash) != 0 {
				return []Node{NewLeafNode(u.KeyHash, toHash(u.ValueHash))}, []byte{byte(h)}, nil
			}
			return []Node{node}, []byte{byte(h)}, nil
		case KindLeaf:
			if node.IsSameKey(u.KeyHash) {
				if len(u.ValueHash) != 0 {
					return []Node{NewLeafNode(u.KeyHash, toHash(u.ValueHash))}, []byte{byte(h)}, nil
				}
				return []Node{NewEmptyNode()}, []byte{byte(h)}, nil
			}
			// Different key under the same leaf: falls through to split.
		}
	}

	if h == H {
		var bottom *SubTree
		switch node.Kind {
		case KindStub:
			child, err := getSubtree(ctx, store, node.StubHash, cfg)
			if err != nil {
				return nil, nil, err
			}
			if err := deleteSubtree(ctx, store, node.StubHash); err != nil {
				return nil, nil, err
			}
			bottom = child
		case KindEmpty:
			bottom = newEmptySubTree()
		case KindLeaf:
			st, err := newSubTree([]Node{node}, []byte{0})
			if err != nil {
				return nil, nil, err
			}
			bottom = st
		default:
			return nil, nil, newErr(Unknown, "updateNode: unexpected node kind at subtree boundary")
		}
		newSub, err := updateSubtree(ctx, store, cfg, bottom, height+H, updates)
		if err != nil {
			return nil, nil, err
		}
		if len(newSub.Nodes) == 1 {
			return []Node{newSub.Nodes[0]}, []byte{byte(h)}, nil
		}
		return []Node{NewStubNode(newSub.Root)}, []byte{byte(h)}, nil
	}

	var left, right Node
	switch node.Kind {
	case KindEmpty:
		left, right = NewEmptyNode(), NewEmptyNode()
	case KindLeaf:
		if isBitSet(node.Key, height+h) {
			left, right = NewEmptyNode(), node
		} else {
			left, right = node, NewEmptyNode()
		}
	default:
		return nil, nil, newErr(Unknown, "updateNode: unexpected node kind at split")
	}

	idx := sort.Search(len(updates), func(i int) bool {
		return isBitSet(updates[i].KeyHash, height+h)
	})
	leftUpdates, rightUpdates := updates[:idx], updates[idx:]

	lNodes, lStruct, err := updateNode(ctx, store, cfg, leftUpdates, left, height, h+1)
	if err != nil {
		return nil, nil, err
	}
	rNodes, rStruct, err := updateNode(ctx, store, cfg, rightUpdates, right, height, h+1)
	if err != nil {
		return nil, nil, err
	}
	return append(lNodes, rNodes...), append(lStruct, rStruct...), nil
}

// tempFragment is the saved payload of one Temp placeholder: the
// (nodes, structure) pair calculateSubtree deferred realizing until the
// fragment reaches its final position.
type tempFragment struct {
	nodes     []Node
	structure []byte
}

// calculateSubtree folds a concatenated (nodes, structure) list — possibly
// containing entries deeper than H when a Stub expanded into a multi-node
// subtree — back into a single valid subtree of height ≤ H.
//
// It scans left-to-right at each level from height down to 1, merging
// adjacent pairs at the current level: Empty+Empty collapses to Empty,
// Empty+Leaf or Leaf+Empty hoists the lone Leaf up one level (empty-sibling
// compaction), and anything else is deferred behind a Temp placeholder
// while its realized (nodes, structure) fragment is pushed onto deque.
// Fragments are pushed front and popped back while merging (to preserve
// left-to-right correspondence with the scan), and the final root — if it
// is itself a Temp — is realized by popping front.
func calculateSubtree(nodes []Node, structure []byte, height int, deque *[]tempFragment) (*SubTree, error) {
	if height == 0 {
		if len(nodes) != 1 {
			return nil, newErr(Unknown, "calculateSubtree: expected single node at height 0")
		}
		return newSubTree(nodes, []byte{0})
	}

	newNodes := make([]Node, 0, len(nodes))
	newStruct := make([]byte, 0, len(structure))
	i := 0
	for i < len(nodes) {
		if int(structure[i]) != height {
			newNodes = append(newNodes, nodes[i])
			newStruct = append(newStruct, structure[i])
			i++
			continue
		}
		if i+1 >= len(nodes) {
			return nil, newErr(Unknown, "calculateSubtree: unpaired node at fold height")
		}
		a, b := nodes[i], nodes[i+1]
		var parent Node
		switch {
		case a.Kind == KindEmpty && b.Kind == KindEmpty:
			parent = a
		case a.Kind == KindEmpty && b.Kind == KindLeaf:
			parent = b
		case a.Kind == KindLeaf && b.Kind == KindEmpty:
			parent = a
		default:
			leftNodes, leftStruct, err := extractFragment(a, structure[i], deque)
			if err != nil {
				return nil, err
			}
			rightNodes, rightStruct, err := extractFragment(b, structure[i+1], deque)
			if err != nil {
				return nil, err
			}
			merged := tempFragment{
				nodes:     append(append([]Node(nil), leftNodes...), rightNodes...),
				structure: append(append([]byte(nil), leftStruct...), rightStruct...),
			}
			pushFront(deque, merged)
			parent = newTempNode(nil, nil)
		}
		newNodes = append(newNodes, parent)
		newStruct = append(newStruct, structure[i]-1)
		i += 2
	}

	if height == 1 {
		if len(newNodes) != 1 {
			return nil, newErr(Unknown, "calculateSubtree: expected single node after folding to height 1")
		}
		if newNodes[0].Kind == KindTemp {
			frag, err := popFront(deque)
			if err != nil {
				return nil, err
			}
			return newSubTree(frag.nodes, frag.structure)
		}
		return newSubTree(newNodes, []byte{0})
	}

	return calculateSubtree(newNodes, newStruct, height-1, deque)
}

// extractFragment returns the (nodes, structure) a scan entry stands for:
// either its own single-node fragment, or — if it is a Temp placeholder —
// the fragment popped from the back of deque.
func extractFragment(n Node, depth byte, deque *[]tempFragment) ([]Node, []byte, error) {
	if n.Kind != KindTemp {
		return []Node{n}, []byte{depth}, nil
	}
	return popBackPayload(deque)
}

func pushFront(deque *[]tempFragment, f tempFragment) {
	*deque = append([]tempFragment{f}, *deque...)
}

func popBackPayload(deque *[]tempFragment) ([]Node, []byte, error) {
	f, err := popBack(deque)
	if err != nil {
		return nil, nil, err
	}
	return f.nodes, f.structure, nil
}

func popBack(deque *[]tempFragment) (tempFragment, error) {
	d := *deque
	if len(d) == 0 {
		return tempFragment{}, newErr(Unknown, "calculateSubtree: deque empty, Temp node missing its payload")
	}
	f := d[len(d)-1]
	*deque = d[:len(d)-1]
	return f, nil
}

func popFront(deque *[]tempFragment) (tempFragment, error) {
	d := *deque
	if len(d) == 0 {
		return tempFragment{}, newErr(Unknown, "calculateSubtree: deque empty realizing final Temp root")
	}
	f := d[0]
	*deque = d[1:]
	return f, nil
}

// toHash copies a variable-length value-hash slice into a fixed Hash,
// zero-padding if the caller supplied fewer than 32 bytes (never happens
// for a real ValueHash, but keeps this defensive against a hand-built
// Update).
func toHash(b []byte) Hash {
	var h Hash
	copy(h[:], b)
	return h
}
