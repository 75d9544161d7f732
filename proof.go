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
	"bytes"
	"context"
	"sort"
)

// QueryProof is one queried key's share of a Proof: the key itself, its
// value hash (nil for an exclusion proof), and a bitmap whose i-th bit
// (MSB-first within each byte) marks whether the sibling at depth i of this
// key's path is non-default.
type QueryProof struct {
	Key    []byte
	Value  []byte
	Bitmap []byte
}

// Proof is the result of Prove: the canonically ordered sibling hashes
// encountered along the union of every query's path, one per sibling
// position (a position shared by several queries appears once), plus
// one QueryProof per queried key, in the same order the queries were given.
type Proof struct {
	SiblingHashes []Hash
	Queries       []QueryProof
}

// proveCollector accumulates the canonically ordered sibling hash list
// shared across every query of one Prove call. Each sibling position is
// recorded once; equal hashes at different positions are each recorded,
// since Verify consumes one entry per set bitmap bit.
type proveCollector struct {
	order []Hash
}

func newProveCollector() *proveCollector {
	return &proveCollector{}
}

func (c *proveCollector) record(h Hash) {
	c.order = append(c.order, h)
}

// queryState is one query's working state during Prove.
type queryState struct {
	origIndex int
	keyHash   []byte
	value     []byte
	bitmap    []byte
}

func setBit(bitmap []byte, pos int) {
	bitmap[pos/8] |= byte(0x80) >> uint(pos%8)
}

// markSibling records sib as the sibling hash for every query in qs at
// depth bitPos, unless sib is the default hash for that depth — in which
// case no bit is set and nothing recorded, since "default" is already the
// implicit meaning of an unset bit.
func markSibling(qs []*queryState, bitPos int, sib Hash, cfg *Config, col *proveCollector) {
	remaining := cfg.totalDepthBits() - bitPos - 1
	if sib == cfg.DefaultHashAtDepth(remaining) {
		return
	}
	col.record(sib)
	for _, q := range qs {
		setBit(q.bitmap, bitPos)
	}
}

// Prove produces a Proof for queries against the subtree rooted at root.
// Each element of queries must already be a hashed key of cfg.KeyLength
// bytes, the same convention Commit uses for its updates.
func Prove(ctx context.Context, store Store, cfg *Config, root Hash, queries [][]byte) (*Proof, error) {
	if len(queries) == 0 {
		return &Proof{}, nil
	}
	bitmapLen := (cfg.totalDepthBits() + 7) / 8
	qs := make([]*queryState, len(queries))
	for i, k := range queries {
		if len(k) != cfg.KeyLength {
			return nil, newErr(InvalidInput, "query key length does not match tree configuration")
		}
		qs[i] = &queryState{origIndex: i, keyHash: append([]byte(nil), k...), bitmap: make([]byte, bitmapLen)}
	}
	ordered := append([]*queryState(nil), qs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return string(ordered[i].keyHash) < string(ordered[j].keyHash)
	})

	subtree, err := getSubtree(ctx, store, root, cfg)
	if err != nil {
		return nil, err
	}
	col := newProveCollector()
	if err := proveSubtree(ctx, store, cfg, subtree, 0, ordered, col); err != nil {
		return nil, err
	}

	out := &Proof{SiblingHashes: col.order, Queries: make([]QueryProof, len(qs))}
	for _, q := range qs {
		out.Queries[q.origIndex] = QueryProof{Key: q.keyHash, Value: q.value, Bitmap: q.bitmap}
	}
	return out, nil
}

// proveSubtree walks one subtree's full [0, 2^H) bin range via proveRange.
func proveSubtree(ctx context.Context, store Store, cfg *Config, subtree *SubTree, height int, queries []*queryState, col *proveCollector) error {
	if len(queries) == 0 {
		return nil
	}
	maxBins := 1 << uint(cfg.SubtreeHeight)
	return proveRange(ctx, store, cfg, subtree, height, 0, 0, len(subtree.Nodes), 0, maxBins, queries, col)
}

// proveRange resolves the queries landing in bin range [binLo, binHi),
// corresponding to node-array slice [nodeLo, nodeHi) of subtree at
// in-subtree depth depth. When that slice is exactly one node already
// sitting at depth, it hands off to proveWalk to continue below the
// subtree's own stored structure; otherwise it splits the range in half,
// assigns a sibling hash to whichever side has no queries of its own (using
// the two halves' folded hashes, known directly from the subtree's stored
// data without resolving any query), and recurses into each side that does.
func proveRange(ctx context.Context, store Store, cfg *Config, subtree *SubTree, height, depth, nodeLo, nodeHi, binLo, binHi int, queries []*queryState, col *proveCollector) error {
	if len(queries) == 0 {
		return nil
	}
	if nodeHi-nodeLo == 1 && int(subtree.Structure[nodeLo]) == depth {
		return proveWalk(ctx, store, cfg, subtree.Nodes[nodeLo], height, depth, queries, col)
	}
	if nodeHi-nodeLo < 2 {
		return newErr(Unknown, "proveRange: structure/bin range mismatch")
	}

	mid := (binLo + binHi) / 2
	nodeMid, err := findSplitIndex(subtree.Structure, nodeLo, nodeHi, cfg.SubtreeHeight, mid-binLo)
	if err != nil {
		return err
	}
	leftHash, err := foldRange(subtree, nodeLo, nodeMid)
	if err != nil {
		return err
	}
	rightHash, err := foldRange(subtree, nodeMid, nodeHi)
	if err != nil {
		return err
	}

	bitPos := height + depth
	var leftQ, rightQ []*queryState
	for _, q := range queries {
		if isBitSet(q.keyHash, bitPos) {
			rightQ = append(rightQ, q)
		} else {
			leftQ = append(leftQ, q)
		}
	}

	if len(leftQ) > 0 && len(rightQ) == 0 {
		markSibling(leftQ, bitPos, rightHash, cfg, col)
	}
	if len(rightQ) > 0 && len(leftQ) == 0 {
		markSibling(rightQ, bitPos, leftHash, cfg, col)
	}
	if len(leftQ) > 0 {
		if err := proveRange(ctx, store, cfg, subtree, height, depth+1, nodeLo, nodeMid, binLo, mid, leftQ, col); err != nil {
			return err
		}
	}
	if len(rightQ) > 0 {
		if err := proveRange(ctx, store, cfg, subtree, height, depth+1, nodeMid, nodeHi, mid, binHi, rightQ, col); err != nil {
			return err
		}
	}
	return nil
}

// findSplitIndex returns the node-array index at which the bin range owned
// by [nodeLo, nodeHi) splits into a first half of width targetSpan and a
// second half of the remainder. The structure's full-binary-tree invariant
// guarantees this always lands exactly on a node boundary.
func findSplitIndex(structure []byte, nodeLo, nodeHi, H, targetSpan int) (int, error) {
	sum := 0
	for i := nodeLo; i < nodeHi; i++ {
		sum += 1 << uint(H-int(structure[i]))
		if sum == targetSpan {
			return i + 1, nil
		}
		if sum > targetSpan {
			break
		}
	}
	return 0, newErr(Unknown, "findSplitIndex: structure does not split evenly at the requested bin")
}

// foldRange computes the combined hash of subtree.Nodes[lo:hi], as if that
// slice were its own complete subtree, via FoldHashes.
func foldRange(subtree *SubTree, lo, hi int) (Hash, error) {
	if hi-lo == 1 {
		return subtree.Nodes[lo].Hash(), nil
	}
	hashes := make([]Hash, hi-lo)
	maxDepth := 0
	for i := lo; i < hi; i++ {
		hashes[i-lo] = subtree.Nodes[i].Hash()
		if int(subtree.Structure[i]) > maxDepth {
			maxDepth = int(subtree.Structure[i])
		}
	}
	// Rebase the depths onto the slice's own root so FoldHashes stops there.
	span := 0
	for i := lo; i < hi; i++ {
		span += 1 << uint(maxDepth-int(subtree.Structure[i]))
	}
	rootDepth := maxDepth
	for ; span > 1; span >>= 1 {
		rootDepth--
	}
	rel := make([]byte, hi-lo)
	for i := lo; i < hi; i++ {
		rel[i-lo] = subtree.Structure[i] - byte(rootDepth)
	}
	return FoldHashes(hashes, rel, maxDepth-rootDepth)
}

// proveWalk continues resolving queries below a single stored node (node,
// at in-subtree depth h, absolute depth height+h): crossing into a child
// subtree for a Stub, terminating with an exclusion value for Empty, or —
// for a Leaf — recording an inclusion value for matching queries and
// continuing the bit-by-bit divergence search (mirroring updateNode's split
// case, but read-only, and free to continue past the subtree height H since
// a Leaf needs no further subtree boundary to resolve).
func proveWalk(ctx context.Context, store Store, cfg *Config, node Node, height, h int, queries []*queryState, col *proveCollector) error {
	if len(queries) == 0 {
		return nil
	}
	switch node.Kind {
	case KindEmpty:
		for _, q := range queries {
			q.value = nil
		}
		return nil
	case KindStub:
		if h != cfg.SubtreeHeight {
			return newErr(Unknown, "proveWalk: stub encountered before subtree boundary")
		}
		child, err := getSubtree(ctx, store, node.StubHash, cfg)
		if err != nil {
			return err
		}
		return proveSubtree(ctx, store, cfg, child, height+h, queries, col)
	case KindLeaf:
		return proveLeaf(node, height, h, queries, cfg, col)
	default:
		return newErr(Unknown, "proveWalk: unexpected node kind")
	}
}

func proveLeaf(node Node, height, h int, queries []*queryState, cfg *Config, col *proveCollector) error {
	var continuing []*queryState
	for _, q := range queries {
		if node.IsSameKey(q.keyHash) {
			vh := node.ValueHash
			q.value = append([]byte(nil), vh[:]...)
		} else {
			continuing = append(continuing, q)
		}
	}
	if len(continuing) == 0 {
		return nil
	}
	bitPos := height + h
	if bitPos >= cfg.totalDepthBits() {
		return newErr(InvalidInput, "query keys collide beyond the configured key length")
	}
	leafHash := node.Hash()
	leafBit := isBitSet(node.Key, bitPos)

	var matching, diverging []*queryState
	for _, q := range continuing {
		if isBitSet(q.keyHash, bitPos) == leafBit {
			matching = append(matching, q)
		} else {
			diverging = append(diverging, q)
		}
	}
	if len(diverging) > 0 {
		markSibling(diverging, bitPos, leafHash, cfg, col)
		for _, q := range diverging {
			q.value = nil
		}
	}
	if len(matching) > 0 {
		return proveLeaf(node, height, h+1, matching, cfg, col)
	}
	return nil
}

// vqueryState is one query's state during Verify: its key, the value
// recorded in the proof (nil for exclusion), its bitmap, and the highest
// depth at which that bitmap has a bit set (lastSibling, -1 if none).
type vqueryState struct {
	key         []byte
	value       []byte
	bitmap      []byte
	lastSibling int
}

func bitAt(bitmap []byte, pos int) bool {
	if pos/8 >= len(bitmap) {
		return false
	}
	return bitmap[pos/8]&(byte(0x80)>>uint(pos%8)) != 0
}

// highestSetBit returns the deepest depth at which bitmap records a
// non-default sibling, or -1 if the proof never recorded one for this key.
// Prove resolved the query one depth past this — a leaf match or an
// empty/divergence terminal — since Prove stops recording the instant a
// query resolves, however shallow that is in a compacted tree.
func highestSetBit(bitmap []byte) int {
	for i := len(bitmap)*8 - 1; i >= 0; i-- {
		if bitAt(bitmap, i) {
			return i
		}
	}
	return -1
}

// Verify recomputes the root implied by queries and proof and compares it
// to root. It mirrors Prove's recursive top-down structure exactly — split
// by bit, recurse fully into any side with queries, and for a query-less
// side either consume the next sibling hash or use the depth's default —
// which is what lets every query share a single sequential sibling-hash
// cursor.
func Verify(queries [][]byte, proof *Proof, root []byte, keyLength int) (bool, error) {
	if proof == nil {
		return false, newErr(InvalidInput, "nil proof")
	}
	if len(queries) != len(proof.Queries) {
		return false, newErr(InvalidInput, "query count does not match proof")
	}
	cfg, err := NewConfig(WithKeyLength(keyLength))
	if err != nil {
		return false, err
	}
	if len(queries) == 0 {
		return true, nil
	}

	var expected Hash
	if len(root) == 0 {
		expected = EmptyHash()
	} else {
		copy(expected[:], root)
	}

	bitmapLen := (cfg.totalDepthBits() + 7) / 8
	qs := make([]*vqueryState, len(queries))
	for i, qp := range proof.Queries {
		if !bytes.Equal(qp.Key, queries[i]) {
			return false, newErr(InvalidInput, "proof query key does not match supplied query at the same position")
		}
		if len(qp.Key) != cfg.KeyLength {
			return false, newErr(InvalidInput, "query key length mismatch")
		}
		bm := qp.Bitmap
		if bm == nil {
			bm = make([]byte, bitmapLen)
		}
		qs[i] = &vqueryState{key: qp.Key, value: qp.Value, bitmap: bm, lastSibling: highestSetBit(bm)}
	}

	cursor := 0
	derived, err := verifyGroup(qs, 0, &cursor, proof, cfg)
	if err != nil {
		return false, err
	}
	if cursor != len(proof.SiblingHashes) {
		return false, wrapErr(InvalidRoot, "proof left unconsumed sibling hashes", nil)
	}
	if derived != expected {
		return false, wrapErr(InvalidRoot, "derived root does not match expected root", nil)
	}
	return true, nil
}

// verifyGroup resolves one bit-partitioned group of queries into the hash
// its position contributes to the tree above. A lone remaining query
// terminates the instant depth passes its last recorded sibling bit — the
// same point proveLeaf stopped at, whether that was a full-key match, an
// empty subtree, or a bit divergence — not merely because the group has
// narrowed to one query, and not by continuing to the full key length
// regardless: a leaf hoisted above an all-empty region never gets wrapped
// in further branch hashes at commit time, so recursing past its true
// resolution depth would wrap it too, producing the wrong hash.
func verifyGroup(queries []*vqueryState, depth int, cursor *int, proof *Proof, cfg *Config) (Hash, error) {
	if len(queries) == 1 {
		q := queries[0]
		if depth > q.lastSibling {
			if len(q.value) == 0 {
				return EmptyHash(), nil
			}
			return LeafHash(q.key, q.value), nil
		}
	}
	if depth >= cfg.totalDepthBits() {
		return Hash{}, newErr(Unknown, "verifyGroup: query keys collide beyond the configured key length")
	}

	var leftQ, rightQ []*vqueryState
	for _, q := range queries {
		if isBitSet(q.key, depth) {
			rightQ = append(rightQ, q)
		} else {
			leftQ = append(leftQ, q)
		}
	}

	var leftHash, rightHash Hash
	var err error
	switch {
	case len(leftQ) > 0 && len(rightQ) > 0:
		leftHash, err = verifyGroup(leftQ, depth+1, cursor, proof, cfg)
		if err != nil {
			return Hash{}, err
		}
		rightHash, err = verifyGroup(rightQ, depth+1, cursor, proof, cfg)
		if err != nil {
			return Hash{}, err
		}
	case len(leftQ) > 0:
		rightHash, err = consumeOrDefault(leftQ[0], depth, cursor, proof, cfg)
		if err != nil {
			return Hash{}, err
		}
		leftHash, err = verifyGroup(leftQ, depth+1, cursor, proof, cfg)
		if err != nil {
			return Hash{}, err
		}
	case len(rightQ) > 0:
		leftHash, err = consumeOrDefault(rightQ[0], depth, cursor, proof, cfg)
		if err != nil {
			return Hash{}, err
		}
		rightHash, err = verifyGroup(rightQ, depth+1, cursor, proof, cfg)
		if err != nil {
			return Hash{}, err
		}
	default:
		return Hash{}, newErr(Unknown, "verifyGroup: empty query group")
	}
	return BranchHash(leftHash, rightHash), nil
}

func consumeOrDefault(q *vqueryState, depth int, cursor *int, proof *Proof, cfg *Config) (Hash, error) {
	if bitAt(q.bitmap, depth) {
		if *cursor >= len(proof.SiblingHashes) {
			return Hash{}, wrapErr(InvalidRoot, "proof ran out of sibling hashes", nil)
		}
		h := proof.SiblingHashes[*cursor]
		*cursor++
		return h, nil
	}
	remaining := cfg.totalDepthBits() - depth - 1
	return cfg.DefaultHashAtDepth(remaining), nil
}
