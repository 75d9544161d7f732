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

// FoldHashes collapses a ragged list of node hashes, paired with the depth
// each sits at (structure), into the single root hash of the subtree they
// belong to. height must equal max(structure).
//
// At each pass, adjacent entries whose depth equals the current height are
// combined with BranchHash and promoted to height-1; everything else is
// carried forward unchanged. This repeats until height reaches 0, at which
// point exactly one hash remains.
//
// A single-node input (len(nodeHashes) == 1) is returned unchanged — this
// is what makes the one-node empty subtree hash to EmptyHash() rather than
// to some branch hash of it.
func FoldHashes(nodeHashes []Hash, structure []byte, height int) (Hash, error) {
	if len(nodeHashes) != len(structure) {
		return Hash{}, newErr(Unknown, "FoldHashes: hash/structure length mismatch")
	}
	if len(nodeHashes) == 0 {
		return Hash{}, newErr(Unknown, "FoldHashes: empty input")
	}
	if len(nodeHashes) == 1 {
		return nodeHashes[0], nil
	}

	hashes := append([]Hash(nil), nodeHashes...)
	depths := append([]byte(nil), structure...)

	for height > 0 {
		newHashes := make([]Hash, 0, len(hashes))
		newDepths := make([]byte, 0, len(depths))
		i := 0
		for i < len(hashes) {
			if int(depths[i]) == height {
				if i+1 >= len(hashes) {
					return Hash{}, newErr(Unknown, "FoldHashes: unpaired node at fold height")
				}
				h := BranchHash(hashes[i], hashes[i+1])
				newHashes = append(newHashes, h)
				newDepths = append(newDepths, byte(height-1))
				i += 2
			} else {
				newHashes = append(newHashes, hashes[i])
				newDepths = append(newDepths, depths[i])
				i++
			}
		}
		hashes, depths = newHashes, newDepths
		height--
	}
	if len(hashes) != 1 {
		return Hash{}, newErr(Unknown, "FoldHashes: did not collapse to a single root")
	}
	return hashes[0], nil
}
