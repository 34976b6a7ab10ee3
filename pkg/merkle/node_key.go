package merkle

import "encoding/binary"

// NodeKey identifies exactly one immutable node: the version it was
// written at plus its bit-path from the root. Grounded on
// original_source/crates/jellyfish-merkle/src/lib.rs's node_key module.
type NodeKey struct {
	Version uint64
	Path    NibblePath
}

// Encode packs a NodeKey into the physical bytes used to address it inside
// DefaultNodeNamespace: version (8 bytes, big-endian so range scans by
// version sort naturally) || path length in bits (2 bytes) || packed path
// bits.
func (k NodeKey) Encode() []byte {
	pathBytes := k.Path.Bytes()
	out := make([]byte, 0, 10+len(pathBytes))
	var vb [8]byte
	binary.BigEndian.PutUint64(vb[:], k.Version)
	out = append(out, vb[:]...)
	var lb [2]byte
	binary.BigEndian.PutUint16(lb[:], uint16(k.Path.Len()))
	out = append(out, lb[:]...)
	out = append(out, pathBytes...)
	return out
}
