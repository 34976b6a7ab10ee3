package merkle

import (
	"encoding/binary"
	"fmt"
)

// RawStore is the minimal read surface a NodeStore needs from the physical
// database: exact-key lookup. pkg/db satisfies it through a small adapter
// over its backend (merkle_adapter.go).
type RawStore interface {
	Get(key []byte) ([]byte, error)
}

// BatchWriter is the minimal write surface CommitPending needs; satisfied
// structurally by cometbft-db's dbm.Batch.
type BatchWriter interface {
	Set(key, value []byte) error
}

// NodeStore reads immutable nodes from a RawStore and buffers new nodes (and
// the orphans their writes create) in memory until CommitPending flushes
// them into a shared write batch alongside the rest of a block's state.
type NodeStore struct {
	raw RawStore

	pendingNodes   map[string][]byte
	pendingOrphans []orphanRecord
}

type orphanRecord struct {
	orphanedAtVersion uint64
	nodeKey           NodeKey
}

func NewNodeStore(raw RawStore) *NodeStore {
	return &NodeStore{raw: raw, pendingNodes: make(map[string][]byte)}
}

func (s *NodeStore) get(key NodeKey) (*resolvedNode, error) {
	encKey := append(append([]byte{}, DefaultNodeNamespace...), key.Encode()...)
	if raw, ok := s.pendingNodes[string(encKey)]; ok {
		return decodeNode(raw)
	}
	raw, err := s.raw.Get(encKey)
	if err != nil {
		return nil, fmt.Errorf("merkle: get node: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	return decodeNode(raw)
}

func (s *NodeStore) stage(key NodeKey, n *resolvedNode) {
	encKey := append(append([]byte{}, DefaultNodeNamespace...), key.Encode()...)
	s.pendingNodes[string(encKey)] = encodeNode(n)
}

// markOrphan records that the node previously addressed by key became
// unreachable as of version. The record is written to the orphan
// namespace; nothing in this module reads it back or deletes the node.
func (s *NodeStore) markOrphan(version uint64, key NodeKey) {
	s.pendingOrphans = append(s.pendingOrphans, orphanRecord{orphanedAtVersion: version, nodeKey: key})
}

// flush writes every staged node and orphan record into batch and clears
// the pending buffers.
func (s *NodeStore) flush(batch BatchWriter) error {
	for k, v := range s.pendingNodes {
		if err := batch.Set([]byte(k), v); err != nil {
			return err
		}
	}
	for _, o := range s.pendingOrphans {
		key := orphanKey(o.orphanedAtVersion, o.nodeKey)
		if err := batch.Set(key, []byte{0x01}); err != nil {
			return err
		}
	}
	s.pendingNodes = make(map[string][]byte)
	s.pendingOrphans = nil
	return nil
}

func orphanKey(orphanedAtVersion uint64, nodeKey NodeKey) []byte {
	var vb [8]byte
	binary.BigEndian.PutUint64(vb[:], orphanedAtVersion)
	out := append(append([]byte{}, DefaultOrphanNamespace...), vb[:]...)
	return append(out, nodeKey.Encode()...)
}
