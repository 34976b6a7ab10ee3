package merkle

// Namespace prefixes applied to every physical key the tree writes, so a
// single underlying KV database can host the tree's nodes, its orphan
// records, and its per-version root pointers alongside unrelated data.
// Named to mirror original_source/crates/jellyfish-merkle/src/lib.rs's
// DEFAULT_NODE_NAMESPACE / DEFAULT_ORPHAN_NAMESPACE / DEFAULT_VERSION_NAMESPACE.
var (
	DefaultNodeNamespace    = []byte("jmt_nodes")
	DefaultOrphanNamespace  = []byte("jmt_orphans")
	DefaultVersionNamespace = []byte("jmt_versions")
)
