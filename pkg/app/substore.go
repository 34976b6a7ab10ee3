package app

import "github.com/certen-labs/chainkit/pkg/storage"

// ContractSubstore scopes store to address's private namespace under
// ContractNamespace, mirroring original_source/crates/app/src/vm.rs's
// PrefixStore::new(store, &[CONTRACT_NAMESPACE, address]). A contract can
// never observe or mutate a key outside this prefix, satisfying the
// isolation invariant SPEC_FULL.md §8 requires.
func ContractSubstore(store storage.KVStore, address []byte) *storage.PrefixStore {
	prefix := storage.JoinKey([][]byte{ContractNamespace, address})
	return storage.NewPrefixStore(store, prefix)
}
