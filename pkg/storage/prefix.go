package storage

// PrefixStore scopes a KVStore to all keys under a fixed prefix, presenting
// them as if the prefix didn't exist. Used to give each contract its own
// namespaced sub-store under the reserved CONTRACT_NAMESPACE ("wasm")
// segment, mirroring original_source/crates/app/src/vm.rs's
// PrefixStore::new(store, &[CONTRACT_NAMESPACE, address]) call.
type PrefixStore struct {
	inner  KVStore
	prefix []byte
}

func NewPrefixStore(inner KVStore, prefix []byte) *PrefixStore {
	return &PrefixStore{inner: inner, prefix: prefix}
}

func (p *PrefixStore) full(key []byte) []byte {
	out := make([]byte, 0, len(p.prefix)+len(key))
	out = append(out, p.prefix...)
	out = append(out, key...)
	return out
}

func (p *PrefixStore) Get(key []byte) ([]byte, error) { return p.inner.Get(p.full(key)) }

func (p *PrefixStore) Has(key []byte) (bool, error) { return p.inner.Has(p.full(key)) }

func (p *PrefixStore) Set(key, value []byte) error { return p.inner.Set(p.full(key), value) }

func (p *PrefixStore) Delete(key []byte) error { return p.inner.Delete(p.full(key)) }

func (p *PrefixStore) Iterator(start, end []byte) (Iterator, error) {
	innerStart := p.full(start)
	var innerEnd []byte
	if end == nil {
		innerEnd = incrementKey(p.prefix)
	} else {
		innerEnd = p.full(end)
	}
	it, err := p.inner.Iterator(innerStart, innerEnd)
	if err != nil {
		return nil, err
	}
	return &unprefixIterator{it: it, prefixLen: len(p.prefix)}, nil
}

func (p *PrefixStore) ReverseIterator(start, end []byte) (Iterator, error) {
	innerStart := p.full(start)
	var innerEnd []byte
	if end == nil {
		innerEnd = incrementKey(p.prefix)
	} else {
		innerEnd = p.full(end)
	}
	it, err := p.inner.ReverseIterator(innerStart, innerEnd)
	if err != nil {
		return nil, err
	}
	return &unprefixIterator{it: it, prefixLen: len(p.prefix)}, nil
}

// unprefixIterator strips the prefix back off keys yielded by the
// underlying iterator so callers never see it.
type unprefixIterator struct {
	it        Iterator
	prefixLen int
}

func (u *unprefixIterator) Valid() bool { return u.it.Valid() }
func (u *unprefixIterator) Next()       { u.it.Next() }
func (u *unprefixIterator) Key() []byte {
	k := u.it.Key()
	if len(k) < u.prefixLen {
		return k
	}
	return k[u.prefixLen:]
}
func (u *unprefixIterator) Value() []byte { return u.it.Value() }
func (u *unprefixIterator) Close() error  { return u.it.Close() }
