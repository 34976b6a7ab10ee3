package db

// merkleRawStore adapts backend's unexported get into the exported Get
// method pkg/merkle.RawStore requires.
type merkleRawStore struct {
	back *backend
}

func newMerkleAdapter(back *backend) *merkleRawStore {
	return &merkleRawStore{back: back}
}

func (a *merkleRawStore) Get(key []byte) ([]byte, error) {
	return a.back.get(key)
}
