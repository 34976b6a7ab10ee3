package db

import "fmt"

// PutCode stores a content-addressed contract code blob under nsWasm,
// keyed by its hash. Code blobs are immutable and addressed by content, so
// unlike application state they need no version suffix -- writing the same
// hash twice is a no-op in effect.
func (d *DB) PutCode(hash, code []byte) error {
	key := append(append([]byte{}, nsWasm...), hash...)
	if err := d.back.setSync(key, code); err != nil {
		return fmt.Errorf("db: put code: %w", err)
	}
	return nil
}

// GetCode loads a code blob by hash, returning (nil, false, nil) if absent.
func (d *DB) GetCode(hash []byte) ([]byte, bool, error) {
	key := append(append([]byte{}, nsWasm...), hash...)
	v, err := d.back.get(key)
	if err != nil {
		return nil, false, fmt.Errorf("db: get code: %w", err)
	}
	return v, v != nil, nil
}
