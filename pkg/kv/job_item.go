package kv

type batchData struct {
	key   []byte
	value ViterbiRecord
}

// store. raw key value backend under a KVDB.
type store interface {
	get(key []byte) ([]byte, error)
	set(key, val []byte) error
	setBatch(keys, vals [][]byte) error
	close() error
}
