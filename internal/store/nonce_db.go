package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
)

const NoncePrefix = "nonce:"

// Nonce 返回 authority 最近一次已使用的 nonce，从未使用为 0
func (s *Store) Nonce(authority string) (uint64, error) {
	var n uint64
	err := s.View(func(t *Txn) error {
		var err error
		n, err = t.nonce(authority)
		return err
	})
	return n, err
}

// UseNonce 要求 nonce 恰好等于上次的值加一，并记录下来（防重放）
func (t *Txn) UseNonce(authority string, nonce uint64) error {
	last, err := t.nonce(authority)
	if err != nil {
		return err
	}
	if nonce != last+1 {
		return fmt.Errorf("%w: expected %d, got %d", ErrNonceMismatch, last+1, nonce)
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], nonce)
	return t.txn.Set([]byte(NoncePrefix+authority), b[:])
}

func (t *Txn) nonce(authority string) (uint64, error) {
	item, err := t.txn.Get([]byte(NoncePrefix + authority))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var n uint64
	err = item.Value(func(v []byte) error {
		if len(v) != 8 {
			return errors.New("invalid nonce length")
		}
		n = binary.BigEndian.Uint64(v)
		return nil
	})
	return n, err
}
