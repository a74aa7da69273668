package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"token_ledger_go/internal/types"
	"token_ledger_go/pkg/audit"

	badger "github.com/dgraph-io/badger/v3"
)

var (
	keyLastIndex = []byte("audit:lastIndex")
	keyLastHash  = []byte("audit:lastHash")
	keyEntryPref = []byte("audit:entry:")
)

// 将uint64 索引转成 8 字节小端
func entryKey(index uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], index)
	return append(append([]byte{}, keyEntryPref...), b[:]...)
}

// AppendEntry 在当前事务内追加审计条目，与账本修改一起提交或回滚
func (t *Txn) AppendEntry(txBytes []byte) (*types.Entry, error) {
	lastIndex, lastHash, err := loadLast(t.txn)
	if err != nil {
		return nil, err
	}
	e := audit.Next(lastIndex, lastHash, txBytes)
	enc, err := audit.Encode(e)
	if err != nil {
		return nil, err
	}
	if err := t.txn.Set(entryKey(e.Index), enc); err != nil {
		return nil, err
	}
	var b8 [8]byte
	binary.LittleEndian.PutUint64(b8[:], e.Index)
	if err := t.txn.Set(keyLastIndex, b8[:]); err != nil {
		return nil, err
	}
	if err := t.txn.Set(keyLastHash, e.EntryHash[:]); err != nil {
		return nil, err
	}
	return e, nil
}

// 获取审计条目
func (s *Store) GetEntry(index uint64) (*types.Entry, error) {
	var e *types.Entry
	err := s.View(func(t *Txn) error {
		var err error
		e, err = getEntry(t.txn, index)
		return err
	})
	return e, err
}

// ListEntries 返回 [from, lastIndex] 区间的条目，from 从 1 开始
func (s *Store) ListEntries(from uint64) ([]*types.Entry, error) {
	if from == 0 {
		from = 1
	}
	var entries []*types.Entry
	err := s.View(func(t *Txn) error {
		lastIndex, _, err := loadLast(t.txn)
		if err != nil {
			return err
		}
		for i := from; i <= lastIndex; i++ {
			e, err := getEntry(t.txn, i)
			if err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

// 验证哈希链
func (s *Store) VerifyChain() error {
	return s.View(func(t *Txn) error {
		lastIndex, lastHash, err := loadLast(t.txn)
		if err != nil {
			return err
		}
		var prevHash [32]byte // genesis prevHash = 0
		for i := uint64(1); i <= lastIndex; i++ {
			e, err := getEntry(t.txn, i)
			if err != nil {
				return fmt.Errorf("audit entry %d: %w", i, err)
			}
			if err := audit.VerifyLink(i, prevHash, e); err != nil {
				return err
			}
			prevHash = e.EntryHash
		}
		if prevHash != lastHash {
			return errors.New("audit chain broken: lastHash mismatch")
		}
		return nil
	})
}

func getEntry(txn *badger.Txn, index uint64) (*types.Entry, error) {
	item, err := txn.Get(entryKey(index))
	if err != nil {
		return nil, err
	}
	var e *types.Entry
	err = item.Value(func(val []byte) error {
		dec, derr := audit.Decode(val)
		if derr != nil {
			return derr
		}
		e = dec
		return nil
	})
	return e, err
}

// 读取lastIndex和lastHash
func loadLast(txn *badger.Txn) (uint64, [32]byte, error) {
	var lastIndex uint64
	var lastHash [32]byte

	if item, err := txn.Get(keyLastIndex); err == nil {
		if err := item.Value(func(v []byte) error {
			if len(v) != 8 {
				return errors.New("invalid lastIndex length")
			}
			lastIndex = binary.LittleEndian.Uint64(v)
			return nil
		}); err != nil {
			return 0, [32]byte{}, err
		}
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return 0, [32]byte{}, err
	}

	if item, err := txn.Get(keyLastHash); err == nil {
		if err := item.Value(func(v []byte) error {
			if len(v) != 32 {
				return errors.New("invalid lastHash length")
			}
			copy(lastHash[:], v)
			return nil
		}); err != nil {
			return 0, [32]byte{}, err
		}
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return 0, [32]byte{}, err
	}

	return lastIndex, lastHash, nil
}
