package store

import (
	"errors"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNonceMismatch = errors.New("nonce mismatch")
)

type Store struct {
	db *badger.DB
	// 写事务串行执行：每次提交都会读写 audit:lastIndex 和 audit:lastHash
	mu sync.Mutex
}

func NewStore(db *badger.DB) *Store {
	return &Store{
		db: db,
	}
}

// Open 打开 Badger；dir 为空时使用内存模式。
func Open(dir string, logger badger.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(logger)
	return badger.Open(opts)
}

// Txn 是一次读写事务，实现 token.Ledger。
type Txn struct {
	txn *badger.Txn
}

// Update 在单个可串行化事务中执行 fn，fn 返回错误则全部回滚。
// 写事务持有 s.mu 依次执行；若仍遇到 badger.ErrConflict（例如 Restore
// 期间），重新执行 fn，让其读到最新状态，冲突不会返回给调用方。
func (s *Store) Update(fn func(*Txn) error) error {
	if s == nil || s.db == nil {
		return errors.New("nil store")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		err := s.db.Update(func(txn *badger.Txn) error {
			return fn(&Txn{txn: txn})
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}
}

// View 在只读事务中执行 fn
func (s *Store) View(fn func(*Txn) error) error {
	if s == nil || s.db == nil {
		return errors.New("nil store")
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&Txn{txn: txn})
	})
}
